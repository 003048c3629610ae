package queries

import (
	"errors"

	"gorm.io/gorm"

	"gitlab.com/cloverpay-platform/affiliate_api/model"
)

// GetCommissionByInvoiceID loads a commission by its external invoice id,
// the dedup key for webhook redelivery
func GetCommissionByInvoiceID(db *gorm.DB, invoiceID string) (*model.Commission, error) {
	commission := model.Commission{}
	q := db.Where("invoice_id = ?", invoiceID).First(&commission)
	if q.Error != nil {
		if errors.Is(q.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, q.Error
	}
	return &commission, nil
}

// GetCommissionByChargeID loads a commission by the external charge id
func GetCommissionByChargeID(db *gorm.DB, chargeID string) (*model.Commission, error) {
	commission := model.Commission{}
	q := db.Where("charge_id = ?", chargeID).First(&commission)
	if q.Error != nil {
		if errors.Is(q.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, q.Error
	}
	return &commission, nil
}

// CountSubscriptionCommissions counts the commissions already earned on a
// subscription, reversed ones included, to derive the next payment number
func CountSubscriptionCommissions(db *gorm.DB, subscriptionID string) (int64, error) {
	var count int64
	q := db.Model(&model.Commission{}).
		Where("subscription_id = ?", subscriptionID).
		Count(&count)
	if q.Error != nil {
		return 0, q.Error
	}
	return count, nil
}

// GetFirstSubscriptionCommission loads the earliest commission on a
// subscription, used by the max_months duration gate
func GetFirstSubscriptionCommission(db *gorm.DB, subscriptionID string) (*model.Commission, error) {
	commission := model.Commission{}
	q := db.Where("subscription_id = ?", subscriptionID).
		Order("created_at ASC").
		First(&commission)
	if q.Error != nil {
		if errors.Is(q.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, q.Error
	}
	return &commission, nil
}

// GetSubCommissionBySourceID loads the derived sub affiliate commission for
// a source commission
func GetSubCommissionBySourceID(db *gorm.DB, sourceCommissionID uint64) (*model.SubAffiliateCommission, error) {
	sub := model.SubAffiliateCommission{}
	q := db.Where("source_commission_id = ?", sourceCommissionID).First(&sub)
	if q.Error != nil {
		if errors.Is(q.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, q.Error
	}
	return &sub, nil
}
