package queries

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"gitlab.com/cloverpay-platform/affiliate_api/model"
)

// GetReferralByToken loads a referral by its opaque token
func GetReferralByToken(db *gorm.DB, token string) (*model.Referral, error) {
	referral := model.Referral{}
	q := db.Where("token = ?", token).First(&referral)
	if q.Error != nil {
		if errors.Is(q.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, q.Error
	}
	return &referral, nil
}

// GetReferralByUserID loads the referral attributed to an external user id.
// At most one referral exists per user id, first attribution wins.
func GetReferralByUserID(db *gorm.DB, userID string) (*model.Referral, error) {
	referral := model.Referral{}
	q := db.Where("user_id = ?", userID).First(&referral)
	if q.Error != nil {
		if errors.Is(q.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, q.Error
	}
	return &referral, nil
}

// GetReferralByPaymentCustomerID loads the referral linked to a payment
// processor customer record
func GetReferralByPaymentCustomerID(db *gorm.DB, customerID string) (*model.Referral, error) {
	referral := model.Referral{}
	q := db.Where("payment_customer_id = ?", customerID).First(&referral)
	if q.Error != nil {
		if errors.Is(q.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, q.Error
	}
	return &referral, nil
}

// ExpireStaleReferrals flips referrals past their attribution window to
// expired, in bounded batches so the sweep stays responsive under the
// scheduler. Converted and already expired referrals are excluded by the
// filter, so each referral transitions at most once even when the sweep runs
// concurrently with itself.
func ExpireStaleReferrals(db *gorm.DB, now time.Time, batchSize int) (int64, error) {
	q := db.Exec(`
		UPDATE referrals SET status = ?, updated_at = ?
		WHERE id IN (
			SELECT id FROM referrals
			WHERE expires_at < ? AND status IN (?, ?)
			LIMIT ?
		)`,
		model.ReferralStatusExpired, now,
		now, model.ReferralStatusClicked, model.ReferralStatusSignedUp,
		batchSize,
	)
	if q.Error != nil {
		return 0, q.Error
	}
	return q.RowsAffected, nil
}
