package queries

import (
	"gorm.io/gorm"

	"gitlab.com/cloverpay-platform/affiliate_api/model"
)

// GetCommissionsByAffiliateID loads one page of an affiliate's commission
// history, newest first
func GetCommissionsByAffiliateID(db *gorm.DB, affiliateID uint64, page, limit int) (*model.CommissionList, error) {
	commissions := make([]model.Commission, 0)
	var count int64

	q := db.Model(&model.Commission{}).Where("affiliate_id = ?", affiliateID)
	if err := q.Count(&count).Error; err != nil {
		return nil, err
	}
	if err := q.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&commissions).Error; err != nil {
		return nil, err
	}

	return &model.CommissionList{
		Commissions: commissions,
		Meta: model.PagingMeta{
			Page:  page,
			Count: count,
			Limit: limit,
		},
	}, nil
}

// GetReferralsByAffiliateID loads one page of an affiliate's referral
// funnel, newest first
func GetReferralsByAffiliateID(db *gorm.DB, affiliateID uint64, page, limit int) (*model.ReferralList, error) {
	referrals := make([]model.Referral, 0)
	var count int64

	q := db.Model(&model.Referral{}).Where("affiliate_id = ?", affiliateID)
	if err := q.Count(&count).Error; err != nil {
		return nil, err
	}
	if err := q.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&referrals).Error; err != nil {
		return nil, err
	}

	return &model.ReferralList{
		Referrals: referrals,
		Meta: model.PagingMeta{
			Page:  page,
			Count: count,
			Limit: limit,
		},
	}, nil
}
