package queries

import (
	"errors"

	"gorm.io/gorm"

	"gitlab.com/cloverpay-platform/affiliate_api/model"
)

// GetRecruitmentReferralByToken loads a recruitment referral by its token
func GetRecruitmentReferralByToken(db *gorm.DB, token string) (*model.RecruitmentReferral, error) {
	referral := model.RecruitmentReferral{}
	q := db.Where("token = ?", token).First(&referral)
	if q.Error != nil {
		if errors.Is(q.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, q.Error
	}
	return &referral, nil
}
