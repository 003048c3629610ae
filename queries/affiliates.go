package queries

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"gitlab.com/cloverpay-platform/affiliate_api/model"
)

// GetAffiliateByID loads an affiliate by internal id.
// Returns nil without an error when no affiliate matches.
func GetAffiliateByID(db *gorm.DB, id uint64) (*model.Affiliate, error) {
	affiliate := model.Affiliate{}
	q := db.Where("id = ?", id).First(&affiliate)
	if q.Error != nil {
		if errors.Is(q.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, q.Error
	}
	return &affiliate, nil
}

// GetAffiliateByCode loads an affiliate by its human readable code.
// Codes are case insensitive.
func GetAffiliateByCode(db *gorm.DB, code string) (*model.Affiliate, error) {
	affiliate := model.Affiliate{}
	q := db.Where("lower(code) = ?", strings.ToLower(code)).First(&affiliate)
	if q.Error != nil {
		if errors.Is(q.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, q.Error
	}
	return &affiliate, nil
}

// GetAffiliateByRecruitmentCode loads an affiliate by its recruitment code
func GetAffiliateByRecruitmentCode(db *gorm.DB, code string) (*model.Affiliate, error) {
	affiliate := model.Affiliate{}
	q := db.Where("lower(recruitment_code) = ?", strings.ToLower(code)).First(&affiliate)
	if q.Error != nil {
		if errors.Is(q.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, q.Error
	}
	return &affiliate, nil
}

// GetAffiliateByUserID loads the affiliate registered for an external user id
func GetAffiliateByUserID(db *gorm.DB, userID string) (*model.Affiliate, error) {
	affiliate := model.Affiliate{}
	q := db.Where("user_id = ?", userID).First(&affiliate)
	if q.Error != nil {
		if errors.Is(q.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, q.Error
	}
	return &affiliate, nil
}

// LockAffiliateByID loads an affiliate by id with a row lock, for use inside
// a transaction where a counter check and a dependent insert must be atomic
func LockAffiliateByID(tx *gorm.DB, id uint64) (*model.Affiliate, error) {
	affiliate := model.Affiliate{}
	q := tx.Raw(`SELECT * FROM "affiliates" WHERE id = ? FOR UPDATE`, id).Scan(&affiliate)
	if q.Error != nil {
		return nil, q.Error
	}
	if q.RowsAffected == 0 {
		return nil, nil
	}
	return &affiliate, nil
}
