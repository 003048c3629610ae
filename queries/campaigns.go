package queries

import (
	"errors"

	"gorm.io/gorm"

	"gitlab.com/cloverpay-platform/affiliate_api/model"
)

// GetCampaignByID loads a campaign by id
func GetCampaignByID(db *gorm.DB, id uint64) (*model.Campaign, error) {
	campaign := model.Campaign{}
	q := db.Where("id = ?", id).First(&campaign)
	if q.Error != nil {
		if errors.Is(q.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, q.Error
	}
	return &campaign, nil
}

// GetDefaultCampaign loads the campaign marked as default. At most one
// campaign carries the flag at a time.
func GetDefaultCampaign(db *gorm.DB) (*model.Campaign, error) {
	campaign := model.Campaign{}
	q := db.Where("is_default = ?", true).First(&campaign)
	if q.Error != nil {
		if errors.Is(q.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, q.Error
	}
	return &campaign, nil
}

// GetAllCampaigns loads every campaign for the in process cache refresh
func GetAllCampaigns(db *gorm.DB) ([]model.Campaign, error) {
	campaigns := make([]model.Campaign, 0)
	q := db.Find(&campaigns)
	if q.Error != nil {
		return nil, q.Error
	}
	return campaigns, nil
}
