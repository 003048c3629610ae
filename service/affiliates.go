package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"gitlab.com/cloverpay-platform/affiliate_api/cache/campaigns"
	"gitlab.com/cloverpay-platform/affiliate_api/model"
	"gitlab.com/cloverpay-platform/affiliate_api/queries"
)

// RegisterAffiliateRequest carries the registration input
type RegisterAffiliateRequest struct {
	UserID           string
	CampaignID       *uint64
	Code             *string
	RecruitmentToken *string
}

// RegisterAffiliate creates a new affiliate in pending state. Registering the
// same external user twice returns the existing affiliate. When a valid
// recruitment token is presented the new affiliate is attributed to its
// recruiter through a back reference only.
func (service *Service) RegisterAffiliate(req RegisterAffiliateRequest) (*model.Affiliate, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("missing user id")
	}
	existing, err := queries.GetAffiliateByUserID(service.repo.ConnReader, req.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	campaign, err := service.resolveCampaign(req.CampaignID)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, fmt.Errorf("no campaign available for registration")
	}

	code := ""
	if req.Code != nil && *req.Code != "" {
		code = strings.ToUpper(*req.Code)
	} else {
		code, err = generateAffiliateCode()
		if err != nil {
			return nil, fmt.Errorf("unable to generate affiliate code: %w", err)
		}
	}

	now := time.Now()
	affiliate := &model.Affiliate{
		UserID:     req.UserID,
		CampaignID: campaign.ID,
		Code:       code,
		Status:     model.AffiliateStatusPending,
	}
	if campaign.RecruitmentEnabled {
		recruitmentCode, err := generateAffiliateCode()
		if err != nil {
			return nil, fmt.Errorf("unable to generate recruitment code: %w", err)
		}
		affiliate.RecruitmentCode = &recruitmentCode
	}

	err = service.repo.Conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(affiliate).Error; err != nil {
			return err
		}
		if req.RecruitmentToken == nil {
			return nil
		}
		parentID, err := service.consumeRecruitmentReferral(tx, *req.RecruitmentToken, affiliate, now)
		if err != nil {
			return err
		}
		if parentID == nil {
			return nil
		}
		affiliate.ReferredByAffiliateID = parentID
		return tx.Model(affiliate).Updates(map[string]interface{}{
			"referred_by_affiliate_id": *parentID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return affiliate, nil
}

// ApproveAffiliate moves a pending or suspended affiliate to approved.
// Operating on an unknown id or an illegal transition is an internal
// contract violation, not expected input variance.
func (service *Service) ApproveAffiliate(affiliateID uint64) error {
	return service.transitionAffiliate(affiliateID, model.AffiliateStatusApproved)
}

// RejectAffiliate declines a pending application
func (service *Service) RejectAffiliate(affiliateID uint64) error {
	return service.transitionAffiliate(affiliateID, model.AffiliateStatusRejected)
}

// SuspendAffiliate temporarily blocks an approved affiliate
func (service *Service) SuspendAffiliate(affiliateID uint64) error {
	return service.transitionAffiliate(affiliateID, model.AffiliateStatusSuspended)
}

func (service *Service) transitionAffiliate(affiliateID uint64, next model.AffiliateStatus) error {
	affiliate, err := queries.GetAffiliateByID(service.repo.Conn, affiliateID)
	if err != nil {
		return err
	}
	if affiliate == nil {
		return fmt.Errorf("affiliate %d not found", affiliateID)
	}
	if !affiliate.Status.CanTransitionTo(next) {
		return fmt.Errorf("affiliate %d can not move from %s to %s", affiliateID, affiliate.Status, next)
	}
	fromPending := affiliate.Status == model.AffiliateStatusPending

	return service.repo.Conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(affiliate).Updates(map[string]interface{}{
			"status": next,
		}).Error; err != nil {
			return err
		}
		if next == model.AffiliateStatusApproved && fromPending {
			return service.onAffiliateApproved(tx, affiliate)
		}
		return nil
	})
}

// GetAffiliateStats returns the dashboard read model for an affiliate
func (service *Service) GetAffiliateStats(affiliateID uint64) (*model.AffiliateStatsResponse, error) {
	affiliate, err := queries.GetAffiliateByID(service.repo.ConnReader, affiliateID)
	if err != nil {
		return nil, err
	}
	if affiliate == nil {
		return nil, nil
	}
	return affiliate.StatsResponse(), nil
}

// GetAffiliateByCode returns the affiliate behind a code, for the public
// tracking surface
func (service *Service) GetAffiliateByCode(code string) (*model.Affiliate, error) {
	return queries.GetAffiliateByCode(service.repo.ConnReader, code)
}

// GetAffiliateCommissions returns one page of an affiliate's commission history
func (service *Service) GetAffiliateCommissions(affiliateID uint64, page, limit int) (*model.CommissionList, error) {
	return queries.GetCommissionsByAffiliateID(service.repo.ConnReader, affiliateID, page, limit)
}

// GetAffiliateReferrals returns one page of an affiliate's referral funnel
func (service *Service) GetAffiliateReferrals(affiliateID uint64, page, limit int) (*model.ReferralList, error) {
	return queries.GetReferralsByAffiliateID(service.repo.ConnReader, affiliateID, page, limit)
}

func (service *Service) resolveCampaign(campaignID *uint64) (*model.Campaign, error) {
	if campaignID != nil {
		if campaign, ok := campaigns.Get(*campaignID); ok {
			return campaign, nil
		}
		return queries.GetCampaignByID(service.repo.ConnReader, *campaignID)
	}
	if campaign, ok := campaigns.GetDefault(); ok {
		return campaign, nil
	}
	return queries.GetDefaultCampaign(service.repo.ConnReader)
}

// generateAffiliateCode mints a short human readable affiliate code
func generateAffiliateCode() (string, error) {
	bytes := make([]byte, 4)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(bytes)), nil
}
