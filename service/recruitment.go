package service

import (
	"time"

	"gorm.io/gorm"

	"gitlab.com/cloverpay-platform/affiliate_api/model"
	"gitlab.com/cloverpay-platform/affiliate_api/queries"
)

// TrackRecruitmentClick records a visit on an affiliate recruitment link.
// Declines silently when the code is unknown, the recruiter is not approved,
// the campaign has recruitment disabled or the recruiter already reached the
// recruit cap. The cap check and the insert run in one transaction with the
// recruiter row locked, so concurrent click storms can not over admit past
// the configured maximum.
func (service *Service) TrackRecruitmentClick(recruitmentCode string) (*model.RecruitmentReferral, error) {
	recruiter, err := queries.GetAffiliateByRecruitmentCode(service.repo.ConnReader, recruitmentCode)
	if err != nil {
		return nil, err
	}
	if recruiter == nil || !recruiter.IsApproved() {
		return nil, nil
	}
	campaign, err := service.campaignFor(recruiter)
	if err != nil {
		return nil, err
	}
	if campaign == nil || !campaign.RecruitmentEnabled {
		return nil, nil
	}

	now := time.Now()
	var referral *model.RecruitmentReferral

	err = service.repo.Conn.Transaction(func(tx *gorm.DB) error {
		locked, err := queries.LockAffiliateByID(tx, recruiter.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			return nil
		}
		// a pending but unapproved recruit still counts against the cap
		if campaign.MaxSubAffiliatesPerAffiliate > 0 && locked.TotalRecruits >= campaign.MaxSubAffiliatesPerAffiliate {
			return nil
		}
		referral = &model.RecruitmentReferral{
			AffiliateID: recruiter.ID,
			Token:       model.NewRecruitmentToken(),
			Status:      model.RecruitmentStatusClicked,
			ClickedAt:   now,
			ExpiresAt:   campaign.RecruitmentCookieExpiry(now),
		}
		return tx.Create(referral).Error
	})
	if err != nil {
		return nil, err
	}
	return referral, nil
}

// consumeRecruitmentReferral attributes a brand new affiliate to its
// recruiter inside the registration transaction. The parent's total recruit
// counter is incremented under the cap with the row locked, a capped or
// stale token simply leaves the registration unattributed.
func (service *Service) consumeRecruitmentReferral(tx *gorm.DB, token string, recruit *model.Affiliate, now time.Time) (*uint64, error) {
	referral, err := queries.GetRecruitmentReferralByToken(tx, token)
	if err != nil {
		return nil, err
	}
	if referral == nil || referral.Status != model.RecruitmentStatusClicked || referral.IsExpired(now) {
		return nil, nil
	}
	parent, err := queries.LockAffiliateByID(tx, referral.AffiliateID)
	if err != nil {
		return nil, err
	}
	if parent == nil || !parent.IsApproved() {
		return nil, nil
	}
	campaign, err := service.campaignFor(parent)
	if err != nil {
		return nil, err
	}
	if campaign == nil || !campaign.RecruitmentEnabled {
		return nil, nil
	}
	if campaign.MaxSubAffiliatesPerAffiliate > 0 && parent.TotalRecruits >= campaign.MaxSubAffiliatesPerAffiliate {
		return nil, nil
	}

	if err := tx.Model(&model.Affiliate{}).
		Where("id = ?", parent.ID).
		Updates(map[string]interface{}{
			"total_recruits": gorm.Expr("total_recruits + 1"),
		}).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(referral).Updates(map[string]interface{}{
		"status":                 model.RecruitmentStatusSignedUp,
		"recruited_affiliate_id": recruit.ID,
		"signed_up_at":           now,
	}).Error; err != nil {
		return nil, err
	}
	return &parent.ID, nil
}

// onAffiliateApproved runs inside the approval transaction when an affiliate
// moves from pending to approved. The parent's active recruit counter is
// bumped here, total recruits was already counted at registration time.
func (service *Service) onAffiliateApproved(tx *gorm.DB, affiliate *model.Affiliate) error {
	if affiliate.ReferredByAffiliateID == nil {
		return nil
	}
	if err := tx.Model(&model.Affiliate{}).
		Where("id = ?", *affiliate.ReferredByAffiliateID).
		Updates(map[string]interface{}{
			"active_recruits": gorm.Expr("active_recruits + 1"),
		}).Error; err != nil {
		return err
	}
	return tx.Model(&model.RecruitmentReferral{}).
		Where("recruited_affiliate_id = ? AND status = ?", affiliate.ID, model.RecruitmentStatusSignedUp).
		Updates(map[string]interface{}{
			"status": model.RecruitmentStatusApproved,
		}).Error
}
