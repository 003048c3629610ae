package service

import (
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"gitlab.com/cloverpay-platform/affiliate_api/model"
	"gitlab.com/cloverpay-platform/affiliate_api/queries"
)

// createSubCommission derives the recruiting affiliate's share from a freshly
// created source commission. Runs inside the commission transaction. No-op
// when the earning affiliate has no recorded parent, the parent campaign has
// no recruitment settings or the derived amount rounds to zero.
func (service *Service) createSubCommission(tx *gorm.DB, source *model.Commission, earner *model.Affiliate, now time.Time) error {
	if earner.ReferredByAffiliateID == nil {
		return nil
	}
	parent, err := queries.GetAffiliateByID(tx, *earner.ReferredByAffiliateID)
	if err != nil {
		return err
	}
	if parent == nil {
		log.Warn().
			Uint64("affiliate_id", earner.ID).
			Uint64("parent_id", *earner.ReferredByAffiliateID).
			Str("section", "sub_affiliates").
			Msg("Affiliate references a missing parent")
		return nil
	}
	campaign, err := service.campaignFor(parent)
	if err != nil {
		return err
	}
	if campaign == nil || !campaign.RecruitmentEnabled || campaign.SubAffiliateCommissionPercent <= 0 {
		return nil
	}
	derived := campaign.SubCommissionFor(source.CommissionCents)
	if derived == 0 {
		return nil
	}

	sub := &model.SubAffiliateCommission{
		ParentAffiliateID:  parent.ID,
		SubAffiliateID:     earner.ID,
		SourceCommissionID: source.ID,
		SourceAmountCents:  source.CommissionCents,
		AmountCents:        derived,
		PercentApplied:     campaign.SubAffiliateCommissionPercent,
		Status:             model.CommissionStatusPending,
	}
	if err := tx.Create(sub).Error; err != nil {
		return err
	}
	return tx.Model(&model.Affiliate{}).
		Where("id = ?", parent.ID).
		Updates(map[string]interface{}{
			"total_sub_commissions_cents":   gorm.Expr("total_sub_commissions_cents + ?", derived),
			"pending_sub_commissions_cents": gorm.Expr("pending_sub_commissions_cents + ?", derived),
		}).Error
}

// reverseSubCommission mirrors a source commission reversal into the derived
// record. The decrement targets the bucket matching the derived record's
// state at the time of reversal, so the totals can never go negative under
// correct sequencing. No-op when no derived record exists or it is already
// reversed.
func (service *Service) reverseSubCommission(tx *gorm.DB, source *model.Commission, reason string, now time.Time) error {
	sub, err := queries.GetSubCommissionBySourceID(tx, source.ID)
	if err != nil {
		return err
	}
	if sub == nil || sub.Status == model.CommissionStatusReversed {
		return nil
	}

	bucket := "pending_sub_commissions_cents"
	if sub.Status == model.CommissionStatusPaid {
		bucket = "paid_sub_commissions_cents"
	}

	if err := tx.Model(sub).Updates(map[string]interface{}{
		"status":          model.CommissionStatusReversed,
		"reversed_reason": reason,
		"reversed_at":     now,
	}).Error; err != nil {
		return err
	}
	return tx.Model(&model.Affiliate{}).
		Where("id = ?", sub.ParentAffiliateID).
		Updates(map[string]interface{}{
			bucket: gorm.Expr(bucket+" - ?", sub.AmountCents),
		}).Error
}
