package service

import (
	"time"

	"gorm.io/gorm"

	"gitlab.com/cloverpay-platform/affiliate_api/model"
	"gitlab.com/cloverpay-platform/affiliate_api/monitor"
	"gitlab.com/cloverpay-platform/affiliate_api/queries"
)

// CreateCommissionFromPaidInvoice turns a paid invoice event into a
// commission for the referring affiliate. The webhook transport delivers at
// least once, so every decline path returns a nil commission and the
// duplicate delivery path returns the commission created by the first
// delivery. Nothing on this path ever becomes an error for expected input
// variance.
func (service *Service) CreateCommissionFromPaidInvoice(invoice model.PaidInvoice) (*model.Commission, error) {
	if invoice.AmountPaidCents <= 0 {
		return nil, nil
	}

	// resolve the referral for the paying customer
	referral, err := queries.GetReferralByPaymentCustomerID(service.repo.ConnReader, invoice.CustomerID)
	if err != nil {
		return nil, err
	}

	var affiliate *model.Affiliate
	synthesize := false
	if referral == nil {
		// no prior click or signup tracking happened, fall back to the
		// affiliate code carried through checkout metadata
		if invoice.AffiliateCode == nil {
			return nil, nil
		}
		affiliate, err = queries.GetAffiliateByCode(service.repo.ConnReader, *invoice.AffiliateCode)
		if err != nil {
			return nil, err
		}
		synthesize = true
	} else {
		affiliate, err = queries.GetAffiliateByID(service.repo.ConnReader, referral.AffiliateID)
		if err != nil {
			return nil, err
		}
	}
	if affiliate == nil || !affiliate.IsApproved() {
		return nil, nil
	}
	campaign, err := service.campaignFor(affiliate)
	if err != nil {
		return nil, err
	}
	if campaign == nil || !campaign.Active {
		return nil, nil
	}

	// dedup gate against webhook redelivery
	existing, err := queries.GetCommissionByInvoiceID(service.repo.ConnReader, invoice.InvoiceID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now()

	// subscription duration gate
	var paymentNumber *int
	if invoice.SubscriptionID != nil {
		count, err := queries.CountSubscriptionCommissions(service.repo.ConnReader, *invoice.SubscriptionID)
		if err != nil {
			return nil, err
		}
		number := int(count) + 1
		paymentNumber = &number

		switch campaign.DurationMode {
		case model.CommissionDurationMode_MaxPayments:
			if count >= int64(campaign.DurationValue) {
				return nil, nil
			}
		case model.CommissionDurationMode_MaxMonths:
			first, err := queries.GetFirstSubscriptionCommission(service.repo.ConnReader, *invoice.SubscriptionID)
			if err != nil {
				return nil, err
			}
			if first != nil && now.After(first.CreatedAt.AddDate(0, campaign.DurationValue, 0)) {
				return nil, nil
			}
		}
	}

	// product gate, the exclude list wins over the allow list
	productID := ""
	if invoice.ProductID != nil {
		productID = *invoice.ProductID
	}
	if !campaign.AllowsProduct(productID) {
		return nil, nil
	}

	commissionCents, rate, appliedType := campaign.CommissionFor(invoice.AmountPaidCents, affiliate.CommissionOverride)

	commission := &model.Commission{
		AffiliateID:     affiliate.ID,
		InvoiceID:       invoice.InvoiceID,
		ChargeID:        invoice.ChargeID,
		SubscriptionID:  invoice.SubscriptionID,
		ProductID:       invoice.ProductID,
		SaleAmountCents: invoice.AmountPaidCents,
		CommissionCents: commissionCents,
		Currency:        invoice.Currency,
		AppliedRate:     rate,
		AppliedType:     appliedType,
		Status:          model.CommissionStatusPending,
		DueAt:           campaign.CommissionDueAt(now),
		PaymentNumber:   paymentNumber,
	}

	err = service.repo.Conn.Transaction(func(tx *gorm.DB) error {
		if synthesize {
			// customer paid without any tracked funnel, record the whole
			// funnel at once
			referral = &model.Referral{
				Token:             model.NewReferralToken(),
				AffiliateID:       affiliate.ID,
				Status:            model.ReferralStatusSignedUp,
				PaymentCustomerID: &invoice.CustomerID,
				ClickedAt:         now,
				SignedUpAt:        &now,
				ExpiresAt:         campaign.CookieExpiry(now),
			}
			if err := tx.Create(referral).Error; err != nil {
				return err
			}
			if err := tx.Model(&model.Affiliate{}).
				Where("id = ?", affiliate.ID).
				Updates(map[string]interface{}{
					"total_clicks":  gorm.Expr("total_clicks + 1"),
					"total_signups": gorm.Expr("total_signups + 1"),
				}).Error; err != nil {
				return err
			}
		}

		commission.ReferralID = referral.ID
		if err := tx.Create(commission).Error; err != nil {
			return err
		}
		if err := service.convertReferral(tx, referral.ID, now); err != nil {
			return err
		}
		if err := tx.Model(&model.Affiliate{}).
			Where("id = ?", affiliate.ID).
			Updates(map[string]interface{}{
				"total_revenue_cents":       gorm.Expr("total_revenue_cents + ?", invoice.AmountPaidCents),
				"total_commissions_cents":   gorm.Expr("total_commissions_cents + ?", commissionCents),
				"pending_commissions_cents": gorm.Expr("pending_commissions_cents + ?", commissionCents),
			}).Error; err != nil {
			return err
		}
		return service.createSubCommission(tx, commission, affiliate, now)
	})
	if err != nil {
		return nil, err
	}

	monitor.CommissionsCreated.Inc()
	service.publishCommissionCreated(commission)
	return commission, nil
}

// ReverseCommissionByCharge reverses the commission earned on a refunded
// charge and mirrors the reversal into the sub affiliate cascade. A missing
// or already reversed commission is a no-op.
func (service *Service) ReverseCommissionByCharge(chargeID, reason string) (*model.Commission, error) {
	commission, err := queries.GetCommissionByChargeID(service.repo.ConnReader, chargeID)
	if err != nil {
		return nil, err
	}
	if commission == nil {
		return nil, nil
	}
	if commission.IsReversed() {
		return commission, nil
	}

	now := time.Now()
	// the bucket to correct depends on the commission state at the time of
	// reversal, read before mutating
	statColumn := "pending_commissions_cents"
	if commission.Status == model.CommissionStatusPaid {
		statColumn = "paid_commissions_cents"
	}

	err = service.repo.Conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(commission).Updates(map[string]interface{}{
			"status":          model.CommissionStatusReversed,
			"reversed_reason": reason,
			"reversed_at":     now,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Affiliate{}).
			Where("id = ?", commission.AffiliateID).
			Updates(map[string]interface{}{
				"total_revenue_cents":     gorm.Expr("total_revenue_cents - ?", commission.SaleAmountCents),
				"total_commissions_cents": gorm.Expr("total_commissions_cents - ?", commission.CommissionCents),
				statColumn:                gorm.Expr(statColumn+" - ?", commission.CommissionCents),
			}).Error; err != nil {
			return err
		}
		return service.reverseSubCommission(tx, commission, reason, now)
	})
	if err != nil {
		return nil, err
	}

	commission.Status = model.CommissionStatusReversed
	commission.ReversedReason = &reason
	commission.ReversedAt = &now
	monitor.CommissionsReversed.Inc()
	service.publishCommissionReversed(commission)
	return commission, nil
}
