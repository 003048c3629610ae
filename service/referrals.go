package service

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"gitlab.com/cloverpay-platform/affiliate_api/model"
	"gitlab.com/cloverpay-platform/affiliate_api/monitor"
	"gitlab.com/cloverpay-platform/affiliate_api/queries"
)

// TrackClick records a visit on an affiliate link and mints a referral token
// for the visitor cookie. Every precondition failure is a silent decline with
// a nil referral, this endpoint is public and attacker reachable.
func (service *Service) TrackClick(affiliateCode, landingPage string, subID *string) (*model.Referral, error) {
	affiliate, err := queries.GetAffiliateByCode(service.repo.ConnReader, affiliateCode)
	if err != nil {
		return nil, err
	}
	if affiliate == nil || !affiliate.IsApproved() {
		monitor.ReferralClicks.WithLabelValues("declined").Inc()
		return nil, nil
	}
	campaign, err := service.campaignFor(affiliate)
	if err != nil {
		return nil, err
	}
	if campaign == nil || !campaign.Active {
		monitor.ReferralClicks.WithLabelValues("declined").Inc()
		return nil, nil
	}

	now := time.Now()
	referral := &model.Referral{
		Token:       model.NewReferralToken(),
		AffiliateID: affiliate.ID,
		Status:      model.ReferralStatusClicked,
		LandingPage: landingPage,
		SubID:       subID,
		ClickedAt:   now,
		ExpiresAt:   campaign.CookieExpiry(now),
	}

	err = service.repo.Conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(referral).Error; err != nil {
			return err
		}
		return tx.Model(&model.Affiliate{}).
			Where("id = ?", affiliate.ID).
			Updates(map[string]interface{}{
				"total_clicks": gorm.Expr("total_clicks + 1"),
			}).Error
	})
	if err != nil {
		return nil, err
	}

	monitor.ReferralClicks.WithLabelValues("tracked").Inc()
	return referral, nil
}

// AttributeSignup attributes a registration to the referral behind the given
// token. Declines silently when the token is unknown, the attribution window
// closed, the referral already advanced past the clicked state or the signup
// belongs to the affiliate's own user.
func (service *Service) AttributeSignup(referralToken, userID string) (*model.Referral, error) {
	referral, err := queries.GetReferralByToken(service.repo.ConnReader, referralToken)
	if err != nil {
		return nil, err
	}
	if referral == nil {
		monitor.ReferralSignups.WithLabelValues("declined").Inc()
		return nil, nil
	}

	now := time.Now()
	if referral.IsExpired(now) {
		// opportunistically flip it so the sweep does not have to
		q := service.repo.Conn.Model(&model.Referral{}).
			Where("id = ? AND status IN (?, ?)", referral.ID, model.ReferralStatusClicked, model.ReferralStatusSignedUp).
			Updates(map[string]interface{}{"status": model.ReferralStatusExpired})
		if q.Error != nil {
			log.Warn().Err(q.Error).Uint64("referral_id", referral.ID).Str("section", "referrals").Msg("Unable to expire referral")
		}
		monitor.ReferralSignups.WithLabelValues("declined").Inc()
		return nil, nil
	}
	if referral.Status != model.ReferralStatusClicked {
		monitor.ReferralSignups.WithLabelValues("declined").Inc()
		return nil, nil
	}

	// first attribution wins, a user that already has a referral keeps it
	existing, err := queries.GetReferralByUserID(service.repo.ConnReader, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		monitor.ReferralSignups.WithLabelValues("duplicate").Inc()
		return existing, nil
	}

	affiliate, err := queries.GetAffiliateByID(service.repo.ConnReader, referral.AffiliateID)
	if err != nil {
		return nil, err
	}
	if affiliate == nil {
		return nil, fmt.Errorf("referral %d points at missing affiliate %d", referral.ID, referral.AffiliateID)
	}
	if affiliate.IsOwnUser(userID) {
		monitor.ReferralSignups.WithLabelValues("self_referral").Inc()
		return nil, nil
	}

	err = service.repo.Conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(referral).Updates(map[string]interface{}{
			"user_id":      userID,
			"status":       model.ReferralStatusSignedUp,
			"signed_up_at": now,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&model.Affiliate{}).
			Where("id = ?", affiliate.ID).
			Updates(map[string]interface{}{
				"total_signups": gorm.Expr("total_signups + 1"),
			}).Error
	})
	if err != nil {
		return nil, err
	}

	referral.UserID = &userID
	referral.Status = model.ReferralStatusSignedUp
	referral.SignedUpAt = &now
	monitor.ReferralSignups.WithLabelValues("attributed").Inc()
	return referral, nil
}

// AttributeSignupByCode attributes a registration directly by affiliate code,
// for flows where no click was tracked beforehand. When the user already has
// a referral that one is returned as the successful result no matter which
// code is presented now, first attribution wins.
func (service *Service) AttributeSignupByCode(affiliateCode, userID, landingPage string) (*model.Referral, error) {
	affiliate, err := queries.GetAffiliateByCode(service.repo.ConnReader, affiliateCode)
	if err != nil {
		return nil, err
	}
	if affiliate == nil || !affiliate.IsApproved() {
		monitor.ReferralSignups.WithLabelValues("declined").Inc()
		return nil, nil
	}
	campaign, err := service.campaignFor(affiliate)
	if err != nil {
		return nil, err
	}
	if campaign == nil || !campaign.Active {
		monitor.ReferralSignups.WithLabelValues("declined").Inc()
		return nil, nil
	}
	if affiliate.IsOwnUser(userID) {
		monitor.ReferralSignups.WithLabelValues("self_referral").Inc()
		return nil, nil
	}

	existing, err := queries.GetReferralByUserID(service.repo.ConnReader, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		monitor.ReferralSignups.WithLabelValues("duplicate").Inc()
		return existing, nil
	}

	now := time.Now()
	referral := &model.Referral{
		Token:       model.NewReferralToken(),
		AffiliateID: affiliate.ID,
		Status:      model.ReferralStatusSignedUp,
		UserID:      &userID,
		LandingPage: landingPage,
		ClickedAt:   now,
		SignedUpAt:  &now,
		ExpiresAt:   campaign.CookieExpiry(now),
	}

	// this path represents both funnel stages at once
	err = service.repo.Conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(referral).Error; err != nil {
			return err
		}
		return tx.Model(&model.Affiliate{}).
			Where("id = ?", affiliate.ID).
			Updates(map[string]interface{}{
				"total_clicks":  gorm.Expr("total_clicks + 1"),
				"total_signups": gorm.Expr("total_signups + 1"),
			}).Error
	})
	if err != nil {
		return nil, err
	}

	monitor.ReferralSignups.WithLabelValues("attributed").Inc()
	return referral, nil
}

// LinkPaymentCustomer attaches the payment processor customer id to a
// referral once the checkout collaborator created the customer record.
// Invoked from a best effort checkout hook, any unmatched case is silently a
// no-op.
func (service *Service) LinkPaymentCustomer(paymentCustomerID string, userID, affiliateCode *string) (*model.Referral, error) {
	// strategy a: the user already has a referral that lacks a customer id
	if userID != nil {
		referral, err := queries.GetReferralByUserID(service.repo.ConnReader, *userID)
		if err != nil {
			return nil, err
		}
		if referral != nil {
			// first attribution wins, a referral already bound to another
			// customer stays untouched
			if referral.PaymentCustomerID != nil {
				return nil, nil
			}
			affiliate, err := queries.GetAffiliateByID(service.repo.ConnReader, referral.AffiliateID)
			if err != nil {
				return nil, err
			}
			if affiliate == nil {
				return nil, fmt.Errorf("referral %d points at missing affiliate %d", referral.ID, referral.AffiliateID)
			}
			if affiliate.IsOwnUser(*userID) {
				return nil, nil
			}
			if err := service.repo.Conn.Model(referral).Updates(map[string]interface{}{
				"payment_customer_id": paymentCustomerID,
			}).Error; err != nil {
				return nil, err
			}
			referral.PaymentCustomerID = &paymentCustomerID
			return referral, nil
		}
	}

	// strategy b: create a referral from the affiliate code carried through
	// checkout metadata
	if affiliateCode == nil {
		return nil, nil
	}
	affiliate, err := queries.GetAffiliateByCode(service.repo.ConnReader, *affiliateCode)
	if err != nil {
		return nil, err
	}
	if affiliate == nil || !affiliate.IsApproved() {
		return nil, nil
	}
	if userID != nil && affiliate.IsOwnUser(*userID) {
		return nil, nil
	}
	existing, err := queries.GetReferralByPaymentCustomerID(service.repo.ConnReader, paymentCustomerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nil
	}
	campaign, err := service.campaignFor(affiliate)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, nil
	}

	now := time.Now()
	referral := &model.Referral{
		Token:             model.NewReferralToken(),
		AffiliateID:       affiliate.ID,
		Status:            model.ReferralStatusClicked,
		PaymentCustomerID: &paymentCustomerID,
		ClickedAt:         now,
		ExpiresAt:         campaign.CookieExpiry(now),
	}
	counters := map[string]interface{}{
		"total_clicks": gorm.Expr("total_clicks + 1"),
	}
	if userID != nil {
		referral.Status = model.ReferralStatusSignedUp
		referral.UserID = userID
		referral.SignedUpAt = &now
		counters["total_signups"] = gorm.Expr("total_signups + 1")
	}

	err = service.repo.Conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(referral).Error; err != nil {
			return err
		}
		return tx.Model(&model.Affiliate{}).
			Where("id = ?", affiliate.ID).
			Updates(counters).Error
	})
	if err != nil {
		return nil, err
	}
	return referral, nil
}

// convertReferral flips a referral to the terminal converted state and bumps
// the affiliate conversion counter. Idempotent. Called by the commission
// engine inside its transaction only, a missing referral id here is an
// internal invariant break.
func (service *Service) convertReferral(tx *gorm.DB, referralID uint64, now time.Time) error {
	referral := model.Referral{}
	if err := tx.Where("id = ?", referralID).First(&referral).Error; err != nil {
		return fmt.Errorf("unable to convert referral %d: %w", referralID, err)
	}
	if referral.IsConverted() {
		return nil
	}
	if err := tx.Model(&referral).Updates(map[string]interface{}{
		"status":       model.ReferralStatusConverted,
		"converted_at": now,
	}).Error; err != nil {
		return err
	}
	return tx.Model(&model.Affiliate{}).
		Where("id = ?", referral.AffiliateID).
		Updates(map[string]interface{}{
			"total_conversions": gorm.Expr("total_conversions + 1"),
		}).Error
}

// ExpireStaleReferrals flips referrals past their attribution window to
// expired, one bounded batch per call. Safe to run repeatedly and
// concurrently with attribution calls.
func (service *Service) ExpireStaleReferrals() (int64, error) {
	count, err := queries.ExpireStaleReferrals(service.repo.Conn, time.Now(), service.cfg.Engine.ExpireBatchSize)
	if err != nil {
		return 0, err
	}
	monitor.ExpiredReferrals.Add(float64(count))
	return count, nil
}

// GetRefereeDiscount resolves the two sided discount offered to a referred
// customer. Resolution order is token, then user id, then affiliate code,
// first match wins. The token and user id paths respect referral expiry, the
// code path intentionally does not since a code itself never expires.
func (service *Service) GetRefereeDiscount(referralToken, userID, affiliateCode *string) (*model.RefereeDiscount, error) {
	now := time.Now()

	if referralToken != nil {
		referral, err := queries.GetReferralByToken(service.repo.ConnReader, *referralToken)
		if err != nil {
			return nil, err
		}
		if referral != nil {
			if referral.IsExpired(now) {
				return nil, nil
			}
			return service.discountForAffiliateID(referral.AffiliateID)
		}
	}

	if userID != nil {
		referral, err := queries.GetReferralByUserID(service.repo.ConnReader, *userID)
		if err != nil {
			return nil, err
		}
		if referral != nil {
			if referral.IsExpired(now) {
				return nil, nil
			}
			return service.discountForAffiliateID(referral.AffiliateID)
		}
	}

	if affiliateCode != nil {
		affiliate, err := queries.GetAffiliateByCode(service.repo.ConnReader, *affiliateCode)
		if err != nil {
			return nil, err
		}
		if affiliate != nil {
			return service.discountForAffiliate(affiliate)
		}
	}

	return nil, nil
}

func (service *Service) discountForAffiliateID(affiliateID uint64) (*model.RefereeDiscount, error) {
	affiliate, err := queries.GetAffiliateByID(service.repo.ConnReader, affiliateID)
	if err != nil {
		return nil, err
	}
	if affiliate == nil {
		return nil, nil
	}
	return service.discountForAffiliate(affiliate)
}

func (service *Service) discountForAffiliate(affiliate *model.Affiliate) (*model.RefereeDiscount, error) {
	if !affiliate.IsApproved() {
		return nil, nil
	}
	campaign, err := service.campaignFor(affiliate)
	if err != nil {
		return nil, err
	}
	if campaign == nil || !campaign.Active {
		return nil, nil
	}
	return campaign.RefereeDiscountOf(), nil
}
