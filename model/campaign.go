package model

import (
	"math"
	"time"

	"github.com/lib/pq"
)

// CommissionType defines how a campaign computes commission from a sale
type CommissionType string

const (
	CommissionType_Percentage CommissionType = "percentage"
	CommissionType_Fixed      CommissionType = "fixed"
)

func (t CommissionType) String() string {
	return string(t)
}

// CommissionDurationMode defines for how long a subscription keeps earning commission
type CommissionDurationMode string

const (
	CommissionDurationMode_Lifetime    CommissionDurationMode = "lifetime"
	CommissionDurationMode_MaxPayments CommissionDurationMode = "max_payments"
	CommissionDurationMode_MaxMonths   CommissionDurationMode = "max_months"
)

// DiscountType defines how a referee discount is expressed
type DiscountType string

const (
	DiscountType_Percentage DiscountType = "percentage"
	DiscountType_Fixed      DiscountType = "fixed"
)

// Campaign structure. Campaigns are created and updated by the admin panel
// and are read only for the engine.
type Campaign struct {
	ID   uint64 `sql:"type:bigint" gorm:"primary_key" json:"id"`
	Name string `gorm:"column:name" json:"name"`

	CommissionType  CommissionType         `sql:"not null;type:commission_type_t" gorm:"column:commission_type" json:"commission_type"`
	CommissionValue float64                `gorm:"column:commission_value" json:"commission_value"`
	DurationMode    CommissionDurationMode `sql:"not null;type:commission_duration_mode_t" gorm:"column:duration_mode" json:"duration_mode"`
	DurationValue   int                    `gorm:"column:duration_value" json:"duration_value"`

	CookieDurationDays int   `gorm:"column:cookie_duration_days" json:"cookie_duration_days"`
	PayoutTermDays     int   `gorm:"column:payout_term_days" json:"payout_term_days"`
	MinPayoutCents     int64 `gorm:"column:min_payout_cents" json:"min_payout_cents"`

	Active    bool `gorm:"column:active" json:"active"`
	IsDefault bool `gorm:"column:is_default" json:"is_default"`

	AllowedProducts  pq.StringArray `gorm:"column:allowed_products;type:text[]" json:"allowed_products"`
	ExcludedProducts pq.StringArray `gorm:"column:excluded_products;type:text[]" json:"excluded_products"`

	DiscountType      *DiscountType `sql:"type:discount_type_t" gorm:"column:discount_type" json:"discount_type,omitempty"`
	DiscountValue     *float64      `gorm:"column:discount_value" json:"discount_value,omitempty"`
	DiscountCouponRef *string       `gorm:"column:discount_coupon_ref" json:"discount_coupon_ref,omitempty"`

	RecruitmentEnabled            bool    `gorm:"column:recruitment_enabled" json:"recruitment_enabled"`
	SubAffiliateCommissionPercent float64 `gorm:"column:sub_affiliate_commission_percent" json:"sub_affiliate_commission_percent"`
	MaxSubAffiliatesPerAffiliate  int64   `gorm:"column:max_sub_affiliates_per_affiliate" json:"max_sub_affiliates_per_affiliate"`
	RecruitmentCookieDurationDays int     `gorm:"column:recruitment_cookie_duration_days" json:"recruitment_cookie_duration_days"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AllowsProduct checks the campaign product lists for the given product id.
// The exclude list wins over the allow list; an empty product id only fails
// when an allow list is configured.
func (campaign *Campaign) AllowsProduct(productID string) bool {
	for _, excluded := range campaign.ExcludedProducts {
		if excluded == productID {
			return false
		}
	}
	if len(campaign.AllowedProducts) == 0 {
		return true
	}
	for _, allowed := range campaign.AllowedProducts {
		if allowed == productID {
			return true
		}
	}
	return false
}

// CommissionFor computes the commission in cents for a sale amount.
// An affiliate level override rate takes precedence over the campaign value
// for percentage campaigns. The applied rate and type are returned so they
// can be stored on the commission for audit.
func (campaign *Campaign) CommissionFor(amountCents int64, override *float64) (int64, float64, CommissionType) {
	switch campaign.CommissionType {
	case CommissionType_Fixed:
		return int64(math.Round(campaign.CommissionValue)), campaign.CommissionValue, CommissionType_Fixed
	default:
		rate := campaign.CommissionValue
		if override != nil {
			rate = *override
		}
		return int64(math.Round(float64(amountCents) * rate / 100)), rate, CommissionType_Percentage
	}
}

// SubCommissionFor computes the derived sub affiliate commission in cents
// from a source commission amount.
func (campaign *Campaign) SubCommissionFor(sourceCents int64) int64 {
	return int64(math.Round(float64(sourceCents) * campaign.SubAffiliateCommissionPercent / 100))
}

// CookieExpiry returns the attribution window end for a click tracked at the given time
func (campaign *Campaign) CookieExpiry(clickedAt time.Time) time.Time {
	return clickedAt.Add(time.Duration(campaign.CookieDurationDays) * 24 * time.Hour)
}

// RecruitmentCookieExpiry returns the attribution window end for a recruitment
// click. It falls back to the general cookie duration when the recruitment
// specific one is not configured.
func (campaign *Campaign) RecruitmentCookieExpiry(clickedAt time.Time) time.Time {
	days := campaign.RecruitmentCookieDurationDays
	if days == 0 {
		days = campaign.CookieDurationDays
	}
	return clickedAt.Add(time.Duration(days) * 24 * time.Hour)
}

// CommissionDueAt returns the maturation time before a commission created at
// the given time becomes eligible for payout
func (campaign *Campaign) CommissionDueAt(createdAt time.Time) time.Time {
	return createdAt.Add(time.Duration(campaign.PayoutTermDays) * 24 * time.Hour)
}

// HasRefereeDiscount checks that a two sided discount is configured
func (campaign *Campaign) HasRefereeDiscount() bool {
	return campaign.DiscountType != nil && campaign.DiscountValue != nil
}

// RefereeDiscount is the discount offered to a referred customer
type RefereeDiscount struct {
	Type      DiscountType `json:"type"`
	Value     float64      `json:"value"`
	CouponRef string       `json:"coupon_ref,omitempty"`
}

// RefereeDiscountOf builds the discount response from the campaign settings
func (campaign *Campaign) RefereeDiscountOf() *RefereeDiscount {
	if !campaign.HasRefereeDiscount() {
		return nil
	}
	discount := &RefereeDiscount{
		Type:  *campaign.DiscountType,
		Value: *campaign.DiscountValue,
	}
	if campaign.DiscountCouponRef != nil {
		discount.CouponRef = *campaign.DiscountCouponRef
	}
	return discount
}
