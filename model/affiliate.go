package model

import (
	"time"
)

// AffiliateStatus defines the list of possible affiliate statuses
type AffiliateStatus string

const (
	// AffiliateStatusPending when the affiliate registered and was not yet reviewed
	AffiliateStatusPending AffiliateStatus = "pending"
	// AffiliateStatusApproved when the affiliate can refer customers and earn commission
	AffiliateStatusApproved AffiliateStatus = "approved"
	// AffiliateStatusSuspended when an approved affiliate is temporarily blocked by the admin
	AffiliateStatusSuspended AffiliateStatus = "suspended"
	// AffiliateStatusRejected when the application was declined
	AffiliateStatusRejected AffiliateStatus = "rejected"
)

func (s AffiliateStatus) String() string {
	return string(s)
}

// CanTransitionTo guards the affiliate status state machine.
// Allowed transitions: pending -> approved|rejected, approved <-> suspended.
func (s AffiliateStatus) CanTransitionTo(next AffiliateStatus) bool {
	switch s {
	case AffiliateStatusPending:
		return next == AffiliateStatusApproved || next == AffiliateStatusRejected
	case AffiliateStatusApproved:
		return next == AffiliateStatusSuspended
	case AffiliateStatusSuspended:
		return next == AffiliateStatusApproved
	}
	return false
}

// Affiliate structure
type Affiliate struct {
	ID uint64 `sql:"type:bigint" gorm:"primary_key" json:"id"`

	// UserID is the external identity of the partner as an opaque string.
	// It is immutable once the affiliate is registered.
	UserID     string `gorm:"column:user_id;not null" json:"user_id"`
	CampaignID uint64 `sql:"type:bigint REFERENCES campaigns(id)" gorm:"column:campaign_id" json:"campaign_id"`

	Code            string  `gorm:"column:code;unique" json:"code"`
	RecruitmentCode *string `gorm:"column:recruitment_code;unique" json:"recruitment_code,omitempty"`

	Status AffiliateStatus `sql:"not null;type:affiliate_status_t" json:"status"`

	// CommissionOverride replaces the campaign percentage for this affiliate when set
	CommissionOverride *float64 `gorm:"column:commission_override" json:"commission_override,omitempty"`

	TotalClicks      int64 `gorm:"column:total_clicks" json:"total_clicks"`
	TotalSignups     int64 `gorm:"column:total_signups" json:"total_signups"`
	TotalConversions int64 `gorm:"column:total_conversions" json:"total_conversions"`

	TotalRevenueCents       int64 `gorm:"column:total_revenue_cents" json:"total_revenue_cents"`
	TotalCommissionsCents   int64 `gorm:"column:total_commissions_cents" json:"total_commissions_cents"`
	PendingCommissionsCents int64 `gorm:"column:pending_commissions_cents" json:"pending_commissions_cents"`
	PaidCommissionsCents    int64 `gorm:"column:paid_commissions_cents" json:"paid_commissions_cents"`

	// ReferredByAffiliateID is a back reference to the recruiting affiliate.
	// It is a lookup only relation, never an ownership edge.
	ReferredByAffiliateID *uint64 `sql:"type:bigint REFERENCES affiliates(id)" gorm:"column:referred_by_affiliate_id" json:"referred_by_affiliate_id,omitempty"`

	TotalRecruits              int64 `gorm:"column:total_recruits" json:"total_recruits"`
	ActiveRecruits             int64 `gorm:"column:active_recruits" json:"active_recruits"`
	PendingSubCommissionsCents int64 `gorm:"column:pending_sub_commissions_cents" json:"pending_sub_commissions_cents"`
	TotalSubCommissionsCents   int64 `gorm:"column:total_sub_commissions_cents" json:"total_sub_commissions_cents"`
	PaidSubCommissionsCents    int64 `gorm:"column:paid_sub_commissions_cents" json:"paid_sub_commissions_cents"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsApproved checks that the affiliate can currently attribute referrals
func (affiliate *Affiliate) IsApproved() bool {
	return affiliate.Status == AffiliateStatusApproved
}

// IsOwnUser guards against self referral: an affiliate can not be attributed
// a signup or purchase made under its own external user id.
func (affiliate *Affiliate) IsOwnUser(userID string) bool {
	return userID != "" && affiliate.UserID == userID
}

// AffiliateStatsResponse is the read model returned to the affiliate dashboard
type AffiliateStatsResponse struct {
	Code                    string  `json:"code"`
	Status                  string  `json:"status"`
	TotalClicks             int64   `json:"total_clicks"`
	TotalSignups            int64   `json:"total_signups"`
	TotalConversions        int64   `json:"total_conversions"`
	ConversionRate          float64 `json:"conversion_rate"`
	TotalRevenueCents       int64   `json:"total_revenue_cents"`
	TotalCommissionsCents   int64   `json:"total_commissions_cents"`
	PendingCommissionsCents int64   `json:"pending_commissions_cents"`
	PaidCommissionsCents    int64   `json:"paid_commissions_cents"`
	TotalRecruits           int64   `json:"total_recruits"`
	ActiveRecruits          int64   `json:"active_recruits"`
}

// StatsResponse builds the dashboard read model from the denormalized counters
func (affiliate *Affiliate) StatsResponse() *AffiliateStatsResponse {
	conversionRate := 0.0
	if affiliate.TotalClicks > 0 {
		conversionRate = float64(affiliate.TotalConversions) / float64(affiliate.TotalClicks) * 100
	}
	return &AffiliateStatsResponse{
		Code:                    affiliate.Code,
		Status:                  affiliate.Status.String(),
		TotalClicks:             affiliate.TotalClicks,
		TotalSignups:            affiliate.TotalSignups,
		TotalConversions:        affiliate.TotalConversions,
		ConversionRate:          conversionRate,
		TotalRevenueCents:       affiliate.TotalRevenueCents,
		TotalCommissionsCents:   affiliate.TotalCommissionsCents,
		PendingCommissionsCents: affiliate.PendingCommissionsCents,
		PaidCommissionsCents:    affiliate.PaidCommissionsCents,
		TotalRecruits:           affiliate.TotalRecruits,
		ActiveRecruits:          affiliate.ActiveRecruits,
	}
}
