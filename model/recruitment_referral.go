package model

import (
	"time"

	"github.com/rs/xid"
)

// RecruitmentReferralStatus defines the list of possible recruitment referral statuses
type RecruitmentReferralStatus string

const (
	// RecruitmentStatusClicked when a recruitment link visit was tracked
	RecruitmentStatusClicked RecruitmentReferralStatus = "clicked"
	// RecruitmentStatusSignedUp when the recruit registered as an affiliate
	RecruitmentStatusSignedUp RecruitmentReferralStatus = "signed_up"
	// RecruitmentStatusApproved when the recruited affiliate was approved
	RecruitmentStatusApproved RecruitmentReferralStatus = "approved"
)

// RecruitmentReferral structure. Mirrors Referral but scoped to the affiliate
// recruits affiliate funnel. Consumed once at registration time to set the
// new affiliate's parent back reference.
type RecruitmentReferral struct {
	ID uint64 `sql:"type:bigint" gorm:"primary_key" json:"id"`

	AffiliateID uint64 `sql:"type:bigint REFERENCES affiliates(id)" gorm:"column:affiliate_id" json:"affiliate_id"`

	Token  string                    `gorm:"column:token;unique" json:"token"`
	Status RecruitmentReferralStatus `sql:"not null;type:recruitment_referral_status_t" json:"status"`

	RecruitedAffiliateID *uint64 `sql:"type:bigint REFERENCES affiliates(id)" gorm:"column:recruited_affiliate_id" json:"recruited_affiliate_id,omitempty"`

	ClickedAt  time.Time  `gorm:"column:clicked_at" json:"clicked_at"`
	SignedUpAt *time.Time `gorm:"column:signed_up_at" json:"signed_up_at,omitempty"`
	ExpiresAt  time.Time  `gorm:"column:expires_at" json:"expires_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRecruitmentToken mints an opaque recruitment referral token
func NewRecruitmentToken() string {
	return xid.New().String()
}

// IsExpired checks the recruitment attribution window
func (referral *RecruitmentReferral) IsExpired(now time.Time) bool {
	return now.After(referral.ExpiresAt)
}
