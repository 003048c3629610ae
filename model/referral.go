package model

import (
	"time"

	"github.com/rs/xid"
)

// ReferralStatus defines the list of possible referral statuses
type ReferralStatus string

const (
	// ReferralStatusClicked when a visit was tracked but nobody signed up yet
	ReferralStatusClicked ReferralStatus = "clicked"
	// ReferralStatusSignedUp when the visitor registered an account
	ReferralStatusSignedUp ReferralStatus = "signed_up"
	// ReferralStatusConverted when the referred customer paid. Terminal.
	ReferralStatusConverted ReferralStatus = "converted"
	// ReferralStatusExpired when the attribution window closed without a conversion
	ReferralStatusExpired ReferralStatus = "expired"
)

func (s ReferralStatus) String() string {
	return string(s)
}

// Referral structure. One tracked visitor funnel instance tied to one affiliate.
type Referral struct {
	ID uint64 `sql:"type:bigint" gorm:"primary_key" json:"id"`

	// Token is the opaque external referral id stored in the visitor cookie.
	// It is distinct from the internal primary key and never guessable.
	Token string `gorm:"column:token;unique" json:"token"`

	AffiliateID uint64         `sql:"type:bigint REFERENCES affiliates(id)" gorm:"column:affiliate_id" json:"affiliate_id"`
	Status      ReferralStatus `sql:"not null;type:referral_status_t" json:"status"`

	// UserID is the attributed external user id, set at signup time
	UserID *string `gorm:"column:user_id" json:"user_id,omitempty"`
	// PaymentCustomerID links the referral to the payment processor customer record
	PaymentCustomerID *string `gorm:"column:payment_customer_id" json:"payment_customer_id,omitempty"`

	LandingPage string  `gorm:"column:landing_page" json:"landing_page"`
	SubID       *string `gorm:"column:sub_id" json:"sub_id,omitempty"`

	ClickedAt   time.Time  `gorm:"column:clicked_at" json:"clicked_at"`
	SignedUpAt  *time.Time `gorm:"column:signed_up_at" json:"signed_up_at,omitempty"`
	ConvertedAt *time.Time `gorm:"column:converted_at" json:"converted_at,omitempty"`
	// ExpiresAt is fixed at click time from the campaign cookie duration
	// and never recomputed afterwards
	ExpiresAt time.Time `gorm:"column:expires_at" json:"expires_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewReferralToken mints an opaque referral token
func NewReferralToken() string {
	return xid.New().String()
}

// IsExpired checks the attribution window. Converted referrals are terminal
// and exempt from expiry.
func (referral *Referral) IsExpired(now time.Time) bool {
	if referral.Status == ReferralStatusConverted {
		return false
	}
	return now.After(referral.ExpiresAt)
}

// IsConverted checks for the terminal state
func (referral *Referral) IsConverted() bool {
	return referral.Status == ReferralStatusConverted
}
