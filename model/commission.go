package model

import (
	"time"
)

// CommissionStatus defines the list of possible commission statuses
type CommissionStatus string

const (
	// CommissionStatusPending when the commission was created and is maturing until due_at
	CommissionStatusPending CommissionStatus = "pending"
	// CommissionStatusApproved when the commission matured and awaits a payout batch
	CommissionStatusApproved CommissionStatus = "approved"
	// CommissionStatusProcessing when the payout collaborator picked it up
	CommissionStatusProcessing CommissionStatus = "processing"
	// CommissionStatusPaid when the payout transfer settled
	CommissionStatusPaid CommissionStatus = "paid"
	// CommissionStatusReversed when the underlying charge was refunded
	CommissionStatusReversed CommissionStatus = "reversed"
)

func (s CommissionStatus) String() string {
	return string(s)
}

// Commission structure. A monetary credit owed to an affiliate for one
// qualifying sale. At most one commission exists per external invoice id.
type Commission struct {
	ID uint64 `sql:"type:bigint" gorm:"primary_key" json:"id"`

	AffiliateID uint64 `sql:"type:bigint REFERENCES affiliates(id)" gorm:"column:affiliate_id" json:"affiliate_id"`
	ReferralID  uint64 `sql:"type:bigint REFERENCES referrals(id)" gorm:"column:referral_id" json:"referral_id"`

	// InvoiceID is the dedup key against at least once webhook delivery
	InvoiceID      string  `gorm:"column:invoice_id;unique" json:"invoice_id"`
	ChargeID       *string `gorm:"column:charge_id" json:"charge_id,omitempty"`
	SubscriptionID *string `gorm:"column:subscription_id" json:"subscription_id,omitempty"`
	ProductID      *string `gorm:"column:product_id" json:"product_id,omitempty"`

	SaleAmountCents int64  `gorm:"column:sale_amount_cents" json:"sale_amount_cents"`
	CommissionCents int64  `gorm:"column:commission_cents" json:"commission_cents"`
	Currency        string `gorm:"column:currency" json:"currency"`

	// AppliedRate and AppliedType record the rate actually used, kept for
	// audit even if the affiliate or campaign rates later change
	AppliedRate float64        `gorm:"column:applied_rate" json:"applied_rate"`
	AppliedType CommissionType `sql:"type:commission_type_t" gorm:"column:applied_type" json:"applied_type"`

	Status CommissionStatus `sql:"not null;type:commission_status_t" json:"status"`
	DueAt  time.Time        `gorm:"column:due_at" json:"due_at"`

	// PayoutRef is set once the commission is batched by the payout collaborator
	PayoutRef *string `gorm:"column:payout_ref" json:"payout_ref,omitempty"`

	// PaymentNumber is the 1st, 2nd, ... payment on a subscription, used to
	// enforce the campaign duration limit
	PaymentNumber *int `gorm:"column:payment_number" json:"payment_number,omitempty"`

	ReversedReason *string    `gorm:"column:reversed_reason" json:"reversed_reason,omitempty"`
	ReversedAt     *time.Time `gorm:"column:reversed_at" json:"reversed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsReversed checks for the reversed state
func (commission *Commission) IsReversed() bool {
	return commission.Status == CommissionStatusReversed
}

// PaidInvoice carries the logical fields of a paid invoice event consumed
// from the payment transport. The wire format lives in the webhook adapter.
type PaidInvoice struct {
	InvoiceID       string
	CustomerID      string
	AmountPaidCents int64
	Currency        string
	SubscriptionID  *string
	ChargeID        *string
	ProductID       *string
	AffiliateCode   *string
}
