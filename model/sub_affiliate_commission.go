package model

import (
	"time"
)

// SubAffiliateCommission structure. The derived commission credited to the
// recruiting affiliate whenever one of its recruits earns a commission.
// At most one derived record exists per source commission.
type SubAffiliateCommission struct {
	ID uint64 `sql:"type:bigint" gorm:"primary_key" json:"id"`

	ParentAffiliateID uint64 `sql:"type:bigint REFERENCES affiliates(id)" gorm:"column:parent_affiliate_id" json:"parent_affiliate_id"`
	SubAffiliateID    uint64 `sql:"type:bigint REFERENCES affiliates(id)" gorm:"column:sub_affiliate_id" json:"sub_affiliate_id"`

	// SourceCommissionID is the dedup key for the cascade
	SourceCommissionID uint64 `sql:"type:bigint REFERENCES commissions(id)" gorm:"column:source_commission_id;unique" json:"source_commission_id"`

	SourceAmountCents int64   `gorm:"column:source_amount_cents" json:"source_amount_cents"`
	AmountCents       int64   `gorm:"column:amount_cents" json:"amount_cents"`
	PercentApplied    float64 `gorm:"column:percent_applied" json:"percent_applied"`

	Status CommissionStatus `sql:"not null;type:commission_status_t" json:"status"`

	ReversedReason *string    `gorm:"column:reversed_reason" json:"reversed_reason,omitempty"`
	ReversedAt     *time.Time `gorm:"column:reversed_at" json:"reversed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
