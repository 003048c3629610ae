package model

// PagingMeta structure
type PagingMeta struct {
	Page   int                    `json:"page"`
	Count  int64                  `json:"count"`
	Limit  int                    `json:"limit"`
	Filter map[string]interface{} `json:"filter,omitempty"`
}

// CommissionList structure
type CommissionList struct {
	Commissions []Commission `json:"commissions"`
	Meta        PagingMeta   `json:"meta"`
}

// ReferralList structure
type ReferralList struct {
	Referrals []Referral `json:"referrals"`
	Meta      PagingMeta `json:"meta"`
}
