package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"gitlab.com/cloverpay-platform/affiliate_api/model"
)

type commissionEvent struct {
	Event           string                 `json:"event"`
	CommissionID    uint64                 `json:"commission_id"`
	AffiliateID     uint64                 `json:"affiliate_id"`
	InvoiceID       string                 `json:"invoice_id"`
	SaleAmountCents int64                  `json:"sale_amount_cents"`
	CommissionCents int64                  `json:"commission_cents"`
	AppliedRate     float64                `json:"applied_rate"`
	AppliedType     model.CommissionType   `json:"applied_type"`
	Status          model.CommissionStatus `json:"status"`
	ReversedReason  *string                `json:"reversed_reason,omitempty"`
	Timestamp       int64                  `json:"timestamp"`
}

// publishCommissionCreated pushes a commission created event on the analytics
// topic. Publishing is best effort and never fails the commission flow.
func (service *Service) publishCommissionCreated(commission *model.Commission) {
	service.publishCommissionEvent("commission_created", commission)
}

// publishCommissionReversed pushes a commission reversed event on the
// analytics topic. Best effort, same as creation.
func (service *Service) publishCommissionReversed(commission *model.Commission) {
	service.publishCommissionEvent("commission_reversed", commission)
}

func (service *Service) publishCommissionEvent(event string, commission *model.Commission) {
	if service.analytics == nil {
		return
	}
	payload := commissionEvent{
		Event:           event,
		CommissionID:    commission.ID,
		AffiliateID:     commission.AffiliateID,
		InvoiceID:       commission.InvoiceID,
		SaleAmountCents: commission.SaleAmountCents,
		CommissionCents: commission.CommissionCents,
		AppliedRate:     commission.AppliedRate,
		AppliedType:     commission.AppliedType,
		Status:          commission.Status,
		ReversedReason:  commission.ReversedReason,
		Timestamp:       time.Now().Unix(),
	}
	bytes, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).
			Str("section", "service").
			Str("action", "publishCommissionEvent").
			Str("event", event).
			Msg("Unable to encode commission event")
		return
	}
	ctx, cancel := context.WithTimeout(service.ctx, 5*time.Second)
	defer cancel()
	key := []byte(strconv.FormatUint(commission.ID, 10))
	if err := service.analytics.Publish(ctx, key, bytes); err != nil {
		log.Error().Err(err).
			Str("section", "service").
			Str("action", "publishCommissionEvent").
			Str("event", event).
			Uint64("commission_id", commission.ID).
			Msg("Unable to publish commission event")
	}
}
