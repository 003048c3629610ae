package actions

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"gitlab.com/cloverpay-platform/affiliate_api/model"
	"gitlab.com/cloverpay-platform/affiliate_api/monitor"
)

// StripeWebhook receives billing events from the payment provider. The
// signature is verified first, then known event types are dispatched to the
// engine. Processing failures are logged and acknowledged anyway so the
// provider does not retry forever on events we can never handle.
func (actions *Actions) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		monitor.WebhookEvents.WithLabelValues("unknown", "bad_payload").Inc()
		abortWithError(c, http.StatusBadRequest, "Unable to read the webhook payload")
		return
	}
	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), actions.cfg.Stripe.WebhookSecret)
	if err != nil {
		monitor.WebhookEvents.WithLabelValues("unknown", "bad_signature").Inc()
		abortWithError(c, http.StatusBadRequest, "Invalid webhook signature")
		return
	}

	l := getlog(c)
	eventType := string(event.Type)
	switch event.Type {
	case "invoice.paid":
		err = actions.handleInvoicePaid(event)
	case "charge.refunded":
		err = actions.handleChargeRefunded(event)
	case "checkout.session.completed":
		err = actions.handleCheckoutCompleted(event)
	default:
		monitor.WebhookEvents.WithLabelValues(eventType, "ignored").Inc()
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if err != nil {
		monitor.WebhookEvents.WithLabelValues(eventType, "error").Inc()
		l.Error().Err(err).
			Str("event_type", eventType).
			Str("event_id", event.ID).
			Msg("Unable to process webhook event")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	monitor.WebhookEvents.WithLabelValues(eventType, "processed").Inc()
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (actions *Actions) handleInvoicePaid(event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return err
	}
	paid := model.PaidInvoice{
		InvoiceID:       invoice.ID,
		AmountPaidCents: invoice.AmountPaid,
		Currency:        string(invoice.Currency),
	}
	if invoice.Customer != nil {
		paid.CustomerID = invoice.Customer.ID
	}
	if invoice.Subscription != nil {
		paid.SubscriptionID = &invoice.Subscription.ID
	}
	if invoice.Charge != nil {
		paid.ChargeID = &invoice.Charge.ID
	}
	if len(invoice.Lines.Data) > 0 && invoice.Lines.Data[0].Price != nil && invoice.Lines.Data[0].Price.Product != nil {
		paid.ProductID = &invoice.Lines.Data[0].Price.Product.ID
	}
	if code, ok := invoice.Metadata["affiliate_code"]; ok && code != "" {
		paid.AffiliateCode = &code
	}
	_, err := actions.service.CreateCommissionFromPaidInvoice(paid)
	return err
}

func (actions *Actions) handleChargeRefunded(event stripe.Event) error {
	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		return err
	}
	_, err := actions.service.ReverseCommissionByCharge(charge.ID, "charge.refunded")
	return err
}

func (actions *Actions) handleCheckoutCompleted(event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return err
	}
	if sess.Customer == nil {
		return nil
	}
	var userID, affiliateCode *string
	if value, ok := sess.Metadata["user_id"]; ok && value != "" {
		userID = &value
	}
	if value, ok := sess.Metadata["affiliate_code"]; ok && value != "" {
		affiliateCode = &value
	}
	if userID == nil && affiliateCode == nil {
		return nil
	}
	_, err := actions.service.LinkPaymentCustomer(sess.Customer.ID, userID, affiliateCode)
	return err
}
