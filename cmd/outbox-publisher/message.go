package main

import (
	"strconv"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/omanfreight/quote-service/pkg/db/models"
	"github.com/omanfreight/quote-service/pkg/outbox/payloads"
	"github.com/omanfreight/quote-service/pkg/outbox/registry"
)

// eventMessage wraps the stored envelope unchanged. Attributes let
// subscriptions filter on quote reference, destination or product without
// decoding the body.
func eventMessage(event models.OutboxEvent, resolved *registry.ResolvedEvent) *gcppubsub.Message {
	attrs := map[string]string{
		"event_id":       resolved.Envelope.EventID,
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID.String(),
		"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
	}
	if resolved.Envelope.Version > 0 {
		attrs["schema_version"] = strconv.Itoa(resolved.Envelope.Version)
	}
	for key, value := range payloadAttributes(resolved.Payload) {
		attrs[key] = value
	}
	return &gcppubsub.Message{Data: event.Payload, Attributes: attrs}
}

func payloadAttributes(payload any) map[string]string {
	attrs := map[string]string{}
	set := func(key, value string) {
		if value != "" {
			attrs[key] = value
		}
	}
	switch p := payload.(type) {
	case *payloads.QuoteSubmittedEvent:
		set("quote_reference", p.Reference)
		set("delivery_country", p.DeliveryCountry)
		set("currency", p.Currency)
		if p.Discount != nil {
			set("discount", *p.Discount)
		}
	case *payloads.ProductPricingChangedEvent:
		set("product_id", p.ProductID.String())
	}
	return attrs
}
