package topics

const (
	// Odds pipeline
	PriceQuotes = "price_quotes"

	// Alerts (Redis Pub/Sub channel)
	OpportunityAlerts = "opportunity_alerts"

	// DLQs
	PriceQuotesDLQ = "price_quotes_dlq"
)
