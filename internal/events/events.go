package events

import "time"

// Routing keys published on the agents exchange.
const (
	KeyQuoteRequestCreated   = "quote.request.created"
	KeyQuoteRequestCompleted = "quote.request.completed"
	KeyQuoteRequestExpired   = "quote.request.expired"
	KeyLeadQualified         = "lead.qualified"
)

// Meta carries message identity for tracing across consumers.
type Meta struct {
	ID            string    `json:"id"`
	CorrelationID *string   `json:"correlation_id,omitempty"`
	Source        string    `json:"source"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Envelope is the wire shape of every event: identity plus an
// event-specific payload.
type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

// QuoteRequestCreated is emitted once per successful /create call.
type QuoteRequestCreated struct {
	QuoteRequestID    string `json:"quote_request_id"`
	UserID            string `json:"user_id"`
	ListingType       string `json:"listing_type"`
	ListingsContacted int    `json:"listings_contacted"`
}

// QuoteRequestClosed is emitted when the sweep moves a request out of
// "collecting", for both the completed and expired outcomes.
type QuoteRequestClosed struct {
	QuoteRequestID string `json:"quote_request_id"`
	Status         string `json:"status"`
}

// LeadQualified is emitted when the lead agent scores an inquiry.
type LeadQualified struct {
	LeadID             string `json:"lead_id"`
	InquiryID          string `json:"inquiry_id"`
	SellerID           string `json:"seller_id,omitempty"`
	QualificationScore int    `json:"qualification_score"`
	HighPriority       bool   `json:"high_priority"`
}
