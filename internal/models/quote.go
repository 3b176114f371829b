package models

import (
	"time"
)

// ListingType discriminates which catalogue a quote request targets.
type ListingType string

const (
	ListingTypeBusiness  ListingType = "business"
	ListingTypeFranchise ListingType = "franchise"
)

// Valid reports whether t is one of the two supported listing types.
func (t ListingType) Valid() bool {
	return t == ListingTypeBusiness || t == ListingTypeFranchise
}

// QuoteRequestStatus is the lifecycle state of a quote request.
type QuoteRequestStatus string

const (
	QuoteStatusCollecting QuoteRequestStatus = "collecting"
	QuoteStatusCompleted  QuoteRequestStatus = "completed"
	QuoteStatusExpired    QuoteRequestStatus = "expired"
)

// QuoteResponseStatus is the per-listing tracking state within a request.
type QuoteResponseStatus string

const (
	ResponseStatusPending   QuoteResponseStatus = "pending"
	ResponseStatusSent      QuoteResponseStatus = "sent"
	ResponseStatusResponded QuoteResponseStatus = "responded"
	ResponseStatusDeclined  QuoteResponseStatus = "declined"
	ResponseStatusExpired   QuoteResponseStatus = "expired"
)

// Terminal reports whether the response needs no further action.
func (s QuoteResponseStatus) Terminal() bool {
	switch s {
	case ResponseStatusResponded, ResponseStatusDeclined, ResponseStatusExpired:
		return true
	}
	return false
}

// BudgetRange is the buyer's optional investment bracket in INR.
type BudgetRange struct {
	Min float64 `bson:"min,omitempty" json:"min,omitempty"`
	Max float64 `bson:"max,omitempty" json:"max,omitempty"`
}

// QuoteRequirements carries the free-form preferences a buyer attaches to a
// quote request. Every field is optional; absent fields are omitted from the
// generated inquiry message.
type QuoteRequirements struct {
	BudgetRange        *BudgetRange `bson:"budget_range,omitempty" json:"budget_range,omitempty"`
	Timeline           string       `bson:"timeline,omitempty" json:"timeline,omitempty"`
	LocationPreference string       `bson:"location_preference,omitempty" json:"location_preference,omitempty"`
	ExperienceLevel    string       `bson:"experience_level,omitempty" json:"experience_level,omitempty"`
	AdditionalNotes    string       `bson:"additional_notes,omitempty" json:"additional_notes,omitempty"`
}

// QuoteRequest is a buyer-initiated batch inquiry against up to five listings
// of a single type. Rows are never deleted; only Status (and ComparisonData)
// mutate after creation.
type QuoteRequest struct {
	ID             string                 `bson:"_id" json:"id"`
	UserID         string                 `bson:"user_id" json:"user_id"`
	ListingIDs     []string               `bson:"listing_ids" json:"listing_ids"`
	ListingType    ListingType            `bson:"listing_type" json:"listing_type"`
	Requirements   QuoteRequirements      `bson:"requirements" json:"requirements"`
	Status         QuoteRequestStatus     `bson:"status" json:"status"`
	ComparisonData map[string]interface{} `bson:"comparison_data,omitempty" json:"comparison_data,omitempty"`
	CreatedAt      time.Time              `bson:"created_at" json:"created_at"`
	ExpiresAt      time.Time              `bson:"expires_at" json:"expires_at"`
}

// QuoteResponse tracks one listing's side of a quote request. Exactly one
// exists per (request, listing) pair.
type QuoteResponse struct {
	ID              string                 `bson:"_id" json:"id"`
	QuoteRequestID  string                 `bson:"quote_request_id" json:"quote_request_id"`
	ListingID       string                 `bson:"listing_id" json:"listing_id"`
	ListingType     ListingType            `bson:"listing_type" json:"listing_type"`
	ResponderID     string                 `bson:"responder_id,omitempty" json:"responder_id,omitempty"`
	InitialMessage  string                 `bson:"initial_message" json:"initial_message"`
	Status          QuoteResponseStatus    `bson:"status" json:"status"`
	ResponseMessage string                 `bson:"response_message,omitempty" json:"response_message,omitempty"`
	ResponseData    map[string]interface{} `bson:"response_data,omitempty" json:"response_data,omitempty"`
	RespondedAt     *time.Time             `bson:"responded_at,omitempty" json:"responded_at,omitempty"`
	CreatedAt       time.Time              `bson:"created_at" json:"created_at"`
}
