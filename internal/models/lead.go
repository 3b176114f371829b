package models

import "time"

// Inquiry is a buyer's direct message about a single listing, as submitted
// through the contact form. The lead agent turns inquiries into leads.
type Inquiry struct {
	ID          string      `bson:"_id" json:"id"`
	ListingID   string      `bson:"listing_id" json:"listing_id"`
	ListingType ListingType `bson:"listing_type,omitempty" json:"listing_type,omitempty"`
	UserID      string      `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Name        string      `bson:"name,omitempty" json:"name,omitempty"`
	Email       string      `bson:"email,omitempty" json:"email,omitempty"`
	Phone       string      `bson:"phone,omitempty" json:"phone,omitempty"`
	Message     string      `bson:"message,omitempty" json:"message,omitempty"`
	CreatedAt   time.Time   `bson:"created_at" json:"created_at"`
}

// LeadStatus is the seller-facing pipeline state of a lead.
type LeadStatus string

const (
	LeadStatusNew           LeadStatus = "new"
	LeadStatusAutoResponded LeadStatus = "auto_responded"
	LeadStatusQualified     LeadStatus = "qualified"
	LeadStatusContacted     LeadStatus = "contacted"
	LeadStatusConverted     LeadStatus = "converted"
	LeadStatusLost          LeadStatus = "lost"
)

// ValidLeadStatus reports whether s is an accepted pipeline state.
func ValidLeadStatus(s LeadStatus) bool {
	switch s {
	case LeadStatusNew, LeadStatusAutoResponded, LeadStatusQualified,
		LeadStatusContacted, LeadStatusConverted, LeadStatusLost:
		return true
	}
	return false
}

// Lead is a qualified inquiry sitting in a seller's lead queue. Exactly one
// lead exists per inquiry.
type Lead struct {
	ID                 string          `bson:"_id" json:"id"`
	InquiryID          string          `bson:"inquiry_id" json:"inquiry_id"`
	ListingID          string          `bson:"listing_id" json:"listing_id"`
	ListingType        ListingType     `bson:"listing_type" json:"listing_type"`
	SellerID           string          `bson:"seller_id,omitempty" json:"seller_id,omitempty"`
	BuyerID            string          `bson:"buyer_id,omitempty" json:"buyer_id,omitempty"`
	BuyerName          string          `bson:"buyer_name,omitempty" json:"buyer_name,omitempty"`
	BuyerEmail         string          `bson:"buyer_email,omitempty" json:"buyer_email,omitempty"`
	BuyerPhone         string          `bson:"buyer_phone,omitempty" json:"buyer_phone,omitempty"`
	QualificationScore int             `bson:"qualification_score" json:"qualification_score"`
	QualificationNotes map[string]bool `bson:"qualification_notes,omitempty" json:"qualification_notes,omitempty"`
	Status             LeadStatus      `bson:"status" json:"status"`
	AutoResponseSent   bool            `bson:"auto_response_sent" json:"auto_response_sent"`
	AutoResponseAt     *time.Time      `bson:"auto_response_at,omitempty" json:"auto_response_at,omitempty"`
	SellerNotified     bool            `bson:"seller_notified" json:"seller_notified"`
	SellerNotifiedAt   *time.Time      `bson:"seller_notified_at,omitempty" json:"seller_notified_at,omitempty"`
	CreatedAt          time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `bson:"updated_at" json:"updated_at"`
}
