package models

import "time"

// ListingStatus gates which listings the public API serves.
type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "active"
	ListingStatusDraft    ListingStatus = "draft"
	ListingStatusInactive ListingStatus = "inactive"
	ListingStatusSold     ListingStatus = "sold"
)

// VerificationStatus is the manual review state of a listing.
type VerificationStatus string

const (
	VerificationVerified   VerificationStatus = "verified"
	VerificationPending    VerificationStatus = "pending"
	VerificationUnverified VerificationStatus = "unverified"
	VerificationRejected   VerificationStatus = "rejected"
)

// Business is a business-for-sale listing.
type Business struct {
	ID                    string             `bson:"_id" json:"id"`
	Slug                  string             `bson:"slug" json:"slug"`
	Name                  string             `bson:"name" json:"name"`
	OwnerID               string             `bson:"owner_id" json:"owner_id"`
	Industry              string             `bson:"industry,omitempty" json:"industry,omitempty"`
	Description           string             `bson:"description,omitempty" json:"description,omitempty"`
	Location              string             `bson:"location,omitempty" json:"location,omitempty"`
	City                  string             `bson:"city,omitempty" json:"city,omitempty"`
	State                 string             `bson:"state,omitempty" json:"state,omitempty"`
	Price                 float64            `bson:"price,omitempty" json:"price,omitempty"`
	Revenue               float64            `bson:"revenue,omitempty" json:"revenue,omitempty"`
	EstablishedYear       int                `bson:"established_year,omitempty" json:"established_year,omitempty"`
	Employees             int                `bson:"employees,omitempty" json:"employees,omitempty"`
	BusinessType          string             `bson:"business_type,omitempty" json:"business_type,omitempty"`
	Images                []string           `bson:"images,omitempty" json:"images,omitempty"`
	Status                ListingStatus      `bson:"status" json:"status"`
	VerificationStatus    VerificationStatus `bson:"verification_status,omitempty" json:"verification_status,omitempty"`
	VerifiedAt            *time.Time         `bson:"verified_at,omitempty" json:"verified_at,omitempty"`
	DataCompletenessScore int                `bson:"data_completeness_score,omitempty" json:"data_completeness_score,omitempty"`
	Featured              bool               `bson:"featured,omitempty" json:"featured,omitempty"`
	Trending              bool               `bson:"trending,omitempty" json:"trending,omitempty"`
	CreatedAt             time.Time          `bson:"created_at" json:"created_at"`
}

// Franchise is a franchise-opportunity listing.
type Franchise struct {
	ID                    string             `bson:"_id" json:"id"`
	Slug                  string             `bson:"slug" json:"slug"`
	BrandName             string             `bson:"brand_name" json:"brand_name"`
	OwnerID               string             `bson:"owner_id" json:"owner_id"`
	Industry              string             `bson:"industry,omitempty" json:"industry,omitempty"`
	Description           string             `bson:"description,omitempty" json:"description,omitempty"`
	TotalInvestmentMin    float64            `bson:"total_investment_min,omitempty" json:"total_investment_min,omitempty"`
	TotalInvestmentMax    float64            `bson:"total_investment_max,omitempty" json:"total_investment_max,omitempty"`
	FranchiseFee          float64            `bson:"franchise_fee,omitempty" json:"franchise_fee,omitempty"`
	RoyaltyPercentage     float64            `bson:"royalty_percentage,omitempty" json:"royalty_percentage,omitempty"`
	TotalOutlets          int                `bson:"total_outlets,omitempty" json:"total_outlets,omitempty"`
	LogoURL               string             `bson:"logo_url,omitempty" json:"logo_url,omitempty"`
	Images                []string           `bson:"images,omitempty" json:"images,omitempty"`
	Status                ListingStatus      `bson:"status" json:"status"`
	VerificationStatus    VerificationStatus `bson:"verification_status,omitempty" json:"verification_status,omitempty"`
	VerifiedAt            *time.Time         `bson:"verified_at,omitempty" json:"verified_at,omitempty"`
	DataCompletenessScore int                `bson:"data_completeness_score,omitempty" json:"data_completeness_score,omitempty"`
	Featured              bool               `bson:"featured,omitempty" json:"featured,omitempty"`
	Trending              bool               `bson:"trending,omitempty" json:"trending,omitempty"`
	CreatedAt             time.Time          `bson:"created_at" json:"created_at"`
}

// ListingRef is the minimal projection the quote agent needs from either
// catalogue: identity, display name and owner.
type ListingRef struct {
	ID      string
	Name    string
	OwnerID string
}
