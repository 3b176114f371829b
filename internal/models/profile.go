package models

import "time"

// ProfileRole drives which field set counts toward profile completeness.
type ProfileRole string

const (
	RoleBuyer      ProfileRole = "buyer"
	RoleSeller     ProfileRole = "seller"
	RoleFranchisor ProfileRole = "franchisor"
	RoleFranchisee ProfileRole = "franchisee"
	RoleAdvisor    ProfileRole = "advisor"
	RoleBroker     ProfileRole = "broker"
)

// Profile is a marketplace user's public-facing identity and the role-specific
// attributes the completeness score is computed from.
type Profile struct {
	ID          string      `bson:"_id" json:"id"`
	DisplayName string      `bson:"display_name,omitempty" json:"display_name,omitempty"`
	Email       string      `bson:"email,omitempty" json:"email,omitempty"`
	Phone       string      `bson:"phone,omitempty" json:"phone,omitempty"`
	City        string      `bson:"city,omitempty" json:"city,omitempty"`
	State       string      `bson:"state,omitempty" json:"state,omitempty"`
	Bio         string      `bson:"bio,omitempty" json:"bio,omitempty"`
	AvatarURL   string      `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	LinkedinURL string      `bson:"linkedin_url,omitempty" json:"linkedin_url,omitempty"`
	Website     string      `bson:"website,omitempty" json:"website,omitempty"`
	Role        ProfileRole `bson:"role,omitempty" json:"role,omitempty"`
	Verified    bool        `bson:"verified" json:"verified"`

	// Buyer / franchisee
	InvestmentMin       float64  `bson:"investment_min,omitempty" json:"investment_min,omitempty"`
	InvestmentMax       float64  `bson:"investment_max,omitempty" json:"investment_max,omitempty"`
	PreferredIndustries []string `bson:"preferred_industries,omitempty" json:"preferred_industries,omitempty"`
	BuyerType           string   `bson:"buyer_type,omitempty" json:"buyer_type,omitempty"`

	// Seller
	Industry    string  `bson:"industry,omitempty" json:"industry,omitempty"`
	FoundedYear int     `bson:"founded_year,omitempty" json:"founded_year,omitempty"`
	Employees   int     `bson:"employees,omitempty" json:"employees,omitempty"`
	AskingPrice float64 `bson:"asking_price,omitempty" json:"asking_price,omitempty"`

	// Franchisor
	TotalOutlets      int     `bson:"total_outlets,omitempty" json:"total_outlets,omitempty"`
	FranchiseFee      float64 `bson:"franchise_fee,omitempty" json:"franchise_fee,omitempty"`
	RoyaltyPercentage float64 `bson:"royalty_percentage,omitempty" json:"royalty_percentage,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
