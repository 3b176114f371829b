package services

import (
	"math"
	"sort"

	"github.com/akkash/bizsearch-backend/internal/models"
)

// FieldPriority orders missing-field nudges shown to the user.
type FieldPriority string

const (
	PriorityHigh   FieldPriority = "high"
	PriorityMedium FieldPriority = "medium"
	PriorityLow    FieldPriority = "low"
)

// ProfileTier buckets a profile by completeness and verification.
type ProfileTier string

const (
	TierBasic    ProfileTier = "basic"
	TierComplete ProfileTier = "complete"
	TierVerified ProfileTier = "verified"
)

// MissingField names an incomplete profile field and its nudge priority.
type MissingField struct {
	Field    string        `json:"field"`
	Label    string        `json:"label"`
	Priority FieldPriority `json:"priority"`
}

// CompletenessResult is the outcome of scoring one profile.
type CompletenessResult struct {
	Score           int            `json:"score"` // 0-100
	CompletedFields []string       `json:"completed_fields"`
	MissingFields   []MissingField `json:"missing_fields"`
	Tier            ProfileTier    `json:"tier"`
}

type fieldDef struct {
	field    string
	label    string
	priority FieldPriority
	weight   int
	present  func(*models.Profile) bool
}

func strSet(get func(*models.Profile) string) func(*models.Profile) bool {
	return func(p *models.Profile) bool { return get(p) != "" }
}

func numSet(get func(*models.Profile) float64) func(*models.Profile) bool {
	return func(p *models.Profile) bool { return get(p) != 0 }
}

var baseFields = []fieldDef{
	{"display_name", "Full Name", PriorityHigh, 10, strSet(func(p *models.Profile) string { return p.DisplayName })},
	{"email", "Email Address", PriorityHigh, 10, strSet(func(p *models.Profile) string { return p.Email })},
	{"phone", "Phone Number", PriorityHigh, 15, strSet(func(p *models.Profile) string { return p.Phone })},
	{"city", "City", PriorityHigh, 10, strSet(func(p *models.Profile) string { return p.City })},
	{"state", "State", PriorityHigh, 5, strSet(func(p *models.Profile) string { return p.State })},
	{"bio", "About / Bio", PriorityMedium, 10, strSet(func(p *models.Profile) string { return p.Bio })},
	{"avatar_url", "Profile Photo", PriorityMedium, 10, strSet(func(p *models.Profile) string { return p.AvatarURL })},
	{"linkedin_url", "LinkedIn Profile", PriorityLow, 5, strSet(func(p *models.Profile) string { return p.LinkedinURL })},
	{"website", "Website", PriorityLow, 5, strSet(func(p *models.Profile) string { return p.Website })},
}

var buyerFields = []fieldDef{
	{"investment_min", "Minimum Investment", PriorityHigh, 10, numSet(func(p *models.Profile) float64 { return p.InvestmentMin })},
	{"investment_max", "Maximum Investment", PriorityHigh, 10, numSet(func(p *models.Profile) float64 { return p.InvestmentMax })},
	{"preferred_industries", "Preferred Industries", PriorityMedium, 5, func(p *models.Profile) bool { return len(p.PreferredIndustries) > 0 }},
	{"buyer_type", "Buyer Type", PriorityMedium, 5, strSet(func(p *models.Profile) string { return p.BuyerType })},
}

var sellerFields = []fieldDef{
	{"industry", "Industry", PriorityHigh, 10, strSet(func(p *models.Profile) string { return p.Industry })},
	{"founded_year", "Year Founded", PriorityMedium, 5, func(p *models.Profile) bool { return p.FoundedYear != 0 }},
	{"employees", "Number of Employees", PriorityMedium, 5, func(p *models.Profile) bool { return p.Employees != 0 }},
	{"asking_price", "Asking Price", PriorityHigh, 10, numSet(func(p *models.Profile) float64 { return p.AskingPrice })},
}

var franchisorFields = []fieldDef{
	{"total_outlets", "Total Outlets", PriorityHigh, 10, func(p *models.Profile) bool { return p.TotalOutlets != 0 }},
	{"franchise_fee", "Franchise Fee", PriorityHigh, 10, numSet(func(p *models.Profile) float64 { return p.FranchiseFee })},
	{"royalty_percentage", "Royalty Percentage", PriorityMedium, 5, numSet(func(p *models.Profile) float64 { return p.RoyaltyPercentage })},
}

var franchiseeFields = []fieldDef{
	{"investment_min", "Investment Budget Min", PriorityHigh, 10, numSet(func(p *models.Profile) float64 { return p.InvestmentMin })},
	{"investment_max", "Investment Budget Max", PriorityHigh, 10, numSet(func(p *models.Profile) float64 { return p.InvestmentMax })},
	{"preferred_industries", "Preferred Industries", PriorityMedium, 5, func(p *models.Profile) bool { return len(p.PreferredIndustries) > 0 }},
}

var advisorFields = []fieldDef{
	{"bio", "Professional Bio", PriorityHigh, 15, strSet(func(p *models.Profile) string { return p.Bio })},
	{"linkedin_url", "LinkedIn Profile", PriorityHigh, 10, strSet(func(p *models.Profile) string { return p.LinkedinURL })},
}

func fieldsForRole(role models.ProfileRole) []fieldDef {
	fields := append([]fieldDef{}, baseFields...)
	switch role {
	case models.RoleBuyer:
		return append(fields, buyerFields...)
	case models.RoleSeller:
		return append(fields, sellerFields...)
	case models.RoleFranchisor:
		return append(fields, franchisorFields...)
	case models.RoleFranchisee:
		return append(fields, franchiseeFields...)
	case models.RoleAdvisor, models.RoleBroker:
		return append(fields, advisorFields...)
	default:
		return fields
	}
}

var priorityOrder = map[FieldPriority]int{PriorityHigh: 0, PriorityMedium: 1, PriorityLow: 2}

// CalculateProfileCompleteness computes the weighted completeness score, the
// prioritized list of missing fields and the resulting tier. A nil profile
// scores zero at the basic tier.
func CalculateProfileCompleteness(profile *models.Profile) CompletenessResult {
	result := CompletenessResult{
		CompletedFields: []string{},
		MissingFields:   []MissingField{},
		Tier:            TierBasic,
	}
	if profile == nil {
		return result
	}

	fields := fieldsForRole(profile.Role)
	totalWeight := 0
	completedWeight := 0

	for _, def := range fields {
		totalWeight += def.weight
		if def.present(profile) {
			result.CompletedFields = append(result.CompletedFields, def.field)
			completedWeight += def.weight
		} else {
			result.MissingFields = append(result.MissingFields, MissingField{
				Field:    def.field,
				Label:    def.label,
				Priority: def.priority,
			})
		}
	}

	sort.SliceStable(result.MissingFields, func(i, j int) bool {
		return priorityOrder[result.MissingFields[i].Priority] < priorityOrder[result.MissingFields[j].Priority]
	})

	result.Score = int(math.Round(float64(completedWeight) / float64(totalWeight) * 100))

	switch {
	case result.Score >= 80 && profile.Verified:
		result.Tier = TierVerified
	case result.Score >= 60:
		result.Tier = TierComplete
	}

	return result
}
