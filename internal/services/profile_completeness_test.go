package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/akkash/bizsearch-backend/internal/models"
)

func fullBaseProfile() *models.Profile {
	return &models.Profile{
		ID:          "u1",
		DisplayName: "Asha Verma",
		Email:       "asha@example.com",
		Phone:       "9876543210",
		City:        "Pune",
		State:       "Maharashtra",
		Bio:         "Serial entrepreneur.",
		AvatarURL:   "https://cdn.example.com/a.png",
		LinkedinURL: "https://linkedin.com/in/asha",
		Website:     "https://asha.example.com",
	}
}

func TestCalculateProfileCompleteness_NilProfile(t *testing.T) {
	result := CalculateProfileCompleteness(nil)

	assert.Equal(t, 0, result.Score)
	assert.Equal(t, TierBasic, result.Tier)
	assert.Empty(t, result.CompletedFields)
	assert.Empty(t, result.MissingFields)
}

func TestCalculateProfileCompleteness_EmptyProfile(t *testing.T) {
	result := CalculateProfileCompleteness(&models.Profile{ID: "u1"})

	assert.Equal(t, 0, result.Score)
	assert.Equal(t, TierBasic, result.Tier)
	assert.Len(t, result.MissingFields, len(baseFields))

	// Missing fields come back high priority first.
	assert.Equal(t, PriorityHigh, result.MissingFields[0].Priority)
	last := result.MissingFields[len(result.MissingFields)-1]
	assert.Equal(t, PriorityLow, last.Priority)
}

func TestCalculateProfileCompleteness_FullBuyerProfile(t *testing.T) {
	profile := fullBaseProfile()
	profile.Role = models.RoleBuyer
	profile.InvestmentMin = 500000
	profile.InvestmentMax = 5000000
	profile.PreferredIndustries = []string{"food", "retail"}
	profile.BuyerType = "individual"

	result := CalculateProfileCompleteness(profile)

	assert.Equal(t, 100, result.Score)
	assert.Empty(t, result.MissingFields)
	assert.Equal(t, TierComplete, result.Tier)
}

func TestCalculateProfileCompleteness_VerifiedTier(t *testing.T) {
	profile := fullBaseProfile()
	profile.Verified = true

	result := CalculateProfileCompleteness(profile)

	assert.Equal(t, 100, result.Score)
	assert.Equal(t, TierVerified, result.Tier)
}

func TestCalculateProfileCompleteness_PartialProfile(t *testing.T) {
	profile := &models.Profile{
		ID:          "u1",
		DisplayName: "Ravi",
		Email:       "ravi@example.com",
		Phone:       "9876543210",
		City:        "Delhi",
	}

	result := CalculateProfileCompleteness(profile)

	// 10+10+15+10 of an 80-point base set.
	assert.Equal(t, 56, result.Score)
	assert.Equal(t, TierBasic, result.Tier)
	assert.ElementsMatch(t, []string{"display_name", "email", "phone", "city"}, result.CompletedFields)
}

func TestCalculateProfileCompleteness_VerifiedNeedsScore(t *testing.T) {
	profile := &models.Profile{
		ID:       "u1",
		Verified: true,
		Email:    "x@example.com",
	}

	result := CalculateProfileCompleteness(profile)

	// Verification alone does not promote a sparse profile.
	assert.Equal(t, TierBasic, result.Tier)
}

func TestCalculateProfileCompleteness_AdvisorWeightsBio(t *testing.T) {
	profile := &models.Profile{
		ID:          "u1",
		Role:        models.RoleAdvisor,
		Bio:         "20 years advising SMB exits.",
		LinkedinURL: "https://linkedin.com/in/adv",
	}

	result := CalculateProfileCompleteness(profile)

	// bio and linkedin each count in the base set and again in the advisor
	// set: (10+5)+(15+10) of a 105-point total.
	assert.Equal(t, 38, result.Score)
}
