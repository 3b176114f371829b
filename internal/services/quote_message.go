package services

import (
	"strings"

	"github.com/akkash/bizsearch-backend/internal/models"
	"github.com/akkash/bizsearch-backend/internal/utils"
)

// fallbackBuyerName is used when the requester has no display name set.
const fallbackBuyerName = "A potential buyer"

// GenerateInquiryMessage builds the outbound message for one listing of a
// quote request. Only requirements that are present produce a line, in a fixed
// order: budget, timeline, location, experience, notes. The output is
// deterministic for a given input so re-running creation logic in tests yields
// identical messages.
func GenerateInquiryMessage(profile *models.Profile, listing models.ListingRef, req models.QuoteRequirements, listingType models.ListingType) string {
	buyerName := fallbackBuyerName
	if profile != nil && profile.DisplayName != "" {
		buyerName = profile.DisplayName
	}

	var b strings.Builder
	b.WriteString("Dear " + listing.Name + " Team,\n\n")
	b.WriteString(buyerName + " is interested in learning more about your " + string(listingType) + " opportunity.\n\n")

	if budget := req.BudgetRange; budget != nil {
		if budget.Min > 0 && budget.Max > 0 {
			b.WriteString("Budget Range: ₹" + utils.FormatINRAmount(budget.Min) + " - ₹" + utils.FormatINRAmount(budget.Max) + "\n")
		} else if budget.Max > 0 {
			b.WriteString("Maximum Budget: ₹" + utils.FormatINRAmount(budget.Max) + "\n")
		}
	}

	if req.Timeline != "" {
		b.WriteString("Preferred Timeline: " + req.Timeline + "\n")
	}

	if req.LocationPreference != "" {
		b.WriteString("Location Preference: " + req.LocationPreference + "\n")
	}

	if req.ExperienceLevel != "" {
		b.WriteString("Experience Level: " + req.ExperienceLevel + "\n")
	}

	if req.AdditionalNotes != "" {
		b.WriteString("\nAdditional Notes: " + req.AdditionalNotes + "\n")
	}

	b.WriteString("\nPlease provide details on pricing, terms, and next steps.\n\n")
	b.WriteString("This inquiry was sent via BizSearch Quote Collection Agent.\n")
	b.WriteString("Reply directly to continue the conversation.")

	return b.String()
}
