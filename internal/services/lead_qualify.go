package services

import (
	"strings"

	"github.com/akkash/bizsearch-backend/internal/models"
)

// Qualification criteria weights. Longer messages, specific questions and
// urgency signals indicate more serious interest.
const (
	weightHasEmail            = 15
	weightHasPhone            = 20
	weightHasName             = 10
	weightMessageLength       = 15
	weightSpecificQuestions   = 20
	weightUrgencySignals      = 10
	weightExperienceMentioned = 10
)

var specificKeywords = []string{
	"price", "cost", "revenue", "profit", "terms", "timeline",
	"financing", "training", "support", "roi", "investment",
}

var urgencyKeywords = []string{
	"asap", "urgent", "immediately", "soon", "quickly", "this week", "this month",
}

var experienceKeywords = []string{
	"experience", "background", "years", "currently", "business owner", "entrepreneur",
}

func containsAny(haystack string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

// QualifyLead scores an inquiry 0-100 against fixed criteria and records
// which criteria fired in the notes map.
func QualifyLead(inquiry *models.Inquiry) (int, map[string]bool) {
	score := 0
	notes := map[string]bool{}

	if strings.Contains(inquiry.Email, "@") {
		score += weightHasEmail
		notes["has_email"] = true
	}

	if len(inquiry.Phone) >= 10 {
		score += weightHasPhone
		notes["has_phone"] = true
	}

	if len(inquiry.Name) > 2 {
		score += weightHasName
		notes["has_name"] = true
	}

	if len(inquiry.Message) > 100 {
		score += weightMessageLength
		notes["detailed_message"] = true
	} else if len(inquiry.Message) > 50 {
		score += weightMessageLength / 2
		notes["moderate_message"] = true
	}

	lowerMessage := strings.ToLower(inquiry.Message)

	if containsAny(lowerMessage, specificKeywords) {
		score += weightSpecificQuestions
		notes["asks_specifics"] = true
	}

	if containsAny(lowerMessage, urgencyKeywords) {
		score += weightUrgencySignals
		notes["shows_urgency"] = true
	}

	if containsAny(lowerMessage, experienceKeywords) {
		score += weightExperienceMentioned
		notes["mentions_experience"] = true
	}

	if score > 100 {
		score = 100
	}
	return score, notes
}

// GenerateAutoResponse builds the immediate acknowledgement sent back to a
// buyer. High-scoring leads get the priority phrasing.
func GenerateAutoResponse(inquiry *models.Inquiry, listingName string, score, highPriorityScore int) string {
	buyerName := inquiry.Name
	if buyerName == "" {
		buyerName = "there"
	}
	if listingName == "" {
		listingName = "this listing"
	}

	var b strings.Builder
	b.WriteString("Hi " + buyerName + ",\n\n")
	b.WriteString("Thank you for your interest in " + listingName + "!\n\n")

	if score >= highPriorityScore {
		b.WriteString("Your inquiry has been marked as high-priority and the seller will be reaching out to you shortly.\n\n")
	} else {
		b.WriteString("We've received your inquiry and shared it with the seller. You can expect a response within 24-48 hours.\n\n")
	}

	b.WriteString("In the meantime, here are a few things you can do:\n")
	b.WriteString("• Review the complete listing details on BizSearch\n")
	b.WriteString("• Prepare any questions you'd like to ask\n")
	b.WriteString("• Check out similar opportunities in your area\n\n")

	b.WriteString("Best regards,\nBizSearch Concierge\n\n")
	b.WriteString("---\nThis is an automated message from BizSearch Lead Agent.")

	return b.String()
}
