package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/akkash/bizsearch-backend/internal/config"
	"github.com/akkash/bizsearch-backend/internal/db"
	"github.com/akkash/bizsearch-backend/internal/email"
	"github.com/akkash/bizsearch-backend/internal/events"
	"github.com/akkash/bizsearch-backend/internal/models"
)

var (
	ErrInvalidLeadStatus = errors.New("invalid lead status")
	ErrLeadNotFound      = errors.New("lead not found")
)

const (
	inquiriesCollection = "inquiries"
	leadQueueCollection = "lead_queue"
)

// LeadQueueView is a seller's lead queue with a by-status breakdown.
type LeadQueueView struct {
	Leads   []models.Lead  `json:"leads"`
	Summary map[string]int `json:"summary"`
	Total   int            `json:"total"`
}

// ProcessedLead reports what the lead agent did with one inquiry.
type ProcessedLead struct {
	LeadID             string `json:"lead_id"`
	InquiryID          string `json:"inquiry_id"`
	QualificationScore int    `json:"qualification_score"`
	AutoResponseSent   bool   `json:"auto_response_sent"`
	SellerNotified     bool   `json:"seller_notified"`
}

// ILeadService defines the lead agent operations.
type ILeadService interface {
	ProcessInquiry(ctx context.Context, inquiryID string) (*ProcessedLead, error)
	GetSellerLeads(ctx context.Context, sellerID string) (*LeadQueueView, error)
	UpdateLeadStatus(ctx context.Context, leadID string, status models.LeadStatus) (*models.Lead, error)
	ProcessAllPending(ctx context.Context) (int, error)
}

// leadService implements ILeadService.
type leadService struct {
	db             *mongo.Database
	cfg            *config.Config
	listingService IListingService
	emailSender    email.Sender
	publisher      events.Publisher
}

// NewLeadService creates a new LeadService.
func NewLeadService(database *mongo.Database, cfg *config.Config, listingService IListingService, emailSender email.Sender, publisher events.Publisher) ILeadService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &leadService{
		db:             database,
		cfg:            cfg,
		listingService: listingService,
		emailSender:    emailSender,
		publisher:      publisher,
	}
}

// ProcessInquiry qualifies one inquiry into a lead: score it, auto-respond to
// the buyer, and notify the seller when the score clears the high-priority
// bar. Reprocessing an already-handled inquiry returns the existing lead
// unchanged.
func (s *leadService) ProcessInquiry(ctx context.Context, inquiryID string) (*ProcessedLead, error) {
	var inquiry models.Inquiry
	err := s.db.Collection(inquiriesCollection).FindOne(ctx, bson.M{"_id": inquiryID}).Decode(&inquiry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding inquiry %s: %w", inquiryID, err)
	}

	leadsColl := s.db.Collection(leadQueueCollection)

	// Idempotency: one lead per inquiry, enforced by a unique index on
	// inquiry_id. A lead that already exists means a previous run finished.
	var existing models.Lead
	err = leadsColl.FindOne(ctx, bson.M{"inquiry_id": inquiryID}).Decode(&existing)
	if err == nil {
		return &ProcessedLead{
			LeadID:             existing.ID,
			InquiryID:          inquiryID,
			QualificationScore: existing.QualificationScore,
			AutoResponseSent:   existing.AutoResponseSent,
			SellerNotified:     existing.SellerNotified,
		}, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("error checking existing lead for inquiry %s: %w", inquiryID, err)
	}

	listingType := inquiry.ListingType
	if !listingType.Valid() {
		listingType = models.ListingTypeBusiness
	}

	listingName := ""
	sellerID := ""
	refs, err := s.listingService.GetListingRefs(ctx, listingType, []string{inquiry.ListingID})
	if err != nil {
		log.Printf("LeadService: failed to load listing %s for inquiry %s: %v", inquiry.ListingID, inquiryID, err)
	} else if len(refs) > 0 {
		listingName = refs[0].Name
		sellerID = refs[0].OwnerID
	}

	score, notes := QualifyLead(&inquiry)
	now := time.Now().UTC()

	lead := &models.Lead{
		ID:                 uuid.NewString(),
		InquiryID:          inquiryID,
		ListingID:          inquiry.ListingID,
		ListingType:        listingType,
		SellerID:           sellerID,
		BuyerID:            inquiry.UserID,
		BuyerName:          inquiry.Name,
		BuyerEmail:         inquiry.Email,
		BuyerPhone:         inquiry.Phone,
		QualificationScore: score,
		QualificationNotes: notes,
		Status:             models.LeadStatusNew,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	// A duplicate key here is the unique inquiry_id index, so retrying the
	// same insert cannot help; the surviving lead wins the race.
	if _, err := leadsColl.InsertOne(ctx, lead); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return s.ProcessInquiry(ctx, inquiryID)
		}
		return nil, fmt.Errorf("failed to insert lead for inquiry %s: %w", inquiryID, err)
	}

	result := &ProcessedLead{
		LeadID:             lead.ID,
		InquiryID:          inquiryID,
		QualificationScore: score,
	}

	// Auto-respond to the buyer. Delivery failures are logged and the lead
	// stays in "new" so the seller still sees it.
	if inquiry.Email != "" {
		body := GenerateAutoResponse(&inquiry, listingName, score, s.cfg.HighPriorityScore)
		subject := "Thank you for your interest in " + orDefault(listingName, "this listing")
		raw := email.BuildRawMessage(s.cfg.SmtpFromAddress, []string{inquiry.Email}, subject, body)
		if err := s.emailSender.Send(ctx, []string{inquiry.Email}, subject, raw); err != nil {
			log.Printf("LeadService: auto-response to %s failed: %v", inquiry.Email, err)
		} else {
			update := bson.M{"status": models.LeadStatusAutoResponded, "auto_response_sent": true, "auto_response_at": now, "updated_at": now}
			if _, err := leadsColl.UpdateOne(ctx, bson.M{"_id": lead.ID}, bson.M{"$set": update}); err != nil {
				log.Printf("LeadService: failed to record auto-response on lead %s: %v", lead.ID, err)
			} else {
				result.AutoResponseSent = true
			}
		}
	}

	highPriority := score >= s.cfg.HighPriorityScore
	if highPriority && sellerID != "" {
		if err := s.notifySeller(ctx, lead, listingName, sellerID); err != nil {
			log.Printf("LeadService: seller notification for lead %s failed: %v", lead.ID, err)
		} else {
			if _, err := leadsColl.UpdateOne(ctx, bson.M{"_id": lead.ID},
				bson.M{"$set": bson.M{"seller_notified": true, "seller_notified_at": now, "updated_at": now}},
			); err != nil {
				log.Printf("LeadService: failed to record seller notification on lead %s: %v", lead.ID, err)
			} else {
				result.SellerNotified = true
			}
		}
	}

	if err := s.publisher.Publish(ctx, events.KeyLeadQualified, events.NewEnvelope("lead-agent", events.LeadQualified{
		LeadID:             lead.ID,
		InquiryID:          inquiryID,
		SellerID:           sellerID,
		QualificationScore: score,
		HighPriority:       highPriority,
	})); err != nil {
		log.Printf("LeadService: failed to publish qualified event for lead %s: %v", lead.ID, err)
	}

	return result, nil
}

// notifySeller emails the listing owner about a high-scoring lead. The seller's
// address comes from their profile.
func (s *leadService) notifySeller(ctx context.Context, lead *models.Lead, listingName, sellerID string) error {
	var seller models.Profile
	err := s.db.Collection(profilesCollection).FindOne(ctx, bson.M{"_id": sellerID}).Decode(&seller)
	if err != nil {
		return fmt.Errorf("error loading seller profile %s: %w", sellerID, err)
	}
	if seller.Email == "" {
		return fmt.Errorf("seller %s has no email address", sellerID)
	}

	subject := fmt.Sprintf("New Lead for %s (score %d/100)", orDefault(listingName, "your listing"), lead.QualificationScore)
	body := fmt.Sprintf(
		"You have a new qualified lead for %s.\n\n"+
			"Buyer: %s\nEmail: %s\nPhone: %s\nQualification score: %d/100\n\n"+
			"Log in to BizSearch to view the full inquiry and respond.\n",
		orDefault(listingName, "your listing"),
		orDefault(lead.BuyerName, "Not provided"),
		orDefault(lead.BuyerEmail, "Not provided"),
		orDefault(lead.BuyerPhone, "Not provided"),
		lead.QualificationScore,
	)
	raw := email.BuildRawMessage(s.cfg.SmtpFromAddress, []string{seller.Email}, subject, body)
	return s.emailSender.Send(ctx, []string{seller.Email}, subject, raw)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// GetSellerLeads returns a seller's queue, highest score first, capped at the
// configured fetch size, plus a count per pipeline status.
func (s *leadService) GetSellerLeads(ctx context.Context, sellerID string) (*LeadQueueView, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "qualification_score", Value: -1}, {Key: "created_at", Value: -1}}).
		SetLimit(int64(s.cfg.LeadQueueFetchSize))

	cursor, err := s.db.Collection(leadQueueCollection).Find(ctx, bson.M{"seller_id": sellerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing leads for seller %s: %w", sellerID, err)
	}
	defer cursor.Close(ctx)

	leads := []models.Lead{}
	if err := cursor.All(ctx, &leads); err != nil {
		return nil, fmt.Errorf("error decoding seller leads: %w", err)
	}

	view := &LeadQueueView{
		Leads:   leads,
		Summary: map[string]int{},
		Total:   len(leads),
	}
	for _, lead := range leads {
		view.Summary[string(lead.Status)]++
	}
	return view, nil
}

// UpdateLeadStatus moves a lead to a new pipeline state.
func (s *leadService) UpdateLeadStatus(ctx context.Context, leadID string, status models.LeadStatus) (*models.Lead, error) {
	if !models.ValidLeadStatus(status) {
		return nil, ErrInvalidLeadStatus
	}

	var lead models.Lead
	err := s.db.Collection(leadQueueCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": leadID},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&lead)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("error updating lead %s: %w", leadID, err)
	}
	return &lead, nil
}

// ProcessAllPending qualifies every inquiry that has no lead yet. Returns the
// number of inquiries processed. Individual failures are logged and skipped so
// one bad inquiry cannot wedge the batch.
func (s *leadService) ProcessAllPending(ctx context.Context) (int, error) {
	handled, err := s.handledInquiryIDs(ctx)
	if err != nil {
		return 0, err
	}

	filter := bson.M{}
	if len(handled) > 0 {
		filter["_id"] = bson.M{"$nin": handled}
	}

	cursor, err := s.db.Collection(inquiriesCollection).
		Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return 0, fmt.Errorf("error finding unprocessed inquiries: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("error decoding unprocessed inquiries: %w", err)
	}

	processed := 0
	for _, row := range rows {
		if _, err := s.ProcessInquiry(ctx, row.ID); err != nil {
			log.Printf("LeadService: failed to process inquiry %s: %v", row.ID, err)
			continue
		}
		processed++
	}
	return processed, nil
}

func (s *leadService) handledInquiryIDs(ctx context.Context) ([]string, error) {
	raw, err := s.db.Collection(leadQueueCollection).Distinct(ctx, "inquiry_id", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("error listing handled inquiries: %w", err)
	}
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
