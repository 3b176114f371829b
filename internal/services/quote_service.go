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
	"github.com/akkash/bizsearch-backend/internal/events"
	"github.com/akkash/bizsearch-backend/internal/models"
)

// Validation errors surfaced to the API as 400s.
var (
	ErrNoListings         = errors.New("at least one listing is required")
	ErrTooManyListings    = errors.New("maximum 5 listings per quote request")
	ErrInvalidListingType = errors.New("listing_type must be 'business' or 'franchise'")
)

const maxListingsPerRequest = 5

const (
	quoteRequestsCollection  = "quote_requests"
	quoteResponsesCollection = "quote_responses"
	agentTasksCollection     = "agent_tasks"
)

// QuoteSummary is the responded/pending breakdown for a request.
// Pending counts both "pending" and "sent" responses, so
// Responded + Pending == Total always holds.
type QuoteSummary struct {
	Total     int `json:"total"`
	Responded int `json:"responded"`
	Pending   int `json:"pending"`
}

// QuoteResponseView is one response row joined with its listing name.
type QuoteResponseView struct {
	ListingID       string                     `json:"listing_id"`
	ListingName     string                     `json:"listing_name"`
	ListingType     models.ListingType         `json:"listing_type"`
	Status          models.QuoteResponseStatus `json:"status"`
	ResponseMessage string                     `json:"response_message,omitempty"`
	ResponseData    map[string]interface{}     `json:"response_data,omitempty"`
	RespondedAt     *time.Time                 `json:"responded_at,omitempty"`
}

// QuoteStatusView is the requester's joined view of one quote request.
type QuoteStatusView struct {
	ID           string                    `json:"id"`
	Status       models.QuoteRequestStatus `json:"status"`
	CreatedAt    time.Time                 `json:"created_at"`
	ExpiresAt    time.Time                 `json:"expires_at"`
	Requirements models.QuoteRequirements  `json:"requirements"`
	Responses    []QuoteResponseView       `json:"responses"`
	Summary      QuoteSummary              `json:"summary"`
	Comparison   map[string]interface{}    `json:"comparison,omitempty"`
}

// QuoteRequestSummary is the minimal dashboard row for /list.
type QuoteRequestSummary struct {
	ID          string                    `bson:"_id" json:"id"`
	Status      models.QuoteRequestStatus `bson:"status" json:"status"`
	ListingType models.ListingType        `bson:"listing_type" json:"listing_type"`
	CreatedAt   time.Time                 `bson:"created_at" json:"created_at"`
	ExpiresAt   time.Time                 `bson:"expires_at" json:"expires_at"`
}

// SweepResult reports what a maintenance pass changed. CompletedIDs feeds
// follow-up report generation and is not serialized.
type SweepResult struct {
	Expired   int `json:"expired"`
	Completed int `json:"completed"`

	CompletedIDs []string `json:"-"`
}

// IQuoteService defines the quote agent operations.
type IQuoteService interface {
	CreateQuoteRequest(ctx context.Context, userID string, listingIDs []string, listingType models.ListingType, requirements models.QuoteRequirements) (*models.QuoteRequest, int, error)
	GetQuoteStatus(ctx context.Context, userID, requestID string) (*QuoteStatusView, error)
	ListQuoteRequests(ctx context.Context, userID string) ([]QuoteRequestSummary, error)
	ProcessQuotes(ctx context.Context) (*SweepResult, error)

	GetRequest(ctx context.Context, requestID string) (*models.QuoteRequest, error)
	PendingResponses(ctx context.Context, requestID string) ([]models.QuoteResponse, error)
	ResponsesForRequest(ctx context.Context, requestID string) ([]models.QuoteResponse, error)
	MarkResponseSent(ctx context.Context, responseID string) error
	SetComparisonData(ctx context.Context, requestID string, data map[string]interface{}) error
}

// quoteService implements IQuoteService.
type quoteService struct {
	db             *mongo.Database
	cfg            *config.Config
	listingService IListingService
	publisher      events.Publisher
}

// NewQuoteService creates a new QuoteService.
func NewQuoteService(database *mongo.Database, cfg *config.Config, listingService IListingService, publisher events.Publisher) IQuoteService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &quoteService{db: database, cfg: cfg, listingService: listingService, publisher: publisher}
}

// CreateQuoteRequest validates and persists a new multi-listing quote request,
// generating a personalized outbound inquiry per listing. The parent row and
// its children are not covered by a transaction; instead a failure inserting
// the children deletes the parent so no orphaned request survives.
func (s *quoteService) CreateQuoteRequest(ctx context.Context, userID string, listingIDs []string, listingType models.ListingType, requirements models.QuoteRequirements) (*models.QuoteRequest, int, error) {
	if len(listingIDs) == 0 {
		return nil, 0, ErrNoListings
	}
	if len(listingIDs) > maxListingsPerRequest {
		return nil, 0, ErrTooManyListings
	}
	if !listingType.Valid() {
		return nil, 0, ErrInvalidListingType
	}

	now := time.Now().UTC()

	// Requester profile for message personalization. A missing profile is not
	// an error; the message falls back to a generic salutation.
	var profile *models.Profile
	var p models.Profile
	err := s.db.Collection(profilesCollection).FindOne(ctx, bson.M{"_id": userID}).Decode(&p)
	if err == nil {
		profile = &p
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		log.Printf("QuoteService: failed to load profile %s: %v", userID, err)
	}

	request := &models.QuoteRequest{
		UserID:       userID,
		ListingIDs:   listingIDs,
		ListingType:  listingType,
		Requirements: requirements,
		Status:       models.QuoteStatusCollecting,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.cfg.QuoteExpiry),
	}

	requestsColl := s.db.Collection(quoteRequestsCollection)
	if err := db.Try(func() error {
		request.ID = uuid.NewString()
		_, insertErr := requestsColl.InsertOne(ctx, request)
		return insertErr
	}); err != nil {
		return nil, 0, fmt.Errorf("failed to insert quote request for user %s: %w", userID, err)
	}

	listings, err := s.listingService.GetListingRefs(ctx, listingType, listingIDs)
	if err != nil {
		s.compensateCreate(ctx, request.ID)
		return nil, 0, fmt.Errorf("failed to load target listings: %w", err)
	}

	responses := make([]interface{}, 0, len(listings))
	for _, listing := range listings {
		responses = append(responses, &models.QuoteResponse{
			ID:             uuid.NewString(),
			QuoteRequestID: request.ID,
			ListingID:      listing.ID,
			ListingType:    listingType,
			ResponderID:    listing.OwnerID,
			InitialMessage: GenerateInquiryMessage(profile, listing, requirements, listingType),
			Status:         models.ResponseStatusPending,
			CreatedAt:      now,
		})
	}

	if len(responses) > 0 {
		if _, err := s.db.Collection(quoteResponsesCollection).InsertMany(ctx, responses); err != nil {
			s.compensateCreate(ctx, request.ID)
			return nil, 0, fmt.Errorf("failed to insert quote responses: %w", err)
		}
	}

	// Observability record; failures are logged, never fatal.
	task := &models.AgentTask{
		ID:     uuid.NewString(),
		Type:   models.AgentTaskQuoteRequest,
		Status: models.AgentTaskInProgress,
		UserID: userID,
		Metadata: map[string]interface{}{
			"quote_request_id": request.ID,
			"listing_count":    len(listingIDs),
		},
		CreatedAt: now,
	}
	if _, err := s.db.Collection(agentTasksCollection).InsertOne(ctx, task); err != nil {
		log.Printf("QuoteService: failed to insert agent task for request %s: %v", request.ID, err)
	}

	if err := s.publisher.Publish(ctx, events.KeyQuoteRequestCreated, events.NewEnvelope("quote-agent", events.QuoteRequestCreated{
		QuoteRequestID:    request.ID,
		UserID:            userID,
		ListingType:       string(listingType),
		ListingsContacted: len(listingIDs),
	})); err != nil {
		log.Printf("QuoteService: failed to publish created event for request %s: %v", request.ID, err)
	}

	return request, len(listingIDs), nil
}

// compensateCreate removes the parent request after a failed child insert.
func (s *quoteService) compensateCreate(ctx context.Context, requestID string) {
	if _, err := s.db.Collection(quoteRequestsCollection).DeleteOne(ctx, bson.M{"_id": requestID}); err != nil {
		log.Printf("QuoteService: compensating delete of request %s failed: %v", requestID, err)
	}
}

// GetQuoteStatus returns the requester's view of one quote request. A request
// that does not exist and a request owned by someone else both return
// mongo.ErrNoDocuments so callers cannot probe for existence.
func (s *quoteService) GetQuoteStatus(ctx context.Context, userID, requestID string) (*QuoteStatusView, error) {
	var request models.QuoteRequest
	err := s.db.Collection(quoteRequestsCollection).
		FindOne(ctx, bson.M{"_id": requestID, "user_id": userID}).
		Decode(&request)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding quote request %s: %w", requestID, err)
	}

	responses, err := s.ResponsesForRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	names := map[string]string{}
	refs, err := s.listingService.GetListingRefs(ctx, request.ListingType, request.ListingIDs)
	if err != nil {
		log.Printf("QuoteService: failed to load listing names for request %s: %v", requestID, err)
	} else {
		for _, ref := range refs {
			names[ref.ID] = ref.Name
		}
	}

	view := &QuoteStatusView{
		ID:           request.ID,
		Status:       request.Status,
		CreatedAt:    request.CreatedAt,
		ExpiresAt:    request.ExpiresAt,
		Requirements: request.Requirements,
		Responses:    make([]QuoteResponseView, 0, len(responses)),
		Comparison:   request.ComparisonData,
	}

	for _, r := range responses {
		name := names[r.ListingID]
		if name == "" {
			name = "Unknown"
		}
		view.Responses = append(view.Responses, QuoteResponseView{
			ListingID:       r.ListingID,
			ListingName:     name,
			ListingType:     r.ListingType,
			Status:          r.Status,
			ResponseMessage: r.ResponseMessage,
			ResponseData:    r.ResponseData,
			RespondedAt:     r.RespondedAt,
		})
		view.Summary.Total++
		switch r.Status {
		case models.ResponseStatusResponded:
			view.Summary.Responded++
		case models.ResponseStatusPending, models.ResponseStatusSent:
			view.Summary.Pending++
		}
	}

	return view, nil
}

// ListQuoteRequests returns the caller's requests, most recent first, capped
// at 20 rows with minimal fields.
func (s *quoteService) ListQuoteRequests(ctx context.Context, userID string) ([]QuoteRequestSummary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(20).
		SetProjection(bson.M{"_id": 1, "status": 1, "listing_type": 1, "created_at": 1, "expires_at": 1})

	cursor, err := s.db.Collection(quoteRequestsCollection).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing quote requests for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	summaries := []QuoteRequestSummary{}
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, fmt.Errorf("error decoding quote request list: %w", err)
	}
	return summaries, nil
}

// ProcessQuotes is the idempotent maintenance sweep. Two independent rules run
// each pass: collecting requests past expiry become expired, and collecting
// requests whose every response is terminal become completed. Requests already
// expired or completed are left untouched, so overlapping runs converge on the
// same end state.
func (s *quoteService) ProcessQuotes(ctx context.Context) (*SweepResult, error) {
	now := time.Now().UTC()
	result := &SweepResult{}
	requestsColl := s.db.Collection(quoteRequestsCollection)

	// Rule 1: expire stale collecting requests.
	expiredIDs, err := s.collectIDs(ctx, bson.M{
		"status":     models.QuoteStatusCollecting,
		"expires_at": bson.M{"$lt": now},
	})
	if err != nil {
		return nil, fmt.Errorf("error finding expirable requests: %w", err)
	}
	if len(expiredIDs) > 0 {
		if _, err := requestsColl.UpdateMany(ctx,
			bson.M{"_id": bson.M{"$in": expiredIDs}, "status": models.QuoteStatusCollecting},
			bson.M{"$set": bson.M{"status": models.QuoteStatusExpired}},
		); err != nil {
			return nil, fmt.Errorf("error expiring quote requests: %w", err)
		}
		result.Expired = len(expiredIDs)
		for _, id := range expiredIDs {
			s.publishClosed(ctx, events.KeyQuoteRequestExpired, id, models.QuoteStatusExpired)
		}
	}

	// Rule 2: complete fully-resolved collecting requests.
	completableIDs, err := s.collectIDs(ctx, bson.M{
		"status":     models.QuoteStatusCollecting,
		"expires_at": bson.M{"$gte": now},
	})
	if err != nil {
		return nil, fmt.Errorf("error finding completable requests: %w", err)
	}

	for _, id := range completableIDs {
		responses, err := s.ResponsesForRequest(ctx, id)
		if err != nil {
			log.Printf("QuoteService: sweep failed to load responses for %s: %v", id, err)
			continue
		}
		if len(responses) == 0 {
			continue
		}
		allResolved := true
		for _, r := range responses {
			if !r.Status.Terminal() {
				allResolved = false
				break
			}
		}
		if !allResolved {
			continue
		}
		if _, err := requestsColl.UpdateOne(ctx,
			bson.M{"_id": id, "status": models.QuoteStatusCollecting},
			bson.M{"$set": bson.M{"status": models.QuoteStatusCompleted}},
		); err != nil {
			log.Printf("QuoteService: sweep failed to complete request %s: %v", id, err)
			continue
		}
		result.Completed++
		result.CompletedIDs = append(result.CompletedIDs, id)
		s.publishClosed(ctx, events.KeyQuoteRequestCompleted, id, models.QuoteStatusCompleted)
	}

	return result, nil
}

func (s *quoteService) collectIDs(ctx context.Context, filter bson.M) ([]string, error) {
	cursor, err := s.db.Collection(quoteRequestsCollection).
		Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

func (s *quoteService) publishClosed(ctx context.Context, key, requestID string, status models.QuoteRequestStatus) {
	if err := s.publisher.Publish(ctx, key, events.NewEnvelope("quote-agent", events.QuoteRequestClosed{
		QuoteRequestID: requestID,
		Status:         string(status),
	})); err != nil {
		log.Printf("QuoteService: failed to publish %s for request %s: %v", key, requestID, err)
	}
}

// GetRequest loads one quote request by id regardless of owner. Used by
// background tasks, never exposed through the API.
func (s *quoteService) GetRequest(ctx context.Context, requestID string) (*models.QuoteRequest, error) {
	var request models.QuoteRequest
	err := s.db.Collection(quoteRequestsCollection).FindOne(ctx, bson.M{"_id": requestID}).Decode(&request)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding quote request %s: %w", requestID, err)
	}
	return &request, nil
}

// PendingResponses returns the responses of a request still awaiting dispatch.
func (s *quoteService) PendingResponses(ctx context.Context, requestID string) ([]models.QuoteResponse, error) {
	return s.findResponses(ctx, bson.M{
		"quote_request_id": requestID,
		"status":           models.ResponseStatusPending,
	})
}

// ResponsesForRequest returns every response row of a request.
func (s *quoteService) ResponsesForRequest(ctx context.Context, requestID string) ([]models.QuoteResponse, error) {
	return s.findResponses(ctx, bson.M{"quote_request_id": requestID})
}

func (s *quoteService) findResponses(ctx context.Context, filter bson.M) ([]models.QuoteResponse, error) {
	cursor, err := s.db.Collection(quoteResponsesCollection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error finding quote responses: %w", err)
	}
	defer cursor.Close(ctx)

	responses := []models.QuoteResponse{}
	if err := cursor.All(ctx, &responses); err != nil {
		return nil, fmt.Errorf("error decoding quote responses: %w", err)
	}
	return responses, nil
}

// MarkResponseSent flips a response from pending to sent after its inquiry
// email went out. A response no longer pending is left unchanged.
func (s *quoteService) MarkResponseSent(ctx context.Context, responseID string) error {
	_, err := s.db.Collection(quoteResponsesCollection).UpdateOne(ctx,
		bson.M{"_id": responseID, "status": models.ResponseStatusPending},
		bson.M{"$set": bson.M{"status": models.ResponseStatusSent}},
	)
	if err != nil {
		return fmt.Errorf("error marking response %s sent: %w", responseID, err)
	}
	return nil
}

// SetComparisonData stores the aggregated comparison payload on a request.
func (s *quoteService) SetComparisonData(ctx context.Context, requestID string, data map[string]interface{}) error {
	_, err := s.db.Collection(quoteRequestsCollection).UpdateOne(ctx,
		bson.M{"_id": requestID},
		bson.M{"$set": bson.M{"comparison_data": data}},
	)
	if err != nil {
		return fmt.Errorf("error setting comparison data on request %s: %w", requestID, err)
	}
	return nil
}
