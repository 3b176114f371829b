package handlers_test

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"

	"github.com/akkash/bizsearch-backend/internal/models"
	"github.com/akkash/bizsearch-backend/internal/services"
)

// --- Mocks ---

// MockQuoteService
type MockQuoteService struct {
	mock.Mock
}

func (m *MockQuoteService) CreateQuoteRequest(ctx context.Context, userID string, listingIDs []string, listingType models.ListingType, requirements models.QuoteRequirements) (*models.QuoteRequest, int, error) {
	args := m.Called(ctx, userID, listingIDs, listingType, requirements)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).(*models.QuoteRequest), args.Int(1), args.Error(2)
}

func (m *MockQuoteService) GetQuoteStatus(ctx context.Context, userID, requestID string) (*services.QuoteStatusView, error) {
	args := m.Called(ctx, userID, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.QuoteStatusView), args.Error(1)
}

func (m *MockQuoteService) ListQuoteRequests(ctx context.Context, userID string) ([]services.QuoteRequestSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.QuoteRequestSummary), args.Error(1)
}

func (m *MockQuoteService) ProcessQuotes(ctx context.Context) (*services.SweepResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SweepResult), args.Error(1)
}

func (m *MockQuoteService) GetRequest(ctx context.Context, requestID string) (*models.QuoteRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuoteRequest), args.Error(1)
}

func (m *MockQuoteService) PendingResponses(ctx context.Context, requestID string) ([]models.QuoteResponse, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.QuoteResponse), args.Error(1)
}

func (m *MockQuoteService) ResponsesForRequest(ctx context.Context, requestID string) ([]models.QuoteResponse, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.QuoteResponse), args.Error(1)
}

func (m *MockQuoteService) MarkResponseSent(ctx context.Context, responseID string) error {
	args := m.Called(ctx, responseID)
	return args.Error(0)
}

func (m *MockQuoteService) SetComparisonData(ctx context.Context, requestID string, data map[string]interface{}) error {
	args := m.Called(ctx, requestID, data)
	return args.Error(0)
}

// MockLeadService
type MockLeadService struct {
	mock.Mock
}

func (m *MockLeadService) ProcessInquiry(ctx context.Context, inquiryID string) (*services.ProcessedLead, error) {
	args := m.Called(ctx, inquiryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ProcessedLead), args.Error(1)
}

func (m *MockLeadService) GetSellerLeads(ctx context.Context, sellerID string) (*services.LeadQueueView, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.LeadQueueView), args.Error(1)
}

func (m *MockLeadService) UpdateLeadStatus(ctx context.Context, leadID string, status models.LeadStatus) (*models.Lead, error) {
	args := m.Called(ctx, leadID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lead), args.Error(1)
}

func (m *MockLeadService) ProcessAllPending(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockListingService
type MockListingService struct {
	mock.Mock
}

func (m *MockListingService) ListBusinesses(ctx context.Context, q services.ListingQuery) ([]models.Business, int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.Business), args.Get(1).(int64), args.Error(2)
}

func (m *MockListingService) GetBusiness(ctx context.Context, idOrSlug string) (*models.Business, error) {
	args := m.Called(ctx, idOrSlug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Business), args.Error(1)
}

func (m *MockListingService) ListFranchises(ctx context.Context, q services.ListingQuery) ([]models.Franchise, int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.Franchise), args.Get(1).(int64), args.Error(2)
}

func (m *MockListingService) GetFranchise(ctx context.Context, idOrSlug string) (*models.Franchise, error) {
	args := m.Called(ctx, idOrSlug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Franchise), args.Error(1)
}

func (m *MockListingService) SearchAll(ctx context.Context, term string, limit int) (*services.SearchResult, error) {
	args := m.Called(ctx, term, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SearchResult), args.Error(1)
}

func (m *MockListingService) GetListingRefs(ctx context.Context, listingType models.ListingType, ids []string) ([]models.ListingRef, error) {
	args := m.Called(ctx, listingType, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ListingRef), args.Error(1)
}

// MockProfileService
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) GetProfile(ctx context.Context, profileID string) (*models.Profile, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileService) Completeness(profile *models.Profile) services.CompletenessResult {
	args := m.Called(profile)
	return args.Get(0).(services.CompletenessResult)
}

// MockAsynqClient
type MockAsynqClient struct {
	mock.Mock
}

func (m *MockAsynqClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}

func (m *MockAsynqClient) Close() error {
	args := m.Called()
	return args.Error(0)
}
