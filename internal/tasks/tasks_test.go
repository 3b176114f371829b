package tasks_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/akkash/bizsearch-backend/internal/config"
	"github.com/akkash/bizsearch-backend/internal/models"
	"github.com/akkash/bizsearch-backend/internal/services"
	"github.com/akkash/bizsearch-backend/internal/tasks"
)

// --- Mocks ---

// MockEmailSender
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	args := m.Called(ctx, to, subject, rawMessage)
	return args.Error(0)
}

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

// MockReportArchive
type MockReportArchive struct {
	mock.Mock
}

func (m *MockReportArchive) PutComparisonReport(ctx context.Context, quoteRequestID string, report []byte) (string, error) {
	args := m.Called(ctx, quoteRequestID, report)
	return args.String(0), args.Error(1)
}

func (m *MockReportArchive) GeneratePresignedGetURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		AppName:         "BizSearch",
		SmtpFromAddress: "concierge@bizsearch.in",
	}
}

// --- Tests ---

func TestHandleQuoteDispatchTask_SendsAndMarks(t *testing.T) {
	mockEmail := new(MockEmailSender)
	mockQuote := new(MockQuoteService)
	mockProfile := new(MockProfileService)
	p := tasks.NewTaskProcessor(testConfig(), mockEmail, mockQuote, nil, mockProfile, nil, nil)

	request := &models.QuoteRequest{ID: "req-1", Status: models.QuoteStatusCollecting}
	mockQuote.On("GetRequest", mock.Anything, "req-1").Return(request, nil)
	mockQuote.On("PendingResponses", mock.Anything, "req-1").Return([]models.QuoteResponse{
		{ID: "resp-1", ResponderID: "seller-1", InitialMessage: "Dear Team, ..."},
		{ID: "resp-2", ResponderID: "seller-2", InitialMessage: "Dear Team, ..."},
	}, nil)
	mockProfile.On("GetProfile", mock.Anything, "seller-1").
		Return(&models.Profile{ID: "seller-1", Email: "one@example.com"}, nil)
	mockProfile.On("GetProfile", mock.Anything, "seller-2").
		Return(&models.Profile{ID: "seller-2", Email: "two@example.com"}, nil)
	mockEmail.On("Send", mock.Anything, []string{"one@example.com"}, mock.Anything, mock.Anything).Return(nil)
	mockEmail.On("Send", mock.Anything, []string{"two@example.com"}, mock.Anything, mock.Anything).Return(nil)
	mockQuote.On("MarkResponseSent", mock.Anything, "resp-1").Return(nil)
	mockQuote.On("MarkResponseSent", mock.Anything, "resp-2").Return(nil)

	payload, _ := json.Marshal(tasks.QuoteTaskPayload{QuoteRequestID: "req-1"})
	err := p.HandleQuoteDispatchTask(context.Background(), asynq.NewTask(tasks.TypeQuoteDispatch, payload))

	assert.NoError(t, err)
	mockQuote.AssertExpectations(t)
	mockEmail.AssertExpectations(t)
}

func TestHandleQuoteDispatchTask_RetriesWhenDeliveryFails(t *testing.T) {
	mockEmail := new(MockEmailSender)
	mockQuote := new(MockQuoteService)
	mockProfile := new(MockProfileService)
	p := tasks.NewTaskProcessor(testConfig(), mockEmail, mockQuote, nil, mockProfile, nil, nil)

	request := &models.QuoteRequest{ID: "req-1", Status: models.QuoteStatusCollecting}
	mockQuote.On("GetRequest", mock.Anything, "req-1").Return(request, nil)
	mockQuote.On("PendingResponses", mock.Anything, "req-1").Return([]models.QuoteResponse{
		{ID: "resp-1", ResponderID: "seller-1", InitialMessage: "hello"},
	}, nil)
	mockProfile.On("GetProfile", mock.Anything, "seller-1").
		Return(&models.Profile{ID: "seller-1", Email: "one@example.com"}, nil)
	mockEmail.On("Send", mock.Anything, []string{"one@example.com"}, mock.Anything, mock.Anything).
		Return(errors.New("smtp down"))

	payload, _ := json.Marshal(tasks.QuoteTaskPayload{QuoteRequestID: "req-1"})
	err := p.HandleQuoteDispatchTask(context.Background(), asynq.NewTask(tasks.TypeQuoteDispatch, payload))

	assert.Error(t, err)
	mockQuote.AssertNotCalled(t, "MarkResponseSent", mock.Anything, mock.Anything)
}

func TestHandleQuoteDispatchTask_SkipsClosedRequest(t *testing.T) {
	mockQuote := new(MockQuoteService)
	p := tasks.NewTaskProcessor(testConfig(), new(MockEmailSender), mockQuote, nil, new(MockProfileService), nil, nil)

	mockQuote.On("GetRequest", mock.Anything, "req-1").
		Return(&models.QuoteRequest{ID: "req-1", Status: models.QuoteStatusExpired}, nil)

	payload, _ := json.Marshal(tasks.QuoteTaskPayload{QuoteRequestID: "req-1"})
	err := p.HandleQuoteDispatchTask(context.Background(), asynq.NewTask(tasks.TypeQuoteDispatch, payload))

	assert.NoError(t, err)
	mockQuote.AssertNotCalled(t, "PendingResponses", mock.Anything, mock.Anything)
}

func TestHandleQuoteReportTask_ArchivesAndStoresSummary(t *testing.T) {
	mockQuote := new(MockQuoteService)
	mockArchive := new(MockReportArchive)
	p := tasks.NewTaskProcessor(testConfig(), new(MockEmailSender), mockQuote, nil, nil, mockArchive, nil)

	request := &models.QuoteRequest{ID: "req-1", Status: models.QuoteStatusCompleted}
	mockQuote.On("GetRequest", mock.Anything, "req-1").Return(request, nil)
	mockQuote.On("ResponsesForRequest", mock.Anything, "req-1").Return([]models.QuoteResponse{
		{ID: "resp-1", ListingID: "l1", Status: models.ResponseStatusResponded, ResponseMessage: "Here is our offer"},
		{ID: "resp-2", ListingID: "l2", Status: models.ResponseStatusDeclined},
	}, nil)
	mockArchive.On("PutComparisonReport", mock.Anything, "req-1", mock.MatchedBy(func(report []byte) bool {
		var decoded map[string]interface{}
		if err := json.Unmarshal(report, &decoded); err != nil {
			return false
		}
		return decoded["quote_request_id"] == "req-1"
	})).Return("reports/quotes/req-1/x.json", nil)
	mockQuote.On("SetComparisonData", mock.Anything, "req-1", mock.MatchedBy(func(data map[string]interface{}) bool {
		return data["report_key"] == "reports/quotes/req-1/x.json"
	})).Return(nil)

	payload, _ := json.Marshal(tasks.QuoteTaskPayload{QuoteRequestID: "req-1"})
	err := p.HandleQuoteReportTask(context.Background(), asynq.NewTask(tasks.TypeQuoteReport, payload))

	assert.NoError(t, err)
	mockArchive.AssertExpectations(t)
	mockQuote.AssertExpectations(t)
}

func TestHandleLeadProcessAllTask(t *testing.T) {
	mockLead := new(MockLeadService)
	p := tasks.NewTaskProcessor(testConfig(), new(MockEmailSender), nil, mockLead, nil, nil, nil)

	mockLead.On("ProcessAllPending", mock.Anything).Return(4, nil)

	err := p.HandleLeadProcessAllTask(context.Background(), asynq.NewTask(tasks.TypeLeadProcessAll, nil))
	assert.NoError(t, err)
	mockLead.AssertExpectations(t)
}

func TestHandleEmailDeliveryTask_Success(t *testing.T) {
	mockEmail := new(MockEmailSender)
	p := tasks.NewTaskProcessor(testConfig(), mockEmail, nil, nil, nil, nil, nil)

	mockEmail.On("Send", mock.Anything, []string{"buyer@example.com"}, "Hello", mock.Anything).Return(nil)

	payload, _ := json.Marshal(tasks.EmailTaskPayload{To: "buyer@example.com", Subject: "Hello", Body: "Hi"})
	err := p.HandleEmailDeliveryTask(context.Background(), asynq.NewTask(tasks.TypeEmailDelivery, payload))

	assert.NoError(t, err)
	mockEmail.AssertExpectations(t)
}

func TestHandleEmailDeliveryTask_BadPayloadNotRetried(t *testing.T) {
	p := tasks.NewTaskProcessor(testConfig(), new(MockEmailSender), nil, nil, nil, nil, nil)

	err := p.HandleEmailDeliveryTask(context.Background(), asynq.NewTask(tasks.TypeEmailDelivery, []byte("not json")))

	assert.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
