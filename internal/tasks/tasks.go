package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/akkash/bizsearch-backend/internal/config"
	"github.com/akkash/bizsearch-backend/internal/email"
	"github.com/akkash/bizsearch-backend/internal/models"
	"github.com/akkash/bizsearch-backend/internal/services"
	"github.com/akkash/bizsearch-backend/internal/storage"
)

// TaskType defines the type of a background task.
const (
	TypeQuoteDispatch  = "quote:dispatch"
	TypeQuoteSweep     = "quote:sweep"
	TypeQuoteReport    = "quote:report"
	TypeLeadProcessAll = "lead:process_all"
	TypeEmailDelivery  = "email:deliver"
)

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// QuoteTaskPayload identifies the quote request a task operates on.
type QuoteTaskPayload struct {
	QuoteRequestID string `json:"quote_request_id"`
}

// EmailTaskPayload is a fully-rendered outbound email.
type EmailTaskPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewQuoteDispatchTask enqueues outbound inquiry delivery for a fresh request.
// Dispatch runs on the critical queue so sellers hear about buyers quickly.
func NewQuoteDispatchTask(quoteRequestID string) (*asynq.Task, error) {
	payload, err := json.Marshal(QuoteTaskPayload{QuoteRequestID: quoteRequestID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeQuoteDispatch, payload, asynq.Queue("critical"), asynq.MaxRetry(5)), nil
}

// NewQuoteReportTask enqueues comparison report generation for a request that
// left the collecting state.
func NewQuoteReportTask(quoteRequestID string) (*asynq.Task, error) {
	payload, err := json.Marshal(QuoteTaskPayload{QuoteRequestID: quoteRequestID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeQuoteReport, payload, asynq.Queue("low"), asynq.MaxRetry(3)), nil
}

// NewEmailDeliveryTask enqueues one rendered email.
func NewEmailDeliveryTask(to, subject, body string) (*asynq.Task, error) {
	payload, err := json.Marshal(EmailTaskPayload{To: to, Subject: subject, Body: body})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEmailDelivery, payload, asynq.Queue("default"), asynq.MaxRetry(5)), nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	cfg            *config.Config
	emailSender    email.Sender
	quoteService   services.IQuoteService
	leadService    services.ILeadService
	profileService services.IProfileService
	reportArchive  storage.IReportArchive
	taskClient     *asynq.Client
}

func NewTaskProcessor(
	cfg *config.Config,
	emailSender email.Sender,
	quoteService services.IQuoteService,
	leadService services.ILeadService,
	profileService services.IProfileService,
	reportArchive storage.IReportArchive,
	taskClient *asynq.Client,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:            cfg,
		emailSender:    emailSender,
		quoteService:   quoteService,
		leadService:    leadService,
		profileService: profileService,
		reportArchive:  reportArchive,
		taskClient:     taskClient,
	}
}

// SetupServer configures and starts an Asynq server instance. The server
// runs in its own goroutines; callers stop it with Shutdown.
func SetupServer(rdb *redis.Client, processor *TaskProcessor) *asynq.Server {
	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeQuoteDispatch, processor.HandleQuoteDispatchTask)
	mux.HandleFunc(TypeQuoteSweep, processor.HandleQuoteSweepTask)
	mux.HandleFunc(TypeQuoteReport, processor.HandleQuoteReportTask)
	mux.HandleFunc(TypeLeadProcessAll, processor.HandleLeadProcessAllTask)
	mux.HandleFunc(TypeEmailDelivery, processor.HandleEmailDeliveryTask)
	log.Println("Registered background task handlers.")

	if err := srv.Start(mux); err != nil {
		log.Fatalf("Could not start Asynq server: %v", err)
	}

	return srv
}

// SetupScheduler registers the recurring maintenance tasks and starts the
// scheduler. The sweep and the lead batch are idempotent, so overlapping runs
// across restarts are harmless.
func SetupScheduler(rdb *redis.Client) *asynq.Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{
			Addr:     rdb.Options().Addr,
			Password: rdb.Options().Password,
			DB:       rdb.Options().DB,
		},
		&asynq.SchedulerOpts{Location: time.UTC},
	)

	if _, err := scheduler.Register("@every 10m", asynq.NewTask(TypeQuoteSweep, nil, asynq.Queue("default"))); err != nil {
		log.Fatalf("Could not register quote sweep schedule: %v", err)
	}
	if _, err := scheduler.Register("@every 5m", asynq.NewTask(TypeLeadProcessAll, nil, asynq.Queue("default"))); err != nil {
		log.Fatalf("Could not register lead processing schedule: %v", err)
	}

	if err := scheduler.Start(); err != nil {
		log.Fatalf("Could not start Asynq scheduler: %v", err)
	}
	return scheduler
}

// --- Task Handlers ---

// HandleQuoteDispatchTask emails every pending inquiry of a quote request to
// its listing owner, then marks the response sent. Responses whose owner has
// no usable email stay pending until the sweep expires the request.
func (p *TaskProcessor) HandleQuoteDispatchTask(ctx context.Context, t *asynq.Task) error {
	var payload QuoteTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal quote dispatch payload: %v: %w", err, asynq.SkipRetry)
	}

	request, err := p.quoteService.GetRequest(ctx, payload.QuoteRequestID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			log.Printf("Quote request %s no longer exists, dropping dispatch task.", payload.QuoteRequestID)
			return fmt.Errorf("quote request not found: %w", asynq.SkipRetry)
		}
		return err
	}
	if request.Status != models.QuoteStatusCollecting {
		log.Printf("Quote request %s is %s, nothing to dispatch.", request.ID, request.Status)
		return nil
	}

	pending, err := p.quoteService.PendingResponses(ctx, request.ID)
	if err != nil {
		return err
	}

	dispatched := 0
	for _, response := range pending {
		if response.ResponderID == "" {
			log.Printf("Response %s has no responder, skipping.", response.ID)
			continue
		}
		owner, err := p.profileService.GetProfile(ctx, response.ResponderID)
		if err != nil {
			log.Printf("Failed to load owner profile %s for response %s: %v", response.ResponderID, response.ID, err)
			continue
		}
		if owner.Email == "" {
			log.Printf("Owner %s has no email, response %s stays pending.", response.ResponderID, response.ID)
			continue
		}

		subject := fmt.Sprintf("Quote Inquiry via %s", p.cfg.AppName)
		raw := email.BuildRawMessage(p.cfg.SmtpFromAddress, []string{owner.Email}, subject, response.InitialMessage)
		if err := p.emailSender.Send(ctx, []string{owner.Email}, subject, raw); err != nil {
			log.Printf("Failed to email response %s to %s: %v", response.ID, owner.Email, err)
			continue
		}

		if err := p.quoteService.MarkResponseSent(ctx, response.ID); err != nil {
			log.Printf("Failed to mark response %s sent: %v", response.ID, err)
			continue
		}
		dispatched++
	}

	log.Printf("Quote dispatch for %s finished: %d of %d pending inquiries sent.", request.ID, dispatched, len(pending))
	if dispatched < len(pending) {
		// Retry so transient delivery failures drain; already-sent responses
		// are no longer pending on the next attempt.
		return fmt.Errorf("%d inquiries still pending for request %s", len(pending)-dispatched, request.ID)
	}
	return nil
}

// HandleQuoteSweepTask runs the expiry/completion sweep and enqueues report
// generation for every request the sweep completed.
func (p *TaskProcessor) HandleQuoteSweepTask(ctx context.Context, t *asynq.Task) error {
	result, err := p.quoteService.ProcessQuotes(ctx)
	if err != nil {
		return err
	}
	log.Printf("Quote sweep finished: %d expired, %d completed.", result.Expired, result.Completed)

	for _, requestID := range result.CompletedIDs {
		task, err := NewQuoteReportTask(requestID)
		if err != nil {
			log.Printf("Failed to build report task for request %s: %v", requestID, err)
			continue
		}
		if _, err := p.taskClient.EnqueueContext(ctx, task); err != nil {
			log.Printf("Failed to enqueue report task for request %s: %v", requestID, err)
		}
	}
	return nil
}

// comparisonReport is the archived JSON shape of a finished quote request.
type comparisonReport struct {
	QuoteRequestID string                   `json:"quote_request_id"`
	Status         string                   `json:"status"`
	GeneratedAt    time.Time                `json:"generated_at"`
	Responses      []comparisonReportRow    `json:"responses"`
	Summary        map[string]int           `json:"summary"`
	Requirements   models.QuoteRequirements `json:"requirements"`
}

type comparisonReportRow struct {
	ListingID    string                 `json:"listing_id"`
	Status       string                 `json:"status"`
	Message      string                 `json:"message,omitempty"`
	ResponseData map[string]interface{} `json:"response_data,omitempty"`
	RespondedAt  *time.Time             `json:"responded_at,omitempty"`
}

// HandleQuoteReportTask builds the side-by-side comparison for a finished
// request, archives it and stores the summary back on the request document.
func (p *TaskProcessor) HandleQuoteReportTask(ctx context.Context, t *asynq.Task) error {
	var payload QuoteTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal quote report payload: %v: %w", err, asynq.SkipRetry)
	}

	request, err := p.quoteService.GetRequest(ctx, payload.QuoteRequestID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("quote request not found: %w", asynq.SkipRetry)
		}
		return err
	}
	if request.Status == models.QuoteStatusCollecting {
		log.Printf("Quote request %s is still collecting, skipping report.", request.ID)
		return nil
	}

	responses, err := p.quoteService.ResponsesForRequest(ctx, request.ID)
	if err != nil {
		return err
	}

	report := comparisonReport{
		QuoteRequestID: request.ID,
		Status:         string(request.Status),
		GeneratedAt:    time.Now().UTC(),
		Responses:      make([]comparisonReportRow, 0, len(responses)),
		Summary:        map[string]int{},
		Requirements:   request.Requirements,
	}
	for _, r := range responses {
		report.Summary[string(r.Status)]++
		report.Responses = append(report.Responses, comparisonReportRow{
			ListingID:    r.ListingID,
			Status:       string(r.Status),
			Message:      r.ResponseMessage,
			ResponseData: r.ResponseData,
			RespondedAt:  r.RespondedAt,
		})
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal comparison report for %s: %v: %w", request.ID, err, asynq.SkipRetry)
	}

	objectKey, err := p.reportArchive.PutComparisonReport(ctx, request.ID, reportJSON)
	if err != nil {
		return fmt.Errorf("failed to archive comparison report for %s: %w", request.ID, err)
	}

	comparison := map[string]interface{}{
		"report_key":   objectKey,
		"generated_at": report.GeneratedAt,
		"summary":      report.Summary,
	}
	if err := p.quoteService.SetComparisonData(ctx, request.ID, comparison); err != nil {
		return err
	}

	log.Printf("Comparison report for request %s archived at %s.", request.ID, objectKey)
	return nil
}

// HandleLeadProcessAllTask qualifies every inquiry that has no lead yet.
func (p *TaskProcessor) HandleLeadProcessAllTask(ctx context.Context, t *asynq.Task) error {
	processed, err := p.leadService.ProcessAllPending(ctx)
	if err != nil {
		return err
	}
	log.Printf("Lead batch finished: %d inquiries processed.", processed)
	return nil
}

// HandleEmailDeliveryTask sends one pre-rendered email.
func (p *TaskProcessor) HandleEmailDeliveryTask(ctx context.Context, t *asynq.Task) error {
	var payload EmailTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal email task payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.To == "" {
		return fmt.Errorf("email task has no recipient: %w", asynq.SkipRetry)
	}

	raw := email.BuildRawMessage(p.cfg.SmtpFromAddress, []string{payload.To}, payload.Subject, payload.Body)
	if err := p.emailSender.Send(ctx, []string{payload.To}, payload.Subject, raw); err != nil {
		log.Printf("Email sending failed for %s: %v", payload.To, err)
		return err
	}
	return nil
}
