package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capyvagas/capyvagas-api/internal/models"
	"github.com/capyvagas/capyvagas-api/pkg/worker"
)

const (
	taskInteraction = "interaction"
	taskJobSearch   = "job_search"
)

type interactionWriter interface {
	Create(ctx context.Context, log *models.InteractionLog) error
}

type jobSearchWriter interface {
	Create(ctx context.Context, log *models.JobSearchLog) error
}

// AuditService records conversation history asynchronously. Writes go
// through an in-memory queue so a slow Postgres never delays a reply; a
// dropped record costs one history row, not a user-facing failure.
type AuditService struct {
	interactions interactionWriter
	searches     jobSearchWriter
	queue        *worker.Queue
	sessionName  string
	logger       *zap.Logger
}

// NewAuditService constructs the audit service and its backing queue. Call
// Start before use and Stop on shutdown.
func NewAuditService(interactions interactionWriter, searches jobSearchWriter, sessionName string, cfg worker.QueueConfig, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuditService{
		interactions: interactions,
		searches:     searches,
		sessionName:  sessionName,
		logger:       logger,
	}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	s.queue = worker.NewQueue("audit", s.handle, cfg)
	return s
}

// Start launches the queue workers.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// MessageReceived records an inbound message.
func (s *AuditService) MessageReceived(chatID, text string) {
	s.enqueueInteraction(chatID, text, models.DirectionReceived)
}

// MessageSent records a delivered outbound message.
func (s *AuditService) MessageSent(chatID, text string) {
	s.enqueueInteraction(chatID, text, models.DirectionSent)
}

// SearchPerformed records one job search with a preview of its results.
func (s *AuditService) SearchPerformed(chatID string, terms []string, results []models.JobPosting) {
	preview := results
	if len(preview) > 5 {
		preview = preview[:5]
	}
	log := &models.JobSearchLog{
		ID:             uuid.NewString(),
		ChatID:         chatID,
		SearchTerm:     strings.Join(terms, ", "),
		ResultsCount:   len(results),
		ResultsPreview: preview,
		CreatedAt:      time.Now().UTC(),
	}
	s.enqueue(worker.Task{ID: log.ID, Type: taskJobSearch, Payload: log})
}

func (s *AuditService) enqueueInteraction(chatID, text string, direction models.MessageDirection) {
	log := &models.InteractionLog{
		ID:          uuid.NewString(),
		ChatID:      chatID,
		Message:     text,
		Direction:   direction,
		SessionName: s.sessionName,
		CreatedAt:   time.Now().UTC(),
	}
	s.enqueue(worker.Task{ID: log.ID, Type: taskInteraction, Payload: log})
}

func (s *AuditService) enqueue(task worker.Task) {
	if err := s.queue.Enqueue(task); err != nil {
		s.logger.Warn("audit record dropped", zap.String("type", task.Type), zap.Error(err))
	}
}

func (s *AuditService) handle(ctx context.Context, task worker.Task) error {
	switch task.Type {
	case taskInteraction:
		log, ok := task.Payload.(*models.InteractionLog)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s task", task.Payload, task.Type)
		}
		return s.interactions.Create(ctx, log)
	case taskJobSearch:
		log, ok := task.Payload.(*models.JobSearchLog)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s task", task.Payload, task.Type)
		}
		return s.searches.Create(ctx, log)
	default:
		return fmt.Errorf("unknown audit task type %q", task.Type)
	}
}
