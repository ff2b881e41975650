// Package bot implements the conversation state machine behind the WhatsApp
// assistant: a router that normalizes inbound text, resolves the per-chat
// session, applies global commands and dispatches to the flow owning the
// current state.
package bot

import (
	"context"

	"go.uber.org/zap"

	"github.com/capyvagas/capyvagas-api/internal/models"
)

// FlowHandler is the capability every conversation flow exposes. TryHandle
// inspects the session's current state; when the state belongs to another
// flow it returns (false, nil) without side effects.
//
// text is the trimmed, lower-cased message used for command matching; raw is
// the trimmed original, preserved for inputs where case matters (passwords).
type FlowHandler interface {
	TryHandle(ctx context.Context, session *models.UserSession, text, raw string) (bool, error)
}

// Messenger delivers outbound texts through the messaging gateway.
type Messenger interface {
	SendText(ctx context.Context, chatID, text string) error
}

// SessionStore is the slice of the session repository the flows mutate.
// Every method writes only the fields it names.
type SessionStore interface {
	GetOrCreate(ctx context.Context, chatID string) (*models.UserSession, bool, error)
	UpdateState(ctx context.Context, chatID string, state models.ConversationState, scratch models.FlowScratch) error
	SetSelectedCourse(ctx context.Context, chatID string, courseID *int64) error
	SetSelectedTerm(ctx context.Context, chatID string, termID *int64) error
	LinkCredentials(ctx context.Context, chatID, ra, encryptedPassword string) error
	ClearCredentials(ctx context.Context, chatID string) error
	Touch(ctx context.Context, chatID string) error
}

// CourseDirectory serves the two reference queries the job-search flow
// renders into menus, plus course lookup for prompt headers.
type CourseDirectory interface {
	ActiveCourses(ctx context.Context) ([]models.Course, error)
	DefaultTerms(ctx context.Context, courseID int64) ([]models.SearchTerm, error)
	Course(ctx context.Context, id int64) (*models.Course, error)
}

// Authenticator validates a credential pair against the student portal.
type Authenticator interface {
	Authenticate(ctx context.Context, ra, password string) (bool, error)
}

// JobSearcher queries the job provider.
type JobSearcher interface {
	Search(ctx context.Context, terms []string, limit int) ([]models.JobPosting, error)
}

// CredentialSealer encrypts a portal password before it reaches the session
// store.
type CredentialSealer interface {
	Encrypt(plaintext string) (string, error)
}

// AuditTrail records the message and search history. Implementations are
// best-effort: a failed write is logged, never propagated.
type AuditTrail interface {
	MessageReceived(chatID, text string)
	MessageSent(chatID, text string)
	SearchPerformed(chatID string, terms []string, results []models.JobPosting)
}

// Metrics counts conversation events. A nil implementation is allowed.
type Metrics interface {
	MessageReceived()
	MessageSent()
	AuthAttempt(success bool)
	JobSearch(resultCount int)
}

// Sender pairs every outbound delivery with its audit record, the one side
// effect shared by all flows.
type Sender struct {
	messenger Messenger
	audit     AuditTrail
	metrics   Metrics
	logger    *zap.Logger
}

// NewSender builds the shared outbound path.
func NewSender(messenger Messenger, audit AuditTrail, metrics Metrics, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{messenger: messenger, audit: audit, metrics: metrics, logger: logger}
}

// send delivers one reply. A transport failure is logged and swallowed; the
// session mutation that preceded it stands.
func (s *Sender) send(ctx context.Context, chatID, text string) {
	if err := s.messenger.SendText(ctx, chatID, text); err != nil {
		s.logger.Error("failed to send message",
			zap.String("chat_id", chatID),
			zap.Error(err),
		)
		return
	}
	if s.audit != nil {
		s.audit.MessageSent(chatID, text)
	}
	if s.metrics != nil {
		s.metrics.MessageSent()
	}
}
