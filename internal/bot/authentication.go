package bot

import (
	"context"

	"go.uber.org/zap"

	"github.com/capyvagas/capyvagas-api/internal/models"
)

// scratchRA is the flow-scratch key carrying the RA typed before the
// password step.
const scratchRA = "temp_ra"

// minRALength is a syntactic sanity check on the academic id, not format
// validation; the portal is the authority on what an RA looks like.
const minRALength = 5

// AuthenticationHandler owns the login flow (StateAwaitingRA,
// StateAwaitingPassword) and logout.
type AuthenticationHandler struct {
	sessions SessionStore
	portal   Authenticator
	sealer   CredentialSealer
	catalog  *Catalog
	sender   *Sender
	metrics  Metrics
	logger   *zap.Logger
}

// NewAuthenticationHandler builds the authentication flow handler.
func NewAuthenticationHandler(sessions SessionStore, portal Authenticator, sealer CredentialSealer, catalog *Catalog, sender *Sender, metrics Metrics, logger *zap.Logger) *AuthenticationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthenticationHandler{
		sessions: sessions,
		portal:   portal,
		sealer:   sealer,
		catalog:  catalog,
		sender:   sender,
		metrics:  metrics,
		logger:   logger,
	}
}

// TryHandle consumes messages while the login flow owns the state.
func (h *AuthenticationHandler) TryHandle(ctx context.Context, session *models.UserSession, text, raw string) (bool, error) {
	switch session.State {
	case models.StateAwaitingRA:
		return true, h.handleRA(ctx, session, text)
	case models.StateAwaitingPassword:
		return true, h.handlePassword(ctx, session, raw)
	default:
		return false, nil
	}
}

// StartLogin enters the login flow. Already-authenticated sessions get an
// informational reply and no state change.
func (h *AuthenticationHandler) StartLogin(ctx context.Context, session *models.UserSession) error {
	if session.Authenticated {
		h.sender.send(ctx, session.ChatID, "✅ Você já está cadastrado! Selecione a opção 3 para buscar vagas.")
		return nil
	}

	if err := h.sessions.UpdateState(ctx, session.ChatID, models.StateAwaitingRA, models.FlowScratch{}); err != nil {
		return err
	}
	session.State = models.StateAwaitingRA
	session.Scratch = models.FlowScratch{}

	h.sender.send(ctx, session.ChatID, h.catalog.Text(ctx, msgLoginPromptRA))
	return nil
}

func (h *AuthenticationHandler) handleRA(ctx context.Context, session *models.UserSession, text string) error {
	if len([]rune(text)) < minRALength {
		h.sender.send(ctx, session.ChatID, "❌ RA muito curto. Tente novamente ou digite 'cancelar'.")
		return nil
	}

	scratch := models.FlowScratch{scratchRA: text}
	if err := h.sessions.UpdateState(ctx, session.ChatID, models.StateAwaitingPassword, scratch); err != nil {
		return err
	}
	session.State = models.StateAwaitingPassword
	session.Scratch = scratch

	h.sender.send(ctx, session.ChatID, h.catalog.Text(ctx, msgLoginPromptPassword))
	return nil
}

func (h *AuthenticationHandler) handlePassword(ctx context.Context, session *models.UserSession, password string) error {
	ra, ok := session.Scratch[scratchRA]
	if !ok || ra == "" {
		// State says password step but the RA never made it into scratch.
		// Reset rather than leaving the user stranded mid-flow.
		h.sender.send(ctx, session.ChatID, "❌ Erro de fluxo. Por favor, comece novamente.")
		return h.resetState(ctx, session)
	}

	h.sender.send(ctx, session.ChatID, "🔄 Validando credenciais...")

	ok, err := h.portal.Authenticate(ctx, ra, password)
	if err != nil {
		// Portal unreachable counts as a failed attempt, not a crash; the
		// user keeps the retry prompt and the session stays consistent.
		h.logger.Error("portal authentication error", zap.String("chat_id", session.ChatID), zap.Error(err))
		ok = false
	}

	if !ok {
		if h.metrics != nil {
			h.metrics.AuthAttempt(false)
		}
		h.logger.Warn("authentication failed", zap.String("chat_id", session.ChatID), zap.String("ra", ra))
		h.sender.send(ctx, session.ChatID, h.catalog.Text(ctx, msgLoginError))
		return nil
	}

	sealed, err := h.sealer.Encrypt(password)
	if err != nil {
		h.logger.Error("credential encryption failed", zap.String("chat_id", session.ChatID), zap.Error(err))
		h.sender.send(ctx, session.ChatID, "❌ Erro de fluxo. Por favor, comece novamente.")
		return h.resetState(ctx, session)
	}

	if err := h.sessions.LinkCredentials(ctx, session.ChatID, ra, sealed); err != nil {
		return err
	}
	session.RA = &ra
	session.Authenticated = true

	if err := h.resetState(ctx, session); err != nil {
		return err
	}

	if h.metrics != nil {
		h.metrics.AuthAttempt(true)
	}
	h.logger.Info("user authenticated", zap.String("chat_id", session.ChatID), zap.String("ra", ra))
	h.sender.send(ctx, session.ChatID, h.catalog.Text(ctx, msgLoginSuccess))
	return nil
}

// Logout reverts the session to the unauthenticated state and clears course
// and term selections. Logging out an already-logged-out session sends the
// same confirmation.
func (h *AuthenticationHandler) Logout(ctx context.Context, session *models.UserSession) error {
	if err := h.sessions.ClearCredentials(ctx, session.ChatID); err != nil {
		return err
	}
	session.Authenticated = false
	session.SelectedCourseID = nil
	session.SelectedTermID = nil
	session.State = models.StateNone
	session.Scratch = models.FlowScratch{}

	h.logger.Info("user logged out", zap.String("chat_id", session.ChatID))
	h.sender.send(ctx, session.ChatID, "🔒 Você saiu do sistema. Até logo!")
	return nil
}

func (h *AuthenticationHandler) resetState(ctx context.Context, session *models.UserSession) error {
	if err := h.sessions.UpdateState(ctx, session.ChatID, models.StateNone, models.FlowScratch{}); err != nil {
		return err
	}
	session.State = models.StateNone
	session.Scratch = models.FlowScratch{}
	return nil
}
