package bot

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/capyvagas/capyvagas-api/internal/models"
)

// menuCommands and cancelCommands are matched against the normalized text
// in any state; they always win over the active flow.
var (
	menuCommands = map[string]struct{}{
		"menu":    {},
		"inicio":  {},
		"início":  {},
		"start":   {},
		"começar": {},
	}
	cancelCommands = map[string]struct{}{
		"cancelar": {},
		"voltar":   {},
		"sair":     {},
	}
)

// Router is the conversation entry point. Each inbound message is processed
// under a per-chat lock, so two messages from the same chat never interleave
// their session reads and writes.
type Router struct {
	sessions SessionStore
	menu     *MenuHandler
	auth     *AuthenticationHandler
	search   *JobSearchHandler
	flows    map[models.ConversationState]FlowHandler
	audit    AuditTrail
	metrics  Metrics
	locks    *chatLocker
	logger   *zap.Logger
}

// NewRouter wires the flows into the state dispatch table.
func NewRouter(sessions SessionStore, menu *MenuHandler, auth *AuthenticationHandler, search *JobSearchHandler, audit AuditTrail, metrics Metrics, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		sessions: sessions,
		menu:     menu,
		auth:     auth,
		search:   search,
		flows: map[models.ConversationState]FlowHandler{
			models.StateAwaitingRA:       auth,
			models.StateAwaitingPassword: auth,
			models.StateAwaitingCourse:   search,
			models.StateAwaitingTerm:     search,
		},
		audit:   audit,
		metrics: metrics,
		locks:   newChatLocker(),
		logger:  logger,
	}
}

// ProcessMessage handles one inbound message end to end. Messages sent by
// the bot's own account and blank messages are dropped silently.
func (r *Router) ProcessMessage(ctx context.Context, chatID, body string, fromMe bool) error {
	if fromMe {
		return nil
	}
	raw := strings.TrimSpace(body)
	if raw == "" {
		return nil
	}
	text := strings.ToLower(raw)

	unlock := r.locks.Lock(chatID)
	defer unlock()

	session, created, err := r.sessions.GetOrCreate(ctx, chatID)
	if err != nil {
		return err
	}

	if r.audit != nil {
		r.audit.MessageReceived(chatID, raw)
	}
	if r.metrics != nil {
		r.metrics.MessageReceived()
	}
	if err := r.sessions.Touch(ctx, chatID); err != nil {
		r.logger.Warn("failed to touch session", zap.String("chat_id", chatID), zap.Error(err))
	}

	if created {
		r.logger.Info("new session", zap.String("chat_id", chatID))
	}

	if _, ok := menuCommands[text]; ok {
		if err := r.resetState(ctx, session); err != nil {
			return err
		}
		r.menu.SendMenu(ctx, session)
		return nil
	}

	if _, ok := cancelCommands[text]; ok {
		// "sair" from an authenticated user always means logout, even
		// mid-flow; the other cancel words only abort the flow.
		if text == "sair" && session.Authenticated {
			return r.auth.Logout(ctx, session)
		}
		if err := r.resetState(ctx, session); err != nil {
			return err
		}
		r.sendCancelled(ctx, session)
		return nil
	}

	if flow, ok := r.flows[session.State]; ok {
		handled, err := flow.TryHandle(ctx, session, text, raw)
		if err != nil {
			return err
		}
		if handled {
			return nil
		}
	}

	return r.handleMenuCommand(ctx, session, text, created)
}

// handleMenuCommand interprets input arriving outside any flow.
func (r *Router) handleMenuCommand(ctx context.Context, session *models.UserSession, text string, firstContact bool) error {
	switch text {
	case "1", "cadastrar", "login", "entrar":
		return r.auth.StartLogin(ctx, session)
	case "2", "logout", "deslogar":
		return r.auth.Logout(ctx, session)
	case "3", "vagas", "buscar", "cursos":
		return r.search.StartCourseSelection(ctx, session)
	default:
		// A chat writing for the first time gets the menu, not the
		// unknown-command nudge.
		if firstContact {
			r.menu.SendMenu(ctx, session)
			return nil
		}
		r.menu.SendUnknownCommand(ctx, session)
		return nil
	}
}

func (r *Router) sendCancelled(ctx context.Context, session *models.UserSession) {
	r.menu.sender.send(ctx, session.ChatID, "✅ Ação cancelada.\n\n"+r.menu.RenderMenu(session))
}

func (r *Router) resetState(ctx context.Context, session *models.UserSession) error {
	if session.State == models.StateNone && len(session.Scratch) == 0 {
		return nil
	}
	if err := r.sessions.UpdateState(ctx, session.ChatID, models.StateNone, models.FlowScratch{}); err != nil {
		return err
	}
	session.State = models.StateNone
	session.Scratch = models.FlowScratch{}
	return nil
}
