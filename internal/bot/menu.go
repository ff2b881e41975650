package bot

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/capyvagas/capyvagas-api/internal/models"
)

// MenuHandler renders the main menu and the unknown-command reply. It owns
// no conversation state; the router invokes it directly.
type MenuHandler struct {
	catalog *Catalog
	sender  *Sender
	logger  *zap.Logger
}

// NewMenuHandler builds the menu handler.
func NewMenuHandler(catalog *Catalog, sender *Sender, logger *zap.Logger) *MenuHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MenuHandler{catalog: catalog, sender: sender, logger: logger}
}

// RenderMenu builds the menu text for a session. Authenticated users see
// their academic id and the logout option; everyone sees the job search.
func (h *MenuHandler) RenderMenu(session *models.UserSession) string {
	if session.Authenticated {
		ra := "Não cadastrado"
		if session.RA != nil && *session.RA != "" {
			ra = *session.RA
		}
		return fmt.Sprintf(
			"%s\n\n"+
				"👤 *Usuário*: %s\n\n"+
				"📋 *Menu Principal*:\n"+
				"1️⃣ Atualizar Cadastro\n"+
				"2️⃣ Sair da Conta\n"+
				"3️⃣ Buscar Vagas\n\n"+
				"Digite o número da opção desejada.",
			brandHeader, ra,
		)
	}
	return brandHeader + "\n\n" +
		"📋 *Menu Principal*:\n" +
		"1️⃣ Fazer Cadastro/Login\n" +
		"3️⃣ Buscar Vagas\n\n" +
		"Digite o número da opção desejada."
}

// SendMenu delivers the main menu.
func (h *MenuHandler) SendMenu(ctx context.Context, session *models.UserSession) {
	h.sender.send(ctx, session.ChatID, h.RenderMenu(session))
	h.logger.Debug("menu displayed",
		zap.String("chat_id", session.ChatID),
		zap.Bool("authenticated", session.Authenticated),
	)
}

// SendUnknownCommand delivers the fallback reply for unmatched input.
func (h *MenuHandler) SendUnknownCommand(ctx context.Context, session *models.UserSession) {
	h.sender.send(ctx, session.ChatID, h.catalog.Text(ctx, msgUnknownCommand))
}
