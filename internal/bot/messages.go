package bot

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"
)

// brandHeader opens every menu render.
const brandHeader = "🌟 *CapyVagas* | Assistente de Vagas da UTFPR\n" +
	"Conecto você às oportunidades certas para o seu curso."

// Message catalog keys. Operators may override the text behind a key from
// the dashboard; everything else falls back to the built-in pt-BR default.
const (
	msgLoginPromptRA       = "login_prompt_ra"
	msgLoginPromptPassword = "login_prompt_password"
	msgLoginSuccess        = "login_success"
	msgLoginError          = "login_error"
	msgUnknownCommand      = "unknown_command"
)

var defaultMessages = map[string]string{
	msgLoginPromptRA: "🔐 *Cadastro UTFPR*\n\n" +
		"Por favor, digite seu *RA* (ex: a1234567):\n\n" +
		"_(Digite 'cancelar' para voltar)_",
	msgLoginPromptPassword: "🔑 Agora digite sua *Senha* do Portal do Aluno:\n\n" +
		"_(Seus dados são criptografados e usados apenas para validação)_",
	msgLoginSuccess: "✅ *Cadastro Confirmado!*\n\n" +
		"Agora você pode buscar vagas personalizadas para seu curso.\n\n" +
		"Escolha a opção 3 no menu.",
	msgLoginError: "❌ *Falha no login.*\n" +
		"RA ou senha incorretos.\n\n" +
		"Tente digitar a senha novamente ou digite 'cancelar' para sair.",
	msgUnknownCommand: "❓ Comando não reconhecido.\n\n" +
		"Digite *menu* para ver as opções disponíveis.",
}

// messageStore is the slice of the configuration repository the catalog
// needs.
type messageStore interface {
	GetMessageText(ctx context.Context, key string) (string, error)
}

// Catalog resolves conversation texts, preferring operator overrides.
type Catalog struct {
	store  messageStore
	logger *zap.Logger
}

// NewCatalog builds a catalog. A nil store always serves defaults.
func NewCatalog(store messageStore, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{store: store, logger: logger}
}

// Text returns the configured text for a key, or its built-in default. A
// lookup failure is logged and falls back; it never blocks a reply.
func (c *Catalog) Text(ctx context.Context, key string) string {
	fallback := defaultMessages[key]
	if c.store == nil {
		return fallback
	}
	text, err := c.store.GetMessageText(ctx, key)
	if err != nil || text == "" {
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			c.logger.Warn("message lookup failed", zap.String("key", key), zap.Error(err))
		}
		return fallback
	}
	return text
}
