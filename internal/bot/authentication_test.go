package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capyvagas/capyvagas-api/internal/models"
)

func TestLoginHappyPath(t *testing.T) {
	bot := newTestBot()
	bot.seed("c1")
	bot.portal.valid = true
	ctx := context.Background()

	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "1", false))
	session := bot.store.get("c1")
	require.Equal(t, models.StateAwaitingRA, session.State)
	assert.Contains(t, bot.outbox.last(), "digite seu *RA*")

	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "a1234567", false))
	session = bot.store.get("c1")
	require.Equal(t, models.StateAwaitingPassword, session.State)
	assert.Equal(t, "a1234567", session.Scratch[scratchRA])

	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "S3nh@Forte", false))
	session = bot.store.get("c1")
	assert.True(t, session.Authenticated)
	require.NotNil(t, session.RA)
	assert.Equal(t, "a1234567", *session.RA)
	assert.Equal(t, models.StateNone, session.State)
	assert.Empty(t, session.Scratch)
	assert.Equal(t, "a1234567", bot.portal.lastRA)
	assert.Contains(t, bot.outbox.last(), "Cadastro Confirmado")
}

func TestLoginStoresOnlySealedPassword(t *testing.T) {
	bot := newTestBot()
	bot.seed("c1")
	bot.portal.valid = true
	ctx := context.Background()

	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "1", false))
	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "a1234567", false))
	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "MinhaSenha", false))

	session := bot.store.get("c1")
	require.NotNil(t, session.PortalPassword)
	assert.Equal(t, "sealed:MinhaSenha", *session.PortalPassword)
}

func TestLoginPasswordKeepsOriginalCase(t *testing.T) {
	bot := newTestBot()
	bot.seed("c1")
	bot.portal.valid = true
	ctx := context.Background()

	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "1", false))
	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "a1234567", false))
	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "SeNhA", false))

	session := bot.store.get("c1")
	require.NotNil(t, session.PortalPassword)
	assert.Equal(t, "sealed:SeNhA", *session.PortalPassword, "the raw message must reach the portal, not the lower-cased form")
}

func TestLoginShortRAStaysInFlow(t *testing.T) {
	bot := newTestBot()
	bot.seed("c1")
	ctx := context.Background()

	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "1", false))
	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "a12", false))

	session := bot.store.get("c1")
	assert.Equal(t, models.StateAwaitingRA, session.State)
	assert.Contains(t, bot.outbox.last(), "RA muito curto")
}

func TestLoginWrongCredentialsStaysAtPassword(t *testing.T) {
	bot := newTestBot()
	bot.seed("c1")
	bot.portal.valid = false
	ctx := context.Background()

	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "1", false))
	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "a1234567", false))
	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "errada", false))

	session := bot.store.get("c1")
	assert.False(t, session.Authenticated)
	assert.Equal(t, models.StateAwaitingPassword, session.State, "the user can retry the password without restarting")
	assert.Contains(t, bot.outbox.last(), "Falha no login")
}

func TestLoginPortalErrorBehavesAsFailure(t *testing.T) {
	bot := newTestBot()
	bot.seed("c1")
	bot.portal.err = errors.New("portal timeout")
	ctx := context.Background()

	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "1", false))
	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "a1234567", false))
	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "senha", false))

	session := bot.store.get("c1")
	assert.False(t, session.Authenticated)
	assert.Contains(t, bot.outbox.last(), "Falha no login")
}

func TestLoginAlreadyAuthenticatedShortCircuits(t *testing.T) {
	bot := newTestBot()
	bot.authenticate("c1", "a1234567")

	require.NoError(t, bot.router.ProcessMessage(context.Background(), "c1", "1", false))

	session := bot.store.get("c1")
	assert.Equal(t, models.StateNone, session.State)
	assert.Contains(t, bot.outbox.last(), "já está cadastrado")
}

func TestLoginMissingScratchResetsFlow(t *testing.T) {
	bot := newTestBot()
	bot.store.put(&models.UserSession{
		ChatID:  "c1",
		State:   models.StateAwaitingPassword,
		Scratch: models.FlowScratch{},
	})

	require.NoError(t, bot.router.ProcessMessage(context.Background(), "c1", "senha", false))

	session := bot.store.get("c1")
	assert.Equal(t, models.StateNone, session.State)
	assert.Contains(t, bot.outbox.last(), "Erro de fluxo")
}

func TestLogoutIsIdempotent(t *testing.T) {
	bot := newTestBot()
	bot.authenticate("c1", "a1234567")
	ctx := context.Background()

	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "2", false))
	first := bot.outbox.last()
	session := bot.store.get("c1")
	assert.False(t, session.Authenticated)
	assert.Nil(t, session.SelectedCourseID)
	assert.Nil(t, session.SelectedTermID)
	require.NotNil(t, session.RA, "logout keeps the academic id for the next login prompt")

	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "2", false))
	assert.Equal(t, first, bot.outbox.last())
	assert.False(t, bot.store.get("c1").Authenticated)
}
