package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capyvagas/capyvagas-api/internal/models"
)

// engWithTerms wires one course with two prioritized default terms, the
// fixture most search tests share.
func engWithTerms(bot *testBot) {
	bot.courses.courses = []models.Course{{ID: 10, Name: "Eng"}}
	bot.courses.terms[10] = []models.SearchTerm{
		{ID: 100, CourseID: 10, Term: "Python", Priority: 2},
		{ID: 101, CourseID: 10, Term: "Django", Priority: 1},
	}
}

func TestSearchRequiresAuthentication(t *testing.T) {
	bot := newTestBot()
	bot.seed("c1")

	require.NoError(t, bot.router.ProcessMessage(context.Background(), "c1", "3", false))

	session := bot.store.get("c1")
	assert.Equal(t, models.StateNone, session.State)
	assert.Contains(t, bot.outbox.last(), "precisa se cadastrar")
	assert.Zero(t, bot.searcher.calls)
}

func TestSearchSingleTermFlow(t *testing.T) {
	bot := newTestBot()
	bot.authenticate("c1", "a1234567")
	engWithTerms(bot)
	bot.searcher.results = []models.JobPosting{
		{Title: "Dev Python Jr", Company: "Acme", URL: "https://jobs/1"},
	}
	ctx := context.Background()

	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "3", false))
	require.Equal(t, models.StateAwaitingCourse, bot.store.get("c1").State)
	assert.Contains(t, bot.outbox.last(), "*1*) Eng")

	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "1", false))
	session := bot.store.get("c1")
	require.Equal(t, models.StateAwaitingTerm, session.State)
	require.NotNil(t, session.SelectedCourseID)
	assert.Equal(t, int64(10), *session.SelectedCourseID)
	menu := bot.outbox.last()
	assert.Contains(t, menu, "*1*) Python")
	assert.Contains(t, menu, "*2*) Django")
	assert.Contains(t, menu, "*3*) Buscar Todos")

	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "1", false))
	session = bot.store.get("c1")
	assert.Equal(t, models.StateNone, session.State)
	require.NotNil(t, session.SelectedTermID)
	assert.Equal(t, int64(100), *session.SelectedTermID)
	assert.Equal(t, []string{"Python"}, bot.searcher.lastTerms)
	assert.Equal(t, 5, bot.searcher.lastLimit)
	assert.Contains(t, bot.outbox.last(), "Vagas Encontradas (1)")
	assert.Contains(t, bot.outbox.last(), "Dev Python Jr")
}

func TestSearchAllTermsPreservesPriorityOrder(t *testing.T) {
	bot := newTestBot()
	bot.authenticate("c1", "a1234567")
	engWithTerms(bot)
	ctx := context.Background()

	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "3", false))
	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "1", false))
	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "3", false))

	assert.Equal(t, []string{"Python", "Django"}, bot.searcher.lastTerms)
	assert.Nil(t, bot.store.get("c1").SelectedTermID, "the all-terms choice stores no single term")
}

func TestSearchProviderFailureReadsAsNoResults(t *testing.T) {
	bot := newTestBot()
	bot.authenticate("c1", "a1234567")
	engWithTerms(bot)
	bot.searcher.err = errors.New("provider down")
	ctx := context.Background()

	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "3", false))
	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "1", false))
	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "1", false))

	assert.Contains(t, bot.outbox.last(), "Nenhuma vaga encontrada")
	require.Len(t, bot.audit.searches, 1)
	assert.Empty(t, bot.audit.searches[0].results, "a failed search is logged with zero results")
}

func TestSearchInvalidCourseChoices(t *testing.T) {
	bot := newTestBot()
	bot.authenticate("c1", "a1234567")
	engWithTerms(bot)
	ctx := context.Background()

	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "3", false))

	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "abc", false))
	assert.Contains(t, bot.outbox.last(), "apenas o número")
	assert.Equal(t, models.StateAwaitingCourse, bot.store.get("c1").State)

	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "9", false))
	assert.Contains(t, bot.outbox.last(), "Número inválido")
	assert.Equal(t, models.StateAwaitingCourse, bot.store.get("c1").State)
}

func TestSearchInvalidTermChoiceStaysInMenu(t *testing.T) {
	bot := newTestBot()
	bot.authenticate("c1", "a1234567")
	engWithTerms(bot)
	ctx := context.Background()

	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "3", false))
	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "1", false))
	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "4", false))

	assert.Contains(t, bot.outbox.last(), "Número inválido")
	assert.Equal(t, models.StateAwaitingTerm, bot.store.get("c1").State)
	assert.Zero(t, bot.searcher.calls)
}

func TestSearchNoCoursesConfigured(t *testing.T) {
	bot := newTestBot()
	bot.authenticate("c1", "a1234567")

	require.NoError(t, bot.router.ProcessMessage(context.Background(), "c1", "3", false))

	assert.Equal(t, models.StateNone, bot.store.get("c1").State)
	assert.Contains(t, bot.outbox.last(), "Nenhum curso cadastrado")
}

func TestSearchCourseWithoutTermsResets(t *testing.T) {
	bot := newTestBot()
	bot.authenticate("c1", "a1234567")
	bot.courses.courses = []models.Course{{ID: 10, Name: "Eng"}}
	ctx := context.Background()

	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "3", false))
	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "1", false))

	assert.Equal(t, models.StateNone, bot.store.get("c1").State)
	assert.Contains(t, bot.outbox.last(), "não possui termos")
}

func TestSearchMissingCourseMidFlowResets(t *testing.T) {
	bot := newTestBot()
	bot.authenticate("c1", "a1234567")
	engWithTerms(bot)
	ctx := context.Background()

	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "3", false))
	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "1", false))

	// The course disappears between the two menus.
	bot.courses.courses = nil

	require.NoError(t, bot.router.ProcessMessage(ctx, "c1", "1", false))
	assert.Equal(t, models.StateNone, bot.store.get("c1").State)
	assert.Contains(t, bot.outbox.last(), "Erro de fluxo")
}
