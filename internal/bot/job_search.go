package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/capyvagas/capyvagas-api/internal/models"
)

// allTermsLabel names the synthetic trailing menu entry that searches every
// default term of the selected course at once.
const allTermsLabel = "Buscar Todos"

// JobSearchHandler owns the course and term selection flow
// (StateAwaitingCourse, StateAwaitingTerm) and the search itself.
type JobSearchHandler struct {
	sessions SessionStore
	courses  CourseDirectory
	provider JobSearcher
	sender   *Sender
	audit    AuditTrail
	metrics  Metrics
	limit    int
	logger   *zap.Logger
}

// NewJobSearchHandler builds the job-search flow handler. limit caps how
// many postings one search returns.
func NewJobSearchHandler(sessions SessionStore, courses CourseDirectory, provider JobSearcher, sender *Sender, audit AuditTrail, metrics Metrics, limit int, logger *zap.Logger) *JobSearchHandler {
	if limit <= 0 {
		limit = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobSearchHandler{
		sessions: sessions,
		courses:  courses,
		provider: provider,
		sender:   sender,
		audit:    audit,
		metrics:  metrics,
		limit:    limit,
		logger:   logger,
	}
}

// TryHandle consumes messages while a selection menu owns the state.
func (h *JobSearchHandler) TryHandle(ctx context.Context, session *models.UserSession, text, raw string) (bool, error) {
	switch session.State {
	case models.StateAwaitingCourse:
		return true, h.handleCourseChoice(ctx, session, text)
	case models.StateAwaitingTerm:
		return true, h.handleTermChoice(ctx, session, text)
	default:
		return false, nil
	}
}

// StartCourseSelection enters the search flow. Unauthenticated sessions are
// turned back without a state change.
func (h *JobSearchHandler) StartCourseSelection(ctx context.Context, session *models.UserSession) error {
	if !session.Authenticated {
		h.sender.send(ctx, session.ChatID, "🔒 Você precisa se cadastrar primeiro (Opção 1).")
		return nil
	}

	courses, err := h.courses.ActiveCourses(ctx)
	if err != nil {
		return err
	}
	if len(courses) == 0 {
		h.sender.send(ctx, session.ChatID, "⚠️ Nenhum curso cadastrado no sistema.")
		return nil
	}

	if err := h.sessions.UpdateState(ctx, session.ChatID, models.StateAwaitingCourse, models.FlowScratch{}); err != nil {
		return err
	}
	session.State = models.StateAwaitingCourse
	session.Scratch = models.FlowScratch{}

	var b strings.Builder
	b.WriteString("🎓 *Selecione seu curso*:\n\n")
	for i, course := range courses {
		fmt.Fprintf(&b, "*%d*) %s\n", i+1, course.Name)
	}
	b.WriteString("\nDigite o número do curso desejado.")
	h.sender.send(ctx, session.ChatID, b.String())
	return nil
}

func (h *JobSearchHandler) handleCourseChoice(ctx context.Context, session *models.UserSession, text string) error {
	// The list is recomputed here instead of being cached in scratch, so a
	// course deactivated mid-conversation never gets selected.
	courses, err := h.courses.ActiveCourses(ctx)
	if err != nil {
		return err
	}

	idx, err := strconv.Atoi(text)
	if err != nil {
		h.sender.send(ctx, session.ChatID, "❌ Digite apenas o número do curso.")
		return nil
	}
	if idx < 1 || idx > len(courses) {
		h.sender.send(ctx, session.ChatID, "❌ Número inválido. Tente novamente.")
		return nil
	}

	course := courses[idx-1]
	if err := h.sessions.SetSelectedCourse(ctx, session.ChatID, &course.ID); err != nil {
		return err
	}
	session.SelectedCourseID = &course.ID

	h.logger.Debug("course selected",
		zap.String("chat_id", session.ChatID),
		zap.Int64("course_id", course.ID),
	)
	return h.startTermSelection(ctx, session, &course)
}

func (h *JobSearchHandler) startTermSelection(ctx context.Context, session *models.UserSession, course *models.Course) error {
	terms, err := h.courses.DefaultTerms(ctx, course.ID)
	if err != nil {
		return err
	}
	if len(terms) == 0 {
		h.sender.send(ctx, session.ChatID, fmt.Sprintf(
			"⚠️ O curso *%s* ainda não possui termos de busca cadastrados.\n\nDigite *menu* para voltar.",
			course.Name,
		))
		return h.resetState(ctx, session)
	}

	if err := h.sessions.UpdateState(ctx, session.ChatID, models.StateAwaitingTerm, models.FlowScratch{}); err != nil {
		return err
	}
	session.State = models.StateAwaitingTerm
	session.Scratch = models.FlowScratch{}

	var b strings.Builder
	fmt.Fprintf(&b, "🔎 *%s*\n\nEscolha um termo de busca:\n\n", course.Name)
	for i, term := range terms {
		fmt.Fprintf(&b, "*%d*) %s\n", i+1, term.Term)
	}
	fmt.Fprintf(&b, "*%d*) %s\n", len(terms)+1, allTermsLabel)
	b.WriteString("\nDigite o número da opção desejada.")
	h.sender.send(ctx, session.ChatID, b.String())
	return nil
}

func (h *JobSearchHandler) handleTermChoice(ctx context.Context, session *models.UserSession, text string) error {
	if session.SelectedCourseID == nil {
		h.sender.send(ctx, session.ChatID, "❌ Erro de fluxo. Por favor, comece novamente.")
		return h.resetState(ctx, session)
	}

	course, err := h.courses.Course(ctx, *session.SelectedCourseID)
	if err != nil {
		h.sender.send(ctx, session.ChatID, "❌ Erro de fluxo. Por favor, comece novamente.")
		return h.resetState(ctx, session)
	}

	terms, err := h.courses.DefaultTerms(ctx, course.ID)
	if err != nil {
		return err
	}

	idx, err := strconv.Atoi(text)
	if err != nil || idx < 1 || idx > len(terms)+1 {
		h.sender.send(ctx, session.ChatID, "❌ Número inválido. Tente novamente.")
		return nil
	}

	var (
		searchTerms []string
		label       string
	)
	if idx == len(terms)+1 {
		for _, term := range terms {
			searchTerms = append(searchTerms, term.Term)
		}
		label = "Todos os termos"
		if err := h.sessions.SetSelectedTerm(ctx, session.ChatID, nil); err != nil {
			return err
		}
		session.SelectedTermID = nil
	} else {
		chosen := terms[idx-1]
		searchTerms = []string{chosen.Term}
		label = chosen.Term
		if err := h.sessions.SetSelectedTerm(ctx, session.ChatID, &chosen.ID); err != nil {
			return err
		}
		session.SelectedTermID = &chosen.ID
	}

	// The flow ends before the search runs: any reply the user sends during
	// a slow provider call hits a clean state.
	if err := h.resetState(ctx, session); err != nil {
		return err
	}
	return h.performSearch(ctx, session, label, searchTerms)
}

func (h *JobSearchHandler) performSearch(ctx context.Context, session *models.UserSession, label string, terms []string) error {
	h.sender.send(ctx, session.ChatID, fmt.Sprintf("🔎 Buscando vagas para: *%s*... Aguarde.", label))

	results, err := h.provider.Search(ctx, terms, h.limit)
	if err != nil {
		// Provider failures degrade to an empty result set; the failed
		// search still lands in the audit trail with zero results.
		h.logger.Error("job search failed",
			zap.String("chat_id", session.ChatID),
			zap.Strings("terms", terms),
			zap.Error(err),
		)
		results = nil
	}

	if h.audit != nil {
		h.audit.SearchPerformed(session.ChatID, terms, results)
	}
	if h.metrics != nil {
		h.metrics.JobSearch(len(results))
	}

	if len(results) == 0 {
		h.sender.send(ctx, session.ChatID, "😔 Nenhuma vaga encontrada no momento para esses termos.")
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🚀 *Vagas Encontradas (%d)*:\n", len(results))
	for _, job := range results {
		fmt.Fprintf(&b, "\n💼 *%s*\n🏢 %s\n🔗 %s\n", job.Title, job.Company, job.URL)
	}
	h.sender.send(ctx, session.ChatID, b.String())
	return nil
}

func (h *JobSearchHandler) resetState(ctx context.Context, session *models.UserSession) error {
	if err := h.sessions.UpdateState(ctx, session.ChatID, models.StateNone, models.FlowScratch{}); err != nil {
		return err
	}
	session.State = models.StateNone
	session.Scratch = models.FlowScratch{}
	return nil
}
