package bot

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/capyvagas/capyvagas-api/internal/models"
)

// memorySessionStore is an in-memory SessionStore with the same semantics
// as the SQL-backed repository: field-scoped writes only.
type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.UserSession
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: make(map[string]*models.UserSession)}
}

func (s *memorySessionStore) GetOrCreate(ctx context.Context, chatID string) (*models.UserSession, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[chatID]; ok {
		clone := *existing
		return &clone, false, nil
	}
	session := &models.UserSession{
		ChatID:  chatID,
		State:   models.StateNone,
		Scratch: models.FlowScratch{},
	}
	s.sessions[chatID] = session
	clone := *session
	return &clone, true, nil
}

func (s *memorySessionStore) get(chatID string) *models.UserSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[chatID]
}

func (s *memorySessionStore) put(session *models.UserSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ChatID] = session
}

func (s *memorySessionStore) UpdateState(ctx context.Context, chatID string, state models.ConversationState, scratch models.FlowScratch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[chatID]
	if !ok {
		return errors.New("session not found")
	}
	session.State = state
	session.Scratch = scratch
	return nil
}

func (s *memorySessionStore) SetSelectedCourse(ctx context.Context, chatID string, courseID *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[chatID]
	if !ok {
		return errors.New("session not found")
	}
	session.SelectedCourseID = courseID
	return nil
}

func (s *memorySessionStore) SetSelectedTerm(ctx context.Context, chatID string, termID *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[chatID]
	if !ok {
		return errors.New("session not found")
	}
	session.SelectedTermID = termID
	return nil
}

func (s *memorySessionStore) LinkCredentials(ctx context.Context, chatID, ra, encryptedPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[chatID]
	if !ok {
		return errors.New("session not found")
	}
	session.RA = &ra
	session.PortalPassword = &encryptedPassword
	session.Authenticated = true
	return nil
}

func (s *memorySessionStore) ClearCredentials(ctx context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[chatID]
	if !ok {
		return errors.New("session not found")
	}
	session.Authenticated = false
	session.PortalPassword = nil
	session.SelectedCourseID = nil
	session.SelectedTermID = nil
	session.State = models.StateNone
	session.Scratch = models.FlowScratch{}
	return nil
}

func (s *memorySessionStore) Touch(ctx context.Context, chatID string) error { return nil }

// fakeMessenger records every outbound text.
type fakeMessenger struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *fakeMessenger) SendText(ctx context.Context, chatID, text string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, text)
	return nil
}

func (m *fakeMessenger) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1]
}

func (m *fakeMessenger) contains(substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, text := range m.sent {
		if strings.Contains(text, substr) {
			return true
		}
	}
	return false
}

// stubCourseDirectory serves fixed course and term lists.
type stubCourseDirectory struct {
	courses []models.Course
	terms   map[int64][]models.SearchTerm
	err     error
}

func (d *stubCourseDirectory) ActiveCourses(ctx context.Context) ([]models.Course, error) {
	return d.courses, d.err
}

func (d *stubCourseDirectory) DefaultTerms(ctx context.Context, courseID int64) ([]models.SearchTerm, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.terms[courseID], nil
}

func (d *stubCourseDirectory) Course(ctx context.Context, id int64) (*models.Course, error) {
	for i := range d.courses {
		if d.courses[i].ID == id {
			return &d.courses[i], nil
		}
	}
	return nil, errors.New("course not found")
}

// stubPortal answers every credential check with a fixed verdict.
type stubPortal struct {
	valid  bool
	err    error
	lastRA string
}

func (p *stubPortal) Authenticate(ctx context.Context, ra, password string) (bool, error) {
	p.lastRA = ra
	return p.valid, p.err
}

// stubSearcher records the last query and serves fixed results.
type stubSearcher struct {
	results   []models.JobPosting
	err       error
	lastTerms []string
	lastLimit int
	calls     int
}

func (s *stubSearcher) Search(ctx context.Context, terms []string, limit int) ([]models.JobPosting, error) {
	s.calls++
	s.lastTerms = terms
	s.lastLimit = limit
	return s.results, s.err
}

// stubSealer marks ciphertexts with a prefix so tests can tell plaintext
// never reached the store.
type stubSealer struct{ err error }

func (s *stubSealer) Encrypt(plaintext string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "sealed:" + plaintext, nil
}

// recordingAudit captures audit calls synchronously.
type recordingAudit struct {
	mu       sync.Mutex
	received []string
	sent     []string
	searches []searchRecord
}

type searchRecord struct {
	chatID  string
	terms   []string
	results []models.JobPosting
}

func (a *recordingAudit) MessageReceived(chatID, text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.received = append(a.received, text)
}

func (a *recordingAudit) MessageSent(chatID, text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = append(a.sent, text)
}

func (a *recordingAudit) SearchPerformed(chatID string, terms []string, results []models.JobPosting) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.searches = append(a.searches, searchRecord{chatID: chatID, terms: terms, results: results})
}

// testBot bundles a fully wired router with every stub it talks to.
type testBot struct {
	router   *Router
	store    *memorySessionStore
	outbox   *fakeMessenger
	courses  *stubCourseDirectory
	portal   *stubPortal
	searcher *stubSearcher
	audit    *recordingAudit
}

func newTestBot() *testBot {
	logger := zap.NewNop()
	store := newMemorySessionStore()
	outbox := &fakeMessenger{}
	courses := &stubCourseDirectory{terms: map[int64][]models.SearchTerm{}}
	portal := &stubPortal{}
	searcher := &stubSearcher{}
	audit := &recordingAudit{}

	snd := &Sender{messenger: outbox, audit: audit, logger: logger}
	catalog := NewCatalog(nil, logger)
	menu := NewMenuHandler(catalog, snd, logger)
	auth := NewAuthenticationHandler(store, portal, &stubSealer{}, catalog, snd, nil, logger)
	search := NewJobSearchHandler(store, courses, searcher, snd, audit, nil, 5, logger)

	return &testBot{
		router:   NewRouter(store, menu, auth, search, audit, nil, logger),
		store:    store,
		outbox:   outbox,
		courses:  courses,
		portal:   portal,
		searcher: searcher,
		audit:    audit,
	}
}

// seed creates an idle unauthenticated session, skipping the first-contact
// greeting.
func (b *testBot) seed(chatID string) {
	b.store.put(&models.UserSession{
		ChatID:  chatID,
		State:   models.StateNone,
		Scratch: models.FlowScratch{},
	})
}

// authenticate fast-forwards a chat to an authenticated idle session.
func (b *testBot) authenticate(chatID, ra string) {
	session := &models.UserSession{
		ChatID:        chatID,
		RA:            &ra,
		Authenticated: true,
		State:         models.StateNone,
		Scratch:       models.FlowScratch{},
	}
	b.store.put(session)
}
