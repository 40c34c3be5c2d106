package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/faraddouglas/conecsa-api/internal/auth"
	"github.com/faraddouglas/conecsa-api/internal/config"
	"github.com/faraddouglas/conecsa-api/internal/domain"
	"github.com/faraddouglas/conecsa-api/internal/events"
	"github.com/faraddouglas/conecsa-api/internal/mail"
	"github.com/faraddouglas/conecsa-api/internal/repository"
)

type memUsers struct {
	mu    sync.Mutex
	order []string
	byID  map[string]domain.User
	err   error
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[string]domain.User)}
}

func (m *memUsers) emailTaken(email, exceptID string) bool {
	for id, u := range m.byID {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (m *memUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.emailTaken(user.Email, "") {
		return repository.ErrEmailTaken
	}
	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt, user.UpdatedAt = now, now
	m.byID[user.ID] = *user
	m.order = append(m.order, user.ID)
	return nil
}

func (m *memUsers) Update(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	if m.emailTaken(user.Email, user.ID) {
		return repository.ErrEmailTaken
	}
	user.UpdatedAt = time.Now().UTC()
	m.byID[user.ID] = *user
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id, passwordHash string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now().UTC()
	m.byID[id] = user
	return &user, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	user, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, user := range m.byID {
		if strings.EqualFold(user.Email, email) {
			return &user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) List(_ context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]domain.User, 0, len(m.order))
	for _, id := range m.order {
		if user, ok := m.byID[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.byID, id)
	return nil
}

type memLedger struct {
	mu   sync.Mutex
	used map[string]time.Time
	err  error
}

func newMemLedger() *memLedger {
	return &memLedger{used: make(map[string]time.Time)}
}

func (l *memLedger) Consume(_ context.Context, tokenID string, expiresAt time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	if _, ok := l.used[tokenID]; ok {
		return false, nil
	}
	l.used[tokenID] = expiresAt
	return true, nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (r *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingMailer) lastToken() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return ""
	}
	token, _ := r.sent[len(r.sent)-1].Context["token"].(string)
	return token
}

var errStoreDown = errors.New("store down")

type authFixture struct {
	svc        *AuthService
	users      *memUsers
	ledger     *memLedger
	mailer     *recordingMailer
	dispatcher events.Dispatcher
	hasher     *auth.Hasher
}

func testConfig() config.Config {
	return config.Config{Auth: config.AuthConfig{
		JWTSecret:          "service-test-secret",
		SessionIssuer:      "session",
		Audience:           "users",
		SessionTTL:         7 * 24 * time.Hour,
		ResetTTL:           30 * time.Minute,
		BcryptCost:         bcrypt.MinCost,
		RevealUnknownEmail: true,
	}}
}

func newAuthFixture(cfg config.Config) *authFixture {
	f := &authFixture{
		users:      newMemUsers(),
		ledger:     newMemLedger(),
		mailer:     &recordingMailer{},
		dispatcher: events.NewInMemoryDispatcher(),
		hasher:     auth.NewHasher(bcrypt.MinCost),
	}
	f.svc = NewAuthService(cfg, AuthDependencies{
		UserRepo:    f.users,
		ResetLedger: f.ledger,
		Mailer:      f.mailer,
		Dispatcher:  f.dispatcher,
		Hasher:      f.hasher,
	})
	return f
}
