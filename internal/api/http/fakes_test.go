package http

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/faraddouglas/conecsa-api/internal/domain"
	"github.com/faraddouglas/conecsa-api/internal/mail"
	"github.com/faraddouglas/conecsa-api/internal/repository"
)

type memUserRepo struct {
	mu    sync.Mutex
	order []string
	users map[string]domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]domain.User)}
}

func (m *memUserRepo) taken(email, exceptID string) bool {
	for id, u := range m.users {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (m *memUserRepo) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.taken(user.Email, "") {
		return repository.ErrEmailTaken
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = *user
	m.order = append(m.order, user.ID)
	return nil
}

func (m *memUserRepo) Update(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	if m.taken(user.Email, user.ID) {
		return repository.ErrEmailTaken
	}
	m.users[user.ID] = *user
	return nil
}

func (m *memUserRepo) UpdatePassword(_ context.Context, id, hash string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	user.PasswordHash = hash
	m.users[id] = user
	return &user, nil
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			return &user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memUserRepo) List(_ context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.User, 0, len(m.order))
	for _, id := range m.order {
		if user, ok := m.users[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func (m *memUserRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.users, id)
	return nil
}

func (m *memUserRepo) promote(email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			user.Role = domain.RoleAdmin
			m.users[id] = user
		}
	}
}

type memLedger struct {
	mu   sync.Mutex
	used map[string]struct{}
}

func (l *memLedger) Consume(_ context.Context, tokenID string, _ time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.used == nil {
		l.used = make(map[string]struct{})
	}
	if _, ok := l.used[tokenID]; ok {
		return false, nil
	}
	l.used[tokenID] = struct{}{}
	return true, nil
}

type capturingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (c *capturingMailer) Send(_ context.Context, msg mail.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *capturingMailer) lastToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return ""
	}
	token, _ := c.sent[len(c.sent)-1].Context["token"].(string)
	return token
}
