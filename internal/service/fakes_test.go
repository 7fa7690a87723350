package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ivlev/authsvc/internal/domain"
)

// fakeClock is a settable clock shared by the components under test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeCodeStore struct {
	mu   sync.Mutex
	rows []domain.OneTimeCode
}

func (s *fakeCodeStore) Insert(_ context.Context, code domain.OneTimeCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, code)
	return nil
}

func (s *fakeCodeStore) Consume(_ context.Context, userID uuid.UUID, channel domain.CodeChannel, code string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, row := range s.rows {
		if row.UserID == userID && row.Channel == channel && row.Code == code {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			if !row.ExpiresAt.After(now) {
				return domain.ErrExpired
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeTokenStore struct {
	mu   sync.Mutex
	rows []*domain.RefreshToken
}

func (s *fakeTokenStore) Insert(_ context.Context, t domain.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := t
	row.ID = int64(len(s.rows) + 1)
	s.rows = append(s.rows, &row)
	return nil
}

func (s *fakeTokenStore) Rotate(_ context.Context, oldToken string, now time.Time, mint func(userID uuid.UUID) (string, time.Time, error)) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.Token != oldToken {
			continue
		}
		if row.Revoked {
			return "", domain.ErrAlreadyRevoked
		}
		if !row.ExpiresAt.After(now) {
			return "", domain.ErrExpired
		}
		newToken, expiresAt, err := mint(row.UserID)
		if err != nil {
			return "", err
		}
		row.Token = newToken
		row.ExpiresAt = expiresAt
		return newToken, nil
	}
	return "", domain.ErrNotFound
}

func (s *fakeTokenStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.Token != token {
			continue
		}
		if row.Revoked {
			return domain.ErrAlreadyRevoked
		}
		row.Revoked = true
		return nil
	}
	return domain.ErrNotFound
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
	links map[string]uuid.UUID
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users: make(map[uuid.UUID]*domain.User),
		links: make(map[string]uuid.UUID),
	}
}

func linkKey(p domain.Provider, id string) string {
	return string(p) + "/" + id
}

func (s *fakeUserStore) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email != nil && *u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeUserStore) FindByPhone(_ context.Context, phone string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Phone != nil && *u.Phone == phone {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeUserStore) Create(_ context.Context, user domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if user.Email != nil && u.Email != nil && *u.Email == *user.Email {
			return nil, domain.ErrConflict
		}
		if user.Phone != nil && u.Phone != nil && *u.Phone == *user.Phone {
			return nil, domain.ErrConflict
		}
	}
	user.ID = uuid.New()
	copied := user
	s.users[user.ID] = &copied
	result := user
	return &result, nil
}

func (s *fakeUserStore) ResolveOrCreateByProvider(_ context.Context, p domain.Provider, providerID string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.links[linkKey(p, providerID)]; ok {
		copied := *s.users[id]
		return &copied, nil
	}
	user := domain.User{ID: uuid.New(), ServiceType: domain.ServiceType(p)}
	s.users[user.ID] = &user
	s.links[linkKey(p, providerID)] = user.ID
	copied := user
	return &copied, nil
}

type fakeRoleStore struct {
	mu       sync.Mutex
	roles    map[string]*domain.Role
	assigned map[string]bool
}

func newFakeRoleStore() *fakeRoleStore {
	return &fakeRoleStore{
		roles:    make(map[string]*domain.Role),
		assigned: make(map[string]bool),
	}
}

func (s *fakeRoleStore) Create(_ context.Context, name string, description *string) (*domain.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[name]; ok {
		return nil, domain.ErrConflict
	}
	role := &domain.Role{ID: uuid.New(), Name: name, Description: description}
	s.roles[name] = role
	copied := *role
	return &copied, nil
}

func (s *fakeRoleStore) FindByName(_ context.Context, name string) (*domain.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.roles[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *role
	return &copied, nil
}

func (s *fakeRoleStore) Assign(_ context.Context, userID, roleID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := userID.String() + "/" + roleID.String()
	if s.assigned[key] {
		return domain.ErrConflict
	}
	s.assigned[key] = true
	return nil
}

func (s *fakeRoleStore) NamesForUser(_ context.Context, userID uuid.UUID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for _, role := range s.roles {
		if s.assigned[userID.String()+"/"+role.ID.String()] {
			names = append(names, role.Name)
		}
	}
	return names, nil
}

// captureDispatcher records the last code handed to it.
type captureDispatcher struct {
	mu          sync.Mutex
	destination string
	code        string
}

func (d *captureDispatcher) Send(_ context.Context, destination, code string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destination = destination
	d.code = code
	return nil
}

func (d *captureDispatcher) last() (string, string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.destination, d.code
}
