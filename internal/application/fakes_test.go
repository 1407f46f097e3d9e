package application_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/fixkg/backend/internal/adapters/security"
	"github.com/fixkg/backend/internal/application"
	"github.com/fixkg/backend/internal/domain"
	"github.com/fixkg/backend/internal/ports"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	service *application.Service
	users   *memoryUsers
	store   *memoryStore
	email   *recordingStrategy
	push    *recordingStrategy
	codes   *codeSequence
}

func newFixture() *fixture {
	users := newMemoryUsers()
	store := newMemoryStore()
	email := &recordingStrategy{name: "email", deliver: true}
	push := &recordingStrategy{name: "push", deliver: true}
	codes := &codeSequence{}

	signer, err := security.NewHMACSigner("unit-test-secret-key-0001")
	if err != nil {
		panic(err)
	}

	service := application.NewService(application.Dependencies{
		Config:        application.DefaultConfig(),
		Users:         users,
		Hasher:        security.NewBcryptHasher(bcrypt.MinCost),
		Store:         store,
		Signer:        signer,
		Email:         email,
		Push:          push,
		CodeGenerator: codes.next,
	})
	return &fixture{service: service, users: users, store: store, email: email, push: push, codes: codes}
}

// registerVerified creates an account and consumes its first code.
func (f *fixture) registerVerified(ctx context.Context, username, email, password string) domain.UserPublic {
	f.codes.push("111111")
	if _, err := f.service.Register(ctx, domain.Candidate{Username: username, Email: email, Password: password}); err != nil {
		panic(err)
	}
	user, err := f.service.VerifyUserByOTPCode(ctx, application.VerifyRequest{Email: email, OTPCode: "111111"})
	if err != nil {
		panic(err)
	}
	return user
}

type codeSequence struct {
	mu    sync.Mutex
	queue []string
}

func (c *codeSequence) push(codes ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append(c.queue, codes...)
}

func (c *codeSequence) next(length int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return strings.Repeat("0", length), nil
	}
	code := c.queue[0]
	c.queue = c.queue[1:]
	return code, nil
}

type memoryUsers struct {
	mu   sync.Mutex
	byID map[uuid.UUID]domain.User
	err  error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: map[uuid.UUID]domain.User{}}
}

func (m *memoryUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

func (m *memoryUsers) find(match func(domain.User) bool) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.User{}, m.err
	}
	for _, u := range m.byID {
		if match(u) {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (m *memoryUsers) GetByID(_ context.Context, userID uuid.UUID) (domain.User, error) {
	return m.find(func(u domain.User) bool { return u.ID == userID })
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (domain.User, error) {
	return m.find(func(u domain.User) bool { return u.Email == email })
}

func (m *memoryUsers) GetByUsername(_ context.Context, username string) (domain.User, error) {
	return m.find(func(u domain.User) bool { return u.Username == username })
}

func (m *memoryUsers) GetByEmailOrUsername(_ context.Context, email, username string) (domain.User, error) {
	return m.find(func(u domain.User) bool { return u.Email == email || u.Username == username })
}

func (m *memoryUsers) Create(_ context.Context, params ports.CreateUserParams) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.User{}, m.err
	}
	for _, u := range m.byID {
		if u.Email == params.Email || u.Username == params.Username {
			return domain.User{}, domain.ErrConflict
		}
	}
	user := domain.User{
		ID:           uuid.New(),
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		AvatarURL:    params.AvatarURL,
		CreatedAt:    params.CreatedAt,
		UpdatedAt:    params.CreatedAt,
	}
	m.byID[user.ID] = user
	return user, nil
}

func (m *memoryUsers) SetVerified(_ context.Context, userID uuid.UUID, verified bool, at time.Time) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.User{}, m.err
	}
	user, ok := m.byID[userID]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	user.IsVerified = verified
	user.UpdatedAt = at
	m.byID[userID] = user
	return user, nil
}

type storeEntry struct {
	value     string
	expiresAt time.Time
}

// memoryStore is a TTL-aware session store with a movable clock.
type memoryStore struct {
	mu    sync.Mutex
	data  map[string]storeEntry
	now   time.Time
	err   error
	lastT map[string]time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		data:  map[string]storeEntry{},
		now:   time.Now(),
		lastT: map[string]time.Duration{},
	}
}

func (m *memoryStore) advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

func (m *memoryStore) ttl(key string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastT[key]
}

func (m *memoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	entry := storeEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = m.now.Add(ttl)
	}
	m.data[key] = entry
	m.lastT[key] = ttl
	return nil
}

func (m *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", false, m.err
	}
	entry, ok := m.data[key]
	if !ok {
		return "", false, nil
	}
	if !entry.expiresAt.IsZero() && !m.now.Before(entry.expiresAt) {
		delete(m.data, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.data, key)
	return nil
}

func (m *memoryStore) value(key string) (string, bool) {
	v, ok, _ := m.Get(context.Background(), key)
	return v, ok
}

type sentMessage struct {
	recipient string
	subject   string
	message   string
}

type recordingStrategy struct {
	mu      sync.Mutex
	name    string
	deliver bool
	err     error
	sent    []sentMessage
}

func (r *recordingStrategy) Name() string { return r.name }

func (r *recordingStrategy) Notify(_ context.Context, recipient, subject, message string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	r.sent = append(r.sent, sentMessage{recipient: recipient, subject: subject, message: message})
	return r.deliver, nil
}

func (r *recordingStrategy) fail(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

func (r *recordingStrategy) messages() []sentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentMessage(nil), r.sent...)
}

var errStoreDown = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")
