package services

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"fuel-pricing/internal/entities"
	"fuel-pricing/internal/repositories"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/eventbus"
	"fuel-pricing/pkg/utils"
)

func newTestCache(t *testing.T) (repositories.CacheRepositoryInterface, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return repositories.NewRedisCacheRepository(client), mr
}

func authCtx(userID uint64, perms ...string) context.Context {
	m := make(map[string]bool, len(perms))
	for _, p := range perms {
		m[p] = true
	}
	return utils.WithUser(context.Background(), userID, 1, m)
}

type fakeTx struct{}

func (fakeTx) RunInTransaction(_ context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type fakeUserRepo struct {
	repositories.UserRepositoryInterface
	mu    sync.Mutex
	users map[uint64]*entities.User
}

func newFakeUserRepo(users ...entities.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uint64]*entities.User)}
	for i := range users {
		u := users[i]
		r.users[u.ID] = &u
	}
	return r
}

func (r *fakeUserRepo) FindUserByID(_ context.Context, id uint64) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) FindUserByEmailOrLogin(_ context.Context, login string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Login == login || u.Email == login {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrInvalidCredentials
}

type fakeRoleRepo struct {
	repositories.RoleRepositoryInterface
	permissions map[uint64][]string
	calls       int
}

func (r *fakeRoleRepo) GetPermissionNames(_ context.Context, roleID uint64) ([]string, error) {
	r.calls++
	return r.permissions[roleID], nil
}

// memSuggestionRepo keeps suggestions in memory for workflow tests.
type memSuggestionRepo struct {
	repositories.PriceSuggestionRepositoryInterface
	mu     sync.Mutex
	items  map[uint64]*entities.PriceSuggestion
	nextID uint64

	// stationNames and userNames stand in for the joins of the real query.
	stationNames map[uint64]string
	userNames    map[uint64]string
}

func newMemSuggestionRepo(items ...entities.PriceSuggestion) *memSuggestionRepo {
	r := &memSuggestionRepo{items: make(map[uint64]*entities.PriceSuggestion)}
	for i := range items {
		s := items[i]
		r.items[s.ID] = &s
		if s.ID > r.nextID {
			r.nextID = s.ID
		}
	}
	return r
}

func (r *memSuggestionRepo) FindSuggestion(_ context.Context, id uint64) (*entities.PriceSuggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *s
	if name, ok := r.stationNames[cp.StationID]; ok {
		cp.StationName = name
	}
	if name, ok := r.userNames[cp.RequestedBy]; ok {
		cp.RequesterName = name
	}
	return &cp, nil
}

func (r *memSuggestionRepo) FindSuggestionForUpdate(ctx context.Context, _ pgx.Tx, id uint64) (*entities.PriceSuggestion, error) {
	return r.FindSuggestion(ctx, id)
}

func (r *memSuggestionRepo) CreateSuggestion(_ context.Context, _ pgx.Tx, s *entities.PriceSuggestion) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	s.ID = r.nextID
	cp := *s
	r.items[cp.ID] = &cp
	return cp.ID, nil
}

func (r *memSuggestionRepo) UpdateSuggestion(_ context.Context, _ pgx.Tx, s *entities.PriceSuggestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[s.ID]; !ok {
		return apperrors.ErrNotFound
	}
	cp := *s
	r.items[s.ID] = &cp
	return nil
}

func (r *memSuggestionRepo) DeleteSuggestion(_ context.Context, _ pgx.Tx, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

type memHistoryRepo struct {
	repositories.ApprovalHistoryRepositoryInterface
	mu      sync.Mutex
	entries []entities.ApprovalHistory
}

func (r *memHistoryRepo) CreateInTx(_ context.Context, _ pgx.Tx, entry *entities.ApprovalHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = uint64(len(r.entries) + 1)
	r.entries = append(r.entries, *entry)
	return nil
}

// HasApprovedSinceSubmit walks back to the latest submit row.
func (r *memHistoryRepo) HasApprovedSinceSubmit(_ context.Context, _ pgx.Tx, suggestionID, actorID uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.SuggestionID != suggestionID {
			continue
		}
		if e.Action == "submit" {
			return false, nil
		}
		if e.Action == "approve" && e.ActorID == actorID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memHistoryRepo) actions(suggestionID uint64) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.entries {
		if e.SuggestionID == suggestionID {
			out = append(out, e.Action)
		}
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e eventbus.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Name()
	}
	return out
}

func nopLogger() *zap.Logger { return zap.NewNop() }
