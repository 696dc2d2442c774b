package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/magabrotheeeer/package-tracker/internal/models"
)

var errInjected = errors.New("injected failure")

// memRepo хранилище в памяти с управляемыми сбоями.
type memRepo struct {
	mu         sync.Mutex
	clients    map[string]models.Client
	membership map[string]map[string]struct{}

	failAttach int // число следующих вызовов AttachClient, которые вернут ошибку
	failDelete bool
	failDetach bool
	failApply  bool

	applyCalls  int
	updateCalls int
}

func newMemRepo() *memRepo {
	return &memRepo{
		clients:    make(map[string]models.Client),
		membership: make(map[string]map[string]struct{}),
	}
}

func clone(c models.Client) *models.Client {
	if c.PackageStatus != nil {
		st := *c.PackageStatus
		c.PackageStatus = &st
	}
	if c.Document != nil {
		doc := *c.Document
		c.Document = &doc
	}
	return &c
}

func (r *memRepo) CreateClient(_ context.Context, c models.Client) (*models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.clients {
		if existing.OwnerID == c.OwnerID && strings.EqualFold(existing.Email, c.Email) {
			return nil, models.ErrDuplicateEmail
		}
	}
	r.clients[c.ID] = *clone(c)
	return clone(c), nil
}

func (r *memRepo) GetClient(_ context.Context, id string) (*models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return clone(c), nil
}

func (r *memRepo) FindClientByEmail(_ context.Context, ownerID, email string) (*models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clients {
		if c.OwnerID == ownerID && strings.EqualFold(c.Email, email) {
			return clone(c), nil
		}
	}
	return nil, nil
}

func (r *memRepo) ListClientsByOwner(_ context.Context, ownerID string) ([]*models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Client
	for _, c := range r.clients {
		if c.OwnerID == ownerID {
			out = append(out, clone(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRepo) UpdateClient(_ context.Context, c models.Client) (*models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	if _, ok := r.clients[c.ID]; !ok {
		return nil, models.ErrNotFound
	}
	for _, existing := range r.clients {
		if existing.ID != c.ID && existing.OwnerID == c.OwnerID && strings.EqualFold(existing.Email, c.Email) {
			return nil, models.ErrDuplicateEmail
		}
	}
	r.clients[c.ID] = *clone(c)
	return clone(c), nil
}

func (r *memRepo) ApplyStatus(_ context.Context, id string, status models.PackageStatus) (*models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failApply {
		return nil, errInjected
	}
	c, ok := r.clients[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	r.applyCalls++
	c.PackageStatus = &status
	r.clients[id] = c
	return clone(c), nil
}

func (r *memRepo) SetDocument(_ context.Context, id string, doc models.DocumentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok {
		return models.ErrNotFound
	}
	c.Document = &doc
	r.clients[id] = c
	return nil
}

func (r *memRepo) DeleteClient(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDelete {
		return errInjected
	}
	if _, ok := r.clients[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.clients, id)
	return nil
}

func (r *memRepo) AttachClient(_ context.Context, accountID, clientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAttach > 0 {
		r.failAttach--
		return errInjected
	}
	if r.membership[accountID] == nil {
		r.membership[accountID] = make(map[string]struct{})
	}
	r.membership[accountID][clientID] = struct{}{}
	return nil
}

func (r *memRepo) DetachClient(_ context.Context, accountID, clientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDetach {
		return errInjected
	}
	delete(r.membership[accountID], clientID)
	return nil
}

func (r *memRepo) ListMembership(_ context.Context, accountID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.membership[accountID]))
	for id := range r.membership[accountID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (r *memRepo) isMember(accountID, clientID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.membership[accountID][clientID]
	return ok
}

// setStatus подменяет сохранённый статус в обход контроллера.
func (r *memRepo) setStatus(id string, status *models.PackageStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.clients[id]
	c.PackageStatus = status
	r.clients[id] = c
}

func (r *memRepo) stored(id string) models.Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *clone(r.clients[id])
}
