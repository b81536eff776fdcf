package services_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	customerrors "github.com/axellelanca/trackit/internal/errors"
	"github.com/axellelanca/trackit/internal/models"
)

var errStoreDown = errors.New("store down")

// memStore is an in-memory VisitStore with switchable failures.
type memStore struct {
	mu      sync.Mutex
	visits  []models.Visit
	nextID  uint64
	dropped bool
	fail    bool
	block   bool
	now     func() time.Time

	deleteAllCalls int
	dropCalls      int
}

func newMemStore() *memStore {
	return &memStore{nextID: 1, now: time.Now}
}

func (s *memStore) err(op string) error {
	if s.fail || s.dropped {
		return customerrors.NewStorageError(op, errStoreDown)
	}
	return nil
}

func (s *memStore) Insert(ctx context.Context, sourceURL, customElement string) (uint64, error) {
	if s.block {
		<-ctx.Done()
		return 0, customerrors.NewStorageError("insert", ctx.Err())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err("insert"); err != nil {
		return 0, err
	}
	v := models.Visit{ID: s.nextID, VisitedAt: s.now().UTC().Truncate(time.Second), SourceURL: sourceURL, SourceCustomElement: customElement}
	s.nextID++
	s.visits = append(s.visits, v)
	return v.ID, nil
}

func (s *memStore) CountSince(_ context.Context, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err("count_since"); err != nil {
		return 0, err
	}
	since := s.now().UTC().Add(-window)
	var n int64
	for _, v := range s.visits {
		if v.VisitedAt.After(since) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CountAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err("count_all"); err != nil {
		return 0, err
	}
	return int64(len(s.visits)), nil
}

func (s *memStore) Page(_ context.Context, pageNumber, pageSize int) ([]models.Visit, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err("page"); err != nil {
		return nil, 0, err
	}
	out := []models.Visit{}
	if pageSize <= 0 || pageNumber-1 > (math.MaxInt-1)/pageSize {
		return out, int64(len(s.visits)), nil
	}
	start := pageSize * (pageNumber - 1)
	for i := len(s.visits) - 1 - start; i >= 0 && len(out) < pageSize; i-- {
		out = append(out, s.visits[i])
	}
	return out, int64(len(s.visits)), nil
}

func (s *memStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteAllCalls++
	if err := s.err("delete_all"); err != nil {
		return err
	}
	s.visits = nil
	s.nextID = 1
	return nil
}

func (s *memStore) Drop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropCalls++
	if s.fail {
		return customerrors.NewStorageError("drop", errStoreDown)
	}
	s.visits = nil
	s.dropped = true
	return nil
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visits)
}

// memOptions is an in-memory OptionRepository.
type memOptions struct {
	mu     sync.Mutex
	values map[string]string
	fail   bool
}

func newMemOptions() *memOptions {
	return &memOptions{values: map[string]string{}}
}

func (o *memOptions) Get(_ context.Context, name string) (string, bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail {
		return "", false, customerrors.NewStorageError("get_option", errStoreDown)
	}
	v, ok := o.values[name]
	return v, ok, nil
}

func (o *memOptions) Set(_ context.Context, name, value string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail {
		return customerrors.NewStorageError("set_option", errStoreDown)
	}
	o.values[name] = value
	return nil
}

func (o *memOptions) Delete(_ context.Context, names ...string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail {
		return customerrors.NewStorageError("delete_option", errStoreDown)
	}
	for _, n := range names {
		delete(o.values, n)
	}
	return nil
}
