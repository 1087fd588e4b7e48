package service

import (
	"context"
	"strings"
	"sync"

	"github.com/smallbiznis/possettle/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	log  *zap.Logger
	repo domain.Repository

	mu       sync.RWMutex
	loaded   bool
	products map[string]domain.Product

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(domain.Event)
}

func New(p Params) *Service {
	return &Service{
		log:  p.Log.Named("product.service"),
		repo: p.Repo,
		subs: make(map[int]func(domain.Event)),
	}
}

func (s *Service) Get(ctx context.Context, id string) (domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, domain.ErrInvalidID
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return domain.Product{}, err
	}

	s.mu.RLock()
	product, ok := s.products[id]
	s.mu.RUnlock()
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return product, nil
}

func (s *Service) Name(ctx context.Context, id string) string {
	product, err := s.Get(ctx, id)
	if err != nil || strings.TrimSpace(product.Name) == "" {
		return id
	}
	return product.Name
}

func (s *Service) Reload(ctx context.Context) error {
	items, err := s.repo.FindAll(ctx)
	if err != nil {
		s.log.Warn("catalog reload failed", zap.String("path", s.repo.Path()), zap.Error(err))
		s.notify(domain.Event{Err: err})
		return err
	}

	products := make(map[string]domain.Product, len(items))
	for _, item := range items {
		if item == nil || item.ID == "" {
			continue
		}
		products[item.ID] = *item
	}

	s.mu.Lock()
	s.products = products
	s.loaded = true
	s.mu.Unlock()

	s.log.Debug("catalog loaded", zap.Int("products", len(products)))
	s.notify(domain.Event{Products: len(products)})
	return nil
}

func (s *Service) Subscribe(fn func(domain.Event)) func() {
	if fn == nil {
		return func() {}
	}
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Service) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	return s.Reload(ctx)
}

func (s *Service) notify(event domain.Event) {
	s.subMu.Lock()
	subs := make([]func(domain.Event), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(event)
	}
}
