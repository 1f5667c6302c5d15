// Package mirror owns the in-memory copy of the remote collections.
//
// The store reconciles three input streams into one consistent mapping
// per collection: optimistic local writes, gateway results, and the
// asynchronous change-notification feed. Every mutation runs as one
// atomic step under the store lock; readers get copies and never see a
// half-applied change. No other component writes to the mirror.
package mirror

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/woorkia/nexus-business/domain"
	"github.com/woorkia/nexus-business/mapping"
	"github.com/woorkia/nexus-business/remote"
)

// Store is the single source of truth for mirrored collections in this
// process.
type Store struct {
	gw       remote.Gateway
	strategy FailureStrategy
	deduper  Deduper
	now      func() time.Time

	mu       sync.RWMutex
	tasks    map[string]domain.Task
	projects map[string]domain.Project
	events   map[string]domain.Event
	loaded   map[string]bool

	onChange func(collection string)
	subs     []remote.Subscription
}

// New creates a Store backed by the given gateway. A nil strategy
// defaults to LogDrift; a nil deduper disables notification-id dedup.
func New(gw remote.Gateway, strategy FailureStrategy, deduper Deduper) *Store {
	if gw == nil {
		panic("mirror.New: gateway is nil")
	}
	if strategy == nil {
		strategy = LogDrift{}
	}
	return &Store{
		gw:       gw,
		strategy: strategy,
		deduper:  deduper,
		now:      time.Now,
		tasks:    map[string]domain.Task{},
		projects: map[string]domain.Project{},
		events:   map[string]domain.Event{},
		loaded:   map[string]bool{},
	}
}

// OnChange registers a hook invoked after every mirror change. Set it
// before Start; it runs outside the store lock.
func (s *Store) OnChange(fn func(collection string)) {
	s.onChange = fn
}

func (s *Store) notify(collection string) {
	if s.onChange != nil {
		s.onChange(collection)
	}
}

// InitialLoad fetches every collection through the gateway and
// populates the mirror. It must complete before the mirror is
// considered readable; Loaded reports per-collection readiness.
func (s *Store) InitialLoad(ctx context.Context) error {
	for _, collection := range domain.Collections {
		records, err := s.gw.FetchAll(ctx, collection)
		if err != nil {
			return fmt.Errorf("initial load of %s: %w", collection, err)
		}
		s.populate(collection, records)
		s.notify(collection)
	}
	return nil
}

func (s *Store) populate(collection string, records []map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range records {
		mapped := mapping.ToMirror(collection, record)
		switch collection {
		case domain.CollectionTasks:
			t, err := domain.TaskFromRecord(mapped)
			if err != nil {
				log.WithError(err).WithField("collection", collection).Error("skipping unreadable row")
				continue
			}
			s.tasks[t.ID] = t
		case domain.CollectionProjects:
			p, err := domain.ProjectFromRecord(mapped)
			if err != nil {
				log.WithError(err).WithField("collection", collection).Error("skipping unreadable row")
				continue
			}
			s.projects[p.ID] = p
		case domain.CollectionEvents:
			e, err := domain.EventFromRecord(mapped)
			if err != nil {
				log.WithError(err).WithField("collection", collection).Error("skipping unreadable row")
				continue
			}
			s.events[e.ID] = e
		}
	}
	s.loaded[collection] = true
}

// Start performs the initial load and subscribes to every collection's
// notification feed. Stop releases the subscriptions.
func (s *Store) Start(ctx context.Context) error {
	if err := s.InitialLoad(ctx); err != nil {
		return err
	}
	for _, collection := range domain.Collections {
		sub, err := s.gw.Subscribe(ctx, collection, s.HandleNotification)
		if err != nil {
			s.Stop()
			return fmt.Errorf("subscribe %s: %w", collection, err)
		}
		s.subs = append(s.subs, sub)
	}
	return nil
}

// Stop unsubscribes from all notification feeds.
func (s *Store) Stop() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
}

// Loaded reports whether the collection's initial load has completed.
func (s *Store) Loaded(collection string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded[collection]
}

// Tasks returns a snapshot of the task mirror.
func (s *Store) Tasks() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	return out
}

// Task returns one task by id.
func (s *Store) Task(id string) (domain.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	return t, ok
}

// Projects returns a snapshot of the project mirror.
func (s *Store) Projects() []domain.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	return out
}

// Project returns one project by id.
func (s *Store) Project(id string) (domain.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	return p, ok
}

// Events returns a snapshot of the event mirror.
func (s *Store) Events() []domain.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	return out
}

// Event returns one event by id.
func (s *Store) Event(id string) (domain.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	return e, ok
}
