package mirror

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/woorkia/nexus-business/domain"
	"github.com/woorkia/nexus-business/mapping"
)

// HandleNotification is the gateway's change handler. A payload that
// cannot be parsed is dropped and logged; nothing thrown here may stop
// the feed.
func (s *Store) HandleNotification(collection string, payload []byte) {
	ch, err := domain.ParseChange(payload)
	if err != nil {
		log.WithError(err).WithField("collection", collection).Error("dropping unreadable notification")
		return
	}
	s.ApplyChange(context.Background(), collection, ch)
}

// ApplyChange reconciles one change notification into the mirror.
//
// Inserts for an id already present are ignored: that entry is either
// our own confirmed write coming back around or a duplicate delivery.
// Updates replace the entry wholesale, or insert when the entry is
// missing. Deletes are idempotent. Per-entity order is the remote
// store's apply order; last applied wins.
func (s *Store) ApplyChange(ctx context.Context, collection string, ch domain.Change) {
	if s.deduper != nil && ch.ID != "" {
		fresh, err := s.deduper.Add(ctx, collection, ch.ID)
		if err != nil {
			// Dedup is best effort; mirror-presence checks below still
			// keep redelivered inserts out.
			log.WithError(err).WithField("change", ch.ID).Warn("notification dedup unavailable")
		} else if !fresh {
			log.WithField("change", ch.ID).Debug("duplicate notification delivery, dropped")
			return
		}
	}
	mapped := mapping.ToMirror(collection, ch.Record)
	if ch.EventType == domain.ChangeDelete {
		id, _ := mapped["id"].(string)
		if id == "" {
			log.WithField("collection", collection).Error("delete notification without id, dropped")
			return
		}
		s.mu.Lock()
		removed := s.deleteLocked(collection, id)
		s.mu.Unlock()
		if removed {
			s.notify(collection)
		}
		return
	}
	insertOnly := ch.EventType == domain.ChangeInsert
	switch collection {
	case domain.CollectionTasks:
		t, err := domain.TaskFromRecord(mapped)
		if err != nil {
			log.WithError(err).WithField("collection", collection).Error("dropping undecodable notification record")
			return
		}
		s.mu.Lock()
		if insertOnly {
			if _, exists := s.tasks[t.ID]; exists {
				s.mu.Unlock()
				return
			}
		}
		s.tasks[t.ID] = t
		s.mu.Unlock()
	case domain.CollectionProjects:
		p, err := domain.ProjectFromRecord(mapped)
		if err != nil {
			log.WithError(err).WithField("collection", collection).Error("dropping undecodable notification record")
			return
		}
		s.mu.Lock()
		if insertOnly {
			if _, exists := s.projects[p.ID]; exists {
				s.mu.Unlock()
				return
			}
		}
		s.projects[p.ID] = p
		s.mu.Unlock()
	case domain.CollectionEvents:
		e, err := domain.EventFromRecord(mapped)
		if err != nil {
			log.WithError(err).WithField("collection", collection).Error("dropping undecodable notification record")
			return
		}
		s.mu.Lock()
		if insertOnly {
			if _, exists := s.events[e.ID]; exists {
				s.mu.Unlock()
				return
			}
		}
		s.events[e.ID] = e
		s.mu.Unlock()
	default:
		log.WithField("collection", collection).Warn("notification for unknown collection, dropped")
		return
	}
	s.notify(collection)
}
