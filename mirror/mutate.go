package mirror

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/woorkia/nexus-business/domain"
	"github.com/woorkia/nexus-business/mapping"
)

// CreateTask fills creation defaults and inserts the task remotely.
// The mirror is deliberately not touched here: the confirming INSERT
// notification is what finally adds the row, so a locally inserted
// copy can never race its own confirmation into a duplicate.
func (s *Store) CreateTask(ctx context.Context, t domain.Task) error {
	now := s.now()
	t.ApplyDefaults(now)
	t.NormalizeCompletion(now)
	return s.create(ctx, domain.CollectionTasks, t)
}

// CreateProject fills creation defaults and inserts the project
// remotely, without touching the mirror.
func (s *Store) CreateProject(ctx context.Context, p domain.Project) error {
	p.ApplyDefaults(s.now())
	return s.create(ctx, domain.CollectionProjects, p)
}

// CreateEvent fills creation defaults and inserts the event remotely,
// without touching the mirror.
func (s *Store) CreateEvent(ctx context.Context, e domain.Event) error {
	e.ApplyDefaults()
	return s.create(ctx, domain.CollectionEvents, e)
}

func (s *Store) create(ctx context.Context, collection string, entity any) error {
	record, err := domain.EntityRecord(entity)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", collection, err)
	}
	// The remote store assigns identity.
	delete(record, "id")
	if _, err := s.gw.Insert(ctx, collection, mapping.ToRemote(collection, record)); err != nil {
		s.strategy.WriteFailed(ctx, collection, "insert", "", err)
		return err
	}
	return nil
}

// UpdateTask applies a partial update to the mirror immediately, then
// sends it to the remote store. Updates are keyed by mirror field
// names; a nil value clears the field. Touching status keeps the
// completion timestamp consistent on both sides.
func (s *Store) UpdateTask(ctx context.Context, id string, updates map[string]any) error {
	s.mu.Lock()
	current, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		log.WithField("task", id).Debug("update for task missing from mirror, dropped")
		return nil
	}
	applied, err := domain.TaskWithUpdates(current, updates)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("apply task update: %w", err)
	}
	outbound := cloneUpdates(updates)
	if _, touched := updates["status"]; touched {
		applied.NormalizeCompletion(s.now())
		outbound["completedAt"] = applied.CompletedAt
	}
	s.tasks[id] = applied
	s.mu.Unlock()
	s.notify(domain.CollectionTasks)

	if err := s.gw.Update(ctx, domain.CollectionTasks, id, mapping.ToRemote(domain.CollectionTasks, outbound)); err != nil {
		s.strategy.WriteFailed(ctx, domain.CollectionTasks, "update", id, err)
		return err
	}
	return nil
}

// UpdateProject applies a partial update to the mirror immediately,
// then sends it to the remote store.
func (s *Store) UpdateProject(ctx context.Context, id string, updates map[string]any) error {
	s.mu.Lock()
	current, ok := s.projects[id]
	if !ok {
		s.mu.Unlock()
		log.WithField("project", id).Debug("update for project missing from mirror, dropped")
		return nil
	}
	applied, err := domain.ProjectWithUpdates(current, updates)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("apply project update: %w", err)
	}
	s.projects[id] = applied
	s.mu.Unlock()
	s.notify(domain.CollectionProjects)

	if err := s.gw.Update(ctx, domain.CollectionProjects, id, mapping.ToRemote(domain.CollectionProjects, cloneUpdates(updates))); err != nil {
		s.strategy.WriteFailed(ctx, domain.CollectionProjects, "update", id, err)
		return err
	}
	return nil
}

// UpdateEvent applies a partial update to the mirror immediately, then
// sends it to the remote store.
func (s *Store) UpdateEvent(ctx context.Context, id string, updates map[string]any) error {
	s.mu.Lock()
	current, ok := s.events[id]
	if !ok {
		s.mu.Unlock()
		log.WithField("event", id).Debug("update for event missing from mirror, dropped")
		return nil
	}
	applied, err := domain.EventWithUpdates(current, updates)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("apply event update: %w", err)
	}
	s.events[id] = applied
	s.mu.Unlock()
	s.notify(domain.CollectionEvents)

	if err := s.gw.Update(ctx, domain.CollectionEvents, id, mapping.ToRemote(domain.CollectionEvents, cloneUpdates(updates))); err != nil {
		s.strategy.WriteFailed(ctx, domain.CollectionEvents, "update", id, err)
		return err
	}
	return nil
}

// RemoveTask removes the task from the mirror immediately, then
// deletes it remotely. Removing an id the mirror does not hold is a
// no-op.
func (s *Store) RemoveTask(ctx context.Context, id string) error {
	return s.remove(ctx, domain.CollectionTasks, id)
}

// RemoveProject removes the project from the mirror immediately, then
// deletes it remotely. Mirrored tasks that pointed at the project are
// kept and keep their projectId (orphan-and-keep); local attachments
// are the caller's to clean up through the blob store.
func (s *Store) RemoveProject(ctx context.Context, id string) error {
	return s.remove(ctx, domain.CollectionProjects, id)
}

// RemoveEvent removes the event from the mirror immediately, then
// deletes it remotely.
func (s *Store) RemoveEvent(ctx context.Context, id string) error {
	return s.remove(ctx, domain.CollectionEvents, id)
}

func (s *Store) remove(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	if !s.deleteLocked(collection, id) {
		s.mu.Unlock()
		log.WithFields(log.Fields{"collection": collection, "id": id}).Debug("remove for id missing from mirror, dropped")
		return nil
	}
	s.mu.Unlock()
	s.notify(collection)

	if err := s.gw.Delete(ctx, collection, id); err != nil {
		s.strategy.WriteFailed(ctx, collection, "delete", id, err)
		return err
	}
	return nil
}

func (s *Store) deleteLocked(collection, id string) bool {
	switch collection {
	case domain.CollectionTasks:
		if _, ok := s.tasks[id]; !ok {
			return false
		}
		delete(s.tasks, id)
	case domain.CollectionProjects:
		if _, ok := s.projects[id]; !ok {
			return false
		}
		delete(s.projects, id)
	case domain.CollectionEvents:
		if _, ok := s.events[id]; !ok {
			return false
		}
		delete(s.events, id)
	default:
		return false
	}
	return true
}

func cloneUpdates(updates map[string]any) map[string]any {
	out := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		out[k] = v
	}
	return out
}
