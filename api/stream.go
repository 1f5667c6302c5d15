package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/woorkia/nexus-business/domain"
	"github.com/woorkia/nexus-business/mirror"
)

type updateBroker struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func newUpdateBroker() *updateBroker {
	return &updateBroker{subs: make(map[chan struct{}]struct{})}
}

func (b *updateBroker) subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *updateBroker) unsubscribe(ch chan struct{}) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

func (b *updateBroker) notify() {
	b.mu.Lock()
	for ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	b.mu.Unlock()
}

type mirrorSnapshot struct {
	Tasks    []domain.Task    `json:"tasks"`
	Projects []domain.Project `json:"projects"`
	Events   []domain.Event   `json:"events"`
	Loaded   map[string]bool  `json:"loaded"`
}

func snapshot(store *mirror.Store) mirrorSnapshot {
	loaded := make(map[string]bool, len(domain.Collections))
	for _, collection := range domain.Collections {
		loaded[collection] = store.Loaded(collection)
	}
	return mirrorSnapshot{
		Tasks:    store.Tasks(),
		Projects: store.Projects(),
		Events:   store.Events(),
		Loaded:   loaded,
	}
}

// streamMirror pushes a fresh mirror snapshot to the client whenever
// the mirror changes, SSE-framed. The first frame is sent immediately
// so the UI renders without waiting for a change.
func streamMirror(store *mirror.Store, broker *updateBroker) echo.HandlerFunc {
	return func(c echo.Context) error {
		flusher, ok := c.Response().Writer.(http.Flusher)
		if !ok {
			return c.String(http.StatusInternalServerError, "streaming unsupported")
		}
		h := c.Response().Header()
		h.Set(echo.HeaderContentType, "text/event-stream")
		h.Set(echo.HeaderCacheControl, "no-cache")
		h.Set("Connection", "keep-alive")
		c.Response().WriteHeader(http.StatusOK)

		ctx := c.Request().Context()
		ch := broker.subscribe()
		defer broker.unsubscribe(ch)
		for {
			data, err := json.Marshal(snapshot(store))
			if err != nil {
				c.Logger().Error(err)
				return err
			}
			if _, err := c.Response().Write([]byte("data: ")); err != nil {
				return err
			}
			if _, err := c.Response().Write(data); err != nil {
				return err
			}
			if _, err := c.Response().Write([]byte("\n\n")); err != nil {
				return err
			}
			flusher.Flush()
			select {
			case <-ctx.Done():
				return nil
			case <-ch:
				continue
			}
		}
	}
}
