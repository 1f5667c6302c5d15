package mirror

import (
	"context"
	"fmt"
	"sync"

	"github.com/woorkia/nexus-business/remote"
)

type gatewayCall struct {
	collection string
	id         string
	record     map[string]any
}

type fakeSubscription struct {
	unsubscribed int
}

func (f *fakeSubscription) Unsubscribe() { f.unsubscribed++ }

type fakeGateway struct {
	mu       sync.Mutex
	rows     map[string][]map[string]any
	inserts  []gatewayCall
	updates  []gatewayCall
	deletes  []gatewayCall
	failWith error
	nextID   int
	subs     map[string]*fakeSubscription
	handlers map[string]remote.ChangeHandler
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		rows:     map[string][]map[string]any{},
		subs:     map[string]*fakeSubscription{},
		handlers: map[string]remote.ChangeHandler{},
	}
}

func (f *fakeGateway) FetchAll(ctx context.Context, collection string) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.rows[collection], nil
}

func (f *fakeGateway) Insert(ctx context.Context, collection string, record map[string]any) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.nextID++
	stored := map[string]any{"id": fmt.Sprintf("srv-%d", f.nextID)}
	for k, v := range record {
		stored[k] = v
	}
	f.inserts = append(f.inserts, gatewayCall{collection: collection, record: record})
	return stored, nil
}

func (f *fakeGateway) Update(ctx context.Context, collection, id string, updates map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.updates = append(f.updates, gatewayCall{collection: collection, id: id, record: updates})
	return nil
}

func (f *fakeGateway) Delete(ctx context.Context, collection, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.deletes = append(f.deletes, gatewayCall{collection: collection, id: id})
	return nil
}

func (f *fakeGateway) Subscribe(ctx context.Context, collection string, handler remote.ChangeHandler) (remote.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	sub := &fakeSubscription{}
	f.subs[collection] = sub
	f.handlers[collection] = handler
	return sub, nil
}

func (f *fakeGateway) lastInsert() (gatewayCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inserts) == 0 {
		return gatewayCall{}, false
	}
	return f.inserts[len(f.inserts)-1], true
}

func (f *fakeGateway) lastUpdate() (gatewayCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.updates) == 0 {
		return gatewayCall{}, false
	}
	return f.updates[len(f.updates)-1], true
}
