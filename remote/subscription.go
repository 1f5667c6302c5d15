package remote

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Subscription is a live change-notification feed for one collection.
// Unsubscribe must be called when the consumer is torn down so a
// notification can never mutate a mirror nobody owns. It is safe to
// call more than once.
type Subscription interface {
	Unsubscribe()
}

type pubsubSubscription struct {
	collection string
	cancel     context.CancelFunc
	close      func() error
	done       chan struct{}
	once       sync.Once
}

func (s *pubsubSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		if err := s.close(); err != nil {
			log.WithError(err).WithField("collection", s.collection).Warn("close pubsub")
		}
		<-s.done
	})
}

// Subscribe starts listening on the collection's notification channel.
// Payloads are handed to the handler one at a time, preserving the
// order the remote store published them.
func (c *Client) Subscribe(ctx context.Context, collection string, handler ChangeHandler) (Subscription, error) {
	pubsub := c.redis.Subscribe(ctx, c.channelPrefix+collection)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	sub := &pubsubSubscription{
		collection: collection,
		cancel:     cancel,
		close:      pubsub.Close,
		done:       make(chan struct{}),
	}
	go func() {
		defer close(sub.done)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler(collection, []byte(msg.Payload))
			}
		}
	}()
	return sub, nil
}
