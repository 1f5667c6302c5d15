package mirror

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// FailureStrategy decides what happens when a remote write fails after
// its optimistic local apply. The store never rolls back on its own;
// a stricter policy (revert, queue-and-retry) can be substituted here
// without touching the reconciliation logic.
type FailureStrategy interface {
	WriteFailed(ctx context.Context, collection, op, id string, err error)
}

// LogDrift is the default strategy: the failure is logged and the
// optimistic mirror state stands. Displayed state may drift from the
// remote store until the next notification or reload.
type LogDrift struct{}

func (LogDrift) WriteFailed(_ context.Context, collection, op, id string, err error) {
	log.WithError(err).WithFields(log.Fields{
		"collection": collection,
		"op":         op,
		"id":         id,
	}).Error("remote write failed, keeping optimistic mirror state")
}
