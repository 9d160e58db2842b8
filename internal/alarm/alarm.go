// Package alarm fires notifications for items whose deadline has passed.
package alarm

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rcliao/kai/internal/model"
	"github.com/rcliao/kai/internal/store"
)

// FiredTag marks an item whose alarm has already been delivered.
const FiredTag = "alarma-disparada"

// DefaultInterval is the polling period of Run.
const DefaultInterval = time.Minute

// batch bounds how many due items one check handles.
const batch = 500

// Notifier delivers one alarm.
type Notifier interface {
	Notify(ctx context.Context, it model.Item) error
}

// NotifyFunc adapts a function to Notifier.
type NotifyFunc func(ctx context.Context, it model.Item) error

func (f NotifyFunc) Notify(ctx context.Context, it model.Item) error { return f(ctx, it) }

// Checker polls the store for due items.
type Checker struct {
	store    store.Store
	notifier Notifier
	log      logrus.FieldLogger
}

func NewChecker(s store.Store, n Notifier, log logrus.FieldLogger) *Checker {
	return &Checker{store: s, notifier: n, log: log}
}

// Check notifies every item due at or before now that has not fired yet,
// then tags it with FiredTag. It returns the number of alarms fired.
func (c *Checker) Check(ctx context.Context, now time.Time) (int, error) {
	items, err := c.store.List(ctx, store.ListParams{DueBefore: &now, Limit: batch})
	if err != nil {
		return 0, err
	}

	fired := 0
	for _, it := range items {
		if it.HasTag(FiredTag) {
			continue
		}
		log := c.log.WithField("item_id", it.ID)
		if err := c.notifier.Notify(ctx, it); err != nil {
			log.WithError(err).Warn("alarm notification failed")
			continue
		}
		tags := append(append([]string(nil), it.Tags...), FiredTag)
		if _, err := c.store.Update(ctx, it.ID, model.Patch{Tags: &tags}); err != nil {
			// The alarm will fire again on the next check.
			log.WithError(err).Warn("failed to mark alarm as fired")
			continue
		}
		fired++
	}
	return fired, nil
}

// Run checks once immediately and then every interval until ctx is done.
func (c *Checker) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := c.Check(ctx, time.Now()); err != nil && ctx.Err() == nil {
			c.log.WithError(err).Warn("alarm check failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
