// Package engine runs the daemon's collectors and funnels their updates into
// the store through a single writer goroutine.
package engine

import (
	"context"

	"github.com/grovetools/projsync/internal/daemon/collector"
	"github.com/grovetools/projsync/internal/daemon/metrics"
	"github.com/grovetools/projsync/internal/daemon/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const updateBuffer = 100

// Engine owns the inventory store and the collectors that feed it.
type Engine struct {
	store      *store.Store
	collectors []collector.Collector
	logger     *logrus.Entry
}

func New(st *store.Store, logger *logrus.Entry) *Engine {
	return &Engine{store: st, logger: logger}
}

// Register adds c. It must be called before Start.
func (e *Engine) Register(c collector.Collector) {
	e.collectors = append(e.collectors, c)
}

// Start blocks until ctx is canceled and every collector has returned. A
// failing collector is logged and does not stop the others.
func (e *Engine) Start(ctx context.Context) {
	updates := make(chan store.Update, updateBuffer)
	var g errgroup.Group

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case u := <-updates:
				e.apply(u)
			}
		}
	})

	for _, c := range e.collectors {
		log := e.logger.WithField("collector", c.Name())
		g.Go(func() error {
			log.Info("Starting collector")
			if err := c.Run(ctx, e.store, updates); err != nil {
				log.WithError(err).Error("Collector failed")
			}
			return nil
		})
	}

	_ = g.Wait()
}

func (e *Engine) apply(u store.Update) {
	if !e.store.ApplyUpdate(u) {
		return
	}
	files := e.store.GetFiles()
	metrics.SetInventorySize(len(files), files.FileCount())
	e.logger.WithFields(logrus.Fields{
		"source":   u.Source,
		"type":     u.Type,
		"project":  u.ProjectID,
		"projects": len(files),
	}).Debug("Inventory changed")
}

// Store returns the store the engine writes to.
func (e *Engine) Store() *store.Store {
	return e.store
}
