package agent

import (
	"context"
	"sync"
	"time"

	"github.com/monify-labs/macmonitor/pkg/models"
	"github.com/sirupsen/logrus"
)

type snapshotSampler interface {
	Sample(ctx context.Context) *models.Snapshot
}

// Refresher samples in the background and serves the latest snapshot,
// so request latency no longer includes the CPU observation window.
type Refresher struct {
	sampler  snapshotSampler
	interval time.Duration
	log      logrus.FieldLogger

	mu       sync.RWMutex
	latest   *models.Snapshot
	latestAt time.Time
	stopChan chan struct{} // nil while stopped

	wg sync.WaitGroup
}

// NewRefresher creates a refresher sampling every interval
func NewRefresher(s snapshotSampler, interval time.Duration, logger logrus.FieldLogger) *Refresher {
	return &Refresher{
		sampler:  s,
		interval: interval,
		log:      logger.WithField("component", "refresher"),
	}
}

// Start begins background sampling. It may be called again after Stop.
func (r *Refresher) Start() {
	r.mu.Lock()
	if r.stopChan != nil {
		r.mu.Unlock()
		return
	}
	stopChan := make(chan struct{})
	r.stopChan = stopChan
	r.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.refresh(ctx)
		for {
			select {
			case <-stopChan:
				return
			case <-ticker.C:
				r.refresh(ctx)
			}
		}
	}()

	// Abort an in-flight sample on Stop
	go func() {
		select {
		case <-stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	r.log.WithField("interval", r.interval.String()).Debug("Background sampling started")
}

// Stop halts background sampling and waits for the loop to exit
func (r *Refresher) Stop() {
	r.mu.Lock()
	if r.stopChan != nil {
		close(r.stopChan)
		r.stopChan = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
}

// Sample returns the latest snapshot, sampling synchronously if none exists yet
func (r *Refresher) Sample(ctx context.Context) *models.Snapshot {
	r.mu.RLock()
	latest := r.latest
	r.mu.RUnlock()

	if latest != nil {
		return latest
	}
	return r.store(r.sampler.Sample(ctx))
}

func (r *Refresher) refresh(ctx context.Context) {
	snap := r.sampler.Sample(ctx)
	if ctx.Err() != nil {
		return
	}
	r.store(snap)
}

// store keeps snap unless a newer snapshot is already cached. Timestamps
// carry the local offset, so they are compared as instants, not strings.
func (r *Refresher) store(snap *models.Snapshot) *models.Snapshot {
	at, err := time.Parse(models.TimestampFormat, snap.Timestamp)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.latest == nil || err != nil || !at.Before(r.latestAt) {
		r.latest = snap
		r.latestAt = at
	}
	return r.latest
}
