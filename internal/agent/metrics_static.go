package agent

import (
	"context"
	"sync"
	"time"

	"github.com/monify-labs/macmonitor/internal/metrics/static"
	"github.com/monify-labs/macmonitor/pkg/models"
	"github.com/sirupsen/logrus"
)

const defaultInfoRefreshInterval = 1 * time.Hour

// InfoCollector caches host identification; it rarely changes
type InfoCollector struct {
	collect  func(ctx context.Context) (*models.SystemInfo, error)
	interval time.Duration
	log      logrus.FieldLogger

	mu          sync.RWMutex
	cache       *models.SystemInfo
	lastRefresh time.Time
}

// NewInfoCollector creates a collector refreshing every interval
func NewInfoCollector(interval time.Duration, logger logrus.FieldLogger) *InfoCollector {
	if interval <= 0 {
		interval = defaultInfoRefreshInterval
	}
	return &InfoCollector{
		collect:  static.CollectSystemInfo,
		interval: interval,
		log:      logger.WithField("component", "info"),
	}
}

// Info returns the cached system info, collecting it when stale.
// A failed refresh keeps serving the previous value.
func (c *InfoCollector) Info(ctx context.Context) (*models.SystemInfo, error) {
	if !c.ShouldRefresh() {
		return c.GetCached(), nil
	}

	info, err := c.collect(ctx)
	if err != nil {
		if cached := c.GetCached(); cached != nil {
			c.log.WithError(err).Warn("Failed to refresh system info, serving cached value")
			return cached, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.cache = info
	c.lastRefresh = time.Now()
	c.mu.Unlock()

	copied := *info
	return &copied, nil
}

// ShouldRefresh checks if the cached info is missing or stale
func (c *InfoCollector) ShouldRefresh() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// Force refresh if never collected
	if c.cache == nil {
		return true
	}

	return time.Since(c.lastRefresh) >= c.interval
}

// GetCached returns a copy of the cached info, or nil
func (c *InfoCollector) GetCached() *models.SystemInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cache == nil {
		return nil
	}
	copied := *c.cache
	return &copied
}
