package agent

import (
	"context"
	"fmt"
	"net"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/monify-labs/macmonitor/internal/config"
	"github.com/monify-labs/macmonitor/internal/discovery"
	"github.com/monify-labs/macmonitor/internal/metrics/static"
	"github.com/monify-labs/macmonitor/internal/sampler"
	"github.com/monify-labs/macmonitor/internal/server"
	"github.com/monify-labs/macmonitor/pkg/models"
	"github.com/sirupsen/logrus"
)

// Publisher advertises the agent on the local network
type Publisher interface {
	Start() error
	Stop()
	Active() bool
}

// Agent owns the sampler, the HTTP server and the service advertisement
// for the lifetime of the process.
type Agent struct {
	cfg          *config.Config
	log          logrus.FieldLogger
	sampler      *sampler.Sampler
	refresher    *Refresher // nil when sampling per request
	info         *InfoCollector
	newPublisher func(port int) Publisher // nil when discovery is disabled

	samplesServed atomic.Uint64

	// State
	mu        sync.RWMutex
	running   bool
	stopping  bool
	hostname  string
	startTime time.Time
	server    *server.Server
	publisher Publisher
	stopChan  chan struct{}
}

// New creates an agent reading metrics from source
func New(cfg *config.Config, source sampler.Source, logger logrus.FieldLogger) *Agent {
	s := sampler.New(source, sampler.Options{
		CPUWindow: cfg.CPUWindow,
		DiskPath:  cfg.DiskPath,
	}, logger)

	a := &Agent{
		cfg:     cfg,
		log:     logger.WithField("component", "agent"),
		sampler: s,
		info:    NewInfoCollector(cfg.InfoRefreshInterval, logger),
	}

	if cfg.RefreshInterval > 0 {
		a.refresher = NewRefresher(s, cfg.RefreshInterval, logger)
	}

	if cfg.Discovery.Enabled {
		a.newPublisher = func(port int) Publisher {
			return discovery.New(discovery.Options{
				Instance: cfg.Discovery.Instance,
				Service:  config.ServiceType,
				Domain:   config.ServiceDomain,
				Port:     port,
				Version:  config.Version,
				Platform: runtime.GOOS,
			}, logger)
		}
	}

	return a
}

// Start runs the agent and blocks until ctx is cancelled, Stop is called
// or the HTTP server fails.
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("agent is already running")
	}
	a.running = true
	a.stopping = false
	a.startTime = time.Now()
	a.stopChan = make(chan struct{})
	stopChan := a.stopChan
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.running = false
		a.server = nil
		a.publisher = nil
		a.mu.Unlock()
	}()

	if err := a.sampler.Initialize(ctx); err != nil {
		a.log.WithError(err).Warn("Failed to read baseline network counters, first rates will be zero")
	}

	if a.refresher != nil {
		a.refresher.Start()
		defer a.refresher.Stop()
	}

	a.setHostname(a.resolveHostname(ctx))

	srv := server.New(server.Options{
		DashboardDir:   a.cfg.DashboardDir,
		StreamInterval: a.cfg.StreamInterval,
	}, a, a.info, a, a.log)

	if err := srv.Listen(a.cfg.Addr()); err != nil {
		return err
	}
	port := srv.Addr().(*net.TCPAddr).Port

	a.mu.Lock()
	a.server = srv
	a.mu.Unlock()

	a.log.WithFields(logrus.Fields{
		"hostname":  a.Hostname(),
		"addr":      srv.Addr().String(),
		"local_ips": static.LocalIPs(ctx),
		"version":   config.Version,
	}).Info("Agent starting")

	a.startDiscovery(port)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("Agent stopping: context cancelled")
	case <-stopChan:
		a.log.Info("Agent stopping: stop signal received")
	case err := <-serveErr:
		if err != nil {
			runErr = fmt.Errorf("http server failed: %w", err)
		}
	}

	a.shutdown(srv)
	return runErr
}

// Stop asks a running agent to shut down; Start returns once teardown is done
func (a *Agent) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running || a.stopping {
		return fmt.Errorf("agent is not running")
	}

	a.stopping = true
	close(a.stopChan)
	return nil
}

// shutdown withdraws the advertisement before closing the HTTP server
func (a *Agent) shutdown(srv *server.Server) {
	a.mu.RLock()
	publisher := a.publisher
	a.mu.RUnlock()

	if publisher != nil {
		publisher.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		a.log.WithError(err).Warn("HTTP server did not shut down cleanly")
	}

	a.log.Info("Agent stopped")
}

// startDiscovery advertises the bound port; failures never stop the agent
func (a *Agent) startDiscovery(port int) {
	if a.newPublisher == nil {
		a.log.Debug("Service discovery disabled")
		return
	}

	publisher := a.newPublisher(port)
	if err := publisher.Start(); err != nil {
		a.log.WithError(err).Warn("Service discovery unavailable, continuing without it")
	}

	a.mu.Lock()
	a.publisher = publisher
	a.mu.Unlock()
}

// Sample serves a snapshot from the refresher or a fresh sample
func (a *Agent) Sample(ctx context.Context) *models.Snapshot {
	a.samplesServed.Add(1)
	if a.refresher != nil {
		return a.refresher.Sample(ctx)
	}
	return a.sampler.Sample(ctx)
}

// Addr returns the bound HTTP address while the agent is running
func (a *Agent) Addr() net.Addr {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.server == nil {
		return nil
	}
	return a.server.Addr()
}

// Hostname returns the hostname resolved at startup
func (a *Agent) Hostname() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.hostname
}

func (a *Agent) setHostname(name string) {
	a.mu.Lock()
	a.hostname = name
	a.mu.Unlock()
}

func (a *Agent) resolveHostname(ctx context.Context) string {
	info, err := a.info.Info(ctx)
	if err == nil && info.Hostname != "" {
		return info.Hostname
	}
	if err != nil {
		a.log.WithError(err).Warn("Failed to collect initial system info")
	}

	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}

// Status returns the current status of the agent
func (a *Agent) Status() *models.AgentStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()

	status := "stopped"
	if a.running {
		status = "running"
	}

	uptime := uint64(0)
	if a.running && !a.startTime.IsZero() {
		uptime = uint64(time.Since(a.startTime).Seconds())
	}

	return &models.AgentStatus{
		Hostname:        a.hostname,
		Version:         config.Version,
		Uptime:          uptime,
		StartedAt:       a.startTime,
		SamplesServed:   a.samplesServed.Load(),
		DiscoveryActive: a.publisher != nil && a.publisher.Active(),
		Status:          status,
	}
}
