package sampler

import (
	"context"
	"sync"
	"time"

	"github.com/monify-labs/macmonitor/pkg/models"
	"github.com/sirupsen/logrus"
)

const (
	DefaultCPUWindow = 500 * time.Millisecond
	DefaultDiskPath  = "/"
)

// Options configures a Sampler
type Options struct {
	CPUWindow time.Duration // Observation window for CPU usage
	DiskPath  string        // Volume reported in Snapshot.Disk
	Now       func() time.Time
}

// Sampler turns raw OS counters into Snapshots and keeps the previous
// network reading needed to derive throughput.
type Sampler struct {
	source Source
	opts   Options
	log    logrus.FieldLogger

	mu    sync.Mutex
	state rateState
}

// New creates a sampler reading from source
func New(source Source, opts Options, logger logrus.FieldLogger) *Sampler {
	if opts.CPUWindow <= 0 {
		opts.CPUWindow = DefaultCPUWindow
	}
	if opts.DiskPath == "" {
		opts.DiskPath = DefaultDiskPath
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Sampler{
		source: source,
		opts:   opts,
		log:    logger.WithField("component", "sampler"),
	}
}

// Initialize records the baseline network counters so that the first
// Sample reports a real rate instead of zero.
func (s *Sampler) Initialize(ctx context.Context) error {
	counters, err := s.source.NetworkCounters(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.state = rateState{
		counters:    counters,
		at:          s.opts.Now(),
		initialized: true,
	}
	s.mu.Unlock()

	return nil
}

// Sample reads every metric and returns a fully populated Snapshot.
// It never fails: unsupported sensors are reported as nil and failed
// mandatory reads as zero values. Blocks for the CPU observation window.
func (s *Sampler) Sample(ctx context.Context) *models.Snapshot {
	start := s.opts.Now()
	snap := &models.Snapshot{
		Timestamp: start.Format(models.TimestampFormat),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex

	// CPU usage (blocks for the window)
	wg.Add(1)
	go func() {
		defer wg.Done()
		usage, err := s.source.CPUUsage(ctx, s.opts.CPUWindow)
		if err != nil {
			s.warn("cpu usage", err)
		}
		mu.Lock()
		snap.CPU.Usage = clampFraction(usage)
		mu.Unlock()
	}()

	// Everything else is instant; read sequentially while the window runs
	wg.Add(1)
	go func() {
		defer wg.Done()

		cores, err := s.source.CoreCount(ctx)
		if err != nil {
			s.warn("core count", err)
		}
		freqGHz, err := positive(s.source.CPUFrequency(ctx))
		freq := s.optional("cpu frequency", freqGHz, err)
		celsius, err := s.source.CPUTemperature(ctx)
		temp := s.optional("cpu temperature", celsius, err)
		memory := s.memory(ctx)
		disk := s.disk(ctx)
		uptime, err := s.source.Uptime(ctx)
		if err != nil {
			s.warn("uptime", err)
		}
		procs := s.processes(ctx)
		level, charging := s.battery(ctx)

		mu.Lock()
		defer mu.Unlock()
		snap.CPU.CoreCount = cores
		snap.CPU.Frequency = freq
		snap.CPU.Temperature = temp
		snap.Temperature = temp
		snap.Memory = memory
		snap.Disk = disk
		snap.Uptime = uptime
		snap.ProcessCount = procs.Processes
		snap.ThreadCount = procs.Threads
		snap.BatteryLevel = level
		snap.IsCharging = charging
	}()

	network := s.network(ctx)
	wg.Wait()

	snap.Network = network
	return snap
}

// network reads the counters and advances the rate state atomically
func (s *Sampler) network(ctx context.Context) models.NetworkMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	counters, err := s.source.NetworkCounters(ctx)
	if err != nil {
		// Keep the previous baseline; the next good read measures against it
		s.warn("network counters", err)
		return models.NetworkMetrics{}
	}
	now := s.opts.Now()

	result := models.NetworkMetrics{
		PacketsIn:  counters.PacketsRecv,
		PacketsOut: counters.PacketsSent,
	}
	if s.state.initialized {
		elapsed := now.Sub(s.state.at)
		result.BytesIn = perSecond(s.state.counters.BytesRecv, counters.BytesRecv, elapsed)
		result.BytesOut = perSecond(s.state.counters.BytesSent, counters.BytesSent, elapsed)
	}

	s.state = rateState{
		counters:    counters,
		at:          now,
		initialized: true,
	}

	return result
}

func (s *Sampler) memory(ctx context.Context) models.MemoryMetrics {
	reading, err := s.source.Memory(ctx)
	if err != nil {
		s.warn("memory", err)
		return models.MemoryMetrics{}
	}

	used := reading.Used
	if used > reading.Total {
		used = reading.Total
	}
	free := reading.Available
	if free > reading.Total {
		free = reading.Total
	}

	return models.MemoryMetrics{
		Total:    reading.Total,
		Used:     used,
		Free:     free,
		Pressure: clampFraction(reading.UsedPercent / 100),
	}
}

func (s *Sampler) disk(ctx context.Context) models.DiskMetrics {
	reading, err := s.source.Disk(ctx, s.opts.DiskPath)
	if err != nil {
		s.warn("disk", err)
		return models.DiskMetrics{}
	}

	free := reading.Free
	if free > reading.Total {
		free = reading.Total
	}

	// Reserved blocks count as used so that used+free == total
	return models.DiskMetrics{
		Total: reading.Total,
		Used:  reading.Total - free,
		Free:  free,
	}
}

func (s *Sampler) processes(ctx context.Context) ProcessCounts {
	counts, err := s.source.Processes(ctx)
	if err != nil {
		s.warn("processes", err)
	}
	// The sampler itself is running, so there is at least one process
	if err != nil || counts.Processes < 1 {
		counts.Processes = 1
	}
	if counts.Threads < counts.Processes {
		counts.Threads = counts.Processes
	}
	return counts
}

func (s *Sampler) battery(ctx context.Context) (*float64, *bool) {
	reading, err := s.source.Battery(ctx)
	if err != nil {
		s.log.WithError(err).Debug("Battery unavailable")
		return nil, nil
	}
	level := clampFraction(reading.Level)
	charging := reading.Charging
	return &level, &charging
}

// optional logs a degraded read at debug level and returns nil for it
func (s *Sampler) optional(name string, v float64, err error) *float64 {
	if err != nil {
		s.log.WithError(err).WithField("reading", name).Debug("Reading unavailable")
	}
	return available(v, err)
}

func (s *Sampler) warn(name string, err error) {
	s.log.WithError(err).WithField("reading", name).Warn("Failed to read metric")
}

// positive treats a zero or negative reading as unavailable
func positive(v float64, err error) (float64, error) {
	if err == nil && v <= 0 {
		return 0, ErrUnavailable
	}
	return v, err
}
