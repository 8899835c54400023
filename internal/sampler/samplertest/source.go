// Package samplertest provides an in-memory sampler.Source for tests.
package samplertest

import (
	"context"
	"sync"
	"time"

	"github.com/monify-labs/macmonitor/internal/sampler"
)

// Source is a scripted sampler.Source. Zero-valued optional fields
// (Frequency, Temperature, Battery) report sampler.ErrUnavailable.
type Source struct {
	mu sync.Mutex

	Usage       float64
	Cores       int
	Frequency   *float64
	Temperature *float64
	Mem         sampler.MemoryReading
	DiskUsage   sampler.DiskReading
	Counters    sampler.NetworkCounters
	UptimeSecs  float64
	Procs       sampler.ProcessCounts
	Batt        *sampler.BatteryReading

	// Err, when set for a reading name, is returned instead of the value
	Err map[string]error

	NetworkReads int
	Windows      []time.Duration
}

// New returns a Source describing a healthy machine without sensors
func New() *Source {
	return &Source{
		Usage: 0.25,
		Cores: 8,
		Mem: sampler.MemoryReading{
			Total:       16 << 30,
			Used:        6 << 30,
			Available:   10 << 30,
			UsedPercent: 37.5,
		},
		DiskUsage: sampler.DiskReading{
			Total: 500 << 30,
			Free:  200 << 30,
		},
		Counters: sampler.NetworkCounters{
			BytesRecv:   1_000_000,
			BytesSent:   500_000,
			PacketsRecv: 1000,
			PacketsSent: 800,
		},
		UptimeSecs: 3600,
		Procs:      sampler.ProcessCounts{Processes: 300, Threads: 1200},
		Err:        make(map[string]error),
	}
}

// SetCounters replaces the network counters returned by the next read
func (s *Source) SetCounters(c sampler.NetworkCounters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Counters = c
}

// AddTraffic advances the network counters
func (s *Source) AddTraffic(recv, sent uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Counters.BytesRecv += recv
	s.Counters.BytesSent += sent
	s.Counters.PacketsRecv++
	s.Counters.PacketsSent++
}

// Fail makes the named reading return err
func (s *Source) Fail(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Err[name] = err
}

func (s *Source) err(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Err[name]
}

func (s *Source) CPUUsage(ctx context.Context, window time.Duration) (float64, error) {
	s.mu.Lock()
	s.Windows = append(s.Windows, window)
	s.mu.Unlock()
	if err := s.err("cpu"); err != nil {
		return 0, err
	}
	return s.Usage, nil
}

func (s *Source) CoreCount(ctx context.Context) (int, error) {
	if err := s.err("cores"); err != nil {
		return 0, err
	}
	return s.Cores, nil
}

func (s *Source) CPUFrequency(ctx context.Context) (float64, error) {
	if s.Frequency == nil {
		return 0, sampler.ErrUnavailable
	}
	return *s.Frequency, nil
}

func (s *Source) CPUTemperature(ctx context.Context) (float64, error) {
	if s.Temperature == nil {
		return 0, sampler.ErrUnavailable
	}
	return *s.Temperature, nil
}

func (s *Source) Memory(ctx context.Context) (sampler.MemoryReading, error) {
	if err := s.err("memory"); err != nil {
		return sampler.MemoryReading{}, err
	}
	return s.Mem, nil
}

func (s *Source) Disk(ctx context.Context, path string) (sampler.DiskReading, error) {
	if err := s.err("disk"); err != nil {
		return sampler.DiskReading{}, err
	}
	return s.DiskUsage, nil
}

func (s *Source) NetworkCounters(ctx context.Context) (sampler.NetworkCounters, error) {
	if err := s.err("network"); err != nil {
		return sampler.NetworkCounters{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NetworkReads++
	return s.Counters, nil
}

func (s *Source) Uptime(ctx context.Context) (float64, error) {
	if err := s.err("uptime"); err != nil {
		return 0, err
	}
	return s.UptimeSecs, nil
}

func (s *Source) Processes(ctx context.Context) (sampler.ProcessCounts, error) {
	if err := s.err("processes"); err != nil {
		return sampler.ProcessCounts{}, err
	}
	return s.Procs, nil
}

func (s *Source) Battery(ctx context.Context) (sampler.BatteryReading, error) {
	if s.Batt == nil {
		return sampler.BatteryReading{}, sampler.ErrUnavailable
	}
	return *s.Batt, nil
}

// Clock is a manually advanced time source
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock starting at t
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current fake time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d (or backwards when d < 0)
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
