package sampler_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/monify-labs/macmonitor/internal/sampler"
	"github.com/monify-labs/macmonitor/internal/sampler/samplertest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSampler(t *testing.T, src *samplertest.Source, clock *samplertest.Clock) *sampler.Sampler {
	t.Helper()
	logger, _ := test.NewNullLogger()
	return sampler.New(src, sampler.Options{
		CPUWindow: 10 * time.Millisecond,
		Now:       clock.Now,
	}, logger)
}

func TestSample_FirstCallWithoutInitializeYieldsZeroRates(t *testing.T) {
	src := samplertest.New()
	clock := samplertest.NewClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	s := newSampler(t, src, clock)

	snap := s.Sample(context.Background())

	assert.Zero(t, snap.Network.BytesIn)
	assert.Zero(t, snap.Network.BytesOut)
	assert.Equal(t, uint64(1000), snap.Network.PacketsIn)
	assert.Equal(t, uint64(800), snap.Network.PacketsOut)
}

func TestSample_FirstCallEstablishesBaseline(t *testing.T) {
	src := samplertest.New()
	clock := samplertest.NewClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	s := newSampler(t, src, clock)

	s.Sample(context.Background())
	clock.Advance(250 * time.Millisecond)
	src.AddTraffic(10_000, 5_000)

	snap := s.Sample(context.Background())
	assert.Equal(t, uint64(40_000), snap.Network.BytesIn)
	assert.Equal(t, uint64(20_000), snap.Network.BytesOut)
}

func TestSample_InitializeThenTwoSamples(t *testing.T) {
	src := samplertest.New()
	clock := samplertest.NewClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	s := newSampler(t, src, clock)
	ctx := context.Background()

	require.NoError(t, s.Initialize(ctx))

	clock.Advance(100 * time.Millisecond)
	src.AddTraffic(2_000, 1_000)
	first := s.Sample(ctx)
	assert.InDelta(t, 20_000, float64(first.Network.BytesIn), 1)
	assert.InDelta(t, 10_000, float64(first.Network.BytesOut), 1)

	clock.Advance(100 * time.Millisecond)
	src.AddTraffic(5_000, 3_000)
	second := s.Sample(ctx)
	assert.InDelta(t, 50_000, float64(second.Network.BytesIn), 1)
	assert.InDelta(t, 30_000, float64(second.Network.BytesOut), 1)
}

func TestSample_CounterResetClampsToZero(t *testing.T) {
	src := samplertest.New()
	clock := samplertest.NewClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	s := newSampler(t, src, clock)
	ctx := context.Background()

	require.NoError(t, s.Initialize(ctx))
	clock.Advance(time.Second)
	src.SetCounters(sampler.NetworkCounters{BytesRecv: 10, BytesSent: 10})

	snap := s.Sample(ctx)
	assert.Zero(t, snap.Network.BytesIn)
	assert.Zero(t, snap.Network.BytesOut)

	// The reset reading becomes the new baseline
	clock.Advance(time.Second)
	src.AddTraffic(1_000, 100)
	snap = s.Sample(ctx)
	assert.Equal(t, uint64(1_000), snap.Network.BytesIn)
	assert.Equal(t, uint64(100), snap.Network.BytesOut)
}

func TestSample_ClockSkewClampsToZero(t *testing.T) {
	src := samplertest.New()
	clock := samplertest.NewClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	s := newSampler(t, src, clock)
	ctx := context.Background()

	require.NoError(t, s.Initialize(ctx))

	t.Run("no elapsed time", func(t *testing.T) {
		src.AddTraffic(1_000, 1_000)
		snap := s.Sample(ctx)
		assert.Zero(t, snap.Network.BytesIn)
		assert.Zero(t, snap.Network.BytesOut)
	})

	t.Run("clock moved backwards", func(t *testing.T) {
		clock.Advance(-time.Minute)
		src.AddTraffic(1_000, 1_000)
		snap := s.Sample(ctx)
		assert.Zero(t, snap.Network.BytesIn)
		assert.Zero(t, snap.Network.BytesOut)
	})
}

func TestSample_NetworkFailureKeepsBaseline(t *testing.T) {
	src := samplertest.New()
	clock := samplertest.NewClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	s := newSampler(t, src, clock)
	ctx := context.Background()

	require.NoError(t, s.Initialize(ctx))

	src.Fail("network", errors.New("boom"))
	clock.Advance(time.Second)
	snap := s.Sample(ctx)
	assert.Zero(t, snap.Network)

	src.Fail("network", nil)
	clock.Advance(time.Second)
	src.AddTraffic(4_000, 2_000)
	snap = s.Sample(ctx)
	assert.Equal(t, uint64(2_000), snap.Network.BytesIn)
	assert.Equal(t, uint64(1_000), snap.Network.BytesOut)
}

func TestInitialize_PropagatesSourceError(t *testing.T) {
	src := samplertest.New()
	src.Fail("network", errors.New("no counters"))
	s := newSampler(t, src, samplertest.NewClock(time.Now()))

	assert.Error(t, s.Initialize(context.Background()))
}

func TestSample_NoBatteryOrSensorsReportsNull(t *testing.T) {
	src := samplertest.New()
	s := newSampler(t, src, samplertest.NewClock(time.Now()))

	snap := s.Sample(context.Background())

	assert.Nil(t, snap.BatteryLevel)
	assert.Nil(t, snap.IsCharging)
	assert.Nil(t, snap.CPU.Frequency)
	assert.Nil(t, snap.CPU.Temperature)
	assert.Nil(t, snap.Temperature)

	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"batteryLevel", "isCharging", "temperature"} {
		value, ok := decoded[key]
		assert.True(t, ok, "missing key %s", key)
		assert.Nil(t, value, "key %s", key)
	}
}

func TestSample_SensorsPresent(t *testing.T) {
	src := samplertest.New()
	freq, temp := 3.2, 54.5
	src.Frequency = &freq
	src.Temperature = &temp
	src.Batt = &sampler.BatteryReading{Level: 0.8, Charging: true}
	s := newSampler(t, src, samplertest.NewClock(time.Now()))

	snap := s.Sample(context.Background())

	require.NotNil(t, snap.CPU.Frequency)
	assert.Equal(t, 3.2, *snap.CPU.Frequency)
	require.NotNil(t, snap.CPU.Temperature)
	assert.Equal(t, 54.5, *snap.CPU.Temperature)
	require.NotNil(t, snap.Temperature)
	assert.Equal(t, 54.5, *snap.Temperature)
	require.NotNil(t, snap.BatteryLevel)
	assert.Equal(t, 0.8, *snap.BatteryLevel)
	require.NotNil(t, snap.IsCharging)
	assert.True(t, *snap.IsCharging)
}

func TestSample_ZeroFrequencyIsUnavailable(t *testing.T) {
	src := samplertest.New()
	zero := 0.0
	src.Frequency = &zero
	s := newSampler(t, src, samplertest.NewClock(time.Now()))

	assert.Nil(t, s.Sample(context.Background()).CPU.Frequency)
}

func TestSample_Invariants(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*samplertest.Source)
	}{
		{"healthy", func(*samplertest.Source) {}},
		{"usage above one", func(s *samplertest.Source) { s.Usage = 1.7 }},
		{"negative usage", func(s *samplertest.Source) { s.Usage = -0.2 }},
		{"used above total", func(s *samplertest.Source) {
			s.Mem = sampler.MemoryReading{Total: 100, Used: 150, Available: 0, UsedPercent: 150}
		}},
		{"disk free above total", func(s *samplertest.Source) {
			s.DiskUsage = sampler.DiskReading{Total: 100, Free: 120}
		}},
		{"threads below processes", func(s *samplertest.Source) {
			s.Procs = sampler.ProcessCounts{Processes: 50, Threads: 10}
		}},
		{"battery overcharged", func(s *samplertest.Source) {
			s.Batt = &sampler.BatteryReading{Level: 1.05}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := samplertest.New()
			tt.mutate(src)
			s := newSampler(t, src, samplertest.NewClock(time.Now()))

			snap := s.Sample(context.Background())

			assert.GreaterOrEqual(t, snap.CPU.Usage, 0.0)
			assert.LessOrEqual(t, snap.CPU.Usage, 1.0)
			assert.GreaterOrEqual(t, snap.Memory.Pressure, 0.0)
			assert.LessOrEqual(t, snap.Memory.Pressure, 1.0)
			assert.LessOrEqual(t, snap.Memory.Used, snap.Memory.Total)
			assert.Equal(t, snap.Disk.Total, snap.Disk.Used+snap.Disk.Free)
			assert.GreaterOrEqual(t, snap.ThreadCount, snap.ProcessCount)
			if snap.BatteryLevel != nil {
				assert.LessOrEqual(t, *snap.BatteryLevel, 1.0)
			}
		})
	}
}

func TestSample_ReservedDiskBlocksCountAsUsed(t *testing.T) {
	src := samplertest.New()
	src.DiskUsage = sampler.DiskReading{Total: 1000, Free: 300}
	s := newSampler(t, src, samplertest.NewClock(time.Now()))

	snap := s.Sample(context.Background())
	assert.Equal(t, uint64(1000), snap.Disk.Total)
	assert.Equal(t, uint64(700), snap.Disk.Used)
	assert.Equal(t, uint64(300), snap.Disk.Free)
}

func TestSample_MandatoryFailuresDegrade(t *testing.T) {
	src := samplertest.New()
	for _, name := range []string{"cpu", "cores", "memory", "disk", "uptime", "processes"} {
		src.Fail(name, errors.New("denied"))
	}
	logger, hook := test.NewNullLogger()
	s := sampler.New(src, sampler.Options{CPUWindow: time.Millisecond}, logger)

	snap := s.Sample(context.Background())

	require.NotNil(t, snap)
	assert.Zero(t, snap.CPU.Usage)
	assert.Zero(t, snap.Memory)
	assert.Zero(t, snap.Disk)
	assert.Equal(t, 1, snap.ProcessCount, "the sampler's own process is always counted")
	assert.Equal(t, 1, snap.ThreadCount)
	assert.NotEmpty(t, snap.Timestamp)

	warnings := 0
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 6, warnings)
}

func TestSample_StaticFactsAreStable(t *testing.T) {
	src := samplertest.New()
	s := newSampler(t, src, samplertest.NewClock(time.Now()))
	ctx := context.Background()

	first := s.Sample(ctx)
	second := s.Sample(ctx)

	assert.Equal(t, first.CPU.CoreCount, second.CPU.CoreCount)
	assert.Equal(t, first.Memory.Total, second.Memory.Total)
	assert.Equal(t, first.Disk.Total, second.Disk.Total)
}

func TestSample_TimestampsDiffer(t *testing.T) {
	src := samplertest.New()
	clock := samplertest.NewClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	s := newSampler(t, src, clock)
	ctx := context.Background()

	first := s.Sample(ctx)
	clock.Advance(100 * time.Millisecond)
	second := s.Sample(ctx)

	assert.NotEqual(t, first.Timestamp, second.Timestamp)
	assert.Equal(t, "2025-01-01T12:00:00.000000Z", first.Timestamp)
	assert.Equal(t, "2025-01-01T12:00:00.100000Z", second.Timestamp)
}

func TestSample_UsesConfiguredWindow(t *testing.T) {
	src := samplertest.New()
	logger, _ := test.NewNullLogger()
	s := sampler.New(src, sampler.Options{CPUWindow: 42 * time.Millisecond}, logger)

	s.Sample(context.Background())
	require.Len(t, src.Windows, 1)
	assert.Equal(t, 42*time.Millisecond, src.Windows[0])
}

func TestSample_DefaultWindow(t *testing.T) {
	src := samplertest.New()
	logger, _ := test.NewNullLogger()
	s := sampler.New(src, sampler.Options{}, logger)

	s.Sample(context.Background())
	require.Len(t, src.Windows, 1)
	assert.Equal(t, sampler.DefaultCPUWindow, src.Windows[0])
}

func TestSample_ConcurrentCallersSerializeRateState(t *testing.T) {
	src := samplertest.New()
	clock := samplertest.NewClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	s := newSampler(t, src, clock)
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Advance(10 * time.Millisecond)
			src.AddTraffic(100, 100)
			snap := s.Sample(ctx)
			// Each read is at most 20 increments of 100 bytes over >= 10ms
			assert.LessOrEqual(t, snap.Network.BytesIn, uint64(2_000_000))
		}()
	}
	wg.Wait()

	assert.Equal(t, 21, src.NetworkReads)
}

func TestSample_EmptyProcessListKeepsFloor(t *testing.T) {
	src := samplertest.New()
	src.Procs = sampler.ProcessCounts{}
	s := newSampler(t, src, samplertest.NewClock(time.Now()))

	snap := s.Sample(context.Background())

	assert.Equal(t, 1, snap.ProcessCount)
	assert.GreaterOrEqual(t, snap.ThreadCount, snap.ProcessCount)
}
