package discovery

import (
	"errors"
	"net"
	"runtime"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistration struct {
	shutdowns int
}

func (f *fakeRegistration) Shutdown() { f.shutdowns++ }

type registerCall struct {
	instance, service, domain string
	port                      int
	text                      []string
}

func newTestPublisher(opts Options) (*Publisher, *[]registerCall, *fakeRegistration) {
	logger, _ := test.NewNullLogger()
	p := New(opts, logger)

	var calls []registerCall
	reg := &fakeRegistration{}
	p.register = func(instance, service, domain string, port int, text []string, _ []net.Interface) (registration, error) {
		calls = append(calls, registerCall{instance, service, domain, port, text})
		return reg, nil
	}
	return p, &calls, reg
}

func TestPublisher_StartStop(t *testing.T) {
	p, calls, reg := newTestPublisher(Options{
		Instance: "studio",
		Service:  "_macmonitor._tcp",
		Domain:   "local.",
		Port:     8080,
		Version:  "1.0.0",
	})

	require.NoError(t, p.Start())
	assert.True(t, p.Active())

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "studio", call.instance)
	assert.Equal(t, "_macmonitor._tcp", call.service)
	assert.Equal(t, "local.", call.domain)
	assert.Equal(t, 8080, call.port)
	assert.ElementsMatch(t, []string{"version=1.0.0", "platform=" + runtime.GOOS}, call.text)

	p.Stop()
	assert.False(t, p.Active())
	assert.Equal(t, 1, reg.shutdowns)

	// Second stop is a no-op
	p.Stop()
	assert.Equal(t, 1, reg.shutdowns)
}

func TestPublisher_StartTwice(t *testing.T) {
	p, calls, _ := newTestPublisher(Options{Instance: "x", Service: "_macmonitor._tcp", Domain: "local.", Port: 1})

	require.NoError(t, p.Start())
	assert.Error(t, p.Start())
	assert.Len(t, *calls, 1)
}

func TestPublisher_RegisterFailure(t *testing.T) {
	logger, _ := test.NewNullLogger()
	p := New(Options{Instance: "x", Service: "_macmonitor._tcp", Domain: "local.", Port: 1}, logger)
	p.register = func(string, string, string, int, []string, []net.Interface) (registration, error) {
		return nil, errors.New("no multicast interface")
	}

	err := p.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no multicast interface")
	assert.False(t, p.Active())

	// Stop without a live registration must not panic
	p.Stop()
}

func TestPublisher_DefaultsInstanceFromHostname(t *testing.T) {
	p, _, _ := newTestPublisher(Options{Service: "_macmonitor._tcp", Domain: "local."})

	assert.Equal(t, InstanceName(hostname()), p.opts.Instance)
	assert.NotEmpty(t, p.opts.Instance)
	assert.Equal(t, runtime.GOOS, p.opts.Platform)
}

func TestInstanceName(t *testing.T) {
	tests := map[string]string{
		"studio":              "studio",
		"studio.local":        "studio",
		"studio.local.":       "studio",
		"build-01.corp.acme.": "build-01",
		"  lab  ":             "lab",
		"":                    "macmonitor",
		".":                   "macmonitor",
	}

	for in, want := range tests {
		assert.Equal(t, want, InstanceName(in), "input %q", in)
	}
}
