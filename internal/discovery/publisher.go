// Package discovery advertises the agent on the local network via mDNS/DNS-SD.
package discovery

import (
	"fmt"
	"net"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/grandcat/zeroconf"
	"github.com/sirupsen/logrus"
)

// Options describes the advertised service record
type Options struct {
	Instance string // Defaults to the short hostname
	Service  string // e.g. "_macmonitor._tcp"
	Domain   string // e.g. "local."
	Port     int
	Version  string
	Platform string // Defaults to runtime.GOOS
}

// registration is a live advertisement
type registration interface {
	Shutdown()
}

type registerFunc func(instance, service, domain string, port int, text []string, ifaces []net.Interface) (registration, error)

func zeroconfRegister(instance, service, domain string, port int, text []string, ifaces []net.Interface) (registration, error) {
	server, err := zeroconf.Register(instance, service, domain, port, text, ifaces)
	if err != nil {
		return nil, err
	}
	return server, nil
}

// Publisher owns one service advertisement
type Publisher struct {
	opts     Options
	log      logrus.FieldLogger
	register registerFunc

	mu     sync.Mutex
	server registration
}

// New creates a publisher; nothing is announced until Start
func New(opts Options, logger logrus.FieldLogger) *Publisher {
	if opts.Instance == "" {
		opts.Instance = InstanceName(hostname())
	}
	if opts.Platform == "" {
		opts.Platform = runtime.GOOS
	}

	return &Publisher{
		opts:     opts,
		log:      logger.WithField("component", "discovery"),
		register: zeroconfRegister,
	}
}

// Start announces the service. It does not retry on failure.
func (p *Publisher) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.server != nil {
		return fmt.Errorf("service already published")
	}

	server, err := p.register(p.opts.Instance, p.opts.Service, p.opts.Domain, p.opts.Port, p.txtRecords(), nil)
	if err != nil {
		return fmt.Errorf("failed to publish %s service: %w", p.opts.Service, err)
	}
	p.server = server

	p.log.WithFields(logrus.Fields{
		"instance": p.opts.Instance,
		"service":  p.opts.Service + "." + p.opts.Domain,
		"port":     p.opts.Port,
	}).Info("Bonjour service published")

	return nil
}

// Stop withdraws the advertisement and closes the responder
func (p *Publisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.server == nil {
		return
	}
	p.server.Shutdown()
	p.server = nil

	p.log.Info("Bonjour service stopped")
}

// Active reports whether the service is currently advertised
func (p *Publisher) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.server != nil
}

func (p *Publisher) txtRecords() []string {
	return []string{
		"version=" + p.opts.Version,
		"platform=" + p.opts.Platform,
	}
}

// InstanceName derives a DNS-SD instance name from a hostname by
// dropping the domain part ("studio.local" -> "studio").
func InstanceName(host string) string {
	host = strings.TrimSuffix(strings.TrimSpace(host), ".")
	if i := strings.IndexByte(host, '.'); i > 0 {
		host = host[:i]
	}
	if host == "" {
		return "macmonitor"
	}
	return host
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return ""
	}
	return name
}
