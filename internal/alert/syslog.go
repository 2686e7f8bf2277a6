// Package alert delivers changed bindings to syslog collectors.
package alert

import (
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"

	arpmonitor "github.com/rickbau5/arp-monitor"
)

const (
	DefaultPort     = 514
	DefaultSeverity = 3  // err
	DefaultFacility = 23 // local7

	writeTimeout = 2 * time.Second
)

// Priority encodes severity and facility the way the syslog PRI field does.
func Priority(severity, facility int) int {
	return severity + facility*8
}

// Syslog sends every alert as a single "<PRI>message" UDP datagram to each server. Delivery is best effort: a
// server that cannot be reached is logged and skipped.
type Syslog struct {
	servers  []string
	priority int
	logger   logr.Logger
}

type Option func(*Syslog)

func WithLogger(logger logr.Logger) Option {
	return func(s *Syslog) {
		s.logger = logger
	}
}

// NewSyslog validates servers, given as host or host:port, and returns a sink for them.
func NewSyslog(servers []string, severity, facility int, options ...Option) (*Syslog, error) {
	if severity < 0 || severity > 7 {
		return nil, fmt.Errorf("invalid syslog severity %d", severity)
	}
	if facility < 0 || facility > 23 {
		return nil, fmt.Errorf("invalid syslog facility %d", facility)
	}

	s := &Syslog{
		priority: Priority(severity, facility),
		logger:   stdr.New(log.Default()),
	}
	for _, option := range options {
		option(s)
	}

	for _, server := range servers {
		addr, err := withDefaultPort(server)
		if err != nil {
			return nil, err
		}
		s.servers = append(s.servers, addr)
	}

	return s, nil
}

func withDefaultPort(server string) (string, error) {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server, nil
	}
	if server == "" {
		return "", fmt.Errorf("empty syslog server")
	}
	return net.JoinHostPort(server, strconv.Itoa(DefaultPort)), nil
}

// Format renders the datagram payload for message.
func (s *Syslog) Format(message string) []byte {
	return []byte(fmt.Sprintf("<%d>%s", s.priority, message))
}

// Alert implements arpmonitor.Alerter.
func (s *Syslog) Alert(change arpmonitor.Change) {
	s.Send(change.Message())
}

// Send delivers message to every server independently.
func (s *Syslog) Send(message string) {
	data := s.Format(message)
	for _, server := range s.servers {
		if err := send(server, data); err != nil {
			s.logger.Error(err, "failed sending syslog alert", "server", server)
		}
	}
}

func send(server string, data []byte) error {
	conn, err := net.DialTimeout("udp", server, writeTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	_, err = conn.Write(data)
	return err
}
