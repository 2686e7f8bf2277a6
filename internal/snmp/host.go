// Package snmp collects ARP bindings from routers by walking their IP-MIB neighbour table.
package snmp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/gosnmp/gosnmp"
)

const (
	DefaultPort      = 161
	DefaultTimeout   = 5 * time.Second
	DefaultRetries   = 1
	DefaultCommunity = "public"

	maxRepetitions = 20
)

var (
	ErrUnsupportedVersion = errors.New("unsupported SNMP version")
	ErrScopeResolution    = errors.New("failed resolving monitored interfaces")
)

// Params are the transport settings shared by every polled host.
type Params struct {
	Community string
	Port      uint16
	Timeout   time.Duration
	Retries   int
	// Version is "1" or "2c".
	Version string
}

// walker is the subset of *gosnmp.GoSNMP used by Host.
type walker interface {
	BulkWalkAll(rootOid string) ([]gosnmp.SnmpPDU, error)
	WalkAll(rootOid string) ([]gosnmp.SnmpPDU, error)
}

// Host binds a router address to its SNMP session and the interfaces monitored on it.
type Host struct {
	Address string
	Scope   Scope

	walker walker
	bulk   bool
	close  func() error
	logger logr.Logger
}

// Dial opens an SNMP session to address. The session is bound to ctx for its whole lifetime.
func Dial(ctx context.Context, address string, params Params, logger logr.Logger) (*Host, error) {
	client := &gosnmp.GoSNMP{
		Context:        ctx,
		Target:         address,
		Port:           params.Port,
		Community:      params.Community,
		Timeout:        params.Timeout,
		Retries:        params.Retries,
		MaxOids:        gosnmp.MaxOids,
		MaxRepetitions: maxRepetitions,
	}
	if client.Port == 0 {
		client.Port = DefaultPort
	}
	if client.Community == "" {
		client.Community = DefaultCommunity
	}
	if client.Timeout <= 0 {
		client.Timeout = DefaultTimeout
	}

	switch params.Version {
	case "1":
		client.Version = gosnmp.Version1
	case "", "2c":
		client.Version = gosnmp.Version2c
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, params.Version)
	}

	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", address, err)
	}

	h := newHost(address, client, client.Version != gosnmp.Version1, logger)
	h.close = client.Conn.Close
	return h, nil
}

func newHost(address string, w walker, bulk bool, logger logr.Logger) *Host {
	return &Host{
		Address: address,
		walker:  w,
		bulk:    bulk,
		close:   func() error { return nil },
		logger:  logger.WithValues("host", address),
	}
}

// Close releases the SNMP session.
func (h *Host) Close() error {
	return h.close()
}

func (h *Host) walk(oid string) ([]gosnmp.SnmpPDU, error) {
	if h.bulk {
		return h.walker.BulkWalkAll(oid)
	}
	return h.walker.WalkAll(oid)
}
