package arpmonitor

import (
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"
)

// Binding is a single observed IP to MAC association.
type Binding struct {
	IP         string
	MAC        string
	ObservedAt time.Time
}

// NewBinding normalizes ip and mac into a Binding observed now. IPv4-mapped IPv6 addresses are unmapped so the same
// host always keys the same history entry.
func NewBinding(ip netip.Addr, mac net.HardwareAddr) Binding {
	return Binding{
		IP:         ip.Unmap().String(),
		MAC:        strings.ToLower(mac.String()),
		ObservedAt: time.Now(),
	}
}

// ParseBinding parses textual ip and mac values into a normalized Binding.
func ParseBinding(ip, mac string) (Binding, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return Binding{}, fmt.Errorf("invalid ip %q: %w", ip, err)
	}

	hw, err := net.ParseMAC(mac)
	if err != nil {
		return Binding{}, fmt.Errorf("invalid mac %q: %w", mac, err)
	}

	return NewBinding(addr, hw), nil
}

func (b Binding) String() string {
	return fmt.Sprintf("ip=(%s) mac=(%s)", b.IP, b.MAC)
}

type Classification int

const (
	Unclassified Classification = iota
	New
	Unchanged
	Changed
)

func (c Classification) String() string {
	switch c {
	case New:
		return "new"
	case Unchanged:
		return "unchanged"
	case Changed:
		return "changed"
	default:
		return "unclassified"
	}
}

// Change describes an observation that replaced the last known MAC of an IP.
type Change struct {
	IP          string
	PreviousMAC string
	MAC         string
	ObservedAt  time.Time
}

// Message renders the alert line delivered to syslog.
func (c Change) Message() string {
	return fmt.Sprintf("ARP entry changed for %s: last %s, current %s", c.IP, c.PreviousMAC, c.MAC)
}

func (c Change) String() string {
	return fmt.Sprintf("ip=(%s) previousMac=(%s) mac=(%s) observedAt=(%s)",
		c.IP, c.PreviousMAC, c.MAC, c.ObservedAt.Format(time.RFC3339))
}

// Tally counts classifications over a batch of observations.
type Tally struct {
	New       int
	Unchanged int
	Changed   int
}

func (t *Tally) add(c Classification) {
	switch c {
	case New:
		t.New++
	case Unchanged:
		t.Unchanged++
	case Changed:
		t.Changed++
	}
}

func (t Tally) Total() int {
	return t.New + t.Unchanged + t.Changed
}
