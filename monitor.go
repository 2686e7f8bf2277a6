package arpmonitor

import (
	"log"
	"net"
	"sync"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/irai/packet"
)

// Alerter delivers a Change to an external destination. Implementations must not block for long and must swallow
// their own delivery failures.
type Alerter interface {
	Alert(change Change)
}

// Monitor classifies observations against a History. It is the only writer of the history it wraps.
type Monitor struct {
	history *History
	changes chan Change

	// serializes read-compare-append so a Changed decision is never made on a stale last entry
	observeLock *sync.Mutex

	// configurable
	logger  logr.Logger
	alerter Alerter
}

func NewMonitor(history *History, options ...MonitorOption) *Monitor {
	m := &Monitor{
		history:     history,
		changes:     make(chan Change, 128),
		observeLock: &sync.Mutex{},

		logger: stdr.New(log.Default()),
	}

	for _, option := range options {
		option.apply(m)
	}

	return m
}

// History returns the history the monitor writes to.
func (m *Monitor) History() *History {
	return m.history
}

// Observe classifies b and applies it to the history:
//
//	unseen ip             -> New, mac appended
//	last mac equals mac   -> Unchanged, nothing written
//	last mac differs      -> Changed, mac appended and alert emitted
func (m *Monitor) Observe(b Binding) Classification {
	if b.IP == "" || b.MAC == "" {
		return Unclassified
	}

	m.observeLock.Lock()
	last, ok := m.history.Last(b.IP)
	if !ok || last != b.MAC {
		m.history.Append(b.IP, b.MAC)
	}
	m.observeLock.Unlock()

	if !ok {
		m.logger.Info("new ARP entry found", "ip", b.IP, "mac", b.MAC)
		return New
	}

	if last == b.MAC {
		m.logger.V(2).Info("ARP entry unchanged", "ip", b.IP, "mac", b.MAC)
		return Unchanged
	}

	change := Change{
		IP:          b.IP,
		PreviousMAC: last,
		MAC:         b.MAC,
		ObservedAt:  b.ObservedAt,
	}
	m.logger.Error(nil, change.Message(), "ip", b.IP, "previousMac", last, "mac", b.MAC,
		"manufacturer", manufacturer(b.MAC))

	// observeLock is released, alerters may call back into the monitor.
	if m.alerter != nil {
		m.alerter.Alert(change)
	}
	m.sendChange(change)

	return Changed
}

// ObserveAll classifies every binding in order and returns the counts.
func (m *Monitor) ObserveAll(bindings []Binding) Tally {
	var tally Tally
	for _, b := range bindings {
		tally.add(m.Observe(b))
	}
	return tally
}

// Save persists the current history. Observations are held off while the snapshot is taken.
func (m *Monitor) Save(path string) error {
	m.observeLock.Lock()
	snap := m.history.Snapshot()
	m.observeLock.Unlock()

	return WriteSnapshot(path, snap)
}

// Notifications streams every Changed classification. Changes are dropped when nobody keeps up with the channel.
func (m *Monitor) Notifications() <-chan Change {
	return m.changes
}

func (m *Monitor) sendChange(change Change) {
	select {
	case m.changes <- change:
	default:
		m.logger.V(1).Info("dropping change, notification channel full", "change", change)
	}
}

func manufacturer(mac string) string {
	hw, err := net.ParseMAC(mac)
	if err != nil {
		return "unknown"
	}

	name := packet.FindManufacturer(hw)
	if name == "" {
		return "unknown"
	}
	return name
}
