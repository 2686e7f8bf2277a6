package arpmonitor

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrSourceClosed is returned by RunStream when the observation channel closes before ctx is done.
var ErrSourceClosed = errors.New("observation source closed")

const (
	DefaultReadTimeout     = time.Hour
	DefaultPersistInterval = time.Minute
)

// CycleResult is what a collector gathered from one source during a polling cycle. A non-nil Err marks the source
// as failed for this cycle only; the next cycle is its retry.
type CycleResult struct {
	Source   string
	Bindings []Binding
	Err      error
}

// Collector gathers bindings from every source it owns, once per call.
type Collector interface {
	Collect(ctx context.Context) []CycleResult
}

// CollectorFunc adapts a function to a Collector.
type CollectorFunc func(ctx context.Context) []CycleResult

func (f CollectorFunc) Collect(ctx context.Context) []CycleResult {
	return f(ctx)
}

type PollingConfig struct {
	Interval  time.Duration
	StateFile string
}

// RunPolling runs collection cycles separated by cfg.Interval until ctx is done. Each cycle feeds every successful
// result through the monitor and then persists the history. Per-source failures are logged and skipped; a failure
// to persist is returned. When ctx is cancelled the history is persisted one last time and nil is returned.
func RunPolling(ctx context.Context, m *Monitor, c Collector, cfg PollingConfig) error {
	m.logger.Info("start ARP monitoring", "interval", cfg.Interval, "stateFile", cfg.StateFile, "known", m.history.Len())

	for {
		for _, result := range c.Collect(ctx) {
			if result.Err != nil {
				m.logger.Error(result.Err, "failed collecting ARP entries", "source", result.Source)
				continue
			}

			tally := m.ObserveAll(result.Bindings)
			m.logger.Info("got ARP entries", "source", result.Source, "entries", len(result.Bindings),
				"new", tally.New, "unchanged", tally.Unchanged, "changed", tally.Changed)
		}

		if err := m.Save(cfg.StateFile); err != nil {
			return fmt.Errorf("persisting history: %w", err)
		}

		select {
		case <-ctx.Done():
			return stop(m, cfg.StateFile)
		case <-time.After(cfg.Interval):
		}
	}
}

type StreamConfig struct {
	// ReadTimeout is how long to wait for an observation before logging that the source is idle.
	ReadTimeout time.Duration
	// PersistInterval is how often the history is written while observations stream in.
	PersistInterval time.Duration
	StateFile       string
}

// RunStream classifies bindings as they arrive until ctx is done or the channel is closed. The history is persisted
// every cfg.PersistInterval and once more on exit.
func RunStream(ctx context.Context, m *Monitor, bindings <-chan Binding, cfg StreamConfig) error {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.PersistInterval <= 0 {
		cfg.PersistInterval = DefaultPersistInterval
	}

	m.logger.Info("start ARP monitoring", "readTimeout", cfg.ReadTimeout, "stateFile", cfg.StateFile, "known", m.history.Len())

	persist := time.NewTicker(cfg.PersistInterval)
	defer persist.Stop()

	idle := time.NewTimer(cfg.ReadTimeout)
	defer idle.Stop()

	var tally Tally
	for {
		select {
		case <-ctx.Done():
			return stop(m, cfg.StateFile)
		case b, ok := <-bindings:
			if !ok {
				if err := stop(m, cfg.StateFile); err != nil {
					return err
				}
				return ErrSourceClosed
			}
			tally.add(m.Observe(b))
			resetTimer(idle, cfg.ReadTimeout)
		case <-idle.C:
			m.logger.V(1).Info("no ARP traffic observed", "timeout", cfg.ReadTimeout)
			idle.Reset(cfg.ReadTimeout)
		case <-persist.C:
			m.logger.Info("observed ARP entries", "entries", tally.Total(),
				"new", tally.New, "unchanged", tally.Unchanged, "changed", tally.Changed)
			tally = Tally{}
			if err := m.Save(cfg.StateFile); err != nil {
				return fmt.Errorf("persisting history: %w", err)
			}
		}
	}
}

func stop(m *Monitor, stateFile string) error {
	if err := m.Save(stateFile); err != nil {
		return fmt.Errorf("persisting history on shutdown: %w", err)
	}
	m.logger.Info("ARP monitoring stopped", "known", m.history.Len())
	return nil
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
