package arpmonitor_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	arpmonitor "github.com/rickbau5/arp-monitor"
)

func TestRunPolling(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arp.json")
	m, alerter := newTestMonitor(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cycles := [][]arpmonitor.CycleResult{
		{
			{Source: "10.1.1.1", Bindings: []arpmonitor.Binding{mustBinding(t, "10.0.0.5", testMAC1)}},
			{Source: "10.1.1.2", Err: errors.New("request timeout")},
			{Source: "10.1.1.3", Bindings: []arpmonitor.Binding{mustBinding(t, "10.0.0.6", testMAC2)}},
		},
		{
			{Source: "10.1.1.1", Bindings: []arpmonitor.Binding{mustBinding(t, "10.0.0.5", testMAC3)}},
		},
	}

	var calls int
	collector := arpmonitor.CollectorFunc(func(context.Context) []arpmonitor.CycleResult {
		results := cycles[calls]
		calls++
		if calls == len(cycles) {
			cancel()
		}
		return results
	})

	err := arpmonitor.RunPolling(ctx, m, collector, arpmonitor.PollingConfig{
		Interval:  time.Millisecond,
		StateFile: path,
	})
	require.NoError(t, err)
	assert.Equal(t, len(cycles), calls)

	loaded, err := arpmonitor.LoadHistory(path)
	require.NoError(t, err)
	assert.Equal(t, arpmonitor.Snapshot{
		"10.0.0.5": {testMAC1, testMAC3},
		"10.0.0.6": {testMAC2},
	}, loaded.Snapshot())
	assert.Len(t, alerter.Changes(), 1)
}

func TestRunPolling_PersistFailureIsFatal(t *testing.T) {
	m, _ := newTestMonitor(t)

	collector := arpmonitor.CollectorFunc(func(context.Context) []arpmonitor.CycleResult {
		return nil
	})

	err := arpmonitor.RunPolling(context.Background(), m, collector, arpmonitor.PollingConfig{
		Interval:  time.Millisecond,
		StateFile: filepath.Join(t.TempDir(), "missing", "arp.json"),
	})
	require.Error(t, err)
}

func TestRunStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arp.json")
	m := arpmonitor.NewMonitor(arpmonitor.NewHistory(), arpmonitor.LoggerOption(testr.New(t)))

	bindings := make(chan arpmonitor.Binding, 4)
	bindings <- mustBinding(t, "10.0.0.5", testMAC1)
	bindings <- mustBinding(t, "10.0.0.5", testMAC1)
	bindings <- mustBinding(t, "10.0.0.5", testMAC2)
	bindings <- mustBinding(t, "10.0.0.7", testMAC3)
	close(bindings)

	err := arpmonitor.RunStream(context.Background(), m, bindings, arpmonitor.StreamConfig{
		ReadTimeout:     time.Millisecond,
		PersistInterval: time.Millisecond,
		StateFile:       path,
	})
	require.ErrorIs(t, err, arpmonitor.ErrSourceClosed)

	loaded, err := arpmonitor.LoadHistory(path)
	require.NoError(t, err)
	assert.Equal(t, arpmonitor.Snapshot{
		"10.0.0.5": {testMAC1, testMAC2},
		"10.0.0.7": {testMAC3},
	}, loaded.Snapshot())
}

func TestRunStream_StopsOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arp.json")
	m := arpmonitor.NewMonitor(arpmonitor.NewHistory(), arpmonitor.LoggerOption(testr.New(t)))

	ctx, cancel := context.WithCancel(context.Background())
	bindings := make(chan arpmonitor.Binding)

	done := make(chan error, 1)
	go func() {
		done <- arpmonitor.RunStream(ctx, m, bindings, arpmonitor.StreamConfig{StateFile: path})
	}()

	bindings <- mustBinding(t, "10.0.0.5", testMAC1)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("RunStream did not stop")
	}

	loaded, err := arpmonitor.LoadHistory(path)
	require.NoError(t, err)
	assert.Equal(t, arpmonitor.Snapshot{"10.0.0.5": {testMAC1}}, loaded.Snapshot())
}
