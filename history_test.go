package arpmonitor_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	arpmonitor "github.com/rickbau5/arp-monitor"
)

func TestHistory_AppendAndLast(t *testing.T) {
	h := arpmonitor.NewHistory()

	_, ok := h.Last("10.0.0.1")
	require.False(t, ok)
	assert.Nil(t, h.Entries("10.0.0.1"))

	h.Append("10.0.0.1", testMAC1)
	last, ok := h.Last("10.0.0.1")
	require.True(t, ok)
	assert.Equal(t, testMAC1, last)

	h.Append("10.0.0.1", testMAC2)
	last, _ = h.Last("10.0.0.1")
	assert.Equal(t, testMAC2, last)
	assert.Equal(t, []string{testMAC1, testMAC2}, h.Entries("10.0.0.1"))
	assert.Equal(t, 1, h.Len())
}

func TestHistory_SnapshotIsACopy(t *testing.T) {
	h := arpmonitor.NewHistory()
	h.Append("10.0.0.1", testMAC1)

	snap := h.Snapshot()
	snap["10.0.0.1"][0] = testMAC3
	snap["10.0.0.2"] = []string{testMAC2}

	assert.Equal(t, arpmonitor.Snapshot{"10.0.0.1": {testMAC1}}, h.Snapshot())
}

func TestHistory_MaxLen(t *testing.T) {
	h := arpmonitor.NewHistory(arpmonitor.HistoryMaxLenOption(2))

	h.Append("10.0.0.1", testMAC1)
	h.Append("10.0.0.1", testMAC2)
	h.Append("10.0.0.1", testMAC3)

	assert.Equal(t, []string{testMAC2, testMAC3}, h.Entries("10.0.0.1"))
	last, _ := h.Last("10.0.0.1")
	assert.Equal(t, testMAC3, last)
}

func TestLoadHistory_RoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		snap arpmonitor.Snapshot
	}{
		{
			name: "empty",
			snap: arpmonitor.Snapshot{},
		},
		{
			name: "single ip",
			snap: arpmonitor.Snapshot{"10.0.0.5": {testMAC1}},
		},
		{
			name: "multiple ips with multiple versions",
			snap: arpmonitor.Snapshot{
				"10.0.0.5":    {testMAC1, testMAC2, testMAC1},
				"10.0.0.6":    {testMAC3},
				"192.168.0.1": {testMAC2, testMAC3},
			},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "arp.json")

			h := arpmonitor.NewHistory()
			for ip, macs := range tc.snap {
				for _, mac := range macs {
					h.Append(ip, mac)
				}
			}

			require.NoError(t, h.Save(path))

			loaded, err := arpmonitor.LoadHistory(path)
			require.NoError(t, err)
			assert.Equal(t, h.Snapshot(), loaded.Snapshot())
			assert.Equal(t, tc.snap, loaded.Snapshot())
		})
	}
}

func TestLoadHistory_MissingFile(t *testing.T) {
	h, err := arpmonitor.LoadHistory(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, h.Len())
}

func TestLoadHistory_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arp.json")
	require.NoError(t, os.WriteFile(path, []byte("\n"), 0o644))

	h, err := arpmonitor.LoadHistory(path)
	require.NoError(t, err)
	assert.Equal(t, 0, h.Len())
}

func TestLoadHistory_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arp.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"10.0.0.1": "aa:aa`), 0o644))

	_, err := arpmonitor.LoadHistory(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, arpmonitor.ErrMalformedState)
}

func TestLoadHistory_SkipsEmptySequences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arp.json")
	data := `{"10.0.0.1": ["aa:aa:aa:aa:aa:aa", "bb:bb:bb:bb:bb:bb"], "10.0.0.2": []}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	h, err := arpmonitor.LoadHistory(path)
	require.NoError(t, err)
	assert.Equal(t, arpmonitor.Snapshot{"10.0.0.1": {testMAC1, testMAC2}}, h.Snapshot())
}

func TestWriteSnapshot_ReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arp.json")

	require.NoError(t, arpmonitor.WriteSnapshot(path, arpmonitor.Snapshot{"10.0.0.1": {testMAC1}}))
	require.NoError(t, arpmonitor.WriteSnapshot(path, arpmonitor.Snapshot{"10.0.0.1": {testMAC1, testMAC2}}))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1, "temporary files must not be left behind")

	h, err := arpmonitor.LoadHistory(path)
	require.NoError(t, err)
	assert.Equal(t, []string{testMAC1, testMAC2}, h.Entries("10.0.0.1"))
}

func TestWriteSnapshot_MissingDirectory(t *testing.T) {
	err := arpmonitor.WriteSnapshot(filepath.Join(t.TempDir(), "nope", "arp.json"), arpmonitor.Snapshot{})
	require.Error(t, err)
}

func TestLoadHistory_Unreadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arp.json")
	require.NoError(t, os.Mkdir(path, 0o755))

	_, err := arpmonitor.LoadHistory(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, arpmonitor.ErrMalformedState)
	assert.Contains(t, err.Error(), "reading state file")
}
