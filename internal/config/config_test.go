package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickbau5/arp-monitor/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "arpmon.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[monitor]
hosts = 10.1.1.1, 10.1.1.2
vlans = 10,20
statefile = /var/lib/arpmon/arp.json

[SNMP]
community = secret
timeout = 3
retries = 2
version = 1

[polling]
interval = 2m

[syslog]
servers = 10.9.9.9,10.9.9.10:5514
severity = 4

[capture]
interface = eth0
mode = tcpdump
readtimeout = 30m
dhcp = true
`)

	c, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"10.1.1.1", "10.1.1.2"}, c.Hosts)
	assert.Equal(t, []int{10, 20}, c.VLANs)
	assert.Equal(t, "/var/lib/arpmon/arp.json", c.StateFile)
	assert.Equal(t, 0, c.MaxHistory)
	assert.Equal(t, "secret", c.Community)
	assert.Equal(t, 161, c.SNMPPort)
	assert.Equal(t, 3*time.Second, c.SNMPTimeout)
	assert.Equal(t, 2, c.SNMPRetries)
	assert.Equal(t, "1", c.SNMPVersion)
	assert.Equal(t, 2*time.Minute, c.Interval)
	assert.Equal(t, []string{"10.9.9.9", "10.9.9.10:5514"}, c.SyslogServers)
	assert.Equal(t, 4, c.SyslogSeverity)
	assert.Equal(t, 23, c.SyslogFacility)
	assert.Equal(t, "eth0", c.Interface)
	assert.Equal(t, "tcpdump", c.CaptureMode)
	assert.Equal(t, 30*time.Minute, c.ReadTimeout)
	assert.Equal(t, time.Minute, c.PersistInterval)
	assert.True(t, c.DHCP)
}

func TestLoad_Defaults(t *testing.T) {
	c, err := config.Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), c)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{name: "vlan not a number", content: "[monitor]\nvlans = 10,twenty\n"},
		{name: "bad interval", content: "[polling]\ninterval = soon\n"},
		{name: "negative interval", content: "[polling]\ninterval = -5\n"},
		{name: "bad retries", content: "[snmp]\nretries = many\n"},
		{name: "unsupported version", content: "[snmp]\nversion = 3\n"},
		{name: "severity out of range", content: "[syslog]\nseverity = 9\n"},
		{name: "bad bool", content: "[capture]\ndhcp = maybe\n"},
		{name: "bad mode", content: "[capture]\nmode = ebpf\n"},
		{name: "not ini", content: "[monitor\nhosts"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tc.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.ini"))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestValidateSNMP(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		valid   bool
	}{
		{
			name:    "hosts and vlans",
			content: "[monitor]\nhosts = 10.1.1.1\nvlans = 10\n",
			valid:   true,
		},
		{
			name:    "no hosts",
			content: "[monitor]\nvlans = 10\n",
		},
		{
			name:    "no vlans",
			content: "[monitor]\nhosts = 10.1.1.1\n",
		},
		{
			name:    "empty vlans",
			content: "[monitor]\nhosts = 10.1.1.1\nvlans =\n",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			c, err := config.Load(writeConfig(t, tc.content))
			require.NoError(t, err)

			err = c.ValidateSNMP()
			if tc.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}
