package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all application configuration
type Config struct {
	// [monitor]
	Hosts      []string
	VLANs      []int
	StateFile  string
	MaxHistory int

	// [snmp]
	Community   string
	SNMPPort    int
	SNMPTimeout time.Duration
	SNMPRetries int
	SNMPVersion string

	// [polling]
	Interval time.Duration

	// [syslog]
	SyslogServers  []string
	SyslogSeverity int
	SyslogFacility int

	// [capture]
	Interface       string
	CaptureMode     string
	ReadTimeout     time.Duration
	PersistInterval time.Duration
	DHCP            bool
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		StateFile:       "arp.json",
		Community:       "public",
		SNMPPort:        161,
		SNMPTimeout:     5 * time.Second,
		SNMPRetries:     1,
		SNMPVersion:     "2c",
		Interval:        60 * time.Second,
		SyslogSeverity:  3,
		SyslogFacility:  23,
		CaptureMode:     "pcap",
		ReadTimeout:     time.Hour,
		PersistInterval: time.Minute,
	}
}

// Load reads an INI file on top of the defaults. Absent keys keep their default, present keys that do not parse are
// reported as ErrInvalidConfig.
func Load(filename string) (*Config, error) {
	c := Default()
	if err := c.LoadFromFile(filename); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFromFile loads configuration from INI file
func (c *Config) LoadFromFile(filename string) error {
	cfg, err := ini.LoadSources(ini.LoadOptions{Insensitive: true}, filename)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, filename, err)
	}

	p := parser{}

	monitor := cfg.Section("monitor")
	c.Hosts = p.stringsValue(monitor, "hosts", c.Hosts)
	c.VLANs = p.intsValue(monitor, "vlans", c.VLANs)
	c.StateFile = p.stringValue(monitor, "statefile", c.StateFile)
	c.MaxHistory = p.intValue(monitor, "maxhistory", c.MaxHistory)

	snmp := cfg.Section("snmp")
	c.Community = p.stringValue(snmp, "community", c.Community)
	c.SNMPPort = p.intValue(snmp, "port", c.SNMPPort)
	c.SNMPTimeout = p.durationValue(snmp, "timeout", c.SNMPTimeout)
	c.SNMPRetries = p.intValue(snmp, "retries", c.SNMPRetries)
	c.SNMPVersion = p.stringValue(snmp, "version", c.SNMPVersion)

	c.Interval = p.durationValue(cfg.Section("polling"), "interval", c.Interval)

	syslog := cfg.Section("syslog")
	c.SyslogServers = p.stringsValue(syslog, "servers", c.SyslogServers)
	c.SyslogSeverity = p.intValue(syslog, "severity", c.SyslogSeverity)
	c.SyslogFacility = p.intValue(syslog, "facility", c.SyslogFacility)

	capture := cfg.Section("capture")
	c.Interface = p.stringValue(capture, "interface", c.Interface)
	c.CaptureMode = p.stringValue(capture, "mode", c.CaptureMode)
	c.ReadTimeout = p.durationValue(capture, "readtimeout", c.ReadTimeout)
	c.PersistInterval = p.durationValue(capture, "persistinterval", c.PersistInterval)
	c.DHCP = p.boolValue(capture, "dhcp", c.DHCP)

	if len(p.errs) > 0 {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, filename, errors.Join(p.errs...))
	}

	return c.Validate()
}

// Validate checks values that parse but make no sense.
func (c *Config) Validate() error {
	var errs []error
	if c.SNMPPort <= 0 || c.SNMPPort > 65535 {
		errs = append(errs, fmt.Errorf("snmp port %d out of range", c.SNMPPort))
	}
	if c.SNMPVersion != "1" && c.SNMPVersion != "2c" {
		errs = append(errs, fmt.Errorf("snmp version %q not supported", c.SNMPVersion))
	}
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("polling interval must be positive"))
	}
	if c.SyslogSeverity < 0 || c.SyslogSeverity > 7 {
		errs = append(errs, fmt.Errorf("syslog severity %d out of range", c.SyslogSeverity))
	}
	if c.SyslogFacility < 0 || c.SyslogFacility > 23 {
		errs = append(errs, fmt.Errorf("syslog facility %d out of range", c.SyslogFacility))
	}
	if c.CaptureMode != "pcap" && c.CaptureMode != "tcpdump" {
		errs = append(errs, fmt.Errorf("capture mode %q not supported", c.CaptureMode))
	}
	if c.StateFile == "" {
		errs = append(errs, fmt.Errorf("statefile must be set"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// ValidateSNMP checks the settings only the SNMP poller needs. Without vlans no neighbour can ever match.
func (c *Config) ValidateSNMP() error {
	var errs []error
	if len(c.Hosts) == 0 {
		errs = append(errs, fmt.Errorf("no hosts configured"))
	}
	if len(c.VLANs) == 0 {
		errs = append(errs, fmt.Errorf("no vlans configured"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// parser collects every malformed key instead of stopping at the first.
type parser struct {
	errs []error
}

func (p *parser) fail(section *ini.Section, key string, err error) {
	p.errs = append(p.errs, fmt.Errorf("[%s] %s: %v", section.Name(), key, err))
}

func (p *parser) stringValue(section *ini.Section, key, def string) string {
	if !section.HasKey(key) {
		return def
	}
	return strings.TrimSpace(section.Key(key).String())
}

func (p *parser) stringsValue(section *ini.Section, key string, def []string) []string {
	if !section.HasKey(key) {
		return def
	}

	var values []string
	for _, v := range section.Key(key).Strings(",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func (p *parser) intsValue(section *ini.Section, key string, def []int) []int {
	if !section.HasKey(key) {
		return def
	}
	values, err := section.Key(key).StrictInts(",")
	if err != nil {
		p.fail(section, key, err)
		return def
	}
	return values
}

func (p *parser) intValue(section *ini.Section, key string, def int) int {
	if !section.HasKey(key) {
		return def
	}
	v, err := section.Key(key).Int()
	if err != nil {
		p.fail(section, key, err)
		return def
	}
	return v
}

func (p *parser) boolValue(section *ini.Section, key string, def bool) bool {
	if !section.HasKey(key) {
		return def
	}
	v, err := section.Key(key).Bool()
	if err != nil {
		p.fail(section, key, err)
		return def
	}
	return v
}

// durationValue accepts Go durations ("90s") and bare integers, read as seconds.
func (p *parser) durationValue(section *ini.Section, key string, def time.Duration) time.Duration {
	if !section.HasKey(key) {
		return def
	}
	k := section.Key(key)
	if secs, err := k.Int(); err == nil {
		return time.Duration(secs) * time.Second
	}
	v, err := k.Duration()
	if err != nil {
		p.fail(section, key, err)
		return def
	}
	return v
}
