package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"

	arpmonitor "github.com/rickbau5/arp-monitor"
	"github.com/rickbau5/arp-monitor/internal/alert"
	"github.com/rickbau5/arp-monitor/internal/config"
	"github.com/rickbau5/arp-monitor/internal/snmp"
)

var (
	configPath string
	verbosity  int
)

func init() {
	flag.StringVar(&configPath, "config", "arpmon.ini", "path to the configuration file")
	flag.IntVar(&verbosity, "v", 0, "log verbosity")
}

func main() {
	flag.Parse()

	stdr.SetVerbosity(verbosity)
	logger := stdr.New(log.New(os.Stderr, "", log.LstdFlags)).WithName("snmpmon")

	if err := run(logger); err != nil {
		logger.Error(err, "ARP monitoring failed")
		os.Exit(1)
	}
}

func run(logger logr.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateSNMP(); err != nil {
		return err
	}

	history, err := arpmonitor.LoadHistory(cfg.StateFile, arpmonitor.HistoryMaxLenOption(cfg.MaxHistory))
	if err != nil {
		return err
	}

	sink, err := alert.NewSyslog(cfg.SyslogServers, cfg.SyslogSeverity, cfg.SyslogFacility,
		alert.WithLogger(logger.WithName("syslog")))
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	params := snmp.Params{
		Community: cfg.Community,
		Port:      uint16(cfg.SNMPPort),
		Timeout:   cfg.SNMPTimeout,
		Retries:   cfg.SNMPRetries,
		Version:   cfg.SNMPVersion,
	}

	var hosts []*snmp.Host
	defer func() {
		_ = snmp.NewCollector(hosts).Close()
	}()

	for _, address := range cfg.Hosts {
		host, err := snmp.Dial(ctx, address, params, logger)
		if err != nil {
			return err
		}
		hosts = append(hosts, host)

		// monitoring a host without its interfaces resolved is meaningless, give up entirely
		if _, err := host.ResolveScope(cfg.VLANs); err != nil {
			return err
		}
	}

	m := arpmonitor.NewMonitor(history,
		arpmonitor.LoggerOption(logger),
		arpmonitor.AlerterOption(sink),
	)

	return arpmonitor.RunPolling(ctx, m, snmp.NewCollector(hosts), arpmonitor.PollingConfig{
		Interval:  cfg.Interval,
		StateFile: cfg.StateFile,
	})
}
