package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"

	arpmonitor "github.com/rickbau5/arp-monitor"
	"github.com/rickbau5/arp-monitor/internal/alert"
	"github.com/rickbau5/arp-monitor/internal/capture"
	"github.com/rickbau5/arp-monitor/internal/config"
)

var (
	configPath string
	iface      string
	mode       string
	stateFile  string
	dhcp       bool
	verbosity  int
)

func init() {
	flag.StringVar(&configPath, "config", "", "path to the configuration file")
	flag.StringVar(&iface, "i", "", "name of the interface to read packets from")
	flag.StringVar(&mode, "mode", "", "capture mode, pcap or tcpdump")
	flag.StringVar(&stateFile, "state", "", "path to the binding history file")
	flag.BoolVar(&dhcp, "dhcp", false, "also learn bindings from DHCP ACKs (pcap mode)")
	flag.IntVar(&verbosity, "v", 0, "log verbosity")
}

func main() {
	flag.Parse()

	stdr.SetVerbosity(verbosity)
	logger := stdr.New(log.New(os.Stderr, "", log.LstdFlags)).WithName("arpsniff")

	if err := run(logger); err != nil {
		logger.Error(err, "ARP monitoring failed")
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		if err := cfg.LoadFromFile(configPath); err != nil {
			return nil, err
		}
	}

	if iface != "" {
		cfg.Interface = iface
	}
	if mode != "" {
		cfg.CaptureMode = mode
	}
	if stateFile != "" {
		cfg.StateFile = stateFile
	}
	if dhcp {
		cfg.DHCP = true
	}

	if cfg.Interface == "" {
		return nil, fmt.Errorf("%w: an interface is required", config.ErrInvalidConfig)
	}
	return cfg, cfg.Validate()
}

func run(logger logr.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	history, err := arpmonitor.LoadHistory(cfg.StateFile, arpmonitor.HistoryMaxLenOption(cfg.MaxHistory))
	if err != nil {
		return err
	}

	options := []arpmonitor.MonitorOption{arpmonitor.LoggerOption(logger)}
	if len(cfg.SyslogServers) > 0 {
		sink, err := alert.NewSyslog(cfg.SyslogServers, cfg.SyslogSeverity, cfg.SyslogFacility,
			alert.WithLogger(logger.WithName("syslog")))
		if err != nil {
			return err
		}
		options = append(options, arpmonitor.AlerterOption(sink))
	}
	m := arpmonitor.NewMonitor(history, options...)

	var source capture.Source
	switch cfg.CaptureMode {
	case "tcpdump":
		source = capture.NewTcpdumpSource(cfg.Interface, logger)
	default:
		source = capture.NewPcapSource(cfg.Interface, cfg.DHCP, logger)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bindings, err := source.Start(ctx)
	if err != nil {
		return err
	}

	return arpmonitor.RunStream(ctx, m, bindings, arpmonitor.StreamConfig{
		ReadTimeout:     cfg.ReadTimeout,
		PersistInterval: cfg.PersistInterval,
		StateFile:       cfg.StateFile,
	})
}
