package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/stdr"
	"github.com/irai/packet"

	arpmonitor "github.com/rickbau5/arp-monitor"
	"github.com/rickbau5/arp-monitor/internal/alert"
)

var (
	iface     string
	stateFile string
	interval  time.Duration
	syslog    string
	verbosity int
)

func init() {
	flag.StringVar(&iface, "iface", "", "the name of the network interface to load the arp table for")
	flag.StringVar(&stateFile, "state", "arp.json", "path to the binding history file")
	flag.DurationVar(&interval, "interval", 15*time.Second, "how often the arp table is read")
	flag.StringVar(&syslog, "syslog", "", "syslog server to alert on changed bindings")
	flag.IntVar(&verbosity, "v", 0, "log verbosity")
}

func main() {
	flag.Parse()
	if iface == "" {
		fmt.Println("argument --iface is required")
		os.Exit(1)
	}

	stdr.SetVerbosity(verbosity)
	logger := stdr.New(log.Default()).WithName("arpmon")

	history, err := arpmonitor.LoadHistory(stateFile)
	if err != nil {
		fmt.Println("failed initial load:", err)
		os.Exit(1)
	}

	options := []arpmonitor.MonitorOption{arpmonitor.LoggerOption(logger)}
	if syslog != "" {
		sink, err := alert.NewSyslog([]string{syslog}, alert.DefaultSeverity, alert.DefaultFacility,
			alert.WithLogger(logger))
		if err != nil {
			fmt.Println("invalid syslog server:", err)
			os.Exit(1)
		}
		options = append(options, arpmonitor.AlerterOption(sink))
	}
	m := arpmonitor.NewMonitor(history, options...)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	collector := arpmonitor.CollectorFunc(func(context.Context) []arpmonitor.CycleResult {
		addrs, err := packet.LoadLinuxARPTable(iface)
		if err != nil {
			return []arpmonitor.CycleResult{{Source: iface, Err: fmt.Errorf("loading linux arp table: %w", err)}}
		}

		bindings := make([]arpmonitor.Binding, 0, len(addrs))
		for _, addr := range addrs {
			bindings = append(bindings, arpmonitor.NewBinding(addr.IP, addr.MAC))
		}
		return []arpmonitor.CycleResult{{Source: iface, Bindings: bindings}}
	})

	err = arpmonitor.RunPolling(ctx, m, collector, arpmonitor.PollingConfig{Interval: interval, StateFile: stateFile})
	if err != nil {
		log.Println("error monitoring arp table:", err)
		cancel()
		os.Exit(1)
	}
}
