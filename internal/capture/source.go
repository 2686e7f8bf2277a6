package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/go-logr/logr"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	arpmonitor "github.com/rickbau5/arp-monitor"
)

const (
	snapLen = 65536

	bufferSize = 256
)

// Source streams bindings observed on an interface until its context is done.
type Source interface {
	Start(ctx context.Context) (<-chan arpmonitor.Binding, error)
}

// PcapSource reads frames from an interface and decodes them with gopacket.
type PcapSource struct {
	iface  string
	dhcp   bool
	logger logr.Logger
}

func NewPcapSource(iface string, dhcp bool, logger logr.Logger) *PcapSource {
	return &PcapSource{iface: iface, dhcp: dhcp, logger: logger.WithValues("iface", iface)}
}

func (s *PcapSource) filter() string {
	if s.dhcp {
		return "arp or (udp and (port 67 or port 68))"
	}
	return "arp"
}

func (s *PcapSource) Start(ctx context.Context) (<-chan arpmonitor.Binding, error) {
	handle, closeFunc, err := newHandle(s.iface, s.filter())
	if err != nil {
		return nil, fmt.Errorf("opening capture on %s: %w", s.iface, err)
	}

	source := gopacket.NewPacketSource(handle, layers.LayerTypeEthernet)

	out := make(chan arpmonitor.Binding, bufferSize)
	go func() {
		defer close(out)
		defer closeFunc()

		s.logger.Info("ready to read packets")
		if err := readPackets(ctx, source.Packets(), s.dhcp, out); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error(err, "stopped reading packets")
		}
	}()

	return out, nil
}

func readPackets(ctx context.Context, packets <-chan gopacket.Packet, dhcp bool, out chan<- arpmonitor.Binding) error {
	for {
		var (
			packet gopacket.Packet
			ok     bool
		)
		select {
		case packet, ok = <-packets:
			if !ok {
				return errors.New("packet chan closed")
			}
		case <-ctx.Done():
			return ctx.Err()
		}

		b, _, ok := DecodePacket(packet, dhcp)
		if !ok {
			continue
		}

		select {
		case out <- b:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// TcpdumpSource runs tcpdump and parses its text output.
type TcpdumpSource struct {
	iface  string
	path   string
	logger logr.Logger
}

func NewTcpdumpSource(iface string, logger logr.Logger) *TcpdumpSource {
	return &TcpdumpSource{iface: iface, path: "tcpdump", logger: logger.WithValues("iface", iface)}
}

func (s *TcpdumpSource) Start(ctx context.Context) (<-chan arpmonitor.Binding, error) {
	cmd := exec.CommandContext(ctx, s.path, "-l", "-nei", s.iface, "arp")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("attaching to tcpdump: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting tcpdump: %w", err)
	}

	out := make(chan arpmonitor.Binding, bufferSize)
	go func() {
		defer close(out)

		if err := readLines(ctx, stdout, out, s.logger); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error(err, "stopped reading tcpdump output")
		}
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			s.logger.Error(err, "tcpdump exited")
		}
	}()

	return out, nil
}

// readLines parses r line by line. Lines that are not ARP requests or replies are dropped.
func readLines(ctx context.Context, r io.Reader, out chan<- arpmonitor.Binding, logger logr.Logger) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		b, kind, err := ParseLine(scanner.Text())
		if err != nil {
			if !errors.Is(err, ErrNotARP) {
				logger.V(2).Info("discarding line", "line", scanner.Text(), "error", err.Error())
			}
			continue
		}
		logger.V(3).Info("observed binding", "kind", kind.String(), "ip", b.IP, "mac", b.MAC)

		select {
		case out <- b:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return scanner.Err()
}
