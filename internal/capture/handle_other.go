//go:build !linux
// +build !linux

package capture

import (
	"fmt"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
)

func newHandle(iface string, filter string) (gopacket.PacketDataSource, func(), error) {
	inactive, err := pcap.NewInactiveHandle(iface)
	if err != nil {
		return nil, nil, fmt.Errorf("could not create: %w", err)
	}
	defer inactive.CleanUp()

	if err = inactive.SetSnapLen(snapLen); err != nil {
		return nil, nil, fmt.Errorf("could not set snap length: %w", err)
	} else if err = inactive.SetPromisc(true); err != nil {
		return nil, nil, fmt.Errorf("could not set promisc mode: %w", err)
	} else if err = inactive.SetTimeout(time.Second); err != nil {
		return nil, nil, fmt.Errorf("could not set timeout: %w", err)
	}

	handle, err := inactive.Activate()
	if err != nil {
		return nil, nil, fmt.Errorf("activate: %w", err)
	}

	if err = handle.SetBPFFilter(filter); err != nil {
		handle.Close()
		return nil, nil, fmt.Errorf("BPF filter %q: %w", filter, err)
	}

	return handle, handle.Close, nil
}
