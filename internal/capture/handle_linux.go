//go:build linux
// +build linux

package capture

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/pcapgo"
)

// newHandle opens a raw AF_PACKET socket. No BPF program is attached, DecodePacket drops what is not wanted.
func newHandle(iface string, _ string) (gopacket.PacketDataSource, func(), error) {
	handle, err := pcapgo.NewEthernetHandle(iface)
	if err != nil {
		return nil, nil, err
	}

	if err = handle.SetCaptureLength(snapLen); err != nil {
		handle.Close()
		return nil, nil, err
	} else if err = handle.SetPromiscuous(true); err != nil {
		handle.Close()
		return nil, nil, err
	}

	return handle, handle.Close, nil
}
