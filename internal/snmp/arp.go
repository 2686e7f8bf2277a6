package snmp

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strconv"

	"github.com/gosnmp/gosnmp"

	arpmonitor "github.com/rickbau5/arp-monitor"
)

// ipNetToPhysicalPhysAddress from IP-MIB, indexed by ifIndex.addrType.addrLen.addr...
const oidIPNetToPhysicalPhysAddress = ".1.3.6.1.2.1.4.35.1.4"

const (
	inetAddressIPv4 = 1
	inetAddressIPv6 = 2
	macLength       = 6
)

// Poll walks the neighbour table of the host once and returns the bindings learned on interfaces in its Scope.
func (h *Host) Poll(ctx context.Context) ([]arpmonitor.Binding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdus, err := h.walk(oidIPNetToPhysicalPhysAddress)
	if err != nil {
		return nil, fmt.Errorf("walking ARP table of %s: %w", h.Address, err)
	}

	return neighbours(pdus, h.Scope), nil
}

// neighbours converts neighbour table rows into bindings, dropping rows outside scope and rows that are not
// complete IP to MAC entries.
func neighbours(pdus []gosnmp.SnmpPDU, scope Scope) []arpmonitor.Binding {
	bindings := make([]arpmonitor.Binding, 0, len(pdus))
	for _, pdu := range pdus {
		ifIndex, ip, ok := parseNeighbourOID(pdu.Name)
		if !ok || !scope.Contains(ifIndex) {
			continue
		}

		if pdu.Type != gosnmp.OctetString {
			continue
		}
		mac, ok := pdu.Value.([]byte)
		if !ok || len(mac) != macLength {
			continue
		}

		bindings = append(bindings, arpmonitor.NewBinding(ip, net.HardwareAddr(mac)))
	}
	return bindings
}

func parseNeighbourOID(oid string) (int, netip.Addr, bool) {
	parts, ok := oidSuffix(oid, oidIPNetToPhysicalPhysAddress)
	if !ok || len(parts) < 3 {
		return 0, netip.Addr{}, false
	}

	ints := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, netip.Addr{}, false
		}
		ints[i] = n
	}

	ifIndex, addrType, addrLen := ints[0], ints[1], ints[2]
	octets := ints[3:]
	if len(octets) != addrLen {
		return 0, netip.Addr{}, false
	}

	raw := make([]byte, addrLen)
	for i, o := range octets {
		if o < 0 || o > 255 {
			return 0, netip.Addr{}, false
		}
		raw[i] = byte(o)
	}

	switch {
	case addrType == inetAddressIPv4 && addrLen == 4:
		return ifIndex, netip.AddrFrom4([4]byte(raw)), true
	case addrType == inetAddressIPv6 && addrLen == 16:
		return ifIndex, netip.AddrFrom16([16]byte(raw)), true
	default:
		return 0, netip.Addr{}, false
	}
}
