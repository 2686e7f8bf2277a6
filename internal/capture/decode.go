package capture

import (
	"bytes"
	"net"
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/insomniacslk/dhcp/dhcpv4"

	arpmonitor "github.com/rickbau5/arp-monitor"
)

// DecodePacket extracts a binding from a captured ethernet frame using the same rules as ParseLine. When dhcp is set,
// DHCP ACKs also yield the leased address and the client hardware address.
func DecodePacket(packet gopacket.Packet, dhcp bool) (arpmonitor.Binding, Kind, bool) {
	if layer := packet.Layer(layers.LayerTypeARP); layer != nil {
		arp, ok := layer.(*layers.ARP)
		if !ok {
			return arpmonitor.Binding{}, UnknownKind, false
		}
		return decodeARP(packet, arp)
	}

	if dhcp {
		return decodeDHCP(packet)
	}

	return arpmonitor.Binding{}, UnknownKind, false
}

func decodeARP(packet gopacket.Packet, arp *layers.ARP) (arpmonitor.Binding, Kind, bool) {
	if arp.Protocol != layers.EthernetTypeIPv4 || arp.ProtAddressSize != 4 {
		return arpmonitor.Binding{}, UnknownKind, false
	}

	var (
		ip   []byte
		mac  net.HardwareAddr
		kind Kind
	)
	switch arp.Operation {
	case layers.ARPRequest:
		eth, ok := packet.Layer(layers.LayerTypeEthernet).(*layers.Ethernet)
		if !ok {
			return arpmonitor.Binding{}, UnknownKind, false
		}
		if bytes.Equal(eth.DstMAC, layers.EthernetBroadcast) {
			ip, mac, kind = arp.SourceProtAddress, arp.SourceHwAddress, RequestBroadcast
		} else {
			ip, mac, kind = arp.DstProtAddress, eth.DstMAC, RequestUnicast
		}
	case layers.ARPReply:
		ip, mac, kind = arp.SourceProtAddress, arp.SourceHwAddress, Reply
	default:
		return arpmonitor.Binding{}, UnknownKind, false
	}

	return binding(ip, mac, kind)
}

func decodeDHCP(packet gopacket.Packet) (arpmonitor.Binding, Kind, bool) {
	udp, ok := packet.Layer(layers.LayerTypeUDP).(*layers.UDP)
	if !ok || (udp.SrcPort != 67 && udp.DstPort != 68) {
		return arpmonitor.Binding{}, UnknownKind, false
	}

	msg, err := dhcpv4.FromBytes(udp.Payload)
	if err != nil || msg.MessageType() != dhcpv4.MessageTypeAck {
		return arpmonitor.Binding{}, UnknownKind, false
	}

	return binding(msg.YourIPAddr.To4(), msg.ClientHWAddr, DHCPAck)
}

func binding(ip []byte, mac net.HardwareAddr, kind Kind) (arpmonitor.Binding, Kind, bool) {
	addr, ok := netip.AddrFromSlice(ip)
	if !ok || addr.IsUnspecified() || len(mac) != 6 {
		return arpmonitor.Binding{}, kind, false
	}
	return arpmonitor.NewBinding(addr, mac), kind, true
}
