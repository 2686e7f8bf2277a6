// Package capture turns live ARP traffic into bindings, either from tcpdump output or from frames read off an
// interface.
package capture

import (
	"errors"
	"fmt"
	"strings"

	arpmonitor "github.com/rickbau5/arp-monitor"
)

// Kind is the packet shape a binding was learned from.
type Kind int

const (
	UnknownKind Kind = iota
	RequestBroadcast
	RequestUnicast
	Reply
	DHCPAck
)

func (k Kind) String() string {
	switch k {
	case RequestBroadcast:
		return "request broadcast"
	case RequestUnicast:
		return "request unicast"
	case Reply:
		return "reply"
	case DHCPAck:
		return "dhcp ack"
	default:
		return "unknown"
	}
}

var (
	ErrNotARP    = errors.New("not an ARP request or reply")
	ErrMalformed = errors.New("malformed ARP line")
)

const broadcastMAC = "ff:ff:ff:ff:ff:ff"

// ParseLine extracts the binding from one line of `tcpdump -nei <iface> arp` output:
//
//	broadcast request -> sender ip, source mac
//	unicast request   -> target ip, destination mac
//	reply             -> sender ip, source mac
func ParseLine(line string) (arpmonitor.Binding, Kind, error) {
	if !strings.Contains(line, " ARP ") {
		return arpmonitor.Binding{}, UnknownKind, ErrNotARP
	}

	fields := strings.Fields(line)
	if len(fields) < 4 || fields[2] != ">" {
		return arpmonitor.Binding{}, UnknownKind, ErrMalformed
	}
	srcMAC := fields[1]
	dstMAC := strings.TrimSuffix(fields[3], ",")

	var (
		ip, mac string
		kind    Kind
	)
	switch {
	case indexOf(fields, "Request") >= 0:
		if strings.EqualFold(dstMAC, broadcastMAC) {
			ip, mac, kind = after(fields, "tell"), srcMAC, RequestBroadcast
		} else {
			ip, mac, kind = after(fields, "who-has"), dstMAC, RequestUnicast
		}
	case indexOf(fields, "Reply") >= 0:
		ip, mac, kind = after(fields, "Reply"), srcMAC, Reply
	default:
		return arpmonitor.Binding{}, UnknownKind, ErrNotARP
	}

	b, err := arpmonitor.ParseBinding(ip, mac)
	if err != nil {
		return arpmonitor.Binding{}, kind, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if b.IP == "0.0.0.0" {
		return arpmonitor.Binding{}, kind, fmt.Errorf("%w: unspecified address", ErrMalformed)
	}

	return b, kind, nil
}

func indexOf(fields []string, token string) int {
	for i, f := range fields {
		if f == token {
			return i
		}
	}
	return -1
}

// after returns the field following token with trailing punctuation removed.
func after(fields []string, token string) string {
	i := indexOf(fields, token)
	if i < 0 || i+1 >= len(fields) {
		return ""
	}
	return strings.TrimRight(fields[i+1], ",:")
}
