package snmp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gosnmp/gosnmp"
)

// ifDescr from IF-MIB; routers name SVIs "Vlan<id>".
const oidIfDescr = ".1.3.6.1.2.1.2.2.1.2"

// IfIndex is the interface index a VLAN resolved to. Resolved is false when the router has no interface for the VLAN,
// in which case Index is meaningless.
type IfIndex struct {
	Index    int
	Resolved bool
}

func (i IfIndex) String() string {
	if !i.Resolved {
		return "unresolved"
	}
	return strconv.Itoa(i.Index)
}

// Scope maps each monitored VLAN id to its interface on one host.
type Scope map[int]IfIndex

// Contains reports whether ifIndex is the resolved interface of a monitored VLAN.
func (s Scope) Contains(ifIndex int) bool {
	for _, idx := range s {
		if idx.Resolved && idx.Index == ifIndex {
			return true
		}
	}
	return false
}

// Unresolved returns the VLANs that have no interface, sorted.
func (s Scope) Unresolved() []int {
	var vlans []int
	for vlan, idx := range s {
		if !idx.Resolved {
			vlans = append(vlans, vlan)
		}
	}
	sort.Ints(vlans)
	return vlans
}

func (s Scope) String() string {
	vlans := make([]int, 0, len(s))
	for vlan := range s {
		vlans = append(vlans, vlan)
	}
	sort.Ints(vlans)

	parts := make([]string, 0, len(vlans))
	for _, vlan := range vlans {
		parts = append(parts, fmt.Sprintf("Vlan%d=%s", vlan, s[vlan]))
	}
	return strings.Join(parts, ", ")
}

// ResolveScope walks the interface names of the host once and maps every vlan to its interface index. A failed walk
// is returned as ErrScopeResolution; a VLAN without an interface is kept as unresolved and logged.
func (h *Host) ResolveScope(vlans []int) (Scope, error) {
	pdus, err := h.walk(oidIfDescr)
	if err != nil {
		return nil, fmt.Errorf("%w on %s: %v", ErrScopeResolution, h.Address, err)
	}

	byName := interfaceIndexes(pdus)

	scope := make(Scope, len(vlans))
	for _, vlan := range vlans {
		index, ok := byName[fmt.Sprintf("Vlan%d", vlan)]
		scope[vlan] = IfIndex{Index: index, Resolved: ok}
		if !ok {
			h.logger.Error(nil, "monitored VLAN has no interface", "vlan", vlan)
		}
	}

	h.Scope = scope
	h.logger.V(1).Info("got interface indexes for monitored VLANs", "scope", scope.String())
	return scope, nil
}

// interfaceIndexes maps interface names to their index from an ifDescr walk.
func interfaceIndexes(pdus []gosnmp.SnmpPDU) map[string]int {
	names := make(map[string]int, len(pdus))
	for _, pdu := range pdus {
		if pdu.Type != gosnmp.OctetString {
			continue
		}

		suffix, ok := oidSuffix(pdu.Name, oidIfDescr)
		if !ok || len(suffix) != 1 {
			continue
		}

		index, err := strconv.Atoi(suffix[0])
		if err != nil {
			continue
		}

		name, ok := pdu.Value.([]byte)
		if !ok {
			continue
		}

		names[string(name)] = index
	}
	return names
}

// oidSuffix returns the sub-identifiers of oid following prefix.
func oidSuffix(oid, prefix string) ([]string, bool) {
	oid = "." + strings.TrimPrefix(oid, ".")
	if !strings.HasPrefix(oid, prefix+".") {
		return nil, false
	}
	return strings.Split(oid[len(prefix)+1:], "."), true
}
