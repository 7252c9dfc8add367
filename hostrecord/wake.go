package hostrecord

import (
	"net"

	"github.com/vireo-stream/hostcore/wakeonlan"
)

// standardWakePorts are the fixed well-known wake-on-LAN ports tried
// regardless of this record's HTTP base port.
var standardWakePorts = []int{9, 47009}

// dynamicWakePortOffsets are offsets from the record's HTTP base port that
// GameStream server software also listens for magic packets on.
var dynamicWakePortOffsets = []int{0, 1, 10, 11}

// Wake broadcasts magic-packet payloads for this record's MAC to every
// known host address and to every local NIC's broadcast address, across
// the standard port set plus ports derived from the record's own HTTP
// port. Returns false without sending anything if the MAC is empty (the
// normalized-absent sentinel).
func (r *Record) Wake(httpBasePort int, localBroadcastAddrs func() []string) bool {
	mac := r.MAC()
	if mac == "" {
		return false
	}

	ports := append([]int{}, standardWakePorts...)
	for _, off := range dynamicWakePortOffsets {
		ports = append(ports, httpBasePort+off)
	}

	targets := make(map[string]bool)
	for _, addr := range r.UniqueAddresses() {
		if addr.Host != "" {
			targets[addr.Host] = true
		}
	}
	if localBroadcastAddrs != nil {
		for _, a := range localBroadcastAddrs() {
			targets[a] = true
		}
	}

	sent := false
	for target := range targets {
		for _, port := range ports {
			if err := wakeonlan.Send(mac, target, port); err == nil {
				sent = true
			}
		}
	}
	return sent
}

// LocalBroadcastAddresses enumerates this machine's IPv4 broadcast
// addresses, one per configured interface, for use as Wake's fallback
// fan-out target set.
func LocalBroadcastAddresses() []string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}

	var out []string
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipNet.IP.To4()
			if ip4 == nil {
				continue
			}
			bcast := make(net.IP, len(ip4))
			for i := range ip4 {
				bcast[i] = ip4[i] | ^ipNet.Mask[i]
			}
			out = append(out, bcast.String())
		}
	}
	return out
}
