package hostrecord

import (
	"fmt"
	"net"
	"time"
)

const reachabilityProbeTimeout = 2 * time.Second

// GetActiveAddressReachability opens a short-lived TCP probe to the
// record's active address and compares the local endpoint address used to
// reach it against this machine's own NIC addresses. A match means the
// host is on the same LAN segment; a mismatch means the connection went
// out over a VPN or NAT hop. A failed probe reports Unknown.
func (r *Record) GetActiveAddressReachability() Reachability {
	addr := r.ActiveAddress()
	if addr.empty() || addr.Port == 0 {
		return ReachabilityUnknown
	}

	conn, err := net.DialTimeout("tcp", fmt.Sprintf("%s:%d", addr.Host, addr.Port), reachabilityProbeTimeout)
	if err != nil {
		return ReachabilityUnknown
	}
	defer conn.Close()

	local, ok := conn.LocalAddr().(*net.TCPAddr)
	if !ok {
		return ReachabilityUnknown
	}

	if isLocalNICAddress(local.IP) {
		return ReachabilityLAN
	}
	return ReachabilityVPN
}

func isLocalNICAddress(ip net.IP) bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
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
			if ipNet.IP.Equal(ip) {
				return true
			}
		}
	}
	return false
}
