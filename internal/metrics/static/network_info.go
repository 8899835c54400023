package static

import (
	"context"
	"net"

	gopsutilNet "github.com/shirou/gopsutil/v4/net"
)

// privateBlocks are the LAN ranges a dashboard on the local network can reach
var privateBlocks = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"fd00::/8", // IPv6 ULA
)

// LocalIPs returns the private addresses of all interfaces, IPv4 first
func LocalIPs(ctx context.Context) []string {
	interfaces, err := gopsutilNet.InterfacesWithContext(ctx)
	if err != nil {
		return nil
	}

	var v4, v6 []string
	for _, iface := range interfaces {
		for _, addr := range iface.Addrs {
			// Parse IP from CIDR notation
			ip, _, err := net.ParseCIDR(addr.Addr)
			if err != nil {
				// Try parsing as plain IP
				ip = net.ParseIP(addr.Addr)
			}

			if ip == nil || ip.IsLoopback() || ip.IsUnspecified() || !isPrivateIP(ip) {
				continue
			}
			if ip.To4() != nil {
				v4 = append(v4, ip.String())
			} else {
				v6 = append(v6, ip.String())
			}
		}
	}

	return append(v4, v6...)
}

// isPrivateIP checks if an IP is in private address space
func isPrivateIP(ip net.IP) bool {
	for _, subnet := range privateBlocks {
		if subnet.Contains(ip) {
			return true
		}
	}
	return false
}

func mustParseCIDRs(blocks ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(blocks))
	for _, block := range blocks {
		_, subnet, err := net.ParseCIDR(block)
		if err != nil {
			panic(err)
		}
		nets = append(nets, subnet)
	}
	return nets
}
