package netx

import "net"

const loopback = "127.0.0.1"

// interfaceAddrs is a test seam for net.InterfaceAddrs.
var interfaceAddrs = net.InterfaceAddrs

// LocalIP returns the first non-loopback IPv4 address of this host, or
// 127.0.0.1 when there is none. It is what login logs record as the
// client address.
func LocalIP() string {
	addrs, err := interfaceAddrs()
	if err != nil {
		return loopback
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipnet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return loopback
}
