package httputil

import (
	"fmt"
	"net"
)

// ValidateIP returns an error when ip is not a public unicast address:
// private (RFC 1918), loopback, link-local (including the cloud metadata
// address 169.254.169.254), multicast or unspecified. host is only used
// in the error message.
func ValidateIP(ip net.IP, host string) error {
	var kind string
	switch {
	case ip.IsPrivate():
		kind = "private IP"
	case ip.IsLoopback():
		kind = "loopback IP"
	case ip.IsLinkLocalUnicast():
		kind = "link-local IP"
	case ip.IsLinkLocalMulticast():
		kind = "link-local multicast"
	case ip.IsMulticast():
		kind = "multicast IP"
	case ip.IsUnspecified():
		kind = "unspecified IP"
	default:
		return nil
	}
	return fmt.Errorf("refusing redirect to %s: %s (%s)", kind, host, ip)
}
