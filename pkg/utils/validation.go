// Package utils holds small validation helpers shared across the status
// API's request handlers.
package utils

import (
	"fmt"
	"net"
)

// ValidateIP checks if an IP address is valid, accepting both IPv4 and
// IPv6. Used by the unblock endpoint before an address reaches the
// response backend.
func ValidateIP(ip string) error {
	if net.ParseIP(ip) == nil {
		return fmt.Errorf("invalid IP address: %s", ip)
	}
	return nil
}
