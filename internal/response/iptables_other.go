//go:build !linux

package response

import "fmt"

func newIPTablesBlocker(log logger) (Blocker, error) {
	return nil, fmt.Errorf("response: iptables backend requires linux")
}
