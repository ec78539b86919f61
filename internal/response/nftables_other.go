//go:build !linux

package response

import "fmt"

func newNFTablesBlocker(log logger) (Blocker, error) {
	return nil, fmt.Errorf("response: nftables backend requires linux")
}
