//go:build linux

package response

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/coreos/go-iptables/iptables"
)

// Dedicated chain for auto-response blocks, kept separate from any other
// managed chain so flushing it never touches unrelated policy.
const (
	blockTable = "filter"
	blockChain = "IDSRS_BLOCK"
)

type iptablesBlocker struct {
	log logger
	ipt *iptables.IPTables
}

func newIPTablesBlocker(log logger) (Blocker, error) {
	ipt, err := iptables.NewWithProtocol(iptables.ProtocolIPv4)
	if err != nil {
		return nil, fmt.Errorf("response/iptables: init: %w", err)
	}

	ok, err := ipt.ChainExists(blockTable, blockChain)
	if err != nil {
		return nil, fmt.Errorf("response/iptables: check chain: %w", err)
	}
	if !ok {
		if err := ipt.NewChain(blockTable, blockChain); err != nil {
			return nil, fmt.Errorf("response/iptables: create chain: %w", err)
		}
	}

	jump := []string{"-j", blockChain}
	if exists, _ := ipt.Exists(blockTable, "INPUT", jump...); !exists {
		if err := ipt.Insert(blockTable, "INPUT", 1, jump...); err != nil {
			return nil, fmt.Errorf("response/iptables: insert INPUT jump: %w", err)
		}
	}

	log.Info("response/iptables: backend ready", "chain", blockChain)
	return &iptablesBlocker{log: log, ipt: ipt}, nil
}

func (b *iptablesBlocker) Block(ip net.IP, reason string) error {
	spec := []string{"-s", ip.String(), "-m", "comment", "--comment", "idsrs:" + reason, "-j", "DROP"}
	if err := b.ipt.AppendUnique(blockTable, blockChain, spec...); err != nil {
		return fmt.Errorf("response/iptables: block %s: %w", ip, err)
	}
	return nil
}

func (b *iptablesBlocker) Unblock(ip net.IP) error {
	rules, err := b.ipt.List(blockTable, blockChain)
	if err != nil {
		return fmt.Errorf("response/iptables: list %s: %w", blockChain, err)
	}
	// rules[0] is the "-N IDSRS_BLOCK" chain header, so rules[i] is rule
	// number i; deleting by number also removes the comment match Block adds.
	for i, r := range rules {
		if i > 0 && strings.Contains(r, " -s "+ip.String()+"/") {
			if err := b.ipt.Delete(blockTable, blockChain, strconv.Itoa(i)); err != nil {
				return fmt.Errorf("response/iptables: unblock %s: %w", ip, err)
			}
			return nil
		}
	}
	return nil
}
