//go:build linux

package response

import (
	"fmt"
	"net"

	"github.com/google/nftables"
	"github.com/google/nftables/expr"
)

// Table/chain managed by this backend, distinct from the iptables backend's
// naming so the two never collide if both happen to be configured in
// sequence across restarts.
const (
	nftBlockTable = "idsrs_response"
	nftBlockChain = "idsrs_block"
)

type nftablesBlocker struct {
	log   logger
	conn  *nftables.Conn
	table *nftables.Table
	chain *nftables.Chain

	// rules tracks the kernel rule for each blocked IP so Unblock can
	// remove it by handle instead of re-scanning the chain.
	rules map[string]*nftables.Rule
}

func newNFTablesBlocker(log logger) (Blocker, error) {
	conn, err := nftables.New()
	if err != nil {
		return nil, fmt.Errorf("response/nftables: open netlink socket: %w", err)
	}

	table := conn.AddTable(&nftables.Table{
		Family: nftables.TableFamilyIPv4,
		Name:   nftBlockTable,
	})

	chain := conn.AddChain(&nftables.Chain{
		Name:     nftBlockChain,
		Table:    table,
		Type:     nftables.ChainTypeFilter,
		Hooknum:  nftables.ChainHookInput,
		Priority: nftables.ChainPriorityFilter,
	})

	if err := conn.Flush(); err != nil {
		return nil, fmt.Errorf("response/nftables: create table/chain: %w", err)
	}

	log.Info("response/nftables: backend ready", "table", nftBlockTable, "chain", nftBlockChain)

	return &nftablesBlocker{
		log:   log,
		conn:  conn,
		table: table,
		chain: chain,
		rules: make(map[string]*nftables.Rule),
	}, nil
}

// Block adds a single rule matching the source IPv4 address with a DROP
// verdict: payload load of the network header's source address field,
// compared against the blocked address, terminated with a drop.
func (b *nftablesBlocker) Block(ip net.IP, reason string) error {
	ip4 := ip.To4()
	if ip4 == nil {
		return fmt.Errorf("response/nftables: block: %s is not an IPv4 address", ip)
	}

	rule := b.conn.AddRule(&nftables.Rule{
		Table: b.table,
		Chain: b.chain,
		Exprs: []expr.Any{
			&expr.Payload{
				DestRegister: 1,
				Base:         expr.PayloadBaseNetworkHeader,
				Offset:       12, // source address offset in IPv4 header
				Len:          4,
			},
			&expr.Cmp{
				Op:       expr.CmpOpEq,
				Register: 1,
				Data:     ip4,
			},
			&expr.Verdict{Kind: expr.VerdictDrop},
		},
		UserData: []byte(reason),
	})

	if err := b.conn.Flush(); err != nil {
		return fmt.Errorf("response/nftables: block %s: %w", ip, err)
	}

	b.rules[ip.String()] = rule
	b.log.Info("response/nftables: blocked source", "ip", ip.String(), "reason", reason)
	return nil
}

// Unblock removes the tracked rule for ip, falling back to a chain scan if
// the process restarted and lost its in-memory handle map.
func (b *nftablesBlocker) Unblock(ip net.IP) error {
	if rule, ok := b.rules[ip.String()]; ok {
		if err := b.conn.DelRule(rule); err != nil {
			return fmt.Errorf("response/nftables: unblock %s: %w", ip, err)
		}
		if err := b.conn.Flush(); err != nil {
			return fmt.Errorf("response/nftables: flush unblock %s: %w", ip, err)
		}
		delete(b.rules, ip.String())
		b.log.Info("response/nftables: unblocked source", "ip", ip.String())
		return nil
	}

	kernelRules, err := b.conn.GetRules(b.table, b.chain)
	if err != nil {
		return fmt.Errorf("response/nftables: get rules for fallback unblock: %w", err)
	}
	ip4 := ip.To4()
	for _, kr := range kernelRules {
		if matchesSourceIP(kr, ip4) {
			if err := b.conn.DelRule(kr); err != nil {
				return fmt.Errorf("response/nftables: unblock %s: %w", ip, err)
			}
			return b.conn.Flush()
		}
	}
	return nil
}

// matchesSourceIP inspects a kernel rule's expressions for the IPv4 cmp
// this backend always emits, so fallback unblock can identify it without
// relying on UserData round-tripping through the kernel.
func matchesSourceIP(r *nftables.Rule, ip4 net.IP) bool {
	for _, e := range r.Exprs {
		cmp, ok := e.(*expr.Cmp)
		if !ok {
			continue
		}
		if len(cmp.Data) == 4 && net.IP(cmp.Data).Equal(ip4) {
			return true
		}
	}
	return false
}
