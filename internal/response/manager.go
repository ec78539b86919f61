// Package response implements the optional auto-response blocklist: when
// enabled, a Manager inserts a kernel DROP rule for an alert's source IP.
// The daemon's alert sink calls Block synchronously, on the goroutine that
// processed the triggering event; a Block error is logged and never
// returned, the same log-and-continue discipline the alerter's transports
// use.
package response

import "net"

// Blocker is the narrow pair of operations every backend implements: block
// or unblock one address. Unlike the teacher's firewall.Backend, there is no rule CRUD
// surface here — the only decision this daemon makes is "is this source
// still worth tracking", not "manage arbitrary firewall policy".
type Blocker interface {
	Block(ip net.IP, reason string) error
	Unblock(ip net.IP) error
}

type logger interface {
	Info(msg string, kvs ...interface{})
	Warn(msg string, kvs ...interface{})
}

// Manager owns the configured Blocker and decides, from config, which
// scan types trigger a block.
type Manager struct {
	backend   Blocker
	triggerOn map[string]bool
	log       logger
}

// NewManager builds a Manager using backendName ("iptables" or
// "nftables") and the configured trigger scan-type list.
func NewManager(backendName string, triggerOn []string, log logger) (*Manager, error) {
	backend, err := newBackend(backendName, log)
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool, len(triggerOn))
	for _, t := range triggerOn {
		set[t] = true
	}

	return &Manager{backend: backend, triggerOn: set, log: log}, nil
}

// ShouldBlock reports whether scanType is configured to trigger a block.
func (m *Manager) ShouldBlock(scanType string) bool {
	return m.triggerOn[scanType]
}

// Block inserts a DROP rule for ip. Errors are logged, never returned to
// the alert pipeline: a failed block must not suppress SIEM/email
// delivery for the same alert.
func (m *Manager) Block(ip net.IP, scanType, reason string) {
	if !m.ShouldBlock(scanType) {
		return
	}
	if err := m.backend.Block(ip, reason); err != nil {
		m.log.Warn("auto-response block failed", "ip", ip.String(), "err", err)
		return
	}
	m.log.Info("auto-response blocked source", "ip", ip.String(), "scan_type", scanType, "reason", reason)
}

// Unblock removes a previously installed block, used by the status API's
// manual unblock endpoint. Auto-response never unblocks on its own.
func (m *Manager) Unblock(ip net.IP) error {
	return m.backend.Unblock(ip)
}
