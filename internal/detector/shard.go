package detector

import (
	"sort"
	"sync"
	"time"
)

// shard holds the six per-IP structures for one slice of the keyspace.
// Every mutation of a shard's maps happens under its own lock; distinct
// shards never contend with each other, which is what lets Process for
// two different source IPs proceed without mutual blocking.
type shard struct {
	mu sync.RWMutex

	dropHits   map[string][]PortHit
	acceptHits map[string][]PortHit
	lastSeen   map[string]time.Time

	fastCooldown   map[string]time.Time
	slowCooldown   map[string]time.Time
	acceptCooldown map[string]time.Time
}

func newShard() *shard {
	return &shard{
		dropHits:       make(map[string][]PortHit),
		acceptHits:     make(map[string][]PortHit),
		lastSeen:       make(map[string]time.Time),
		fastCooldown:   make(map[string]time.Time),
		slowCooldown:   make(map[string]time.Time),
		acceptCooldown: make(map[string]time.Time),
	}
}

// touch records the IP as seen at now and appends a hit to the target
// hit-list (drop or accept, chosen by the caller), capping it at
// maxHitsPerIP by evicting the oldest entries first. Returns whether the
// IP was previously untracked by this shard.
func (s *shard) touch(ip string, now time.Time, dropAction bool, hit PortHit, maxHitsPerIP int) (wasNew bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.lastSeen[ip]
	s.lastSeen[ip] = now

	target := &s.acceptHits
	if dropAction {
		target = &s.dropHits
	}
	list := append((*target)[ip], hit)
	if len(list) > maxHitsPerIP {
		list = list[len(list)-maxHitsPerIP:]
	}
	(*target)[ip] = list

	return !existed
}

// uniquePortsInWindow returns the sorted, deduplicated ports observed for
// ip within window of now, reading from the drop- or accept-hit list.
func (s *shard) uniquePortsInWindow(ip string, now time.Time, window time.Duration, dropAction bool) []uint16 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.acceptHits
	if dropAction {
		src = s.dropHits
	}
	hits, ok := src[ip]
	if !ok || len(hits) == 0 {
		return nil
	}

	seen := make(map[uint16]struct{}, len(hits))
	for _, h := range hits {
		age := now.Sub(h.SeenAt)
		if age < 0 {
			age = 0 // saturating subtraction: defend against non-monotonic surprises
		}
		if age <= window {
			seen[h.Port] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}

	ports := make([]uint16, 0, len(seen))
	for p := range seen {
		ports = append(ports, p)
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i] < ports[j] })
	return ports
}

// cooldownActive reports whether the given cooldown class is still active
// for ip. Absence of an entry means inactive.
func (s *shard) cooldownActive(ip string, now time.Time, cooldown time.Duration, class ScanType) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.cooldownMap(class)
	last, ok := m[ip]
	if !ok {
		return false
	}
	age := now.Sub(last)
	if age < 0 {
		age = 0
	}
	return age < cooldown
}

// armCooldown installs now as the last-alert time for (ip, class).
func (s *shard) armCooldown(ip string, now time.Time, class ScanType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cooldownMap(class)[ip] = now
}

// cooldownMap must be called with s.mu already held (read or write).
func (s *shard) cooldownMap(class ScanType) map[string]time.Time {
	switch class {
	case ScanFast:
		return s.fastCooldown
	case ScanSlow:
		return s.slowCooldown
	default:
		return s.acceptCooldown
	}
}

// minLastSeen scans the shard's last_seen entries and returns the IP with
// the smallest timestamp, or ok=false if the shard is empty. O(n) in the
// shard's tracked-IP count; acceptable because it only runs on admission
// of a new IP once the global cap is reached.
func (s *shard) minLastSeen() (ip string, ts time.Time, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	first := true
	for k, v := range s.lastSeen {
		if first || v.Before(ts) {
			ip, ts, ok = k, v, true
			first = false
		}
	}
	return
}

// evict removes ip from all six structures in this shard, if present.
// Returns whether anything was removed.
func (s *shard) evict(ip string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, existed := s.lastSeen[ip]
	delete(s.lastSeen, ip)
	delete(s.dropHits, ip)
	delete(s.acceptHits, ip)
	delete(s.fastCooldown, ip)
	delete(s.slowCooldown, ip)
	delete(s.acceptCooldown, ip)
	return existed
}

// compact prunes stale hits and cooldown entries, then rebuilds last_seen
// so its keys are exactly the union of the surviving hit-list keys.
func (s *shard) compact(now time.Time, maxEntryAge, alertCooldown time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pruneHits := func(m map[string][]PortHit) {
		for ip, hits := range m {
			kept := hits[:0:0]
			for _, h := range hits {
				age := now.Sub(h.SeenAt)
				if age < 0 {
					age = 0
				}
				if age <= maxEntryAge {
					kept = append(kept, h)
				}
			}
			if len(kept) == 0 {
				delete(m, ip)
			} else {
				m[ip] = kept
			}
		}
	}
	pruneHits(s.dropHits)
	pruneHits(s.acceptHits)

	for ip := range s.lastSeen {
		_, inDrop := s.dropHits[ip]
		_, inAccept := s.acceptHits[ip]
		if !inDrop && !inAccept {
			delete(s.lastSeen, ip)
		}
	}

	pruneCooldown := func(m map[string]time.Time) {
		for ip, last := range m {
			age := now.Sub(last)
			if age < 0 {
				age = 0
			}
			if age > alertCooldown {
				delete(m, ip)
			}
		}
	}
	pruneCooldown(s.fastCooldown)
	pruneCooldown(s.slowCooldown)
	pruneCooldown(s.acceptCooldown)
}

// count returns the number of tracked IPs in this shard.
func (s *shard) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lastSeen)
}
