/**
 * Dedup Registry - At-most-once notification per logical log entry
 *
 * The preferred dedup key is the parsed "Day N, HH:MM:SS" timestamp found
 * anywhere in the resolved entry text: OCR noise in the surrounding prose
 * does not perturb it. When no timestamp is legible the key degrades to a
 * normalized prefix of the header line. A given log line is only ever shown
 * once on screen, so the registry never forgets a key for the life of the
 * run - there is deliberately no eviction on this path.
 *
 * The legacy content-hash path uses a separate bounded TTL set with its own
 * policy (lazy expiry on lookup, oldest-inserted dropped over capacity).
 */

package watch

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// NoKey is the sentinel for headers that normalize to nothing. It still
// participates in the seen set so repeated unparsable headers are reported
// once per run rather than every frame.
const NoKey = "nokey"

var canonRe = regexp.MustCompile(`(?i)day\s*(\d{1,6})\s*[,;]\s*(\d{1,2})[:;](\d{2})[:;](\d{2})`)

var fallbackStrip = regexp.MustCompile(`[^a-z0-9:;]`)

// CanonicalKey derives the dedup key for an entry: the timestamp form when a
// "Day N, HH:MM:SS" fragment is legible in the resolved text, otherwise a
// normalized prefix of the first-pass header line.
func CanonicalKey(resolvedText, headerText string) string {
	if key, ok := headerKeyFromText(resolvedText); ok {
		return key
	}
	return headerKeyFromLine(headerText)
}

func headerKeyFromText(text string) (string, bool) {
	m := canonRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	day, err1 := strconv.Atoi(m[1])
	hh, err2 := strconv.Atoi(m[2])
	mm, err3 := strconv.Atoi(m[3])
	ss, err4 := strconv.Atoi(m[4])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return "", false
	}
	return fmt.Sprintf("d%d-t%02d%02d%02d", day, hh, mm, ss), true
}

func headerKeyFromLine(text string) string {
	s := fallbackStrip.ReplaceAllString(strings.ToLower(text), "")
	if len(s) > 64 {
		s = s[:64]
	}
	if s == "" {
		return NoKey
	}
	return s
}

// Registry remembers which dedup keys have already been reported this run.
// Created at loop start, destroyed at process exit, never persisted.
type Registry struct {
	seen map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{seen: make(map[string]struct{})}
}

// Seen reports whether key was already marked.
func (r *Registry) Seen(key string) bool {
	_, ok := r.seen[key]
	return ok
}

// Mark records key as reported. Idempotent.
func (r *Registry) Mark(key string) {
	r.seen[key] = struct{}{}
}

// Len returns the number of distinct keys marked so far.
func (r *Registry) Len() int { return len(r.seen) }

// EventKey hashes entry text into the content key the legacy matcher dedupes
// on, independent of any timestamp.
func EventKey(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

type ttlEntry struct {
	key     string
	expires time.Time
}

// TTLSet is a small time-bounded set for legacy content-hash dedup. Expired
// heads are dropped lazily on lookup; inserting over capacity evicts the
// oldest inserted entry. Lookups never refresh an entry.
type TTLSet struct {
	ttl    time.Duration
	maxLen int
	queue  []ttlEntry
	now    func() time.Time
}

// NewTTLSet creates a set holding at most maxLen keys for ttl each.
func NewTTLSet(ttl time.Duration, maxLen int) *TTLSet {
	return &TTLSet{ttl: ttl, maxLen: maxLen, now: time.Now}
}

// Add inserts key with a fresh expiry.
func (s *TTLSet) Add(key string) {
	s.queue = append(s.queue, ttlEntry{key: key, expires: s.now().Add(s.ttl)})
	for len(s.queue) > s.maxLen {
		s.queue = s.queue[1:]
	}
}

// Contains reports whether key is present and unexpired.
func (s *TTLSet) Contains(key string) bool {
	now := s.now()
	for len(s.queue) > 0 && s.queue[0].expires.Before(now) {
		s.queue = s.queue[1:]
	}
	for _, e := range s.queue {
		if e.key == key && !e.expires.Before(now) {
			return true
		}
	}
	return false
}
