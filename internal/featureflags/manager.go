// Package featureflags evaluates rollout flags configured as "name=value" pairs,
// e.g. "realtime=on,uploads=25%".
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// Flags the API gates on.
const (
	Realtime = "realtime"
	Uploads  = "uploads"
)

type rule struct {
	raw     string
	percent int // 0..100
}

// Manager is immutable after construction and safe for concurrent use.
type Manager struct {
	rules map[string]rule
}

// NewManager parses raw. Malformed pairs are skipped.
func NewManager(raw string) *Manager {
	rules := make(map[string]rule)
	for _, pair := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, value = normalize(name), normalize(value)
		if name == "" || value == "" {
			continue
		}
		pct, ok := parseValue(value)
		if !ok {
			continue
		}
		rules[name] = rule{raw: value, percent: pct}
	}
	return &Manager{rules: rules}
}

// parseValue accepts on/true/1, off/false/0 and N%.
func parseValue(v string) (int, bool) {
	switch v {
	case "on", "true", "1":
		return 100, true
	case "off", "false", "0":
		return 0, true
	}
	pctRaw, ok := strings.CutSuffix(v, "%")
	if !ok {
		return 0, false
	}
	pct, err := strconv.Atoi(pctRaw)
	if err != nil {
		return 0, false
	}
	return min(max(pct, 0), 100), true
}

// Enabled reports whether name is on for userID. Unknown flags are off.
// Partial rollouts are deterministic per user and never include anonymous
// callers (userID 0).
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	r, ok := m.rules[normalize(name)]
	if !ok {
		return false
	}
	switch {
	case r.percent >= 100:
		return true
	case r.percent <= 0, userID == 0:
		return false
	}
	return bucket(name, userID) < r.percent
}

// Raw returns the configured value of every flag.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.rules))
	for name, r := range m.rules {
		out[name] = r.raw
	}
	return out
}

// Snapshot evaluates every configured flag for userID.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.rules))
	for name := range m.rules {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
