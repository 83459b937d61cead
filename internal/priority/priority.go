// Package priority maps named collection jobs to priority tiers.
//
// The lookup itself never admits or denies anything. AdmissionPolicy blends a
// tier with the rate limiter's remaining budget for callers that want low
// priority jobs to leave headroom for the important ones.
package priority

import (
	"fmt"
	"strings"
)

// Tier is a coarse importance label for a collection job.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

// DefaultTier is returned for collection types with no configured tier.
const DefaultTier = TierMedium

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	case TierLow:
		return "low"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// ParseTier parses "high", "medium" or "low" (case-insensitive).
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return TierHigh, nil
	case "medium":
		return TierMedium, nil
	case "low":
		return TierLow, nil
	default:
		return DefaultTier, fmt.Errorf("unknown priority tier %q", s)
	}
}

// Collection types used by the worker.
const (
	DynamicFixtures = "dynamic_fixtures"
	LiveFixtures    = "live_fixtures"
	FixturesRange   = "fixtures_range"
	Odds            = "odds"
	MatchEvents     = "match_events"
	Leagues         = "leagues"
	Seasons         = "seasons"
	Teams           = "teams"
	States          = "states"
	Bookmakers      = "bookmakers"
	Markets         = "markets"
)

var defaultTiers = map[string]Tier{
	DynamicFixtures: TierHigh,
	LiveFixtures:    TierHigh,
	FixturesRange:   TierMedium,
	Odds:            TierMedium,
	MatchEvents:     TierMedium,
	Leagues:         TierLow,
	Seasons:         TierLow,
	Teams:           TierLow,
	States:          TierLow,
	Bookmakers:      TierLow,
	Markets:         TierLow,
}

// Manager resolves collection types to tiers. It is read-only after
// construction and safe for concurrent use.
type Manager struct {
	tiers map[string]Tier
}

// NewManager builds a Manager from the built-in defaults plus overrides.
func NewManager(overrides map[string]Tier) *Manager {
	tiers := make(map[string]Tier, len(defaultTiers)+len(overrides))
	for k, v := range defaultTiers {
		tiers[k] = v
	}
	for k, v := range overrides {
		tiers[k] = v
	}
	return &Manager{tiers: tiers}
}

// Priority returns the tier for collectionType, or DefaultTier.
func (m *Manager) Priority(collectionType string) Tier {
	if tier, ok := m.tiers[collectionType]; ok {
		return tier
	}
	return DefaultTier
}

// ParseOverrides parses "key=tier,key=tier". Empty input yields nil.
func ParseOverrides(s string) (map[string]Tier, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	out := make(map[string]Tier)
	for _, pair := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid priority override %q, want key=tier", pair)
		}
		tier, err := ParseTier(value)
		if err != nil {
			return nil, fmt.Errorf("priority override for %q: %w", key, err)
		}
		out[key] = tier
	}
	return out, nil
}

// AdmissionPolicy keeps a reserve of the request budget away from lower
// tiers. A tier is permitted only while the remaining budget exceeds its
// reserve. Tiers absent from Reserve are always permitted.
type AdmissionPolicy struct {
	Reserve map[Tier]int
}

// Permit reports whether a job of tier may spend budget when remaining
// requests are left in the window.
func (p AdmissionPolicy) Permit(tier Tier, remaining int) bool {
	reserve, ok := p.Reserve[tier]
	if !ok || reserve <= 0 {
		return true
	}
	return remaining > reserve
}
