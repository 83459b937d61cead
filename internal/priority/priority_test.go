package priority

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Priority(t *testing.T) {
	m := NewManager(nil)

	assert.Equal(t, TierHigh, m.Priority(DynamicFixtures))
	assert.Equal(t, TierMedium, m.Priority(Odds))
	assert.Equal(t, TierLow, m.Priority(Bookmakers))
}

func TestManager_UnknownTypeUsesDefault(t *testing.T) {
	m := NewManager(nil)

	assert.Equal(t, DefaultTier, m.Priority("test_dynamic_fixtures"))
	assert.Equal(t, DefaultTier, m.Priority(""))
}

func TestManager_Overrides(t *testing.T) {
	m := NewManager(map[string]Tier{
		Bookmakers:    TierHigh,
		"player_data": TierLow,
	})

	assert.Equal(t, TierHigh, m.Priority(Bookmakers))
	assert.Equal(t, TierLow, m.Priority("player_data"))
	assert.Equal(t, TierHigh, m.Priority(DynamicFixtures), "untouched defaults survive")
}

func TestParseTier(t *testing.T) {
	for input, want := range map[string]Tier{"high": TierHigh, " Medium ": TierMedium, "LOW": TierLow} {
		got, err := ParseTier(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseTier("urgent")
	assert.Error(t, err)
}

func TestParseOverrides(t *testing.T) {
	got, err := ParseOverrides("odds=high, teams=medium")
	require.NoError(t, err)
	assert.Equal(t, map[string]Tier{"odds": TierHigh, "teams": TierMedium}, got)

	got, err = ParseOverrides("  ")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseOverrides("odds")
	assert.Error(t, err)

	_, err = ParseOverrides("odds=urgent")
	assert.Error(t, err)
}

func TestAdmissionPolicy_Permit(t *testing.T) {
	policy := AdmissionPolicy{Reserve: map[Tier]int{TierLow: 10, TierMedium: 3}}

	tests := []struct {
		name      string
		tier      Tier
		remaining int
		want      bool
	}{
		{"low above reserve", TierLow, 11, true},
		{"low at reserve", TierLow, 10, false},
		{"low below reserve", TierLow, 2, false},
		{"medium above reserve", TierMedium, 4, true},
		{"medium at reserve", TierMedium, 3, false},
		{"high has no reserve", TierHigh, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Permit(tt.tier, tt.remaining))
		})
	}

	assert.True(t, AdmissionPolicy{}.Permit(TierLow, 0), "zero policy permits everything")
}

func TestTier_String(t *testing.T) {
	assert.Equal(t, "high", TierHigh.String())
	assert.Equal(t, "medium", TierMedium.String())
	assert.Equal(t, "low", TierLow.String())
	assert.Equal(t, "tier(9)", Tier(9).String())
}
