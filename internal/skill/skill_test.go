package skill

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func tier(t Tier) *Tier { return &t }

func Test_Eligible(t *testing.T) {
	cases := []struct {
		name   string
		rating *Tier
		band   Band
		want   bool
	}{
		{"open band admits anyone", nil, Band{}, true},
		{"open band admits rated player", tier(TierBeginner), Band{}, true},
		{"undisclosed rating fails min bound", nil, Band{Min: tier(TierIntermediate)}, false},
		{"undisclosed rating fails max bound", nil, Band{Max: tier(TierAdvanced)}, false},
		{"rating below min", tier(TierCasual), Band{Min: tier(TierIntermediate)}, false},
		{"rating at min", tier(TierIntermediate), Band{Min: tier(TierIntermediate)}, true},
		{"rating above max", tier(TierCompetitive), Band{Max: tier(TierAdvanced)}, false},
		{"rating at max", tier(TierAdvanced), Band{Max: tier(TierAdvanced)}, true},
		{"rating inside both bounds", tier(TierAdvanced), Band{Min: tier(TierIntermediate), Max: tier(TierAdvanced)}, true},
		{"rating outside both bounds", tier(TierBeginner), Band{Min: tier(TierIntermediate), Max: tier(TierAdvanced)}, false},
		{"min-only band open above", tier(TierCompetitive), Band{Min: tier(TierCasual)}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Eligible(tc.rating, tc.band))
		})
	}
}

func Test_Band_Validate(t *testing.T) {
	require.NoError(t, Band{}.Validate())
	require.NoError(t, Band{Min: tier(TierCasual), Max: tier(TierCasual)}.Validate())
	require.Error(t, Band{Min: tier(TierAdvanced), Max: tier(TierCasual)}.Validate())

	bogus := Tier("pro")
	require.Error(t, Band{Min: &bogus}.Validate())
}

func Test_Tier_Rank_Ordering(t *testing.T) {
	ordered := []Tier{TierBeginner, TierCasual, TierIntermediate, TierAdvanced, TierCompetitive}
	for i := 1; i < len(ordered); i++ {
		require.Less(t, ordered[i-1].Rank(), ordered[i].Rank())
	}
	require.Zero(t, Tier("unknown").Rank())
}
