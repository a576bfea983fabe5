// skill/skill.go
package skill

import "fmt"

// Tier is one level of the five-tier skill scale used for game eligibility.
type Tier string

const (
	TierBeginner     Tier = "beginner"
	TierCasual       Tier = "casual"
	TierIntermediate Tier = "intermediate"
	TierAdvanced     Tier = "advanced"
	TierCompetitive  Tier = "competitive"
)

// tierRanks fixes the ordering of the scale. Comparisons between tiers always
// go through Rank so the ordering lives in exactly one place.
var tierRanks = map[Tier]int{
	TierBeginner:     1,
	TierCasual:       2,
	TierIntermediate: 3,
	TierAdvanced:     4,
	TierCompetitive:  5,
}

// Valid reports whether t is one of the five known tiers.
func (t Tier) Valid() bool {
	_, ok := tierRanks[t]
	return ok
}

// Rank returns the ordinal position of the tier, 1 (beginner) through 5
// (competitive). Unknown tiers rank 0, below every valid tier.
func (t Tier) Rank() int {
	return tierRanks[t]
}

// Band is an optional skill range attached to a game. A nil bound means the
// band is open on that side; a band with neither bound admits everyone.
type Band struct {
	Min *Tier `json:"min,omitempty"`
	Max *Tier `json:"max,omitempty"`
}

// Bounded reports whether the band restricts at least one side.
func (b Band) Bounded() bool {
	return b.Min != nil || b.Max != nil
}

// Validate checks that any present bounds are known tiers and that min does
// not exceed max.
func (b Band) Validate() error {
	if b.Min != nil && !b.Min.Valid() {
		return fmt.Errorf("unknown skill tier %q", *b.Min)
	}
	if b.Max != nil && !b.Max.Valid() {
		return fmt.Errorf("unknown skill tier %q", *b.Max)
	}
	if b.Min != nil && b.Max != nil && b.Min.Rank() > b.Max.Rank() {
		return fmt.Errorf("skill band min %q is above max %q", *b.Min, *b.Max)
	}
	return nil
}

// Eligible decides whether a player with the given rating may join a game
// with the given band. A nil rating means the player has never disclosed a
// skill level; once a game bounds either side of its band, disclosure is
// mandatory and undisclosed players are rejected.
func Eligible(rating *Tier, band Band) bool {
	if !band.Bounded() {
		return true
	}
	if rating == nil || !rating.Valid() {
		return false
	}
	if band.Min != nil && rating.Rank() < band.Min.Rank() {
		return false
	}
	if band.Max != nil && rating.Rank() > band.Max.Rank() {
		return false
	}
	return true
}
