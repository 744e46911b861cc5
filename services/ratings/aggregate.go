package ratings

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
)

// NotApplicable is shown in place of a statistic that has no data behind it
const NotApplicable = "N/A"

// MaxTopTags is how many tags the aggregate ranks
const MaxTopTags = 3

// UnknownRule decides how unanswered "would take again" responses count
// toward the would-take-again percentage.
type UnknownRule int

const (
	// UnknownInDenominator counts unanswered reviews as "not yes"
	UnknownInDenominator UnknownRule = iota
	// UnknownExcluded leaves unanswered reviews out of the percentage entirely
	UnknownExcluded
)

// WouldTakeAgainRule is the rule Compute applies
const WouldTakeAgainRule = UnknownInDenominator

// Stat is a rounded statistic that may be undefined.
// An undefined Stat marshals as "N/A", never as 0.
type Stat struct {
	Value    float64
	Valid    bool
	decimals int
}

func newStat(v float64, decimals int) Stat {
	p := math.Pow(10, float64(decimals))
	return Stat{Value: math.Round(v*p) / p, Valid: true, decimals: decimals}
}

func undefinedStat(decimals int) Stat {
	return Stat{decimals: decimals}
}

// String formats the statistic with its fixed precision, or "N/A"
func (s Stat) String() string {
	if !s.Valid {
		return NotApplicable
	}
	return strconv.FormatFloat(s.Value, 'f', s.decimals, 64)
}

func (s Stat) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Aggregate summarises every review of one professor
type Aggregate struct {
	OverallRating     Stat     `json:"overall_rating"`
	Difficulty        Stat     `json:"difficulty"`
	WouldTakeAgainPct Stat     `json:"would_take_again_percentage"`
	TopTags           []string `json:"top_tags"`
	ReviewCount       int      `json:"review_count"`
	// RatingDistribution[i] counts reviews whose rating rounds to i+1
	RatingDistribution [5]int `json:"rating_distribution"`
}

// Compute builds the aggregate for the full, unfiltered review set
func Compute(reviews []Review) Aggregate {
	return ComputeWithRule(reviews, WouldTakeAgainRule)
}

// ComputeWithRule is Compute with an explicit would-take-again rule
func ComputeWithRule(reviews []Review, rule UnknownRule) Aggregate {
	agg := Aggregate{
		OverallRating:     undefinedStat(1),
		Difficulty:        undefinedStat(1),
		WouldTakeAgainPct: undefinedStat(0),
		TopTags:           TopTags(reviews, MaxTopTags),
		ReviewCount:       len(reviews),
	}
	if len(reviews) == 0 {
		return agg
	}

	var ratingSum, difficultySum float64
	var yes, answered int
	for _, r := range reviews {
		ratingSum += r.Rating
		difficultySum += r.Difficulty
		if r.WouldTakeAgain != nil {
			answered++
			if *r.WouldTakeAgain {
				yes++
			}
		}
		if bucket := int(math.Round(r.Rating)); bucket >= 1 && bucket <= 5 {
			agg.RatingDistribution[bucket-1]++
		}
	}

	n := float64(len(reviews))
	agg.OverallRating = newStat(ratingSum/n, 1)
	agg.Difficulty = newStat(difficultySum/n, 1)

	denominator := len(reviews)
	if rule == UnknownExcluded {
		denominator = answered
	}
	if denominator > 0 {
		agg.WouldTakeAgainPct = newStat(100*float64(yes)/float64(denominator), 0)
	}
	return agg
}

// TopTags ranks tags by how many times they occur across reviews. Ties keep
// the order in which the tags were first seen.
func TopTags(reviews []Review, limit int) []string {
	counts := make(map[string]int)
	var order []string
	for _, r := range reviews {
		for _, tag := range r.Tags {
			if _, ok := counts[tag]; !ok {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}
	if order == nil {
		return []string{}
	}
	return order
}
