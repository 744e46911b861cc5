package ratings

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestComputeEmptyUsesSentinels(t *testing.T) {
	agg := Compute(nil)

	assert.False(t, agg.OverallRating.Valid)
	assert.False(t, agg.Difficulty.Valid)
	assert.False(t, agg.WouldTakeAgainPct.Valid)
	assert.Equal(t, 0, agg.ReviewCount)
	assert.Empty(t, agg.TopTags)

	b, err := json.Marshal(agg)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "N/A", decoded["overall_rating"])
	assert.Equal(t, "N/A", decoded["difficulty"])
	assert.Equal(t, "N/A", decoded["would_take_again_percentage"])
}

func TestComputeScenario(t *testing.T) {
	reviews := []Review{
		{ID: 1, Rating: 5, Difficulty: 2, WouldTakeAgain: boolPtr(true), Tags: []string{"Caring", "Funny"}},
		{ID: 2, Rating: 3, Difficulty: 4, WouldTakeAgain: boolPtr(false), Tags: []string{"Caring"}},
	}

	agg := Compute(reviews)

	assert.Equal(t, "4.0", agg.OverallRating.String())
	assert.Equal(t, "3.0", agg.Difficulty.String())
	assert.Equal(t, "50", agg.WouldTakeAgainPct.String())
	assert.Equal(t, []string{"Caring", "Funny"}, agg.TopTags)
	assert.Equal(t, 2, agg.ReviewCount)
	assert.Equal(t, [5]int{0, 0, 1, 0, 1}, agg.RatingDistribution)
}

func TestComputeRounding(t *testing.T) {
	reviews := []Review{
		{Rating: 5, Difficulty: 1},
		{Rating: 4, Difficulty: 1},
		{Rating: 4, Difficulty: 2},
	}

	agg := Compute(reviews)

	// 13/3 = 4.333.., 4/3 = 1.333..
	assert.Equal(t, "4.3", agg.OverallRating.String())
	assert.Equal(t, "1.3", agg.Difficulty.String())
	assert.InDelta(t, 4.3, agg.OverallRating.Value, 1e-9)
}

func TestWouldTakeAgainUnknownRules(t *testing.T) {
	reviews := []Review{
		{Rating: 4, Difficulty: 3, WouldTakeAgain: boolPtr(true)},
		{Rating: 4, Difficulty: 3, WouldTakeAgain: nil},
		{Rating: 4, Difficulty: 3, WouldTakeAgain: nil},
		{Rating: 4, Difficulty: 3, WouldTakeAgain: boolPtr(false)},
	}

	t.Run("unknown in denominator", func(t *testing.T) {
		agg := ComputeWithRule(reviews, UnknownInDenominator)
		assert.Equal(t, "25", agg.WouldTakeAgainPct.String())
	})

	t.Run("unknown excluded", func(t *testing.T) {
		agg := ComputeWithRule(reviews, UnknownExcluded)
		assert.Equal(t, "50", agg.WouldTakeAgainPct.String())
	})

	t.Run("default rule counts unknown in denominator", func(t *testing.T) {
		assert.Equal(t, UnknownInDenominator, WouldTakeAgainRule)
		assert.Equal(t, ComputeWithRule(reviews, UnknownInDenominator), Compute(reviews))
	})

	t.Run("all unknown", func(t *testing.T) {
		unknown := []Review{{Rating: 3, Difficulty: 3}, {Rating: 2, Difficulty: 2}}
		assert.Equal(t, "0", ComputeWithRule(unknown, UnknownInDenominator).WouldTakeAgainPct.String())
		assert.Equal(t, NotApplicable, ComputeWithRule(unknown, UnknownExcluded).WouldTakeAgainPct.String())
	})
}

func TestTopTagsTieBreakFirstSeen(t *testing.T) {
	reviews := []Review{
		{Tags: []string{"Test Heavy", "Caring"}},
		{Tags: []string{"Hilarious", "Caring"}},
		{Tags: []string{"Hilarious", "Respected"}},
		{Tags: []string{"Respected", "Test Heavy"}},
	}

	// every tag appears twice, so first-seen order decides
	assert.Equal(t, []string{"Test Heavy", "Caring", "Hilarious"}, TopTags(reviews, 3))
}

func TestTopTagsHigherFrequencyWins(t *testing.T) {
	reviews := []Review{
		{Tags: []string{"Caring"}},
		{Tags: []string{"Tough Grader", "Lecture Heavy"}},
		{Tags: []string{"Lecture Heavy"}},
		{Tags: []string{"Lecture Heavy", "Tough Grader"}},
		{Tags: []string{"Online Savvy"}},
	}

	assert.Equal(t, []string{"Lecture Heavy", "Tough Grader", "Caring"}, TopTags(reviews, 3))
}

func TestComputeProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	vocab := []string{"Caring", "Hilarious", "Respected", "Test Heavy", "Inspirational"}

	for iter := 0; iter < 500; iter++ {
		n := rng.Intn(12)
		reviews := make([]Review, n)
		seen := map[string]bool{}
		for i := range reviews {
			r := Review{
				Rating:     float64(1 + rng.Intn(5)),
				Difficulty: float64(1 + rng.Intn(5)),
			}
			switch rng.Intn(3) {
			case 0:
				r.WouldTakeAgain = boolPtr(true)
			case 1:
				r.WouldTakeAgain = boolPtr(false)
			}
			for k := rng.Intn(4); k > 0; k-- {
				tag := vocab[rng.Intn(len(vocab))]
				r.Tags = append(r.Tags, tag)
				seen[tag] = true
			}
			reviews[i] = r
		}

		for _, rule := range []UnknownRule{UnknownInDenominator, UnknownExcluded} {
			agg := ComputeWithRule(reviews, rule)
			require.Equal(t, n, agg.ReviewCount)
			require.LessOrEqual(t, len(agg.TopTags), MaxTopTags)
			for _, tag := range agg.TopTags {
				require.True(t, seen[tag], "invented tag %q", tag)
			}

			if n == 0 {
				require.False(t, agg.OverallRating.Valid)
				require.False(t, agg.Difficulty.Valid)
				require.False(t, agg.WouldTakeAgainPct.Valid)
				continue
			}
			require.True(t, agg.OverallRating.Valid)
			require.GreaterOrEqual(t, agg.OverallRating.Value, 1.0)
			require.LessOrEqual(t, agg.OverallRating.Value, 5.0)
			require.GreaterOrEqual(t, agg.Difficulty.Value, 1.0)
			require.LessOrEqual(t, agg.Difficulty.Value, 5.0)
			if agg.WouldTakeAgainPct.Valid {
				require.GreaterOrEqual(t, agg.WouldTakeAgainPct.Value, 0.0)
				require.LessOrEqual(t, agg.WouldTakeAgainPct.Value, 100.0)
			}
		}
	}
}
