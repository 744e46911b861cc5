package ratings

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/datatypes"
)

func TestNormalizeTagsShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want []string
	}{
		{name: "nil", raw: nil, want: []string{}},
		{name: "string slice", raw: []string{"Caring", "Hilarious"}, want: []string{"Caring", "Hilarious"}},
		{name: "any slice", raw: []any{"Caring", "Respected"}, want: []string{"Caring", "Respected"}},
		{name: "tag slice", raw: []Tag{TagOnlineSavvy}, want: []string{"Online Savvy"}},
		{name: "json text", raw: `["Caring","Test Heavy"]`, want: []string{"Caring", "Test Heavy"}},
		{name: "json column", raw: datatypes.JSON(`["Inspirational"]`), want: []string{"Inspirational"}},
		{name: "raw message", raw: json.RawMessage(`["Respected"]`), want: []string{"Respected"}},
		{name: "bytes", raw: []byte(`["Caring"]`), want: []string{"Caring"}},
		{name: "json null", raw: datatypes.JSON("null"), want: []string{}},
		{name: "empty string", raw: "  ", want: []string{}},
		{name: "postgres array", raw: `{Caring,"Tough Grader"}`, want: []string{"Caring", "Tough Grader"}},
		{name: "delimited", raw: "Caring, Hilarious ,Respected", want: []string{"Caring", "Hilarious", "Respected"}},
		{name: "single json label", raw: `"Caring"`, want: []string{"Caring"}},
		{name: "canonical casing", raw: []string{"tough grader", " CARING "}, want: []string{"Tough Grader", "Caring"}},
		{name: "unknown labels dropped", raw: []string{"Funny", "Caring"}, want: []string{"Caring"}},
		{name: "duplicates dropped", raw: []string{"Caring", "caring", "Respected"}, want: []string{"Caring", "Respected"}},
		{name: "blank labels dropped", raw: []string{"", " ", "Caring"}, want: []string{"Caring"}},
		{name: "capped at three", raw: []string{"Caring", "Respected", "Hilarious", "Inspirational"}, want: []string{"Caring", "Respected", "Hilarious"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTags(tt.raw, zap.NewNop()))
		})
	}
}

func TestNormalizeTagsMalformedIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)

	for _, raw := range []any{
		`["Caring",`,
		`[1, 2]`,
		`{"unterminated`,
		`"unterminated`,
		[]any{"Caring", 7},
		42,
		map[string]string{"a": "b"},
	} {
		got := NormalizeTags(raw, logger)
		require.NotNil(t, got)
		assert.Empty(t, got, "input %#v", raw)
	}

	assert.Equal(t, 7, logs.Len())
	for _, entry := range logs.All() {
		assert.Equal(t, "failed to decode review tags", entry.Message)
	}
}

func TestNormalizeTagsUnknownLabelsAreLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)

	assert.Empty(t, NormalizeTags(`Caring"]`, logger))
	assert.Empty(t, NormalizeTags("garbage payload", logger))
	require.Equal(t, 2, logs.Len())
	for _, entry := range logs.All() {
		assert.Equal(t, "dropping unknown review tag", entry.Message)
	}

	// a broken row cannot outrank real labels
	reviews := []Review{
		{ID: 1, Tags: NormalizeTags(`Caring"]`, logger)},
		{ID: 2, Tags: NormalizeTags(`Caring"]`, logger)},
		{ID: 3, Tags: NormalizeTags(`["Caring"]`, logger)},
	}
	assert.Equal(t, []string{"Caring"}, Compute(reviews).TopTags)
}

func TestNormalizeTagsNilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.Empty(t, NormalizeTags(`[broken`, nil))
	})
}

func TestNormalizeTagsNeverPanics(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	alphabet := []byte(`[]{}",\ abcCaring:0`)

	for i := 0; i < 2000; i++ {
		buf := make([]byte, rng.Intn(24))
		for j := range buf {
			buf[j] = alphabet[rng.Intn(len(alphabet))]
		}
		input := string(buf)
		require.NotPanics(t, func() {
			got := NormalizeTags(input, zap.NewNop())
			require.NotNil(t, got)
			require.LessOrEqual(t, len(got), MaxTagsPerReview)
		}, "input %q", input)
	}
}

func TestParseTag(t *testing.T) {
	tag, ok := ParseTag("  lots of homework ")
	require.True(t, ok)
	assert.Equal(t, TagLotsOfHomework, tag)

	_, ok = ParseTag("Funny")
	assert.False(t, ok)
	assert.Len(t, Vocabulary, 20)
}

func TestEncodeTagsRoundTrip(t *testing.T) {
	stored := EncodeTags([]Tag{TagCaring, TagTestHeavy})
	assert.JSONEq(t, `["Caring","Test Heavy"]`, string(stored))
	assert.Equal(t, []string{"Caring", "Test Heavy"}, NormalizeTags(stored, zap.NewNop()))
}
