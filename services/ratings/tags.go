package ratings

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// MaxTagsPerReview caps how many labels one review may carry
const MaxTagsPerReview = 3

// Tag is a label from the controlled review vocabulary
type Tag string

const (
	TagToughGrader            Tag = "Tough Grader"
	TagGetReadyToRead         Tag = "Get Ready To Read"
	TagParticipationMatters   Tag = "Participation Matters"
	TagExtraCredit            Tag = "Extra Credit"
	TagGroupProjects          Tag = "Group Projects"
	TagAmazingLectures        Tag = "Amazing Lectures"
	TagClearGradingCriteria   Tag = "Clear Grading Criteria"
	TagGivesGoodFeedback      Tag = "Gives Good Feedback"
	TagInspirational          Tag = "Inspirational"
	TagLotsOfHomework         Tag = "Lots Of Homework"
	TagHilarious              Tag = "Hilarious"
	TagBewareOfPopQuizzes     Tag = "Beware Of Pop Quizzes"
	TagSoManyPapers           Tag = "So Many Papers"
	TagCaring                 Tag = "Caring"
	TagRespected              Tag = "Respected"
	TagLectureHeavy           Tag = "Lecture Heavy"
	TagTestHeavy              Tag = "Test Heavy"
	TagGradedByFewThings      Tag = "Graded By Few Things"
	TagAccessibleOutsideClass Tag = "Accessible Outside Class"
	TagOnlineSavvy            Tag = "Online Savvy"
)

// Vocabulary lists every tag in display order
var Vocabulary = []Tag{
	TagToughGrader,
	TagGetReadyToRead,
	TagParticipationMatters,
	TagExtraCredit,
	TagGroupProjects,
	TagAmazingLectures,
	TagClearGradingCriteria,
	TagGivesGoodFeedback,
	TagInspirational,
	TagLotsOfHomework,
	TagHilarious,
	TagBewareOfPopQuizzes,
	TagSoManyPapers,
	TagCaring,
	TagRespected,
	TagLectureHeavy,
	TagTestHeavy,
	TagGradedByFewThings,
	TagAccessibleOutsideClass,
	TagOnlineSavvy,
}

var vocabularyIndex = func() map[string]Tag {
	m := make(map[string]Tag, len(Vocabulary))
	for _, t := range Vocabulary {
		m[strings.ToLower(string(t))] = t
	}
	return m
}()

// ParseTag resolves a label against the vocabulary, ignoring case and
// surrounding whitespace.
func ParseTag(label string) (Tag, bool) {
	t, ok := vocabularyIndex[strings.ToLower(strings.TrimSpace(label))]
	return t, ok
}

// NormalizeTags turns a stored tag field of any shape into an ordered list of
// labels. It never fails: undecodable input is logged and read as no tags.
//
// Labels come back in their canonical spelling. Anything outside the
// vocabulary is logged and dropped.
func NormalizeTags(raw any, logger *zap.Logger) []string {
	if logger == nil {
		logger = zap.NewNop()
	}
	labels, err := decodeTags(raw)
	if err != nil {
		logger.Warn("failed to decode review tags", zap.Error(err))
		return []string{}
	}
	return cleanTags(labels, logger)
}

func decodeTags(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case []Tag:
		out := make([]string, len(v))
		for i, t := range v {
			out[i] = string(t)
		}
		return out, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("tag %d has type %T", i, item)
			}
			out = append(out, s)
		}
		return out, nil
	case datatypes.JSON:
		return decodeTagText(string(v))
	case json.RawMessage:
		return decodeTagText(string(v))
	case []byte:
		return decodeTagText(string(v))
	case string:
		return decodeTagText(v)
	default:
		return nil, fmt.Errorf("unsupported tag field type %T", raw)
	}
}

func decodeTagText(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "" || text == "null":
		return nil, nil
	case strings.HasPrefix(text, "["):
		var out []string
		if err := json.Unmarshal([]byte(text), &out); err != nil {
			return nil, fmt.Errorf("invalid tag JSON: %w", err)
		}
		return out, nil
	case strings.HasPrefix(text, "{"):
		var arr pq.StringArray
		if err := arr.Scan(text); err != nil {
			return nil, fmt.Errorf("invalid tag array literal: %w", err)
		}
		return arr, nil
	case strings.HasPrefix(text, `"`):
		// a single JSON-encoded label
		var one string
		if err := json.Unmarshal([]byte(text), &one); err != nil {
			return nil, fmt.Errorf("invalid tag JSON: %w", err)
		}
		return []string{one}, nil
	}
	return strings.Split(text, ","), nil
}

func cleanTags(labels []string, logger *zap.Logger) []string {
	out := make([]string, 0, MaxTagsPerReview)
	seen := make(map[Tag]struct{}, len(labels))
	for _, label := range labels {
		if strings.TrimSpace(label) == "" {
			continue
		}
		t, ok := ParseTag(label)
		if !ok {
			logger.Warn("dropping unknown review tag", zap.String("tag", label))
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, string(t))
		if len(out) == MaxTagsPerReview {
			break
		}
	}
	return out
}

// EncodeTags produces the stored form of a tag list
func EncodeTags(tags []Tag) datatypes.JSON {
	labels := make([]string, len(tags))
	for i, t := range tags {
		labels[i] = string(t)
	}
	b, _ := json.Marshal(labels)
	return datatypes.JSON(b)
}
