package search

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/sahilchouksey/prof-ratings/model"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// a chain holds buffers, so each caller takes its own
var stripAccents = sync.Pool{
	New: func() any {
		return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	},
}

// Fold lowercases s and strips accents so "José" and "jose" compare equal
func Fold(s string) string {
	t := stripAccents.Get().(transform.Transformer)
	defer stripAccents.Put(t)
	folded, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return folded
}

// match quality, lower is better
const (
	matchExact = iota
	matchPrefix
	matchWordPrefix
	matchSubstring
	matchNone
)

// MatchScore grades how well candidate matches query
func MatchScore(candidate, query string) int {
	c, q := Fold(candidate), Fold(query)
	switch {
	case q == "":
		return matchNone
	case c == q:
		return matchExact
	case strings.HasPrefix(c, q):
		return matchPrefix
	}
	for _, word := range strings.FieldsFunc(c, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == ',' || r == '.'
	}) {
		if strings.HasPrefix(word, q) {
			return matchWordPrefix
		}
	}
	if strings.Contains(c, q) {
		return matchSubstring
	}
	return matchNone
}

// ProfessorScore is the best score of either name part
func ProfessorScore(p model.Professor, query string) int {
	return min(MatchScore(p.FirstName, query), MatchScore(p.LastName, query), MatchScore(p.FullName(), query))
}

type scored struct {
	sug   Suggestion
	score int
}

func rank(items []scored, limit int) []Suggestion {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score < items[j].score
		}
		return Fold(items[i].sug.Label) < Fold(items[j].sug.Label)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	out := make([]Suggestion, len(items))
	for i, it := range items {
		out[i] = it.sug
	}
	return out
}

// RankUniversities orders schools by how closely their name matches query
func RankUniversities(list []model.University, query string, limit int) []Suggestion {
	items := make([]scored, len(list))
	for i, u := range list {
		items[i] = scored{
			sug:   Suggestion{ID: u.ID, Label: u.Name, Detail: u.Location},
			score: MatchScore(u.Name, query),
		}
	}
	return rank(items, limit)
}

// RankProfessors orders professors by how closely either name matches query
func RankProfessors(list []model.Professor, query string, limit int) []Suggestion {
	items := make([]scored, len(list))
	for i, p := range list {
		items[i] = scored{
			sug:   Suggestion{ID: p.ID, Label: p.FullName(), Detail: p.Department},
			score: ProfessorScore(p, query),
		}
	}
	return rank(items, limit)
}
