package search

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MinQueryLength is the number of characters a search box needs before
// suggestions are fetched.
const MinQueryLength = 3

var (
	ErrNoInstitution     = errors.New("search: choose a school before searching for a professor")
	ErrUnknownSuggestion = errors.New("search: selection is not among the current suggestions")
	ErrStale             = errors.New("search: input is older than the latest accepted input")
)

// Phase is where a search session is in the two-stage flow
type Phase string

const (
	PhaseNoInstitution     Phase = "no_institution"
	PhaseInstitutionChosen Phase = "institution_chosen"
	PhasePersonChosen      Phase = "person_chosen"
)

// Stage identifies one of the two search boxes
type Stage string

const (
	StageInstitution Stage = "institution"
	StagePerson      Stage = "person"
)

// Suggestion is one typeahead entry
type Suggestion struct {
	ID     uint   `json:"id"`
	Label  string `json:"label"`
	Detail string `json:"detail,omitempty"`
}

// Ticket describes a suggestion query the state machine wants run. Its
// result is only applied while the ticket is still the latest for its stage.
type Ticket struct {
	Stage        Stage  `json:"stage"`
	Seq          uint64 `json:"seq"`
	Text         string `json:"text"`
	UniversityID uint   `json:"university_id,omitempty"`
}

// State is the typeahead state of one search session. The zero value is a
// fresh session with no school chosen.
type State struct {
	InstitutionText        string       `json:"institution_text"`
	Institution            *Suggestion  `json:"institution"`
	InstitutionSuggestions []Suggestion `json:"institution_suggestions"`
	InstitutionSeq         uint64       `json:"institution_seq"`

	PersonText        string       `json:"person_text"`
	Person            *Suggestion  `json:"person"`
	PersonSuggestions []Suggestion `json:"person_suggestions"`
	PersonSeq         uint64       `json:"person_seq"`
}

// Phase derives the current phase
func (s *State) Phase() Phase {
	switch {
	case s.Institution == nil:
		return PhaseNoInstitution
	case s.Person == nil:
		return PhaseInstitutionChosen
	default:
		return PhasePersonChosen
	}
}

// Queryable reports whether text is long enough to search on
func Queryable(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= MinQueryLength
}

// nextSeq accepts a client sequence number. Zero asks for the next number.
func nextSeq(last, seq uint64) (uint64, error) {
	if seq == 0 {
		return last + 1, nil
	}
	if seq <= last {
		return 0, ErrStale
	}
	return seq, nil
}

// TypeInstitution records new school text. Editing the text after a school
// was chosen starts the search over. The returned ticket is valid when ok.
func (s *State) TypeInstitution(text string, seq uint64) (ticket Ticket, ok bool, err error) {
	seq, err = nextSeq(s.InstitutionSeq, seq)
	if err != nil {
		return Ticket{}, false, err
	}
	s.InstitutionSeq = seq

	if s.Institution != nil && text != s.InstitutionText {
		s.clearInstitution()
	}
	s.InstitutionText = text

	if !Queryable(text) {
		s.InstitutionSuggestions = nil
		return Ticket{}, false, nil
	}
	return Ticket{Stage: StageInstitution, Seq: seq, Text: strings.TrimSpace(text)}, true, nil
}

// TypePerson records new professor text. It requires a chosen school; editing
// the text after a professor was chosen drops that choice.
func (s *State) TypePerson(text string, seq uint64) (ticket Ticket, ok bool, err error) {
	if s.Institution == nil {
		return Ticket{}, false, ErrNoInstitution
	}
	seq, err = nextSeq(s.PersonSeq, seq)
	if err != nil {
		return Ticket{}, false, err
	}
	s.PersonSeq = seq

	if s.Person != nil && text != s.PersonText {
		s.Person = nil
	}
	s.PersonText = text

	if !Queryable(text) {
		s.PersonSuggestions = nil
		return Ticket{}, false, nil
	}
	return Ticket{
		Stage:        StagePerson,
		Seq:          seq,
		Text:         strings.TrimSpace(text),
		UniversityID: s.Institution.ID,
	}, true, nil
}

// ApplySuggestions stores the result of a ticket's query. It reports false,
// leaving the state untouched, when the ticket has been superseded.
func (s *State) ApplySuggestions(t Ticket, list []Suggestion) bool {
	if list == nil {
		list = []Suggestion{}
	}
	switch t.Stage {
	case StageInstitution:
		if t.Seq != s.InstitutionSeq || s.Institution != nil {
			return false
		}
		s.InstitutionSuggestions = list
	case StagePerson:
		if t.Seq != s.PersonSeq || s.Institution == nil || s.Institution.ID != t.UniversityID || s.Person != nil {
			return false
		}
		s.PersonSuggestions = list
	default:
		return false
	}
	return true
}

// PickInstitution chooses one of the pending school suggestions
func (s *State) PickInstitution(id uint) error {
	pick, ok := find(s.InstitutionSuggestions, id)
	if !ok {
		return ErrUnknownSuggestion
	}
	s.clearInstitution()
	s.Institution = &pick
	s.InstitutionText = pick.Label
	return nil
}

// PickPerson chooses one of the pending professor suggestions
func (s *State) PickPerson(id uint) error {
	if s.Institution == nil {
		return ErrNoInstitution
	}
	pick, ok := find(s.PersonSuggestions, id)
	if !ok {
		return ErrUnknownSuggestion
	}
	s.Person = &pick
	s.PersonText = pick.Label
	s.PersonSuggestions = nil
	return nil
}

// Reset returns to a fresh search. Sequence numbers are kept so responses
// to inputs typed before the reset are still discarded.
func (s *State) Reset() {
	s.InstitutionText = ""
	s.clearInstitution()
}

func (s *State) clearInstitution() {
	s.Institution = nil
	s.InstitutionSuggestions = nil
	s.Person = nil
	s.PersonText = ""
	s.PersonSuggestions = nil
}

// Submit decides where the search box sends the user. ok is false when the
// input is not specific enough to go anywhere.
func (s *State) Submit() (nav Navigation, ok bool) {
	switch s.Phase() {
	case PhasePersonChosen:
		return DetailView(s.Person.ID), true
	case PhaseInstitutionChosen:
		if Queryable(s.PersonText) {
			return PersonResultsView(s.Institution.ID, strings.TrimSpace(s.PersonText)), true
		}
	case PhaseNoInstitution:
		if Queryable(s.InstitutionText) {
			return InstitutionResultsView(strings.TrimSpace(s.InstitutionText)), true
		}
	}
	return Navigation{}, false
}

func find(list []Suggestion, id uint) (Suggestion, bool) {
	for _, sug := range list {
		if sug.ID == id {
			return sug, true
		}
	}
	return Suggestion{}, false
}
