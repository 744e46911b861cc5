package search

import (
	"fmt"
	"net/url"
	"strconv"
)

// NavigationKind says which view a submitted search opens
type NavigationKind string

const (
	NavDetail             NavigationKind = "detail"
	NavPersonResults      NavigationKind = "person_results"
	NavInstitutionResults NavigationKind = "institution_results"
)

// Navigation is the target of a submitted search
type Navigation struct {
	Kind         NavigationKind `json:"kind"`
	ProfessorID  uint           `json:"professor_id,omitempty"`
	UniversityID uint           `json:"university_id,omitempty"`
	Query        string         `json:"query,omitempty"`
	Path         string         `json:"path"`
}

// DetailView opens a professor's page
func DetailView(professorID uint) Navigation {
	return Navigation{
		Kind:        NavDetail,
		ProfessorID: professorID,
		Path:        fmt.Sprintf("/professor/%d", professorID),
	}
}

// PersonResultsView lists professors at a school matching query
func PersonResultsView(universityID uint, query string) Navigation {
	params := url.Values{}
	params.Set("university", strconv.FormatUint(uint64(universityID), 10))
	params.Set("professor", query)
	return Navigation{
		Kind:         NavPersonResults,
		UniversityID: universityID,
		Query:        query,
		Path:         "/search-results/professors?" + params.Encode(),
	}
}

// InstitutionResultsView lists schools matching query
func InstitutionResultsView(query string) Navigation {
	params := url.Values{}
	params.Set("school", query)
	return Navigation{
		Kind:  NavInstitutionResults,
		Query: query,
		Path:  "/search-results/school?" + params.Encode(),
	}
}
