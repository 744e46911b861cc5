package ratings

import (
	"sort"
	"strings"

	"github.com/sahilchouksey/prof-ratings/model"
)

// AllCourses is the selector value that disables course filtering
const AllCourses = "All courses"

// UnknownCourse labels a review whose course cannot be resolved
const UnknownCourse = "Unknown Course"

// CourseMap indexes courses by id for label lookup
type CourseMap map[uint]model.Course

// NewCourseMap indexes a course list
func NewCourseMap(courses []model.Course) CourseMap {
	m := make(CourseMap, len(courses))
	for _, c := range courses {
		m[c.ID] = c
	}
	return m
}

// Code returns the course code for id, if known
func (m CourseMap) Code(id uint) (string, bool) {
	c, ok := m[id]
	if !ok {
		return "", false
	}
	return c.Code, true
}

// IsAllCourses reports whether selector means "no filter". An empty
// selector is treated the same way.
func IsAllCourses(selector string) bool {
	selector = strings.TrimSpace(selector)
	return selector == "" || selector == AllCourses
}

// FilterByCourse keeps the reviews whose course code equals selector, in
// their original order. Reviews with an unresolvable course never match a
// specific code. The all-courses selector returns reviews unchanged.
func FilterByCourse(reviews []Review, courses CourseMap, selector string) []Review {
	if IsAllCourses(selector) {
		return reviews
	}
	selector = strings.TrimSpace(selector)
	out := make([]Review, 0, len(reviews))
	for _, r := range reviews {
		code, ok := courses.Code(r.CourseID)
		if ok && code == selector {
			out = append(out, r)
		}
	}
	return out
}

// LabeledReview is a review with its course code resolved for display
type LabeledReview struct {
	Review
	CourseCode string `json:"course_code"`
}

// LabelReviews attaches course codes, using UnknownCourse when a review's
// course is missing from the map.
func LabelReviews(reviews []Review, courses CourseMap) []LabeledReview {
	out := make([]LabeledReview, len(reviews))
	for i, r := range reviews {
		code, ok := courses.Code(r.CourseID)
		if !ok {
			code = UnknownCourse
		}
		out[i] = LabeledReview{Review: r, CourseCode: code}
	}
	return out
}

// CourseOptions lists the selector values for a course dropdown: the
// all-courses sentinel followed by the distinct course codes in order.
func CourseOptions(courses CourseMap) []string {
	seen := make(map[string]struct{}, len(courses))
	codes := make([]string, 0, len(courses))
	for _, c := range courses {
		if _, ok := seen[c.Code]; ok {
			continue
		}
		seen[c.Code] = struct{}{}
		codes = append(codes, c.Code)
	}
	sort.Strings(codes)
	return append([]string{AllCourses}, codes...)
}
