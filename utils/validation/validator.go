package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sahilchouksey/prof-ratings/model"
	"github.com/sahilchouksey/prof-ratings/services/ratings"
	"golang.org/x/net/html"
)

// Validator wraps the go-playground validator
type Validator struct {
	validate *validator.Validate
}

// fieldMessages overrides the generic message for a field and rule
var fieldMessages = map[string]string{
	"course_id.required":  "Please select a course",
	"rating.required":     "Please rate the professor",
	"difficulty.required": "Please rate the difficulty",
	"tags.max":            fmt.Sprintf("Select up to %d tags", ratings.MaxTagsPerReview),
}

// NewValidator creates a new validator instance. Field names in errors are
// the JSON names. Besides the built-in rules it knows review_tag (a label
// from the tag vocabulary) and grade (a letter grade or empty).
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	// errors only come from malformed rule names
	_ = v.RegisterValidation("review_tag", func(fl validator.FieldLevel) bool {
		tag, ok := ratings.ParseTag(fl.Field().String())
		return ok && string(tag) == strings.TrimSpace(fl.Field().String())
	})
	_ = v.RegisterValidation("grade", func(fl validator.FieldLevel) bool {
		grade := fl.Field().String()
		if grade == "" {
			return true
		}
		for _, g := range model.Grades {
			if g == grade {
				return true
			}
		}
		return false
	})

	return &Validator{validate: v}
}

// ValidateStruct validates a struct using struct tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// FormatValidationErrors converts validation errors to a user-friendly format
func FormatValidationErrors(err error) map[string]string {
	errs := make(map[string]string)

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		if err != nil {
			errs["_"] = err.Error()
		}
		return errs
	}

	for _, e := range validationErrs {
		field := fieldPath(e)
		if msg, ok := fieldMessages[rootField(field)+"."+e.Tag()]; ok {
			errs[field] = msg
			continue
		}
		switch e.Tag() {
		case "required":
			errs[field] = fmt.Sprintf("%s is required", field)
		case "email":
			errs[field] = "Invalid email format"
		case "url":
			errs[field] = "Invalid URL"
		case "min":
			errs[field] = fmt.Sprintf("%s must be at least %s", field, e.Param())
		case "max":
			errs[field] = fmt.Sprintf("%s must be at most %s", field, e.Param())
		case "gte":
			errs[field] = fmt.Sprintf("%s must be greater than or equal to %s", field, e.Param())
		case "lte":
			errs[field] = fmt.Sprintf("%s must be less than or equal to %s", field, e.Param())
		case "unique":
			errs[field] = fmt.Sprintf("%s must not repeat values", field)
		case "review_tag":
			errs[field] = fmt.Sprintf("%q is not a known tag", e.Value())
		case "grade":
			errs[field] = fmt.Sprintf("grade must be one of %s", strings.Join(model.Grades, ", "))
		default:
			errs[field] = fmt.Sprintf("%s is invalid", field)
		}
	}

	return errs
}

// fieldPath is the namespace without the struct name, e.g. "tags[1]"
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func rootField(path string) string {
	if i := strings.IndexAny(path, ".["); i >= 0 {
		return path[:i]
	}
	return path
}

// SanitizeString removes potentially dangerous characters
func SanitizeString(s string) string {
	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")
	// Trim whitespace
	s = strings.TrimSpace(s)
	return s
}

// StripMarkup drops HTML tags from free text, keeping the text content.
// Script and style bodies are dropped entirely.
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return SanitizeString(s)
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input; keep what was read
			return SanitizeString(b.String())
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			if isRawTextTag(name) {
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if isRawTextTag(name) && skip > 0 {
				skip--
			}
		}
	}
}

func isRawTextTag(name []byte) bool {
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}
