package model

import "fmt"

const (
	MinTitleLength  = 3
	MinAuthorLength = 2
)

// Validate checks normalized fields against the required-field rules and the
// permitted categories. It returns a *ValidationError or nil.
func Validate(f PostFields, categories []string) error {
	var problems []string

	switch {
	case f.Title == "":
		problems = append(problems, "title is required")
	case len([]rune(f.Title)) < MinTitleLength:
		problems = append(problems, fmt.Sprintf("title must be at least %d characters", MinTitleLength))
	}
	if f.Content == "" {
		problems = append(problems, "content is required")
	}
	switch {
	case f.Author == "":
		problems = append(problems, "author is required")
	case len([]rune(f.Author)) < MinAuthorLength:
		problems = append(problems, fmt.Sprintf("author must be at least %d characters", MinAuthorLength))
	}
	switch {
	case f.Category == "":
		problems = append(problems, "category is required")
	case !IsCategory(f.Category, categories):
		problems = append(problems, fmt.Sprintf("category %q is not permitted", f.Category))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// IsCategory reports whether c is one of categories.
func IsCategory(c string, categories []string) bool {
	for _, allowed := range categories {
		if c == allowed {
			return true
		}
	}
	return false
}
