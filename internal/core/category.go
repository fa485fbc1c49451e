package core

import (
	"fmt"
	"strings"
)

// Category tags an assistant message with the card (if any) that goes with it.
type Category string

const (
	CategoryAbout      Category = "about"
	CategoryProjects   Category = "projects"
	CategorySkills     Category = "skills"
	CategoryContact    Category = "contact"
	CategoryResume     Category = "resume"
	CategoryExperience Category = "experience"
	CategoryWhyHire    Category = "whyhire"
	CategoryText       Category = "text"
)

// Categories lists every category, card categories first.
var Categories = []Category{
	CategoryAbout,
	CategoryProjects,
	CategorySkills,
	CategoryContact,
	CategoryResume,
	CategoryExperience,
	CategoryWhyHire,
	CategoryText,
}

// HasCard reports whether the category is answered with a profile card
// rather than a generated completion.
func (c Category) HasCard() bool {
	return c != CategoryText && c != ""
}

func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == strings.ToLower(strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

type classifierRule struct {
	keywords []string
	category Category
}

func (r classifierRule) matches(lower string) bool {
	for _, kw := range r.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// classifierRules are evaluated in order; the first match wins. The order is
// part of the contract: "my projects" must stay projects even though it also
// contains "me"-style keywords further down.
var classifierRules = []classifierRule{
	{keywords: []string{"project"}, category: CategoryProjects},
	{keywords: []string{"skill", "technolog"}, category: CategorySkills},
	{keywords: []string{"about", "me", "who"}, category: CategoryAbout},
	{keywords: []string{"contact", "reach", "email"}, category: CategoryContact},
	{keywords: []string{"resume", "cv"}, category: CategoryResume},
	{keywords: []string{"experience", "work"}, category: CategoryExperience},
}

// Classify maps free text to a category by case-insensitive substring
// matching. It is total: anything unmatched, including "", is CategoryText.
func Classify(query string) Category {
	lower := strings.ToLower(query)
	for _, rule := range classifierRules {
		if rule.matches(lower) {
			return rule.category
		}
	}
	return CategoryText
}
