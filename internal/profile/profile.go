// Package profile holds the static portfolio document the assistant speaks for.
package profile

import (
	"sort"
	"strings"
)

type Experience struct {
	Company    string   `json:"company"`
	Role       string   `json:"role"`
	Duration   string   `json:"duration"`
	Location   string   `json:"location"`
	Highlights []string `json:"highlights"`
}

type ProjectLinks struct {
	GitHub string `json:"github,omitempty"`
	Demo   string `json:"demo,omitempty"`
}

type Project struct {
	ID          int          `json:"id"` // Rendering key only
	Name        string       `json:"name"`
	Category    string       `json:"category"`
	Tech        []string     `json:"tech"`
	Description string       `json:"description"`
	Highlights  []string     `json:"highlights"`
	Links       ProjectLinks `json:"links,omitempty"`
}

type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
	Date   string `json:"date"`
}

type Education struct {
	Degree   string `json:"degree"`
	School   string `json:"school"`
	Year     string `json:"year"`
	Location string `json:"location"`
}

type Resume struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	URL     string `json:"url"`
	Format  string `json:"format"`
	Updated string `json:"updated"`
	Size    string `json:"size"`
}

// Profile is the portfolio document. It is loaded once and must be treated as
// read-only afterwards; the same pointer is shared by every conversation.
type Profile struct {
	Name           string              `json:"name"`
	Title          string              `json:"title"`
	Company        string              `json:"company"`
	Location       string              `json:"location"`
	Phone          string              `json:"phone"`
	Email          string              `json:"email"`
	LinkedIn       string              `json:"linkedin"`
	GitHub         string              `json:"github"`
	Bio            string              `json:"bio"`
	LongBio        string              `json:"long_bio"`
	Tags           []string            `json:"tags"`
	Experience     Experience          `json:"experience"`
	Projects       []Project           `json:"projects"`
	Skills         map[string][]string `json:"skills"`
	Certifications []Certification     `json:"certifications"`
	Education      Education           `json:"education"`
	Resume         Resume              `json:"resume"`
	Suggestions    []string            `json:"suggestions,omitempty"`
}

// SkillGroup is one titled skill category, in display order.
type SkillGroup struct {
	Key    string   `json:"key"`
	Title  string   `json:"title"`
	Skills []string `json:"skills"`
}

var skillOrder = []string{"languages", "ml_dl", "nlp_llm", "data_analysis", "frameworks", "deployment", "databases"}

var skillTitles = map[string]string{
	"languages":     "Languages",
	"ml_dl":         "ML / DL",
	"nlp_llm":       "NLP & LLMs",
	"data_analysis": "Data Analysis",
	"frameworks":    "Frameworks",
	"deployment":    "Deployment",
	"databases":     "Databases",
}

// SkillGroups returns the skills mapping in a stable order: known categories
// first in their fixed order, then any other keys alphabetically.
func (p *Profile) SkillGroups() []SkillGroup {
	seen := make(map[string]bool, len(p.Skills))
	groups := make([]SkillGroup, 0, len(p.Skills))
	for _, key := range skillOrder {
		skills, ok := p.Skills[key]
		if !ok {
			continue
		}
		seen[key] = true
		groups = append(groups, SkillGroup{Key: key, Title: skillTitle(key), Skills: skills})
	}

	var rest []string
	for key := range p.Skills {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		groups = append(groups, SkillGroup{Key: key, Title: skillTitle(key), Skills: p.Skills[key]})
	}
	return groups
}

func skillTitle(key string) string {
	if title, ok := skillTitles[key]; ok {
		return title
	}
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ProjectNames lists project names in document order.
func (p *Profile) ProjectNames() []string {
	names := make([]string, 0, len(p.Projects))
	for _, proj := range p.Projects {
		names = append(names, proj.Name)
	}
	return names
}
