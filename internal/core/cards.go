package core

import (
	"path"
	"strings"

	"portfolio.dev/chat-assistant/internal/profile"
)

const projectTechPreview = 3

type AboutCard struct {
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	Location string   `json:"location"`
	LongBio  string   `json:"long_bio"`
	Bio      string   `json:"bio"`
	Tags     []string `json:"tags"`
}

type ExperienceCard struct {
	Company    string   `json:"company"`
	Role       string   `json:"role"`
	Duration   string   `json:"duration"`
	Location   string   `json:"location"`
	Highlights []string `json:"highlights"`
}

type ProjectTile struct {
	ID          int                  `json:"id"`
	Category    string               `json:"category"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Tech        []string             `json:"tech"`
	Highlights  []string             `json:"highlights"`
	Links       profile.ProjectLinks `json:"links"`
}

type ProjectsCard struct {
	Projects []ProjectTile `json:"projects"`
}

type SkillsCard struct {
	Groups []profile.SkillGroup `json:"groups"`
}

type ContactEntry struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Href     string `json:"href"`
	External bool   `json:"external"`
}

type ContactCard struct {
	Entries []ContactEntry `json:"entries"`
}

type ResumeCard struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	DownloadURL string `json:"download_url"`
	Format      string `json:"format"`
	Updated     string `json:"updated"`
	Size        string `json:"size"`
}

type WhyHireCard struct {
	Headline       string                  `json:"headline"`
	Strengths      []string                `json:"strengths"`
	Achievements   []string                `json:"achievements"`
	Certifications []profile.Certification `json:"certifications"`
}

// Card is the structured view for one category. Exactly one of the pointer
// fields is set, matching Kind.
type Card struct {
	Kind       Category        `json:"kind"`
	About      *AboutCard      `json:"about,omitempty"`
	Experience *ExperienceCard `json:"experience,omitempty"`
	Projects   *ProjectsCard   `json:"projects,omitempty"`
	Skills     *SkillsCard     `json:"skills,omitempty"`
	Contact    *ContactCard    `json:"contact,omitempty"`
	Resume     *ResumeCard     `json:"resume,omitempty"`
	WhyHire    *WhyHireCard    `json:"whyhire,omitempty"`
}

// RenderCard lays out the slice of p that belongs to category. It returns
// false for CategoryText and unknown categories.
func RenderCard(category Category, p *profile.Profile) (Card, bool) {
	card := Card{Kind: category}
	switch category {
	case CategoryAbout:
		card.About = &AboutCard{
			Name:     p.Name,
			Title:    p.Title,
			Location: p.Location,
			LongBio:  p.LongBio,
			Bio:      p.Bio,
			Tags:     p.Tags,
		}
	case CategoryExperience:
		card.Experience = &ExperienceCard{
			Company:    p.Experience.Company,
			Role:       p.Experience.Role,
			Duration:   p.Experience.Duration,
			Location:   p.Experience.Location,
			Highlights: p.Experience.Highlights,
		}
	case CategoryProjects:
		card.Projects = renderProjects(p)
	case CategorySkills:
		card.Skills = &SkillsCard{Groups: p.SkillGroups()}
	case CategoryContact:
		card.Contact = renderContact(p)
	case CategoryResume:
		card.Resume = &ResumeCard{
			Title:       p.Resume.Title,
			Summary:     p.Resume.Summary,
			DownloadURL: p.Resume.URL,
			Format:      p.Resume.Format,
			Updated:     p.Resume.Updated,
			Size:        p.Resume.Size,
		}
	case CategoryWhyHire:
		card.WhyHire = renderWhyHire(p)
	default:
		return Card{}, false
	}
	return card, true
}

func renderProjects(p *profile.Profile) *ProjectsCard {
	tiles := make([]ProjectTile, 0, len(p.Projects))
	for _, proj := range p.Projects {
		tech := proj.Tech
		if len(tech) > projectTechPreview {
			tech = tech[:projectTechPreview]
		}
		tiles = append(tiles, ProjectTile{
			ID:          proj.ID,
			Category:    proj.Category,
			Name:        proj.Name,
			Description: proj.Description,
			Tech:        tech,
			Highlights:  proj.Highlights,
			Links:       proj.Links,
		})
	}
	return &ProjectsCard{Projects: tiles}
}

func renderContact(p *profile.Profile) *ContactCard {
	var entries []ContactEntry
	if p.Email != "" {
		entries = append(entries, ContactEntry{Label: "Email", Value: p.Email, Href: "mailto:" + p.Email})
	}
	if p.Phone != "" {
		entries = append(entries, ContactEntry{Label: "Phone", Value: p.Phone, Href: "tel:" + p.Phone})
	}
	if p.LinkedIn != "" {
		entries = append(entries, ContactEntry{Label: "LinkedIn", Value: handle(p.LinkedIn), Href: p.LinkedIn, External: true})
	}
	if p.GitHub != "" {
		entries = append(entries, ContactEntry{Label: "GitHub", Value: handle(p.GitHub), Href: p.GitHub, External: true})
	}
	return &ContactCard{Entries: entries}
}

// handle turns a profile URL into its last path segment.
func handle(url string) string {
	return path.Base(strings.TrimRight(url, "/"))
}

func renderWhyHire(p *profile.Profile) *WhyHireCard {
	achievements := make([]string, 0, len(p.Experience.Highlights))
	for _, h := range p.Experience.Highlights {
		achievements = append(achievements, stripTechSuffix(h))
	}
	return &WhyHireCard{
		Headline:       "Why hire " + p.Name + "?",
		Strengths:      p.Tags,
		Achievements:   achievements,
		Certifications: p.Certifications,
	}
}

// stripTechSuffix drops a trailing "(Python, Flask, ...)" list from a highlight.
func stripTechSuffix(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, ")") {
		return s
	}
	if i := strings.LastIndex(s, " ("); i > 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
