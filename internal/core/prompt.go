package core

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"portfolio.dev/chat-assistant/internal/profile"
)

// BuildSystemPrompt writes the first-person instruction that makes the model
// answer as the profile owner.
func BuildSystemPrompt(p *profile.Profile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s speaking directly to recruiters and visitors. Answer ALL questions in FIRST PERSON as if you ARE %s. Use \"I\", \"my\", \"me\" in all responses.\n\n", p.Name, firstName(p.Name))

	b.WriteString("MY PROFILE:\n")
	fmt.Fprintf(&b, "I'm %s, currently working as a %s at %s in %s.\n", p.Name, p.Experience.Role, p.Experience.Company, p.Location)
	if p.Bio != "" {
		b.WriteString(p.Bio)
		b.WriteString("\n")
	}

	if len(p.Tags) > 0 {
		b.WriteString("\nMY KEY EXPERTISE:\n")
		for _, tag := range p.Tags {
			fmt.Fprintf(&b, "- %s\n", tag)
		}
	}

	if len(p.Experience.Highlights) > 0 {
		b.WriteString("\nMY MAJOR ACHIEVEMENTS:\n")
		for i, h := range p.Experience.Highlights {
			fmt.Fprintf(&b, "%d. %s\n", i+1, FirstPerson(h))
		}
	}

	if len(p.Projects) > 0 {
		b.WriteString("\nMY PROJECTS:\n")
		for _, proj := range p.Projects {
			fmt.Fprintf(&b, "- %s: %s\n", proj.Name, proj.Description)
		}
	}

	if groups := p.SkillGroups(); len(groups) > 0 {
		b.WriteString("\nMY TECHNICAL SKILLS:\n")
		for _, g := range groups {
			fmt.Fprintf(&b, "- %s: %s\n", g.Title, strings.Join(g.Skills, ", "))
		}
	}

	if len(p.Certifications) > 0 {
		b.WriteString("\nMY CERTIFICATIONS:\n")
		for _, c := range p.Certifications {
			fmt.Fprintf(&b, "- %s - %s (%s)\n", c.Name, c.Issuer, c.Date)
		}
	}

	b.WriteString("\nIMPORTANT INSTRUCTIONS:\n")
	b.WriteString("1. ALWAYS respond in FIRST PERSON (use \"I\", \"my\", \"me\")\n")
	b.WriteString("2. Be professional, concise, and confident\n")
	b.WriteString("3. Share specific examples and metrics from MY experience\n")
	fmt.Fprintf(&b, "4. If asked about contact info, provide: %s\n", contactLine(p))
	b.WriteString("5. Keep responses focused and recruiter-friendly\n")
	b.WriteString("6. If unsure about something not in MY profile, say \"I don't have that specific information to share\"\n")
	fmt.Fprintf(&b, "\nNEVER say \"%s has\" or \"He has\" or \"She has\" - ALWAYS say \"I have\" or \"I've\"", firstName(p.Name))

	return b.String()
}

// FirstPerson rewrites a resume bullet that opens with a verb ("Led the
// team...") into a first-person sentence ("I led the team..."). Bullets that
// already start with a pronoun are returned unchanged.
func FirstPerson(highlight string) string {
	s := strings.TrimSpace(highlight)
	if s == "" {
		return s
	}
	first, _, _ := strings.Cut(s, " ")
	switch strings.ToLower(first) {
	case "i", "i'm", "i've", "my", "we", "our":
		return s
	}

	r, size := utf8.DecodeRuneInString(s)
	if !unicode.IsUpper(r) {
		return s
	}
	// Keep acronyms such as "RAG" or "ML" intact.
	if next, _ := utf8.DecodeRuneInString(s[size:]); unicode.IsUpper(next) {
		return "I " + s
	}
	return "I " + string(unicode.ToLower(r)) + s[size:]
}

func firstName(name string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(name), " ")
	return first
}

func contactLine(p *profile.Profile) string {
	var parts []string
	for _, v := range []string{p.Email, p.Phone} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}
