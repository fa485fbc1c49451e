package core

// QuickAction is a predefined button: it submits Query as the visitor's
// message and forces Category, skipping classification.
type QuickAction struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Query    string   `json:"query"`
	Category Category `json:"category"`
}

var QuickActions = []QuickAction{
	{ID: "about", Label: "About me", Query: "Who are you? I want to know more about you.", Category: CategoryAbout},
	{ID: "projects", Label: "Projects", Query: "What projects have you worked on?", Category: CategoryProjects},
	{ID: "skills", Label: "Skills", Query: "What are your technical skills?", Category: CategorySkills},
	{ID: "experience", Label: "Experience", Query: "Tell me about your work experience.", Category: CategoryExperience},
	{ID: "contact", Label: "Contact", Query: "How can I contact you?", Category: CategoryContact},
	{ID: "resume", Label: "Resume", Query: "Show me your resume", Category: CategoryResume},
	{ID: "whyhire", Label: "Why hire me", Query: "Why should we hire you?", Category: CategoryWhyHire},
}

func FindQuickAction(id string) (QuickAction, bool) {
	for _, a := range QuickActions {
		if a.ID == id {
			return a, true
		}
	}
	return QuickAction{}, false
}

var acknowledgments = map[Category]string{
	CategoryAbout:      "Here's a little about me:",
	CategoryProjects:   "Here are some of the projects I've built:",
	CategorySkills:     "Here's an overview of my technical skills:",
	CategoryContact:    "Here's how you can reach me:",
	CategoryResume:     "Here's my resume:",
	CategoryExperience: "Here's my professional experience:",
	CategoryWhyHire:    "Here's why I'd be a strong addition to your team:",
}

const defaultAcknowledgment = "Here's the information you requested:"

// Acknowledgment is the fixed text that accompanies a card reply.
func Acknowledgment(c Category) string {
	if ack, ok := acknowledgments[c]; ok {
		return ack
	}
	return defaultAcknowledgment
}
