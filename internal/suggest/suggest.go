// Package suggest maps a parameter name to likely locations a stored
// payload might later render or execute, grounded in the reference
// tool's fuzzy parameter-pattern matcher (triggers/suggestions.py).
package suggest

import "strings"

// Suggestion is one candidate trigger location for a given parameter.
type Suggestion struct {
	Location     string
	Likelihood   string // high|medium|low
	Description  string
	ManualSteps  []string
}

var likelihoodOrder = map[string]int{"high": 0, "medium": 1, "low": 2}

var triggerMap = map[string][]Suggestion{
	"name": {
		{"Admin User List", "high", "User names often displayed in admin dashboards",
			[]string{"Log into admin panel", "Navigate to User Management", "View user list or search for injected user"}},
		{"Activity Logs", "medium", "User activity may be logged with name field",
			[]string{"Access activity/audit log viewer", "Filter by recent activity", "Review entries containing injected data"}},
	},
	"comment": {
		{"Content Moderation Queue", "high", "Comments typically reviewed before publishing",
			[]string{"Access moderation dashboard", "Review pending comments", "View comment detail page"}},
	},
	"message": {
		{"Support Ticket Dashboard", "high", "Messages often reviewed by support staff",
			[]string{"Access support/helpdesk dashboard", "View pending tickets", "Open ticket detail"}},
	},
	"user-agent": {
		{"Analytics Dashboard", "medium", "User-Agent strings logged for analytics",
			[]string{"Access analytics or reporting dashboard", "View visitor/session details", "Check raw request logs"}},
	},
	"referer": {
		{"Access Logs Viewer", "medium", "Referer headers displayed in admin logs",
			[]string{"Access admin log viewer", "Filter by recent requests", "View request details"}},
	},
	"email": {
		{"Admin User List", "high", "Email addresses displayed in user management",
			[]string{"Access admin panel", "Navigate to user list", "Search or filter by email"}},
	},
	"search": {
		{"Search Analytics", "medium", "Search queries often logged for analytics",
			[]string{"Access search analytics dashboard", "View popular/recent searches", "Check search logs"}},
	},
	"title": {
		{"Content List Page", "high", "Titles displayed in content management lists",
			[]string{"Access admin/CMS dashboard", "View content list", "Check detail page"}},
	},
	"description": {
		{"Content Preview", "medium", "Descriptions shown in content listings",
			[]string{"Access content management", "View list or search results", "Check detail/preview page"}},
	},
	"filename": {
		{"File Manager", "high", "Filenames displayed in file listing",
			[]string{"Access file manager or media library", "View uploaded files list", "Check file details"}},
	},
}

func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}

// For returns suggestions for a parameter name, fuzzy-matched against
// the built-in pattern map ("user_name", "username", "first_name" all
// match "name"), deduplicated by location and sorted high-likelihood
// first.
func For(parameter string) []Suggestion {
	param := normalize(parameter)

	var out []Suggestion
	seen := map[string]bool{}
	for pattern, suggestions := range triggerMap {
		p := normalize(pattern)
		if !strings.Contains(p, param) && !strings.Contains(param, p) {
			continue
		}
		for _, s := range suggestions {
			if seen[s.Location] {
				continue
			}
			seen[s.Location] = true
			out = append(out, s)
		}
	}

	sortByLikelihood(out)
	return out
}

func sortByLikelihood(s []Suggestion) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && likelihoodOrder[s[j-1].Likelihood] > likelihoodOrder[s[j].Likelihood]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
