package app

import (
	"strings"

	"bank_reviews/internal/domain"
)

// AssignThemes returns every theme, in taxonomy order, for which some keyword
// contains one of the theme's triggers as a substring. Matching is literal:
// "app" also matches inside "happy". With no match it returns ["Other"].
func AssignThemes(keywords []string, tax domain.Taxonomy) []string {
	var out []string
	for _, th := range tax {
		if matchesAny(keywords, th.Triggers) {
			out = append(out, th.Name)
		}
	}
	if len(out) == 0 {
		return []string{domain.OtherTheme}
	}
	return out
}

func matchesAny(keywords, triggers []string) bool {
	for _, kw := range keywords {
		for _, tr := range triggers {
			if strings.Contains(kw, tr) {
				return true
			}
		}
	}
	return false
}
