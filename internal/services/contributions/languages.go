package contributions

import "github.com/benvon/portfolio-api/internal/models"

var defaultLanguages = []models.Language{
	{Name: "TypeScript", Percentage: 35, Color: "#3178c6"},
	{Name: "JavaScript", Percentage: 20, Color: "#f1e05a"},
	{Name: "Go", Percentage: 18, Color: "#00ADD8"},
	{Name: "Python", Percentage: 12, Color: "#3572A5"},
	{Name: "CSS", Percentage: 8, Color: "#563d7c"},
	{Name: "Other", Percentage: 7, Color: "#586069"},
}

// DefaultLanguages returns the curated language breakdown
func DefaultLanguages() []models.Language {
	out := make([]models.Language, len(defaultLanguages))
	copy(out, defaultLanguages)
	return out
}
