package places

import (
	"sort"
	"strings"
)

var uniqueKeywords = []string{
	"hidden gem",
	"unique",
	"one-of-a-kind",
	"special",
	"unusual",
	"different",
	"authentic",
	"local favorite",
}

var interestKeywords = map[string][]string{
	"outdoor":  {"outdoor", "park", "hiking", "nature", "trail", "scenic"},
	"art":      {"art", "gallery", "museum", "exhibition", "creative"},
	"music":    {"music", "live", "performance", "concert", "jazz", "acoustic"},
	"food":     {"food", "cuisine", "restaurant", "dining", "menu", "delicious"},
	"coffee":   {"coffee", "cafe", "espresso", "latte", "brew"},
	"romantic": {"romantic", "intimate", "cozy", "date", "couple"},
}

type review struct {
	Text string `json:"text"`
}

type reviewAnalysis struct {
	Summary          string
	UniqueIndicators []string
	InterestMatches  []string
}

// analyzeReviews scans review text for uniqueness phrases and for the
// user's interests, directly or through the keyword table.
func analyzeReviews(reviews []review, interests []string) reviewAnalysis {
	if len(reviews) == 0 {
		return reviewAnalysis{}
	}

	texts := make([]string, len(reviews))
	for i, r := range reviews {
		texts[i] = r.Text
	}
	all := strings.ToLower(strings.Join(texts, " "))

	var unique []string
	for _, kw := range uniqueKeywords {
		if strings.Contains(all, kw) {
			unique = append(unique, kw)
		}
	}

	matched := make(map[string]bool)
	for _, interest := range interests {
		lower := strings.ToLower(interest)
		if strings.Contains(all, lower) {
			matched[interest] = true
			continue
		}
		for _, kw := range interestKeywords[lower] {
			if strings.Contains(all, kw) {
				matched[interest] = true
				break
			}
		}
	}
	matches := make([]string, 0, len(matched))
	for m := range matched {
		matches = append(matches, m)
	}
	sort.Strings(matches)

	var parts []string
	if len(unique) > 0 {
		parts = append(parts, "Reviewers mention: "+strings.Join(unique[:min(3, len(unique))], ", "))
	}
	if len(matches) > 0 {
		parts = append(parts, "Matches interests: "+strings.Join(matches, ", "))
	}
	summary := "No specific insights from reviews"
	if len(parts) > 0 {
		summary = strings.Join(parts, ". ")
	}

	return reviewAnalysis{Summary: summary, UniqueIndicators: unique, InterestMatches: matches}
}
