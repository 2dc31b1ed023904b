package activities

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rhuss/outings/pkg/api"
	"github.com/rhuss/outings/pkg/storage"
)

// Filters narrows a search. Zero values disable a filter.
type Filters struct {
	Category string
	MaxPrice *float64
	Source   string
}

// Query is one scrape_activities request.
type Query struct {
	Query     string
	LocationA string
	LocationB string
	Filters   Filters
}

var firstInt = regexp.MustCompile(`\d+`)

// Match applies the query text and filters to a snapshot of the cache.
func Match(activities []api.Activity, q Query) []api.Activity {
	query := strings.ToLower(q.Query)
	category := strings.ToLower(q.Filters.Category)
	source := strings.ToLower(q.Filters.Source)

	out := []api.Activity{}
	for _, a := range activities {
		if query != "" &&
			!strings.Contains(strings.ToLower(a.Name), query) &&
			!strings.Contains(strings.ToLower(a.Description), query) &&
			!strings.Contains(strings.ToLower(a.Category), query) {
			continue
		}
		if category != "" && !strings.Contains(strings.ToLower(a.Category), category) {
			continue
		}
		if q.Filters.MaxPrice != nil && !withinPrice(a.Price, *q.Filters.MaxPrice) {
			continue
		}
		if source != "" && !strings.Contains(strings.ToLower(a.Source), source) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// withinPrice keeps empty and free prices, otherwise compares the first
// integer found in the price text.
func withinPrice(price string, max float64) bool {
	if price == "" || strings.EqualFold(price, "free") {
		return true
	}
	m := firstInt.FindString(price)
	if m == "" {
		return false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return false
	}
	return float64(n) <= max
}

// FilterByLocation keeps activities mentioning any location term or the
// city itself. The input is returned unchanged when nothing matches.
func FilterByLocation(activities []api.Activity, locationA, locationB string) []api.Activity {
	terms := append(strings.Fields(strings.ToLower(locationA)), strings.Fields(strings.ToLower(locationB))...)
	if len(terms) == 0 {
		return activities
	}

	var kept []api.Activity
	for _, a := range activities {
		combined := strings.ToLower(a.Location + " " + a.Name + " " + a.Description)
		if strings.Contains(combined, "nyc") || strings.Contains(combined, "new york") {
			kept = append(kept, a)
			continue
		}
		for _, t := range terms {
			if strings.Contains(combined, t) {
				kept = append(kept, a)
				break
			}
		}
	}
	if len(kept) == 0 {
		return activities
	}
	return kept
}

// Search runs q against the cache. An empty result is replaced by a single
// Notice item explaining why.
func Search(ctx context.Context, cache storage.ActivityCache, q Query) ([]api.Activity, error) {
	all, _, err := cache.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading activity cache: %w", err)
	}

	results := Match(all, q)
	results = FilterByLocation(results, q.LocationA, q.LocationB)
	if len(results) > 0 {
		return results, nil
	}

	if len(all) == 0 {
		return []api.Activity{notice(
			"No activities cached yet",
			"The activity cache is empty. A background refresh will populate it shortly, or you can trigger one via POST /api/scrape.",
		)}, nil
	}
	return []api.Activity{notice(
		fmt.Sprintf("No activities found matching '%s'", q.Query),
		fmt.Sprintf("Try a different search term. There are %d activities in the cache.", len(all)),
	)}, nil
}

func notice(name, description string) api.Activity {
	return api.Activity{
		Name:        name,
		Location:    "NYC",
		Description: description,
		Source:      "system",
		Category:    "Notice",
	}
}
