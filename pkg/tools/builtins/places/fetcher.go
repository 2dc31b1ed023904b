package places

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/rhuss/outings/pkg/api"
	"github.com/rhuss/outings/pkg/auth"
)

var interestPlaceTypes = map[string][]string{
	"outdoor":             {"park", "hiking_area", "campground"},
	"art":                 {"art_gallery", "museum"},
	"music":               {"night_club", "bar"},
	"food":                {"restaurant", "bakery"},
	"coffee":              {"cafe"},
	"unique coffee shops": {"cafe"},
	"romantic":            {"restaurant", "spa"},
	"shopping":            {"shopping_mall", "clothing_store"},
	"entertainment":       {"movie_theater", "amusement_park", "bowling_alley"},
	"nature":              {"park", "zoo", "aquarium"},
	"walks":               {"park", "tourist_attraction"},
	"beautiful views":     {"tourist_attraction", "park"},
	"views":               {"tourist_attraction", "park"},
}

// PlaceTypesFor maps interests to place types. Unknown interests are used
// as place types directly. The result is sorted and deduplicated.
func PlaceTypesFor(interests []string) []string {
	set := make(map[string]bool)
	for _, interest := range interests {
		lower := strings.ToLower(strings.TrimSpace(interest))
		if lower == "" {
			continue
		}
		if types, ok := interestPlaceTypes[lower]; ok {
			for _, t := range types {
				set[t] = true
			}
			continue
		}
		set[strings.ReplaceAll(lower, " ", "_")] = true
	}
	if len(set) == 0 {
		return DefaultPlaceTypes
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// PriceLevelFor maps a budget ceiling in dollars to a 0-4 price level.
func PriceLevelFor(budgetMax *float64) *int {
	if budgetMax == nil {
		return nil
	}
	var lvl int
	switch b := *budgetMax; {
	case b <= 0:
		lvl = 0
	case b <= 15:
		lvl = 1
	case b <= 30:
		lvl = 2
	case b <= 60:
		lvl = 3
	default:
		lvl = 4
	}
	return &lvl
}

// FetchedActivity is the sheet-compatible projection of a Place.
type FetchedActivity struct {
	Name         string       `json:"name"`
	Location     string       `json:"location"`
	Description  string       `json:"description"`
	Price        string       `json:"price"`
	OpeningHours string       `json:"opening_hours"`
	Category     string       `json:"category"`
	URL          string       `json:"url"`
	Rating       *float64     `json:"gmaps_rating"`
	NearStop     string       `json:"near_stop"`
	Coordinates  *Coordinates `json:"coordinates"`
}

// PreferencesUsed echoes the search parameters derived from preferences.
type PreferencesUsed struct {
	Interests  []string `json:"interests"`
	BudgetMax  *float64 `json:"budget_max"`
	PlaceTypes []string `json:"place_types"`
	PriceLevel *int     `json:"price_level"`
}

// FetchResult is the GET /api/activities response.
type FetchResult struct {
	Activities      []FetchedActivity `json:"activities"`
	SearchMode      string            `json:"search_mode,omitempty"`
	QueryLocations  []PointSummary    `json:"query_locations,omitempty"`
	LocationA       string            `json:"location_a"`
	LocationB       *string           `json:"location_b"`
	PreferencesUsed *PreferencesUsed  `json:"preferences_used,omitempty"`
	TotalCount      int               `json:"total_count"`
	Error           *string           `json:"error,omitempty"`
}

// Fetch searches for activities using the user's stored interests and
// budget. An empty locationA falls back to the preference location.
func (p *Provider) Fetch(ctx context.Context, userID, locationA, locationB string) (FetchResult, error) {
	prefs, err := p.prefs.GetPreferences(ctx, userID)
	if err != nil {
		return FetchResult{}, err
	}
	if locationA == "" && prefs.Location != nil {
		locationA = *prefs.Location
	}
	if locationA == "" {
		return FetchResult{}, api.NewInvalidRequestError("location_a", "location_a is required when no preferred location is stored")
	}

	used := &PreferencesUsed{
		Interests:  prefs.Interests,
		BudgetMax:  prefs.BudgetMax,
		PlaceTypes: PlaceTypesFor(prefs.Interests),
		PriceLevel: PriceLevelFor(prefs.BudgetMax),
	}
	res := p.Search(ctx, Query{
		Location1:     locationA,
		Location2:     locationB,
		PlaceTypes:    used.PlaceTypes,
		PriceLevel:    used.PriceLevel,
		MinRating:     4.0,
		RadiusMiles:   0.5,
		UserInterests: prefs.Interests,
	})

	out := FetchResult{
		Activities: []FetchedActivity{},
		LocationA:  locationA,
		LocationB:  res.Location2,
	}
	if res.Error != nil {
		out.Error = res.Error
		return out, nil
	}
	for _, a := range res.Activities {
		out.Activities = append(out.Activities, FetchedActivity{
			Name:         a.Name,
			Location:     a.Location,
			Description:  a.Description,
			Price:        deref(a.Price),
			OpeningHours: deref(a.OpeningHours),
			Category:     a.Category,
			URL:          deref(a.URL),
			Rating:       a.Rating,
			NearStop:     a.NearStop,
			Coordinates:  a.Coordinates,
		})
	}
	out.SearchMode = res.SearchMode
	out.QueryLocations = res.SearchPoints
	out.PreferencesUsed = used
	out.TotalCount = len(out.Activities)
	return out, nil
}

func (p *Provider) handleActivities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := auth.UserID(r.Context())
	if userID == "" {
		userID = q.Get("user_id")
	}
	if userID == "" {
		userID = api.DefaultUserID
	}

	res, err := p.Fetch(r.Context(), userID, q.Get("location_a"), q.Get("location_b"))
	if err != nil {
		status := http.StatusInternalServerError
		apiErr, ok := api.AsAPIError(err)
		if ok && apiErr.Type == api.ErrorTypeInvalidRequest {
			status = http.StatusBadRequest
		} else {
			slog.Error("activity fetch failed", "user_id", userID, "error", err)
			apiErr = api.NewServerError("failed to fetch activities")
		}
		writeJSON(w, status, api.ErrorResponse{Error: apiErr})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
