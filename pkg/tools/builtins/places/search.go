package places

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// DefaultPlaceTypes are searched when the caller names none.
var DefaultPlaceTypes = []string{"cafe", "restaurant", "park", "tourist_attraction"}

// Search modes reported in Result.SearchMode.
const (
	ModeSingle       = "single_location"
	ModeTransitStops = "transit_stops"
	ModeMidpoint     = "midpoint"
	ModeMock         = "mock"
	ModeError        = "error"
)

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is one suggested venue.
type Place struct {
	Name         string       `json:"name"`
	Location     string       `json:"location"`
	Description  string       `json:"description"`
	Price        *string      `json:"price"`
	OpeningHours *string      `json:"opening_hours"`
	URL          *string      `json:"url"`
	Category     string       `json:"category"`
	PlaceID      string       `json:"gmaps_place_id"`
	Rating       *float64     `json:"gmaps_rating"`
	PriceLevel   *int         `json:"gmaps_price_level"`
	NearStop     string       `json:"near_stop"`
	Coordinates  *Coordinates `json:"coordinates"`
	WeatherInfo  any          `json:"weather_info,omitempty"`
}

// Query holds the search_places_for_dates arguments.
type Query struct {
	Location1     string
	Location2     string
	PlaceTypes    []string
	PriceLevel    *int
	MinRating     float64
	RadiusMiles   float64
	CheckWeather  bool
	UserInterests []string
}

// Result is the search_places_for_dates response.
type Result struct {
	Activities   []Place        `json:"activities"`
	Count        int            `json:"count"`
	Location1    string         `json:"location1"`
	Location2    *string        `json:"location2"`
	SearchMode   string         `json:"search_mode"`
	SearchPoints []PointSummary `json:"search_points"`
	Error        *string        `json:"error"`
}

func newResult(q Query, mode string, activities []Place, points []SearchPoint, errMsg string) Result {
	if activities == nil {
		activities = []Place{}
	}
	summaries := make([]PointSummary, len(points))
	for i, p := range points {
		summaries[i] = p.summary()
	}
	r := Result{
		Activities:   activities,
		Count:        len(activities),
		Location1:    q.Location1,
		SearchMode:   mode,
		SearchPoints: summaries,
	}
	if q.Location2 != "" {
		r.Location2 = &q.Location2
	}
	if errMsg != "" {
		r.Error = &errMsg
	}
	return r
}

// Search finds venues near one location or between two. Failures are
// reported in Result.Error with search_mode "error".
func (p *Provider) Search(ctx context.Context, q Query) Result {
	if len(q.PlaceTypes) == 0 {
		q.PlaceTypes = DefaultPlaceTypes
	}
	if q.MinRating == 0 {
		q.MinRating = 4.0
	}
	if q.RadiusMiles <= 0 {
		q.RadiusMiles = 0.5
	}

	if !p.cfg.Enabled {
		fixtures := pick(fixturePlaces, q.Location1)
		for i := range fixtures {
			fixtures[i].NearStop = q.Location1
		}
		return newResult(q, ModeMock, fixtures, []SearchPoint{{Name: q.Location1, Type: "mock"}}, "")
	}
	if p.cfg.APIKey == "" {
		return newResult(q, ModeError, nil, nil, "GOOGLE_MAPS_API_KEY not set. Please set it in your configuration.")
	}

	points, mode, radius, failure := p.searchPoints(ctx, q)
	if failure != "" {
		return newResult(q, ModeError, nil, nil, failure)
	}

	activities, err := p.collect(ctx, q, points, mode, radius)
	if err != nil {
		return newResult(q, ModeError, nil, nil, "Error searching places: "+err.Error())
	}
	return newResult(q, mode, activities, points, "")
}

// searchPoints decides where to search: along transit when two locations
// have a route with at least two stops, at their midpoint otherwise, or
// around the single geocoded location. A non-empty failure is the message
// reported to the caller.
func (p *Provider) searchPoints(ctx context.Context, q Query) (points []SearchPoint, mode string, radius float64, failure string) {
	if q.Location2 == "" {
		origin, err := p.maps.geocode(ctx, q.Location1)
		if err != nil {
			return nil, "", 0, "Error searching places: " + err.Error()
		}
		if origin == nil {
			return nil, "", 0, "Could not geocode location: " + q.Location1
		}
		origin.Type = "origin"
		return []SearchPoint{*origin}, ModeSingle, q.RadiusMiles, ""
	}

	stops, err := p.maps.transitStops(ctx, q.Location1, q.Location2)
	if err != nil {
		slog.Debug("transit lookup failed, using midpoint", "error", err)
	}
	if len(stops) >= 2 {
		return clusterStops(stops, ClusterThresholdMiles), ModeTransitStops, q.RadiusMiles * 1.5, ""
	}

	a, errA := p.maps.geocode(ctx, q.Location1)
	b, errB := p.maps.geocode(ctx, q.Location2)
	if errA != nil || errB != nil || a == nil || b == nil {
		return nil, "", 0, fmt.Sprintf("Could not geocode locations. Location1: %s, Location2: %s", q.Location1, q.Location2)
	}
	lat, lng := midpoint(a.Lat, a.Lng, b.Lat, b.Lng)
	mid := SearchPoint{Name: "Midpoint", Lat: lat, Lng: lng, Type: "midpoint"}
	return []SearchPoint{mid}, ModeMidpoint, max(q.RadiusMiles*4, 2.0), ""
}

func (p *Provider) collect(ctx context.Context, q Query, points []SearchPoint, mode string, radius float64) ([]Place, error) {
	radiusM := int(radius * metersPerMile)
	limit := 5
	if mode == ModeMidpoint {
		limit = 10
	}

	seen := make(map[string]bool)
	var out []Place
	for _, sp := range points {
		for _, placeType := range q.PlaceTypes {
			results, err := p.maps.nearby(ctx, sp.Lat, sp.Lng, radiusM, placeType)
			if err != nil {
				return nil, err
			}
			if len(results) == 0 {
				text, err := p.maps.textSearch(ctx, sp.Lat, sp.Lng, radiusM, placeType)
				if err != nil {
					return nil, err
				}
				results = text
			}
			if len(results) > limit {
				results = results[:limit]
			}

			for _, r := range results {
				if seen[r.PlaceID] {
					continue
				}
				seen[r.PlaceID] = true

				if r.Rating != nil && *r.Rating < q.MinRating {
					continue
				}
				if q.PriceLevel != nil && r.PriceLevel != nil && *r.PriceLevel > *q.PriceLevel {
					continue
				}

				place, err := p.detail(ctx, q, r, placeType, sp.Name)
				if err != nil {
					slog.Debug("place details failed, skipping", "place_id", r.PlaceID, "error", err)
					continue
				}
				out = append(out, place)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return ratingOf(out[i]) > ratingOf(out[j])
	})
	return out, nil
}

func (p *Provider) detail(ctx context.Context, q Query, r placeResult, placeType, nearStop string) (Place, error) {
	d, err := p.maps.details(ctx, r.PlaceID)
	if err != nil {
		return Place{}, err
	}

	place := Place{
		Name:        firstNonEmpty(d.Name, r.Name, "Unknown"),
		Location:    firstNonEmpty(d.FormattedAddress, r.Vicinity, "Unknown"),
		Description: analyzeReviews(d.Reviews, q.UserInterests).Summary,
		Category:    categoryLabel(placeType),
		PlaceID:     r.PlaceID,
		Rating:      r.Rating,
		PriceLevel:  r.PriceLevel,
		NearStop:    nearStop,
	}
	if r.PriceLevel != nil {
		place.Price = ptr(priceLabel(*r.PriceLevel))
	}
	if d.OpeningHours != nil && len(d.OpeningHours.WeekdayText) > 0 {
		place.OpeningHours = ptr(strings.Join(d.OpeningHours.WeekdayText, "; "))
	}
	if d.URL != "" {
		place.URL = ptr(d.URL)
	}
	if loc := d.Geometry.Location; loc != nil {
		place.Coordinates = &Coordinates{Lat: loc.Lat, Lng: loc.Lng}
	}

	if q.CheckWeather && p.weather != nil && place.Coordinates != nil {
		w := p.weather.Lookup(ctx, formatLatLng(place.Coordinates.Lat, place.Coordinates.Lng), "")
		if m, ok := w.(map[string]any); !ok || m["error"] == nil {
			place.WeatherInfo = w
		}
	}
	return place, nil
}

// priceLabel renders a 0-4 price level as "Free" or a run of dollar signs.
func priceLabel(level int) string {
	if level <= 0 {
		return "Free"
	}
	return strings.Repeat("$", level)
}

func ratingOf(p Place) float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// categoryLabel turns "tourist_attraction" into "Tourist Attraction".
func categoryLabel(placeType string) string {
	words := strings.Fields(strings.ReplaceAll(placeType, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
