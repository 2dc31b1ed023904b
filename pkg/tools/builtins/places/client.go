package places

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rhuss/outings/pkg/tools/builtins/upstream"
)

// DefaultBaseURL is the Google Maps web service root.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api"

var detailFields = strings.Join([]string{
	"name", "formatted_address", "rating", "price_level", "opening_hours",
	"reviews", "geometry", "url", "types",
}, ",")

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type geometry struct {
	Location *latLng `json:"location"`
}

type placeResult struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Vicinity         string   `json:"vicinity"`
	FormattedAddress string   `json:"formatted_address"`
	Rating           *float64 `json:"rating"`
	PriceLevel       *int     `json:"price_level"`
	URL              string   `json:"url"`
	Geometry         geometry `json:"geometry"`
	OpeningHours     *struct {
		WeekdayText []string `json:"weekday_text"`
	} `json:"opening_hours"`
	Reviews []review `json:"reviews"`
}

type transitStop struct {
	Name     string  `json:"name"`
	Location *latLng `json:"location"`
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		Legs []struct {
			Steps []struct {
				TravelMode     string `json:"travel_mode"`
				TransitDetails *struct {
					DepartureStop *transitStop `json:"departure_stop"`
					ArrivalStop   *transitStop `json:"arrival_stop"`
					Line          struct {
						Name      string `json:"name"`
						ShortName string `json:"short_name"`
						Vehicle   struct {
							Type string `json:"type"`
						} `json:"vehicle"`
					} `json:"line"`
				} `json:"transit_details"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

// mapsClient speaks the subset of the Maps web services the search needs.
type mapsClient struct {
	http    *upstream.Client
	baseURL string
	key     string
}

// checkStatus maps a Maps API status to an error. ZERO_RESULTS is not one.
func checkStatus(endpoint, status, message string) error {
	switch status {
	case "OK", "ZERO_RESULTS", "":
		return nil
	}
	if message != "" {
		return fmt.Errorf("%s: %s: %s", endpoint, status, message)
	}
	return fmt.Errorf("%s: %s", endpoint, status)
}

func (c *mapsClient) get(ctx context.Context, endpoint, path string, q url.Values, out any) error {
	q.Set("key", c.key)
	return c.http.GetJSON(ctx, endpoint, c.baseURL+path, q, out)
}

// geocode resolves an address to coordinates. A nil result means no match.
func (c *mapsClient) geocode(ctx context.Context, address string) (*SearchPoint, error) {
	var resp struct {
		Status       string        `json:"status"`
		ErrorMessage string        `json:"error_message"`
		Results      []placeResult `json:"results"`
	}
	if err := c.get(ctx, "geocode", "/geocode/json", url.Values{"address": {address}}, &resp); err != nil {
		return nil, err
	}
	if err := checkStatus("geocode", resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 || resp.Results[0].Geometry.Location == nil {
		return nil, nil
	}
	r := resp.Results[0]
	name := r.FormattedAddress
	if name == "" {
		name = address
	}
	return &SearchPoint{Name: name, Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng}, nil
}

// transitStops returns the unique stops of the first transit route between
// origin and destination, in travel order.
func (c *mapsClient) transitStops(ctx context.Context, origin, destination string) ([]Stop, error) {
	q := url.Values{
		"origin":      {origin},
		"destination": {destination},
		"mode":        {"transit"},
	}
	var resp directionsResponse
	if err := c.get(ctx, "directions", "/directions/json", q, &resp); err != nil {
		return nil, err
	}
	if err := checkStatus("directions", resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}
	if len(resp.Routes) == 0 {
		return nil, nil
	}

	seen := make(map[string]bool)
	var stops []Stop
	add := func(ts *transitStop, vehicle, line string) {
		if ts == nil || ts.Name == "" || seen[ts.Name] {
			return
		}
		seen[ts.Name] = true
		s := Stop{Name: ts.Name, Type: vehicle, LineName: line}
		if ts.Location != nil {
			s.Lat, s.Lng = ts.Location.Lat, ts.Location.Lng
		}
		stops = append(stops, s)
	}

	for _, leg := range resp.Routes[0].Legs {
		for _, step := range leg.Steps {
			if step.TravelMode != "TRANSIT" || step.TransitDetails == nil {
				continue
			}
			td := step.TransitDetails
			vehicle := td.Line.Vehicle.Type
			if vehicle == "" {
				vehicle = "TRANSIT"
			}
			line := td.Line.ShortName
			if line == "" {
				line = td.Line.Name
			}
			add(td.DepartureStop, vehicle, line)
			add(td.ArrivalStop, vehicle, line)
		}
	}
	return stops, nil
}

func (c *mapsClient) nearby(ctx context.Context, lat, lng float64, radiusM int, placeType string) ([]placeResult, error) {
	q := url.Values{
		"location": {formatLatLng(lat, lng)},
		"radius":   {strconv.Itoa(radiusM)},
		"type":     {placeType},
	}
	return c.search(ctx, "nearbysearch", q)
}

func (c *mapsClient) textSearch(ctx context.Context, lat, lng float64, radiusM int, query string) ([]placeResult, error) {
	q := url.Values{
		"query":    {query},
		"location": {formatLatLng(lat, lng)},
		"radius":   {strconv.Itoa(radiusM)},
	}
	return c.search(ctx, "textsearch", q)
}

func (c *mapsClient) search(ctx context.Context, kind string, q url.Values) ([]placeResult, error) {
	var resp struct {
		Status       string        `json:"status"`
		ErrorMessage string        `json:"error_message"`
		Results      []placeResult `json:"results"`
	}
	if err := c.get(ctx, kind, "/place/"+kind+"/json", q, &resp); err != nil {
		return nil, err
	}
	if err := checkStatus(kind, resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *mapsClient) details(ctx context.Context, placeID string) (placeResult, error) {
	var resp struct {
		Status       string      `json:"status"`
		ErrorMessage string      `json:"error_message"`
		Result       placeResult `json:"result"`
	}
	q := url.Values{"place_id": {placeID}, "fields": {detailFields}}
	if err := c.get(ctx, "details", "/place/details/json", q, &resp); err != nil {
		return placeResult{}, err
	}
	if err := checkStatus("details", resp.Status, resp.ErrorMessage); err != nil {
		return placeResult{}, err
	}
	return resp.Result, nil
}

func formatLatLng(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}
