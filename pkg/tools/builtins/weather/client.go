package weather

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/rhuss/outings/pkg/tools/builtins/upstream"
)

// DefaultBaseURL is the OpenWeatherMap current-weather endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// owmResponse is the subset of the OpenWeatherMap payload that is used.
type owmResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp      *float64 `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Humidity  *float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
	Rain *struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
	Clouds struct {
		All float64 `json:"all"`
	} `json:"clouds"`
}

// current fetches current conditions in imperial units. A "lat,lng"
// location is sent as coordinates, anything else as a city query.
func current(ctx context.Context, c *upstream.Client, baseURL, apiKey, location string) (Report, error) {
	q := url.Values{"appid": {apiKey}, "units": {"imperial"}}
	if lat, lng, ok := parseLatLng(location); ok {
		q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
		q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	} else {
		q.Set("q", location)
	}

	var resp owmResponse
	if err := c.GetJSON(ctx, "current", baseURL, q, &resp); err != nil {
		return Report{}, err
	}

	r := Report{
		Location:    resp.Name,
		Temperature: resp.Main.Temp,
		FeelsLike:   resp.Main.FeelsLike,
		Humidity:    resp.Main.Humidity,
		WindSpeed:   resp.Wind.Speed,
		Clouds:      resp.Clouds.All,
	}
	if r.Location == "" {
		r.Location = location
	}
	if len(resp.Weather) > 0 {
		r.Condition = strings.ToLower(resp.Weather[0].Main)
		r.Description = resp.Weather[0].Description
	}
	if resp.Rain != nil {
		r.Precipitation = resp.Rain.OneHour
	}
	return r, nil
}

func parseLatLng(s string) (float64, float64, bool) {
	a, b, ok := strings.Cut(s, ",")
	if !ok || strings.Contains(b, ",") {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
	if err != nil {
		return 0, 0, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lng, true
}
