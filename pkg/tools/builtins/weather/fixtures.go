package weather

import (
	"hash/fnv"
	"strings"
)

type fixture struct {
	location      string
	temperature   float64
	feelsLike     float64
	condition     string
	description   string
	humidity      float64
	windSpeed     float64
	precipitation float64
	clouds        float64
}

var fixtures = []fixture{
	{"San Francisco, CA", 68, 65, "clear", "clear sky", 55, 8.5, 0, 10},
	{"Oakland, CA", 72, 70, "clouds", "scattered clouds", 48, 12.3, 0, 40},
	{"Berkeley, CA", 58, 55, "drizzle", "light drizzle", 78, 5.2, 0.5, 85},
	{"Palo Alto, CA", 75, 73, "clear", "sunny", 42, 6.0, 0, 5},
	{"San Jose, CA", 82, 84, "clear", "hot and sunny", 35, 4.5, 0, 0},
	{"Mountain View, CA", 45, 40, "clouds", "overcast clouds", 68, 15.0, 0, 95},
}

// fixtureFor picks a fixture by name match, falling back to a hash of the
// location so the same input always yields the same weather.
func fixtureFor(location string) fixture {
	lower := strings.ToLower(strings.TrimSpace(location))
	for _, f := range fixtures {
		city, _, _ := strings.Cut(strings.ToLower(f.location), ",")
		if lower != "" && strings.HasPrefix(lower, city) {
			return f
		}
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(lower))
	return fixtures[h.Sum32()%uint32(len(fixtures))]
}

func (f fixture) report(location string) Report {
	temp, feels, hum, wind := f.temperature, f.feelsLike, f.humidity, f.windSpeed
	if location == "" {
		location = f.location
	}
	return Report{
		Location:      location,
		Temperature:   &temp,
		FeelsLike:     &feels,
		Condition:     f.condition,
		Description:   f.description,
		Humidity:      &hum,
		WindSpeed:     &wind,
		Precipitation: f.precipitation,
		Clouds:        f.clouds,
	}
}
