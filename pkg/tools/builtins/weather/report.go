package weather

// Report is the weather summary returned to the model.
type Report struct {
	Location              string   `json:"location"`
	Temperature           *float64 `json:"temperature"`
	FeelsLike             *float64 `json:"feels_like"`
	Condition             string   `json:"condition"`
	Description           string   `json:"description"`
	Humidity              *float64 `json:"humidity"`
	WindSpeed             *float64 `json:"wind_speed"`
	Precipitation         float64  `json:"precipitation"`
	Clouds                float64  `json:"clouds"`
	Timestamp             string   `json:"timestamp"`
	Date                  string   `json:"date"`
	OutdoorSuitable       *bool    `json:"outdoor_suitable,omitempty"`
	OutdoorRecommendation string   `json:"outdoor_recommendation,omitempty"`
}

// Recommendation texts.
const (
	RecGreat = "Great weather for outdoor activities!"
	RecRainy = "Rainy weather - consider indoor activities"
	RecCold  = "Cold weather - dress warmly or choose indoor activities"
	RecHot   = "Hot weather - stay hydrated or choose indoor activities"
	RecOkay  = "Weather is okay for outdoor activities"
)

// Assess sets the outdoor fields. It does nothing unless both temperature
// and condition are known.
func (r *Report) Assess() {
	if r.Temperature == nil || r.Condition == "" {
		return
	}
	suitable, rec := assess(*r.Temperature, r.Condition)
	r.OutdoorSuitable = &suitable
	r.OutdoorRecommendation = rec
}

func assess(temp float64, condition string) (bool, string) {
	switch {
	case (condition == "clear" || condition == "clouds") && temp >= 60 && temp <= 85:
		return true, RecGreat
	case condition == "rain" || condition == "drizzle" || condition == "thunderstorm":
		return false, RecRainy
	case temp < 50:
		return false, RecCold
	case temp > 90:
		return false, RecHot
	default:
		return true, RecOkay
	}
}
