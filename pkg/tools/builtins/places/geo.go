package places

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
)

const (
	metersPerMile = 1609.34
	earthRadiusMi = 3959.0

	// ClusterThresholdMiles merges transit stops closer than this.
	ClusterThresholdMiles = 2.0
)

// Stop is a transit stop on a route between two locations.
type Stop struct {
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Type     string  `json:"type"`
	LineName string  `json:"line_name"`
}

// SearchPoint is a coordinate that nearby searches are centered on.
type SearchPoint struct {
	Name          string
	Lat           float64
	Lng           float64
	Type          string
	StopCount     int
	OriginalStops []string
}

// PointSummary is the reported form of a SearchPoint.
type PointSummary struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (p SearchPoint) summary() PointSummary {
	return PointSummary{Name: p.Name, Type: p.Type}
}

// haversine returns the great-circle distance in miles.
func haversine(lat1, lng1, lat2, lng2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMi * math.Asin(math.Sqrt(a))
}

func midpoint(lat1, lng1, lat2, lng2 float64) (float64, float64) {
	return (lat1 + lat2) / 2, (lng1 + lng2) / 2
}

// clusterStops greedily groups stops that lie within threshold miles of any
// stop already in a cluster. Multi-stop clusters are replaced by their
// centroid.
func clusterStops(stops []Stop, threshold float64) []SearchPoint {
	if len(stops) == 0 {
		return nil
	}

	used := make([]bool, len(stops))
	var out []SearchPoint
	for i := range stops {
		if used[i] {
			continue
		}
		used[i] = true
		cluster := []Stop{stops[i]}

		for j := range stops {
			if used[j] {
				continue
			}
			for _, member := range cluster {
				if haversine(member.Lat, member.Lng, stops[j].Lat, stops[j].Lng) <= threshold {
					cluster = append(cluster, stops[j])
					used[j] = true
					break
				}
			}
		}

		if len(cluster) == 1 {
			s := cluster[0]
			out = append(out, SearchPoint{Name: s.Name, Lat: s.Lat, Lng: s.Lng, Type: s.Type})
			continue
		}

		var sumLat, sumLng float64
		names := make([]string, len(cluster))
		for k, s := range cluster {
			sumLat += s.Lat
			sumLng += s.Lng
			names[k] = s.Name
		}
		out = append(out, SearchPoint{
			Name:          clusterName(names),
			Lat:           sumLat / float64(len(cluster)),
			Lng:           sumLng / float64(len(cluster)),
			Type:          "clustered_stops",
			StopCount:     len(cluster),
			OriginalStops: names,
		})
	}

	slog.Debug("clustered transit stops", "stops", len(stops), "points", len(out), "threshold_mi", threshold)
	return out
}

func clusterName(names []string) string {
	if len(names) <= 3 {
		return "Cluster: " + strings.Join(names, ", ")
	}
	return fmt.Sprintf("Cluster: %s +%d more", strings.Join(names[:3], ", "), len(names)-3)
}
