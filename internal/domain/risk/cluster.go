package risk

import (
	"fmt"
	"math"
	"sort"
)

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometres between two
// WGS-84 coordinate pairs.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// ClusterAlerts deduplicates nearby hazard events into national-level
// alerts. Events are walked in priority order (highest level first, stable
// on ties); each unvisited event becomes a cluster main and absorbs every
// later unvisited event within radiusKm of it. Absorption is centred on
// the main event only, not closed transitively over all pairs, so chains
// of near events each just over the radius apart can stay separate. That
// is an intentional approximation, not a defect.
//
// The function is pure and idempotent: clustering an already-clustered
// list with the same radius changes nothing beyond cluster-count
// accounting.
func ClusterAlerts(events []AlertEvent, radiusKm float64) []AlertEvent {
	if len(events) == 0 {
		return nil
	}
	if radiusKm <= 0 {
		radiusKm = 50
	}

	sorted := make([]AlertEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Level > sorted[j].Level
	})

	visited := make([]bool, len(sorted))
	out := make([]AlertEvent, 0, len(sorted))

	for i := range sorted {
		if visited[i] {
			continue
		}
		visited[i] = true
		main := sorted[i]

		absorbed := 0
		for j := i + 1; j < len(sorted); j++ {
			if visited[j] {
				continue
			}
			if Haversine(main.Lat, main.Lon, sorted[j].Lat, sorted[j].Lon) <= radiusKm {
				visited[j] = true
				absorbed++
			}
		}

		if absorbed > 0 {
			count := absorbed + 1
			if main.IsCluster && main.Count > 0 {
				count = main.Count + absorbed
			}
			main.LocationName = fmt.Sprintf("%s (khu vực)", main.Province)
			main.IsCluster = true
			main.Count = count
			main.Description = fmt.Sprintf("%d điểm nguy cơ trong bán kính %.0f km", count, radiusKm)
		}

		out = append(out, main)
	}

	return out
}
