package domain

import (
	"math"
	"sort"
)

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance in kilometers between two
// points, computed with the haversine formula.
func DistanceKm(a, b GeoPoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// NearestStations ranks records by ascending distance from the user location
// and returns the top k. Records without coordinates get DistanceKm = +Inf
// and sort last; equal distances keep the original record order. When no
// record has finite distance the result is empty: a station the user cannot
// be located relative to is no station at all.
func NearestStations(records []MonitoringRecord, user GeoPoint, k int) []StationDistance {
	if k <= 0 {
		return nil
	}

	ranked := make([]StationDistance, 0, len(records))
	finite := 0
	for _, rec := range records {
		d := math.Inf(1)
		if rec.Lat != nil && rec.Lon != nil {
			d = DistanceKm(user, GeoPoint{Lat: *rec.Lat, Lon: *rec.Lon})
			finite++
		}
		ranked = append(ranked, StationDistance{Record: rec, DistanceKm: d})
	}
	if finite == 0 {
		return nil
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})

	if k > len(ranked) {
		k = len(ranked)
	}
	return ranked[:k]
}

// SelectedWaterBody returns the water body of the closest finite-distance
// station. The second return is false when the ranking holds none, which the
// caller must treat as "no station found".
func SelectedWaterBody(stations []StationDistance) (string, bool) {
	for _, s := range stations {
		if !math.IsInf(s.DistanceKm, 1) {
			return s.Record.WaterBodyName, true
		}
	}
	return "", false
}
