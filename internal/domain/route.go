package domain

import "math"

// earthRadiusKm is the mean Earth radius used for great-circle distances.
const earthRadiusKm = 6371.0088

// RouteStop is one settlement visit on a delivery route.
type RouteStop struct {
	ID       string  `json:"id"`
	Geo      Geo     `json:"geo"`
	Vehicles int     `json:"vehicles_required"`
	LegKm    float64 `json:"leg_km"` // distance from the previous position
}

// Route is an ordered visiting sequence from a fixed depot. It is a
// nearest-neighbor construction: intentionally simple, O(N²), and not a
// globally shortest tour. Consumers and tests depend on this heuristic's
// specific output order, so it must not be "improved" silently.
type Route struct {
	Depot   Geo         `json:"depot"`
	Stops   []RouteStop `json:"stops"`
	TotalKm float64     `json:"total_km"`
}

// SequenceRoute orders the given assessments into a visiting sequence from
// the depot, repeatedly advancing to the nearest unvisited settlement by
// great-circle distance. Distance ties break by identifier ascending so the
// sequence is reproducible. An empty input yields an empty route.
func SequenceRoute(depot Geo, targets []Assessment) Route {
	route := Route{Depot: depot}
	if len(targets) == 0 {
		return route
	}

	remaining := make([]Assessment, len(targets))
	copy(remaining, targets)

	current := depot
	route.Stops = make([]RouteStop, 0, len(remaining))

	for len(remaining) > 0 {
		best := 0
		bestDist := Haversine(current, remaining[0].Geo)
		for i := 1; i < len(remaining); i++ {
			d := Haversine(current, remaining[i].Geo)
			if d < bestDist || (d == bestDist && remaining[i].ID < remaining[best].ID) {
				best, bestDist = i, d
			}
		}

		next := remaining[best]
		route.Stops = append(route.Stops, RouteStop{
			ID:       next.ID,
			Geo:      next.Geo,
			Vehicles: next.Vehicles,
			LegKm:    bestDist,
		})
		route.TotalKm += bestDist
		current = next.Geo
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	return route
}

// Haversine returns the great-circle distance between two coordinates in
// kilometers.
func Haversine(a, b Geo) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
