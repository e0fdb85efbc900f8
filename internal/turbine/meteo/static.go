package meteo

// StaticSource provides a small embedded station table so turbine
// precomputation is deterministic and network-free in tests and offline
// runs, without needing a real Client.
type StaticSource struct {
	stations []Station
}

// NewStaticSource returns a StaticSource seeded with a fixed table spanning
// a range of typical German coastal and inland wind speeds.
func NewStaticSource() *StaticSource {
	return &StaticSource{stations: []Station{
		{ID: "static-north", Latitude: 54.3, Longitude: 10.1, WindSpeed: []float64{6.5, 7.2, 8.0, 7.8, 6.9, 5.5, 4.8, 5.2}},
		{ID: "static-central", Latitude: 51.3, Longitude: 9.5, WindSpeed: []float64{4.0, 4.5, 5.1, 4.8, 4.2, 3.6, 3.1, 3.8}},
		{ID: "static-south", Latitude: 48.1, Longitude: 11.6, WindSpeed: []float64{3.0, 3.4, 3.8, 3.5, 3.0, 2.6, 2.4, 2.9}},
	}}
}

// NearestStations returns up to n stations from the static table, nearest
// first (a trivial linear scan is fine for the handful of entries here).
func (s *StaticSource) NearestStations(lat, lon float64, n int) ([]Station, error) {
	type scored struct {
		station  Station
		distance float64
	}
	scoredList := make([]scored, 0, len(s.stations))
	for _, st := range s.stations {
		dLat := st.Latitude - lat
		dLon := st.Longitude - lon
		scoredList = append(scoredList, scored{station: st, distance: dLat*dLat + dLon*dLon})
	}
	for i := 1; i < len(scoredList); i++ {
		for j := i; j > 0 && scoredList[j].distance < scoredList[j-1].distance; j-- {
			scoredList[j], scoredList[j-1] = scoredList[j-1], scoredList[j]
		}
	}
	if n > len(scoredList) {
		n = len(scoredList)
	}
	out := make([]Station, n)
	for i := 0; i < n; i++ {
		out[i] = scoredList[i].station
	}
	return out, nil
}
