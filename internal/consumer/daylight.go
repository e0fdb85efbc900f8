package consumer

import (
	"time"

	"github.com/sixdouglas/suncalc"

	"powercable/internal/model"
)

// IsDaylight reports whether now falls between sunrise and sunset at pos,
// using suncalc's solar position calculations. Passed as the isDaylight
// hook to Consumer.DemandAt so the consumer package itself stays free of a
// direct suncalc import in its core type.
func IsDaylight(now time.Time, pos model.Position) bool {
	times := suncalc.GetTimes(now, pos.Latitude, pos.Longitude)
	sunrise := times[suncalc.Sunrise].Value
	sunset := times[suncalc.Sunset].Value
	if sunrise.IsZero() || sunset.IsZero() {
		return true
	}
	return now.After(sunrise) && now.Before(sunset)
}
