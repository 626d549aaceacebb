package database

import (
	"context"
	"time"

	"github.com/turftrack/turftrack/internal/gdd"
)

// defaultQueryTimeout bounds the weather read so a slow database surfaces
// as an upstream failure instead of a hung recompute.
const defaultQueryTimeout = 10 * time.Second

// WeatherSource implements gdd.WeatherSource over the daily_weather table,
// which the external weather provider keeps populated.
type WeatherSource struct {
	store   *Store
	timeout time.Duration
}

// NewWeatherSource creates a weather source over the same gorm handle as
// the store. A non-positive timeout falls back to the default.
func NewWeatherSource(store *Store, timeout time.Duration) *WeatherSource {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &WeatherSource{store: store, timeout: timeout}
}

// MeanTemps returns daily mean temperatures for a location from the given
// date forward, in the requested unit, ordered by date. Days with a
// missing max or min temperature are omitted; the recalculation engine
// reports the omission as a data gap.
func (w *WeatherSource) MeanTemps(ctx context.Context, locationID int, unit gdd.TempUnit, from time.Time) ([]gdd.WeatherDay, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	var rows []DailyWeather
	if err := w.store.db.WithContext(ctx).
		Where("location_id = ? AND date >= ?", locationID, gdd.Date(from)).
		Order("date").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]gdd.WeatherDay, 0, len(rows))
	for _, r := range rows {
		tmax, tmin := r.TemperatureMaxC, r.TemperatureMinC
		if unit == gdd.TempUnitF {
			tmax, tmin = r.TemperatureMaxF, r.TemperatureMinF
		}
		if tmax == nil || tmin == nil {
			continue
		}
		out = append(out, gdd.WeatherDay{
			Date:     gdd.Date(r.Date),
			MeanTemp: gdd.MeanTemp(*tmax, *tmin),
			Forecast: r.Type == "forecast",
		})
	}
	return out, nil
}
