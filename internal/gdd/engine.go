package gdd

import (
	"time"
)

// Recompute deterministically regenerates a model's full daily history from
// source weather, the parameter timeline, and the authoritative manual
// resets. Threshold resets are a pure function of those inputs and are
// always regenerated here, never read back as input.
//
// The weather series must cover every date in [model.StartDate, latest]
// with no gaps; a missing date aborts the whole recompute with a
// *DataGapError. Running Recompute twice on identical inputs yields
// identical output.
func Recompute(model Model, timeline *ParameterTimeline, weather []WeatherDay, manualResets []Reset) (*Result, error) {
	start := Date(model.StartDate)

	byDate := make(map[time.Time]WeatherDay, len(weather))
	latest := time.Time{}
	for _, w := range weather {
		d := Date(w.Date)
		if d.Before(start) {
			continue
		}
		byDate[d] = WeatherDay{Date: d, MeanTemp: w.MeanTemp, Forecast: w.Forecast}
		if d.After(latest) {
			latest = d
		}
	}
	if latest.IsZero() {
		// Nothing to compute yet. An empty result is still well-formed:
		// the initial reset materializes once weather arrives.
		return &Result{}, nil
	}

	if gap := findGap(byDate, start, latest); gap != nil {
		return nil, gap
	}

	manualDates := make(map[time.Time]bool, len(manualResets))
	for _, r := range manualResets {
		if r.Type == ResetManual {
			manualDates[Date(r.Date)] = true
		}
	}

	rm := newRunManager(start)
	values := make([]DailyValue, 0, len(byDate))

	for d := start; !d.After(latest); d = NextDay(d) {
		// A reset on d, manual or scheduled, takes effect before d's value
		// is computed; d becomes the first day of the new run.
		if !d.Equal(start) {
			rm.beginDay(d, manualDates[d])
		}

		params, err := timeline.Resolve(d)
		if err != nil {
			return nil, err
		}

		w := byDate[d]
		daily := DailyGDD(w.MeanTemp, params.BaseTemp)
		cumulative, run := rm.accumulate(d, daily, params)

		values = append(values, DailyValue{
			Date:          d,
			DailyGDD:      daily,
			CumulativeGDD: cumulative,
			Run:           run,
			Forecast:      w.Forecast,
		})
	}

	runs, resets := rm.finish()
	return &Result{Values: values, Runs: runs, Resets: resets}, nil
}

// findGap returns the first contiguous span of missing dates in
// [start, latest], or nil if the range is fully covered.
func findGap(byDate map[time.Time]WeatherDay, start, latest time.Time) *DataGapError {
	for d := start; !d.After(latest); d = NextDay(d) {
		if _, ok := byDate[d]; !ok {
			gap := &DataGapError{From: d, To: d}
			for e := NextDay(d); !e.After(latest); e = NextDay(e) {
				if _, ok := byDate[e]; ok {
					break
				}
				gap.To = e
			}
			return gap
		}
	}
	return nil
}
