package gdd

import (
	"time"
)

// runManager owns run assignment during a recompute replay. It opens run 1
// at the model's start date, closes and reopens runs at reset dates, and
// schedules automatic resets when a run's cumulative value reaches the
// threshold.
type runManager struct {
	runs   []Run
	resets []Reset

	current      int
	runStart     time.Time
	cumulative   float64
	thresholdHit bool

	// pendingThreshold is the date an automatic reset takes effect, set the
	// day a run crosses its threshold. The crossing day itself stays in the
	// closing run.
	pendingThreshold time.Time
}

func newRunManager(startDate time.Time) *runManager {
	return &runManager{
		current:  1,
		runStart: startDate,
		resets: []Reset{{
			RunNumber: 1,
			Date:      startDate,
			Type:      ResetInitial,
		}},
	}
}

// beginDay handles any reset taking effect on date before the day's value
// is computed. Manual resets win over a scheduled threshold reset on the
// same date.
func (rm *runManager) beginDay(date time.Time, manualReset bool) {
	switch {
	case manualReset:
		rm.closeRun(date, ResetManual)
	case !rm.pendingThreshold.IsZero() && !date.Before(rm.pendingThreshold):
		rm.closeRun(date, ResetThreshold)
	}
}

func (rm *runManager) closeRun(date time.Time, rt ResetType) {
	rm.runs = append(rm.runs, Run{
		Number:    rm.current,
		StartDate: rm.runStart,
		EndDate:   PrevDay(date),
	})
	rm.current++
	rm.runStart = date
	rm.cumulative = 0
	rm.thresholdHit = false
	rm.pendingThreshold = time.Time{}
	rm.resets = append(rm.resets, Reset{
		RunNumber: rm.current,
		Date:      date,
		Type:      rt,
	})
}

// accumulate adds a day's GDD under the day's effective parameters and
// returns the day's cumulative total and run number. The first time the
// cumulative value reaches the threshold within a run (with the reset
// policy enabled) an automatic reset is scheduled for the next day.
func (rm *runManager) accumulate(date time.Time, daily float64, p ParameterVersion) (cumulative float64, run int) {
	rm.cumulative += daily
	if !rm.thresholdHit && p.ResetOnThreshold && rm.cumulative >= p.Threshold {
		rm.thresholdHit = true
		rm.pendingThreshold = NextDay(date)
	}
	return rm.cumulative, rm.current
}

// finish records the still-open run and returns the complete run and reset
// sets, run numbers contiguous from 1. The open run carries a zero EndDate.
func (rm *runManager) finish() ([]Run, []Reset) {
	rm.runs = append(rm.runs, Run{
		Number:    rm.current,
		StartDate: rm.runStart,
	})
	return rm.runs, rm.resets
}

// ValidateManualReset checks a manual reset date against the model's
// computed range and existing resets. The date must fall inside
// [start, latest], must not collide with an existing reset, and must not
// predate the start of the currently open run.
func ValidateManualReset(date, start, latest time.Time, existing []Reset) error {
	d := Date(date)
	if d.Before(start) || d.After(latest) {
		return ErrInvalidResetDate
	}
	currentRunStart := start
	for _, r := range existing {
		if r.Date.Equal(d) {
			return ErrDuplicateResetDate
		}
		if r.Date.After(currentRunStart) {
			currentRunStart = r.Date
		}
	}
	if d.Before(currentRunStart) {
		return ErrInvalidResetDate
	}
	return nil
}
