package gdd

import (
	"sort"
	"time"
)

// ParameterTimeline holds a model's parameter versions ordered by
// effective-from date and resolves which version governs a given date.
// Versions are never deleted, only superseded by later effective dates.
type ParameterTimeline struct {
	versions []ParameterVersion
}

// NewParameterTimeline builds a timeline from versions in any order.
func NewParameterTimeline(versions []ParameterVersion) *ParameterTimeline {
	t := &ParameterTimeline{versions: make([]ParameterVersion, len(versions))}
	copy(t.versions, versions)
	sort.Slice(t.versions, func(i, j int) bool {
		return t.versions[i].EffectiveFrom.Before(t.versions[j].EffectiveFrom)
	})
	return t
}

// Resolve returns the version with the greatest effective-from on or before
// date. ErrNoApplicableParameters indicates the timeline violates the
// first-version-at-start-date invariant and is treated by callers as a
// fatal integrity error.
func (t *ParameterTimeline) Resolve(date time.Time) (ParameterVersion, error) {
	d := Date(date)
	// Index of the first version strictly after d.
	i := sort.Search(len(t.versions), func(i int) bool {
		return t.versions[i].EffectiveFrom.After(d)
	})
	if i == 0 {
		return ParameterVersion{}, ErrNoApplicableParameters
	}
	return t.versions[i-1], nil
}

// AddOrReplaceVersion inserts v into the timeline. A version with the same
// effective-from date is overwritten in place; any other date inserts a new
// version. The stored history of earlier versions is never modified.
func (t *ParameterTimeline) AddOrReplaceVersion(v ParameterVersion) {
	v.EffectiveFrom = Date(v.EffectiveFrom)
	for i := range t.versions {
		if t.versions[i].EffectiveFrom.Equal(v.EffectiveFrom) {
			t.versions[i] = v
			return
		}
	}
	t.versions = append(t.versions, v)
	sort.Slice(t.versions, func(i, j int) bool {
		return t.versions[i].EffectiveFrom.Before(t.versions[j].EffectiveFrom)
	})
}

// Versions returns the timeline in ascending effective-from order.
func (t *ParameterTimeline) Versions() []ParameterVersion {
	out := make([]ParameterVersion, len(t.versions))
	copy(out, t.versions)
	return out
}

// Len reports the number of versions.
func (t *ParameterTimeline) Len() int {
	return len(t.versions)
}
