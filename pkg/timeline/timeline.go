// Package timeline tracks which ship each pilot was seen in over time.
// Observations come from the first parsing pass (rep lines, jam attempts,
// damage entities) plus explicit boundary events such as the listener
// disembarking, and later passes query the timeline to fill ship columns.
package timeline

import (
	"sort"
	"time"
)

// ShipState is one observation of a pilot at a point in time. A boundary
// state carries no ship and blocks naive forward-fill across it.
type ShipState struct {
	T        time.Time
	Ship     string
	Boundary bool
	Alliance string
	Corp     string
}

// Timeline maps pilot name to a time-ordered slice of observations. Call
// Finalize after the observation pass and before any Lookup.
type Timeline map[string][]ShipState

func New() Timeline {
	return Timeline{}
}

// Add records a pilot sighting. Empty pilot or ship sightings are dropped;
// alliance/corp may be blank and are stored as observed.
func (tl Timeline) Add(pilot string, t time.Time, ship, alliance, corp string) {
	if pilot == "" || ship == "" {
		return
	}
	tl[pilot] = append(tl[pilot], ShipState{T: t, Ship: ship, Alliance: alliance, Corp: corp})
}

// AddBoundary records a point after which earlier ship knowledge must not
// be carried forward, e.g. the listener leaving their ship.
func (tl Timeline) AddBoundary(pilot string, t time.Time) {
	if pilot == "" {
		return
	}
	tl[pilot] = append(tl[pilot], ShipState{T: t, Boundary: true})
}

// Finalize sorts each pilot's observations chronologically. Sorting is
// stable so same-timestamp observations keep log order.
func (tl Timeline) Finalize() {
	for pilot := range tl {
		states := tl[pilot]
		sort.SliceStable(states, func(i, j int) bool {
			return states[i].T.Before(states[j].T)
		})
		tl[pilot] = states
	}
}

// Restrict returns a copy of the timeline containing only observations
// within [start, end]. Used to scope lookups to a single fight so state
// from other fights does not leak in.
func (tl Timeline) Restrict(start, end time.Time) Timeline {
	out := Timeline{}
	for pilot, states := range tl {
		var kept []ShipState
		for _, s := range states {
			if s.T.Before(start) || s.T.After(end) {
				continue
			}
			kept = append(kept, s)
		}
		if len(kept) > 0 {
			out[pilot] = kept
		}
	}
	return out
}

// Lookup resolves a pilot's ship and affiliation at time t.
//
// The rule is asymmetric on purpose. Looking backward for the most recent
// observation at or before t is always safe. When t precedes every
// observation, the first observation may be borrowed backward, because a
// pilot seen in a ship shortly after t was almost certainly in it at t.
// Forward-fill across a boundary is only allowed when the next concrete
// sighting after the boundary still covers t.
func (tl Timeline) Lookup(pilot string, t time.Time) (ship, alliance, corp string) {
	states := tl[pilot]
	if len(states) == 0 {
		return "", "", ""
	}

	// Index of the last observation at or before t.
	idx := sort.Search(len(states), func(i int) bool {
		return states[i].T.After(t)
	}) - 1

	if idx < 0 {
		first := states[0]
		if first.Boundary {
			return "", "", ""
		}
		return first.Ship, first.Alliance, first.Corp
	}

	st := states[idx]
	if !st.Boundary && st.Ship != "" {
		return st.Ship, st.Alliance, st.Corp
	}

	// A boundary covers t. The next sighting after it may be borrowed
	// backward, but only while t still precedes that sighting; another
	// boundary first means the gap stays unknown.
	for j := idx + 1; j < len(states); j++ {
		if states[j].Boundary {
			return "", "", ""
		}
		if states[j].Ship == "" {
			continue
		}
		if !t.After(states[j].T) {
			return states[j].Ship, states[j].Alliance, states[j].Corp
		}
		return "", "", ""
	}
	return "", "", ""
}
