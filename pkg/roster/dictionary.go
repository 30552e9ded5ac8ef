// Package roster classifies combat parties into players, NPCs, drones and
// charges, backed by an optional reference dictionary of item type names.
package roster

import (
	"strings"

	"github.com/solfleet/combatlog/pkg/logtext"
)

// Dictionary is the reference set of known item type names (ships, drones,
// charges, modules). It gates lexical classification so that player names
// which merely sound like items are not misfiled.
type Dictionary struct {
	keys map[string]struct{}
}

// NewDictionary builds a dictionary from raw type names. Blank names are
// skipped; lookups are case- and whitespace-insensitive.
func NewDictionary(names []string) *Dictionary {
	d := &Dictionary{keys: make(map[string]struct{}, len(names))}
	for _, n := range names {
		k := dictKey(n)
		if k == "" {
			continue
		}
		d.keys[k] = struct{}{}
	}
	return d
}

func dictKey(name string) string {
	return strings.ToLower(logtext.NormalizeKey(name))
}

// Contains reports exact membership. Implements combat.NameChecker.
func (d *Dictionary) Contains(name string) bool {
	if d == nil {
		return false
	}
	_, ok := d.keys[dictKey(name)]
	return ok
}

// Empty reports whether no reference data was loaded. An empty dictionary
// disables membership gating rather than rejecting everything.
func (d *Dictionary) Empty() bool {
	return d == nil || len(d.keys) == 0
}

// Len returns the number of distinct names loaded.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}
