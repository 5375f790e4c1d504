package tagesschau

import (
	"fmt"
	"strings"
)

// Ressort is the editorial category used to filter results server-side.
type Ressort string

const (
	// RessortNone leaves the category unspecified; it is never sent.
	RessortNone         Ressort = ""
	RessortInland       Ressort = "inland"
	RessortAusland      Ressort = "ausland"
	RessortWirtschaft   Ressort = "wirtschaft"
	RessortSport        Ressort = "sport"
	RessortVideo        Ressort = "video"
	RessortInvestigativ Ressort = "investigativ"
	RessortWissen       Ressort = "wissen"
)

var knownRessorts = []Ressort{
	RessortInland,
	RessortAusland,
	RessortWirtschaft,
	RessortSport,
	RessortVideo,
	RessortInvestigativ,
	RessortWissen,
}

func (r Ressort) String() string { return string(r) }

// ParseRessort maps a category name to a Ressort. "", "none" and "all" yield RessortNone.
func ParseRessort(s string) (Ressort, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	switch key {
	case "", "none", "all":
		return RessortNone, nil
	}
	for _, r := range knownRessorts {
		if string(r) == key {
			return r, nil
		}
	}
	return RessortNone, fmt.Errorf("unknown ressort %q", s)
}
