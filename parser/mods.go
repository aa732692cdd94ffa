package parser

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// RawMod is one modification as encountered in an identification file,
// before catalog resolution.
type RawMod struct {
	Name          string
	Accession     string
	Mass          *float64
	Residues      []string
	Specificity   []string
	Fixed         bool
	ProtocolRef   string
	CrosslinkerID *string
}

// ModEntry is one canonical catalog entry. Two raw modifications resolve to
// the same entry exactly when they agree on resolved name and mass.
type ModEntry struct {
	ID            int
	Name          string
	Mass          float64
	Residues      map[string]bool
	Specificity   []string
	Fixed         bool
	Accession     string
	ProtocolRef   string
	CrosslinkerID *string
}

// ResidueString returns the merged residue set in stable order.
func (e *ModEntry) ResidueString() string {
	residues := make([]string, 0, len(e.Residues))
	for r := range e.Residues {
		residues = append(residues, r)
	}
	sort.Strings(residues)
	return strings.Join(residues, "")
}

type modKey struct {
	name string
	mass float64 // rounded to 6 decimal places
}

// ModResolver deduplicates modifications across a whole document into a
// catalog with stable names. Scoped to one parse, never shared.
type ModResolver struct {
	unimod   *UnimodTable
	entries  []*ModEntry
	byKey    map[modKey]*ModEntry
	nameMass map[string]float64
}

func NewModResolver(unimod *UnimodTable) *ModResolver {
	return &ModResolver{
		unimod:   unimod,
		byKey:    map[modKey]*ModEntry{},
		nameMass: map[string]float64{},
	}
}

func roundMass(m float64) float64 {
	return math.Round(m*1e6) / 1e6
}

// Resolve returns the catalog entry for a raw modification, creating one on
// first sight. Warnings cover unresolvable masses; they never block the
// modification from being cataloged.
func (r *ModResolver) Resolve(raw RawMod) (*ModEntry, []Warning) {
	var warnings []Warning

	mass := 0.0
	haveMass := false
	if raw.Mass != nil {
		mass = *raw.Mass
		haveMass = true
	} else if m, ok := r.unimod.Mass(raw.Accession); ok {
		mass = m
		haveMass = true
	}

	name := raw.Name
	if name == "" || strings.EqualFold(name, "unknown modification") {
		name = fmt.Sprintf("(%.2f)", mass)
	}

	rounded := roundMass(mass)
	// A name already claimed by a different mass gets a disambiguating
	// suffix; modifications of different mass are never merged.
	for {
		claimed, ok := r.nameMass[name]
		if !ok || claimed == rounded {
			break
		}
		name += "*"
	}

	key := modKey{name: name, mass: rounded}
	if entry, ok := r.byKey[key]; ok {
		for _, res := range raw.Residues {
			entry.Residues[res] = true
		}
		if entry.CrosslinkerID == nil {
			entry.CrosslinkerID = raw.CrosslinkerID
		}
		return entry, warnings
	}

	// Warn once per catalog entry, not once per occurrence.
	if !haveMass {
		warnings = append(warnings, Warning{
			Type:    WarnMzidParse,
			Message: fmt.Sprintf("modification %q (%s): no mass and no resolvable accession", name, raw.Accession),
		})
	}

	entry := &ModEntry{
		ID:            len(r.entries),
		Name:          name,
		Mass:          mass,
		Residues:      map[string]bool{},
		Specificity:   raw.Specificity,
		Fixed:         raw.Fixed,
		Accession:     raw.Accession,
		ProtocolRef:   raw.ProtocolRef,
		CrosslinkerID: raw.CrosslinkerID,
	}
	for _, res := range raw.Residues {
		entry.Residues[res] = true
	}
	r.entries = append(r.entries, entry)
	r.byKey[key] = entry
	r.nameMass[name] = rounded
	return entry, warnings
}

// Entries returns the catalog in creation order.
func (r *ModResolver) Entries() []*ModEntry { return r.entries }
