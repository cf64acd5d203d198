// Package catalog holds the static reference data for the inspection survey:
// the trackable diseases and pests with their organs and scoring rules, and
// the lot/location table with cost center codes. The catalog is immutable
// reference data, loaded once and passed explicitly to the engines so tests
// can substitute fixtures.
package catalog

import "fmt"

// Kind discriminates disease entries from pest entries. The two kinds use
// different aggregation formulas.
type Kind string

const (
	Disease Kind = "doenca"
	Pest    Kind = "praga"
)

// Sub-location labels used by pest entries that sample both plot zones.
const (
	Border   = "Bordadura"
	Interior = "Área interna da parcela"
)

// Quadrants is the fixed spatial subdivision used when sampling an organ.
var Quadrants = []string{"Q1", "Q2", "Q3", "Q4"}

// Branches is the optional second sampling axis applied to some organs.
var Branches = []string{"R1", "R2"}

// OrganSpec describes one scorable plant organ of a catalog entry.
type OrganSpec struct {
	Name           string // organ label as shown on the score sheet
	MaxScore       int    // maximum severity score per sample, 0 for presence-only organs
	RequiresBranch bool   // true when the organ is sampled on both branches
}

// Entry is one disease or pest definition with its organs and scoring rules.
type Entry struct {
	Name         string      // unique identifier across the catalog
	Kind         Kind        // disease or pest
	Organs       []OrganSpec // ordered, non-empty
	SubLocations []string    // set for pest entries sampled at border and interior
	PresenceOnly bool        // true for the natural-enemies checklist entry
}

// HasSubLocations reports whether the entry partitions samples into
// border/interior zones.
func (e *Entry) HasSubLocations() bool {
	return len(e.SubLocations) > 0
}

// Organ returns the organ spec with the given name, or false when the entry
// has no such organ.
func (e *Entry) Organ(name string) (OrganSpec, bool) {
	for _, o := range e.Organs {
		if o.Name == name {
			return o, true
		}
	}
	return OrganSpec{}, false
}

// Catalog is an ordered list of entries. Order is preserved everywhere
// summaries are produced.
type Catalog []Entry

// Find returns the entry with the given name, or false when absent.
func (c Catalog) Find(name string) (*Entry, bool) {
	for i := range c {
		if c[i].Name == name {
			return &c[i], true
		}
	}
	return nil, false
}

// Validate checks the catalog invariants: unique entry names and non-empty
// organ lists.
func (c Catalog) Validate() error {
	seen := make(map[string]bool, len(c))
	for i := range c {
		e := &c[i]
		if e.Name == "" {
			return fmt.Errorf("catalog entry %d has an empty name", i)
		}
		if seen[e.Name] {
			return fmt.Errorf("duplicate catalog entry name: %s", e.Name)
		}
		seen[e.Name] = true
		if len(e.Organs) == 0 {
			return fmt.Errorf("catalog entry %s has no organs", e.Name)
		}
	}
	return nil
}

// Default returns the production catalog for the mango survey.
func Default() Catalog {
	bothZones := []string{Border, Interior}

	return Catalog{
		{
			Name: "MORTE DESCENDENTE",
			Kind: Disease,
			Organs: []OrganSpec{
				{Name: "FOLHA", MaxScore: 5, RequiresBranch: true},
				{Name: "RAMO", MaxScore: 2},
				{Name: "INFLORESC.", MaxScore: 2},
				{Name: "FRUTO", MaxScore: 2},
			},
		},
		{
			Name: "OÍDIO",
			Kind: Disease,
			Organs: []OrganSpec{
				{Name: "FOLHA", MaxScore: 5, RequiresBranch: true},
				{Name: "INFLORESC.", MaxScore: 2},
			},
		},
		{
			Name: "MALFORMAÇÃO E MICROÁCARO",
			Kind: Disease,
			Organs: []OrganSpec{
				{Name: "VEGETATIVA", MaxScore: 2},
				{Name: "FLORAL", MaxScore: 2},
			},
		},
		{
			Name: "MANCHA ANGULAR",
			Kind: Disease,
			Organs: []OrganSpec{
				{Name: "FOLHA", MaxScore: 5, RequiresBranch: true},
				{Name: "FRUTO", MaxScore: 2},
			},
		},
		{
			Name: "ANTRACNOSE",
			Kind: Disease,
			Organs: []OrganSpec{
				{Name: "FOLHA", MaxScore: 5, RequiresBranch: true},
				{Name: "INFLORESC.", MaxScore: 2},
				{Name: "FRUTO", MaxScore: 2},
			},
		},
		{
			Name: "MANCHA DE ALTERNARIA",
			Kind: Disease,
			Organs: []OrganSpec{
				{Name: "FOLHA", MaxScore: 5, RequiresBranch: true},
				{Name: "FRUTO", MaxScore: 2},
			},
		},
		{
			Name: "TRIPES",
			Kind: Pest,
			Organs: []OrganSpec{
				{Name: "RAMO", MaxScore: 2},
				{Name: "INFLORESC.", MaxScore: 5},
				{Name: "FRUTO", MaxScore: 1},
			},
			SubLocations: bothZones,
		},
		{
			Name: "PULGÃO",
			Kind: Pest,
			Organs: []OrganSpec{
				{Name: "BROTAÇÃO", MaxScore: 2},
				{Name: "INFLORESC.", MaxScore: 1},
			},
			SubLocations: bothZones,
		},
		{
			Name: "LEPIDÓPTEROS",
			Kind: Pest,
			Organs: []OrganSpec{
				{Name: "INFLORESC.", MaxScore: 1},
			},
			SubLocations: bothZones,
		},
		{
			Name: "MOSQUINHA DA MANGA",
			Kind: Pest,
			Organs: []OrganSpec{
				{Name: "BROTAÇÃO", MaxScore: 2},
				{Name: "FOLHAS NOVAS", MaxScore: 2},
				{Name: "RAMO", MaxScore: 2},
				{Name: "INFLORESCÊNCIA", MaxScore: 1},
				{Name: "FRUTO (chumbinho)", MaxScore: 1},
			},
			SubLocations: bothZones,
		},
		{
			Name: "COCHONILHA",
			Kind: Pest,
			Organs: []OrganSpec{
				{Name: "FOLHA (Aulacaspis e Pseudaonidia)", MaxScore: 1, RequiresBranch: true},
				{Name: "FRUTO (Pseudococus sp.)", MaxScore: 1, RequiresBranch: true},
				{Name: "FRUTO (Pseudaonidia tribitiformis)", MaxScore: 1},
			},
			SubLocations: bothZones,
		},
		{
			Name: "INIMIGOS NATURAIS",
			Kind: Pest,
			Organs: []OrganSpec{
				{Name: "BICHO LIXEIRO (Ovo)"},
				{Name: "BICHO LIXEIRO (Larva)"},
				{Name: "BICHO LIXEIRO (Adulto)"},
				{Name: "JOANINHA (Larva)"},
				{Name: "JOANINHA (Adulto)"},
				{Name: "ÁCARO PREDADOR"},
				{Name: "ARANHA"},
			},
			PresenceOnly: true,
		},
	}
}
