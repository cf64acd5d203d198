package catalog

import "strings"

// Location is one lot/field plot entry. CostCenter is the grouping key used
// everywhere records are partitioned; DisplayName carries a farm prefix
// ("GV-F1", "GV-F2", ...) that groups several locations into one farm.
type Location struct {
	ID          int
	DisplayName string
	CostCenter  string
}

// Farm returns the farm prefix of the display name, e.g. "GV-F1".
func (l *Location) Farm() string {
	if i := strings.IndexByte(l.DisplayName, ' '); i > 0 {
		return l.DisplayName[:i]
	}
	return l.DisplayName
}

// Locations is the ordered lot/location table.
type Locations []Location

// ByName returns the location with the given display name, or false.
func (ls Locations) ByName(name string) (*Location, bool) {
	for i := range ls {
		if ls[i].DisplayName == name {
			return &ls[i], true
		}
	}
	return nil, false
}

// ByCostCenter returns the location with the given cost center, or false.
func (ls Locations) ByCostCenter(cc string) (*Location, bool) {
	for i := range ls {
		if ls[i].CostCenter == cc {
			return &ls[i], true
		}
	}
	return nil, false
}

// DefaultLocations returns the production lot table for the mango farms.
func DefaultLocations() Locations {
	return Locations{
		{ID: 1, DisplayName: "GV-F1 MANGA TOMMY 01", CostCenter: "1.5.1.01.01"},
		{ID: 2, DisplayName: "GV-F1 MANGA PALMER 02", CostCenter: "1.5.1.01.02"},
		{ID: 3, DisplayName: "GV-F1 MANGA PALMER 03", CostCenter: "1.5.1.01.03"},
		{ID: 4, DisplayName: "GV-F1 MANGA PALMER 04.1", CostCenter: "1.5.1.01.04"},
		{ID: 5, DisplayName: "GV-F1 MANGA KEITT 04.2", CostCenter: "1.5.1.01.05"},
		{ID: 6, DisplayName: "GV-F1 MANGA PALMER 05", CostCenter: "1.5.1.01.06"},
		{ID: 7, DisplayName: "GV-F1 MANGA TOMMY 06", CostCenter: "1.5.1.01.07"},
		{ID: 8, DisplayName: "GV-F1 MANGA PALMER 07", CostCenter: "1.5.1.01.08"},
		{ID: 9, DisplayName: "GV-F1 MANGA TOMMY 08", CostCenter: "1.5.1.01.09"},
		{ID: 10, DisplayName: "GV-F1 MANGA TOMMY 09", CostCenter: "1.5.1.01.10"},
		{ID: 11, DisplayName: "GV-F1 MANGA KEITT 10", CostCenter: "1.5.1.01.11"},
		{ID: 12, DisplayName: "GV-F1 MANGA PALMER 11", CostCenter: "1.5.1.01.12"},
		{ID: 13, DisplayName: "GV-F1 MANGA PALMER 12", CostCenter: "1.5.1.01.13"},
		{ID: 14, DisplayName: "GV-F1 MANGA PALMER 13", CostCenter: "1.5.1.01.14"},
		{ID: 15, DisplayName: "GV-F1 MANGA PALMER 14", CostCenter: "1.5.1.01.15"},
		{ID: 16, DisplayName: "GV-F1 MANGA PALMER 15.1", CostCenter: "1.5.1.01.16"},
		{ID: 17, DisplayName: "GV-F1 MANGA KEITT 15.2", CostCenter: "1.5.1.01.17"},
		{ID: 18, DisplayName: "GV-F1 MANGA PALMER 16", CostCenter: "1.5.1.01.18"},
		{ID: 19, DisplayName: "GV-F1 MANGA PALMER 17.1", CostCenter: "1.5.1.01.19"},
		{ID: 20, DisplayName: "GV-F1 MANGA PALMER 17.2", CostCenter: "1.5.1.01.20"},
		{ID: 21, DisplayName: "GV-F1 MANGA PALMER 18", CostCenter: "1.5.1.01.21"},
		{ID: 22, DisplayName: "GV-F1 MANGA PALMER 19", CostCenter: "1.5.1.01.22"},
		{ID: 23, DisplayName: "GV-F1 MANGA KENT 27", CostCenter: "1.5.1.01.23"},
		{ID: 24, DisplayName: "GV-F1 MANGA KENT 31", CostCenter: "1.5.1.01.24"},
		{ID: 25, DisplayName: "GV-F1 MANGA KENT 32", CostCenter: "1.5.1.01.25"},
		{ID: 26, DisplayName: "GV-F1 MANGA KENT 33", CostCenter: "1.5.1.01.26"},
		{ID: 27, DisplayName: "GV-F1 MANGA KENT 34", CostCenter: "1.5.1.01.27"},
		{ID: 28, DisplayName: "GV-F2 MANGA TOMMY 22.1", CostCenter: "1.5.1.02.01"},
		{ID: 29, DisplayName: "GV-F2 MANGA PALMER 22.2", CostCenter: "1.5.1.02.02"},
		{ID: 30, DisplayName: "GV-F2 MANGA TOMMY 23", CostCenter: "1.5.1.02.03"},
		{ID: 31, DisplayName: "GV-F2 MANGA TOMMY 24", CostCenter: "1.5.1.02.04"},
		{ID: 32, DisplayName: "GV-F2 MANGA PALMER 25", CostCenter: "1.5.1.02.05"},
		{ID: 33, DisplayName: "GV-F2 MANGA TOMMY 26", CostCenter: "1.5.1.02.06"},
		{ID: 34, DisplayName: "GV-F2 MANGA KEITT 28", CostCenter: "1.5.1.02.07"},
		{ID: 35, DisplayName: "GV-F2 MANGA KEITT 29", CostCenter: "1.5.1.02.08"},
		{ID: 36, DisplayName: "GV-F2 MANGA KEITT 30", CostCenter: "1.5.1.02.09"},
		{ID: 37, DisplayName: "GV-F3 MANGA KEITT 20", CostCenter: "1.5.1.03.01"},
		{ID: 38, DisplayName: "GV-F3 MANGA PALMER 21", CostCenter: "1.5.1.03.02"},
	}
}
