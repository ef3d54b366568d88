package importer

// windowMode determines how the availability window is read from a row.
type windowMode int

const (
	// windowUntil means an explicit end timestamp column.
	windowUntil windowMode = iota
	// windowHours means a duration in hours counted from the start.
	windowHours
)

// Profile describes the column layout of a listing CSV. Header names are
// compared lowercased and trimmed.
type Profile struct {
	Name       string
	AmountCol  string
	PriceCol   string
	SourceCol  string
	LocCol     string
	FromCol    string // optional; empty cells start now
	WindowMode windowMode
	UntilCol   string // used when WindowMode == windowUntil
	HoursCol   string // used when WindowMode == windowHours
}

func (p Profile) requiredCols() []string {
	cols := []string{p.AmountCol, p.PriceCol, p.SourceCol, p.LocCol}

	switch p.WindowMode {
	case windowUntil:
		cols = append(cols, p.UntilCol)
	case windowHours:
		cols = append(cols, p.HoursCol)
	}

	return cols
}

// profiles is tried in order during detection.
var profiles = []Profile{
	{
		Name:       "gridshare",
		AmountCol:  "energy_kwh",
		PriceCol:   "price_per_kwh",
		SourceCol:  "source",
		LocCol:     "location",
		FromCol:    "available_from",
		WindowMode: windowUntil,
		UntilCol:   "available_until",
	},
	{
		Name:       "spreadsheet",
		AmountCol:  "energy (kwh)",
		PriceCol:   "price per kwh",
		SourceCol:  "source",
		LocCol:     "location",
		FromCol:    "start",
		WindowMode: windowHours,
		HoursCol:   "hours",
	},
}
