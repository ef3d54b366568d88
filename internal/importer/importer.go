// Package importer reads listing offers in bulk from CSV files.
package importer

import (
	"fmt"

	enc "github.com/MrJamesThe3rd/gridshare/internal/encoding"
	"github.com/MrJamesThe3rd/gridshare/internal/market"
)

// Row is one parsed offer. Line is the 1-based line in the source file.
type Row struct {
	Line int
	Spec market.ListingSpec
}

// RowError explains why a line did not become a listing.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// Result is the outcome of parsing a file.
type Result struct {
	Format  string
	Charset enc.Charset
	Rows    []Row
	Errors  []RowError
}
