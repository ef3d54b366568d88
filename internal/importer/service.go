package importer

import (
	"context"
	"errors"
	"fmt"
	"io"

	enc "github.com/MrJamesThe3rd/gridshare/internal/encoding"
	"github.com/MrJamesThe3rd/gridshare/internal/market"
)

//go:generate mockgen -source=service.go -destination=creator_mock.go -package=importer
type ListingCreator interface {
	CreateListing(ctx context.Context, spec market.ListingSpec) (market.Listing, error)
}

type Service struct {
	creator ListingCreator
	parser  *Parser
}

func NewService(creator ListingCreator, parser *Parser) *Service {
	return &Service{creator: creator, parser: parser}
}

// Report lists the listings an import created and the lines it skipped.
type Report struct {
	Format  string
	Charset enc.Charset
	Created []market.Listing
	Errors  []RowError
}

// Import parses r and creates one listing per valid row. Rows rejected by
// the engine are reported, not fatal. Storage failures and missing
// authentication stop the import; listings created before that remain.
func (s *Service) Import(ctx context.Context, r io.Reader) (*Report, error) {
	res, err := s.parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse listings: %w", err)
	}

	report := &Report{Format: res.Format, Charset: res.Charset, Errors: res.Errors}

	for _, row := range res.Rows {
		l, err := s.creator.CreateListing(ctx, row.Spec)
		if err != nil {
			if errors.Is(err, market.ErrInvalidSpec) {
				report.Errors = append(report.Errors, RowError{Line: row.Line, Err: err})
				continue
			}

			return report, fmt.Errorf("line %d: %w", row.Line, err)
		}

		report.Created = append(report.Created, l)
	}

	return report, nil
}
