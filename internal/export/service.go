// Package export renders trading statements for one participant.
package export

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/gridshare/internal/identity"
	"github.com/MrJamesThe3rd/gridshare/internal/market"
)

// Format is an output file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
	// FormatZip bundles every other format plus a text summary.
	FormatZip Format = "zip"
)

var ErrUnknownFormat = errors.New("unknown export format")

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatCSV, FormatXLSX, FormatPDF, FormatZip:
		return f, nil
	case "":
		return FormatCSV, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	case FormatZip:
		return "application/zip"
	}

	return "text/csv; charset=utf-8"
}

// Role is the participant's side of a trade.
type Role string

const (
	RoleBought Role = "bought"
	RoleSold   Role = "sold"
)

// Line is one trade on a statement. Amount is negative for purchases.
type Line struct {
	Tx     market.Transaction
	Role   Role
	Amount decimal.Decimal
}

type Statement struct {
	Participant identity.Identity
	Start       *time.Time
	End         *time.Time
	Generated   time.Time
	Lines       []Line
	Spent       decimal.Decimal
	Earned      decimal.Decimal
	KwhBought   decimal.Decimal
	KwhSold     decimal.Decimal
}

// Net is earnings minus spending.
func (s Statement) Net() decimal.Decimal {
	return s.Earned.Sub(s.Spent)
}

// Filename is a download name such as statement_u1_20250701.csv.
func (s Statement) Filename(f Format) string {
	safeID := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}

		return '_'
	}, s.Participant.ID)

	return fmt.Sprintf("statement_%s_%s.%s", safeID, s.Generated.Format("20060102"), f)
}

// Filter bounds a statement. Nil bounds are open; End is exclusive.
type Filter struct {
	Start *time.Time
	End   *time.Time
}

func (f Filter) contains(t time.Time) bool {
	if f.Start != nil && t.Before(*f.Start) {
		return false
	}

	if f.End != nil && !t.Before(*f.End) {
		return false
	}

	return true
}

type TransactionSource interface {
	SnapshotTransactions() []market.Transaction
}

// Service builds statements from the ledger.
type Service struct {
	source TransactionSource
	now    func() time.Time
}

func NewService(source TransactionSource, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}

	return &Service{source: source, now: now}
}

// Statement collects the confirmed trades of who within filter, newest first.
func (s *Service) Statement(who identity.Identity, filter Filter) Statement {
	st := Statement{
		Participant: who,
		Start:       filter.Start,
		End:         filter.End,
		Generated:   s.now(),
		Spent:       decimal.Zero,
		Earned:      decimal.Zero,
		KwhBought:   decimal.Zero,
		KwhSold:     decimal.Zero,
	}

	for _, tx := range s.source.SnapshotTransactions() {
		if tx.Status != market.TxConfirmed || !filter.contains(tx.Timestamp) {
			continue
		}

		if tx.BuyerID == who.ID {
			st.Lines = append(st.Lines, Line{Tx: tx, Role: RoleBought, Amount: tx.TotalAmount.Neg()})
			st.Spent = st.Spent.Add(tx.TotalAmount)
			st.KwhBought = st.KwhBought.Add(tx.EnergyAmount)
		}

		if tx.SellerID == who.ID {
			st.Lines = append(st.Lines, Line{Tx: tx, Role: RoleSold, Amount: tx.TotalAmount})
			st.Earned = st.Earned.Add(tx.TotalAmount)
			st.KwhSold = st.KwhSold.Add(tx.EnergyAmount)
		}
	}

	return st
}

// Write renders st to w in format f.
func (s *Service) Write(w io.Writer, st Statement, f Format) error {
	switch f {
	case FormatCSV:
		return writeCSV(w, st)
	case FormatXLSX:
		return writeXLSX(w, st)
	case FormatPDF:
		return writePDF(w, st)
	case FormatZip:
		return s.writeZip(w, st)
	}

	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

func (s *Service) writeZip(w io.Writer, st Statement) error {
	zw := zip.NewWriter(w)

	for _, f := range []Format{FormatCSV, FormatXLSX, FormatPDF} {
		zf, err := zw.Create(st.Filename(f))
		if err != nil {
			return fmt.Errorf("adding %s: %w", f, err)
		}

		if err := s.Write(zf, st, f); err != nil {
			return err
		}
	}

	zf, err := zw.Create("summary.txt")
	if err != nil {
		return fmt.Errorf("adding summary: %w", err)
	}

	if _, err := io.WriteString(zf, s.GenerateSummary(st)); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing archive: %w", err)
	}

	return nil
}

// GenerateSummary creates a plain-text listing of the statement lines.
func (s *Service) GenerateSummary(st Statement) string {
	var sb strings.Builder

	for _, l := range st.Lines {
		counterparty := l.Tx.SellerName
		if l.Role == RoleSold {
			counterparty = l.Tx.BuyerName
		}

		sign := ""
		if l.Amount.IsPositive() {
			sign = "+"
		}

		fmt.Fprintf(&sb, "* %s | %s | %s kWh %s | %s%s $ | %s\n",
			l.Tx.Timestamp.Format("2006-01-02"),
			counterparty,
			l.Tx.EnergyAmount.StringFixed(market.QuantityPrecision),
			l.Tx.EnergySource,
			sign,
			l.Amount.StringFixed(market.TotalPrecision),
			l.Tx.ID,
		)
	}

	fmt.Fprintf(&sb, "Net: %s $\n", st.Net().StringFixed(market.TotalPrecision))

	return sb.String()
}
