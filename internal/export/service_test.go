package export_test

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/MrJamesThe3rd/gridshare/internal/export"
	"github.com/MrJamesThe3rd/gridshare/internal/identity"
	"github.com/MrJamesThe3rd/gridshare/internal/market"
)

type ledger []market.Transaction

func (l ledger) SnapshotTransactions() []market.Transaction { return l }

var (
	me  = identity.Identity{ID: "u1", Name: "Ada"}
	now = time.Date(2025, 9, 30, 12, 0, 0, 0, time.UTC)
)

func trade(id, buyer, seller, kwh, price, total string, status market.TxStatus, at time.Time) market.Transaction {
	return market.Transaction{
		ID: id, ListingID: "L", BuyerID: buyer, BuyerName: buyer + "-name", SellerID: seller, SellerName: seller + "-name",
		EnergyAmount: decimal.RequireFromString(kwh), PricePerKwh: decimal.RequireFromString(price),
		TotalAmount: decimal.RequireFromString(total), Status: status, Timestamp: at, EnergySource: market.SourceWind,
	}
}

func newService() *export.Service {
	txs := ledger{
		trade("t4", "u1", "s2", "2", "0.150", "0.30", market.TxConfirmed, time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC)),
		trade("t3", "b2", "u1", "10", "0.200", "2.00", market.TxConfirmed, time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC)),
		trade("t2", "u1", "s3", "1", "0.100", "0.10", market.TxFailed, time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC)),
		trade("t1", "u1", "s4", "3", "0.100", "0.30", market.TxConfirmed, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)),
		trade("t0", "x", "y", "3", "0.100", "0.30", market.TxConfirmed, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)),
	}

	return export.NewService(txs, func() time.Time { return now })
}

func TestService_Statement(t *testing.T) {
	start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		filter     export.Filter
		wantIDs    []string
		wantSpent  string
		wantEarned string
	}{
		{name: "Everything", wantIDs: []string{"t4", "t3", "t1"}, wantSpent: "0.60", wantEarned: "2.00"},
		{name: "September", filter: export.Filter{Start: &start}, wantIDs: []string{"t4", "t3"}, wantSpent: "0.30", wantEarned: "2.00"},
		{name: "EndExclusive", filter: export.Filter{Start: &start, End: &end}, wantIDs: []string{"t3"}, wantSpent: "0.00", wantEarned: "2.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newService().Statement(me, tt.filter)

			var ids []string
			for _, l := range st.Lines {
				ids = append(ids, l.Tx.ID)
			}

			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantSpent, st.Spent.StringFixed(2))
			assert.Equal(t, tt.wantEarned, st.Earned.StringFixed(2))
		})
	}
}

func TestService_WriteCSV(t *testing.T) {
	svc := newService()
	st := svc.Statement(me, export.Filter{})

	var buf bytes.Buffer
	require.NoError(t, svc.Write(&buf, st, export.FormatCSV))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Date", rows[0][0])
	assert.Equal(t, []string{"2025-09-20T00:00:00Z", "t4", "bought", "s2-name", "wind", "2.000", "0.150", "-0.30"}, rows[1])
	assert.Equal(t, "b2-name", rows[2][3])
	assert.Equal(t, "2.00", rows[2][7])
}

func TestService_WriteXLSX(t *testing.T) {
	svc := newService()
	st := svc.Statement(me, export.Filter{})

	var buf bytes.Buffer
	require.NoError(t, svc.Write(&buf, st, export.FormatXLSX))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue("summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)

	rows, err := f.GetRows("trades")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "t4", rows[1][1])
}

func TestService_WritePDF(t *testing.T) {
	svc := newService()

	var buf bytes.Buffer
	require.NoError(t, svc.Write(&buf, svc.Statement(me, export.Filter{}), export.FormatPDF))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestService_WriteZip(t *testing.T) {
	svc := newService()
	st := svc.Statement(me, export.Filter{})

	var buf bytes.Buffer
	require.NoError(t, svc.Write(&buf, st, export.FormatZip))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}

	assert.ElementsMatch(t, []string{
		"statement_u1_20250930.csv",
		"statement_u1_20250930.xlsx",
		"statement_u1_20250930.pdf",
		"summary.txt",
	}, names)
}

func TestService_GenerateSummary(t *testing.T) {
	svc := newService()
	st := svc.Statement(me, export.Filter{})

	got := svc.GenerateSummary(st)
	assert.Contains(t, got, "* 2025-09-20 | s2-name | 2.000 kWh wind | -0.30 $ | t4\n")
	assert.Contains(t, got, "* 2025-09-10 | b2-name | 10.000 kWh wind | +2.00 $ | t3\n")
	assert.Contains(t, got, "Net: 1.40 $\n")
}

func TestParseFormat(t *testing.T) {
	f, err := export.ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, export.FormatCSV, f)

	f, err = export.ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, export.FormatXLSX, f)

	_, err = export.ParseFormat("docx")
	require.ErrorIs(t, err, export.ErrUnknownFormat)
}
