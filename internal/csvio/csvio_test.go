package csvio

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

func TestParseAndValidate(t *testing.T) {
	rows := []models.RawRow{
		{"date": "2023-07-27", "description": "Savings", "amount": "500.00"},
		{"date": "2023-07-28", "description": "  Rent  ", "amount": "-1500"},
	}

	res := ParseAndValidate(rows)

	if res.Failed() {
		t.Fatalf("unexpected errors: %v", res.Messages())
	}
	if len(res.Valid) != 2 {
		t.Fatalf("expected 2 valid entries, got %d", len(res.Valid))
	}
	if res.Valid[1].Description != "Rent" {
		t.Errorf("description not trimmed: %q", res.Valid[1].Description)
	}
	if !res.Valid[1].Amount.Equal(decimal.NewFromInt(-1500)) {
		t.Errorf("amount = %s", res.Valid[1].Amount)
	}
	expectedDate := time.Date(2023, 7, 27, 0, 0, 0, 0, time.UTC)
	if !res.Valid[0].Date.Equal(expectedDate) {
		t.Errorf("date = %v, expected %v", res.Valid[0].Date, expectedDate)
	}
}

func TestParseAndValidateRowErrors(t *testing.T) {
	tests := []struct {
		name     string
		row      models.RawRow
		expected []string
	}{
		{"missing date", models.RawRow{"description": "x", "amount": "1"}, []string{"Row 1: Date is required"}},
		{"blank description", models.RawRow{"date": "2024-01-01", "description": "   ", "amount": "1"}, []string{"Row 1: Description is required"}},
		{"missing amount", models.RawRow{"date": "2024-01-01", "description": "x"}, []string{"Row 1: Amount is required"}},
		{"invalid calendar date", models.RawRow{"date": "2023-02-30", "description": "x", "amount": "1"}, []string{"Row 1: Invalid date format. Please use YYYY-MM-DD format"}},
		{"garbage date", models.RawRow{"date": "yesterday", "description": "x", "amount": "1"}, []string{"Row 1: Invalid date format. Please use YYYY-MM-DD format"}},
		{"currency symbol", models.RawRow{"date": "2024-01-01", "description": "x", "amount": "$5.00"}, []string{"Row 1: Amount must be a number"}},
		{"thousands separator", models.RawRow{"date": "2024-01-01", "description": "x", "amount": "1,000"}, []string{"Row 1: Amount must be a number"}},
		{"not a number", models.RawRow{"date": "2024-01-01", "description": "x", "amount": "NaN"}, []string{"Row 1: Amount must be a number"}},
		{"exponent beyond float range", models.RawRow{"date": "2024-01-01", "description": "x", "amount": "1e400"}, []string{"Row 1: Amount is out of range"}},
		{"huge exponent", models.RawRow{"date": "2024-01-01", "description": "x", "amount": "1e20000000"}, []string{"Row 1: Amount is out of range"}},
		{"tiny exponent", models.RawRow{"date": "2024-01-01", "description": "x", "amount": "1e-20000000"}, []string{"Row 1: Amount is out of range"}},
		{"everything missing", models.RawRow{}, []string{"Row 1: Date is required", "Row 1: Description is required", "Row 1: Amount is required"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseAndValidate([]models.RawRow{tt.row})
			if !reflect.DeepEqual(res.Messages(), tt.expected) {
				t.Errorf("Messages() = %v, expected %v", res.Messages(), tt.expected)
			}
			if len(res.Valid) != 0 {
				t.Errorf("expected no valid entries, got %d", len(res.Valid))
			}
		})
	}
}

func TestParseAndValidateReportsExactRows(t *testing.T) {
	rows := []models.RawRow{
		{"date": "2024-01-01", "description": "ok", "amount": "1"},
		{"date": "2024-01-02", "description": "ok", "amount": "2"},
		{"date": "2024-01-03", "description": "bad", "amount": "abc"},
		{"date": "2024-01-04", "description": "ok", "amount": "4"},
		{"date": "", "description": "", "amount": ""},
	}

	res := ParseAndValidate(rows)

	if !res.Failed() {
		t.Fatal("expected the batch to fail")
	}
	if got := res.Rows(); !reflect.DeepEqual(got, []int{3, 5}) {
		t.Errorf("Rows() = %v, expected [3 5]", got)
	}
}

func TestParseAmountBounds(t *testing.T) {
	accepted := []string{"0", "-1500", "1.50", "999999999999999", "-999999999999999.99", "0.00000000000000000001", "1e14"}
	for _, s := range accepted {
		if _, err := ParseAmount(s); err != nil {
			t.Errorf("ParseAmount(%q) error: %v", s, err)
		}
	}

	rejected := []string{"1000000000000000", "1e15", "1e400", "0e99999999", "1e-21", strings.Repeat("9", 100)}
	for _, s := range rejected {
		if _, err := ParseAmount(s); !errors.Is(err, ErrAmountOutOfRange) {
			t.Errorf("ParseAmount(%q) = %v, expected ErrAmountOutOfRange", s, err)
		}
	}
}

func TestReadRows(t *testing.T) {
	input := "\ufeffDate, Description ,AMOUNT\n" +
		"2024-01-01,\"Coffee, large\",-3.50\n" +
		"\n" +
		"2024-01-02,\"He said \"\"hi\"\"\",10\n"

	rows, err := ReadRows(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadRows() error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["description"] != "Coffee, large" {
		t.Errorf("description = %q", rows[0]["description"])
	}
	if rows[1]["description"] != `He said "hi"` {
		t.Errorf("description = %q", rows[1]["description"])
	}
	if rows[0]["amount"] != "-3.50" {
		t.Errorf("amount = %q", rows[0]["amount"])
	}
}

func TestReadRowsEmpty(t *testing.T) {
	if _, err := ReadRows(strings.NewReader("")); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("ReadRows(\"\") error = %v, expected ErrEmptyFile", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	source := []models.BalancedTransaction{
		balanced("2023-07-27", "Savings", "500.00"),
		balanced("2023-07-28", `Quote "this", please`, "-1000.25"),
		balanced("2023-08-02", "Unicode ünïcödé", "0.00000001"),
	}

	var buf bytes.Buffer
	if err := Write(&buf, source); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	res, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if res.Failed() {
		t.Fatalf("re-import failed: %v", res.Messages())
	}
	if len(res.Valid) != len(source) {
		t.Fatalf("got %d entries, expected %d", len(res.Valid), len(source))
	}
	for i, e := range res.Valid {
		s := source[i]
		if !e.Date.Equal(s.Date) || e.Description != s.Description || !e.Amount.Equal(s.Amount) {
			t.Errorf("row %d: got {%s %q %s}, expected {%s %q %s}", i,
				e.Date.Format(models.DateFormat), e.Description, e.Amount,
				s.Date.Format(models.DateFormat), s.Description, s.Amount)
		}
	}
}

func TestWriteQuotesDescriptions(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, []models.BalancedTransaction{balanced("2024-05-01", `a "b"`, "12.5")}); err != nil {
		t.Fatal(err)
	}
	expected := "date,description,amount\n2024-05-01,\"a \"\"b\"\"\",12.5\n"
	if buf.String() != expected {
		t.Errorf("Write() = %q, expected %q", buf.String(), expected)
	}
}

func TestWriteTemplate(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTemplate(&buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("template has %d lines, expected 2", len(lines))
	}
	if lines[0] != "date,description,amount" {
		t.Errorf("header = %q", lines[0])
	}

	res, err := Parse(strings.NewReader(buf.String()))
	if err != nil || res.Failed() {
		t.Errorf("template example row does not validate: %v %v", err, res.Messages())
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"Ricky", "ricky_transactions.csv"},
		{"Home & Car 2024", "home___car_2024_transactions.csv"},
		{"", "transactions.csv"},
	}
	for _, tt := range tests {
		if got := FileName(tt.name); got != tt.expected {
			t.Errorf("FileName(%q) = %q, expected %q", tt.name, got, tt.expected)
		}
	}
}

func balanced(date, description, amount string) models.BalancedTransaction {
	d, _ := time.Parse(models.DateFormat, date)
	return models.BalancedTransaction{
		Transaction: models.Transaction{
			Date:        d,
			Description: description,
			Amount:      decimal.RequireFromString(amount),
		},
	}
}
