// Package csvio converts between tabular transaction rows and transactions.
//
// Import is all-or-nothing: ParseAndValidate reports every row error and the
// caller must not write anything when Result.Failed is true.
package csvio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

// Column names of the CSV format.
const (
	ColumnDate        = "date"
	ColumnDescription = "description"
	ColumnAmount      = "amount"
)

// Header is the header row of exported and template files.
var Header = []string{ColumnDate, ColumnDescription, ColumnAmount}

// ErrEmptyFile is returned by ReadRows when the input has no header row.
var ErrEmptyFile = errors.New("csv file is empty")

// Entry is a validated row, ready to become a transaction.
type Entry struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
}

// RowError describes one problem on one 1-indexed row.
type RowError struct {
	Row     int
	Message string
}

func (e RowError) Error() string {
	return fmt.Sprintf("Row %d: %s", e.Row, e.Message)
}

// Result is the outcome of validating a batch of rows.
type Result struct {
	Valid  []Entry
	Errors []RowError
}

// Failed reports whether any row was rejected.
func (r Result) Failed() bool { return len(r.Errors) > 0 }

// Messages returns the row errors as display strings.
func (r Result) Messages() []string {
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Error()
	}
	return out
}

// Rows returns the distinct invalid row numbers in ascending order.
func (r Result) Rows() []int {
	seen := make(map[int]bool)
	var rows []int
	for _, e := range r.Errors {
		if !seen[e.Row] {
			seen[e.Row] = true
			rows = append(rows, e.Row)
		}
	}
	sort.Ints(rows)
	return rows
}

// ParseAndValidate validates rows and converts the valid ones. Row numbers in
// errors start at 1 and refer to data rows, not counting the header.
func ParseAndValidate(rows []models.RawRow) Result {
	var res Result
	for i, row := range rows {
		entry, errs := validateRow(row, i+1)
		if len(errs) > 0 {
			res.Errors = append(res.Errors, errs...)
			continue
		}
		res.Valid = append(res.Valid, entry)
	}
	return res
}

func validateRow(row models.RawRow, n int) (Entry, []RowError) {
	var errs []RowError
	fail := func(msg string) { errs = append(errs, RowError{Row: n, Message: msg}) }

	rawDate := strings.TrimSpace(row[ColumnDate])
	description := strings.TrimSpace(row[ColumnDescription])
	rawAmount := strings.TrimSpace(row[ColumnAmount])

	if rawDate == "" {
		fail("Date is required")
	}
	if description == "" {
		fail("Description is required")
	}
	if rawAmount == "" {
		fail("Amount is required")
	}

	var entry Entry
	if rawDate != "" {
		d, err := ParseDate(rawDate)
		if err != nil {
			fail("Invalid date format. Please use YYYY-MM-DD format")
		}
		entry.Date = d
	}
	if rawAmount != "" {
		amount, err := ParseAmount(rawAmount)
		switch {
		case errors.Is(err, ErrAmountOutOfRange):
			fail(AmountOutOfRangeMessage)
		case err != nil:
			fail("Amount must be a number")
		}
		entry.Amount = amount
	}
	entry.Description = description
	return entry, errs
}

// ParseDate parses a calendar date in YYYY-MM-DD form. Full RFC 3339
// timestamps are accepted too and reduced to their UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(models.DateFormat, s); err == nil {
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	y, m, d := ts.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// Amounts are bounded so that every accepted value is a finite float64 and
// renders in constant time.
const (
	maxAmountLength        = 64
	maxAmountIntegerDigits = 15
	maxAmountScale         = 20
)

// AmountOutOfRangeMessage is the validation message for ErrAmountOutOfRange.
const AmountOutOfRangeMessage = "Amount is out of range"

// ErrAmountOutOfRange is returned for amounts outside the supported range.
var ErrAmountOutOfRange = errors.New("amount out of range")

// ParseAmount parses a plain signed decimal. Currency symbols, thousands
// separators and non-finite values are rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errors.New("empty amount")
	}
	if len(s) > maxAmountLength {
		return decimal.Zero, ErrAmountOutOfRange
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if err := CheckAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// CheckAmount reports ErrAmountOutOfRange when d has more than 15 integer
// digits or more than 20 decimal places.
func CheckAmount(d decimal.Decimal) error {
	exp := int64(d.Exponent())
	if exp < -maxAmountScale || exp > maxAmountIntegerDigits {
		return ErrAmountOutOfRange
	}
	if int64(d.NumDigits())+exp > maxAmountIntegerDigits {
		return ErrAmountOutOfRange
	}
	return nil
}

// ReadRows reads a CSV document whose first row is a header and returns one
// RawRow per data row, keyed by lower-cased header names. Blank lines are skipped.
func ReadRows(r io.Reader) ([]models.RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var rows []models.RawRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		if isBlank(record) {
			continue
		}
		row := make(models.RawRow, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Parse reads and validates a CSV document in one step.
func Parse(r io.Reader) (Result, error) {
	rows, err := ReadRows(r)
	if err != nil {
		return Result{}, err
	}
	return ParseAndValidate(rows), nil
}

// Write exports balanced transactions as CSV: the header, then one row per
// transaction with the date as YYYY-MM-DD, the quoted description and the
// plain amount. Balances are not exported.
func Write(w io.Writer, txns []models.BalancedTransaction) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(Header, ",") + "\n"); err != nil {
		return err
	}
	for _, t := range txns {
		line := fmt.Sprintf("%s,%s,%s\n",
			t.Date.UTC().Format(models.DateFormat),
			quote(t.Description),
			t.Amount.String(),
		)
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteTemplate writes the header and one example row.
func WriteTemplate(w io.Writer) error {
	_, err := io.WriteString(w, strings.Join(Header, ",")+"\n"+
		`2025-03-15,"Rent payment",-1500.00`+"\n")
	return err
}

// quote wraps s in double quotes, doubling embedded quotes.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// FileName derives an export file name from a ledger name.
func FileName(ledgerName string) string {
	if strings.TrimSpace(ledgerName) == "" {
		return "transactions.csv"
	}
	var b strings.Builder
	for _, r := range strings.ToLower(ledgerName) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String() + "_transactions.csv"
}
