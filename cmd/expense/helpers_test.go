package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/expense-flow/internal/model"
)

func TestParseIDs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []int64
		wantErr string
	}{
		{name: "single", args: []string{"42"}, want: []int64{42}},
		{name: "mixed forms", args: []string{"3,4", "9"}, want: []int64{3, 4, 9}},
		{name: "duplicates", args: []string{"3", "3,3"}, want: []int64{3}},
		{name: "spaces and empty parts", args: []string{" 5 ,", ",6"}, want: []int64{5, 6}},
		{name: "not a number", args: []string{"abc"}, wantErr: `invalid transaction id "abc"`},
		{name: "zero", args: []string{"0"}, wantErr: `invalid transaction id "0"`},
		{name: "nothing", args: []string{","}, wantErr: "at least one transaction id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIDs(tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"Vendor=Corner Shop", "notes=", "paymentmethod=a=b"})
	require.NoError(t, err)
	assert.Equal(t, []assignment{
		{Field: model.FieldVendor, Value: "Corner Shop"},
		{Field: model.FieldNotes, Value: ""},
		{Field: model.FieldPaymentMethod, Value: "a=b"},
	}, got)

	_, err = parseAssignments(nil)
	assert.ErrorContains(t, err, "at least one")

	_, err = parseAssignments([]string{"vendor"})
	assert.ErrorContains(t, err, "expected field=value")

	_, err = parseAssignments([]string{"colour=red"})
	assert.ErrorContains(t, err, `unknown field "colour"`)
}

func TestBuildPatch(t *testing.T) {
	patch, err := buildPatch([]assignment{
		{Field: model.FieldAmount, Value: "12,50"},
		{Field: model.FieldNotes, Value: ""},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{model.FieldAmount, model.FieldNotes}, patch.Fields())
	assert.Equal(t, "12.50", patch.Amount.String())
	assert.Empty(t, *patch.Notes)

	_, err = buildPatch([]assignment{
		{Field: model.FieldAmount, Value: "x"},
		{Field: model.FieldDate, Value: "yesterday"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount")
	assert.Contains(t, err.Error(), "date")
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeStatement(t, dir, "a.ofx", "")
	b := writeStatement(t, dir, "b.qfx", "")
	writeStatement(t, dir, "notes.txt", "")

	files, err := collectFiles([]string{dir})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, files)

	files, err = collectFiles([]string{filepath.Join(dir, "*.ofx"), a})
	require.NoError(t, err)
	assert.Equal(t, []string{a}, files)

	files, err = collectFiles([]string{filepath.Join(dir, "notes.txt")})
	require.NoError(t, err)
	assert.Len(t, files, 1)

	_, err = collectFiles([]string{filepath.Join(dir, "missing.ofx")})
	assert.ErrorContains(t, err, "no files match")
}

func TestPrintTransactions(t *testing.T) {
	qty := 2.0
	txns := []model.Transaction{
		{
			ID: 1, Date: model.NewDate(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)),
			Category: "Groceries", Subcategory: "Bakery", Item: "Bread", Quantity: &qty,
			Amount: model.NewAmount(2.5), Vendor: "Corner Shop",
		},
		{Category: "Transport", Amount: model.NewAmount(30), Currency: "CHF"},
	}

	var buf bytes.Buffer
	require.NoError(t, printTransactions(&buf, txns))

	out := buf.String()
	assert.Contains(t, out, "Bakery / Bread")
	assert.Contains(t, out, "2.50 EUR")
	assert.Contains(t, out, "30.00 CHF")
	assert.Contains(t, out, "Corner Shop")
	assert.Contains(t, out, "---", "empty cells show a placeholder")
}

func TestPrintTransaction(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printTransaction(&buf, model.Transaction{ID: 9, Category: "Travel", Amount: model.NewAmount(4)}))

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "9")
	assert.Contains(t, out, "Travel")
	assert.Contains(t, out, "4.00")
}
