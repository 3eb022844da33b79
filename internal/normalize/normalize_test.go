package normalize

import (
	"reflect"
	"testing"
	"time"

	"github.com/AUX01-gsconsig/Consultas-CLT/constants"
)

func testLogger() *Normalizer {
	return New(nil)
}

// sourceHeaders is a realistic subset of the spreadsheet header row.
var sourceHeaders = []string{
	"Lote", "CPF", "Nome", "Data Nascimento", "Valor Renda", "Elegível", "Coluna Desconhecida",
}

func table(rows ...[]string) *RawTable {
	return &RawTable{Headers: sourceHeaders, Rows: rows}
}

func TestNormalizeCPF(t *testing.T) {
	cases := []struct {
		in    string
		want  string
		valid bool
	}{
		{"123.456.789-09", "12345678909", true},
		{"12345678909", "12345678909", true},
		{"123", "00000000123", true},
		{" 111.111.111-11 ", "11111111111", true},
		{"00000000000", "", false},
		{"000.000.000-00", "", false},
		{"", "", false},
		{"   ", "", false},
		{"nan", "", false},
		{"NaN", "", false},
		{"None", "", false},
		{"NONE", "", false},
		{"null", "", false},
		{"abc-def", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeCPF(tc.in)
		if ok != tc.valid {
			t.Errorf("NormalizeCPF(%q): valid = %v, want %v", tc.in, ok, tc.valid)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("NormalizeCPF(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalize_CanonicalShape(t *testing.T) {
	recs, metrics, err := testLogger().Normalize(table(
		[]string{"L1", "123.456.789-09", "Maria", "13/02/1990", "1234.56", "True", "dropped"},
	))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if metrics.InputRows != 1 || metrics.OutputRows != 1 {
		t.Errorf("unexpected metrics: %+v", metrics)
	}

	// Projecting back must yield exactly the canonical columns, in order.
	out := TableFromRecords(recs)
	if !reflect.DeepEqual(out.Headers, constants.CanonicalColumns) {
		t.Errorf("output columns = %v, want canonical set", out.Headers)
	}
	if len(out.Rows[0]) != len(constants.CanonicalColumns) {
		t.Errorf("row width = %d, want %d", len(out.Rows[0]), len(constants.CanonicalColumns))
	}

	r := recs[0]
	if r.CPF != "12345678909" {
		t.Errorf("cpf = %q", r.CPF)
	}
	if r.Nome == nil || *r.Nome != "Maria" {
		t.Errorf("nome = %v, want Maria", r.Nome)
	}
	if r.Renda == nil || *r.Renda != 1234.56 {
		t.Errorf("renda = %v, want 1234.56", r.Renda)
	}
	if r.ElegivelCLT == nil || *r.ElegivelCLT != 1 {
		t.Errorf("elegivel_clt = %v, want 1", r.ElegivelCLT)
	}
	// Columns absent from the input materialize as null.
	if r.NomeMae != nil || r.ValorLiberadoCLT != nil {
		t.Errorf("missing input columns should be null: nome_mae=%v valor_liberado=%v", r.NomeMae, r.ValorLiberadoCLT)
	}
}

func TestNormalize_DropsRowsWithInvalidKey(t *testing.T) {
	recs, metrics, err := testLogger().Normalize(table(
		[]string{"L1", "000.000.000-00", "Zeros", "", "", "", ""},
		[]string{"L1", "nan", "Nan", "", "", "", ""},
		[]string{"L1", "", "Empty", "", "", "", ""},
		[]string{"L1", "987.654.321-00", "Valid", "", "", "", ""},
	))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].Nome == nil || *recs[0].Nome != "Valid" {
		t.Errorf("kept wrong row: %+v", recs[0])
	}
	if metrics.InputRows != 4 || metrics.OutputRows != 1 {
		t.Errorf("unexpected metrics: %+v", metrics)
	}
	// Dropped rows are not duplicates.
	if metrics.DuplicatesRemoved != 0 {
		t.Errorf("duplicates_removed = %d, want 0", metrics.DuplicatesRemoved)
	}
}

func TestNormalize_DedupKeepsLast(t *testing.T) {
	recs, metrics, err := testLogger().Normalize(table(
		[]string{"L1", "11111111111", "Primeiro", "", "", "", ""},
		[]string{"L1", "22222222222", "Outro", "", "", "", ""},
		[]string{"L2", "11111111111", "Segundo", "", "", "", ""},
	))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if metrics.DuplicatesRemoved != 1 {
		t.Errorf("duplicates_removed = %d, want 1", metrics.DuplicatesRemoved)
	}

	var dup int
	for _, r := range recs {
		if r.CPF == "11111111111" {
			dup++
			if r.Nome == nil || *r.Nome != "Segundo" {
				t.Errorf("dedup kept %v, want the later row", r.Nome)
			}
			if r.Lote == nil || *r.Lote != "L2" {
				t.Errorf("dedup kept lote %v, want L2", r.Lote)
			}
		}
	}
	if dup != 1 {
		t.Errorf("cpf 11111111111 appears %d times, want 1", dup)
	}
}

func TestNormalize_DecimalClipping(t *testing.T) {
	cases := []struct {
		in   string
		want *float64
	}{
		{"150000000", nil},  // beyond DECIMAL(10,2)
		{"100000000", nil},  // just over the limit
		{"-100000000", nil}, // negative overflow
		{"99999999.99", ptr(99999999.99)},
		{"-99999999.99", ptr(-99999999.99)},
		{"1234.56", ptr(1234.56)},
		{"abc", nil},
		{"", nil},
	}
	for _, tc := range cases {
		recs, _, err := testLogger().Normalize(table(
			[]string{"L1", "12345678909", "X", "", tc.in, "", ""},
		))
		if err != nil {
			t.Fatalf("Normalize(%q) failed: %v", tc.in, err)
		}
		got := recs[0].Renda
		switch {
		case tc.want == nil && got != nil:
			t.Errorf("renda(%q) = %v, want null", tc.in, *got)
		case tc.want != nil && (got == nil || *got != *tc.want):
			t.Errorf("renda(%q) = %v, want %v", tc.in, got, *tc.want)
		}
	}
}

func TestNormalize_DatesDayFirst(t *testing.T) {
	cases := []struct {
		in   string
		want *time.Time
	}{
		{"13/02/1990", date(1990, 2, 13)},
		{"02/03/2024", date(2024, 3, 2)}, // day-first, not March 2nd vs Feb 3rd ambiguity
		{"7/1/2023", date(2023, 1, 7)},
		{"02-03-2024", date(2024, 3, 2)},
		{"2024-05-06", date(2024, 5, 6)},
		{"2024-05-06 14:32:11", date(2024, 5, 6)},
		{"not a date", nil},
		{"32/13/2024", nil},
		{"", nil},
	}
	for _, tc := range cases {
		recs, _, err := testLogger().Normalize(table(
			[]string{"L1", "12345678909", "X", tc.in, "", "", ""},
		))
		if err != nil {
			t.Fatalf("Normalize(%q) failed: %v", tc.in, err)
		}
		got := recs[0].Nascimento
		switch {
		case tc.want == nil && got != nil:
			t.Errorf("nascimento(%q) = %v, want null", tc.in, got)
		case tc.want != nil && (got == nil || !got.Equal(*tc.want)):
			t.Errorf("nascimento(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNormalize_EligibilityFlag(t *testing.T) {
	cases := []struct {
		in   string
		want *int
	}{
		{"True", ptrInt(1)},
		{"true", ptrInt(1)},
		{"False", ptrInt(0)},
		{"false", ptrInt(0)},
		{"1", ptrInt(1)},
		{"0", ptrInt(0)},
		{"yes", nil},
		{"", nil},
	}
	for _, tc := range cases {
		recs, _, err := testLogger().Normalize(table(
			[]string{"L1", "12345678909", "X", "", "", tc.in, ""},
		))
		if err != nil {
			t.Fatalf("Normalize(%q) failed: %v", tc.in, err)
		}
		got := recs[0].ElegivelCLT
		switch {
		case tc.want == nil && got != nil:
			t.Errorf("elegivel(%q) = %v, want null", tc.in, *got)
		case tc.want != nil && (got == nil || *got != *tc.want):
			t.Errorf("elegivel(%q) = %v, want %v", tc.in, got, *tc.want)
		}
	}
}

func TestNormalize_EmptyTokensBecomeNull(t *testing.T) {
	for _, token := range []string{"", "nan", "NaN", "None"} {
		recs, _, err := testLogger().Normalize(table(
			[]string{token, "12345678909", token, "", "", "", ""},
		))
		if err != nil {
			t.Fatalf("Normalize failed: %v", err)
		}
		if recs[0].Nome != nil {
			t.Errorf("nome(%q) = %v, want null", token, *recs[0].Nome)
		}
		if recs[0].Lote != nil {
			t.Errorf("lote(%q) = %v, want null", token, *recs[0].Lote)
		}
	}
}

// A formatted CPF together with an out-of-range income in one row.
func TestNormalize_MessyKeyAndOverflowIncome(t *testing.T) {
	recs, _, err := testLogger().Normalize(&RawTable{
		Headers: []string{"CPF", "Valor Renda"},
		Rows:    [][]string{{"123.456.789-09", "150000000"}},
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].CPF != "12345678909" {
		t.Errorf("cpf = %q, want 12345678909", recs[0].CPF)
	}
	if recs[0].Renda != nil {
		t.Errorf("renda = %v, want null", *recs[0].Renda)
	}
}

// Normalizing the normalizer's own output must be a no-op.
func TestNormalize_Idempotent(t *testing.T) {
	n := testLogger()
	first, _, err := n.Normalize(table(
		[]string{"L1", "123.456.789-09", "Maria", "13/02/1990", "1234.56", "True", "x"},
		[]string{"", "22222222222", "nan", "junkdate", "150000000", "maybe", "y"},
		[]string{"L3", "222.222.222-22", "José", "01/01/2000", "10.5", "False", "z"},
	))
	if err != nil {
		t.Fatalf("first Normalize failed: %v", err)
	}

	second, metrics, err := n.Normalize(TableFromRecords(first))
	if err != nil {
		t.Fatalf("second Normalize failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("normalization is not a fixed point:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if metrics.DuplicatesRemoved != 0 {
		t.Errorf("second pass removed %d duplicates, want 0", metrics.DuplicatesRemoved)
	}
	if metrics.InputRows != metrics.OutputRows {
		t.Errorf("second pass dropped rows: %+v", metrics)
	}
}

func ptr(f float64) *float64 { return &f }
func ptrInt(i int) *int      { return &i }

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}
