package normalize

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/AUX01-gsconsig/Consultas-CLT/constants"
	"github.com/AUX01-gsconsig/Consultas-CLT/internal/common"
	"github.com/AUX01-gsconsig/Consultas-CLT/internal/entity"
)

// Normalizer converts a raw tabular artifact into canonical records:
// column mapping, key-identifier cleanup, row filtering, type coercion,
// deduplication. Deterministic: equal inputs produce equal outputs.
type Normalizer struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger}
}

// Day-first layouts take precedence; ISO forms are fallbacks so normalized
// output re-parses cleanly.
var dateLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// Normalize runs the full cleaning sequence over the table and returns the
// canonical records with per-pass metrics. Rows without a valid CPF are
// dropped entirely. Within-table CPF duplicates keep the last occurrence.
func (n *Normalizer) Normalize(table *RawTable) ([]entity.Record, Metrics, error) {
	if table == nil {
		return nil, Metrics{}, common.NewTransformError("nil table", common.ErrArtifactEmpty)
	}

	n.logger.Info("normalize.start", "input_rows", len(table.Rows))

	// Column mapping: source header -> canonical column index. Headers
	// outside the rename map are dropped; canonical columns absent from the
	// input simply have no source index and materialize as null.
	colIndex := make(map[string]int, len(constants.CanonicalColumns))
	for i, h := range table.Headers {
		canonical, ok := constants.HeaderRename[strings.TrimSpace(h)]
		if !ok {
			// Already-canonical headers pass through, so normalized output
			// is a fixed point of normalization.
			if isCanonical(strings.TrimSpace(h)) {
				canonical = strings.TrimSpace(h)
			} else {
				continue
			}
		}
		if _, dup := colIndex[canonical]; !dup {
			colIndex[canonical] = i
		}
	}

	metrics := Metrics{InputRows: len(table.Rows)}

	records := make([]entity.Record, 0, len(table.Rows))
	for _, row := range table.Rows {
		cell := func(col string) (string, bool) {
			i, ok := colIndex[col]
			if !ok {
				return "", false
			}
			return table.Cell(row, i), true
		}

		raw, _ := cell("cpf")
		cpf, ok := NormalizeCPF(raw)
		if !ok {
			continue
		}

		rec := entity.Record{CPF: cpf}
		rec.Lote = textField(cell, "lote")
		rec.Matricula = textField(cell, "matricula")
		rec.Nome = textField(cell, "nome")
		rec.Nascimento = dateField(cell, "nascimento")
		rec.DataAdmissao = dateField(cell, "data_admissao")
		rec.Renda = decimalField(cell, "renda")
		rec.ValorBaseMargem = decimalField(cell, "valor_base_margem")
		rec.ValorMargemDisponivel = decimalField(cell, "valor_margem_disponivel")
		rec.ValorParcelaCLT = decimalField(cell, "valor_parcela_clt")
		rec.CNPJEmpresa = textField(cell, "cnpj_empresa")
		rec.ElegivelCLT = flagField(cell, "elegivel_clt")
		rec.CNAE = textField(cell, "cnae")
		rec.ErroSimulacao = textField(cell, "erro_simulacao")
		rec.DataCriacao = dateField(cell, "data_criacao")
		rec.DataModificacao = dateField(cell, "data_modificacao")
		rec.CategoriaTrabalhador = textField(cell, "categoria_trabalhador")
		rec.Sexo = textField(cell, "sexo")
		rec.NomeEmpregador = textField(cell, "nome_empregador")
		rec.NomeMae = textField(cell, "nome_mae")
		rec.Profissao = textField(cell, "profissao")
		rec.CNAEDescricao = textField(cell, "cnae_descricao")
		rec.EmprestimosLegados = textField(cell, "emprestimos_legados")
		rec.EmprestimosAtivosSuspensos = textField(cell, "emprestimos_ativos_suspensos")
		rec.BancoCLT = textField(cell, "banco_clt")
		rec.PrazoMaximoCLT = textField(cell, "prazo_maximo_clt")
		rec.ValorLiberadoCLT = decimalField(cell, "valor_liberado_clt")
		rec.PlataformaID = textField(cell, "plataforma_id")
		rec.ManychatID = textField(cell, "manychat_id")
		rec.DisparoLote = textField(cell, "disparo_lote")
		rec.ManychatKey = textField(cell, "manychat_key")
		rec.Simulado = textField(cell, "simulado")

		records = append(records, rec)
	}

	deduped, removed := dedupeByCPF(records)
	metrics.DuplicatesRemoved = removed
	metrics.OutputRows = len(deduped)
	if removed > 0 {
		n.logger.Warn("normalize.dedup",
			"removed", removed, "before", len(records), "after", len(deduped))
	}

	if err := ValidateRecords(deduped); err != nil {
		return nil, Metrics{}, common.NewTransformError("canonical schema check failed", err)
	}

	n.logger.Info("normalize.done",
		"input_rows", metrics.InputRows,
		"output_rows", metrics.OutputRows,
		"duplicates_removed", metrics.DuplicatesRemoved)
	return deduped, metrics, nil
}

// NormalizeCPF strips non-digit characters and left-pads to 11 digits.
// Empty values, the literal tokens nan/none/null (any case), values with no
// digits at all, and the all-zeros identifier are invalid.
func NormalizeCPF(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	switch strings.ToLower(v) {
	case "", "nan", "none", "null":
		return "", false
	}

	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", false
	}
	if len(digits) < constants.CPFWidth {
		digits = strings.Repeat("0", constants.CPFWidth-len(digits)) + digits
	}
	if digits == strings.Repeat("0", constants.CPFWidth) {
		return "", false
	}
	return digits, true
}

// dedupeByCPF keeps the last occurrence of each CPF, preserving the input
// order of the kept rows.
func dedupeByCPF(records []entity.Record) ([]entity.Record, int) {
	seen := make(map[string]struct{}, len(records))
	kept := make([]entity.Record, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		if _, dup := seen[records[i].CPF]; dup {
			continue
		}
		seen[records[i].CPF] = struct{}{}
		kept = append(kept, records[i])
	}
	// restore input order
	for l, r := 0, len(kept)-1; l < r; l, r = l+1, r-1 {
		kept[l], kept[r] = kept[r], kept[l]
	}
	return kept, len(records) - len(kept)
}

func isCanonical(name string) bool {
	for _, c := range constants.CanonicalColumns {
		if c == name {
			return true
		}
	}
	return false
}

// textField normalizes empty strings and the sentinel tokens produced by
// spreadsheet tooling to null.
func textField(cell func(string) (string, bool), col string) *string {
	raw, ok := cell(col)
	if !ok {
		return nil
	}
	v := strings.TrimSpace(raw)
	switch v {
	case "", "nan", "NaN", "None":
		return nil
	}
	return &v
}

// dateField parses with day-first precedence and truncates to a date.
// Unparseable values become null, never an error.
func dateField(cell func(string) (string, bool), col string) *time.Time {
	raw, ok := cell(col)
	if !ok {
		return nil
	}
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, v)
		if err != nil {
			continue
		}
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &d
	}
	return nil
}

// decimalField coerces to a number and nulls values that would overflow a
// DECIMAL(10,2) column.
func decimalField(cell func(string) (string, bool), col string) *float64 {
	raw, ok := cell(col)
	if !ok {
		return nil
	}
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	if f > constants.DecimalLimit || f < -constants.DecimalLimit {
		return nil
	}
	return &f
}

// flagField maps the eligibility column to 1/0. Accepts true/false in any
// case plus the already-normalized 1/0; anything else is null.
func flagField(cell func(string) (string, bool), col string) *int {
	raw, ok := cell(col)
	if !ok {
		return nil
	}
	var flag int
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1":
		flag = 1
	case "false", "0":
		flag = 0
	default:
		return nil
	}
	return &flag
}
