package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AUX01-gsconsig/Consultas-CLT/constants"
	"github.com/AUX01-gsconsig/Consultas-CLT/internal/common"
	"github.com/AUX01-gsconsig/Consultas-CLT/internal/entity"
)

// WriteResult reports one batched upsert.
type WriteResult struct {
	Sent    int `json:"enviados"`
	New     int `json:"novos"`
	Updated int `json:"atualizados"`
}

// RecordRepository is the merge-upsert writer for consulta_dia_clt.
type RecordRepository interface {
	// Upsert writes the batch keyed on cpf, overwriting every non-key
	// column on conflict. The whole batch commits or nothing does; any
	// failure surfaces as a storage-stage error.
	Upsert(ctx context.Context, records []entity.Record) (WriteResult, error)
}

type recordRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewRecordRepository(db *sql.DB, log *slog.Logger) RecordRepository {
	if log == nil {
		log = slog.Default()
	}
	return &recordRepo{db: db, log: log}
}

// upsertQuery is built once: within-batch duplicates are already resolved by
// the normalizer, so a plain per-row ON CONFLICT update is safe.
var upsertQuery = buildUpsertQuery()

func buildUpsertQuery() string {
	cols := constants.CanonicalColumns
	placeholders := make([]string, len(cols))
	updates := make([]string, 0, len(cols)-1)
	for i, c := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if c != "cpf" {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (cpf) DO UPDATE SET %s",
		constants.RecordsTable,
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)
}

func (r *recordRepo) Upsert(ctx context.Context, records []entity.Record) (WriteResult, error) {
	r.log.Info("records.upsert.start", "batch_size", len(records))
	if len(records) == 0 {
		return WriteResult{}, nil
	}

	// Metrics pre-query: which keys already exist. It never gates the
	// write, but a failure here means connectivity is gone and the run
	// should fail as a storage error rather than report bogus counts.
	existing, err := r.existingKeys(ctx, records)
	if err != nil {
		r.log.Error("records.upsert.precheck_failed", "error", err)
		return WriteResult{}, common.NewStorageError("existing-key lookup failed", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return WriteResult{}, common.NewStorageError("begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertQuery)
	if err != nil {
		return WriteResult{}, common.NewStorageError("prepare upsert", err)
	}
	defer stmt.Close()

	for i := range records {
		if _, err := stmt.ExecContext(ctx, records[i].ColumnValues()...); err != nil {
			r.log.Error("records.upsert.row_failed", "cpf", records[i].CPF, "error", err)
			return WriteResult{}, common.NewStorageError("upsert row", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return WriteResult{}, common.NewStorageError("commit upsert", err)
	}

	res := WriteResult{Sent: len(records)}
	for i := range records {
		if _, ok := existing[records[i].CPF]; ok {
			res.Updated++
		} else {
			res.New++
		}
	}

	r.log.Info("records.upsert.ok", "sent", res.Sent, "new", res.New, "updated", res.Updated)
	return res, nil
}

func (r *recordRepo) existingKeys(ctx context.Context, records []entity.Record) (map[string]struct{}, error) {
	placeholders := make([]string, len(records))
	args := make([]any, len(records))
	for i := range records {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = records[i].CPF
	}

	query := fmt.Sprintf("SELECT cpf FROM %s WHERE cpf IN (%s)",
		constants.RecordsTable, strings.Join(placeholders, ", "))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	existing := make(map[string]struct{})
	for rows.Next() {
		var cpf string
		if err := rows.Scan(&cpf); err != nil {
			return nil, err
		}
		existing[cpf] = struct{}{}
	}
	return existing, rows.Err()
}
