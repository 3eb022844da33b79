package repository

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// openTestDB creates an in-memory SQLite with the production table shapes.
// The repositories emit portable SQL, so the same statements that run on
// Postgres in production run here unchanged.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// in-memory DBs are per-connection
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	const schema = `
	CREATE TABLE controle_consultas (
		id INTEGER PRIMARY KEY,
		titulo_consulta TEXT NOT NULL,
		banco TEXT,
		quantidade INTEGER,
		status TEXT,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		data_criacao TEXT
	);
	CREATE TABLE consulta_dia_clt (
		lote TEXT,
		cpf TEXT PRIMARY KEY,
		matricula TEXT,
		nome TEXT,
		nascimento TEXT,
		data_admissao TEXT,
		renda REAL,
		valor_base_margem REAL,
		valor_margem_disponivel REAL,
		valor_parcela_clt REAL,
		cnpj_empresa TEXT,
		elegivel_clt INTEGER,
		cnae TEXT,
		erro_simulacao TEXT,
		data_criacao TEXT,
		data_modificacao TEXT,
		categoria_trabalhador TEXT,
		sexo TEXT,
		nome_empregador TEXT,
		nome_mae TEXT,
		profissao TEXT,
		cnae_descricao TEXT,
		emprestimos_legados TEXT,
		emprestimos_ativos_suspensos TEXT,
		banco_clt TEXT,
		prazo_maximo_clt TEXT,
		valor_liberado_clt REAL,
		plataforma_id TEXT,
		manychat_id TEXT,
		disparo_lote TEXT,
		manychat_key TEXT,
		simulado TEXT
	);`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func seedJob(t *testing.T, db *sql.DB, id int64, title string, status any, attempts int) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO controle_consultas (id, titulo_consulta, status, attempt_count, data_criacao)
		VALUES ($1, $2, $3, $4, '2026-08-01 10:00:00')`,
		id, title, status, attempts)
	if err != nil {
		t.Fatalf("seed job %d: %v", id, err)
	}
}
