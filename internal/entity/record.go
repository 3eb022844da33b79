package entity

import (
	"time"
)

// Record is one normalized subject-level row destined for consulta_dia_clt,
// keyed by CPF. Nil pointers persist as NULL. Instances are built per
// pipeline run by the normalizer and are not retained beyond the upsert.
type Record struct {
	Lote                       *string    `json:"lote"`
	CPF                        string     `json:"cpf"`
	Matricula                  *string    `json:"matricula"`
	Nome                       *string    `json:"nome"`
	Nascimento                 *time.Time `json:"nascimento"`
	DataAdmissao               *time.Time `json:"data_admissao"`
	Renda                      *float64   `json:"renda"`
	ValorBaseMargem            *float64   `json:"valor_base_margem"`
	ValorMargemDisponivel      *float64   `json:"valor_margem_disponivel"`
	ValorParcelaCLT            *float64   `json:"valor_parcela_clt"`
	CNPJEmpresa                *string    `json:"cnpj_empresa"`
	ElegivelCLT                *int       `json:"elegivel_clt"`
	CNAE                       *string    `json:"cnae"`
	ErroSimulacao              *string    `json:"erro_simulacao"`
	DataCriacao                *time.Time `json:"data_criacao"`
	DataModificacao            *time.Time `json:"data_modificacao"`
	CategoriaTrabalhador       *string    `json:"categoria_trabalhador"`
	Sexo                       *string    `json:"sexo"`
	NomeEmpregador             *string    `json:"nome_empregador"`
	NomeMae                    *string    `json:"nome_mae"`
	Profissao                  *string    `json:"profissao"`
	CNAEDescricao              *string    `json:"cnae_descricao"`
	EmprestimosLegados         *string    `json:"emprestimos_legados"`
	EmprestimosAtivosSuspensos *string    `json:"emprestimos_ativos_suspensos"`
	BancoCLT                   *string    `json:"banco_clt"`
	PrazoMaximoCLT             *string    `json:"prazo_maximo_clt"`
	ValorLiberadoCLT           *float64   `json:"valor_liberado_clt"`
	PlataformaID               *string    `json:"plataforma_id"`
	ManychatID                 *string    `json:"manychat_id"`
	DisparoLote                *string    `json:"disparo_lote"`
	ManychatKey                *string    `json:"manychat_key"`
	Simulado                   *string    `json:"simulado"`
}

// ColumnValues returns the record's values in constants.CanonicalColumns
// order, with dates flattened to DATE strings for the driver.
func (r *Record) ColumnValues() []any {
	return []any{
		nullableStr(r.Lote),
		r.CPF,
		nullableStr(r.Matricula),
		nullableStr(r.Nome),
		nullableDate(r.Nascimento),
		nullableDate(r.DataAdmissao),
		nullableFloat(r.Renda),
		nullableFloat(r.ValorBaseMargem),
		nullableFloat(r.ValorMargemDisponivel),
		nullableFloat(r.ValorParcelaCLT),
		nullableStr(r.CNPJEmpresa),
		nullableInt(r.ElegivelCLT),
		nullableStr(r.CNAE),
		nullableStr(r.ErroSimulacao),
		nullableDate(r.DataCriacao),
		nullableDate(r.DataModificacao),
		nullableStr(r.CategoriaTrabalhador),
		nullableStr(r.Sexo),
		nullableStr(r.NomeEmpregador),
		nullableStr(r.NomeMae),
		nullableStr(r.Profissao),
		nullableStr(r.CNAEDescricao),
		nullableStr(r.EmprestimosLegados),
		nullableStr(r.EmprestimosAtivosSuspensos),
		nullableStr(r.BancoCLT),
		nullableStr(r.PrazoMaximoCLT),
		nullableFloat(r.ValorLiberadoCLT),
		nullableStr(r.PlataformaID),
		nullableStr(r.ManychatID),
		nullableStr(r.DisparoLote),
		nullableStr(r.ManychatKey),
		nullableStr(r.Simulado),
	}
}

func nullableStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullableFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullableDate(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.Format("2006-01-02")
}
