package constants

// Canonical record schema for consulta_dia_clt. Every normalized row carries
// exactly these columns, in this order. The key identifier is cpf.
var CanonicalColumns = []string{
	"lote", "cpf", "matricula", "nome", "nascimento", "data_admissao",
	"renda", "valor_base_margem", "valor_margem_disponivel", "valor_parcela_clt",
	"cnpj_empresa", "elegivel_clt", "cnae", "erro_simulacao", "data_criacao",
	"data_modificacao", "categoria_trabalhador", "sexo", "nome_empregador",
	"nome_mae", "profissao", "cnae_descricao", "emprestimos_legados",
	"emprestimos_ativos_suspensos", "banco_clt", "prazo_maximo_clt",
	"valor_liberado_clt", "plataforma_id", "manychat_id", "disparo_lote",
	"manychat_key", "simulado",
}

// HeaderRename maps source spreadsheet headers to canonical column names.
// Unmapped headers are dropped during normalization.
var HeaderRename = map[string]string{
	"Lote":                             "lote",
	"CPF":                              "cpf",
	"Matrícula":                        "matricula",
	"Nome":                             "nome",
	"Data Nascimento":                  "nascimento",
	"Data Admissão":                    "data_admissao",
	"Valor Renda":                      "renda",
	"Valor Base Margem":                "valor_base_margem",
	"Valor Margem Disponível":          "valor_margem_disponivel",
	"Valor Máximo Prestação":           "valor_parcela_clt",
	"CNPJ Empresa":                     "cnpj_empresa",
	"Elegível":                         "elegivel_clt",
	"CNAE":                             "cnae",
	"Erro":                             "erro_simulacao",
	"Data Criação":                     "data_criacao",
	"Data Modificação":                 "data_modificacao",
	"Código Categoria Trabalhador":     "categoria_trabalhador",
	"Sexo":                             "sexo",
	"Nome Empregador":                  "nome_empregador",
	"Nome Mãe":                         "nome_mae",
	"CBO Descrição":                    "profissao",
	"CNAE Descrição":                   "cnae_descricao",
	"Empréstimos Legados":              "emprestimos_legados",
	"Qtd Empréstimos Ativos Suspensos": "emprestimos_ativos_suspensos",
	"Prazo Máximo":                     "prazo_maximo_clt",
	"Valor Liberado":                   "valor_liberado_clt",
}

// DecimalColumns are monetary columns stored as DECIMAL(10,2); values whose
// absolute value exceeds DecimalLimit are nulled instead of rejected.
var DecimalColumns = []string{
	"renda", "valor_base_margem", "valor_margem_disponivel",
	"valor_parcela_clt", "valor_liberado_clt",
}

// DateColumns are parsed with day-first precedence; unparseable values
// become null.
var DateColumns = []string{
	"nascimento", "data_admissao", "data_criacao", "data_modificacao",
}

const (
	// DecimalLimit guards DECIMAL(10,2) columns against overflow.
	DecimalLimit = 99999999.99

	// CPFWidth is the zero-padded width of a normalized key identifier.
	CPFWidth = 11

	// JobsTable holds one row per schedulable ingestion job.
	JobsTable = "controle_consultas"

	// RecordsTable holds the upserted subject-level records.
	RecordsTable = "consulta_dia_clt"
)
