package parser

import (
	"errors"
	"testing"
)

func TestResolve_BudgetExactHeaders(t *testing.T) {
	t.Parallel()

	cols, err := NewBudgetColumnResolver().Resolve([]string{"ITEM", "CÓDIGO", "DESCRIÇÃO", "UND", "QUANTIDADE"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cols.Col(FieldCode) != 1 || cols.Col(FieldDescription) != 2 || cols.Col(FieldQuantity) != 4 {
		t.Fatalf("unexpected columns: %v", cols)
	}
}

func TestResolve_CaseAndWhitespaceInvariant(t *testing.T) {
	t.Parallel()

	cols, err := NewBudgetColumnResolver().Resolve([]string{" código ", "descrição\ndo serviço", "  Quant. "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cols.Col(FieldCode) != 0 || cols.Col(FieldDescription) != 1 || cols.Col(FieldQuantity) != 2 {
		t.Fatalf("unexpected columns: %v", cols)
	}
}

func TestResolve_KeywordFallback(t *testing.T) {
	t.Parallel()

	cols, err := NewBudgetColumnResolver().Resolve([]string{"COD. SINAPI", "DISCRIMINAÇÃO DOS SERVIÇOS", "QTDE TOTAL"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cols.Col(FieldCode) != 0 || cols.Col(FieldDescription) != 1 || cols.Col(FieldQuantity) != 2 {
		t.Fatalf("unexpected columns: %v", cols)
	}
}

func TestResolve_MissingColumnIsSchemaError(t *testing.T) {
	t.Parallel()

	_, err := NewBudgetColumnResolver().Resolve([]string{"CÓDIGO", "DESCRIÇÃO", "PREÇO UNITÁRIO"})
	if err == nil {
		t.Fatalf("expected schema error")
	}
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected *SchemaError, got %T", err)
	}
	if len(schemaErr.Missing) != 1 || schemaErr.Missing[0] != FieldQuantity {
		t.Fatalf("unexpected missing fields: %v", schemaErr.Missing)
	}
}

func TestProbeHeaderRow_OffsetZero(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		{"CÓDIGO", "DESCRIÇÃO", "QUANTIDADE"},
		{"88309", "PEDREIRO", "10"},
	}
	offset, cols, err := NewBudgetColumnResolver().ProbeHeaderRow(rows, 15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if offset != 0 || cols.Col(FieldCode) != 0 {
		t.Fatalf("unexpected probe: offset=%d cols=%v", offset, cols)
	}
}

func TestProbeHeaderRow_SkipsPreamble(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		{"PREFEITURA MUNICIPAL"},
		{"OBRA: ESCOLA MUNICIPAL"},
		{},
		{"CÓDIGO", "DESCRIÇÃO", "QUANTIDADE"},
		{"88309", "PEDREIRO", "10"},
	}
	offset, cols, err := NewBudgetColumnResolver().ProbeHeaderRow(rows, 15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if offset != 3 {
		t.Fatalf("want offset=3 got=%d", offset)
	}
	if cols.Col(FieldQuantity) != 2 {
		t.Fatalf("unexpected quantity col: %d", cols.Col(FieldQuantity))
	}
}

func TestProbeHeaderRow_AllFail(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		{"apenas", "texto"},
		{"sem", "cabeçalho"},
	}
	_, _, err := NewBudgetColumnResolver().ProbeHeaderRow(rows, 15)
	if err == nil {
		t.Fatalf("expected error")
	}
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected *SchemaError, got %T", err)
	}
}

func TestResolve_ReferenceHeaders(t *testing.T) {
	t.Parallel()

	cols, err := NewReferenceColumnResolver().Resolve([]string{"CODIGO_COMPOSICAO", "DESCRICAO_ITEM", "TIPO_ITEM", "COEFICIENTE"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cols.Col(FieldCode) != 0 || cols.Col(FieldDescription) != 1 ||
		cols.Col(FieldItemType) != 2 || cols.Col(FieldCoefficient) != 3 {
		t.Fatalf("unexpected columns: %v", cols)
	}
}
