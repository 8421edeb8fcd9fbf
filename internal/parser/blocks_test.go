package parser

import (
	"testing"

	"planobra/internal/model"
)

func TestSegment_SplitsOnNumberedTitles(t *testing.T) {
	t.Parallel()

	s := NewBlockSegmenter(1, -1)
	blocks := s.Segment([][]string{
		{"5.1", "FUNDAÇÕES"},
		{"88309", "PEDREIRO COM ENCARGOS COMPLEMENTARES", "10"},
		{"88316", "SERVENTE COM ENCARGOS COMPLEMENTARES", "20"},
		{},
		{"5.2", "ALVENARIA"},
		{"87519", "ALVENARIA DE VEDAÇÃO DE BLOCOS CERÂMICOS", "35,5"},
	})

	if len(blocks) != 2 {
		t.Fatalf("want 2 blocks got %d", len(blocks))
	}
	if blocks[0].Title != "5.1" || blocks[1].Title != "5.2" {
		t.Fatalf("unexpected titles: %q %q", blocks[0].Title, blocks[1].Title)
	}
	if len(blocks[0].Rows) != 2 || len(blocks[1].Rows) != 1 {
		t.Fatalf("unexpected row counts: %d %d", len(blocks[0].Rows), len(blocks[1].Rows))
	}
}

func TestSegment_RowNosTrackOriginalPosition(t *testing.T) {
	t.Parallel()

	s := NewBlockSegmenter(1, -1)
	blocks := s.Segment([][]string{
		{"1", ""},
		{},
		{"88309", "PEDREIRO COM ENCARGOS COMPLEMENTARES", "10"},
	})

	if len(blocks) != 1 || len(blocks[0].RowNos) != 1 {
		t.Fatalf("unexpected blocks: %+v", blocks)
	}
	if blocks[0].RowNos[0] != 2 {
		t.Fatalf("want rowno=2 got=%d", blocks[0].RowNos[0])
	}
}

func TestSegment_DropsRowsBeforeFirstTitle(t *testing.T) {
	t.Parallel()

	s := NewBlockSegmenter(1, -1)
	blocks := s.Segment([][]string{
		{"88309", "PEDREIRO COM ENCARGOS COMPLEMENTARES", "10"},
		{"1", "SERVIÇOS INICIAIS"},
		{"73992", "LOCAÇÃO CONVENCIONAL DE OBRA COM GABARITO", "1"},
	})

	if len(blocks) != 1 {
		t.Fatalf("want 1 block got %d", len(blocks))
	}
	if len(blocks[0].Rows) != 1 {
		t.Fatalf("want 1 row got %d", len(blocks[0].Rows))
	}
}

func TestIsBlockHeader_LongDescriptionIsData(t *testing.T) {
	t.Parallel()

	s := NewBlockSegmenter(1, -1)
	if s.isBlockHeader([]string{"88309", "PEDREIRO COM ENCARGOS COMPLEMENTARES", "10"}) {
		t.Fatalf("data row misread as block header")
	}
	if !s.isBlockHeader([]string{"5.1.1", "ALVENARIA"}) {
		t.Fatalf("short-title row not recognized as header")
	}
	if s.isBlockHeader([]string{"TOTAL", ""}) {
		t.Fatalf("non-numeric first cell must not be a header")
	}
}

func TestClassifyRow(t *testing.T) {
	t.Parallel()

	s := NewBlockSegmenter(1, 2)

	if got := s.ClassifyRow([]string{"COMPOSIÇÃO", "ALVENARIA DE VEDAÇÃO"}); got != model.RowKindComposition {
		t.Fatalf("want composition got %v", got)
	}
	if got := s.ClassifyRow([]string{"COMPOSIÇÃO AUXILIAR", "ARGAMASSA"}); got != model.RowKindAuxiliaryComposition {
		t.Fatalf("want auxiliary got %v", got)
	}
	if got := s.ClassifyRow([]string{"INSUMO", "CIMENTO"}); got != model.RowKindMaterial {
		t.Fatalf("want material got %v", got)
	}
	if got := s.ClassifyRow([]string{"87519", "ALVENARIA", "SINAPI"}); got != model.RowKindComposition {
		t.Fatalf("want composition via bank cell got %v", got)
	}
	if got := s.ClassifyRow([]string{"87519", "ALVENARIA", ""}); got != model.RowKindOther {
		t.Fatalf("want other got %v", got)
	}
}
