package importer

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"planobra/internal/config"
	"planobra/internal/store"
)

func testBusiness() config.BusinessConfig {
	return config.BusinessConfig{
		DailyHours:          8,
		CoefficientMode:     "hours_per_unit",
		FuzzyCutoff:         0.5,
		CodeWidth:           7,
		MaxHeaderProbeRows:  15,
		DefaultDeadlineDays: 180,
	}
}

func newTestCoordinator(t *testing.T) (*Coordinator, *store.Store) {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "planobra.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	return NewCoordinator(s, testBusiness()), s
}

func importTestReference(t *testing.T, c *Coordinator) {
	t.Helper()

	csv := strings.Join([]string{
		"CODIGO_COMPOSICAO;DESCRICAO_ITEM;TIPO_ITEM;COEFICIENTE",
		"88309;PEDREIRO COM ENCARGOS COMPLEMENTARES;MÃO DE OBRA;1,6",
		"88309;SERVENTE COM ENCARGOS COMPLEMENTARES;MÃO DE OBRA;0,8",
		"88309;AREIA MEDIA;INSUMO;2",
	}, "\n")

	report, err := c.ImportReference(strings.NewReader(csv), "sinapi.csv")
	if err != nil {
		t.Fatalf("failed to import reference: %v", err)
	}
	if report.ImportedRows != 3 {
		t.Fatalf("want 3 imported got %d", report.ImportedRows)
	}
	if report.TypeCounts["labor"] != 2 || report.TypeCounts["material"] != 1 {
		t.Fatalf("unexpected type counts: %v", report.TypeCounts)
	}
}

func budgetWorkbook(t *testing.T) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	rows := [][]interface{}{
		{"CÓDIGO", "DESCRIÇÃO", "QUANTIDADE"},
		{"88309", "ALVENARIA DE VEDAÇÃO", "10"},
		{"99999", "XXXXX WWWWW KKKKK", "5"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("failed to build cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("failed to set row: %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("failed to write workbook: %v", err)
	}
	return buf
}

func drainEvents(t *testing.T, ch <-chan ProgressEvent) []ProgressEvent {
	t.Helper()

	var events []ProgressEvent
	timeout := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("timed out draining events")
		}
	}
}

func TestGenerateSchedule_EndToEnd(t *testing.T) {
	t.Parallel()

	c, s := newTestCoordinator(t)
	importTestReference(t, c)

	events := drainEvents(t, c.GenerateSchedule(GenerateOptions{
		Filename:  "orcamento.xlsx",
		Budget:    budgetWorkbook(t),
		StartDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}))

	last := events[len(events)-1]
	if last.Type != "done" {
		t.Fatalf("want done got %q (%s)", last.Type, last.Message)
	}

	report, ok := last.Data.(*GenerateReport)
	if !ok {
		t.Fatalf("unexpected done payload: %T", last.Data)
	}
	if report.LinesTotal != 2 || report.LinesMatched != 1 || report.LinesUnmatched != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	// 两个人工工种 → 两条排期：16h=2 天 + 8h=1 天
	if report.EntriesEmitted != 2 || report.TotalDays != 3 {
		t.Fatalf("unexpected schedule: entries=%d days=%d", report.EntriesEmitted, report.TotalDays)
	}
	if report.DeadlineExceeded {
		t.Fatalf("deadline must not be exceeded")
	}

	// 未匹配行要有 warning 事件
	sawWarning := false
	for _, ev := range events {
		if ev.Type == "warning" {
			sawWarning = true
		}
	}
	if !sawWarning {
		t.Fatalf("expected warning for unmatched line")
	}

	// 结果已持久化
	saved, err := s.GetSchedule(report.ScheduleID)
	if err != nil {
		t.Fatalf("schedule not persisted: %v", err)
	}
	if len(saved.Entries) != 2 {
		t.Fatalf("want 2 persisted entries got %d", len(saved.Entries))
	}
	if saved.Entries[0].ProfessionalName != "PEDREIRO COM ENCARGOS COMPLEMENTARES" {
		t.Fatalf("unexpected professional: %q", saved.Entries[0].ProfessionalName)
	}
}

func TestGenerateSchedule_EmptyReferenceIsError(t *testing.T) {
	t.Parallel()

	c, _ := newTestCoordinator(t)

	events := drainEvents(t, c.GenerateSchedule(GenerateOptions{
		Filename:  "orcamento.xlsx",
		Budget:    budgetWorkbook(t),
		StartDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}))

	last := events[len(events)-1]
	if last.Type != "error" {
		t.Fatalf("want error got %q", last.Type)
	}
}

func TestGenerateSchedule_NoEmittedEntriesIsError(t *testing.T) {
	t.Parallel()

	c, _ := newTestCoordinator(t)

	// 参考库只有材料条目：预算行可匹配但无人工，排期为空
	csv := strings.Join([]string{
		"CODIGO_COMPOSICAO;DESCRICAO_ITEM;TIPO_ITEM;COEFICIENTE",
		"88309;AREIA MEDIA;INSUMO;2",
	}, "\n")
	if _, err := c.ImportReference(strings.NewReader(csv), "sinapi.csv"); err != nil {
		t.Fatalf("failed to import reference: %v", err)
	}

	events := drainEvents(t, c.GenerateSchedule(GenerateOptions{
		Filename:  "orcamento.xlsx",
		Budget:    budgetWorkbook(t),
		StartDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}))

	last := events[len(events)-1]
	if last.Type != "error" {
		t.Fatalf("want error got %q", last.Type)
	}
}
