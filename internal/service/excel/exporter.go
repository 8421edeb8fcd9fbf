package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"planobra/internal/model"
)

// scheduleSheetName 排期导出工作表名
const scheduleSheetName = "Cronograma"

// scheduleHeaders 导出列头（葡语，按使用者习惯）
var scheduleHeaders = []string{
	"Item", "Bloco", "Código", "Serviço", "Profissional",
	"Quantidade", "Horas", "Dias", "Início", "Término",
}

// scheduleColWidths 列宽，与列头一一对应
var scheduleColWidths = []float64{8, 12, 16, 60, 30, 14, 10, 8, 12, 12}

// ScheduleExporter 排期导出器：同一份排期可导出为 xlsx 或 CSV
type ScheduleExporter struct{}

// NewScheduleExporter 创建排期导出器
func NewScheduleExporter() *ScheduleExporter {
	return &ScheduleExporter{}
}

// ExportXLSX 导出 Excel 工作簿，调用方负责 Close
func (e *ScheduleExporter) ExportXLSX(schedule *model.Schedule) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", scheduleSheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerRow := make([]interface{}, len(scheduleHeaders))
	for i, h := range scheduleHeaders {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(scheduleSheetName, "A1", &headerRow); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err == nil {
		lastCol, _ := excelize.ColumnNumberToName(len(scheduleHeaders))
		_ = f.SetCellStyle(scheduleSheetName, "A1", lastCol+"1", headerStyle)
	}

	for i, w := range scheduleColWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(scheduleSheetName, col, col, w)
	}

	for i, entry := range schedule.Entries {
		row := []interface{}{
			entry.Seq,
			entry.BlockID,
			entry.CompositionCode,
			entry.ServiceDescription,
			entry.ProfessionalName,
			entry.Quantity,
			entry.HoursRequired,
			entry.DurationDays,
			entry.StartDate.Format(model.DateLayout),
			entry.EndDate.Format(model.DateLayout),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(scheduleSheetName, cell, &row); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to write entry %d: %w", entry.Seq, err)
		}
	}

	summaryRow := len(schedule.Entries) + 3
	summary := fmt.Sprintf("Total: %d dias | Início: %s | Prazo: %d dias",
		schedule.TotalDays, schedule.StartDate.Format(model.DateLayout), schedule.DeadlineDays)
	if schedule.DeadlineExceeded {
		summary += " | PRAZO EXCEDIDO"
	}
	cell, _ := excelize.CoordinatesToCellName(1, summaryRow)
	_ = f.SetCellValue(scheduleSheetName, cell, summary)

	f.SetActiveSheet(0)
	return f, nil
}

// ExportCSV 导出 CSV（分号分隔，小数用逗号，与巴西本地表格软件默认一致）
func (e *ScheduleExporter) ExportCSV(w io.Writer, schedule *model.Schedule) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(scheduleHeaders); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, entry := range schedule.Entries {
		record := []string{
			strconv.Itoa(entry.Seq),
			entry.BlockID,
			entry.CompositionCode,
			entry.ServiceDescription,
			entry.ProfessionalName,
			formatBrazilianDecimal(entry.Quantity),
			formatBrazilianDecimal(entry.HoursRequired),
			strconv.Itoa(entry.DurationDays),
			entry.StartDate.Format(model.DateLayout),
			entry.EndDate.Format(model.DateLayout),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write entry %d: %w", entry.Seq, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// formatBrazilianDecimal 小数点改逗号，保留两位
func formatBrazilianDecimal(v float64) string {
	return strings.ReplaceAll(strconv.FormatFloat(v, 'f', 2, 64), ".", ",")
}
