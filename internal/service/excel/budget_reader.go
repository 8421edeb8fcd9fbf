package excel

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"planobra/internal/model"
	"planobra/internal/parser"
)

// RowIssue 单行解析问题（跳过不中断）
type RowIssue struct {
	RowNo  int    `json:"rowNo"`
	Reason string `json:"reason"`
}

// BudgetReadOptions 预算表读取选项
type BudgetReadOptions struct {
	Sheet         string // 为空时取第一个 sheet
	MaxProbeRows  int    // 表头偏移探测上限，<=0 时取 15
	SegmentBlocks bool   // 是否按编号标题行切分分部
}

// BudgetResult 预算表读取结果
type BudgetResult struct {
	Lines        []model.BudgetLine    `json:"lines"`
	HeaderOffset int                   `json:"headerOffset"` // 探测到的表头行偏移
	BlockCount   int                   `json:"blockCount"`
	KindCounts   map[model.RowKind]int `json:"kindCounts"` // 行类别统计（仅分部路径）
	Skipped      []RowIssue            `json:"skipped"`
}

// BudgetReader 预算表读取器
type BudgetReader struct {
	file   *excelize.File
	fileID string
}

// NewBudgetReader 创建预算表读取器
func NewBudgetReader() *BudgetReader {
	return &BudgetReader{fileID: uuid.New().String()}
}

// FileID 本次读取的文件标识
func (r *BudgetReader) FileID() string {
	return r.fileID
}

// LoadFile 加载 Excel 文件
func (r *BudgetReader) LoadFile(reader io.Reader) error {
	file, err := excelize.OpenReader(reader)
	if err != nil {
		return fmt.Errorf("failed to open excel: %w", err)
	}
	r.file = file
	return nil
}

// Close 关闭文件
func (r *BudgetReader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// Read 提取规范化预算行
// 表头偏移不可预知：在前 MaxProbeRows 行内逐行探测，列全部解析成功即认定表头。
// 下游只接触规范字段，不再接触原始列名
func (r *BudgetReader) Read(opts BudgetReadOptions) (*BudgetResult, error) {
	if r.file == nil {
		return nil, errors.New("no file loaded")
	}

	sheet := opts.Sheet
	if sheet == "" {
		sheets := r.file.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("empty workbook")
		}
		sheet = sheets[0]
	}

	rows, err := r.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s 为空", sheet)
	}

	maxProbe := opts.MaxProbeRows
	if maxProbe <= 0 {
		maxProbe = 15
	}

	resolver := parser.NewBudgetColumnResolver()
	offset, cols, err := resolver.ProbeHeaderRow(rows, maxProbe)
	if err != nil {
		return nil, err
	}

	result := &BudgetResult{
		HeaderOffset: offset,
		KindCounts:   make(map[model.RowKind]int),
	}

	dataRows := rows[offset+1:]
	if opts.SegmentBlocks {
		r.readBlocks(dataRows, offset+1, cols, result)
	} else {
		r.readFlat(dataRows, offset+1, cols, result)
	}

	return result, nil
}

// readFlat 不分部：逐行提取
func (r *BudgetReader) readFlat(rows [][]string, firstRowNo int, cols parser.ColumnMap, result *BudgetResult) {
	for i, row := range rows {
		rowNo := firstRowNo + i + 1
		line, issue := extractLine(row, rowNo, cols, "")
		if issue != nil {
			if issue.Reason != "" {
				result.Skipped = append(result.Skipped, *issue)
			}
			continue
		}
		result.Lines = append(result.Lines, *line)
	}
}

// readBlocks 分部路径：先按编号标题行切块，再逐块提取并附带分部编号
func (r *BudgetReader) readBlocks(rows [][]string, firstRowNo int, cols parser.ColumnMap, result *BudgetResult) {
	segmenter := parser.NewBlockSegmenter(cols.Col(parser.FieldDescription), -1)
	blocks := segmenter.Segment(rows)
	result.BlockCount = len(blocks)

	for _, block := range blocks {
		for i, row := range block.Rows {
			rowNo := firstRowNo + block.RowNos[i] + 1
			result.KindCounts[segmenter.ClassifyRow(row)]++

			line, issue := extractLine(row, rowNo, cols, block.Title)
			if issue != nil {
				if issue.Reason != "" {
					result.Skipped = append(result.Skipped, *issue)
				}
				continue
			}
			result.Lines = append(result.Lines, *line)
		}
	}
}

// extractLine 从单行提取预算行
// 三个规范字段都有值才算数据行；数量解析失败或非正时跳过并记录
func extractLine(row []string, rowNo int, cols parser.ColumnMap, blockID string) (*model.BudgetLine, *RowIssue) {
	code := strings.TrimSpace(cellAt(row, cols.Col(parser.FieldCode)))
	desc := strings.TrimSpace(cellAt(row, cols.Col(parser.FieldDescription)))
	qtyText := strings.TrimSpace(cellAt(row, cols.Col(parser.FieldQuantity)))

	if code == "" && desc == "" && qtyText == "" {
		return nil, &RowIssue{} // 空行，静默跳过
	}
	if code == "" || desc == "" || qtyText == "" {
		return nil, &RowIssue{RowNo: rowNo, Reason: "编码/描述/数量不完整"}
	}

	qty, err := parser.ParseDecimal(qtyText)
	if err != nil {
		return nil, &RowIssue{RowNo: rowNo, Reason: fmt.Sprintf("数量解析失败: %v", err)}
	}
	if qty <= 0 {
		return nil, &RowIssue{RowNo: rowNo, Reason: fmt.Sprintf("数量非正: %v", qty)}
	}

	return &model.BudgetLine{
		RowNo:       rowNo,
		Code:        code,
		Description: desc,
		Quantity:    qty,
		BlockID:     blockID,
	}, nil
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
