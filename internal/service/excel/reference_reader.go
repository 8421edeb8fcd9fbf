package excel

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"planobra/internal/model"
	"planobra/internal/parser"
)

// ReferenceFormat 参考库文件格式
type ReferenceFormat string

const (
	ReferenceFormatCSV  ReferenceFormat = "csv"
	ReferenceFormatXLSX ReferenceFormat = "xlsx"
)

// ReferenceReadOptions 参考库读取选项
type ReferenceReadOptions struct {
	Format       ReferenceFormat // 为空时按文件名后缀判定
	Sheet        string          // 仅 xlsx：为空时取第一个 sheet
	MaxProbeRows int             // 表头偏移探测上限，<=0 时取 15
}

// ReferenceResult 参考库读取结果
type ReferenceResult struct {
	Entries      []model.ReferenceEntry `json:"entries"`
	HeaderOffset int                    `json:"headerOffset"`
	TotalRows    int                    `json:"totalRows"` // 表头之后的数据行数（含跳过行）
	Skipped      []RowIssue             `json:"skipped"`
}

// ReferenceReader 参考库读取器：CSV（逗号/分号）与 xlsx 两种来源走同一套列解析
type ReferenceReader struct{}

// NewReferenceReader 创建参考库读取器
func NewReferenceReader() *ReferenceReader {
	return &ReferenceReader{}
}

// DetectFormat 按文件名后缀判定格式，未知后缀按 CSV 处理
func DetectFormat(filename string) ReferenceFormat {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls") {
		return ReferenceFormatXLSX
	}
	return ReferenceFormatCSV
}

// Read 读取参考库文件并提取规范化条目
func (r *ReferenceReader) Read(reader io.Reader, opts ReferenceReadOptions) (*ReferenceResult, error) {
	var rows [][]string
	var err error

	switch opts.Format {
	case ReferenceFormatXLSX:
		rows, err = readWorkbookRows(reader, opts.Sheet)
	case ReferenceFormatCSV, "":
		rows, err = readCSVRows(reader)
	default:
		return nil, fmt.Errorf("unsupported reference format: %s", opts.Format)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("参考库文件为空")
	}

	maxProbe := opts.MaxProbeRows
	if maxProbe <= 0 {
		maxProbe = 15
	}

	resolver := parser.NewReferenceColumnResolver()
	offset, cols, err := resolver.ProbeHeaderRow(rows, maxProbe)
	if err != nil {
		return nil, err
	}

	result := &ReferenceResult{HeaderOffset: offset}
	for i, row := range rows[offset+1:] {
		rowNo := offset + i + 2 // 1 起的原始行号
		result.TotalRows++

		entry, issue := extractReferenceEntry(row, rowNo, cols)
		if issue != nil {
			if issue.Reason != "" {
				result.Skipped = append(result.Skipped, *issue)
			}
			continue
		}
		result.Entries = append(result.Entries, *entry)
	}

	if len(result.Entries) == 0 {
		return nil, errors.New("参考库未解析出任何有效条目")
	}
	return result, nil
}

// extractReferenceEntry 从单行提取参考库条目
// 编码与描述必填；系数列解析失败或非正时跳过并记录（人工条目缺系数无法计算工期）
func extractReferenceEntry(row []string, rowNo int, cols parser.ColumnMap) (*model.ReferenceEntry, *RowIssue) {
	code := strings.TrimSpace(cellAt(row, cols.Col(parser.FieldCode)))
	desc := strings.TrimSpace(cellAt(row, cols.Col(parser.FieldDescription)))
	typeText := strings.TrimSpace(cellAt(row, cols.Col(parser.FieldItemType)))
	coefText := strings.TrimSpace(cellAt(row, cols.Col(parser.FieldCoefficient)))

	if code == "" && desc == "" && typeText == "" && coefText == "" {
		return nil, &RowIssue{} // 空行，静默跳过
	}
	if code == "" || desc == "" {
		return nil, &RowIssue{RowNo: rowNo, Reason: "编码/描述不完整"}
	}

	coef, err := parser.ParseDecimal(coefText)
	if err != nil {
		return nil, &RowIssue{RowNo: rowNo, Reason: fmt.Sprintf("系数解析失败: %v", err)}
	}
	if coef <= 0 {
		return nil, &RowIssue{RowNo: rowNo, Reason: fmt.Sprintf("系数非正: %v", coef)}
	}

	return &model.ReferenceEntry{
		CompositionCode: code,
		ItemDescription: desc,
		ItemType:        model.ParseItemType(typeText),
		Coefficient:     coef,
	}, nil
}

// readWorkbookRows 读取 xlsx 的全部行
func readWorkbookRows(reader io.Reader, sheet string) ([][]string, error) {
	file, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel: %w", err)
	}
	defer file.Close()

	if sheet == "" {
		sheets := file.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("empty workbook")
		}
		sheet = sheets[0]
	}

	rows, err := file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

// readCSVRows 读取 CSV 的全部行，分隔符在逗号/分号间自动判定
// 巴西导出的 CSV 普遍用分号做分隔（逗号被小数占用）
func readCSVRows(reader io.Reader) ([][]string, error) {
	buffered := bufio.NewReader(reader)

	delim, err := sniffDelimiter(buffered)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(buffered)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return rows, nil
}

// sniffDelimiter 窥视首行，分号多于逗号时取分号
func sniffDelimiter(r *bufio.Reader) (rune, error) {
	peek, err := r.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return 0, fmt.Errorf("failed to read csv header: %w", err)
	}

	firstLine := string(peek)
	if idx := strings.IndexByte(firstLine, '\n'); idx >= 0 {
		firstLine = firstLine[:idx]
	}

	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		return ';', nil
	}
	return ',', nil
}
