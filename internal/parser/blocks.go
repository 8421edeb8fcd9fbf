package parser

import (
	"strings"
	"unicode"

	"planobra/internal/model"
)

// blockTitleMaxDescLen 分部标题行的描述长度上限
// 标题行（如 "5.1.1 ALVENARIA"）的描述格通常为空或很短，数据行则是完整的服务描述
const blockTitleMaxDescLen = 20

// BlockSegmenter 分部切分器：把层级化预算表按编号标题行切成分部
type BlockSegmenter struct {
	descCol int // 描述列下标
	bankCol int // 来源库列下标（可为 -1）
}

// NewBlockSegmenter 创建分部切分器
func NewBlockSegmenter(descCol, bankCol int) *BlockSegmenter {
	return &BlockSegmenter{descCol: descCol, bankCol: bankCol}
}

// Segment 切分预算行
// 全空行丢弃；首个标题行之前的数据行丢弃；其余行归入当前打开的分部
func (s *BlockSegmenter) Segment(rows [][]string) []model.Block {
	blocks := make([]model.Block, 0)
	var current *model.Block

	for i, row := range rows {
		if isBlankRow(row) {
			continue
		}

		if s.isBlockHeader(row) {
			blocks = append(blocks, model.Block{
				Title: strings.TrimSpace(firstCell(row)),
				Rows:  [][]string{},
			})
			current = &blocks[len(blocks)-1]
			continue
		}

		if current == nil {
			// 尚未出现任何分部标题，丢弃
			continue
		}
		current.Rows = append(current.Rows, row)
		current.RowNos = append(current.RowNos, i)
	}

	return blocks
}

// isBlockHeader 标题行判定：首格非空、以数字开头，且描述格为空或短于阈值
func (s *BlockSegmenter) isBlockHeader(row []string) bool {
	first := strings.TrimSpace(firstCell(row))
	if first == "" {
		return false
	}
	r := []rune(first)
	if !unicode.IsDigit(r[0]) {
		return false
	}

	desc := strings.TrimSpace(cellAt(row, s.descCol))
	return desc == "" || len([]rune(desc)) < blockTitleMaxDescLen
}

// ClassifyRow 行类别判定
// 依次检查首格与描述格（不分大小写、不分重音）中的类别关键词；
// 都没有时退回检查来源库格是否带已知数据库标记
func (s *BlockSegmenter) ClassifyRow(row []string) model.RowKind {
	probe := Normalize(firstCell(row)) + " " + Normalize(cellAt(row, s.descCol))

	if strings.Contains(probe, "composicao") {
		if strings.Contains(probe, "auxiliar") {
			return model.RowKindAuxiliaryComposition
		}
		return model.RowKindComposition
	}
	if strings.Contains(probe, "insumo") {
		return model.RowKindMaterial
	}

	if s.bankCol >= 0 {
		bank := Normalize(cellAt(row, s.bankCol))
		if ContainsAny(bank, []string{"sinapi", "sicro", "orse"}) {
			return model.RowKindComposition
		}
	}

	return model.RowKindOther
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func firstCell(row []string) string {
	return cellAt(row, 0)
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
