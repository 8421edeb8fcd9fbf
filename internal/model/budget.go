package model

// BudgetLine 预算表中的一行（一个服务项）
// 由列解析器从原始行提取，提取后不再修改
type BudgetLine struct {
	RowNo       int     `json:"rowNo"`       // 原始表中的行号（1 起）
	Code        string  `json:"code"`        // 组成编码（原始形态，可能带多余的 0 / 标点）
	Description string  `json:"description"` // 服务描述
	Quantity    float64 `json:"quantity"`    // 数量，必须 > 0 才可参与排期
	BlockID     string  `json:"blockId"`     // 所属分部编号（如 "5.1.1"），未分部时为空
}

// RowKind 预算行类别
type RowKind string

const (
	RowKindComposition          RowKind = "composition"           // 组成（composição）
	RowKindAuxiliaryComposition RowKind = "auxiliary_composition" // 辅助组成（composição auxiliar）
	RowKindMaterial             RowKind = "material"              // 材料（insumo）
	RowKindOther                RowKind = "other"                 // 无法判定
)

// Block 预算表中的分部：一个编号标题行 + 其下属的数据行
// RowNos 与 Rows 平行，保存行在输入切片中的下标（0 起），用于回溯原始行号
type Block struct {
	Title  string     `json:"title"` // 标题行首格内容（如 "5.1.1"）
	Rows   [][]string `json:"rows"`
	RowNos []int      `json:"rowNos"`
}
