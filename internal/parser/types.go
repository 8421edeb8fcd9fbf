package parser

import (
	"fmt"
	"strings"
)

// Field 表格的规范字段
type Field string

const (
	FieldCode        Field = "code"        // 组成编码
	FieldDescription Field = "description" // 服务/条目描述
	FieldQuantity    Field = "quantity"    // 数量

	// 参考库（SINAPI 口径）专有字段
	FieldItemType    Field = "item_type"   // 条目类型
	FieldCoefficient Field = "coefficient" // 消耗系数/产量
)

// fieldAlias 单个规范字段的列名别名规则
// Exact 按规范化后不分大小写全等比较；Keywords 按小写包含比较
type fieldAlias struct {
	Field    Field
	Exact    []string
	Keywords []string
}

// 预算表别名表：列名判定的唯一入口，禁止在调用点散落字符串探测
var budgetAliases = []fieldAlias{
	{
		Field: FieldCode,
		Exact: []string{
			"CÓDIGO", "CODIGO", "CÓD.", "COD.", "COD",
			"CÓDIGO DA COMPOSIÇÃO", "CODIGO DA COMPOSICAO", "CODIGO_COMPOSICAO",
		},
		Keywords: []string{"codigo", "cod"},
	},
	{
		Field: FieldDescription,
		Exact: []string{
			"DESCRIÇÃO", "DESCRICAO", "SERVIÇO", "SERVICO", "SERVIÇOS",
			"DESCRIÇÃO DO SERVIÇO", "DESCRICAO DO SERVICO",
			"DISCRIMINAÇÃO", "DISCRIMINACAO", "INSUMO",
		},
		Keywords: []string{"descri", "servic", "discrimina", "insumo"},
	},
	{
		Field: FieldQuantity,
		Exact: []string{
			"QUANTIDADE", "QUANT.", "QUANT", "QTD", "QTDE", "QTD.",
		},
		Keywords: []string{"quant", "qtd"},
	},
}

// 参考库别名表，与预算表共用同一套解析机制（不同数据集版本列名不一）
var referenceAliases = []fieldAlias{
	{
		Field: FieldCode,
		Exact: []string{
			"CODIGO_COMPOSICAO", "CÓDIGO DA COMPOSIÇÃO", "CODIGO DA COMPOSICAO",
			"CÓDIGO", "CODIGO",
		},
		Keywords: []string{"codigo", "composicao"},
	},
	{
		Field: FieldDescription,
		Exact: []string{
			"DESCRICAO_ITEM", "DESCRIÇÃO DO ITEM", "DESCRICAO DO ITEM",
			"DESCRIÇÃO", "DESCRICAO",
		},
		Keywords: []string{"descri", "item"},
	},
	{
		Field: FieldItemType,
		Exact: []string{
			"TIPO_ITEM", "TIPO DO ITEM", "TIPO",
		},
		Keywords: []string{"tipo"},
	},
	{
		Field: FieldCoefficient,
		Exact: []string{
			"COEFICIENTE", "COEF.", "COEF", "PRODUTIVIDADE",
		},
		Keywords: []string{"coef", "produtividade"},
	},
}

// ColumnMap 规范字段 → 列下标
type ColumnMap map[Field]int

// Col 读取字段对应的列下标，未解析到返回 -1
func (m ColumnMap) Col(f Field) int {
	if idx, ok := m[f]; ok {
		return idx
	}
	return -1
}

// SchemaError 必需列在穷尽别名表与行偏移探测后仍未找到
// 整个任务无法继续，属于致命错误
type SchemaError struct {
	Missing []Field  // 未解析到的规范字段
	Wanted  []string // 缺失字段期望的别名示例，用于提示操作者
}

func (e *SchemaError) Error() string {
	names := make([]string, 0, len(e.Missing))
	for _, f := range e.Missing {
		names = append(names, string(f))
	}
	return fmt.Sprintf("无法定位必需列 [%s]，期望的列名形如: %s",
		strings.Join(names, ", "), strings.Join(e.Wanted, " / "))
}
