package records

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/allanpk716/docx_filler/internal/domain"
)

// Table 工作表内容，第一行为表头
type Table struct {
	Sheet   string
	Columns []string
	Rows    [][]string
}

// Reader 读取数据表
type Reader struct {
	// Sheet 为空时读取第一个工作表
	Sheet string
	// DateLayout 日期单元格的输出格式
	DateLayout string
}

// NewReader 创建读取器
func NewReader(sheet, dateLayout string) *Reader {
	if dateLayout == "" {
		dateLayout = "2006-01-02"
	}
	return &Reader{Sheet: sheet, DateLayout: dateLayout}
}

// ReadWorkbook 使用默认设置读取第一个工作表
func ReadWorkbook(data []byte) (*Table, error) {
	return NewReader("", "").Read(data)
}

// Read 读取表头和数据行，完全空白的行会被跳过
func (r *Reader) Read(data []byte) (*Table, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("数据文件为空")
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("打开数据文件失败: %w", err)
	}
	defer f.Close()

	sheet := r.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("数据文件没有工作表")
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("工作表不存在: %s", sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("读取工作表 %s 失败: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("工作表 %s 没有表头", sheet)
	}

	table := &Table{Sheet: sheet}
	for _, name := range rows[0] {
		table.Columns = append(table.Columns, strings.TrimSpace(name))
	}

	dates := &dateDetector{file: f, sheet: sheet, layout: r.DateLayout, styles: make(map[int]bool)}
	for i, row := range rows[1:] {
		values := make([]string, len(table.Columns))
		blank := true
		for col := range values {
			if col >= len(row) {
				continue
			}
			value := row[col]
			if value != "" {
				// 表头在第 1 行，数据从第 2 行开始
				cellName, err := excelize.CoordinatesToCellName(col+1, i+2)
				if err != nil {
					return nil, err
				}
				if t, ok := dates.value(cellName); ok {
					value = t
				}
			}
			values[col] = value
			if strings.TrimSpace(value) != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		table.Rows = append(table.Rows, values)
	}

	return table, nil
}

// ValidateColumns 返回缺失的列，按 required 的顺序
func ValidateColumns(required, columns []string) []string {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	var missing []string
	for _, name := range required {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

// ColumnMapping 变量名到列名
type ColumnMapping map[string]string

// AutoColumnMapping 为每个变量选择列：先找同名列，再找互相包含的列
func AutoColumnMapping(variables, columns []string) ColumnMapping {
	mapping := make(ColumnMapping, len(variables))
	for _, v := range variables {
		if v == "" {
			continue
		}
		if col, ok := matchColumn(v, columns); ok {
			mapping[v] = col
		}
	}
	return mapping
}

func matchColumn(variable string, columns []string) (string, bool) {
	for _, col := range columns {
		if col == variable {
			return col, true
		}
	}
	for _, col := range columns {
		if col == "" {
			continue
		}
		if strings.Contains(col, variable) || strings.Contains(variable, col) {
			return col, true
		}
	}
	return "", false
}

// Variables 已映射的变量名，排序后返回
func (cm ColumnMapping) Variables() []string {
	names := make([]string, 0, len(cm))
	for name := range cm {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Transform 按列映射把数据行转换为记录。mapping 为 nil 时直接使用列名作为变量名
func Transform(table *Table, mapping ColumnMapping) ([]domain.DataRecord, error) {
	if table == nil {
		return nil, fmt.Errorf("数据表不能为空")
	}

	index := make(map[string]int, len(table.Columns))
	for i, c := range table.Columns {
		if c == "" {
			continue
		}
		if _, exists := index[c]; !exists {
			index[c] = i
		}
	}

	if mapping == nil {
		mapping = make(ColumnMapping, len(index))
		for c := range index {
			mapping[c] = c
		}
	}
	for _, v := range mapping.Variables() {
		if _, ok := index[mapping[v]]; !ok {
			return nil, fmt.Errorf("变量 %s 映射的列不存在: %s", v, mapping[v])
		}
	}

	records := make([]domain.DataRecord, 0, len(table.Rows))
	for _, row := range table.Rows {
		record := make(domain.DataRecord, len(mapping))
		for v, col := range mapping {
			i := index[col]
			if i < len(row) {
				record[v] = row[i]
			} else {
				record[v] = ""
			}
		}
		records = append(records, record)
	}
	return records, nil
}

// DataTemplate 生成空白数据表：表头为变量名，第二行为示例值
func DataTemplate(mapping domain.LocationMapping) ([]byte, error) {
	if len(mapping) == 0 {
		return nil, domain.ErrNoMapping
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "数据"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("创建工作表失败: %w", err)
	}

	variables := mapping.Variables()
	header := make([]interface{}, len(variables))
	example := make([]interface{}, len(variables))
	for i, v := range variables {
		header[i] = v
		example[i] = exampleValue(v, mapping[v].OriginalText)
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("写入表头失败: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A2", &example); err != nil {
		return nil, fmt.Errorf("写入示例行失败: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return nil, fmt.Errorf("创建表头样式失败: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(variables))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", style); err != nil {
		return nil, fmt.Errorf("设置表头样式失败: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return nil, err
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("生成数据表失败: %w", err)
	}
	return buf.Bytes(), nil
}

// exampleValue 纯数字原文直接作为示例，其余使用 "示例<变量名>"
func exampleValue(variable, original string) string {
	if original != "" && isDigits(original) {
		return original
	}
	return "示例" + variable
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

