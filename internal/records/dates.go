package records

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// dateDetector 根据单元格数字格式识别日期，结果按样式缓存
type dateDetector struct {
	file   *excelize.File
	sheet  string
	layout string
	styles map[int]bool
}

// value 日期单元格返回按 layout 格式化的值
func (d *dateDetector) value(cell string) (string, bool) {
	styleID, err := d.file.GetCellStyle(d.sheet, cell)
	if err != nil || !d.isDateStyle(styleID) {
		return "", false
	}

	raw, err := d.file.GetCellValue(d.sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", false
	}
	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		// 以文本保存的日期保持原样
		return "", false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return "", false
	}
	return t.Format(d.layout), true
}

func (d *dateDetector) isDateStyle(styleID int) bool {
	if isDate, ok := d.styles[styleID]; ok {
		return isDate
	}

	isDate := false
	if style, err := d.file.GetStyle(styleID); err == nil && style != nil {
		isDate = isDateFormat(style.NumFmt, style.CustomNumFmt)
	}
	d.styles[styleID] = isDate
	return isDate
}

// isDateFormat 内置日期格式 14-22、45-47，或包含年/日占位符的自定义格式
func isDateFormat(numFmt int, custom *string) bool {
	switch {
	case numFmt >= 14 && numFmt <= 22:
		return true
	case numFmt >= 45 && numFmt <= 47:
		return true
	}
	if custom == nil {
		return false
	}

	format := strings.ToLower(*custom)
	// 去掉引号内的字面文本和方括号内的颜色/区域设置
	var sb strings.Builder
	quoted, bracket := false, false
	for _, r := range format {
		switch {
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '[':
			bracket = true
		case r == ']':
			bracket = false
		case bracket:
		default:
			sb.WriteRune(r)
		}
	}
	format = sb.String()
	return strings.ContainsAny(format, "yd")
}
