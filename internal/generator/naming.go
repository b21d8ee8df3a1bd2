package generator

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/allanpk716/docx_filler/internal/domain"
)

// DisplayName 返回第一个存在的显示名变量的值，都不存在时使用 "<前缀>_<序号>"。
// 变量存在但值为空时仍使用该值，清理后由默认名兜底
func DisplayName(record domain.DataRecord, keys []string, ordinalPrefix string, index int) string {
	for _, key := range keys {
		if value, ok := record[key]; ok {
			return value
		}
	}
	return fmt.Sprintf("%s_%d", ordinalPrefix, index+1)
}

// SanitizeFileName 只保留字母、数字、空格、'-'、'_' 和中文字符，结果为空时返回 fallback
func SanitizeFileName(name, fallback string) string {
	var sb strings.Builder
	for _, r := range name {
		if keepRune(r) {
			sb.WriteRune(r)
		}
	}
	safe := strings.TrimSpace(sb.String())
	if safe == "" {
		return fallback
	}
	return safe
}

func keepRune(r rune) bool {
	switch {
	case r >= 0x4E00 && r <= 0x9FFF:
		return true
	case unicode.IsLetter(r), unicode.IsNumber(r):
		return true
	case r == ' ', r == '-', r == '_':
		return true
	}
	return false
}

// FileName 生成记录对应的文件名
func (o *Options) FileName(record domain.DataRecord, index int) string {
	name := DisplayName(record, o.DisplayNameKeys, o.OrdinalPrefix, index)
	return SanitizeFileName(name, o.DefaultName) + o.FilenameSuffix + ".docx"
}
