package matcher

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/allanpk716/docx_filler/internal/domain"
)

// ResolveLocations 把旧版文本映射转换为位置映射。
// 每个字面文本取文档顺序中第一个包含它的元素，空文本或找不到的变量不产生条目
func ResolveLocations(elements []domain.Element, textMapping domain.TextMapping) domain.LocationMapping {
	texts := make([]string, len(elements))
	for i, el := range elements {
		texts[i] = domain.ElementText(el)
	}

	mapping := make(domain.LocationMapping)
	for name, literal := range textMapping {
		if literal == "" {
			continue
		}
		for i, el := range elements {
			idx := strings.Index(texts[i], literal)
			if idx < 0 {
				continue
			}
			start := utf8.RuneCountInString(texts[i][:idx])
			mapping[name] = newDescriptor(el, start, literal)
			break
		}
	}
	return mapping
}

// Unresolved 返回文本映射中未能定位的变量
func Unresolved(textMapping domain.TextMapping, resolved domain.LocationMapping) []string {
	var names []string
	for name := range textMapping {
		if _, ok := resolved[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// DescriptorFromSelection 根据用户选中的字符范围生成描述符
func DescriptorFromSelection(el domain.Element, start, end int) (domain.LocationDescriptor, error) {
	runes := []rune(domain.ElementText(el))
	if start < 0 || end < start || end > len(runes) {
		return domain.LocationDescriptor{}, fmt.Errorf("选择范围 [%d, %d) 超出元素 %s 的文本长度 %d", start, end, el.ID(), len(runes))
	}
	return newDescriptor(el, start, string(runes[start:end])), nil
}

// DescriptorFromLiteral 在元素中查找字面文本的第一次出现
func DescriptorFromLiteral(el domain.Element, literal string) (domain.LocationDescriptor, error) {
	if literal == "" {
		return domain.LocationDescriptor{}, fmt.Errorf("查找的文本不能为空")
	}
	text := domain.ElementText(el)
	idx := strings.Index(text, literal)
	if idx < 0 {
		return domain.LocationDescriptor{}, fmt.Errorf("%w: 元素 %s 中没有 %q", domain.ErrLocationNotFound, el.ID(), literal)
	}
	return newDescriptor(el, utf8.RuneCountInString(text[:idx]), literal), nil
}

// DescriptorFromCandidate 使用识别出的候选值生成描述符
func DescriptorFromCandidate(el domain.Element, c domain.Candidate) (domain.LocationDescriptor, error) {
	desc, err := DescriptorFromSelection(el, c.Start, c.End)
	if err != nil {
		return desc, err
	}
	if desc.OriginalText != c.Text {
		return domain.LocationDescriptor{}, fmt.Errorf("%w: 候选值 %q 与元素 %s 的文本不一致", domain.ErrLocationNotFound, c.Text, el.ID())
	}
	return desc, nil
}

// VariablesForElement 返回已经映射到该元素的变量
func VariablesForElement(mapping domain.LocationMapping, elementID string) []string {
	var names []string
	for _, name := range mapping.Variables() {
		if mapping[name].ElementID == elementID {
			names = append(names, name)
		}
	}
	return names
}

func newDescriptor(el domain.Element, start int, text string) domain.LocationDescriptor {
	length := utf8.RuneCountInString(text)
	return domain.LocationDescriptor{
		ElementID:    el.ID(),
		ElementType:  el.Kind().String(),
		Start:        start,
		End:          start + length,
		Length:       length,
		OriginalText: text,
	}
}
