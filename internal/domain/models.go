package domain

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// ElementKind 可寻址元素的类型
type ElementKind int

const (
	// KindParagraph 正文段落
	KindParagraph ElementKind = iota
	// KindTableCell 表格单元格
	KindTableCell
)

// String 返回持久化使用的类型名
func (k ElementKind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindTableCell:
		return "table_cell"
	default:
		return fmt.Sprintf("ElementKind(%d)", int(k))
	}
}

// ParseElementKind 解析类型名
func ParseElementKind(s string) (ElementKind, error) {
	switch s {
	case "paragraph":
		return KindParagraph, nil
	case "table_cell":
		return KindTableCell, nil
	default:
		return 0, fmt.Errorf("未知的元素类型: %q", s)
	}
}

// Run 连续同格式的文本片段，格式信息对引擎不可见
type Run interface {
	Text() string
	SetText(text string)
}

// Element 段落或表格单元格
type Element interface {
	ID() string
	Kind() ElementKind
	// Runs 对单元格返回其第一个段落的片段
	Runs() []Run
}

// Cell 表格单元格额外暴露全部段落
type Cell interface {
	Element
	Paragraphs() []Element
}

// Document 一次解码得到的文档树
type Document interface {
	// Elements 按文档顺序返回全部可寻址元素
	Elements() []Element
	Element(id string) (Element, bool)
	Encode() ([]byte, error)
}

// DocumentCodec 模板字节与文档树之间的转换
type DocumentCodec interface {
	Decode(data []byte) (Document, error)
}

// CandidateExtractor 从元素文本中识别可能需要替换的值
type CandidateExtractor interface {
	ExtractCandidates(text string) []Candidate
}

// ElementText 拼接元素的全部片段文本
func ElementText(el Element) string {
	return RunsText(el.Runs())
}

// RunsText 拼接片段文本
func RunsText(runs []Run) string {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.Text())
	}
	return sb.String()
}

// LocationDescriptor 变量在元素中的位置，偏移按字符(rune)计算
type LocationDescriptor struct {
	ElementID    string `json:"element_id"`
	ElementType  string `json:"element_type,omitempty"`
	Start        int    `json:"start"`
	End          int    `json:"end"`
	Length       int    `json:"length"`
	OriginalText string `json:"original_text"`
}

// Validate 检查描述符自身是否一致
func (d LocationDescriptor) Validate() error {
	if d.ElementID == "" {
		return fmt.Errorf("元素ID不能为空")
	}
	if d.Start < 0 || d.End < d.Start {
		return fmt.Errorf("无效的位置范围: [%d, %d)", d.Start, d.End)
	}
	if n := utf8.RuneCountInString(d.OriginalText); d.End-d.Start != n {
		return fmt.Errorf("位置范围长度 %d 与原文长度 %d 不一致", d.End-d.Start, n)
	}
	if d.ElementType != "" {
		if _, err := ParseElementKind(d.ElementType); err != nil {
			return err
		}
	}
	return nil
}

// LocationMapping 变量名到位置描述符
type LocationMapping map[string]LocationDescriptor

// Variables 返回排序后的变量名
func (m LocationMapping) Variables() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate 逐个检查描述符
func (m LocationMapping) Validate() error {
	for _, name := range m.Variables() {
		if name == "" {
			return fmt.Errorf("变量名不能为空")
		}
		if err := m[name].Validate(); err != nil {
			return fmt.Errorf("变量 %s: %w", name, err)
		}
	}
	return nil
}

// TextMapping 旧版映射：变量名到字面文本
type TextMapping map[string]string

// DataRecord 一条数据记录，值已转换为字符串
type DataRecord map[string]string

// Candidate 自动识别出的候选替换值
type Candidate struct {
	Text  string `json:"text"`
	Type  string `json:"type"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Status 单个变量的替换结果
type Status int

const (
	StatusReplaced Status = iota
	// StatusHealed 偏移失效后按原文重新定位并完成替换
	StatusHealed
	StatusLocationNotFound
	StatusElementNotFound
)

func (s Status) String() string {
	switch s {
	case StatusReplaced:
		return "replaced"
	case StatusHealed:
		return "healed"
	case StatusLocationNotFound:
		return "location_not_found"
	case StatusElementNotFound:
		return "element_not_found"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Applied 是否实际写入了替换值
func (s Status) Applied() bool {
	return s == StatusReplaced || s == StatusHealed
}

// Outcome 一次定位替换的结果
type Outcome struct {
	Variable  string
	ElementID string
	Status    Status
	// Start/End 实际使用的偏移
	Start int
	End   int
}

// RecordReport 一条记录的全部替换结果
type RecordReport struct {
	Index    int
	Outcomes []Outcome
}

// Applied 成功写入的变量数
func (r RecordReport) Applied() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status.Applied() {
			n++
		}
	}
	return n
}

// GeneratedFile 生成的文档
type GeneratedFile struct {
	Name string
	Data []byte
}
