package processor

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allanpk716/docx_filler/internal/domain"
)

// fakeRun 用于测试的内存 run
type fakeRun struct {
	text string
}

func (r *fakeRun) Text() string        { return r.text }
func (r *fakeRun) SetText(text string) { r.text = text }

type fakeParagraph struct {
	id   string
	runs []*fakeRun
}

func newParagraph(id string, parts ...string) *fakeParagraph {
	p := &fakeParagraph{id: id}
	for _, part := range parts {
		p.runs = append(p.runs, &fakeRun{text: part})
	}
	return p
}

func (p *fakeParagraph) ID() string               { return p.id }
func (p *fakeParagraph) Kind() domain.ElementKind { return domain.KindParagraph }

func (p *fakeParagraph) Runs() []domain.Run {
	runs := make([]domain.Run, len(p.runs))
	for i, r := range p.runs {
		runs[i] = r
	}
	return runs
}

func (p *fakeParagraph) texts() []string {
	var texts []string
	for _, r := range p.runs {
		texts = append(texts, r.text)
	}
	return texts
}

type fakeCell struct {
	id    string
	paras []*fakeParagraph
}

func (c *fakeCell) ID() string               { return c.id }
func (c *fakeCell) Kind() domain.ElementKind { return domain.KindTableCell }

func (c *fakeCell) Runs() []domain.Run {
	if len(c.paras) == 0 {
		return nil
	}
	return c.paras[0].Runs()
}

func (c *fakeCell) Paragraphs() []domain.Element {
	elements := make([]domain.Element, len(c.paras))
	for i, p := range c.paras {
		elements[i] = p
	}
	return elements
}

type fakeDocument struct {
	elements []domain.Element
}

func (d *fakeDocument) Elements() []domain.Element { return d.elements }

func (d *fakeDocument) Element(id string) (domain.Element, bool) {
	for _, el := range d.elements {
		if el.ID() == id {
			return el, true
		}
	}
	return nil, false
}

func (d *fakeDocument) Encode() ([]byte, error) { return nil, nil }

func newTestEngine() (*Engine, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewEngine(log.New(&buf, "", 0), true), &buf
}

func TestReplaceAtLocation_AllSpans(t *testing.T) {
	engine, _ := newTestEngine()
	parts := []string{"ab", "", "cde", "f"}
	full := []rune("abcdef")

	for _, value := range []string{"", "XY", "长值"} {
		for start := 0; start <= len(full); start++ {
			for end := start; end <= len(full); end++ {
				p := newParagraph("para_0", parts...)
				desc := domain.LocationDescriptor{
					ElementID:    "para_0",
					Start:        start,
					End:          end,
					OriginalText: string(full[start:end]),
				}

				outcome, err := engine.ReplaceAtLocation(p, desc, value)
				require.NoError(t, err)
				assert.Equal(t, domain.StatusReplaced, outcome.Status)

				want := string(full[:start]) + value + string(full[end:])
				assert.Equal(t, want, domain.ElementText(p), "start=%d end=%d value=%q", start, end, value)
				assert.Len(t, p.runs, len(parts))
			}
		}
	}
}

func TestReplaceAtLocation_SingleRun(t *testing.T) {
	engine, _ := newTestEngine()
	p := newParagraph("para_0", "甲方：", "陈长先生", "。")

	outcome, err := engine.ReplaceAtLocation(p, domain.LocationDescriptor{
		ElementID: "para_0", Start: 3, End: 5, OriginalText: "陈长",
	}, "王小明")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReplaced, outcome.Status)
	assert.Equal(t, []string{"甲方：", "王小明先生", "。"}, p.texts())
}

func TestReplaceAtLocation_AnchorIsFirstAffectedRun(t *testing.T) {
	engine, _ := newTestEngine()
	p := newParagraph("para_0", "乙方：陈", "长", "先", "生")

	_, err := engine.ReplaceAtLocation(p, domain.LocationDescriptor{
		ElementID: "para_0", Start: 3, End: 6, OriginalText: "陈长先",
	}, "张三")
	require.NoError(t, err)
	assert.Equal(t, []string{"乙方：张三", "", "", "生"}, p.texts())
}

func TestReplaceAtLocation_SelfHeal(t *testing.T) {
	engine, logs := newTestEngine()
	p := newParagraph("para_0", "前缀", "ABC", "后缀")

	outcome, err := engine.ReplaceAtLocation(p, domain.LocationDescriptor{
		ElementID: "para_0", Start: 0, End: 3, OriginalText: "ABC",
	}, "XYZ")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusHealed, outcome.Status)
	assert.Equal(t, 2, outcome.Start)
	assert.Equal(t, 5, outcome.End)
	assert.Equal(t, "前缀XYZ后缀", domain.ElementText(p))
	assert.Contains(t, logs.String(), "重新定位")
}

func TestReplaceAtLocation_OutOfRangeOffsetsHeal(t *testing.T) {
	engine, _ := newTestEngine()
	p := newParagraph("para_0", "短文本")

	outcome, err := engine.ReplaceAtLocation(p, domain.LocationDescriptor{
		ElementID: "para_0", Start: 40, End: 42, OriginalText: "文本",
	}, "内容")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusHealed, outcome.Status)
	assert.Equal(t, "短内容", domain.ElementText(p))
}

func TestReplaceAtLocation_NotFoundLeavesElementUntouched(t *testing.T) {
	tests := []struct {
		name string
		desc domain.LocationDescriptor
	}{
		{"原文不存在", domain.LocationDescriptor{ElementID: "para_0", Start: 0, End: 3, OriginalText: "XYZ"}},
		{"空原文且偏移越界", domain.LocationDescriptor{ElementID: "para_0", Start: 20, End: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, logs := newTestEngine()
			p := newParagraph("para_0", "甲方", "：张三")

			outcome, err := engine.ReplaceAtLocation(p, tt.desc, "值")
			require.NoError(t, err)
			assert.Equal(t, domain.StatusLocationNotFound, outcome.Status)
			assert.Equal(t, []string{"甲方", "：张三"}, p.texts())
			assert.NotEmpty(t, logs.String())
		})
	}
}

func TestReplaceAtLocation_Insertion(t *testing.T) {
	tests := []struct {
		name  string
		start int
		want  []string
	}{
		{"开头", 0, []string{"#ab", "cd"}},
		{"run 边界", 2, []string{"ab", "#cd"}},
		{"run 内部", 1, []string{"a#b", "cd"}},
		{"末尾", 4, []string{"ab", "cd#"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newTestEngine()
			p := newParagraph("para_0", "ab", "cd")

			outcome, err := engine.ReplaceAtLocation(p, domain.LocationDescriptor{
				ElementID: "para_0", Start: tt.start, End: tt.start,
			}, "#")
			require.NoError(t, err)
			assert.Equal(t, domain.StatusReplaced, outcome.Status)
			assert.Equal(t, tt.want, p.texts())
		})
	}
}

func TestReplaceAtLocation_EmptyElements(t *testing.T) {
	engine, _ := newTestEngine()

	outcome, err := engine.ReplaceAtLocation(newParagraph("para_0"), domain.LocationDescriptor{
		ElementID: "para_0",
	}, "值")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusLocationNotFound, outcome.Status)

	p := newParagraph("para_1", "", "")
	outcome, err = engine.ReplaceAtLocation(p, domain.LocationDescriptor{ElementID: "para_1"}, "值")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReplaced, outcome.Status)
	assert.Equal(t, []string{"", "值"}, p.texts())
}

func TestReplaceAtLocation_TableCellUsesFirstParagraph(t *testing.T) {
	engine, logs := newTestEngine()
	cell := &fakeCell{
		id: "cell_0_1_2",
		paras: []*fakeParagraph{
			newParagraph("cell_0_1_2_p0", "金额：", "1000"),
			newParagraph("cell_0_1_2_p1", "1000"),
		},
	}

	outcome, err := engine.ReplaceAtLocation(cell, domain.LocationDescriptor{
		ElementID: "cell_0_1_2", Start: 3, End: 7, OriginalText: "1000",
	}, "2500")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReplaced, outcome.Status)
	assert.Equal(t, "cell_0_1_2", outcome.ElementID)
	assert.Equal(t, "金额：2500", domain.ElementText(cell.paras[0]))
	assert.Equal(t, "1000", domain.ElementText(cell.paras[1]))
	assert.Contains(t, logs.String(), "2 个段落")

	empty := &fakeCell{id: "cell_0_0_0"}
	outcome, err = engine.ReplaceAtLocation(empty, domain.LocationDescriptor{ElementID: "cell_0_0_0"}, "x")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusLocationNotFound, outcome.Status)
}

func TestReplaceInDocument_ElementNotFound(t *testing.T) {
	engine, _ := newTestEngine()
	doc := &fakeDocument{elements: []domain.Element{newParagraph("para_0", "文本")}}

	outcome, err := engine.ReplaceInDocument(doc, domain.LocationDescriptor{
		ElementID: "para_7", Start: 0, End: 2, OriginalText: "文本",
	}, "值")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusElementNotFound, outcome.Status)
	assert.Equal(t, "文本", domain.ElementText(doc.elements[0]))
}

func TestSpliceRuns_RejectsUncoveredSpan(t *testing.T) {
	runs := newParagraph("para_0", "ab").Runs()
	assert.Error(t, spliceRuns(runs, 5, 5, "x"))
}
