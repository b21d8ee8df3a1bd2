package docx

import (
	"bytes"
	"fmt"

	"github.com/nguyenthenguyen/docx"

	"github.com/allanpk716/docx_filler/internal/domain"
)

type span struct {
	start int
	end   int
}

type pieceKind int

const (
	pieceText pieceKind = iota
	pieceTab
	pieceBreak
)

// piece run 中承载文本的子元素: w:t, w:tab, w:br, w:cr
type piece struct {
	span
	kind pieceKind
}

// run 对应一个 w:r，格式信息(w:rPr 等)保留在源字节里不做解析
type run struct {
	span
	// closeStart 为 </w:r> 的起始位置，自闭合时为 -1
	closeStart int
	prefix     string
	pieces     []piece
	original   string
	text       string
}

func (r *run) Text() string        { return r.text }
func (r *run) SetText(text string) { r.text = text }

func (r *run) dirty() bool { return r.text != r.original }

type paragraph struct {
	id   string
	runs []*run
}

func (p *paragraph) ID() string               { return p.id }
func (p *paragraph) Kind() domain.ElementKind { return domain.KindParagraph }

func (p *paragraph) Runs() []domain.Run {
	runs := make([]domain.Run, len(p.runs))
	for i, r := range p.runs {
		runs[i] = r
	}
	return runs
}

type cell struct {
	id         string
	paragraphs []*paragraph
}

func (c *cell) ID() string               { return c.id }
func (c *cell) Kind() domain.ElementKind { return domain.KindTableCell }

func (c *cell) Runs() []domain.Run {
	if len(c.paragraphs) == 0 {
		return nil
	}
	return c.paragraphs[0].Runs()
}

func (c *cell) Paragraphs() []domain.Element {
	elements := make([]domain.Element, len(c.paragraphs))
	for i, p := range c.paragraphs {
		elements[i] = p
	}
	return elements
}

// Document 一次解码得到的可编辑文档
type Document struct {
	source   []byte
	runs     []*run
	elements []domain.Element
	index    map[string]domain.Element
	editable *docx.Docx
}

// Elements 正文段落在前，表格单元格在后
func (d *Document) Elements() []domain.Element {
	return d.elements
}

// Element 按ID查找元素
func (d *Document) Element(id string) (domain.Element, bool) {
	el, ok := d.index[id]
	return el, ok
}

// Encode 把修改写回 document.xml 并重新打包
func (d *Document) Encode() ([]byte, error) {
	content, err := d.render()
	if err != nil {
		return nil, fmt.Errorf("生成 document.xml 失败: %w", err)
	}
	if d.editable == nil {
		return nil, fmt.Errorf("文档未初始化")
	}

	d.editable.SetContent(string(content))

	var buf bytes.Buffer
	if err := d.editable.Write(&buf); err != nil {
		return nil, fmt.Errorf("写入文档失败: %w", err)
	}
	return buf.Bytes(), nil
}

// XML 返回当前修改后的 document.xml
func (d *Document) XML() ([]byte, error) {
	return d.render()
}

func (d *Document) addElement(el domain.Element) {
	d.elements = append(d.elements, el)
	d.index[el.ID()] = el
}
