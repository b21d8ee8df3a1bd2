package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/allanpk716/docx_filler/internal/domain"
)

const (
	wordprocessingNS       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	strictWordprocessingNS = "http://purl.oclc.org/ooxml/wordprocessingml/main"
)

type tableState struct {
	index int
	rows  int
}

type rowState struct {
	table *tableState
	index int
	cells int
}

// frame 解析栈中的一个元素
type frame struct {
	name  xml.Name
	start int

	body  bool
	isP   bool
	para  *paragraph
	table *tableState
	row   *rowState
	cell  *cell
	run   *run

	isPiece   bool
	pieceKind pieceKind
	pieceRun  *run
	text      strings.Builder
}

type parser struct {
	src        []byte
	doc        *Document
	paragraphs []*paragraph
	cells      []*cell
	tables     int
	stack      []*frame
}

// parseDocument 解析 document.xml，记录每个 run 及其文本子元素的字节范围
func parseDocument(src []byte) (*Document, error) {
	p := &parser{
		src: src,
		doc: &Document{
			source: src,
			index:  make(map[string]domain.Element),
		},
	}

	dec := xml.NewDecoder(bytes.NewReader(src))
	for {
		off := int(dec.InputOffset())
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("解析 document.xml 失败: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			p.stack = append(p.stack, p.open(t, off))
		case xml.EndElement:
			if len(p.stack) == 0 {
				return nil, fmt.Errorf("解析 document.xml 失败: 多余的结束标签 %s", t.Name.Local)
			}
			f := p.stack[len(p.stack)-1]
			p.stack = p.stack[:len(p.stack)-1]
			p.close(f, off, int(dec.InputOffset()))
		case xml.CharData:
			if f := p.top(); f != nil && f.isPiece && f.pieceKind == pieceText {
				f.text.Write(t)
			}
		}
	}

	for _, para := range p.paragraphs {
		p.doc.addElement(para)
	}
	for _, c := range p.cells {
		p.doc.addElement(c)
	}
	return p.doc, nil
}

func (p *parser) top() *frame {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

func isWordprocessing(name xml.Name) bool {
	return name.Space == wordprocessingNS || name.Space == strictWordprocessingNS
}

func (p *parser) open(t xml.StartElement, off int) *frame {
	f := &frame{name: t.Name, start: off}
	if !isWordprocessing(t.Name) {
		return f
	}
	parent := p.top()

	switch t.Name.Local {
	case "body":
		f.body = true
	case "p":
		f.isP = true
		switch {
		case parent != nil && parent.body:
			f.para = &paragraph{id: fmt.Sprintf("para_%d", len(p.paragraphs))}
			p.paragraphs = append(p.paragraphs, f.para)
		case parent != nil && parent.cell != nil:
			c := parent.cell
			f.para = &paragraph{id: fmt.Sprintf("%s_p%d", c.id, len(c.paragraphs))}
			c.paragraphs = append(c.paragraphs, f.para)
		}
	case "tbl":
		if parent != nil && parent.body {
			f.table = &tableState{index: p.tables}
			p.tables++
		}
	case "tr":
		if parent != nil && parent.table != nil {
			f.row = &rowState{table: parent.table, index: parent.table.rows}
			parent.table.rows++
		}
	case "tc":
		if parent != nil && parent.row != nil {
			row := parent.row
			f.cell = &cell{id: fmt.Sprintf("cell_%d_%d_%d", row.table.index, row.index, row.cells)}
			row.cells++
			p.cells = append(p.cells, f.cell)
		}
	case "r":
		if para := p.enclosingParagraph(); para != nil {
			f.run = &run{
				span:       span{start: off},
				closeStart: -1,
				prefix:     tagPrefix(p.src, off),
			}
			para.runs = append(para.runs, f.run)
			p.doc.runs = append(p.doc.runs, f.run)
		}
	case "t", "tab", "cr", "br":
		if parent == nil || parent.run == nil {
			break
		}
		if t.Name.Local == "br" && !isTextWrappingBreak(t) {
			break
		}
		f.isPiece = true
		f.pieceRun = parent.run
		switch t.Name.Local {
		case "t":
			f.pieceKind = pieceText
		case "tab":
			f.pieceKind = pieceTab
		default:
			f.pieceKind = pieceBreak
		}
	}
	return f
}

func (p *parser) close(f *frame, off, end int) {
	switch {
	case f.run != nil:
		f.run.end = end
		if off != end {
			f.run.closeStart = off
		}
	case f.isPiece:
		r := f.pieceRun
		r.pieces = append(r.pieces, piece{span: span{start: f.start, end: end}, kind: f.pieceKind})
		switch f.pieceKind {
		case pieceText:
			r.original += f.text.String()
		case pieceTab:
			r.original += "\t"
		case pieceBreak:
			r.original += "\n"
		}
		r.text = r.original
	}
}

// enclosingParagraph 返回最近的 w:p 对应的可寻址段落。
// 嵌套在文本框、嵌套表格或 mc:Fallback 中的内容返回 nil
func (p *parser) enclosingParagraph() *paragraph {
	for i := len(p.stack) - 1; i >= 0; i-- {
		f := p.stack[i]
		if f.name.Local == "Fallback" {
			return nil
		}
		if f.run != nil {
			return nil
		}
		if f.isP {
			return f.para
		}
	}
	return nil
}

func isTextWrappingBreak(t xml.StartElement) bool {
	for _, attr := range t.Attr {
		if attr.Name.Local == "type" {
			return attr.Value == "" || attr.Value == "textWrapping"
		}
	}
	return true
}

// tagPrefix 读取源文件中标签实际使用的命名空间前缀
func tagPrefix(src []byte, off int) string {
	if off >= len(src) || src[off] != '<' {
		return "w"
	}
	end := off + 1
	for end < len(src) {
		c := src[end]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '/' || c == '>' {
			break
		}
		end++
	}
	name := string(src[off+1 : end])
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i]
	}
	return ""
}
