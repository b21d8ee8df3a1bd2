package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
)

type edit struct {
	span
	replacement string
}

// render 只改写文本发生变化的 run，其余字节原样保留
func (d *Document) render() ([]byte, error) {
	var edits []edit
	for _, r := range d.runs {
		if !r.dirty() {
			continue
		}
		es, err := r.edits(d.source)
		if err != nil {
			return nil, err
		}
		edits = append(edits, es...)
	}
	if len(edits) == 0 {
		return d.source, nil
	}

	sort.SliceStable(edits, func(i, j int) bool {
		return edits[i].start < edits[j].start
	})

	var buf bytes.Buffer
	buf.Grow(len(d.source))
	last := 0
	for _, e := range edits {
		if e.start < last {
			return nil, fmt.Errorf("重叠的修改区间: %d < %d", e.start, last)
		}
		buf.Write(d.source[last:e.start])
		buf.WriteString(e.replacement)
		last = e.end
	}
	buf.Write(d.source[last:])
	return buf.Bytes(), nil
}

// edits 把新文本写入第一个文本子元素，删除其余文本子元素
func (r *run) edits(src []byte) ([]edit, error) {
	content, err := renderPieces(r.prefix, r.text)
	if err != nil {
		return nil, err
	}

	switch {
	case len(r.pieces) > 0:
		es := make([]edit, 0, len(r.pieces))
		es = append(es, edit{span: r.pieces[0].span, replacement: content})
		for _, p := range r.pieces[1:] {
			es = append(es, edit{span: p.span})
		}
		return es, nil
	case r.closeStart >= 0:
		return []edit{{span: span{start: r.closeStart, end: r.closeStart}, replacement: content}}, nil
	default:
		// <w:r/> 展开为成对标签
		tag := strings.TrimSpace(string(src[r.start:r.end]))
		tag = strings.TrimSuffix(tag, "/>")
		name := qualify(r.prefix, "r")
		return []edit{{span: r.span, replacement: tag + ">" + content + "</" + name + ">"}}, nil
	}
}

// renderPieces 制表符和换行写成 w:tab / w:br，其余写成 w:t
func renderPieces(prefix, text string) (string, error) {
	var sb strings.Builder
	var segment strings.Builder

	flush := func() error {
		if segment.Len() == 0 {
			return nil
		}
		t := qualify(prefix, "t")
		sb.WriteString("<" + t + ` xml:space="preserve">`)
		if err := xml.EscapeText(&sb, []byte(segment.String())); err != nil {
			return fmt.Errorf("转义文本失败: %w", err)
		}
		sb.WriteString("</" + t + ">")
		segment.Reset()
		return nil
	}

	for _, c := range text {
		switch c {
		case '\t', '\n':
			if err := flush(); err != nil {
				return "", err
			}
			local := "tab"
			if c == '\n' {
				local = "br"
			}
			sb.WriteString("<" + qualify(prefix, local) + "/>")
		default:
			segment.WriteRune(c)
		}
	}
	if err := flush(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func qualify(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}
