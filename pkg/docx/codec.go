package docx

import (
	"bytes"
	"fmt"

	"github.com/nguyenthenguyen/docx"

	"github.com/allanpk716/docx_filler/internal/domain"
)

// Codec 模板字节与可编辑文档之间的转换
type Codec struct{}

// NewCodec 创建文档编解码器
func NewCodec() domain.DocumentCodec {
	return &Codec{}
}

// Decode 解码模板字节，每次调用得到互不影响的新文档
func (c *Codec) Decode(data []byte) (domain.Document, error) {
	return Open(data)
}

// Open 解码并返回具体的 *Document
func Open(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, domain.ErrTemplateUnavailable
	}

	if IsCompoundFile(data) {
		info, err := InspectLegacy(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnsupportedFormat, err)
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, info)
	}

	reader, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnsupportedFormat, err)
	}
	editable := reader.Editable()

	doc, err := parseDocument([]byte(editable.GetContent()))
	if err != nil {
		return nil, err
	}
	doc.editable = editable
	return doc, nil
}
