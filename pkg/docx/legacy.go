package docx

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/richardlehane/mscfb"
	"github.com/richardlehane/msoleps"
)

var compoundFileSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// LegacyInfo OLE 复合文档(Word 97-2003 或加密的 docx)的概要信息
type LegacyInfo struct {
	WordBinary bool
	Encrypted  bool
	Title      string
	Subject    string
	Author     string
	Streams    []string
}

// String 生成提示信息
func (li *LegacyInfo) String() string {
	var kind string
	switch {
	case li.Encrypted:
		kind = "加密的 Word 文档"
	case li.WordBinary:
		kind = "Word 97-2003 文档(.doc)"
	default:
		kind = "OLE 复合文档"
	}

	var meta []string
	if li.Title != "" {
		meta = append(meta, "标题: "+li.Title)
	}
	if li.Author != "" {
		meta = append(meta, "作者: "+li.Author)
	}
	if len(meta) == 0 {
		return kind
	}
	return fmt.Sprintf("%s (%s)", kind, strings.Join(meta, ", "))
}

// IsCompoundFile 判断是否为 OLE 复合文档
func IsCompoundFile(data []byte) bool {
	return bytes.HasPrefix(data, compoundFileSignature)
}

// InspectLegacy 读取复合文档的流列表和摘要属性
func InspectLegacy(data []byte) (*LegacyInfo, error) {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("解析复合文档失败: %w", err)
	}

	info := &LegacyInfo{}
	props := msoleps.New()
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		info.Streams = append(info.Streams, entry.Name)
		switch entry.Name {
		case "WordDocument":
			info.WordBinary = true
		case "EncryptedPackage":
			info.Encrypted = true
		}

		if !msoleps.IsMSOLEPS(entry.Initial) {
			continue
		}
		if err := props.Reset(doc); err != nil {
			continue
		}
		for _, prop := range props.Property {
			switch prop.Name {
			case "Title":
				info.Title = prop.String()
			case "Subject":
				info.Subject = prop.String()
			case "Author":
				info.Author = prop.String()
			}
		}
	}
	return info, nil
}
