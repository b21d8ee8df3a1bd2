package processor

import (
	"fmt"

	"github.com/allanpk716/docx_filler/internal/domain"
)

// targetRuns 返回实际参与替换的 run。单元格只处理第一个段落
func (e *Engine) targetRuns(el domain.Element) ([]domain.Run, error) {
	switch el.Kind() {
	case domain.KindParagraph:
		return el.Runs(), nil
	case domain.KindTableCell:
		c, ok := el.(domain.Cell)
		if !ok {
			return el.Runs(), nil
		}
		paras := c.Paragraphs()
		if len(paras) == 0 {
			return nil, nil
		}
		if len(paras) > 1 && e.verbose {
			e.logger.Printf("单元格 %s 包含 %d 个段落，只在第一个段落中替换", el.ID(), len(paras))
		}
		return paras[0].Runs(), nil
	default:
		return nil, fmt.Errorf("未知的元素类型: %v", el.Kind())
	}
}
