package processor

import (
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/allanpk716/docx_filler/internal/domain"
)

// Engine 按位置描述符替换元素文本，保留 run 格式
type Engine struct {
	logger  *log.Logger
	verbose bool
}

// NewEngine 创建替换引擎，logger 为 nil 时使用默认 logger
func NewEngine(logger *log.Logger, verbose bool) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		logger:  logger,
		verbose: verbose,
	}
}

// ReplaceInDocument 先按ID查找元素再替换
func (e *Engine) ReplaceInDocument(doc domain.Document, desc domain.LocationDescriptor, value string) (domain.Outcome, error) {
	el, ok := doc.Element(desc.ElementID)
	if !ok {
		e.logger.Printf("未找到元素 %s，跳过", desc.ElementID)
		return domain.Outcome{
			ElementID: desc.ElementID,
			Status:    domain.StatusElementNotFound,
			Start:     desc.Start,
			End:       desc.End,
		}, nil
	}
	return e.ReplaceAtLocation(el, desc, value)
}

// ReplaceAtLocation 把描述符指向的文本替换为 value。
// 定位失败返回 StatusLocationNotFound，只有拼接结果校验失败才返回错误
func (e *Engine) ReplaceAtLocation(el domain.Element, desc domain.LocationDescriptor, value string) (domain.Outcome, error) {
	outcome := domain.Outcome{
		ElementID: el.ID(),
		Status:    domain.StatusLocationNotFound,
		Start:     desc.Start,
		End:       desc.End,
	}

	runs, err := e.targetRuns(el)
	if err != nil {
		return outcome, err
	}
	if len(runs) == 0 {
		e.logger.Printf("元素 %s 没有可替换的文本片段", el.ID())
		return outcome, nil
	}

	text := domain.RunsText(runs)
	start, end, status, ok := locate(text, desc)
	if !ok {
		e.logger.Printf("元素 %s 中未找到原文 %q (位置 %d-%d)", el.ID(), desc.OriginalText, desc.Start, desc.End)
		return outcome, nil
	}
	if status == domain.StatusHealed && e.verbose {
		e.logger.Printf("元素 %s 的偏移已失效，按原文重新定位到 %d-%d", el.ID(), start, end)
	}

	if err := spliceRuns(runs, start, end, value); err != nil {
		return outcome, fmt.Errorf("元素 %s: %w", el.ID(), err)
	}

	outcome.Status = status
	outcome.Start = start
	outcome.End = end
	return outcome, nil
}

// locate 优先信任偏移，偏移失效时回退到原文的第一次出现
func locate(text string, desc domain.LocationDescriptor) (int, int, domain.Status, bool) {
	runes := []rune(text)
	if desc.Start >= 0 && desc.Start <= desc.End && desc.End <= len(runes) &&
		string(runes[desc.Start:desc.End]) == desc.OriginalText {
		return desc.Start, desc.End, domain.StatusReplaced, true
	}

	if desc.OriginalText == "" {
		return 0, 0, domain.StatusLocationNotFound, false
	}
	idx := strings.Index(text, desc.OriginalText)
	if idx < 0 {
		return 0, 0, domain.StatusLocationNotFound, false
	}
	start := utf8.RuneCountInString(text[:idx])
	return start, start + utf8.RuneCountInString(desc.OriginalText), domain.StatusHealed, true
}

type bounds struct {
	start int
	end   int
}

// spliceRuns 在 run 序列上完成 [start, end) 的替换。
// 第一个受影响的 run 承接新值，中间的 run 清空，最后一个只保留后缀
func spliceRuns(runs []domain.Run, start, end int, value string) error {
	texts := make([][]rune, len(runs))
	spans := make([]bounds, len(runs))
	var before []rune
	pos := 0
	for i, r := range runs {
		texts[i] = []rune(r.Text())
		spans[i] = bounds{start: pos, end: pos + len(texts[i])}
		pos += len(texts[i])
		before = append(before, texts[i]...)
	}

	first, last := affectedRuns(spans, start, end, pos)
	if first < 0 {
		return fmt.Errorf("位置 %d-%d 不在任何文本片段内", start, end)
	}

	if first == last {
		local := texts[first]
		ls, le := start-spans[first].start, end-spans[first].start
		runs[first].SetText(string(local[:ls]) + value + string(local[le:]))
	} else {
		runs[first].SetText(string(texts[first][:start-spans[first].start]) + value)
		for i := first + 1; i < last; i++ {
			runs[i].SetText("")
		}
		runs[last].SetText(string(texts[last][end-spans[last].start:]))
	}

	want := string(before[:start]) + value + string(before[end:])
	if got := domain.RunsText(runs); got != want {
		return fmt.Errorf("拼接结果校验失败: 期望 %q, 实际 %q", want, got)
	}
	return nil
}

// affectedRuns 返回与 [start, end) 相交的第一个和最后一个 run。
// 空区间取包含 start 的 run，start 位于末尾时取最后一个 run
func affectedRuns(spans []bounds, start, end, total int) (int, int) {
	if start == end {
		for i, s := range spans {
			if s.start <= start && start < s.end {
				return i, i
			}
		}
		if start == total && len(spans) > 0 {
			return len(spans) - 1, len(spans) - 1
		}
		return -1, -1
	}

	first, last := -1, -1
	for i, s := range spans {
		if s.start < end && s.end > start {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	return first, last
}
