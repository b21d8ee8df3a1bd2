package processor

import (
	"fmt"
	"sort"

	"github.com/allanpk716/docx_filler/internal/domain"
)

type replacement struct {
	variable string
	desc     domain.LocationDescriptor
	value    string
}

// ApplyRecord 把一条记录的全部变量写入文档。
// 元素按文档顺序处理，同一元素内按起始位置从后往前替换，避免位置偏移
func (e *Engine) ApplyRecord(doc domain.Document, mapping domain.LocationMapping, record domain.DataRecord) (domain.RecordReport, error) {
	var report domain.RecordReport

	byElement := make(map[string][]replacement)
	for _, name := range mapping.Variables() {
		value, ok := record[name]
		if !ok {
			continue
		}
		desc := mapping[name]
		byElement[desc.ElementID] = append(byElement[desc.ElementID], replacement{
			variable: name,
			desc:     desc,
			value:    value,
		})
	}

	for _, el := range doc.Elements() {
		jobs, ok := byElement[el.ID()]
		if !ok {
			continue
		}
		delete(byElement, el.ID())

		sort.SliceStable(jobs, func(i, j int) bool {
			return jobs[i].desc.Start > jobs[j].desc.Start
		})
		for _, job := range jobs {
			outcome, err := e.ReplaceAtLocation(el, job.desc, job.value)
			outcome.Variable = job.variable
			if err != nil {
				return report, fmt.Errorf("替换变量 %s 失败: %w", job.variable, err)
			}
			report.Outcomes = append(report.Outcomes, outcome)
		}
	}

	missing := make([]string, 0, len(byElement))
	for id := range byElement {
		missing = append(missing, id)
	}
	sort.Strings(missing)
	for _, id := range missing {
		for _, job := range byElement[id] {
			e.logger.Printf("变量 %s 指向的元素 %s 不存在，跳过", job.variable, id)
			report.Outcomes = append(report.Outcomes, domain.Outcome{
				Variable:  job.variable,
				ElementID: id,
				Status:    domain.StatusElementNotFound,
				Start:     job.desc.Start,
				End:       job.desc.End,
			})
		}
	}

	return report, nil
}
