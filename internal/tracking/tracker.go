// Package tracking 汇总批量生成过程中每个变量的替换情况
package tracking

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/allanpk716/docx_filler/internal/domain"
)

// Position 最后一次成功替换的位置
type Position struct {
	ElementID string
	Start     int
	End       int
}

// VariableStats 单个变量的统计
type VariableStats struct {
	Variable        string
	LastValue       string
	ReplaceCount    int
	HealedCount     int
	ElementMissing  int
	LocationMissing int
	LastModified    time.Time
	Position        Position
}

// Problems 是否出现过定位失败
func (vs *VariableStats) Problems() bool {
	return vs.ElementMissing > 0 || vs.LocationMissing > 0
}

// Tracker 按变量汇总记录报告，可并发使用
type Tracker struct {
	mu      sync.Mutex
	stats   map[string]*VariableStats
	records int
	failed  int
	now     func() time.Time
}

// NewTracker 创建统计器
func NewTracker() *Tracker {
	return &Tracker{
		stats: make(map[string]*VariableStats),
		now:   time.Now,
	}
}

// Record 合并一条记录的替换结果，record 用于取得写入的值
func (t *Tracker) Record(report domain.RecordReport, record domain.DataRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.records++
	for _, o := range report.Outcomes {
		vs, exists := t.stats[o.Variable]
		if !exists {
			vs = &VariableStats{Variable: o.Variable}
			t.stats[o.Variable] = vs
		}

		switch o.Status {
		case domain.StatusReplaced, domain.StatusHealed:
			vs.ReplaceCount++
			if o.Status == domain.StatusHealed {
				vs.HealedCount++
			}
			vs.LastValue = record[o.Variable]
			vs.LastModified = t.now()
			vs.Position = Position{ElementID: o.ElementID, Start: o.Start, End: o.End}
		case domain.StatusElementNotFound:
			vs.ElementMissing++
		case domain.StatusLocationNotFound:
			vs.LocationMissing++
		}
	}
}

// RecordFailure 统计整条失败的记录
func (t *Tracker) RecordFailure() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failed++
}

// Get 获取变量统计的副本
func (t *Tracker) Get(variable string) (VariableStats, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	vs, exists := t.stats[variable]
	if !exists {
		return VariableStats{}, false
	}
	return *vs, true
}

// Count 出现过的变量数
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.stats)
}

// Variables 按变量名排序返回全部统计
func (t *Tracker) Variables() []VariableStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	list := make([]VariableStats, 0, len(t.stats))
	for _, vs := range t.stats {
		list = append(list, *vs)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Variable < list[j].Variable
	})
	return list
}

// Unused 返回映射中从未出现在任何报告里的变量
func (t *Tracker) Unused(variables []string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var unused []string
	for _, v := range variables {
		if _, exists := t.stats[v]; !exists {
			unused = append(unused, v)
		}
	}
	sort.Strings(unused)
	return unused
}

// Summary 生成可读的汇总文本
func (t *Tracker) Summary() string {
	variables := t.Variables()

	t.mu.Lock()
	records, failed := t.records, t.failed
	t.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "记录: 成功 %d, 失败 %d\n", records, failed)
	for _, vs := range variables {
		fmt.Fprintf(&sb, "  %s: 替换 %d 次", vs.Variable, vs.ReplaceCount)
		if vs.HealedCount > 0 {
			fmt.Fprintf(&sb, " (重新定位 %d 次)", vs.HealedCount)
		}
		if vs.ElementMissing > 0 {
			fmt.Fprintf(&sb, ", 元素缺失 %d 次", vs.ElementMissing)
		}
		if vs.LocationMissing > 0 {
			fmt.Fprintf(&sb, ", 未找到位置 %d 次", vs.LocationMissing)
		}
		if vs.ReplaceCount > 0 {
			fmt.Fprintf(&sb, ", 最后值 %q", vs.LastValue)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
