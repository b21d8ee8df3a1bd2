package template

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/allanpk716/docx_filler/internal/domain"
	"github.com/allanpk716/docx_filler/internal/matcher"
)

// timestampLayouts 兼容旧数据中没有时区或只有日期的时间格式
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp 模板配置中的时间
type Timestamp struct {
	time.Time
}

// Now 当前时间
func Now() Timestamp {
	return Timestamp{Time: time.Now()}
}

// MarshalJSON 输出 RFC3339
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(ts.Format(time.RFC3339Nano))
}

// UnmarshalJSON 依次尝试支持的格式
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("时间必须是字符串: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		ts.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			ts.Time = t
			return nil
		}
	}
	return fmt.Errorf("无法解析时间: %s", s)
}

// TemplateConfig 保存的模板及其变量映射
type TemplateConfig struct {
	TemplateID       string                 `json:"template_id"`
	TemplateName     string                 `json:"template_name"`
	OriginalFilename string                 `json:"original_filename"`
	TemplateFilename string                 `json:"template_filename"`
	LocationMapping  domain.LocationMapping `json:"location_mapping,omitempty"`
	TextMapping      domain.TextMapping     `json:"text_mapping,omitempty"`
	CreatedAt        Timestamp              `json:"created_at"`
	UpdatedAt        Timestamp              `json:"updated_at"`
	Description      string                 `json:"description"`
}

// Validate 验证模板配置
func (tc *TemplateConfig) Validate() error {
	if tc == nil {
		return fmt.Errorf("模板配置不能为空")
	}
	if strings.TrimSpace(tc.TemplateName) == "" {
		return fmt.Errorf("模板名称不能为空")
	}
	if len(tc.LocationMapping) == 0 && len(tc.TextMapping) == 0 {
		return domain.ErrNoMapping
	}
	if err := tc.LocationMapping.Validate(); err != nil {
		return fmt.Errorf("位置映射无效: %w", err)
	}
	for name := range tc.TextMapping {
		if name == "" {
			return fmt.Errorf("文本映射中的变量名不能为空")
		}
	}
	return nil
}

// Variables 数据表需要提供的变量名
func (tc *TemplateConfig) Variables() []string {
	set := make(map[string]bool)
	for name := range tc.LocationMapping {
		set[name] = true
	}
	for name := range tc.TextMapping {
		set[name] = true
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EffectiveMapping 位置映射优先，否则从模板文本解析旧版文本映射
func (tc *TemplateConfig) EffectiveMapping(codec domain.DocumentCodec, templateBytes []byte) (domain.LocationMapping, error) {
	if len(tc.LocationMapping) > 0 {
		return tc.LocationMapping, nil
	}
	if len(tc.TextMapping) == 0 {
		return nil, domain.ErrNoMapping
	}

	doc, err := codec.Decode(templateBytes)
	if err != nil {
		return nil, fmt.Errorf("解析模板失败: %w", err)
	}
	mapping := matcher.ResolveLocations(doc.Elements(), tc.TextMapping)
	if len(mapping) == 0 {
		return nil, fmt.Errorf("%w: 文本映射中的内容在模板中都不存在", domain.ErrNoMapping)
	}
	return mapping, nil
}
