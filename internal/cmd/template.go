package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/allanpk716/docx_filler/internal/domain"
	"github.com/allanpk716/docx_filler/internal/matcher"
	"github.com/allanpk716/docx_filler/internal/template"
	"github.com/allanpk716/docx_filler/pkg/docx"
)

// elementView inspect 输出的元素信息
type elementView struct {
	ID         string
	Kind       string
	Text       string
	Runs       []string
	Paragraphs int
	Mapped     []string
	Candidates []domain.Candidate
}

func openDocument(path string) ([]byte, *docx.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("读取文件失败: %w", err)
	}
	doc, err := docx.Open(data)
	if err != nil {
		return nil, nil, fmt.Errorf("打开文档 %s 失败: %w", filepath.Base(path), err)
	}
	return data, doc, nil
}

// Inspect 列出文档中的可寻址元素和候选值，指定模板时标出每个元素已映射的变量
func (a *App) Inspect(path, templateID string, dump bool) error {
	_, doc, err := openDocument(path)
	if err != nil {
		return err
	}

	var mapping domain.LocationMapping
	if templateID != "" {
		if _, _, mapping, err = a.loadTemplate(templateID); err != nil {
			return err
		}
	}

	extractor := matcher.NewCandidateExtractor()
	var views []elementView
	for _, el := range doc.Elements() {
		view := elementView{
			ID:   el.ID(),
			Kind: el.Kind().String(),
			Text: domain.ElementText(el),
		}
		for _, r := range el.Runs() {
			view.Runs = append(view.Runs, r.Text())
		}
		if c, ok := el.(domain.Cell); ok {
			view.Paragraphs = len(c.Paragraphs())
		}
		view.Mapped = matcher.VariablesForElement(mapping, el.ID())
		view.Candidates = extractor.ExtractCandidates(view.Text)
		views = append(views, view)
	}

	if dump {
		cs := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}
		cs.Fdump(a.out, views)
		return nil
	}

	for _, v := range views {
		if strings.TrimSpace(v.Text) == "" && len(v.Mapped) == 0 && !a.verbose {
			continue
		}
		fmt.Fprintf(a.out, "%s [%s]: %s\n", v.ID, v.Kind, v.Text)
		if v.Paragraphs > 1 {
			fmt.Fprintf(a.out, "  (共 %d 个段落，只有第一个段落可替换)\n", v.Paragraphs)
		}
		if len(v.Mapped) > 0 {
			fmt.Fprintf(a.out, "  已映射: %s\n", strings.Join(v.Mapped, ", "))
		}
		for i, c := range v.Candidates {
			fmt.Fprintf(a.out, "  候选 %d: %s %q (%d-%d)\n", i+1, c.Type, c.Text, c.Start, c.End)
		}
	}
	fmt.Fprintf(a.out, "共 %d 个元素\n", len(views))
	return nil
}

// mappingFile -mapping 参数指向的 JSON 文件
type mappingFile struct {
	LocationMapping domain.LocationMapping `json:"location_mapping"`
	TextMapping     domain.TextMapping     `json:"text_mapping"`
}

// CreateTemplate 根据命令行映射创建模板
func (a *App) CreateTemplate(args *CommandLineArgs) (*template.TemplateConfig, error) {
	data, doc, err := openDocument(args.InputFile)
	if err != nil {
		return nil, err
	}

	mapping := domain.LocationMapping{}
	var text domain.TextMapping
	if args.MappingFile != "" {
		raw, err := os.ReadFile(args.MappingFile)
		if err != nil {
			return nil, fmt.Errorf("读取映射文件失败: %w", err)
		}
		var mf mappingFile
		if err := json.Unmarshal(raw, &mf); err != nil {
			return nil, fmt.Errorf("解析映射文件失败: %w", err)
		}
		for name, desc := range mf.LocationMapping {
			mapping[name] = desc
		}
		text = mf.TextMapping
	}

	lookup := func(id string) (domain.Element, error) {
		el, ok := doc.Element(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrElementNotFound, id)
		}
		return el, nil
	}

	for _, pair := range args.Selections {
		variable, value := splitPair(pair)
		id, start, end, err := parseSelection(value)
		if err != nil {
			return nil, err
		}
		el, err := lookup(id)
		if err != nil {
			return nil, err
		}
		desc, err := matcher.DescriptorFromSelection(el, start, end)
		if err != nil {
			return nil, fmt.Errorf("变量 %s: %w", variable, err)
		}
		mapping[variable] = desc
	}

	for _, pair := range args.Literals {
		variable, value := splitPair(pair)
		id, literal, ok := strings.Cut(value, ":")
		if !ok {
			return nil, fmt.Errorf("原文格式应为 元素ID:原文: %s", value)
		}
		el, err := lookup(id)
		if err != nil {
			return nil, err
		}
		desc, err := matcher.DescriptorFromLiteral(el, literal)
		if err != nil {
			return nil, fmt.Errorf("变量 %s: %w", variable, err)
		}
		mapping[variable] = desc
	}

	extractor := matcher.NewCandidateExtractor()
	for _, pair := range args.Candidates {
		variable, value := splitPair(pair)
		id, index, ok := strings.Cut(value, ":")
		if !ok {
			return nil, fmt.Errorf("候选格式应为 元素ID:序号: %s", value)
		}
		n, err := strconv.Atoi(index)
		if err != nil {
			return nil, fmt.Errorf("无效的候选序号: %s", index)
		}
		el, err := lookup(id)
		if err != nil {
			return nil, err
		}
		candidates := extractor.ExtractCandidates(domain.ElementText(el))
		if n < 1 || n > len(candidates) {
			return nil, fmt.Errorf("元素 %s 只有 %d 个候选值", id, len(candidates))
		}
		desc, err := matcher.DescriptorFromCandidate(el, candidates[n-1])
		if err != nil {
			return nil, fmt.Errorf("变量 %s: %w", variable, err)
		}
		mapping[variable] = desc
	}

	if len(mapping) == 0 {
		mapping = nil
	}
	tc, err := a.repo.Create(template.CreateRequest{
		Name:             strings.TrimSpace(args.Name),
		OriginalFilename: args.InputFile,
		Data:             data,
		LocationMapping:  mapping,
		TextMapping:      text,
		Description:      args.Description,
	})
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(a.out, "模板已创建: %s (%s, %d 个变量)\n", tc.TemplateID, tc.TemplateName, len(tc.Variables()))
	return tc, nil
}

// ListTemplates 按更新时间列出模板
func (a *App) ListTemplates() error {
	configs, err := a.repo.List()
	if err != nil {
		return err
	}
	if len(configs) == 0 {
		fmt.Fprintln(a.out, "暂无模板")
		return nil
	}
	for _, tc := range configs {
		fmt.Fprintf(a.out, "%s  %s  %s  变量 %d\n",
			tc.TemplateID, tc.TemplateName, tc.UpdatedAt.Format("2006-01-02 15:04"), len(tc.Variables()))
	}
	return nil
}

// ShowTemplate 输出模板配置
func (a *App) ShowTemplate(id string) error {
	tc, err := a.repo.Load(id)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(tc, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化模板失败: %w", err)
	}
	fmt.Fprintln(a.out, string(data))
	return nil
}

// DeleteTemplate 删除模板
func (a *App) DeleteTemplate(id string) error {
	if err := a.repo.Delete(id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "模板已删除: %s\n", id)
	return nil
}
