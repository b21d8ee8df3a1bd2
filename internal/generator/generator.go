package generator

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/allanpk716/docx_filler/internal/domain"
	"github.com/allanpk716/docx_filler/internal/processor"
)

// Options 批量生成选项
type Options struct {
	// DisplayNameKeys 依次查找作为文件名的变量
	DisplayNameKeys []string
	FilenameSuffix  string
	OrdinalPrefix   string
	DefaultName     string
	// Concurrency 大于 1 时并发处理记录
	Concurrency int
	Logger      *log.Logger
	Verbose     bool
}

// DefaultOptions 返回默认选项
func DefaultOptions() Options {
	return Options{
		DisplayNameKeys: []string{"姓名", "name"},
		FilenameSuffix:  "_合同",
		OrdinalPrefix:   "合同",
		DefaultName:     "文件",
		Concurrency:     1,
	}
}

// RecordResult 单条记录的处理结果，Err 不为空时 File 为 nil
type RecordResult struct {
	Index  int
	File   *domain.GeneratedFile
	Report domain.RecordReport
	Err    error
}

// Result 一次批量生成的结果
type Result struct {
	// Files 按输入顺序排列，失败的记录不在其中
	Files   []domain.GeneratedFile
	Records []RecordResult
}

// Failed 返回失败的记录
func (r *Result) Failed() []RecordResult {
	var failed []RecordResult
	for _, rr := range r.Records {
		if rr.Err != nil {
			failed = append(failed, rr)
		}
	}
	return failed
}

// Generator 用同一个模板为多条记录生成文档
type Generator struct {
	codec  domain.DocumentCodec
	engine *processor.Engine
	opts   Options
	logger *log.Logger
}

// NewGenerator 创建生成器
func NewGenerator(codec domain.DocumentCodec, opts Options) *Generator {
	defaults := DefaultOptions()
	if opts.DisplayNameKeys == nil {
		opts.DisplayNameKeys = defaults.DisplayNameKeys
	}
	if opts.OrdinalPrefix == "" {
		opts.OrdinalPrefix = defaults.OrdinalPrefix
	}
	if opts.DefaultName == "" {
		opts.DefaultName = defaults.DefaultName
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	return &Generator{
		codec:  codec,
		engine: processor.NewEngine(opts.Logger, opts.Verbose),
		opts:   opts,
		logger: opts.Logger,
	}
}

// Generate 为每条记录解码一份新的文档、写入变量并编码。
// 单条记录失败只记录日志并跳过，模板为空时整个批次失败。
// ctx 取消后停止处理剩余记录，已生成的结果和 ctx.Err() 一起返回
func (g *Generator) Generate(ctx context.Context, templateBytes []byte, records []domain.DataRecord, mapping domain.LocationMapping) (*Result, error) {
	if len(templateBytes) == 0 {
		return nil, domain.ErrTemplateUnavailable
	}

	if g.opts.Verbose {
		g.logger.Printf("开始生成 %d 份文档，%d 个变量", len(records), len(mapping))
	}

	slots := make([]*RecordResult, len(records))
	if g.opts.Concurrency > 1 && len(records) > 1 {
		g.generateConcurrently(ctx, templateBytes, records, mapping, slots)
	} else {
		for i, record := range records {
			if ctx.Err() != nil {
				break
			}
			res := g.generateOne(i, templateBytes, record, mapping)
			slots[i] = &res
		}
	}

	result := collect(slots)
	if g.opts.Verbose {
		g.logger.Printf("生成完成: 成功 %d/%d", len(result.Files), len(records))
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func (g *Generator) generateConcurrently(ctx context.Context, templateBytes []byte, records []domain.DataRecord, mapping domain.LocationMapping, slots []*RecordResult) {
	var eg errgroup.Group
	eg.SetLimit(g.opts.Concurrency)

	for i, record := range records {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			res := g.generateOne(i, templateBytes, record, mapping)
			slots[i] = &res
			return nil
		})
	}

	// 记录级错误保存在结果中，不会传给 errgroup
	_ = eg.Wait()
}

// generateOne 处理一条记录，panic 也转换为记录级错误
func (g *Generator) generateOne(index int, templateBytes []byte, record domain.DataRecord, mapping domain.LocationMapping) (res RecordResult) {
	res.Index = index
	defer func() {
		if r := recover(); r != nil {
			res.File = nil
			res.Err = domain.NewRecordError(index, fmt.Errorf("panic: %v", r))
		}
		if res.Err != nil {
			g.logger.Printf("跳过第 %d 条记录: %v", index+1, res.Err)
		}
	}()

	doc, err := g.codec.Decode(templateBytes)
	if err != nil {
		res.Err = domain.NewRecordError(index, fmt.Errorf("解析模板失败: %w", err))
		return res
	}

	report, err := g.engine.ApplyRecord(doc, mapping, record)
	report.Index = index
	res.Report = report
	if err != nil {
		res.Err = domain.NewRecordError(index, err)
		return res
	}

	data, err := doc.Encode()
	if err != nil {
		res.Err = domain.NewRecordError(index, fmt.Errorf("保存文档失败: %w", err))
		return res
	}

	name := g.opts.FileName(record, index)
	if g.opts.Verbose {
		g.logger.Printf("[%d] %s: 替换 %d/%d 个变量", index+1, name, report.Applied(), len(report.Outcomes))
	}
	res.File = &domain.GeneratedFile{Name: name, Data: data}
	return res
}

// collect 按输入顺序压缩结果，未处理的记录被忽略
func collect(slots []*RecordResult) *Result {
	result := &Result{}
	for _, slot := range slots {
		if slot == nil {
			continue
		}
		result.Records = append(result.Records, *slot)
		if slot.File != nil {
			result.Files = append(result.Files, *slot.File)
		}
	}
	return result
}
