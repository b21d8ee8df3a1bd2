package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allanpk716/docx_filler/internal/config"
	"github.com/allanpk716/docx_filler/internal/domain"
	"github.com/allanpk716/docx_filler/internal/generator"
	"github.com/allanpk716/docx_filler/internal/matcher"
	"github.com/allanpk716/docx_filler/internal/records"
	"github.com/allanpk716/docx_filler/internal/template"
	"github.com/allanpk716/docx_filler/internal/tracking"
	"github.com/allanpk716/docx_filler/pkg/docx"
)

// App 命令执行环境
type App struct {
	cfg     *config.Config
	repo    template.Repository
	codec   domain.DocumentCodec
	logger  *log.Logger
	out     io.Writer
	verbose bool
	now     func() time.Time
}

// NewApp 创建命令执行环境
func NewApp(cfg *config.Config, repo template.Repository, logger *log.Logger, out io.Writer, verbose bool) *App {
	if logger == nil {
		logger = log.Default()
	}
	return &App{
		cfg:     cfg,
		repo:    repo,
		codec:   docx.NewCodec(),
		logger:  logger,
		out:     out,
		verbose: verbose || cfg.Processing.EnableDetailedLogging,
		now:     time.Now,
	}
}

// LoadConfig 加载配置文件。未显式指定且默认文件不存在时使用默认配置
func LoadConfig(args *CommandLineArgs) (*config.Config, error) {
	var cfg *config.Config
	if _, err := os.Stat(args.ConfigFile); os.IsNotExist(err) && !args.ConfigExplicit {
		cfg = config.DefaultConfig()
	} else {
		loaded, err := config.NewConfigManager().LoadConfig(args.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if args.StorageDir != "" {
		cfg.StorageDir = args.StorageDir
	}
	return cfg, nil
}

// Run 加载配置并执行命令
func Run(ctx context.Context, args *CommandLineArgs, logger *log.Logger, out io.Writer) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return fmt.Errorf("加载配置文件失败: %w", err)
	}

	repo, err := template.NewFileRepository(cfg.StorageDir, cfg.Processing.BackupConfigs, logger)
	if err != nil {
		return err
	}

	return NewApp(cfg, repo, logger, out, args.Verbose).Execute(ctx, args)
}

// Execute 执行处理逻辑
func (a *App) Execute(ctx context.Context, args *CommandLineArgs) error {
	switch args.Command {
	case CommandInspect:
		return a.Inspect(args.InputFile, args.TemplateID, args.Dump)
	case CommandTemplate:
		switch args.SubCommand {
		case TemplateCreate:
			_, err := a.CreateTemplate(args)
			return err
		case TemplateList:
			return a.ListTemplates()
		case TemplateShow:
			return a.ShowTemplate(args.TemplateID)
		case TemplateDelete:
			return a.DeleteTemplate(args.TemplateID)
		}
		return fmt.Errorf("未知的模板子命令: %s", args.SubCommand)
	case CommandGenerate:
		_, err := a.Generate(ctx, args)
		return err
	case CommandExcelTemplate:
		_, err := a.ExcelTemplate(args.TemplateID, args.OutputFile)
		return err
	}
	return fmt.Errorf("未知命令: %s", args.Command)
}

// loadTemplate 读取模板配置、模板文件和最终使用的位置映射
func (a *App) loadTemplate(id string) (*template.TemplateConfig, []byte, domain.LocationMapping, error) {
	tc, err := a.repo.Load(id)
	if err != nil {
		return nil, nil, nil, err
	}
	data, err := a.repo.TemplateBytes(tc)
	if err != nil {
		return nil, nil, nil, err
	}
	mapping, err := tc.EffectiveMapping(a.codec, data)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("模板 %s: %w", id, err)
	}
	if len(tc.LocationMapping) == 0 {
		if missing := matcher.Unresolved(tc.TextMapping, mapping); len(missing) > 0 {
			a.logger.Printf("模板 %s 中未找到以下文本映射: %s", id, strings.Join(missing, ", "))
		}
	}
	return tc, data, mapping, nil
}

// Generate 读取数据表并批量生成文档，返回压缩包路径
func (a *App) Generate(ctx context.Context, args *CommandLineArgs) (string, error) {
	tc, data, mapping, err := a.loadTemplate(args.TemplateID)
	if err != nil {
		return "", err
	}

	raw, err := os.ReadFile(args.DataFile)
	if err != nil {
		return "", fmt.Errorf("读取数据文件失败: %w", err)
	}
	table, err := records.NewReader(a.cfg.Records.Sheet, a.cfg.Records.DateLayout).Read(raw)
	if err != nil {
		return "", err
	}

	columns := records.AutoColumnMapping(mapping.Variables(), table.Columns)
	for _, pair := range args.Columns {
		variable, column := splitPair(pair)
		if _, ok := mapping[variable]; !ok {
			return "", fmt.Errorf("模板中没有变量: %s", variable)
		}
		columns[variable] = column
	}
	mapped := make([]string, 0, len(columns))
	for _, v := range columns.Variables() {
		mapped = append(mapped, columns[v])
	}
	if missing := records.ValidateColumns(mapped, table.Columns); len(missing) > 0 {
		return "", fmt.Errorf("数据表缺少列: %s", strings.Join(missing, ", "))
	}
	if unmapped := records.ValidateColumns(mapping.Variables(), columns.Variables()); len(unmapped) > 0 {
		a.logger.Printf("以下变量没有对应的列，将保持模板原文: %s", strings.Join(unmapped, ", "))
	}

	recs, err := records.Transform(table, columns)
	if err != nil {
		return "", err
	}
	if len(recs) == 0 {
		return "", fmt.Errorf("数据表 %s 没有数据行", table.Sheet)
	}
	a.logger.Printf("模板 %s: %d 条记录, %d 个变量", tc.TemplateName, len(recs), len(columns))

	concurrency := a.cfg.Processing.MaxConcurrentRecords
	if args.Concurrency > 0 {
		concurrency = args.Concurrency
	}
	gen := generator.NewGenerator(a.codec, generator.Options{
		DisplayNameKeys: a.cfg.Output.DisplayNameKeys,
		FilenameSuffix:  a.cfg.Output.FilenameSuffix,
		OrdinalPrefix:   a.cfg.Output.OrdinalPrefix,
		DefaultName:     a.cfg.Output.DefaultName,
		Concurrency:     concurrency,
		Logger:          a.logger,
		Verbose:         a.verbose,
	})

	result, genErr := gen.Generate(ctx, data, recs, mapping)
	if result == nil {
		return "", genErr
	}

	tracker := tracking.NewTracker()
	for _, rr := range result.Records {
		if rr.Err != nil {
			tracker.RecordFailure()
			continue
		}
		tracker.Record(rr.Report, recs[rr.Index])
	}
	fmt.Fprint(a.out, tracker.Summary())
	if unused := tracker.Unused(mapping.Variables()); len(unused) > 0 {
		fmt.Fprintf(a.out, "以下变量没有任何记录提供值，保持模板原文: %s\n", strings.Join(unused, ", "))
	}

	if len(result.Files) == 0 {
		if genErr != nil {
			return "", genErr
		}
		return "", fmt.Errorf("没有生成任何文档")
	}

	path, err := a.writeArchive(args.OutputDir, result.Files)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(a.out, "已生成 %d 份文档: %s\n", len(result.Files), path)
	return path, genErr
}

func (a *App) writeArchive(dir string, files []domain.GeneratedFile) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}

	path := filepath.Join(dir, generator.ArchiveName(a.cfg.Output.ArchivePrefix, a.now()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("创建压缩文件失败: %w", err)
	}
	if err := generator.WriteZip(f, files); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("保存压缩文件失败: %w", err)
	}
	return path, nil
}

// ExcelTemplate 生成模板对应的空白数据表
func (a *App) ExcelTemplate(id, output string) (string, error) {
	tc, _, mapping, err := a.loadTemplate(id)
	if err != nil {
		return "", err
	}

	data, err := records.DataTemplate(mapping)
	if err != nil {
		return "", err
	}

	if output == "" {
		output = generator.SanitizeFileName(tc.TemplateName, a.cfg.Output.DefaultName) + "_数据模板.xlsx"
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return "", fmt.Errorf("写入数据表失败: %w", err)
	}

	fmt.Fprintf(a.out, "数据表已生成: %s (%d 列)\n", output, len(mapping))
	return output, nil
}
