package cmd

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	AppName    = "docx_filler"
	AppVersion = "1.0.0"
)

// 子命令
const (
	CommandInspect       = "inspect"
	CommandTemplate      = "template"
	CommandGenerate      = "generate"
	CommandExcelTemplate = "excel-template"
)

// 模板子命令
const (
	TemplateCreate = "create"
	TemplateList   = "list"
	TemplateShow   = "show"
	TemplateDelete = "delete"
)

// pairList 可重复的 key=value 参数
type pairList []string

func (p *pairList) String() string {
	return strings.Join(*p, ",")
}

func (p *pairList) Set(value string) error {
	if !strings.Contains(value, "=") {
		return fmt.Errorf("参数格式应为 变量=值: %s", value)
	}
	*p = append(*p, value)
	return nil
}

// CommandLineArgs 命令行参数结构
type CommandLineArgs struct {
	Command    string
	SubCommand string

	ConfigFile     string
	ConfigExplicit bool
	StorageDir     string
	ShowVersion    bool
	ShowHelp       bool
	Verbose        bool

	InputFile   string
	Dump        bool
	TemplateID  string
	Name        string
	Description string
	MappingFile string
	Selections  pairList
	Literals    pairList
	Candidates  pairList

	DataFile    string
	OutputDir   string
	OutputFile  string
	Columns     pairList
	Concurrency int
}

// ParseCommandLineArgs 解析命令行参数，argv 不包含程序名
func ParseCommandLineArgs(argv []string) (*CommandLineArgs, error) {
	args := &CommandLineArgs{}

	if len(argv) == 0 {
		args.ShowHelp = true
		return args, nil
	}
	switch argv[0] {
	case "-version", "--version", "version":
		args.ShowVersion = true
		return args, nil
	case "-help", "--help", "-h", "help":
		args.ShowHelp = true
		return args, nil
	}

	args.Command = argv[0]
	rest := argv[1:]
	if args.Command == CommandTemplate {
		if len(rest) == 0 || strings.HasPrefix(rest[0], "-") {
			return nil, fmt.Errorf("template 需要子命令: create, list, show, delete")
		}
		args.SubCommand = rest[0]
		rest = rest[1:]
	}

	fs := flag.NewFlagSet(args.Command, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&args.ConfigFile, "config", "config.json", "配置文件路径")
	fs.StringVar(&args.StorageDir, "storage", "", "模板存储目录，覆盖配置文件")
	fs.BoolVar(&args.Verbose, "verbose", false, "详细输出")

	switch args.Command {
	case CommandInspect:
		fs.StringVar(&args.InputFile, "input", "", "输入 DOCX 文件路径")
		fs.StringVar(&args.TemplateID, "id", "", "模板ID，标出已映射的变量")
		fs.BoolVar(&args.Dump, "dump", false, "输出完整的元素结构")
	case CommandTemplate:
		fs.StringVar(&args.TemplateID, "id", "", "模板ID")
		fs.StringVar(&args.InputFile, "input", "", "模板 DOCX 文件路径")
		fs.StringVar(&args.Name, "name", "", "模板名称")
		fs.StringVar(&args.Description, "description", "", "模板描述")
		fs.StringVar(&args.MappingFile, "mapping", "", "映射 JSON 文件 (location_mapping / text_mapping)")
		fs.Var(&args.Selections, "select", "按位置映射: 变量=元素ID:起始:结束，可重复")
		fs.Var(&args.Literals, "literal", "按原文映射: 变量=元素ID:原文，可重复")
		fs.Var(&args.Candidates, "candidate", "按候选值映射: 变量=元素ID:序号，可重复")
	case CommandGenerate:
		fs.StringVar(&args.TemplateID, "id", "", "模板ID")
		fs.StringVar(&args.DataFile, "data", "", "Excel 数据文件路径")
		fs.StringVar(&args.OutputDir, "output-dir", "output", "输出目录")
		fs.Var(&args.Columns, "column", "列映射: 变量=列名，可重复")
		fs.IntVar(&args.Concurrency, "concurrency", 0, "并发数，0 表示使用配置文件")
	case CommandExcelTemplate:
		fs.StringVar(&args.TemplateID, "id", "", "模板ID")
		fs.StringVar(&args.OutputFile, "output", "", "输出 xlsx 路径")
	default:
		return nil, fmt.Errorf("未知命令: %s", args.Command)
	}

	if err := fs.Parse(rest); err != nil {
		return nil, fmt.Errorf("解析 %s 参数失败: %w", args.Command, err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("多余的参数: %s", strings.Join(fs.Args(), " "))
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			args.ConfigExplicit = true
		}
	})

	return args, nil
}

// ValidateArgs 验证命令行参数
func ValidateArgs(args *CommandLineArgs) error {
	if args.ConfigFile == "" {
		return fmt.Errorf("配置文件路径不能为空")
	}

	switch args.Command {
	case CommandInspect:
		if args.InputFile == "" {
			return fmt.Errorf("inspect 必须指定输入文件")
		}
	case CommandTemplate:
		switch args.SubCommand {
		case TemplateCreate:
			if args.InputFile == "" {
				return fmt.Errorf("创建模板必须指定输入文件")
			}
			if strings.TrimSpace(args.Name) == "" {
				return fmt.Errorf("创建模板必须指定名称")
			}
			if args.MappingFile == "" && len(args.Selections)+len(args.Literals)+len(args.Candidates) == 0 {
				return fmt.Errorf("创建模板至少需要一个映射")
			}
		case TemplateShow, TemplateDelete:
			if args.TemplateID == "" {
				return fmt.Errorf("必须指定模板ID")
			}
		case TemplateList:
		default:
			return fmt.Errorf("未知的模板子命令: %s", args.SubCommand)
		}
	case CommandGenerate:
		if args.TemplateID == "" {
			return fmt.Errorf("generate 必须指定模板ID")
		}
		if args.DataFile == "" {
			return fmt.Errorf("generate 必须指定数据文件")
		}
		if args.OutputDir == "" {
			return fmt.Errorf("输出目录不能为空")
		}
		if args.Concurrency < 0 || args.Concurrency > 50 {
			return fmt.Errorf("并发数必须在0-50之间")
		}
	case CommandExcelTemplate:
		if args.TemplateID == "" {
			return fmt.Errorf("excel-template 必须指定模板ID")
		}
	default:
		return fmt.Errorf("未知命令: %s", args.Command)
	}

	return nil
}

// splitPair 拆分 变量=值
func splitPair(pair string) (string, string) {
	key, value, _ := strings.Cut(pair, "=")
	return strings.TrimSpace(key), value
}

// parseSelection 解析 元素ID:起始:结束
func parseSelection(value string) (string, int, int, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return "", 0, 0, fmt.Errorf("位置格式应为 元素ID:起始:结束: %s", value)
	}
	start, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, 0, fmt.Errorf("无效的起始位置: %s", parts[1])
	}
	end, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, 0, fmt.Errorf("无效的结束位置: %s", parts[2])
	}
	return parts[0], start, end, nil
}

// ShowUsage 显示使用说明
func ShowUsage(w io.Writer) {
	fmt.Fprintf(w, "%s v%s - Word 合同模板批量填充工具\n\n", AppName, AppVersion)
	fmt.Fprintln(w, "用法:")
	fmt.Fprintln(w, "  docx-filler inspect -input 合同.docx [-id 模板ID] [-dump]")
	fmt.Fprintln(w, "  docx-filler template create -input 合同.docx -name 名称 [-literal 姓名=para_0:陈长] [-select 变量=元素ID:起始:结束] [-candidate 变量=元素ID:序号] [-mapping 映射.json]")
	fmt.Fprintln(w, "  docx-filler template list")
	fmt.Fprintln(w, "  docx-filler template show -id 模板ID")
	fmt.Fprintln(w, "  docx-filler template delete -id 模板ID")
	fmt.Fprintln(w, "  docx-filler generate -id 模板ID -data 数据.xlsx [-output-dir output] [-column 变量=列名] [-concurrency N]")
	fmt.Fprintln(w, "  docx-filler excel-template -id 模板ID [-output 数据模板.xlsx]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "通用参数:")
	fmt.Fprintln(w, "  -config   配置文件路径 (JSON/YAML，默认 config.json，不存在时使用默认配置)")
	fmt.Fprintln(w, "  -storage  模板存储目录")
	fmt.Fprintln(w, "  -verbose  详细输出")
}
