package cmd

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestParseCommandLineArgs(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		wantErr bool
		check   func(t *testing.T, args *CommandLineArgs)
	}{
		{
			name: "no arguments shows help",
			argv: nil,
			check: func(t *testing.T, args *CommandLineArgs) {
				if !args.ShowHelp {
					t.Error("期望显示帮助")
				}
			},
		},
		{
			name: "version",
			argv: []string{"-version"},
			check: func(t *testing.T, args *CommandLineArgs) {
				if !args.ShowVersion {
					t.Error("期望显示版本")
				}
			},
		},
		{
			name: "inspect",
			argv: []string{"inspect", "-input", "合同.docx", "-id", "a1b2c3d4", "-dump", "-verbose"},
			check: func(t *testing.T, args *CommandLineArgs) {
				if args.InputFile != "合同.docx" || args.TemplateID != "a1b2c3d4" || !args.Dump || !args.Verbose {
					t.Errorf("解析结果不正确: %+v", args)
				}
				if args.ConfigFile != "config.json" || args.ConfigExplicit {
					t.Errorf("默认配置文件不正确: %s %v", args.ConfigFile, args.ConfigExplicit)
				}
			},
		},
		{
			name: "template create with repeated mappings",
			argv: []string{"template", "create", "-input", "a.docx", "-name", "合同",
				"-literal", "姓名=para_0:陈长", "-literal", "地址=para_2:北京",
				"-select", "电话=cell_0_0_1:0:11", "-candidate", "身份证号=para_0:1", "-config", "c.yaml"},
			check: func(t *testing.T, args *CommandLineArgs) {
				if args.SubCommand != TemplateCreate {
					t.Errorf("SubCommand = %s", args.SubCommand)
				}
				if !reflect.DeepEqual([]string(args.Literals), []string{"姓名=para_0:陈长", "地址=para_2:北京"}) {
					t.Errorf("Literals = %v", args.Literals)
				}
				if len(args.Selections) != 1 || len(args.Candidates) != 1 {
					t.Errorf("Selections = %v, Candidates = %v", args.Selections, args.Candidates)
				}
				if !args.ConfigExplicit || args.ConfigFile != "c.yaml" {
					t.Errorf("配置文件 = %s, explicit = %v", args.ConfigFile, args.ConfigExplicit)
				}
			},
		},
		{
			name: "generate",
			argv: []string{"generate", "-id", "a1b2c3d4", "-data", "数据.xlsx", "-column", "姓名=客户名称", "-concurrency", "4"},
			check: func(t *testing.T, args *CommandLineArgs) {
				if args.TemplateID != "a1b2c3d4" || args.DataFile != "数据.xlsx" || args.Concurrency != 4 {
					t.Errorf("解析结果不正确: %+v", args)
				}
				if args.OutputDir != "output" {
					t.Errorf("OutputDir = %s", args.OutputDir)
				}
			},
		},
		{name: "unknown command", argv: []string{"serve"}, wantErr: true},
		{name: "template without subcommand", argv: []string{"template", "-id", "x"}, wantErr: true},
		{name: "flag of other command", argv: []string{"inspect", "-data", "x.xlsx"}, wantErr: true},
		{name: "pair without equals", argv: []string{"generate", "-column", "姓名"}, wantErr: true},
		{name: "extra positional", argv: []string{"inspect", "-input", "a.docx", "b.docx"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := ParseCommandLineArgs(tt.argv)
			if tt.wantErr {
				if err == nil {
					t.Errorf("期望返回错误，但没有")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCommandLineArgs() 返回错误: %v", err)
			}
			tt.check(t, args)
		})
	}
}

func TestValidateArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    CommandLineArgs
		wantErr bool
	}{
		{"inspect ok", CommandLineArgs{Command: CommandInspect, ConfigFile: "c.json", InputFile: "a.docx"}, false},
		{"inspect without input", CommandLineArgs{Command: CommandInspect, ConfigFile: "c.json"}, true},
		{"empty config", CommandLineArgs{Command: CommandInspect, InputFile: "a.docx"}, true},
		{"create ok", CommandLineArgs{Command: CommandTemplate, SubCommand: TemplateCreate, ConfigFile: "c.json",
			InputFile: "a.docx", Name: "合同", Literals: pairList{"姓名=para_0:陈长"}}, false},
		{"create with mapping file", CommandLineArgs{Command: CommandTemplate, SubCommand: TemplateCreate, ConfigFile: "c.json",
			InputFile: "a.docx", Name: "合同", MappingFile: "m.json"}, false},
		{"create without mapping", CommandLineArgs{Command: CommandTemplate, SubCommand: TemplateCreate, ConfigFile: "c.json",
			InputFile: "a.docx", Name: "合同"}, true},
		{"create without name", CommandLineArgs{Command: CommandTemplate, SubCommand: TemplateCreate, ConfigFile: "c.json",
			InputFile: "a.docx", Name: " ", MappingFile: "m.json"}, true},
		{"list", CommandLineArgs{Command: CommandTemplate, SubCommand: TemplateList, ConfigFile: "c.json"}, false},
		{"show without id", CommandLineArgs{Command: CommandTemplate, SubCommand: TemplateShow, ConfigFile: "c.json"}, true},
		{"unknown subcommand", CommandLineArgs{Command: CommandTemplate, SubCommand: "rename", ConfigFile: "c.json"}, true},
		{"generate ok", CommandLineArgs{Command: CommandGenerate, ConfigFile: "c.json", TemplateID: "x", DataFile: "d.xlsx", OutputDir: "out"}, false},
		{"generate without data", CommandLineArgs{Command: CommandGenerate, ConfigFile: "c.json", TemplateID: "x", OutputDir: "out"}, true},
		{"generate bad concurrency", CommandLineArgs{Command: CommandGenerate, ConfigFile: "c.json", TemplateID: "x",
			DataFile: "d.xlsx", OutputDir: "out", Concurrency: 99}, true},
		{"excel template without id", CommandLineArgs{Command: CommandExcelTemplate, ConfigFile: "c.json"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.args
			err := ValidateArgs(&args)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateArgs() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseSelection(t *testing.T) {
	id, start, end, err := parseSelection("cell_0_1_2:3:5")
	if err != nil || id != "cell_0_1_2" || start != 3 || end != 5 {
		t.Errorf("parseSelection() = %s %d %d %v", id, start, end, err)
	}

	for _, bad := range []string{"para_0:3", "para_0:a:5", "para_0:3:b"} {
		if _, _, _, err := parseSelection(bad); err == nil {
			t.Errorf("parseSelection(%q) 期望返回错误", bad)
		}
	}
}

func TestShowUsage(t *testing.T) {
	var buf bytes.Buffer
	ShowUsage(&buf)
	for _, cmd := range []string{CommandInspect, CommandGenerate, CommandExcelTemplate, "template create"} {
		if !strings.Contains(buf.String(), cmd) {
			t.Errorf("使用说明缺少 %s", cmd)
		}
	}
}
