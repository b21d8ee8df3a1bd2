package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/allanpk716/docx_filler/internal/cmd"
)

func main() {
	// 解析命令行参数
	args, err := cmd.ParseCommandLineArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		cmd.ShowUsage(os.Stderr)
		os.Exit(2)
	}

	// 处理版本和帮助信息
	if args.ShowVersion {
		fmt.Printf("%s v%s\n", cmd.AppName, cmd.AppVersion)
		return
	}

	if args.ShowHelp {
		cmd.ShowUsage(os.Stdout)
		return
	}

	// 设置日志级别
	if args.Verbose {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}

	// 验证参数
	if err := cmd.ValidateArgs(args); err != nil {
		log.Fatalf("参数验证失败: %v", err)
	}

	// 创建上下文
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if err := cmd.Run(ctx, args, log.Default(), os.Stdout); err != nil {
		log.Printf("处理失败: %v", err)
		stop()
		cancel()
		os.Exit(1)
	}
}
