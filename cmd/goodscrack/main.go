package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"github.com/RecoveryAshes/GoodsCrack1688/internal/browser"
	"github.com/RecoveryAshes/GoodsCrack1688/internal/core"
	"github.com/RecoveryAshes/GoodsCrack1688/internal/storage"
	"github.com/RecoveryAshes/GoodsCrack1688/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	logLevel   string

	// 提取参数
	targetURL      string
	urlFile        string
	outputDir      string
	headless       bool
	downloadImages bool
	savePageSource bool

	// 无人值守参数
	autoResolve      bool
	autoResolveDelay int
)

var rootCmd = &cobra.Command{
	Use:   "goodscrack",
	Short: "1688商品信息批量提取工具",
	Long: `GoodsCrack1688 - 1688商品信息批量提取工具 (Go版本)

驱动真实浏览器会话批量提取商品详情页数据,支持:
  • 反检测浏览器配置和人类行为模拟
  • 验证码拦截检测与人工/自动恢复
  • 多策略字段提取(标题/价格/供应商/规格/起订量/联系方式)
  • 商品图片多路收集、去重和质量排序
  • 逐商品失败隔离的批量处理
  • JSON/CSV多格式输出和图片下载

使用示例:
  # 批量提取(链接文件每行一个,#开头为注释)
  goodscrack -f input.txt

  # 单个商品
  goodscrack -u "https://detail.1688.com/offer/775610063728.html"

  # 无人值守运行(检测到验证时等待后自动恢复)
  goodscrack -f input.txt --auto-resolve --headless

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		return nil
	},
	RunE: run,
}

func run(cmd *cobra.Command, args []string) error {
	if targetURL == "" && urlFile == "" {
		return cmd.Help()
	}

	config, err := core.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	mergeFlags(cmd, config)

	if err := ValidateFlags(config); err != nil {
		return err
	}

	pattern, err := regexp.Compile(config.Crawl.URLPattern)
	if err != nil {
		return fmt.Errorf("商品链接模式无效: %w", err)
	}

	// 收集目标链接
	var targets []string
	if urlFile != "" {
		targets, err = utils.ReadTargetsFromFile(urlFile, pattern)
		if err != nil {
			return fmt.Errorf("读取链接文件失败: %w", err)
		}
	} else {
		if err := utils.ValidateTargetURL(targetURL, pattern); err != nil {
			return fmt.Errorf("目标链接无效: %w", err)
		}
		targets = []string{targetURL}
	}

	// Ctrl+C优雅退出: 取消上下文,已持久化的单品产物全部保留
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		utils.Warnf("\n收到中断信号: %v, 正在优雅关闭...", sig)
		cancel()
	}()

	// 启动浏览器会话(整个运行独占一个实例)
	sess, err := browser.Open(browser.Options{
		Headless:   config.Crawl.Headless,
		NavTimeout: time.Duration(config.Crawl.NavTimeout) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("启动浏览器会话失败: %w", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			utils.Warnf("关闭浏览器会话失败: %v", cerr)
		}
	}()

	// 验证拦截恢复策略: 交互式控制台确认或无人值守自动恢复
	var resolver browser.Resolver
	if config.Gate.AutoResolve {
		resolver = &browser.AutoResolver{
			Delay: time.Duration(config.Gate.AutoResolveDelay) * time.Second,
		}
	} else {
		resolver = &browser.ConsoleResolver{}
	}
	gate := browser.NewGateWithIndicators(resolver, config.Gate.Keywords, config.Gate.Selectors, config.Gate.MaxRounds)

	writer, err := storage.NewWriter(config.Output.BaseDir)
	if err != nil {
		return fmt.Errorf("准备输出目录失败: %w", err)
	}

	var downloader *storage.Downloader
	if config.Images.Download {
		downloader = storage.NewDownloader(writer.ImagesDir(), writer.RunStamp(),
			config.Images.Workers, time.Duration(config.Images.Timeout)*time.Second)
	}

	pipeline := core.NewPipeline(sess, gate, browser.NewHumanizer(), config.Crawl)
	if config.Crawl.SavePageSource {
		pipeline.SetSnapshotFunc(func(index int, source string) {
			if _, serr := writer.WritePageSource(index, source); serr != nil {
				utils.Warnf("保存页面源码快照失败: %v", serr)
			}
		})
	}

	orchestrator := core.NewOrchestrator(sess, pipeline, writer, downloader, config.Crawl)

	records, ledger, err := orchestrator.Run(ctx, targets)
	if err != nil {
		return fmt.Errorf("批量提取失败: %w", err)
	}

	utils.Infof("✨ 批量提取任务完成! 成功 %d / 失败 %d (run_id=%s)",
		len(records), len(ledger.Failures), ledger.RunID)
	return nil
}

// mergeFlags 合并命令行参数到配置(命令行优先)
func mergeFlags(cmd *cobra.Command, config *core.Config) {
	if cmd.Flags().Changed("headless") {
		config.Crawl.Headless = headless
	}
	if cmd.Flags().Changed("download-images") {
		config.Images.Download = downloadImages
	}
	if cmd.Flags().Changed("save-page-source") {
		config.Crawl.SavePageSource = savePageSource
	}
	if cmd.Flags().Changed("auto-resolve") {
		config.Gate.AutoResolve = autoResolve
	}
	if cmd.Flags().Changed("auto-resolve-delay") {
		config.Gate.AutoResolveDelay = autoResolveDelay
	}
	if outputDir != "" {
		config.Output.BaseDir = outputDir
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("GoodsCrack1688 %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// 提取参数
	rootCmd.Flags().StringVarP(&targetURL, "url", "u", "", "单个商品链接 (与 --url-file 二选一)")
	rootCmd.Flags().StringVarP(&urlFile, "url-file", "f", "", "商品链接列表文件路径")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "输出目录 (默认 output)")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "无头浏览器模式 (人工过验证时请关闭)")
	rootCmd.Flags().BoolVar(&downloadImages, "download-images", false, "下载排名后的商品图片")
	rootCmd.Flags().BoolVar(&savePageSource, "save-page-source", false, "保存每个商品的页面源码快照")

	// 无人值守参数
	rootCmd.Flags().BoolVar(&autoResolve, "auto-resolve", false, "检测到验证拦截时等待后自动恢复(无人值守)")
	rootCmd.Flags().IntVar(&autoResolveDelay, "auto-resolve-delay", 30, "自动恢复前的等待时间(秒)")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
