package core

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("加载默认配置失败: %v", err)
	}

	if config.Crawl.NavTimeout != 60 {
		t.Errorf("默认导航超时错误: %d", config.Crawl.NavTimeout)
	}
	if config.Crawl.SettleWaitMin != 4.0 || config.Crawl.SettleWaitMax != 7.0 {
		t.Errorf("默认导航后等待区间错误: [%.1f, %.1f]", config.Crawl.SettleWaitMin, config.Crawl.SettleWaitMax)
	}
	if config.Crawl.ItemDelayMin != 3.0 || config.Crawl.ItemDelayMax != 8.0 {
		t.Errorf("默认商品间延迟区间错误: [%.1f, %.1f]", config.Crawl.ItemDelayMin, config.Crawl.ItemDelayMax)
	}
	if config.Crawl.HomeURL != "https://www.1688.com" {
		t.Errorf("默认首页错误: %s", config.Crawl.HomeURL)
	}
	if config.Gate.MaxRounds != 3 {
		t.Errorf("默认重检轮数错误: %d", config.Gate.MaxRounds)
	}
	if config.Images.Workers != 3 || config.Images.Timeout != 15 {
		t.Errorf("默认图片下载配置错误: workers=%d timeout=%d", config.Images.Workers, config.Images.Timeout)
	}
	if config.Output.BaseDir != "output" {
		t.Errorf("默认输出目录错误: %s", config.Output.BaseDir)
	}
	if config.Logging.Level != "info" {
		t.Errorf("默认日志级别错误: %s", config.Logging.Level)
	}

	if err := config.Crawl.Validate(); err != nil {
		t.Errorf("默认配置应通过校验: %v", err)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	content := `crawl:
  headless: true
  nav_timeout: 90
gate:
  max_rounds: 5
  auto_resolve: true
  auto_resolve_delay: 60
output:
  base_dir: results
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("加载配置文件失败: %v", err)
	}

	if !config.Crawl.Headless || config.Crawl.NavTimeout != 90 {
		t.Errorf("文件配置未生效: headless=%v timeout=%d", config.Crawl.Headless, config.Crawl.NavTimeout)
	}
	if config.Gate.MaxRounds != 5 || !config.Gate.AutoResolve || config.Gate.AutoResolveDelay != 60 {
		t.Errorf("验证拦截配置未生效: %+v", config.Gate)
	}
	if config.Output.BaseDir != "results" {
		t.Errorf("输出目录未生效: %s", config.Output.BaseDir)
	}
	// 未指定的键回落到默认值
	if config.Crawl.HomeURL != "https://www.1688.com" {
		t.Errorf("缺省键应用默认值: %s", config.Crawl.HomeURL)
	}
}

func TestLoadConfigBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("crawl: [格式错误"), 0644); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("格式错误的配置文件应报错")
	}
}

func TestCrawlConfigValidate(t *testing.T) {
	base := testCrawlConfig()

	if err := base.Validate(); err != nil {
		t.Errorf("基准配置应通过校验: %v", err)
	}

	bad := base
	bad.NavTimeout = 0
	if err := bad.Validate(); err == nil {
		t.Error("零超时应校验失败")
	}

	bad = base
	bad.SettleWaitMin = 5
	bad.SettleWaitMax = 2
	if err := bad.Validate(); err == nil {
		t.Error("倒置的等待区间应校验失败")
	}

	bad = base
	bad.HomeURL = ""
	if err := bad.Validate(); err == nil {
		t.Error("空首页URL应校验失败")
	}
}
