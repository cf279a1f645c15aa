package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/GoodsCrack1688/internal/models"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Crawl   models.CrawlConfig `mapstructure:"crawl"`
	Gate    GateConfig         `mapstructure:"gate"`
	Images  ImagesConfig       `mapstructure:"images"`
	Logging LoggingConfig      `mapstructure:"logging"`
	Output  OutputConfig       `mapstructure:"output"`
}

// GateConfig 验证拦截检测配置
type GateConfig struct {
	Keywords         []string `mapstructure:"keywords"`           // 拦截指示关键词(空则用内置默认)
	Selectors        []string `mapstructure:"selectors"`          // 拦截指示CSS选择器(空则用内置默认)
	MaxRounds        int      `mapstructure:"max_rounds"`         // 恢复后最大重检轮数
	AutoResolve      bool     `mapstructure:"auto_resolve"`       // 无人值守: 等待后自动恢复而非控制台确认
	AutoResolveDelay int      `mapstructure:"auto_resolve_delay"` // 自动恢复前的等待(秒)
}

// ImagesConfig 图片下载配置
type ImagesConfig struct {
	Download bool `mapstructure:"download"` // 是否下载排名后的商品图片
	Workers  int  `mapstructure:"workers"`  // 下载并发数(同时限制对图片主机的压力)
	Timeout  int  `mapstructure:"timeout"`  // 单张图片请求超时(秒)
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// LoadConfig 加载配置文件
// 未指定路径时搜索 ./configs、当前目录和 ~/.goodscrack;找不到就用默认值
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".goodscrack"))
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 配置文件不存在时使用默认值,其他错误才失败
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 爬取配置默认值
	v.SetDefault("crawl.headless", false)
	v.SetDefault("crawl.nav_timeout", 60)
	v.SetDefault("crawl.settle_wait_min", 4.0)
	v.SetDefault("crawl.settle_wait_max", 7.0)
	v.SetDefault("crawl.item_delay_min", 3.0)
	v.SetDefault("crawl.item_delay_max", 8.0)
	v.SetDefault("crawl.home_url", "https://www.1688.com")
	v.SetDefault("crawl.url_pattern", `detail\.1688\.com/offer/\d+\.html`)
	v.SetDefault("crawl.save_page_source", false)

	// 验证拦截配置默认值
	v.SetDefault("gate.max_rounds", 3)
	v.SetDefault("gate.auto_resolve", false)
	v.SetDefault("gate.auto_resolve_delay", 30)

	// 图片下载配置默认值
	v.SetDefault("images.download", false)
	v.SetDefault("images.workers", 3)
	v.SetDefault("images.timeout", 15)

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 输出配置默认值
	v.SetDefault("output.base_dir", "output")
}
