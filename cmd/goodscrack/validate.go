package main

import (
	"fmt"

	"github.com/RecoveryAshes/GoodsCrack1688/internal/core"
)

// ValidateFlags 验证合并后的运行配置
func ValidateFlags(config *core.Config) error {
	if targetURL != "" && urlFile != "" {
		return fmt.Errorf("--url 和 --url-file 只能指定一个")
	}

	if err := config.Crawl.Validate(); err != nil {
		return fmt.Errorf("爬取配置无效: %w", err)
	}

	if config.Gate.MaxRounds < 1 || config.Gate.MaxRounds > 10 {
		return fmt.Errorf("验证重检轮数必须在1-10之间")
	}
	if config.Gate.AutoResolve && config.Gate.AutoResolveDelay < 1 {
		return fmt.Errorf("自动恢复等待时间必须大于0秒")
	}

	if config.Images.Workers < 1 || config.Images.Workers > 16 {
		return fmt.Errorf("图片下载并发数必须在1-16之间")
	}
	if config.Images.Timeout < 1 || config.Images.Timeout > 120 {
		return fmt.Errorf("图片下载超时必须在1-120秒之间")
	}

	return nil
}
