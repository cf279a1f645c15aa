package models

import "fmt"

// CrawlConfig 爬取配置
type CrawlConfig struct {
	Headless       bool    `json:"headless" mapstructure:"headless"`                 // 无头模式(交互式验证时建议false)
	NavTimeout     int     `json:"nav_timeout" mapstructure:"nav_timeout"`           // 导航超时(秒)
	SettleWaitMin  float64 `json:"settle_wait_min" mapstructure:"settle_wait_min"`   // 导航后随机等待下限(秒)
	SettleWaitMax  float64 `json:"settle_wait_max" mapstructure:"settle_wait_max"`   // 导航后随机等待上限(秒)
	ItemDelayMin   float64 `json:"item_delay_min" mapstructure:"item_delay_min"`     // 商品间随机延迟下限(秒)
	ItemDelayMax   float64 `json:"item_delay_max" mapstructure:"item_delay_max"`     // 商品间随机延迟上限(秒)
	HomeURL        string  `json:"home_url" mapstructure:"home_url"`                 // 预热访问的站点首页
	URLPattern     string  `json:"url_pattern" mapstructure:"url_pattern"`           // 商品详情页URL正则
	SavePageSource bool    `json:"save_page_source" mapstructure:"save_page_source"` // 是否保存页面源码快照
}

// Validate 验证配置
func (c *CrawlConfig) Validate() error {
	if c.NavTimeout < 1 || c.NavTimeout > 300 {
		return fmt.Errorf("导航超时必须在1-300秒之间")
	}
	if c.SettleWaitMin < 0 || c.SettleWaitMax < c.SettleWaitMin {
		return fmt.Errorf("导航后等待区间无效: [%.1f, %.1f]", c.SettleWaitMin, c.SettleWaitMax)
	}
	if c.ItemDelayMin < 0 || c.ItemDelayMax < c.ItemDelayMin {
		return fmt.Errorf("商品间延迟区间无效: [%.1f, %.1f]", c.ItemDelayMin, c.ItemDelayMax)
	}
	if c.HomeURL == "" {
		return fmt.Errorf("站点首页URL不能为空")
	}
	return nil
}
