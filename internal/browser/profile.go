package browser

import (
	"math/rand"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// userAgentPool 随机UA池
var userAgentPool = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// stealthScript 抑制navigator.webdriver自动化特征
// 在每个新文档求值前注入,缺失时只降低伪装效果,不影响功能
const stealthScript = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`

// Profile 一次运行的会话伪装配置
type Profile struct {
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
}

// NewProfile 生成随机会话配置
// 构建总是成功,没有失败模式
func NewProfile() *Profile {
	return &Profile{
		UserAgent:      userAgentPool[rand.Intn(len(userAgentPool))],
		ViewportWidth:  1920,
		ViewportHeight: 1080,
	}
}

// Apply 将配置应用到标签页
func (p *Profile) Apply(page *rod.Page) error {
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent: p.UserAgent,
	}); err != nil {
		return err
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             p.ViewportWidth,
		Height:            p.ViewportHeight,
		DeviceScaleFactor: 1,
		Mobile:            false,
	}); err != nil {
		return err
	}

	_, err := proto.PageAddScriptToEvaluateOnNewDocument{
		Source: stealthScript,
	}.Call(page)
	return err
}
