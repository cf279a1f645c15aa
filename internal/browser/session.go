package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/RecoveryAshes/GoodsCrack1688/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Options 浏览器会话选项
type Options struct {
	Headless   bool          // 无头模式(需要人工过验证时建议关闭)
	NavTimeout time.Duration // 单次导航超时
}

// RodSession 基于Rod的浏览器会话
// 实现models.Session,整个运行期间独占一个浏览器实例和一个标签页
type RodSession struct {
	browser    *rod.Browser
	launcher   *launcher.Launcher
	page       *rod.Page
	profile    *Profile
	navTimeout time.Duration
}

// Open 启动浏览器并建立会话
// 启动时应用一次反检测配置(随机UA、视口、自动化特征抑制脚本)
func Open(opts Options) (*RodSession, error) {
	profile := NewProfile()

	l := launcher.New().Headless(opts.Headless)
	l = l.Set("disable-blink-features", "AutomationControlled")
	l = l.Set("disable-extensions")
	l = l.Set("no-sandbox")
	l = l.Set("disable-dev-shm-usage")
	l = l.Set("disable-gpu")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		browser.MustClose()
		l.Kill()
		return nil, fmt.Errorf("创建标签页失败: %w", err)
	}

	if err := profile.Apply(page); err != nil {
		// 反检测配置失败只降低伪装效果,不终止会话
		utils.Warnf("应用反检测配置失败: %v", err)
	}

	utils.Infof("✅ 浏览器启动成功 (UA: %s)", profile.UserAgent)

	return &RodSession{
		browser:    browser,
		launcher:   l,
		page:       page,
		profile:    profile,
		navTimeout: opts.NavTimeout,
	}, nil
}

// Navigate 导航到目标URL并等待页面加载完成
func (s *RodSession) Navigate(ctx context.Context, url string) error {
	page := s.page.Context(ctx).Timeout(s.navTimeout)

	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("导航到 %s 失败: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("等待页面加载失败 [%s]: %w", url, err)
	}

	utils.Debugf("页面加载完成: %s", url)
	return nil
}

// PageSource 获取当前页面HTML源码
func (s *RodSession) PageSource() (string, error) {
	html, err := s.page.HTML()
	if err != nil {
		return "", fmt.Errorf("获取页面源码失败: %w", err)
	}
	return html, nil
}

// CurrentURL 获取重定向后的当前URL
func (s *RodSession) CurrentURL() (string, error) {
	info, err := s.page.Info()
	if err != nil {
		return "", fmt.Errorf("获取页面信息失败: %w", err)
	}
	return info.URL, nil
}

// Eval 在页面上执行JavaScript函数
func (s *RodSession) Eval(js string, args ...interface{}) error {
	if _, err := s.page.Eval(js, args...); err != nil {
		return fmt.Errorf("执行脚本失败: %w", err)
	}
	return nil
}

// Close 关闭会话并释放浏览器资源
func (s *RodSession) Close() error {
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			return fmt.Errorf("关闭浏览器失败: %w", err)
		}
	}
	if s.launcher != nil {
		s.launcher.Kill()
	}
	utils.Debug("浏览器已关闭")
	return nil
}
