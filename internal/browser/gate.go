package browser

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/GoodsCrack1688/internal/models"
	"github.com/RecoveryAshes/GoodsCrack1688/internal/utils"
)

// 默认的验证拦截指示器
// 站点的拦截页会整体替换目标内容,所以每次导航后都必须检查
var (
	defaultGateKeywords = []string{
		"验证码", "captcha", "滑动验证", "点击验证", "拖动", "security", "robot",
	}
	defaultGateSelectors = []string{
		".captcha", "#captcha", `[class*="captcha"]`, `[id*="captcha"]`,
	}
)

// Resolver 验证拦截的恢复信号
// 阻塞直到验证被确认解决;交互运行用控制台确认,无人值守运行注入自动策略
type Resolver interface {
	Resolve(ctx context.Context, indicator string) error
}

// ConsoleResolver 控制台人工确认
// 操作员在浏览器中手动完成验证后按回车恢复
type ConsoleResolver struct{}

// 标准输入由单个常驻goroutine读取
// 上下文取消后不会残留阻塞的读取方,也不会让多个读取方争抢同一份输入
var (
	consoleOnce    sync.Once
	consoleConfirm chan error
)

func consoleConfirmChan() <-chan error {
	consoleOnce.Do(func() {
		consoleConfirm = make(chan error)
		go func() {
			reader := bufio.NewReader(os.Stdin)
			for {
				_, err := reader.ReadString('\n')
				consoleConfirm <- err
				if err != nil {
					return
				}
			}
		}()
	})
	return consoleConfirm
}

// Resolve 阻塞等待操作员按回车
func (r *ConsoleResolver) Resolve(ctx context.Context, indicator string) error {
	fmt.Println("📋 请在浏览器中手动完成验证,验证完成后按回车继续...")

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-consoleConfirmChan():
		return err
	}
}

// AutoResolver 无人值守自动恢复
// 等待固定时长后直接恢复(寄希望于拦截自行消失,通常配合多轮检查)
type AutoResolver struct {
	Delay time.Duration
}

// Resolve 等待配置的时长
func (r *AutoResolver) Resolve(ctx context.Context, indicator string) error {
	timer := time.NewTimer(r.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// AbandonResolver 直接放弃当前商品
type AbandonResolver struct{}

// Resolve 立即返回放弃错误
func (r *AbandonResolver) Resolve(ctx context.Context, indicator string) error {
	return models.ErrGateAbandoned
}

// Gate 验证拦截检测门
type Gate struct {
	keywords  []string
	selectors []string
	resolver  Resolver
	maxRounds int
}

// NewGate 用默认指示器创建检测门
func NewGate(resolver Resolver) *Gate {
	return &Gate{
		keywords:  defaultGateKeywords,
		selectors: defaultGateSelectors,
		resolver:  resolver,
		maxRounds: 3,
	}
}

// NewGateWithIndicators 用自定义指示器创建检测门
func NewGateWithIndicators(resolver Resolver, keywords, selectors []string, maxRounds int) *Gate {
	if maxRounds < 1 {
		maxRounds = 1
	}
	g := NewGate(resolver)
	if len(keywords) > 0 {
		g.keywords = keywords
	}
	if len(selectors) > 0 {
		g.selectors = selectors
	}
	g.maxRounds = maxRounds
	return g
}

// Detect 扫描页面源码中的拦截指示器
// 返回命中的指示器和是否命中
func (g *Gate) Detect(source string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(source))
	if err != nil {
		// 源码解析不了就退化为纯文本关键词匹配
		for _, keyword := range g.keywords {
			if strings.Contains(source, keyword) {
				return keyword, true
			}
		}
		return "", false
	}

	for _, sel := range g.selectors {
		if doc.Find(sel).Length() > 0 {
			return sel, true
		}
	}

	bodyText := doc.Find("body").Text()
	for _, keyword := range g.keywords {
		if strings.Contains(bodyText, keyword) {
			return keyword, true
		}
	}

	return "", false
}

// CheckAndWait 检查并等待验证解决
// 无拦截时立即返回false;检测到拦截时挂起等待恢复信号,解决后返回true
// 恢复后重新检查,超过最大轮数仍被拦截视为放弃
func (g *Gate) CheckAndWait(ctx context.Context, sess models.Session) (bool, error) {
	for round := 0; round < g.maxRounds; round++ {
		source, err := sess.PageSource()
		if err != nil {
			return false, fmt.Errorf("获取页面源码失败: %w", err)
		}

		indicator, found := g.Detect(source)
		if !found {
			return round > 0, nil
		}

		utils.Warnf("🔒 检测到验证拦截: %s (第%d/%d轮)", indicator, round+1, g.maxRounds)

		if err := g.resolver.Resolve(ctx, indicator); err != nil {
			return true, fmt.Errorf("%w: %v", models.ErrGateAbandoned, err)
		}
	}

	return true, fmt.Errorf("%w: 验证在%d轮确认后仍未通过", models.ErrGateAbandoned, g.maxRounds)
}
