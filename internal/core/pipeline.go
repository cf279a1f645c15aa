package core

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/RecoveryAshes/GoodsCrack1688/internal/browser"
	"github.com/RecoveryAshes/GoodsCrack1688/internal/extract"
	"github.com/RecoveryAshes/GoodsCrack1688/internal/models"
	"github.com/RecoveryAshes/GoodsCrack1688/internal/utils"
)

// State 单商品处理的管道状态
type State string

const (
	StateIdle       State = "idle"
	StateNavigating State = "navigating"
	StateGateCheck  State = "gate_check"
	StateSimulating State = "simulating"
	StateExtracting State = "extracting"
	StateComplete   State = "complete"
	StateFailed     State = "failed"
)

// Simulator 人类行为模拟能力
// 由browser.Humanizer实现;纯副作用,不会失败
type Simulator interface {
	Simulate(ctx context.Context, sess models.Session)
	ScrollThrough(ctx context.Context, sess models.Session)
}

// Pipeline 单商品处理管道
// 状态流转: Idle → Navigating → GateCheck → Simulating → Extracting → Complete|Failed
// 字段缺失只降级记录;只有导航失败、验证放弃和提取异常会使商品失败
type Pipeline struct {
	sess      models.Session
	gate      *browser.Gate
	sim       Simulator
	collector *extract.Collector
	crawl     models.CrawlConfig

	// snapshot 非nil时在提取前保存页面源码快照
	snapshot func(index int, source string)

	state State
}

// NewPipeline 创建处理管道
func NewPipeline(sess models.Session, gate *browser.Gate, sim Simulator, crawl models.CrawlConfig) *Pipeline {
	return &Pipeline{
		sess:      sess,
		gate:      gate,
		sim:       sim,
		collector: extract.NewCollector(),
		crawl:     crawl,
		state:     StateIdle,
	}
}

// SetSnapshotFunc 设置页面源码快照回调
func (p *Pipeline) SetSnapshotFunc(fn func(index int, source string)) {
	p.snapshot = fn
}

// State 当前管道状态
func (p *Pipeline) State() State {
	return p.state
}

// Run 处理单个商品
// 失败返回*models.PipelineError,批次编排器据其Reason记账
func (p *Pipeline) Run(ctx context.Context, target string, index int) (*models.ProductRecord, error) {
	logger := utils.ItemLogger(index, target)

	// Idle → Navigating
	p.state = StateNavigating
	logger.Info().Msg("🔍 访问商品页面...")
	if err := p.sess.Navigate(ctx, target); err != nil {
		p.state = StateFailed
		return nil, models.NewPipelineError(models.ReasonNavigation,
			fmt.Errorf("%w: %v", models.ErrNavigation, err))
	}

	// 导航后随机等待,等动态内容就位
	sleepCtx(ctx, randomDuration(p.crawl.SettleWaitMin, p.crawl.SettleWaitMax))

	// Navigating → GateCheck
	// 拦截页会整体替换目标内容,每次导航后必须检查
	p.state = StateGateCheck
	resolved, err := p.gate.CheckAndWait(ctx, p.sess)
	if err != nil {
		p.state = StateFailed
		return nil, models.NewPipelineError(models.ReasonAbandoned, err)
	}
	if resolved {
		logger.Info().Msg("🔓 验证已解决,继续提取")
		sleepCtx(ctx, 2*time.Second)
	}

	// GateCheck → Simulating
	p.state = StateSimulating
	p.sim.Simulate(ctx, p.sess)

	// Simulating → Extracting
	p.state = StateExtracting
	record, err := p.extractRecord(ctx, target, index)
	if err != nil {
		p.state = StateFailed
		return nil, err
	}

	p.state = StateComplete
	logger.Info().
		Int("images", len(record.Images)).
		Int("specs", len(record.Specifications)).
		Msg("✅ 商品提取完成")
	return record, nil
}

// extractRecord 提取阶段
// 任何未预期的panic在此边界被捕获并转为提取异常,不会中断批次
func (p *Pipeline) extractRecord(ctx context.Context, target string, index int) (record *models.ProductRecord, perr error) {
	defer func() {
		if r := recover(); r != nil {
			utils.Errorf("提取过程panic: index=%d, url=%s, 错误=%v", index, target, r)
			record = nil
			perr = models.NewPipelineError(models.ReasonExtraction,
				fmt.Errorf("%w: %v", models.ErrExtraction, r))
		}
	}()

	source, err := p.sess.PageSource()
	if err != nil {
		return nil, models.NewPipelineError(models.ReasonExtraction,
			fmt.Errorf("%w: %v", models.ErrExtraction, err))
	}

	if p.snapshot != nil {
		p.snapshot(index, source)
	}

	// 重定向后的实际URL;拿不到就记原始目标
	currentURL, err := p.sess.CurrentURL()
	if err != nil {
		utils.Warnf("获取当前URL失败,使用原始链接: %v", err)
		currentURL = target
	}

	ex, err := extract.New(source)
	if err != nil {
		return nil, models.NewPipelineError(models.ReasonExtraction,
			fmt.Errorf("%w: %v", models.ErrExtraction, err))
	}

	record = &models.ProductRecord{
		Index:     index,
		URL:       currentURL,
		Timestamp: time.Now(),
	}

	// 字段提取: 未命中不是错误,只是记录降级
	record.Title, _ = ex.Title()
	record.Prices, _ = ex.Prices()
	record.Supplier, _ = ex.Supplier()
	record.Description, _ = ex.Description()
	record.MOQ, _ = ex.MOQ()
	record.Phones, _ = ex.Phones()
	if specs, ok := ex.Specifications(); ok {
		record.Specifications = specs
	}

	// 图片收集: 滚动触发懒加载后重扫一次
	record.Images = p.collector.Collect(source, func() (string, error) {
		p.sim.ScrollThrough(ctx, p.sess)
		return p.sess.PageSource()
	})

	return record, nil
}

// randomDuration 返回[min, max)秒之间的随机时长
func randomDuration(min, max float64) time.Duration {
	if max <= min {
		return time.Duration(min * float64(time.Second))
	}
	seconds := min + rand.Float64()*(max-min)
	return time.Duration(seconds * float64(time.Second))
}

// sleepCtx 可取消的休眠
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
