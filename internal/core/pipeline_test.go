package core

import (
	"context"
	"errors"
	"testing"

	"github.com/RecoveryAshes/GoodsCrack1688/internal/browser"
	"github.com/RecoveryAshes/GoodsCrack1688/internal/models"
)

const (
	testHomePage = `<html><body><p>首页</p></body></html>`

	testProductPage = `<html><head><title>货源页</title></head><body>
<h1>不锈钢保温杯批发</h1>
<div>批发价:¥9.90</div>
<img src="https://cbu01.alicdn.com/img/cup_b.jpg" width="400" height="400">
</body></html>`

	testGatePage = `<html><body><div class="nc-container">请输入验证码</div></body></html>`
)

// fakeSession 内存页面表驱动的假会话
type fakeSession struct {
	pages   map[string]string
	current string
	failNav map[string]bool

	sourceCalls     int
	failSourceAfter int // >0时,超过该次数的PageSource调用返回错误
}

func (f *fakeSession) Navigate(ctx context.Context, url string) error {
	if f.failNav[url] {
		return errors.New("net::ERR_TIMED_OUT")
	}
	f.current = url
	return nil
}

func (f *fakeSession) PageSource() (string, error) {
	f.sourceCalls++
	if f.failSourceAfter > 0 && f.sourceCalls > f.failSourceAfter {
		return "", errors.New("页面已关闭")
	}
	return f.pages[f.current], nil
}

func (f *fakeSession) CurrentURL() (string, error) { return f.current, nil }

func (f *fakeSession) Eval(js string, args ...interface{}) error { return nil }

func (f *fakeSession) Close() error { return nil }

// noopSimulator 测试中跳过行为模拟的等待
type noopSimulator struct{}

func (noopSimulator) Simulate(ctx context.Context, sess models.Session) {}

func (noopSimulator) ScrollThrough(ctx context.Context, sess models.Session) {}

// testCrawlConfig 所有等待都归零,测试不消耗真实时间
func testCrawlConfig() models.CrawlConfig {
	return models.CrawlConfig{
		NavTimeout: 30,
		HomeURL:    "https://www.1688.com",
	}
}

func newTestPipeline(sess models.Session, resolver browser.Resolver) *Pipeline {
	return NewPipeline(sess, browser.NewGate(resolver), noopSimulator{}, testCrawlConfig())
}

func TestPipelineRunSuccess(t *testing.T) {
	target := "https://detail.1688.com/offer/111.html"
	sess := &fakeSession{pages: map[string]string{target: testProductPage}}
	p := newTestPipeline(sess, &browser.AbandonResolver{})

	record, err := p.Run(context.Background(), target, 1)
	if err != nil {
		t.Fatalf("处理不应失败: %v", err)
	}

	if record.Index != 1 {
		t.Errorf("序号错误: %d", record.Index)
	}
	if record.URL != target {
		t.Errorf("URL错误: %s", record.URL)
	}
	if record.Title != "不锈钢保温杯批发" {
		t.Errorf("标题错误: %q", record.Title)
	}
	if len(record.Prices) == 0 || record.Prices[0] != "¥9.90" {
		t.Errorf("价格错误: %v", record.Prices)
	}
	if len(record.Images) != 1 {
		t.Fatalf("图片数量错误: %d", len(record.Images))
	}
	if record.Images[0].URL != "https://cbu01.alicdn.com/img/cup_b.jpg" {
		t.Errorf("图片URL错误: %s", record.Images[0].URL)
	}
	if record.Timestamp.IsZero() {
		t.Error("提取时间不应为零值")
	}
	if p.State() != StateComplete {
		t.Errorf("终态错误: %s", p.State())
	}
}

func TestPipelineRunNavigationFailure(t *testing.T) {
	target := "https://detail.1688.com/offer/222.html"
	sess := &fakeSession{
		pages:   map[string]string{},
		failNav: map[string]bool{target: true},
	}
	p := newTestPipeline(sess, &browser.AbandonResolver{})

	record, err := p.Run(context.Background(), target, 1)
	if record != nil {
		t.Error("失败时不应返回记录")
	}

	var perr *models.PipelineError
	if !errors.As(err, &perr) {
		t.Fatalf("应返回管道错误: %v", err)
	}
	if perr.Reason != models.ReasonNavigation {
		t.Errorf("失败原因错误: %s", perr.Reason)
	}
	if !errors.Is(err, models.ErrNavigation) {
		t.Errorf("应包装导航哨兵错误: %v", err)
	}
	if p.State() != StateFailed {
		t.Errorf("终态错误: %s", p.State())
	}
}

func TestPipelineRunGateAbandoned(t *testing.T) {
	target := "https://detail.1688.com/offer/333.html"
	sess := &fakeSession{pages: map[string]string{target: testGatePage}}
	p := newTestPipeline(sess, &browser.AbandonResolver{})

	_, err := p.Run(context.Background(), target, 1)

	var perr *models.PipelineError
	if !errors.As(err, &perr) {
		t.Fatalf("应返回管道错误: %v", err)
	}
	if perr.Reason != models.ReasonAbandoned {
		t.Errorf("失败原因错误: %s", perr.Reason)
	}
	if !errors.Is(err, models.ErrGateAbandoned) {
		t.Errorf("应包装放弃哨兵错误: %v", err)
	}
}

func TestPipelineRunSourceFailure(t *testing.T) {
	target := "https://detail.1688.com/offer/444.html"
	sess := &fakeSession{
		pages:           map[string]string{target: testProductPage},
		failSourceAfter: 1, // 验证检查拿到源码,提取阶段拿不到
	}
	p := newTestPipeline(sess, &browser.AbandonResolver{})

	_, err := p.Run(context.Background(), target, 1)

	var perr *models.PipelineError
	if !errors.As(err, &perr) {
		t.Fatalf("应返回管道错误: %v", err)
	}
	if perr.Reason != models.ReasonExtraction {
		t.Errorf("失败原因错误: %s", perr.Reason)
	}
}

// 字段缺失只产生降级记录,不构成失败
func TestPipelineRunDegradedFields(t *testing.T) {
	target := "https://detail.1688.com/offer/555.html"
	sess := &fakeSession{pages: map[string]string{
		target: `<html><body><p>页面还在加载</p></body></html>`,
	}}
	p := newTestPipeline(sess, &browser.AbandonResolver{})

	record, err := p.Run(context.Background(), target, 1)
	if err != nil {
		t.Fatalf("字段缺失不应失败: %v", err)
	}
	if record.Title != "" || len(record.Prices) != 0 || len(record.Images) != 0 {
		t.Errorf("字段应为空: %+v", record)
	}
}

func TestPipelineSnapshot(t *testing.T) {
	target := "https://detail.1688.com/offer/666.html"
	sess := &fakeSession{pages: map[string]string{target: testProductPage}}
	p := newTestPipeline(sess, &browser.AbandonResolver{})

	var gotIndex int
	var gotSource string
	p.SetSnapshotFunc(func(index int, source string) {
		gotIndex = index
		gotSource = source
	})

	if _, err := p.Run(context.Background(), target, 9); err != nil {
		t.Fatalf("处理不应失败: %v", err)
	}
	if gotIndex != 9 {
		t.Errorf("快照序号错误: %d", gotIndex)
	}
	if gotSource != testProductPage {
		t.Error("快照应保存提取时的页面源码")
	}
}
