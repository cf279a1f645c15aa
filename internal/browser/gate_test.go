package browser

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/RecoveryAshes/GoodsCrack1688/internal/models"
)

const (
	cleanPage   = `<html><body><h1>不锈钢保温杯批发</h1><p>批发价:¥9.90</p></body></html>`
	captchaPage = `<html><body><div class="nc-container">请完成滑动验证后继续访问</div></body></html>`
)

// fakeGateSession 仅提供页面源码的假会话
type fakeGateSession struct {
	mu     sync.Mutex
	source string
}

func (f *fakeGateSession) Navigate(ctx context.Context, url string) error { return nil }

func (f *fakeGateSession) PageSource() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.source, nil
}

func (f *fakeGateSession) CurrentURL() (string, error) { return "", nil }

func (f *fakeGateSession) Eval(js string, args ...interface{}) error { return nil }

func (f *fakeGateSession) Close() error { return nil }

func (f *fakeGateSession) setSource(source string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.source = source
}

// flipResolver 模拟操作员完成验证: 恢复时把页面换成正常内容
type flipResolver struct {
	sess  *fakeGateSession
	calls int
}

func (r *flipResolver) Resolve(ctx context.Context, indicator string) error {
	r.calls++
	r.sess.setSource(cleanPage)
	return nil
}

// stuckResolver 恢复信号正常返回,但页面始终停留在拦截状态
type stuckResolver struct {
	calls int
}

func (r *stuckResolver) Resolve(ctx context.Context, indicator string) error {
	r.calls++
	return nil
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		wantFound bool
	}{
		{"关键词命中", captchaPage, true},
		{"class选择器命中", `<html><body><div class="captcha-slider"></div></body></html>`, true},
		{"id选择器命中", `<html><body><div id="captcha"></div></body></html>`, true},
		{"正常页面", cleanPage, false},
		{"空页面", "", false},
	}

	gate := NewGate(&AbandonResolver{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			indicator, found := gate.Detect(tt.source)
			if found != tt.wantFound {
				t.Errorf("检测结果错误: 期望 %v, 得到 %v (指示器=%q)", tt.wantFound, found, indicator)
			}
		})
	}
}

func TestCheckAndWaitNoGate(t *testing.T) {
	sess := &fakeGateSession{source: cleanPage}
	gate := NewGate(&AbandonResolver{})

	resolved, err := gate.CheckAndWait(context.Background(), sess)
	if err != nil {
		t.Fatalf("正常页面不应报错: %v", err)
	}
	if resolved {
		t.Error("未发生拦截时resolved应为false")
	}
}

func TestCheckAndWaitResolved(t *testing.T) {
	sess := &fakeGateSession{source: captchaPage}
	resolver := &flipResolver{sess: sess}
	gate := NewGate(resolver)

	resolved, err := gate.CheckAndWait(context.Background(), sess)
	if err != nil {
		t.Fatalf("验证解决后不应报错: %v", err)
	}
	if !resolved {
		t.Error("经历过拦截的检查resolved应为true")
	}
	if resolver.calls != 1 {
		t.Errorf("恢复信号应触发1次: 得到 %d", resolver.calls)
	}
}

func TestCheckAndWaitAbandoned(t *testing.T) {
	sess := &fakeGateSession{source: captchaPage}
	gate := NewGate(&AbandonResolver{})

	_, err := gate.CheckAndWait(context.Background(), sess)
	if !errors.Is(err, models.ErrGateAbandoned) {
		t.Errorf("放弃应返回ErrGateAbandoned: %v", err)
	}
}

func TestCheckAndWaitMaxRounds(t *testing.T) {
	sess := &fakeGateSession{source: captchaPage}
	resolver := &stuckResolver{}
	gate := NewGateWithIndicators(resolver, nil, nil, 2)

	_, err := gate.CheckAndWait(context.Background(), sess)
	if !errors.Is(err, models.ErrGateAbandoned) {
		t.Errorf("超过最大轮数应视为放弃: %v", err)
	}
	if resolver.calls != 2 {
		t.Errorf("恢复信号应触发2次: 得到 %d", resolver.calls)
	}
}

// 上下文取消后控制台确认必须立即返回,不能卡在输入等待上
func TestConsoleResolverCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &ConsoleResolver{}
	done := make(chan error, 1)
	go func() {
		done <- r.Resolve(ctx, "验证码")
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Error("取消后的确认不应成功")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("取消后的确认未及时返回")
	}
}

func TestCustomIndicators(t *testing.T) {
	gate := NewGateWithIndicators(&AbandonResolver{}, []string{"访问受限"}, []string{".deny"}, 3)

	if _, found := gate.Detect(`<html><body><p>您的访问受限,请稍后再试</p></body></html>`); !found {
		t.Error("自定义关键词应命中")
	}
	if _, found := gate.Detect(`<html><body><div class="deny"></div></body></html>`); !found {
		t.Error("自定义选择器应命中")
	}
	// 自定义指示器整体替换默认表
	if _, found := gate.Detect(captchaPage); found {
		t.Error("默认关键词不应再命中")
	}
}
