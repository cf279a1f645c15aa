package browser

import (
	"context"
	"math/rand"
	"time"

	"github.com/RecoveryAshes/GoodsCrack1688/internal/models"
	"github.com/RecoveryAshes/GoodsCrack1688/internal/utils"
)

// Humanizer 人类浏览行为模拟
// 在导航和提取之间执行随机滚动和鼠标移动,降低行为指纹特征
// 纯副作用,脚本执行失败只记日志不向上传播(伪装动作,不是正确性步骤)
type Humanizer struct{}

// NewHumanizer 创建行为模拟器
func NewHumanizer() *Humanizer {
	return &Humanizer{}
}

// Simulate 执行一轮随机浏览行为
// 2-5次随机滚动(每次100-500px,间隔0.3-1.5秒),随后停顿0.5-3秒
func (h *Humanizer) Simulate(ctx context.Context, sess models.Session) {
	scrolls := 2 + rand.Intn(4)
	for i := 0; i < scrolls; i++ {
		if ctx.Err() != nil {
			return
		}

		scrollY := 100 + rand.Intn(401)
		if err := sess.Eval(`(y) => window.scrollBy(0, y)`, scrollY); err != nil {
			utils.Debugf("模拟滚动失败: %v", err)
		}

		h.dispatchMouseMove(sess)
		sleepCtx(ctx, jitter(0.3, 1.5))
	}

	// 浏览后停顿
	sleepCtx(ctx, jitter(0.5, 3.0))
}

// ScrollThrough 分段滚动整个页面以触发懒加载
// 先到底部再回顶部,然后按视口高度逐屏下移
func (h *Humanizer) ScrollThrough(ctx context.Context, sess models.Session) {
	if err := sess.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
		utils.Debugf("滚动到底部失败: %v", err)
	}
	sleepCtx(ctx, time.Second)

	if err := sess.Eval(`() => window.scrollTo(0, 0)`); err != nil {
		utils.Debugf("滚动到顶部失败: %v", err)
	}
	sleepCtx(ctx, time.Second)

	err := sess.Eval(`async () => {
		const step = window.innerHeight;
		const total = document.body.scrollHeight;
		for (let y = 0; y < total; y += step) {
			window.scrollTo(0, y);
			await new Promise(r => setTimeout(r, 500));
		}
	}`)
	if err != nil {
		utils.Debugf("分段滚动失败: %v", err)
	}

	// 给懒加载的图片留出请求时间
	sleepCtx(ctx, 2*time.Second)
}

// dispatchMouseMove 通过JS派发随机鼠标移动事件
func (h *Humanizer) dispatchMouseMove(sess models.Session) {
	x := 100 + rand.Intn(701)
	y := 100 + rand.Intn(501)
	err := sess.Eval(`(x, y) => {
		const event = new MouseEvent('mousemove', {
			view: window,
			bubbles: true,
			cancelable: true,
			clientX: x,
			clientY: y,
		});
		document.dispatchEvent(event);
	}`, x, y)
	if err != nil {
		utils.Debugf("模拟鼠标移动失败: %v", err)
	}
}

// jitter 返回[min, max)秒之间的随机时长
func jitter(min, max float64) time.Duration {
	seconds := min + rand.Float64()*(max-min)
	return time.Duration(seconds * float64(time.Second))
}

// sleepCtx 可取消的休眠
func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
