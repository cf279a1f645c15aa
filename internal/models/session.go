package models

import "context"

// Session 浏览器会话能力契约
// 整个运行期间只有一个会话实例,由Batch独占持有,禁止并发访问
// (如需并行吞吐,必须复制独立会话,各自处理目标列表的一个切片)
type Session interface {
	// Navigate 导航到目标URL并等待页面加载完成
	// 超过导航超时时间返回错误
	Navigate(ctx context.Context, url string) error

	// PageSource 获取当前页面的完整HTML源码
	PageSource() (string, error)

	// CurrentURL 获取重定向后的当前URL
	CurrentURL() (string, error)

	// Eval 在页面上执行JavaScript函数
	// js必须是函数形式,如 `(y) => window.scrollBy(0, y)`
	Eval(js string, args ...interface{}) error

	// Close 关闭会话并释放浏览器资源
	Close() error
}
