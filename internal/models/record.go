package models

import (
	"time"
)

// ImageSource 图片发现来源
type ImageSource string

const (
	SourceImgTag   ImageSource = "img_tag"       // 直接从img元素属性发现(最可靠)
	SourceRegex    ImageSource = "regex_extract" // 页面源码正则提取
	SourceGallery  ImageSource = "container"     // 商品图片容器内发现
	SourceLazyLoad ImageSource = "lazy_load"     // 滚动后懒加载发现
)

// ImageCandidate 一张去重后的商品图片候选
// 同一商品记录内URL唯一,列表按Score降序排列
type ImageCandidate struct {
	URL    string      `json:"url"`
	Alt    string      `json:"alt,omitempty"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Source ImageSource `json:"source"`
	Score  int         `json:"score"`
}

// ProductRecord 单个商品的提取结果
// 由Item Pipeline创建,返回后不再修改
type ProductRecord struct {
	Index          int               `json:"index"`                    // 批次内序号(从1开始)
	URL            string            `json:"url"`                      // 重定向后的实际URL
	Timestamp      time.Time         `json:"timestamp"`                // 提取时间
	Title          string            `json:"title,omitempty"`          // 商品标题
	Prices         []string          `json:"price,omitempty"`          // 价格候选(原始文本,最多3个)
	Supplier       string            `json:"supplier,omitempty"`       // 供应商名称
	Specifications map[string]string `json:"specifications,omitempty"` // 规格参数
	Description    string            `json:"description,omitempty"`    // 商品描述
	MOQ            string            `json:"moq,omitempty"`            // 最小起订量
	Phones         []string          `json:"contact_phones,omitempty"` // 联系电话(去重,最多3个)
	Images         []ImageCandidate  `json:"images"`                   // 质量排序后的图片候选
}

// FailReason 单个商品处理失败的原因分类
type FailReason string

const (
	ReasonNavigation FailReason = "navigation"           // 导航失败/超时
	ReasonAbandoned  FailReason = "abandoned"            // 验证等待被放弃
	ReasonExtraction FailReason = "extraction-exception" // 提取过程异常
)

// LedgerEntry 失败商品的记账条目
type LedgerEntry struct {
	Index  int        `json:"index"`
	URL    string     `json:"url"`
	Reason FailReason `json:"reason"`
	Error  string     `json:"error"`
}

// BatchLedger 一次运行的成功/失败账本
// 仅用于运行结束时的汇总,不要求持久化
type BatchLedger struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failures  []LedgerEntry `json:"failures"`
}

// AddFailure 记录一条失败
func (l *BatchLedger) AddFailure(index int, url string, reason FailReason, err error) {
	entry := LedgerEntry{
		Index:  index,
		URL:    url,
		Reason: reason,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	l.Failures = append(l.Failures, entry)
}
