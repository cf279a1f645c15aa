package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extractor 对单个商品页面源码做字段提取
// 所有字段方法返回(值, 是否命中),字段缺失不是错误,只是记录降级
type Extractor struct {
	doc       *goquery.Document
	bodyText  string
	pageTitle string
}

// New 从页面源码构建提取器
func New(source string) (*Extractor, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("解析页面源码失败: %w", err)
	}

	return &Extractor{
		doc:       doc,
		bodyText:  doc.Find("body").Text(),
		pageTitle: strings.TrimSpace(doc.Find("title").First().Text()),
	}, nil
}

// firstText 按选择器表顺序找第一个文本长度超过minLen的元素
func (e *Extractor) firstText(selectors []string, minLen int) (string, bool) {
	for _, sel := range selectors {
		text := strings.TrimSpace(e.doc.Find(sel).First().Text())
		if len([]rune(text)) > minLen {
			return text, true
		}
	}
	return "", false
}

// Title 提取商品标题
// 选择器表未命中时回退到页面标题,仍含站点品牌词的通用标题被拒绝
func (e *Extractor) Title() (string, bool) {
	if title, ok := e.firstText(titleSelectors, 3); ok {
		return title, true
	}

	if e.pageTitle != "" && !strings.Contains(e.pageTitle, brandToken) {
		return e.pageTitle, true
	}

	return "", false
}

// Prices 提取价格候选
// 选择器文本(需含货币标记)与正文正则扫描的并集,去重后最多返回3个
// 页面上区间价/阶梯价并存是常态,因此返回候选列表而非单一价格
func (e *Extractor) Prices() ([]string, bool) {
	var prices []string
	seen := make(map[string]bool)

	add := func(text string) {
		text = strings.TrimSpace(text)
		if text == "" || seen[text] {
			return
		}
		seen[text] = true
		prices = append(prices, text)
	}

	// 策略1: 价格选择器
	for _, sel := range priceSelectors {
		e.doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if text == "" {
				return
			}
			for _, marker := range priceMarkers {
				if strings.Contains(text, marker) {
					add(text)
					return
				}
			}
		})
	}

	// 策略2: 正文正则扫描
	for _, pattern := range pricePatterns {
		for _, match := range pattern.FindAllString(e.bodyText, -1) {
			add(match)
		}
	}

	if len(prices) > maxPriceCandidates {
		prices = prices[:maxPriceCandidates]
	}

	return prices, len(prices) > 0
}

// Supplier 提取供应商名称
func (e *Extractor) Supplier() (string, bool) {
	return e.firstText(supplierSelectors, 2)
}

// Description 提取商品描述
func (e *Extractor) Description() (string, bool) {
	return e.firstText(descSelectors, 10)
}

// Specifications 提取规格参数
// 扫描所有表格,每行前两个单元格作为键值;重复键后者覆盖前者
func (e *Extractor) Specifications() (map[string]string, bool) {
	specs := make(map[string]string)

	e.doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() < 2 {
				return
			}
			key := strings.TrimSpace(cells.Eq(0).Text())
			value := strings.TrimSpace(cells.Eq(1).Text())
			if key != "" && value != "" {
				specs[key] = value
			}
		})
	})

	return specs, len(specs) > 0
}

// MOQ 提取最小起订量
// 查找"关键词: 数字"形式的文本
func (e *Extractor) MOQ() (string, bool) {
	for _, keyword := range moqKeywords {
		pattern := regexp.MustCompile(regexp.QuoteMeta(keyword) + `[：:]\s*(\d+)`)
		if match := pattern.FindStringSubmatch(e.bodyText); match != nil {
			return match[1], true
		}
	}
	return "", false
}

// Phones 提取联系电话
// 去重后最多返回3个
func (e *Extractor) Phones() ([]string, bool) {
	var phones []string
	seen := make(map[string]bool)

	for _, match := range phonePattern.FindAllString(e.bodyText, -1) {
		if seen[match] {
			continue
		}
		seen[match] = true
		phones = append(phones, match)
		if len(phones) >= maxPhones {
			break
		}
	}

	return phones, len(phones) > 0
}
