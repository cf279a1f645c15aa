package extract

import (
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/GoodsCrack1688/internal/models"
	"github.com/RecoveryAshes/GoodsCrack1688/internal/utils"
)

// imageEntry 收集阶段的图片候选,class仅用于过滤,不进入最终记录
type imageEntry struct {
	candidate models.ImageCandidate
	class     string
}

// Collector 商品图片收集与质量排序
// 四路来源合并: img元素属性、源码正则、图片容器、滚动后懒加载
type Collector struct{}

// NewCollector 创建图片收集器
func NewCollector() *Collector {
	return &Collector{}
}

// Collect 收集并排序商品图片
// refresh触发滚动行为模拟并返回新的页面源码,用于捕获懒加载图片;可为nil
// 返回空列表是合法结果,不是错误
func (c *Collector) Collect(source string, refresh func() (string, error)) []models.ImageCandidate {
	seen := make(map[string]bool)
	entries := make([]*imageEntry, 0)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(source))
	if err != nil {
		utils.Warnf("解析页面源码失败,跳过图片收集: %v", err)
		return nil
	}

	// 来源1: 所有img元素,按属性优先级取URL
	c.collectImgTags(doc, seen, &entries, models.SourceImgTag)

	// 来源2: 源码正则扫描,捕获内联脚本/样式里的CDN图片
	for _, pattern := range cdnPatterns {
		for _, match := range pattern.FindAllString(source, -1) {
			if seen[match] {
				continue
			}
			seen[match] = true
			entries = append(entries, &imageEntry{
				candidate: models.ImageCandidate{URL: match, Source: models.SourceRegex},
			})
		}
	}

	// 来源3: 指定的商品图片容器
	for _, containerSel := range gallerySelectors {
		doc.Find(containerSel).Each(func(_ int, container *goquery.Selection) {
			container.Find("img").Each(func(_ int, img *goquery.Selection) {
				c.addImgElement(img, seen, &entries, models.SourceGallery)
			})
		})
	}

	// 来源4: 触发滚动后重扫一次,捕获懒加载图片
	if refresh != nil {
		if refreshed, err := refresh(); err != nil {
			utils.Warnf("滚动后刷新页面源码失败: %v", err)
		} else if lazyDoc, err := goquery.NewDocumentFromReader(strings.NewReader(refreshed)); err == nil {
			c.collectImgTags(lazyDoc, seen, &entries, models.SourceLazyLoad)
		}
	}

	// 过滤非商品图片
	kept := make([]*imageEntry, 0, len(entries))
	for _, entry := range entries {
		if c.isProductImage(entry) {
			kept = append(kept, entry)
		}
	}

	// 评分并按质量降序排列,同分保持发现顺序
	result := make([]models.ImageCandidate, 0, len(kept))
	for _, entry := range kept {
		entry.candidate.Score = c.score(&entry.candidate)
		result = append(result, entry.candidate)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Score > result[j].Score
	})

	return result
}

// collectImgTags 收集文档中所有img元素
func (c *Collector) collectImgTags(doc *goquery.Document, seen map[string]bool, entries *[]*imageEntry, origin models.ImageSource) {
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		c.addImgElement(img, seen, entries, origin)
	})
}

// addImgElement 解析单个img元素并加入候选(去重)
func (c *Collector) addImgElement(img *goquery.Selection, seen map[string]bool, entries *[]*imageEntry, origin models.ImageSource) {
	imgURL, ok := c.resolveURL(img)
	if !ok || seen[imgURL] {
		return
	}
	seen[imgURL] = true

	alt, _ := img.Attr("alt")
	class, _ := img.Attr("class")

	*entries = append(*entries, &imageEntry{
		candidate: models.ImageCandidate{
			URL:    imgURL,
			Alt:    alt,
			Width:  attrInt(img, "width"),
			Height: attrInt(img, "height"),
			Source: origin,
		},
		class: class,
	})
}

// resolveURL 按属性优先级解析img元素的图片URL
// 只接受带图片扩展名或CDN域名的绝对URL
func (c *Collector) resolveURL(img *goquery.Selection) (string, bool) {
	for _, attr := range imgAttrPriority {
		value, exists := img.Attr(attr)
		if !exists {
			continue
		}
		value = strings.TrimSpace(value)
		if !strings.HasPrefix(value, "http") {
			continue
		}

		lower := strings.ToLower(value)
		if hasImageExt(lower) || strings.Contains(lower, cdnHostToken) {
			return value, true
		}
	}
	return "", false
}

// isProductImage 判断是否为商品相关图片
// 过滤URL/alt/class命中黑名单关键词的装饰图,以及声明尺寸过小的图标
func (c *Collector) isProductImage(entry *imageEntry) bool {
	haystack := strings.ToLower(entry.candidate.URL + " " + entry.candidate.Alt + " " + entry.class)
	for _, keyword := range imageBlacklist {
		if strings.Contains(haystack, keyword) {
			return false
		}
	}

	w, h := entry.candidate.Width, entry.candidate.Height
	if w > 0 && h > 0 && (w < minImageDimension || h < minImageDimension) {
		return false
	}

	return true
}

// score 图片质量评分
func (c *Collector) score(img *models.ImageCandidate) int {
	score := 0
	lower := strings.ToLower(img.URL)

	for _, token := range sizeHintTokens {
		if strings.Contains(lower, token) {
			score += scoreSizeHint
			break
		}
	}
	if strings.Contains(lower, preferredCDNHost) {
		score += scoreCDNHost
	}
	if img.Width >= largeDimension && img.Height >= largeDimension {
		score += scoreLargeDims
	}
	if img.Source == models.SourceImgTag {
		score += scoreImgTag
	}

	return score
}

// hasImageExt URL是否带有识别的图片扩展名
func hasImageExt(lowerURL string) bool {
	for _, ext := range imageExts {
		if strings.Contains(lowerURL, ext) {
			return true
		}
	}
	return false
}

// attrInt 读取整数属性,解析失败视为未知(0)
func attrInt(s *goquery.Selection, name string) int {
	value, exists := s.Attr(name)
	if !exists {
		return 0
	}
	value = strings.TrimSuffix(strings.TrimSpace(value), "px")
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
