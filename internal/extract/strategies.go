package extract

import "regexp"

// 各字段的提取策略表
// 按优先级排列,提取时取第一个命中的结果
// 适配新站点/新版式时只需调整表项,不需要改控制流

// titleSelectors 商品标题选择器(优先级从高到低)
// 页面<title>不在表内,它走带品牌词检查的兜底路径
var titleSelectors = []string{
	"h1", ".offer-title", ".d-title", ".detail-title",
	`[class*="title"]`, `[class*="name"]`, ".product-name",
	`[data-spm-anchor-id*="title"]`,
}

// brandToken 站点品牌词
// 页面标题兜底提取时,仍包含品牌词说明拿到的是站点通用标题,拒绝
const brandToken = "1688"

// priceSelectors 价格选择器
var priceSelectors = []string{
	".price", ".offer-price", ".d-price", ".unit-price",
	`[class*="price"]`, `[data-testid*="price"]`,
	".price-range", ".price-original", ".price-now",
}

// pricePatterns 价格正则(区间模式在前,避免被单价模式拆碎)
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`￥[\d,.]+-￥[\d,.]+`),
	regexp.MustCompile(`¥[\d,.]+-¥[\d,.]+`),
	regexp.MustCompile(`￥[\d,.]+`),
	regexp.MustCompile(`¥[\d,.]+`),
	regexp.MustCompile(`\d+\.\d+元`),
	regexp.MustCompile(`\d+\.\d+-\d+\.\d+`),
	regexp.MustCompile(`\d+\.\d+起`),
}

// priceMarkers 选择器文本必须包含的货币标记之一
var priceMarkers = []string{"￥", "¥", "元", "."}

// maxPriceCandidates 价格候选上限(阶梯价/区间价并存,返回候选而非单值)
const maxPriceCandidates = 3

// supplierSelectors 供应商选择器
var supplierSelectors = []string{
	".company-name", ".supplier-name", ".shop-name",
	`[class*="company"]`, `[class*="supplier"]`, `[class*="shop"]`,
}

// descSelectors 商品描述选择器
var descSelectors = []string{
	".description", ".detail-desc", ".product-desc",
	`[class*="desc"]`, `[class*="detail"]`,
}

// moqKeywords 起订量关键词标签
var moqKeywords = []string{"起订量", "最小", "MOQ", "起批"}

// phonePattern 大陆手机号
var phonePattern = regexp.MustCompile(`1[3-9]\d{9}`)

// maxPhones 联系电话上限
const maxPhones = 3

// imgAttrPriority 图片URL属性优先级(高清提示属性在默认src之前)
var imgAttrPriority = []string{
	"data-original", "data-src", "data-lazy", "src", "data-img", "data-url",
}

// imageExts 识别的图片扩展名
var imageExts = []string{".jpg", ".jpeg", ".png", ".webp", ".gif", ".bmp"}

// cdnHostToken 阿里图片CDN域名标记(无扩展名的CDN链接也接受)
const cdnHostToken = "alicdn.com"

// cdnPatterns 页面源码中的CDN图片URL模式
// 用于捕获内联脚本/样式里DOM查询不到的图片;通配子域模式已覆盖cbu*/img*等CDN主机
var cdnPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)https://[^"'\s]*\.alicdn\.com[^"'\s]*\.(?:jpg|jpeg|png|webp|gif)`),
}

// gallerySelectors 商品图片容器选择器
var gallerySelectors = []string{
	".offer-img", ".product-img", ".detail-img", ".gallery-img",
	`[class*="image"]`, `[class*="photo"]`, `[class*="pic"]`,
	".img-list", ".image-list", ".photo-list",
}

// imageBlacklist 非商品图片关键词(命中URL/alt/class任一即过滤)
var imageBlacklist = []string{
	"icon", "logo", "btn", "button", "arrow", "star", "rating",
	"header", "footer", "nav", "menu", "banner", "ad",
	"sprite", "background", "bg", "decoration",
}

// minImageDimension 声明尺寸的最小像素(仅在宽高都可知时生效)
const minImageDimension = 50

// 质量评分项
const (
	scoreSizeHint   = 100 // 文件名含大图/原图提示(_b.jpg, _large, _big)
	scoreCDNHost    = 50  // 首选CDN域名(cbu01.alicdn.com)
	scoreLargeDims  = 30  // 声明尺寸不小于200x200
	scoreImgTag     = 20  // 直接DOM属性策略发现(最可靠来源)
	largeDimension  = 200
)

// sizeHintTokens 大图文件名提示
var sizeHintTokens = []string{"_b.jpg", "_large", "_big"}

// preferredCDNHost 首选CDN域名
const preferredCDNHost = "cbu01.alicdn.com"
