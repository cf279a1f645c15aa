package utils

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
)

// ReadTargetsFromFile 从文件读取商品链接列表
// 跳过空行和#开头的注释行;不匹配详情页模式的行告警并排除
func ReadTargetsFromFile(path string, pattern *regexp.Regexp) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开链接文件失败: %w", err)
	}
	defer file.Close()

	targets := make([]string, 0)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// 跳过空行和注释行
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if err := ValidateTargetURL(line, pattern); err != nil {
			Warnf("跳过无效链接 (行 %d): %s - %v", lineNum, line, err)
			continue
		}

		targets = append(targets, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取链接文件失败: %w", err)
	}

	if len(targets) == 0 {
		return nil, fmt.Errorf("链接文件中没有有效的商品链接")
	}

	Infof("从文件加载了 %d 个商品链接", len(targets))
	return targets, nil
}

// ValidateTargetURL 验证是否为有效的商品详情页链接
func ValidateTargetURL(rawURL string, pattern *regexp.Regexp) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("URL格式无效: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL协议必须是http或https")
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL缺少主机名")
	}

	if pattern != nil && !pattern.MatchString(rawURL) {
		return fmt.Errorf("不是商品详情页链接")
	}

	return nil
}
