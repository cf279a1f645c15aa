package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/RecoveryAshes/GoodsCrack1688/internal/models"
)

func TestDownloadAll(t *testing.T) {
	var gotReferer string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.jpg":
			gotReferer = r.Header.Get("Referer")
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("fake-jpeg-bytes"))
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}))
	defer server.Close()

	dir := t.TempDir()
	d := NewDownloader(dir, "20250101_120000", 2, 5*time.Second)

	images := []models.ImageCandidate{
		{URL: server.URL + "/ok.jpg", Source: models.SourceImgTag},
		{URL: server.URL + "/missing.jpg", Source: models.SourceRegex},
	}

	downloaded, failed := d.DownloadAll(context.Background(), 1, images)
	if downloaded != 1 || failed != 1 {
		t.Errorf("下载计数错误: 成功=%d 失败=%d", downloaded, failed)
	}

	// 文件名由(运行时间戳, 商品序号, 质量排名, 发现来源)唯一确定
	path := filepath.Join(dir, "product_20250101_120000_001_01_img_tag.jpg")
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("下载文件应存在: %v", err)
	}
	if string(content) != "fake-jpeg-bytes" {
		t.Error("下载内容不一致")
	}

	// 直接裸请求CDN会被拒绝,必须带详情页Referer
	if gotReferer != downloadReferer {
		t.Errorf("Referer头错误: %q", gotReferer)
	}
}

func TestDownloadAllEmpty(t *testing.T) {
	d := NewDownloader(t.TempDir(), "20250101_120000", 2, time.Second)
	downloaded, failed := d.DownloadAll(context.Background(), 1, nil)
	if downloaded != 0 || failed != 0 {
		t.Errorf("空列表应返回零计数: %d/%d", downloaded, failed)
	}
}

// 不同运行的时间戳不同,重跑同一商品不会覆盖上一次下载的图片
func TestDownloadAllNoOverwriteAcrossRuns(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte(strings.Trim(r.URL.Path, "/")))
	}))
	defer server.Close()

	dir := t.TempDir()
	d1 := NewDownloader(dir, "20250101_120000", 1, 5*time.Second)
	run1 := []models.ImageCandidate{{URL: server.URL + "/run1-bytes", Source: models.SourceImgTag}}
	if downloaded, _ := d1.DownloadAll(context.Background(), 1, run1); downloaded != 1 {
		t.Fatalf("第一次运行下载失败: %d", downloaded)
	}

	d2 := NewDownloader(dir, "20250101_130000", 1, 5*time.Second)
	run2 := []models.ImageCandidate{{URL: server.URL + "/run2-bytes", Source: models.SourceImgTag}}
	if downloaded, _ := d2.DownloadAll(context.Background(), 1, run2); downloaded != 1 {
		t.Fatalf("第二次运行下载失败: %d", downloaded)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "product_*_001_01_img_tag.jpg"))
	if err != nil {
		t.Fatalf("匹配图片产物失败: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("两次运行应各保留一份图片产物: 得到 %d 个", len(matches))
	}

	first, err := os.ReadFile(filepath.Join(dir, "product_20250101_120000_001_01_img_tag.jpg"))
	if err != nil {
		t.Fatalf("读取第一次运行的图片失败: %v", err)
	}
	if string(first) != "run1-bytes" {
		t.Errorf("第一次运行的图片内容被覆盖: %q", string(first))
	}
}

func TestImageExtension(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		contentType string
		want        string
	}{
		{"URL带扩展名", "https://cbu01.alicdn.com/img/a.png", "", "png"},
		{"按Content-Type推断", "https://cbu01.alicdn.com/img/a", "image/webp", "webp"},
		{"兜底jpg", "https://cbu01.alicdn.com/img/a", "application/octet-stream", "jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := imageExtension(tt.url, tt.contentType); got != tt.want {
				t.Errorf("扩展名推断错误: 期望 %q, 得到 %q", tt.want, got)
			}
		})
	}
}
