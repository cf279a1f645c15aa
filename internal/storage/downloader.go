package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/RecoveryAshes/GoodsCrack1688/internal/models"
	"github.com/RecoveryAshes/GoodsCrack1688/internal/utils"
)

// 图片请求使用浏览器式头部,直接裸请求CDN会被拒绝
const (
	downloadUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	downloadReferer   = "https://detail.1688.com/"
	downloadAccept    = "image/webp,image/apng,image/*,*/*;q=0.8"
)

// knownImageExts 从URL推断扩展名时识别的集合
var knownImageExts = []string{"jpg", "jpeg", "png", "webp", "gif", "bmp"}

// Downloader 商品图片下载器
// 图片下载相互独立且HTTP客户端无状态,用小规模worker池并行,
// 池上限同时起到对图片主机的限速作用
type Downloader struct {
	client    *http.Client
	imagesDir string
	runStamp  string
	workers   int
}

// NewDownloader 创建下载器
// runStamp与其他产物使用同一运行时间戳,重跑不会覆盖上一次的图片
func NewDownloader(imagesDir, runStamp string, workers int, timeout time.Duration) *Downloader {
	if workers < 1 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Downloader{
		client:    &http.Client{Timeout: timeout},
		imagesDir: imagesDir,
		runStamp:  runStamp,
		workers:   workers,
	}
}

type downloadJob struct {
	rank  int
	image models.ImageCandidate
}

// DownloadAll 下载一个商品的全部排名图片
// 单张失败只记日志并跳过,不影响商品和批次;返回(成功数, 失败数)
func (d *Downloader) DownloadAll(ctx context.Context, productIndex int, images []models.ImageCandidate) (int, int) {
	if len(images) == 0 {
		return 0, 0
	}

	utils.Infof("📸 开始下载商品 %d 的 %d 张图片...", productIndex, len(images))
	bar := utils.NewProgressBar(len(images), fmt.Sprintf("商品%03d图片", productIndex))

	jobs := make(chan downloadJob)
	var wg sync.WaitGroup
	var mu sync.Mutex
	downloaded, failed := 0, 0

	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				err := d.downloadOne(ctx, productIndex, job.rank, job.image)
				mu.Lock()
				if err != nil {
					failed++
					utils.Warnf("❌ 商品 %d 图片 %d 下载失败: %v", productIndex, job.rank, err)
				} else {
					downloaded++
				}
				mu.Unlock()
				_ = bar.Add(1)
			}
		}()
	}

	for rank, img := range images {
		select {
		case <-ctx.Done():
			// 取消时不再投递新任务,在途任务自行结束
			close(jobs)
			wg.Wait()
			return downloaded, failed
		case jobs <- downloadJob{rank: rank + 1, image: img}:
		}
	}
	close(jobs)
	wg.Wait()

	utils.Infof("📊 商品 %d 图片下载完成: 成功 %d 张, 失败 %d 张", productIndex, downloaded, failed)
	return downloaded, failed
}

// downloadOne 下载单张图片
// 文件名由(运行时间戳, 商品序号, 质量排名, 发现来源)唯一确定
func (d *Downloader) downloadOne(ctx context.Context, productIndex, rank int, img models.ImageCandidate) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, img.URL, nil)
	if err != nil {
		return fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("User-Agent", downloadUserAgent)
	req.Header.Set("Referer", downloadReferer)
	req.Header.Set("Accept", downloadAccept)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("请求图片失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取图片内容失败: %w", err)
	}

	ext := imageExtension(img.URL, resp.Header.Get("Content-Type"))
	filename := fmt.Sprintf("product_%s_%03d_%02d_%s.%s", d.runStamp, productIndex, rank, img.Source, ext)
	path := filepath.Join(d.imagesDir, filename)

	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("保存图片失败: %w", err)
	}

	utils.Debugf("✅ 图片已下载: %s (%.1fKB)", path, float64(len(content))/1024)
	return nil
}

// imageExtension 推断图片扩展名: 先看URL,再看Content-Type,最后兜底jpg
func imageExtension(url, contentType string) string {
	lower := strings.ToLower(url)
	for _, ext := range knownImageExts {
		if strings.Contains(lower, "."+ext) {
			return ext
		}
	}

	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "jpg"):
		return "jpg"
	case strings.Contains(ct, "png"):
		return "png"
	case strings.Contains(ct, "webp"):
		return "webp"
	case strings.Contains(ct, "gif"):
		return "gif"
	}

	return "jpg"
}
