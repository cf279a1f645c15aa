package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/RecoveryAshes/GoodsCrack1688/internal/models"
	"github.com/RecoveryAshes/GoodsCrack1688/internal/utils"
)

// utf8BOM CSV文件头,保证Excel正确识别中文
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Writer 提取结果的持久化写入器
// 所有产物文件名带运行时间戳,重跑永远不会覆盖上一次运行的产物
type Writer struct {
	baseDir  string
	runStamp string
}

// NewWriter 创建写入器并准备输出目录
func NewWriter(baseDir string) (*Writer, error) {
	return newWriterWithStamp(baseDir, time.Now().Format("20060102_150405"))
}

func newWriterWithStamp(baseDir, stamp string) (*Writer, error) {
	w := &Writer{baseDir: baseDir, runStamp: stamp}

	for _, dir := range []string{w.dataDir(), w.batchDir(), w.ImagesDir(), w.snapshotDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("创建输出目录失败: %w", err)
		}
	}

	return w, nil
}

// RunStamp 本次运行的时间戳
func (w *Writer) RunStamp() string {
	return w.runStamp
}

func (w *Writer) dataDir() string     { return filepath.Join(w.baseDir, "data") }
func (w *Writer) batchDir() string    { return filepath.Join(w.baseDir, "batch_results") }
func (w *Writer) snapshotDir() string { return filepath.Join(w.baseDir, "logs") }

// ImagesDir 图片输出目录
func (w *Writer) ImagesDir() string {
	return filepath.Join(w.baseDir, "images")
}

// WriteItem 写入单个商品产物(商品处理成功后立即调用,崩溃时保留已完成的进度)
func (w *Writer) WriteItem(rec *models.ProductRecord) (string, error) {
	path := filepath.Join(w.dataDir(), fmt.Sprintf("product_%s_%03d.json", w.runStamp, rec.Index))
	if err := w.writeJSON(path, rec); err != nil {
		return "", err
	}
	utils.Debugf("商品数据已保存: %s", path)
	return path, nil
}

// WriteBatch 写入整批成功记录的聚合产物
func (w *Writer) WriteBatch(records []*models.ProductRecord) (string, error) {
	path := filepath.Join(w.batchDir(), fmt.Sprintf("batch_%s.json", w.runStamp))
	if err := w.writeJSON(path, records); err != nil {
		return "", err
	}
	utils.Infof("✅ 批量JSON数据已保存: %s", path)
	return path, nil
}

// WriteSummary 写入CSV汇总表(每个商品一行)
func (w *Writer) WriteSummary(records []*models.ProductRecord) (string, error) {
	path := filepath.Join(w.batchDir(), fmt.Sprintf("batch_summary_%s.csv", w.runStamp))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("创建汇总文件失败: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(utf8BOM); err != nil {
		return "", fmt.Errorf("写入BOM失败: %w", err)
	}

	cw := csv.NewWriter(file)
	if err := cw.Write([]string{"序号", "URL", "商品标题", "价格", "供应商", "图片数量", "规格数量"}); err != nil {
		return "", fmt.Errorf("写入表头失败: %w", err)
	}

	for _, rec := range records {
		prices := rec.Prices
		if len(prices) > 2 {
			prices = prices[:2]
		}
		row := []string{
			strconv.Itoa(rec.Index),
			rec.URL,
			rec.Title,
			strings.Join(prices, " | "),
			rec.Supplier,
			strconv.Itoa(len(rec.Images)),
			strconv.Itoa(len(rec.Specifications)),
		}
		if err := cw.Write(row); err != nil {
			return "", fmt.Errorf("写入汇总行失败 (序号 %d): %w", rec.Index, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("刷新汇总文件失败: %w", err)
	}

	utils.Infof("✅ 批量CSV汇总已保存: %s", path)
	return path, nil
}

// WritePageSource 保存页面源码快照,用于事后排查提取失败
func (w *Writer) WritePageSource(index int, source string) (string, error) {
	path := filepath.Join(w.snapshotDir(), fmt.Sprintf("page_source_%s_%03d.html", w.runStamp, index))
	if err := os.WriteFile(path, []byte(source), 0644); err != nil {
		return "", fmt.Errorf("保存页面源码失败: %w", err)
	}
	return path, nil
}

// writeJSON 序列化并写入JSON文件
func (w *Writer) writeJSON(path string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}
	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("写入文件失败: %w", err)
	}
	return nil
}
