package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RecoveryAshes/GoodsCrack1688/internal/models"
	"github.com/RecoveryAshes/GoodsCrack1688/internal/storage"
	"github.com/RecoveryAshes/GoodsCrack1688/internal/utils"
	"github.com/google/uuid"
)

// Orchestrator 批次编排器
// 顺序驱动单个浏览器会话处理目标列表,逐商品隔离失败,不做自动重试
// (重复请求会放大反爬怀疑,失败的商品留给下一次运行)
type Orchestrator struct {
	sess       models.Session
	pipeline   *Pipeline
	writer     *storage.Writer
	downloader *storage.Downloader // nil表示不下载图片
	crawl      models.CrawlConfig
}

// BatchSummary 一次批量运行的汇总
type BatchSummary struct {
	RunID        string
	Total        int
	SuccessCount int
	FailCount    int
	TotalImages  int
	Duration     float64
}

// NewOrchestrator 创建批次编排器
func NewOrchestrator(sess models.Session, pipeline *Pipeline, writer *storage.Writer, downloader *storage.Downloader, crawl models.CrawlConfig) *Orchestrator {
	return &Orchestrator{
		sess:       sess,
		pipeline:   pipeline,
		writer:     writer,
		downloader: downloader,
		crawl:      crawl,
	}
}

// Run 执行批量提取
// 先预热访问站点首页(带验证检查),再顺序处理每个目标:
// 成功立即持久化单品产物,失败记账后继续;商品间随机延迟3-8秒
// 返回成功记录、账本和批次级错误(聚合产物写入失败时非nil)
func (o *Orchestrator) Run(ctx context.Context, targets []string) ([]*models.ProductRecord, *models.BatchLedger, error) {
	ledger := &models.BatchLedger{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Total:     len(targets),
	}
	records := make([]*models.ProductRecord, 0, len(targets))

	utils.Infof("🚀 开始批量提取: %d个商品 (run_id=%s)", len(targets), ledger.RunID)
	startTime := time.Now()

	// 预热: 先访问站点首页,直接打详情页是典型的爬虫特征
	if err := o.warmUp(ctx); err != nil {
		return nil, ledger, fmt.Errorf("预热访问失败: %w", err)
	}

	bar := utils.NewProgressBar(len(targets), "批量提取")

	for i, target := range targets {
		index := i + 1

		// 操作员中止: 干净结束,已持久化的单品产物全部保留
		if ctx.Err() != nil {
			utils.Warn("收到中止信号,停止处理剩余商品")
			for j := i; j < len(targets); j++ {
				ledger.AddFailure(j+1, targets[j], models.ReasonAbandoned, ctx.Err())
			}
			break
		}

		utils.Infof("\n==================== [%d/%d] ====================", index, len(targets))
		utils.Infof("目标商品: %s", target)

		record, err := o.pipeline.Run(ctx, target, index)
		if err != nil {
			reason := models.ReasonExtraction
			var perr *models.PipelineError
			if errors.As(err, &perr) {
				reason = perr.Reason
			}
			ledger.AddFailure(index, target, reason, err)
			utils.Errorf("❌ 第 %d 个商品处理失败: %v", index, err)
		} else {
			records = append(records, record)
			ledger.Succeeded++

			// 立即持久化,崩溃时已完成的进度不丢失
			// 单品写入失败只丢产物文件,内存记录仍计入批次聚合
			if _, werr := o.writer.WriteItem(record); werr != nil {
				utils.Errorf("保存商品 %d 产物失败: %v", index, werr)
			}

			if o.downloader != nil && len(record.Images) > 0 {
				o.downloader.DownloadAll(ctx, index, record.Images)
			}
		}
		_ = bar.Add(1)

		// 商品间随机延迟(最后一个不需要)
		if i < len(targets)-1 && ctx.Err() == nil {
			delay := randomDuration(o.crawl.ItemDelayMin, o.crawl.ItemDelayMax)
			utils.Debugf("⏳ 等待 %.1f 秒后处理下一个商品...", delay.Seconds())
			sleepCtx(ctx, delay)
		}
	}

	duration := time.Since(startTime).Seconds()
	summary := &BatchSummary{
		RunID:        ledger.RunID,
		Total:        len(targets),
		SuccessCount: ledger.Succeeded,
		FailCount:    len(ledger.Failures),
		Duration:     duration,
	}
	for _, rec := range records {
		summary.TotalImages += len(rec.Images)
	}

	// 批次聚合产物: 失败时运行以非零状态结束,单品产物已写入的不受影响
	var batchErr error
	if len(records) > 0 {
		if _, err := o.writer.WriteBatch(records); err != nil {
			utils.Errorf("保存批量聚合产物失败: %v", err)
			batchErr = err
		}
		if _, err := o.writer.WriteSummary(records); err != nil {
			utils.Errorf("保存批量汇总失败: %v", err)
			if batchErr == nil {
				batchErr = err
			}
		}
	}

	o.printSummary(summary, ledger)

	return records, ledger, batchErr
}

// warmUp 预热访问站点首页并处理可能的验证拦截
// 首页导航失败不致命(详情页可能仍可达);验证放弃则整个运行中止
func (o *Orchestrator) warmUp(ctx context.Context) error {
	utils.Infof("📍 初始化: 访问站点首页 %s ...", o.crawl.HomeURL)

	if err := o.sess.Navigate(ctx, o.crawl.HomeURL); err != nil {
		utils.Warnf("首页访问失败,继续尝试商品页: %v", err)
		return nil
	}

	sleepCtx(ctx, randomDuration(o.crawl.SettleWaitMin, o.crawl.SettleWaitMax))

	if _, err := o.pipeline.gate.CheckAndWait(ctx, o.sess); err != nil {
		return err
	}
	return nil
}

// printSummary 打印批量处理汇总
func (o *Orchestrator) printSummary(summary *BatchSummary, ledger *models.BatchLedger) {
	utils.Info("\n==================================================")
	utils.Info("📊 批量提取汇总")
	utils.Info("==================================================")
	utils.Infof("总商品数: %d", summary.Total)
	utils.Infof("✅ 成功: %d", summary.SuccessCount)
	utils.Infof("❌ 失败: %d", summary.FailCount)
	utils.Infof("📸 图片候选总数: %d", summary.TotalImages)
	utils.Infof("⏱️  总耗时: %.2f秒", summary.Duration)
	utils.Info("==================================================")

	if len(ledger.Failures) > 0 {
		utils.Warn("\n失败的商品:")
		for _, failure := range ledger.Failures {
			utils.Warnf("  %d. %s (%s): %s", failure.Index, failure.URL, failure.Reason, failure.Error)
		}
	}
}
