// Package worker chứa các tác vụ nền chạy định kỳ.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	campmodels "incentive_hub/internal/api/campaign/models"
	"incentive_hub/internal/logger"
)

// CampaignLifecycle các thao tác vòng đời chiến dịch mà worker cần (CampaignService thoả interface này)
type CampaignLifecycle interface {
	DueForActivation(ctx context.Context, nowMs int64) ([]campmodels.Campaign, error)
	DueForCompletion(ctx context.Context, nowMs int64) ([]campmodels.Campaign, error)
	ActivateCampaign(ctx context.Context, c *campmodels.Campaign) (*campmodels.Campaign, error)
	CompleteCampaign(ctx context.Context, c *campmodels.Campaign) (*campmodels.Campaign, error)
}

// CampaignLifecycleWorker tự kích hoạt chiến dịch nháp tới ngày bắt đầu (đã có chỉ tiêu)
// và kết thúc chiến dịch đang chạy đã qua ngày kết thúc.
type CampaignLifecycleWorker struct {
	campaigns   CampaignLifecycle
	interval    time.Duration // Khoảng thời gian giữa các lần chạy
	concurrency int           // Số chiến dịch xử lý song song tối đa
	now         func() time.Time
}

// RunStats kết quả một lần chạy
type RunStats struct {
	Activated int
	Completed int
	Failed    int
}

// NewCampaignLifecycleWorker tạo worker. interval < 1s dùng mặc định 1 phút; concurrency <= 0 dùng 4.
func NewCampaignLifecycleWorker(campaigns CampaignLifecycle, interval time.Duration, concurrency int) *CampaignLifecycleWorker {
	if interval < time.Second {
		interval = time.Minute
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &CampaignLifecycleWorker{
		campaigns:   campaigns,
		interval:    interval,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// SetClock thay đồng hồ (dùng trong test)
func (w *CampaignLifecycleWorker) SetClock(now func() time.Time) {
	w.now = now
}

// Start chạy ngay một lần rồi lặp theo interval cho tới khi ctx bị huỷ
func (w *CampaignLifecycleWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()
	log.WithFields(logrus.Fields{
		"interval":    w.interval.String(),
		"concurrency": w.concurrency,
	}).Info("⏰ [CAMPAIGN_WORKER] Starting Campaign Lifecycle Worker...")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info("⏰ [CAMPAIGN_WORKER] Campaign Lifecycle Worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce xử lý một lượt: kích hoạt rồi kết thúc. Lỗi từng chiến dịch chỉ được log, lượt sau thử lại.
func (w *CampaignLifecycleWorker) RunOnce(ctx context.Context) RunStats {
	var stats RunStats
	nowMs := w.now().UnixMilli()

	activated, failedA := w.process(ctx, "activate", nowMs, w.campaigns.DueForActivation, w.campaigns.ActivateCampaign)
	completed, failedC := w.process(ctx, "complete", nowMs, w.campaigns.DueForCompletion, w.campaigns.CompleteCampaign)
	stats.Activated, stats.Completed, stats.Failed = activated, completed, failedA+failedC

	if stats.Activated+stats.Completed+stats.Failed > 0 {
		logger.GetAppLogger().WithFields(logrus.Fields{
			"activated": stats.Activated,
			"completed": stats.Completed,
			"failed":    stats.Failed,
		}).Info("⏰ [CAMPAIGN_WORKER] Đã xử lý vòng đời chiến dịch")
	}
	return stats
}

func (w *CampaignLifecycleWorker) process(
	ctx context.Context,
	action string,
	nowMs int64,
	due func(context.Context, int64) ([]campmodels.Campaign, error),
	apply func(context.Context, *campmodels.Campaign) (*campmodels.Campaign, error),
) (int, int) {
	log := logger.GetAppLogger().WithField("action", action)
	if ctx.Err() != nil {
		return 0, 0
	}

	var list []campmodels.Campaign
	if err := safeCall(func() error {
		var err error
		list, err = due(ctx, nowMs)
		return err
	}); err != nil {
		log.WithError(err).Error("⏰ [CAMPAIGN_WORKER] Lỗi lấy danh sách chiến dịch đến hạn")
		return 0, 0
	}

	var ok, failed int64
	g := new(errgroup.Group)
	g.SetLimit(w.concurrency)
	for i := range list {
		c := &list[i]
		g.Go(func() error {
			err := safeCall(func() error {
				_, err := apply(ctx, c)
				return err
			})
			if err != nil {
				atomic.AddInt64(&failed, 1)
				log.WithError(err).WithField("campaign_id", c.ID.Hex()).Warn("⏰ [CAMPAIGN_WORKER] Xử lý chiến dịch thất bại, sẽ thử lại lần sau")
				return nil
			}
			atomic.AddInt64(&ok, 1)
			return nil
		})
	}
	_ = g.Wait()
	return int(ok), int(failed)
}

// safeCall chuyển panic thành error
func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
