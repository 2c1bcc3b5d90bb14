// Package jobs はcronで定期実行するメンテナンスジョブです。
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// 1回のジョブ実行にかける最大時間
const jobTimeout = 30 * time.Second

// ResetTokenCleaner は期限切れ・使用済みのリセットトークンを削除します (services.UserService)。
type ResetTokenCleaner interface {
	CleanupResetTokens(ctx context.Context) (int64, error)
}

// CleanupRecorder は削除件数を記録します (metrics.Metrics)。
type CleanupRecorder interface {
	ResetTokensCleaned(n int64)
}

// LimiterCleaner は使われていないレート制限の状態を捨てます (routes.RateLimiter)。
type LimiterCleaner interface {
	Cleanup(idle time.Duration) int
}

// Scheduler は robfig/cron のラッパーです。
type Scheduler struct {
	cron   *cron.Cron
	logger logrus.FieldLogger
}

func NewScheduler(logger logrus.FieldLogger) *Scheduler {
	cl := cron.PrintfLogger(logger)
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger: logger,
	}
}

// AddResetTokenCleanup はリセットトークンの掃除を登録します。
func (s *Scheduler) AddResetTokenCleanup(spec string, cleaner ResetTokenCleaner, recorder CleanupRecorder) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if _, err := CleanupResetTokens(ctx, cleaner, recorder, s.logger); err != nil {
			s.logger.WithError(err).Error("reset token cleanup failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reset token cleanup schedule %q: %w", spec, err)
	}
	return nil
}

// AddLimiterCleanup はレートリミッターの掃除を登録します。
func (s *Scheduler) AddLimiterCleanup(spec string, limiter LimiterCleaner, idle time.Duration) error {
	_, err := s.cron.AddFunc(spec, func() {
		if n := limiter.Cleanup(idle); n > 0 {
			s.logger.WithField("removed", n).Debug("rate limiter entries evicted")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid limiter cleanup schedule %q: %w", spec, err)
	}
	return nil
}

// Entries は登録済みのジョブ数です。
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop は新しい実行を止め、実行中のジョブが終わるか ctx が終わるまで待ちます。
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// CleanupResetTokens はジョブ本体です。削除件数を返します。
func CleanupResetTokens(ctx context.Context, cleaner ResetTokenCleaner, recorder CleanupRecorder, logger logrus.FieldLogger) (int64, error) {
	n, err := cleaner.CleanupResetTokens(ctx)
	if err != nil {
		return 0, err
	}
	recorder.ResetTokensCleaned(n)
	logger.WithField("deleted", n).Info("expired or used reset tokens cleaned")
	return n, nil
}
