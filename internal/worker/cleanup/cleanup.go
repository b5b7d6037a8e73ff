// Package cleanup は期限切れセッションの自動削除ジョブを提供する。
// セッションは参照時にも期限を判定するため、このジョブはストアの肥大化を防ぐためだけに動く。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ExpiredSessionDeleter は期限切れセッションを削除する。
// repository.SessionRepositoryの部分集合として定義する。
type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// PurgeRecorder は削除件数を記録する。metrics.Collectorが実装する。
type PurgeRecorder interface {
	RecordSessionsPurged(count int64)
}

// SessionCleanupJob は期限切れセッションの削除ジョブ。
// 冪等: 削除対象がない場合でもエラーにならない。
type SessionCleanupJob struct {
	sessions ExpiredSessionDeleter
	recorder PurgeRecorder
	logger   *slog.Logger
}

// NewSessionCleanupJob は新しいSessionCleanupJobを生成する。recorderはnil可。
func NewSessionCleanupJob(sessions ExpiredSessionDeleter, recorder PurgeRecorder, logger *slog.Logger) *SessionCleanupJob {
	return &SessionCleanupJob{
		sessions: sessions,
		recorder: recorder,
		logger:   logger,
	}
}

// Run は期限切れセッションを1回削除する。
func (j *SessionCleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	deleted, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("セッションクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	if j.recorder != nil {
		j.recorder.RecordSessionsPurged(deleted)
	}

	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deleted),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// Start はinterval毎にRunを実行する。ctxがキャンセルされるまでブロックする。
// 起動直後に1回実行する。個々の実行の失敗はログに残して継続する。
func (j *SessionCleanupJob) Start(ctx context.Context, interval time.Duration) {
	_ = j.Run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("セッションクリーンアップジョブを停止しました")
			return
		case <-ticker.C:
			_ = j.Run(ctx)
		}
	}
}
