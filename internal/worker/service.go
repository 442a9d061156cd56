package worker

import (
	"context"
	"errors"
	"time"

	"github.com/node-dojo/dojo-store-api/internal/config"
	"github.com/node-dojo/dojo-store-api/internal/logger"
	"github.com/node-dojo/dojo-store-api/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	ledgerReconcileInterval = time.Hour
	// 在线巡检只处理超过此年龄的预写记录，避免与在途请求抢同一条目
	ledgerReconcileGrace = 10 * time.Minute
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.CreditService != nil {
		go s.runLedgerReconcileLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runLedgerReconcileLoop 周期回放预写记录，补齐崩溃窗口漏掉的落账。
// 只碰超过宽限年龄的条目，在途请求的预写原样放回。
func (s *Service) runLedgerReconcileLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.CreditService == nil {
		return
	}
	runOnce := func() {
		recovered, err := s.consumer.CreditService.RecoverPendingTransactions(ctx, ledgerReconcileGrace)
		if err != nil {
			logger.Warnw("worker_ledger_reconcile_failed", "error", err)
			return
		}
		if recovered > 0 {
			logger.Infow("worker_ledger_reconcile_recovered", "count", recovered)
		}
	}

	ticker := time.NewTicker(ledgerReconcileInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
