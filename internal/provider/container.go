package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/node-dojo/dojo-store-api/internal/cache"
	"github.com/node-dojo/dojo-store-api/internal/config"
	"github.com/node-dojo/dojo-store-api/internal/kvstore"
	"github.com/node-dojo/dojo-store-api/internal/logger"
	"github.com/node-dojo/dojo-store-api/internal/models"
	"github.com/node-dojo/dojo-store-api/internal/queue"
	"github.com/node-dojo/dojo-store-api/internal/repository"
	"github.com/node-dojo/dojo-store-api/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Store       kvstore.Store

	// Repositories
	BalanceRepo     repository.BalanceRepository
	TransactionRepo repository.TransactionRepository
	GiftCardRepo    repository.GiftCardRepository
	ReservationRepo repository.ReservationRepository

	// Services
	AuthService        *service.AuthService
	CreditService      *service.CreditService
	GiftCardService    *service.GiftCardService
	ReservationService *service.ReservationService
	CaptchaService     *service.CaptchaService
	EmailService       *service.EmailService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	store, err := buildStore(cfg)
	if err != nil {
		logger.Errorw("provider_init_store_failed", "backend", cfg.Store.Backend, "error", err)
		panic(err)
	}
	logger.Infow("provider_store_ready", "backend", store.Name())

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Store:       store,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	// 3. 启动时补齐崩溃遗留的账本记录
	c.recoverLedger()

	return c
}

// buildStore 按配置选择键值存储后端。
// redis 后端要求缓存连接可用；database 后端复用 gorm 连接。
func buildStore(cfg *config.Config) (kvstore.Store, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	switch backend {
	case "redis":
		if !cache.Enabled() {
			return nil, fmt.Errorf("store backend redis requires an enabled redis connection")
		}
		return kvstore.NewRedisStore(cache.Client(), cfg.Redis.Prefix), nil
	case "", "database":
		if models.DB == nil {
			if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
				MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
				MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
				ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
				ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
			}); err != nil {
				return nil, err
			}
		}
		return kvstore.NewGormStore(models.DB)
	case "memory":
		return kvstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", backend)
	}
}

func (c *Container) initRepositories() {
	c.BalanceRepo = repository.NewBalanceRepository(c.Store)
	c.TransactionRepo = repository.NewTransactionRepository(c.Store)
	c.GiftCardRepo = repository.NewGiftCardRepository(c.Store)
	c.ReservationRepo = repository.NewReservationRepository(c.Store)
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.Config)
	c.CreditService = service.NewCreditService(c.BalanceRepo, c.TransactionRepo)
	c.GiftCardService = service.NewGiftCardService(c.GiftCardRepo, c.CreditService)
	c.ReservationService = service.NewReservationService(
		c.ReservationRepo,
		c.CreditService,
		time.Duration(c.Config.Ledger.ReservationTTLSeconds)*time.Second,
	)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.EmailService = service.NewEmailService(&c.Config.Email)
}

// recoverLedger 回放崩溃时只写了一半的交易，保证历史索引完整
func (c *Container) recoverLedger() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	recovered, err := c.CreditService.RecoverPendingTransactions(ctx, 0)
	if err != nil {
		logger.Warnw("provider_ledger_recover_failed", "error", err)
		return
	}
	if recovered > 0 {
		logger.Infow("provider_ledger_recovered", "count", recovered)
	}
}
