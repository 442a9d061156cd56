package router

import (
	"fmt"
	"strings"

	"github.com/node-dojo/dojo-store-api/internal/cache"
	"github.com/node-dojo/dojo-store-api/internal/config"
	"github.com/node-dojo/dojo-store-api/internal/constants"
	adminhandlers "github.com/node-dojo/dojo-store-api/internal/http/handlers/admin"
	publichandlers "github.com/node-dojo/dojo-store-api/internal/http/handlers/public"
	"github.com/node-dojo/dojo-store-api/internal/logger"
	"github.com/node-dojo/dojo-store-api/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按店面/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	redeemRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:redeem", redisPrefix),
		WindowSeconds: cfg.Security.RedeemRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.RedeemRateLimit.MaxRequests,
		MessageKey:    "error.rate_limited",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxRequests,
		MessageKey:    "error.rate_limited",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/captcha/image", publicHandler.GetImageCaptcha)
		}

		// 结账回调接口（共享密钥鉴权）
		webhooks := apiV1.Group("/webhooks")
		webhooks.Use(WebhookAuthMiddleware(cfg.Webhook.CheckoutSecret))
		{
			webhooks.POST("/checkout-completed", publicHandler.CheckoutCompleted)
			webhooks.POST("/gift-card-fulfilled", publicHandler.GiftCardFulfilled)
		}

		// 用户接口（店面签发的 JWT 鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey))
		{
			user.GET("/me/credit", publicHandler.GetMyCredit)
			user.GET("/me/credit/transactions", publicHandler.GetMyCreditTransactions)
			user.GET("/me/reservations/:id", publicHandler.GetReservation)
			user.POST("/gift-cards/redeem", RateLimitMiddleware(redisClient, redeemRule, KeyByIPAndJSONField("code")), publicHandler.RedeemGiftCard)
			user.POST("/checkout/credit/reserve", publicHandler.ReserveCredit)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIPAndJSONField("email")), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, cfg.Admin.Email))
			{
				// 礼品卡管理
				authorized.POST("/gift-cards/generate", adminHandler.GenerateGiftCards)
				authorized.GET("/gift-cards", adminHandler.GetGiftCards)
				authorized.GET("/gift-cards/:code", adminHandler.GetGiftCard)
				authorized.POST("/gift-cards/export", adminHandler.ExportGiftCards)

				// 账户额度管理
				authorized.GET("/accounts/:email/credit", adminHandler.GetAccountCredit)
				authorized.GET("/accounts/:email/credit/transactions", adminHandler.GetAccountTransactions)
				authorized.POST("/credit/adjust", adminHandler.AdjustCredit)

				// 预留管理
				authorized.GET("/reservations/:id", adminHandler.GetAdminReservation)
				authorized.DELETE("/reservations/:id", adminHandler.ReleaseAdminReservation)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
