package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/node-dojo/dojo-store-api/internal/config"
	"github.com/node-dojo/dojo-store-api/internal/logger"
	"github.com/node-dojo/dojo-store-api/internal/models"
	"github.com/node-dojo/dojo-store-api/internal/provider"
	"github.com/node-dojo/dojo-store-api/internal/service"
)

// 演示数据种子：签发几张礼品卡、给演示账户充值，并打印可直接
// 用于调试的店面用户令牌。
func main() {
	var (
		email      = flag.String("email", "demo@node-dojo.dev", "演示账户邮箱")
		quantity   = flag.Int("quantity", 3, "签发礼品卡数量")
		valueCents = flag.Int64("value", 2500, "礼品卡面额（美分）")
	)
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	c := provider.NewContainer(cfg)
	ctx := context.Background()

	cards, err := c.GiftCardService.IssueGiftCards(ctx, service.IssueGiftCardsInput{
		Quantity: *quantity,
		Value:    models.Cents(*valueCents),
		Note:     "seed data",
	})
	if err != nil {
		stdLog.Fatalf("签发演示礼品卡失败: %v", err)
	}

	txn, err := c.CreditService.Credit(ctx, service.CreditChangeInput{
		Email:  *email,
		Amount: models.Cents(*valueCents),
		Source: models.TxnSourceAdmin,
		Remark: "seed data",
	})
	if err != nil {
		stdLog.Fatalf("演示账户充值失败: %v", err)
	}

	fmt.Println("演示礼品卡:")
	for _, card := range cards {
		fmt.Printf("  %s  $%s\n", card.Code, card.Value.String())
	}
	fmt.Printf("演示账户 %s 余额: $%s\n", txn.Email, txn.BalanceAfter.String())

	if token, _, err := c.AuthService.GenerateUserJWT(*email); err == nil {
		fmt.Printf("演示用户令牌:\n  %s\n", token)
	} else {
		stdLog.Printf("警告: 生成演示用户令牌失败: %v", err)
	}
}
