package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const webhookEventTTL = 24 * time.Hour

func webhookEventKey(provider, eventID string) string {
	return fmt.Sprintf("webhook:%s:%s", provider, eventID)
}

// ClaimWebhookEvent 登记回调事件，返回该事件是否首次出现。
// 缓存未启用时总是返回 true，重放防护交给下游的幂等逻辑兜底。
func ClaimWebhookEvent(ctx context.Context, provider, eventID string) (bool, error) {
	provider = strings.TrimSpace(provider)
	eventID = strings.TrimSpace(eventID)
	if provider == "" || eventID == "" {
		return true, nil
	}
	return SetNX(ctx, webhookEventKey(provider, eventID), "1", webhookEventTTL)
}

// ReleaseWebhookEvent 处理失败时撤销登记，允许回调方重试
func ReleaseWebhookEvent(ctx context.Context, provider, eventID string) error {
	provider = strings.TrimSpace(provider)
	eventID = strings.TrimSpace(eventID)
	if provider == "" || eventID == "" {
		return nil
	}
	return Del(ctx, webhookEventKey(provider, eventID))
}
