package constants

// 礼品卡状态常量
const (
	GiftCardStatusActive   = "active"
	GiftCardStatusRedeemed = "redeemed"
)

// 礼品卡编码常量
const (
	GiftCardCodePrefix   = "DOJO"
	GiftCardCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	GiftCardCodeGroups   = 3
	GiftCardGroupLength  = 4
)

// 预留默认有效期（秒）
const (
	ReservationTTLSecondsDefault = 3600
)

// 存储键前缀常量
const (
	KeyPrefixBalance     = "balance:"
	KeyPrefixTxn         = "txn:"
	KeyPrefixTxnIndex    = "txn-index:"
	KeyPrefixTxnWAL      = "txn-wal:"
	KeyPrefixGiftCard    = "giftcard:"
	KeyPrefixCardClaim   = "giftcard-claim:"
	KeyPrefixReservation = "pending:"
	KeyGiftCardIndex     = "giftcard-index"
)

// 队列常量
const (
	QueueDefault            = "default"
	TaskGiftCardDelivery    = "gift_card:delivery_email"
	TaskRedemptionReceipt   = "gift_card:redemption_receipt"
	TaskLedgerReconcile     = "ledger:reconcile"
	QueuePriorityDefaultVal = 10
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "dojo"
)

// 验证码提供方常量
const (
	CaptchaProviderNone  = "none"
	CaptchaProviderImage = "image"
)

// 验证码校验场景常量
const (
	CaptchaSceneGiftCardRedeem = "gift_card_redeem"
)

// 导出格式常量
const (
	ExportFormatCSV = "csv"
	ExportFormatTXT = "txt"
)

// 站点语言常量
const (
	LocaleZhCN = "zh-CN"
	LocaleEnUS = "en-US"
)

// 支持的站点语言顺序（含回退顺序）
var SupportedLocales = []string{LocaleEnUS, LocaleZhCN}
