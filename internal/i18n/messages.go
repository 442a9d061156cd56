package i18n

// 文案字典。错误文案面向终端用户：业务失败给出具体原因，
// 基础设施故障只提示稍后重试。
var dictionaries = map[string]map[string]string{
	LocaleEN: {
		"error.invalid_request": "Invalid request.",
		"error.unauthorized": "Authentication required.",
		"error.forbidden": "Access denied.",
		"error.not_found": "Resource not found.",
		"error.internal": "Something went wrong. Please try again later.",
		"error.store_unavailable": "The credit service is temporarily unavailable. Please try again.",
		"error.rate_limited": "Too many requests. Please wait %d seconds and try again.",
		"error.rate_limit_unavailable": "Request limiter unavailable. Please try again later.",

		"error.insufficient_credit": "Your credit balance is not enough for this operation.",
		"error.gift_card_not_found": "That gift card code is not recognized. Please check it and try again.",
		"error.gift_card_redeemed": "This gift card has already been redeemed.",
		"error.gift_card_invalid": "Invalid gift card request.",
		"error.reservation_not_found": "This credit reservation does not exist or has expired.",
		"error.reservation_conflict": "A reservation with this id already exists.",
		"error.nothing_to_reserve": "There is no credit available to reserve.",
		"error.auth_header_missing": "Authorization header is missing.",
		"error.auth_header_invalid": "Authorization header is malformed.",
		"error.token_invalid": "Invalid or expired token.",
		"error.jwt_secret_missing": "Authentication is not configured.",
		"error.login_failed": "Incorrect email or password.",

		"error.gift_card_create_failed": "Could not issue gift cards. Please try again.",
		"error.gift_card_export_failed": "Could not export gift cards.",
		"error.gift_card_redeem_failed": "Could not redeem the gift card. Please try again.",
		"error.credit_fetch_failed": "Could not load credit information. Please try again.",
		"error.reservation_failed": "Could not process the credit reservation. Please try again.",
		"error.webhook_duplicate": "This event was already processed.",
		"error.webhook_failed": "Could not process the event.",

		"error.captcha_required": "Please complete the captcha.",
		"error.captcha_invalid": "Captcha verification failed. Please try again.",
		"error.captcha_config_invalid": "Captcha is not available right now.",
		"error.captcha_unavailable": "Captcha is not available right now.",
		"error.captcha_generate_failed": "Could not generate a captcha. Please try again.",

		"email.gift_card_delivery.subject": "Your Dojo Store gift card",
		"email.gift_card_delivery.body": "Thanks for your purchase!\n\nGift card code: %s\nValue: $%s\nOrder: %s\n\nRedeem it in your account page to add store credit.",
		"email.redemption_receipt.subject": "Gift card redeemed",
		"email.redemption_receipt.body": "Gift card %s has been redeemed.\n\nCredit added: $%s\nNew balance: $%s",
	},
	LocaleZH: {
		"error.invalid_request": "请求参数无效。",
		"error.unauthorized": "请先登录。",
		"error.forbidden": "没有访问权限。",
		"error.not_found": "资源不存在。",
		"error.internal": "服务出现问题，请稍后重试。",
		"error.store_unavailable": "信用额度服务暂时不可用，请稍后重试。",
		"error.rate_limited": "请求过于频繁，请等待 %d 秒后重试。",
		"error.rate_limit_unavailable": "限流服务不可用，请稍后重试。",

		"error.insufficient_credit": "信用额度余额不足。",
		"error.gift_card_not_found": "礼品卡卡号无法识别，请检查后重试。",
		"error.gift_card_redeemed": "该礼品卡已被兑换。",
		"error.gift_card_invalid": "礼品卡请求无效。",
		"error.reservation_not_found": "额度预留不存在或已过期。",
		"error.reservation_conflict": "该预留ID已存在。",
		"error.nothing_to_reserve": "当前没有可预留的信用额度。",
		"error.auth_header_missing": "缺少 Authorization 请求头。",
		"error.auth_header_invalid": "Authorization 请求头格式错误。",
		"error.token_invalid": "令牌无效或已过期。",
		"error.jwt_secret_missing": "认证服务未配置。",
		"error.login_failed": "邮箱或密码错误。",

		"error.gift_card_create_failed": "礼品卡签发失败，请重试。",
		"error.gift_card_export_failed": "礼品卡导出失败。",
		"error.gift_card_redeem_failed": "礼品卡兑换失败，请重试。",
		"error.credit_fetch_failed": "信用额度信息加载失败，请重试。",
		"error.reservation_failed": "额度预留处理失败，请重试。",
		"error.webhook_duplicate": "该事件已处理过。",
		"error.webhook_failed": "事件处理失败。",

		"error.captcha_required": "请完成验证码。",
		"error.captcha_invalid": "验证码校验失败，请重试。",
		"error.captcha_config_invalid": "验证码暂不可用。",
		"error.captcha_unavailable": "验证码暂不可用。",
		"error.captcha_generate_failed": "验证码生成失败，请重试。",

		"email.gift_card_delivery.subject": "您的 Dojo Store 礼品卡",
		"email.gift_card_delivery.body": "感谢您的购买！\n\n礼品卡卡号：%s\n面额：$%s\n订单：%s\n\n请在账户页兑换以增加店铺信用额度。",
		"email.redemption_receipt.subject": "礼品卡兑换成功",
		"email.redemption_receipt.body": "礼品卡 %s 已兑换。\n\n入账金额：$%s\n当前余额：$%s",
	},
}
