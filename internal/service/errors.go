package service

import "errors"

// 账本错误
var (
	ErrInsufficientCredit = errors.New("insufficient credit")
	ErrStoreUnavailable   = errors.New("credit store unavailable")
	ErrCreditInvalid      = errors.New("invalid credit operation")
)

// 礼品卡错误
var (
	ErrGiftCardNotFound     = errors.New("gift card not found")
	ErrGiftCardRedeemed     = errors.New("gift card already redeemed")
	ErrGiftCardInvalid      = errors.New("invalid gift card request")
	ErrGiftCardCreateFailed = errors.New("gift card create failed")
	ErrGiftCardUpdateFailed = errors.New("gift card update failed")
)

// 预留错误
var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrReservationInvalid  = errors.New("invalid reservation request")
	ErrReservationConflict = errors.New("reservation id already in use")
	ErrNothingToReserve    = errors.New("nothing to reserve")
)

// 认证错误
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAdminNotConfigured = errors.New("admin operator not configured")
	ErrTokenInvalid       = errors.New("token invalid")
)

// 验证码错误
var (
	ErrCaptchaRequired      = errors.New("captcha required")
	ErrCaptchaInvalid       = errors.New("captcha invalid")
	ErrCaptchaConfigInvalid = errors.New("captcha config invalid")
)

// 邮件错误
var (
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
	ErrInvalidEmail              = errors.New("invalid email address")
)
