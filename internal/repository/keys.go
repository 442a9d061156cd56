package repository

import (
	"github.com/node-dojo/dojo-store-api/internal/constants"
)

// 存储键构造。账户邮箱由服务层统一小写并去除首尾空白后传入。

func balanceKey(email string) string {
	return constants.KeyPrefixBalance + email
}

func txnKey(email, id string) string {
	return constants.KeyPrefixTxn + email + ":" + id
}

func txnIndexKey(email string) string {
	return constants.KeyPrefixTxnIndex + email
}

func txnWALKey(id string) string {
	return constants.KeyPrefixTxnWAL + id
}

const txnWALIndexKey = "txn-wal-index"

func giftCardKey(code string) string {
	return constants.KeyPrefixGiftCard + code
}

func reservationKey(id string) string {
	return constants.KeyPrefixReservation + id
}
