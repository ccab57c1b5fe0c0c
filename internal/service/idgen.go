package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"gorm.io/gorm"
)

const base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// codeMaxAttempts 编号碰撞重试上限
const codeMaxAttempts = 5

// generateConfirmationCode 生成预订确认码：<课程前缀>-<YYMMDD>-<4位base36随机>
func generateConfirmationCode(coursePrefix string, date time.Time) string {
	prefix := strings.ToUpper(strings.TrimSpace(coursePrefix))
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	for len(prefix) < 3 {
		prefix += "X"
	}
	return fmt.Sprintf("%s-%s-%s", prefix, date.Format("060102"), randBase36(4))
}

// generateOrderNo 生成订单号：ORD-<YYMMDD>-<4位数字随机>
func generateOrderNo(date time.Time) string {
	return fmt.Sprintf("ORD-%s-%s", date.Format("060102"), randNumeric(4))
}

// formatInvoiceNo 格式化发票号：INV-<YYYYMM>-<5位零填充序列>。
// 序列值来自按月单调递增的计数器，与主键解耦，删档不产生空洞。
func formatInvoiceNo(date time.Time, seq int) string {
	return fmt.Sprintf("INV-%s-%05d", date.Format("200601"), seq)
}

// invoiceYearMonth 发票序列的月份键
func invoiceYearMonth(date time.Time) string {
	return date.Format("200601")
}

func randBase36(length int) string {
	var b strings.Builder
	max := big.NewInt(int64(len(base36Alphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			b.WriteByte('0')
			continue
		}
		b.WriteByte(base36Alphabet[n.Int64()])
	}
	return b.String()
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}

// createWithUniqueCode 生成编号并执行插入，撞码由唯一索引裁决：
// 冲突时回滚到本次尝试的保存点并重掷编号，超过重试上限返回 ErrIdentifierExhausted。
// 每次尝试包一个保存点，插入失败不污染外层事务。
func createWithUniqueCode(tx *gorm.DB, generate func() string, create func(code string) error) error {
	for attempt := 0; attempt < codeMaxAttempts; attempt++ {
		sp := fmt.Sprintf("sp_code_%d", attempt)
		if err := tx.SavePoint(sp).Error; err != nil {
			return err
		}
		err := create(generate())
		if err == nil {
			return nil
		}
		if !isDuplicateKeyError(err) {
			return err
		}
		if err := tx.RollbackTo(sp).Error; err != nil {
			return err
		}
	}
	return ErrIdentifierExhausted
}

// isDuplicateKeyError 唯一约束冲突判定，兼容未开启错误翻译的驱动
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
