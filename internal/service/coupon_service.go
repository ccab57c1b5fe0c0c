package service

import (
	"strings"
	"time"

	"github.com/coursebook/internal/constants"
	"github.com/coursebook/internal/models"
	"github.com/coursebook/internal/repository"

	"github.com/shopspring/decimal"
)

// CouponService 优惠券服务
type CouponService struct {
	couponRepo  repository.CouponRepository
	usageRepo   repository.CouponUsageRepository
	bookingRepo repository.BookingRepository
}

// NewCouponService 创建优惠券服务
func NewCouponService(couponRepo repository.CouponRepository, usageRepo repository.CouponUsageRepository, bookingRepo repository.BookingRepository) *CouponService {
	return &CouponService{
		couponRepo:  couponRepo,
		usageRepo:   usageRepo,
		bookingRepo: bookingRepo,
	}
}

// CouponContext 优惠券评估上下文
type CouponContext struct {
	UserID       uint
	ContactEmail string
	Now          time.Time
}

// ApplyCoupon 计算优惠码在给定金额上的折扣。
// 校验顺序：存在 → 启用 → 窗口期 → 总量 → 每人限次 → 首单 → 门槛，
// 返回的折扣已做上限截断且不超过待付金额。
func (s *CouponService) ApplyCoupon(subtotal models.Money, code string, ctx CouponContext) (models.Money, *models.Coupon, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return models.Money{}, nil, ErrCouponInvalid
	}

	coupon, err := s.couponRepo.GetByCode(trimmed)
	if err != nil {
		return models.Money{}, nil, err
	}
	if coupon == nil {
		return models.Money{}, nil, ErrCouponNotFound
	}
	if !coupon.IsActive {
		return models.Money{}, coupon, ErrCouponInactive
	}

	now := ctx.Now
	if now.IsZero() {
		now = time.Now()
	}
	if coupon.StartsAt != nil && now.Before(*coupon.StartsAt) {
		return models.Money{}, coupon, ErrCouponNotStarted
	}
	if coupon.EndsAt != nil && now.After(*coupon.EndsAt) {
		return models.Money{}, coupon, ErrCouponExpired
	}

	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return models.Money{}, coupon, ErrCouponUsageLimit
	}

	if coupon.PerUserLimit > 0 {
		count, err := s.countPriorUsage(coupon.ID, ctx)
		if err != nil {
			return models.Money{}, coupon, err
		}
		if int(count) >= coupon.PerUserLimit {
			return models.Money{}, coupon, ErrCouponPerUserLimit
		}
	}

	if coupon.FirstTimeOnly {
		prior, err := s.bookingRepo.CountPriorByEmail(ctx.ContactEmail, 0)
		if err != nil {
			return models.Money{}, coupon, err
		}
		if prior > 0 {
			return models.Money{}, coupon, ErrCouponFirstTimeOnly
		}
	}

	if subtotal.Decimal.Cmp(coupon.MinAmount.Decimal) < 0 {
		return models.Money{}, coupon, ErrCouponMinAmount
	}

	discount, err := calculateCouponDiscount(coupon, subtotal)
	if err != nil {
		return models.Money{}, coupon, err
	}
	return discount, coupon, nil
}

func (s *CouponService) countPriorUsage(couponID uint, ctx CouponContext) (int64, error) {
	if ctx.UserID != 0 {
		return s.usageRepo.CountByCouponAndUser(couponID, ctx.UserID)
	}
	return s.usageRepo.CountByCouponAndEmail(couponID, ctx.ContactEmail)
}

func calculateCouponDiscount(coupon *models.Coupon, subtotal models.Money) (models.Money, error) {
	var discount decimal.Decimal
	switch strings.ToLower(strings.TrimSpace(coupon.Type)) {
	case constants.CouponTypeFixed:
		if coupon.Value.Decimal.LessThanOrEqual(decimal.Zero) {
			return models.Money{}, ErrCouponInvalid
		}
		discount = coupon.Value.Decimal
	case constants.CouponTypePercent:
		if coupon.Value.Decimal.LessThanOrEqual(decimal.Zero) || coupon.Value.Decimal.GreaterThan(decimal.NewFromInt(100)) {
			return models.Money{}, ErrCouponInvalid
		}
		percent := coupon.Value.Decimal.Div(decimal.NewFromInt(100))
		discount = subtotal.Decimal.Mul(percent)
		if coupon.MaxDiscount.Decimal.GreaterThan(decimal.Zero) && discount.GreaterThan(coupon.MaxDiscount.Decimal) {
			discount = coupon.MaxDiscount.Decimal
		}
	default:
		return models.Money{}, ErrCouponInvalid
	}

	// 折扣不超过待付金额，总价不为负
	if discount.GreaterThan(subtotal.Decimal) {
		discount = subtotal.Decimal
	}
	return models.NewMoneyFromDecimal(discount), nil
}
