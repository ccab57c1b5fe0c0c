package repository

import "time"

// SessionListFilter 查询排期列表的过滤条件
type SessionListFilter struct {
	Page         int
	PageSize     int
	CourseTypeID uint
	VenueID      uint
	OnlyActive   bool
	OnlyBookable bool
	StartFrom    *time.Time
	StartTo      *time.Time
}

// BookingListFilter 查询预订列表的过滤条件
type BookingListFilter struct {
	Page          int
	PageSize      int
	UserID        uint
	SessionID     uint
	Status        string
	PaymentStatus string
	Email         string
	Search        string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	BookingID   uint
	Status      string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// PaymentListFilter 查询支付列表的过滤条件
type PaymentListFilter struct {
	Page        int
	PageSize    int
	OrderID     uint
	Provider    string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// CouponUsageListFilter 查询优惠券使用记录列表的过滤条件
type CouponUsageListFilter struct {
	Page     int
	PageSize int
	CouponID uint
	UserID   uint
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page        int
	PageSize    int
	Keyword     string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
