package constants

// 预约状态常量
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

// 预约支付状态常量
const (
	BookingPaymentPending  = "pending"
	BookingPaymentPaid     = "paid"
	BookingPaymentRefunded = "refunded"
	BookingPaymentFailed   = "failed"
)

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCompleted  = "completed"
	OrderStatusCanceled   = "canceled"
	OrderStatusFailed     = "failed"
	OrderStatusRefunded   = "refunded"
)

// 订单项类型常量
const (
	OrderItemTypeBooking = "booking"
	OrderItemTypeProduct = "product"
	OrderItemTypeService = "service"
)

// 支付状态常量
const (
	PaymentStatusPending           = "pending"
	PaymentStatusProcessing        = "processing"
	PaymentStatusSucceeded         = "succeeded"
	PaymentStatusFailed            = "failed"
	PaymentStatusCanceled          = "canceled"
	PaymentStatusRefunded          = "refunded"
	PaymentStatusPartiallyRefunded = "partially_refunded"
)

// 退款状态常量
const (
	RefundStatusPending   = "pending"
	RefundStatusSucceeded = "succeeded"
	RefundStatusFailed    = "failed"
	RefundStatusCanceled  = "canceled"
)

// 优惠券类型常量
const (
	CouponTypeFixed   = "fixed"
	CouponTypePercent = "percentage"
)

// 支付提供方常量
const (
	PaymentProviderStripe = "stripe"
	PaymentProviderManual = "manual"
)

// 取消操作者角色常量
const (
	ActorRoleCustomer = "customer"
	ActorRoleAdmin    = "admin"
	ActorRoleSystem   = "system"
)

// 用户角色常量
const (
	UserRoleCustomer = "customer"
	UserRoleAdmin    = "admin"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 站点货币默认值
const (
	SiteCurrencyDefault = "GBP"
)

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型常量
const (
	TaskBookingStatusEmail   = "booking:status_email"
	TaskBookingTimeoutCancel = "booking:timeout_cancel"
	TaskSessionCompleteSweep = "session:complete_sweep"
)
