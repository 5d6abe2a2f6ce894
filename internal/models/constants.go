package models

// JobStatus константы статусов заказов
const (
	JobStatusOpen       = "open"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusCancelled  = "cancelled"
)

// BidStatus константы статусов ставок
const (
	BidStatusPending     = "pending"
	BidStatusShortlisted = "shortlisted"
	BidStatusAccepted    = "accepted"
	BidStatusRejected    = "rejected"
	BidStatusWithdrawn   = "withdrawn"
)

// TradeStatus константы статусов сделок (escrow)
const (
	TradeStatusPendingDeposit = "pending_deposit"
	TradeStatusActive         = "active"
	TradeStatusCompleted      = "completed"
	TradeStatusCancelled      = "cancelled"
)

// MilestoneStatus константы статусов этапов
const (
	MilestoneStatusPending    = "pending"
	MilestoneStatusInProgress = "in_progress"
	MilestoneStatusSubmitted  = "submitted"
	MilestoneStatusApproved   = "approved"
	MilestoneStatusDisputed   = "disputed"
)

// EarningType типы начислений
const (
	EarningTypeMilestone = "milestone"
	EarningTypeTip       = "tip"
)

// EarningStatus статусы начислений
const (
	EarningStatusPending   = "pending"
	EarningStatusCompleted = "completed"
	EarningStatusWithdrawn = "withdrawn"
)

// WithdrawalStatus статусы заявок на вывод
const (
	WithdrawalStatusPending    = "pending"
	WithdrawalStatusProcessing = "processing"
	WithdrawalStatusCompleted  = "completed"
	WithdrawalStatusRejected   = "rejected"
)

// Роли пользователей
const (
	RoleClient     = "client"
	RoleFreelancer = "freelancer"
)

// ValidJobStatuses список валидных статусов заказов
var ValidJobStatuses = map[string]struct{}{
	JobStatusOpen:       {},
	JobStatusInProgress: {},
	JobStatusCompleted:  {},
	JobStatusCancelled:  {},
}

// ValidBidStatuses список валидных статусов ставок
var ValidBidStatuses = map[string]struct{}{
	BidStatusPending:     {},
	BidStatusShortlisted: {},
	BidStatusAccepted:    {},
	BidStatusRejected:    {},
	BidStatusWithdrawn:   {},
}

// ValidMilestoneStatuses список валидных статусов этапов
var ValidMilestoneStatuses = map[string]struct{}{
	MilestoneStatusPending:    {},
	MilestoneStatusInProgress: {},
	MilestoneStatusSubmitted:  {},
	MilestoneStatusApproved:   {},
	MilestoneStatusDisputed:   {},
}

// MilestoneTransitions описывает граф допустимых переходов этапа:
// целевой статус -> множество исходных статусов, из которых он достижим.
var MilestoneTransitions = map[string]map[string]struct{}{
	MilestoneStatusInProgress: {MilestoneStatusPending: {}},
	MilestoneStatusSubmitted:  {MilestoneStatusInProgress: {}},
	MilestoneStatusApproved:   {MilestoneStatusSubmitted: {}},
	MilestoneStatusDisputed:   {MilestoneStatusInProgress: {}, MilestoneStatusSubmitted: {}},
}

// CanTransitionMilestone проверяет, допустим ли переход этапа from -> to.
func CanTransitionMilestone(from, to string) bool {
	sources, ok := MilestoneTransitions[to]
	if !ok {
		return false
	}
	_, ok = sources[from]
	return ok
}
