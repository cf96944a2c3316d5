package domain

import "time"

type FanoutStatus string

const (
	FanoutStatusPending   FanoutStatus = "pending"
	FanoutStatusClaimed   FanoutStatus = "claimed"
	FanoutStatusEscalated FanoutStatus = "escalated"
)

// FanoutRecord 记录某个班次的通知生命周期，每个班次至多存在一条。
// status 的状态转移是单向的：pending -> claimed 或 pending -> escalated，
// claimed 和 escalated 都是终态。
type FanoutRecord struct {
	ShiftID          string       `json:"shiftID"`
	Status           FanoutStatus `json:"status"`
	CreatedAt        time.Time    `json:"createdAt"`
	ClaimedBy        string       `json:"claimedBy,omitempty"`
	SMSSentAt        *time.Time   `json:"smsSentAt,omitempty"`
	EscalationSentAt *time.Time   `json:"escalationSentAt,omitempty"`
	ContactedIDs     []string     `json:"contactedIDs"`
}

func (r *FanoutRecord) Contacted(caregiverID string) bool {
	for _, id := range r.ContactedIDs {
		if id == caregiverID {
			return true
		}
	}
	return false
}
