package domain

import "time"

// Coordinator 是调度员账号，负责触发班次广播
type Coordinator struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}
