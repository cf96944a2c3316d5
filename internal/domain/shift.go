package domain

import "time"

type Shift struct {
	ID             string        `json:"id"`
	OrganizationID string        `json:"organizationID"`
	RoleRequired   CaregiverRole `json:"roleRequired"`
	StartTime      time.Time     `json:"startTime"`
	EndTime        time.Time     `json:"endTime"`
	CreatedAt      time.Time     `json:"createdAt"`
}
