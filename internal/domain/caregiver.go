package domain

import "time"

type CaregiverRole string

const (
	RoleNurse          CaregiverRole = "护士"
	RoleCareWorker     CaregiverRole = "护理员"
	RoleRehabTherapist CaregiverRole = "康复师"
)

type Caregiver struct {
	ID        string        `json:"id"`
	FullName  string        `json:"fullName"`
	Role      CaregiverRole `json:"role"`
	Phone     string        `json:"phone"`
	CreatedAt time.Time     `json:"createdAt"`
}
