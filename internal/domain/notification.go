package domain

type NotificationChannel string

const (
	ChannelSMS   NotificationChannel = "sms"
	ChannelVoice NotificationChannel = "voice"
)

// NotificationMessage 是投递到消息队列中的通知任务
type NotificationMessage struct {
	Channel NotificationChannel `json:"channel"`
	To      string              `json:"to"`
	Message string              `json:"message"`
	ShiftID string              `json:"shiftID"`
}
