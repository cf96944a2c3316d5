package notifier

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/shift-fanout/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-fanout/backend/internal/domain"
)

const QueueName = "notification_queue"

// Publisher 把通知任务投递到消息队列，由 notifier worker 负责实际发送
type Publisher struct {
	cfg     *config.Config
	channel *amqp.Channel
}

func NewPublisher(cfg *config.Config, channel *amqp.Channel) *Publisher {
	return &Publisher{
		cfg:     cfg,
		channel: channel,
	}
}

func (p *Publisher) SendText(ctx context.Context, to string, message string) error {
	return p.publish(ctx, domain.NotificationMessage{
		Channel: domain.ChannelSMS,
		To:      to,
		Message: message,
	})
}

func (p *Publisher) SendVoiceCall(ctx context.Context, to string, message string) error {
	return p.publish(ctx, domain.NotificationMessage{
		Channel: domain.ChannelVoice,
		To:      to,
		Message: message,
	})
}

func (p *Publisher) publish(ctx context.Context, notification domain.NotificationMessage) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return p.channel.PublishWithContext(
		ctx,
		"",
		QueueName,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}
