package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/shift-fanout/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-fanout/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-fanout/backend/internal/notifier"
	"github.com/wneessen/go-mail"
)

// gatewayAddress 把手机号转成运营商邮件网关的投递地址，
// 例如 +8613800000001 -> 8613800000001@sms.example.com
func gatewayAddress(phone string, domain string) string {
	digits := strings.Builder{}
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return fmt.Sprintf("%s@%s", digits.String(), domain)
}

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	/**********************************************
	 * 读取配置文件
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 创建网关投递客户端
	 **********************************************/
	client, err := mail.NewClient(cfg.Gateway.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Gateway.SMTP.Port),
		mail.WithUsername(cfg.Gateway.SMTP.Username),
		mail.WithPassword(cfg.Gateway.SMTP.Password),
	)
	if err != nil {
		logger.Error("无法创建网关投递客户端", slog.String("error", err.Error()))
		return
	}
	defer client.Close()

	// 验证客户端是否连接成功
	clientDialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Gateway.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := client.DialWithContext(clientDialCtx); err != nil {
		logger.Error("无法连接到网关", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	// 创建通道
	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	// 声明队列
	q, err := ch.QueueDeclare(
		notifier.QueueName, // 队列名称
		true,               // 是否持久化
		false,              // 是否自动删除，设置为 false 可以避免没有消费者的时候自动删除队列
		false,              // 是否独占，即是否允许多个消费者访问这个队列
		false,              // 是否不等待，设置为 false，即等待 RabbitMQ 确认队列是否创建成功
		nil,                // 额外参数
	)
	if err != nil {
		logger.Error("无法声明队列", slog.String("error", err.Error()))
		return
	}

	// 监听 CTRL+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// 消费消息
	msgs, err := ch.Consume(
		q.Name, // 队列
		"",     // 消费者标识，设置为空字符串，表示由 RabbitMQ 自动分配
		false,  // 是否自动确认消息
		false,  // 是否独占队列
		false,  // 是否禁止消费者接受自己发送的消息，必须设置为 false，因为 RabbitMQ 不支持这个参数
		false,  // 是否不等待，等待 RabbitMQ 响应
		nil,    // 额外参数
	)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 用于关闭 goroutine 的上下文
	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-msgs:
				logger.Info("收到通知任务", slog.String("message", string(msg.Body)))

				// 对通知任务反序列化
				notification := domain.NotificationMessage{}
				if err := json.Unmarshal(msg.Body, &notification); err != nil {
					logger.Error("通知任务反序列化失败", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				// 根据通知渠道决定投递域名
				var gatewayDomain string
				switch notification.Channel {
				case domain.ChannelSMS:
					gatewayDomain = cfg.Gateway.SMSDomain
				case domain.ChannelVoice:
					gatewayDomain = cfg.Gateway.VoiceDomain
				default:
					logger.Error("不支持的通知渠道", slog.String("channel", string(notification.Channel)))
					_ = msg.Nack(false, false)
					continue
				}

				// 构建投递内容
				m := mail.NewMsg()
				if err := m.From(cfg.Gateway.SMTP.Username); err != nil {
					logger.Error("无法设置发件人", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}
				if err := m.To(gatewayAddress(notification.To, gatewayDomain)); err != nil {
					logger.Error("无法设置收件人", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}
				m.SetBodyString(mail.TypeTextPlain, notification.Message)

				// 投递通知
				if err := client.DialAndSend(m); err != nil {
					logger.Error("通知投递失败", slog.String("error", err.Error()))
					_ = msg.Nack(false, true) // 将消息重新入队
					continue
				}

				// 确认消息
				_ = msg.Ack(false)
			}
		}
	}()

	// 等待 CTRL+C 信号
	logger.Info("等待通知任务...（按 CTRL+C 退出）")
	<-sigChan

	// 优雅退出
	slog.Info("正在关闭 notifier worker...")
	cancel()
	wg.Wait() // 等待所有 goroutine 完成
	slog.Info("notifier worker 已成功关闭")
}
