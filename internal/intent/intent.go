package intent

import "strings"

type Intent string

const (
	Accept  Intent = "accept"
	Decline Intent = "decline"
	Unknown Intent = "unknown"
)

var acceptKeywords = []string{
	"yes", "y", "ok", "accept", "sure",
	"接受", "可以", "好的", "好", "确认", "我来", "认领",
}

var declineKeywords = []string{
	"no", "n", "decline", "pass",
	"拒绝", "不行", "不了", "不能", "没空",
}

// Resolver 基于关键词把回复文本归类为接受/拒绝/未知
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

func (r *Resolver) Classify(text string) Intent {
	normalized := normalize(text)
	if normalized == "" {
		return Unknown
	}

	for _, keyword := range acceptKeywords {
		if normalized == keyword {
			return Accept
		}
	}
	for _, keyword := range declineKeywords {
		if normalized == keyword {
			return Decline
		}
	}

	return Unknown
}

func normalize(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	// 去掉常见的结尾标点，护工的回复经常带着「好的。」「yes!」这样的尾巴
	return strings.TrimRight(normalized, "。，！!.,？?~")
}
