package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/shift-fanout/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-fanout/backend/internal/fanout"
)

// HandleInboundMessage 处理短信网关回调的护工回复
func (h *Handler) HandleInboundMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From      string `json:"from" validate:"required"`
		Text      string `json:"text" validate:"required"`
		MessageID string `json:"messageID"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 网关可能重复投递同一条消息，用 redis 做一次幂等去重
	if h.redisClient != nil && req.MessageID != "" {
		ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationExpiration)*time.Minute)
		defer cancel()

		key := fmt.Sprintf("inbound_msg_%s", req.MessageID)
		expiration := time.Duration(h.config.Fanout.InboundDedupExpiration) * time.Second
		fresh, err := h.redisClient.SetNX(ctx, key, 1, expiration).Result()
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		if !fresh {
			h.successResponse(w, r, "重复的消息，已忽略", fanout.InboundResult{Outcome: fanout.InboundIgnored})
			return
		}
	}

	result, err := h.fanoutService.HandleInbound(r.Context(), req.From, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCaregiverNotFound):
			h.notFoundResponse(w, r, "护工不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	switch result.Outcome {
	case fanout.InboundClaimed:
		h.successResponse(w, r, "班次认领成功", result)
	case fanout.InboundAlreadyClaimed:
		h.successResponse(w, r, "班次已被他人认领", result)
	case fanout.InboundAlreadyEscalated:
		h.successResponse(w, r, "班次已升级处理", result)
	default:
		h.successResponse(w, r, "消息已收到", result)
	}
}
