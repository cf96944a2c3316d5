package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/shift-fanout/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-fanout/backend/internal/fanout"
)

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// InitiateShiftFanout 触发某个班次的首轮广播。
// 幂等接口，重复触发不会重复发送通知。
func (h *Handler) InitiateShiftFanout(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	result, err := h.fanoutService.InitiateFanout(r.Context(), shift.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	switch result.Outcome {
	case fanout.InitiateAlreadyStarted:
		h.successResponse(w, r, "班次广播早已发起", result)
	default:
		h.successResponse(w, r, "班次广播已发起", result)
	}
}

// GetShiftFanout 返回某个班次的广播记录
func (h *Handler) GetShiftFanout(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	record, ok := h.fanoutService.Record(shift.ID)
	if !ok {
		h.notFoundResponse(w, r, "班次广播记录不存在")
		return
	}

	h.successResponse(w, r, "获取成功", record)
}
