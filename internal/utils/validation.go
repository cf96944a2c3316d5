package utils

import (
	"errors"

	"github.com/sysu-ecnc-dev/shift-fanout/backend/internal/domain"
)

func ValidateShiftTime(shift *domain.Shift) error {
	if !shift.EndTime.After(shift.StartTime) {
		return errors.New("班次的结束时间必须晚于开始时间")
	}
	return nil
}
