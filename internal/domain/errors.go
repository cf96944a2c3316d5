package domain

import "errors"

var (
	ErrShiftNotFound     = errors.New("班次不存在")
	ErrCaregiverNotFound = errors.New("护工不存在")
	ErrFanoutNotFound    = errors.New("班次广播记录不存在")
)
