package handler

type ContextKey string

var (
	SubCtxKey ContextKey = "sub"
	ShiftCtx  ContextKey = "shift"
)
