package httpapi

import (
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestID keeps a caller supplied X-Request-ID or assigns a fresh one and
// echoes it on the response.
func RequestID(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		rid := string(ctx.Request.Header.Peek(requestIDHeader))
		if rid == "" || len(rid) > 64 {
			rid = uuid.NewString()
		}
		ctx.SetUserValue(requestIDKey, rid)
		ctx.Response.Header.Set(requestIDHeader, rid)
		next(ctx)
	}
}

func GetRequestID(ctx *fasthttp.RequestCtx) string {
	if s, ok := ctx.UserValue(requestIDKey).(string); ok {
		return s
	}
	return ""
}
