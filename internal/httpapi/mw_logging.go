package httpapi

import (
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

func AccessLog(log *zap.Logger, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		log.Info("http_request",
			zap.String("rid", GetRequestID(ctx)),
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("path", ctx.Path()),
			zap.Int("status", ctx.Response.StatusCode()),
			zap.Duration("dur", time.Since(start)),
		)
	}
}
