package wsrouter

import (
	"log/slog"
	"runtime/debug"
)

type Logger interface {
	LogRequest(req *Request, route *Route)
	LogMessage(req *Request, msg any)
	LogPanic(req *Request, p any)
	LogError(req *Request, err error)
}

// SlogLogger is the default Logger. A zero SlogLogger writes to slog.Default().
type SlogLogger struct {
	Logger *slog.Logger
}

var DefaultLogger Logger = SlogLogger{}

func NewSlogLogger(l *slog.Logger) SlogLogger {
	return SlogLogger{Logger: l}
}

func (logger SlogLogger) log() *slog.Logger {
	if logger.Logger == nil {
		return slog.Default()
	}
	return logger.Logger
}

func requestAttrs(req *Request) []any {
	if req == nil {
		return nil
	}
	return []any{
		slog.String("request_id", req.ID),
		slog.String("method", req.Method),
		slog.String("path", req.Path),
	}
}

func (logger SlogLogger) LogRequest(req *Request, route *Route) {
	logger.log().Info("request",
		slog.String("request_id", req.ID),
		slog.String("route", route.Path()),
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
		slog.String("client", req.ClientAddr()),
	)
}

func (logger SlogLogger) LogMessage(req *Request, msg any) {
	logger.log().Info("message", append(requestAttrs(req), slog.Any("message", msg))...)
}

func (logger SlogLogger) LogPanic(req *Request, p any) {
	logger.log().Error("panic while handling request", append(requestAttrs(req),
		slog.Any("panic", p),
		slog.String("stack", string(debug.Stack())),
	)...)
}

func (logger SlogLogger) LogError(req *Request, err error) {
	if err == nil {
		return
	}
	logger.log().Error("request error", append(requestAttrs(req), slog.Any("error", err))...)
}
