package domain

import "context"

type contextKey int

const (
	actorKey contextKey = iota
	requestKey
)

type actor struct {
	typ string
	id  string
}

// RequestInfo describes the HTTP request behind an audited change.
type RequestInfo struct {
	RequestID string
	IPAddress string
	UserAgent string
}

func WithActor(ctx context.Context, actorType, actorID string) context.Context {
	return context.WithValue(ctx, actorKey, actor{typ: actorType, id: actorID})
}

func ActorFromContext(ctx context.Context) (string, string) {
	a, _ := ctx.Value(actorKey).(actor)
	return a.typ, a.id
}

func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestKey, info)
}

func RequestInfoFromContext(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestKey).(RequestInfo)
	return info
}
