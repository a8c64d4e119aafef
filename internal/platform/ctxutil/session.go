package ctxutil

import "context"

type sessionDataKey struct{}

// SessionData identifies the chat session a request belongs to and the
// caller-assigned sequence number of that request within the session.
type SessionData struct {
	SessionID string
	Seq       uint64
}

func WithSessionData(ctx context.Context, sd *SessionData) context.Context {
	return context.WithValue(ctx, sessionDataKey{}, sd)
}

func GetSessionData(ctx context.Context) *SessionData {
	if sd, ok := ctx.Value(sessionDataKey{}).(*SessionData); ok {
		return sd
	}
	return nil
}
