package session

import "context"

type User struct {
	ID    string
	Email string
}

// Session is the external collaborator that resolves the current user.
// It is assumed already resolved before the sync core runs; components
// receive it injected, never reached through a global.
type Session interface {
	IsAuthenticated() bool
	CurrentUser() (User, bool)
}

// Anonymous is the unauthenticated session.
var Anonymous Session = anonymous{}

type anonymous struct{}

func (anonymous) IsAuthenticated() bool     { return false }
func (anonymous) CurrentUser() (User, bool) { return User{}, false }

// Static is a fixed authenticated session, used by tests and by the
// middleware once a token has been verified.
type Static struct {
	User User
}

func (s Static) IsAuthenticated() bool {
	return s.User.ID != ""
}

func (s Static) CurrentUser() (User, bool) {
	if s.User.ID == "" {
		return User{}, false
	}
	return s.User, true
}

type ctxKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) Session {
	if s, ok := ctx.Value(ctxKey{}).(Session); ok {
		return s
	}

	return Anonymous
}
