package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/securecookie"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const (
	sessionContextKey contextKey = "session"
	tokenContextKey   contextKey = "session-token"
)

// Session is the per-browser state. It is created empty on first contact,
// populated by a successful identity verification, and its Authorized flag is
// cleared on logout. TargetURL remembers the protected path an anonymous
// visitor asked for, so the post-login redirect can land there.
type Session struct {
	Email      string
	Authorized bool
	TargetURL  string
	CreatedAt  time.Time
}

// sessionTTL bounds how long a browser session lives.
const sessionTTL = 24 * time.Hour

// SessionStore is an in-memory session store keyed by random token.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]Session)}
}

// Create stores a fresh empty session and returns its token.
// POST: session is stored; token is unique and unguessable
func (ss *SessionStore) Create() (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sessions[token] = Session{CreatedAt: time.Now()}
	return token, nil
}

// Get retrieves a session by token, expiring stale ones.
func (ss *SessionStore) Get(token string) (Session, bool) {
	ss.mu.RLock()
	session, ok := ss.sessions[token]
	ss.mu.RUnlock()
	if !ok {
		return Session{}, false
	}
	if time.Since(session.CreatedAt) > sessionTTL {
		ss.mu.Lock()
		delete(ss.sessions, token)
		ss.mu.Unlock()
		return Session{}, false
	}
	return session, true
}

// Update replaces the session for a token in place.
// PRE: token exists in the store
// POST: session value replaced; returns false for unknown tokens
func (ss *SessionStore) Update(token string, session Session) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if _, ok := ss.sessions[token]; !ok {
		return false
	}
	ss.sessions[token] = session
	return true
}

// Delete removes a session by token.
func (ss *SessionStore) Delete(token string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, token)
}

const sessionCookieName = "logem_session"

// SecureCookies controls the Secure flag on session cookies. Off by default
// so local development over plain HTTP works; production wiring turns it on.
var SecureCookies = false

// CookieCodec signs (and, when a block key is present, encrypts) the session
// token carried in the browser cookie.
type CookieCodec struct {
	sc *securecookie.SecureCookie
}

// NewCookieCodec builds a codec from the cookie-signing secret and the
// session secret. blockKey may be nil for signing-only cookies.
// PRE: hashKey is non-empty
// POST: returns a ready codec
func NewCookieCodec(hashKey, blockKey []byte) *CookieCodec {
	return &CookieCodec{sc: securecookie.New(hashKey, blockKey)}
}

// SetSessionCookie writes the encoded session token to the response.
func (c *CookieCodec) SetSessionCookie(w http.ResponseWriter, token string) error {
	encoded, err := c.sc.Encode(sessionCookieName, token)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    encoded,
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(sessionTTL / time.Second),
	})
	return nil
}

// ReadSessionToken extracts and verifies the session token from the request.
func (c *CookieCodec) ReadSessionToken(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	var token string
	if err := c.sc.Decode(sessionCookieName, cookie.Value, &token); err != nil {
		return "", false
	}
	return token, true
}

// Auth returns middleware that attaches the browser session to the request
// context, creating one on first contact. It never blocks a request; the
// Restrict gate handles authorization.
func Auth(sessions *SessionStore, codec *CookieCodec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := codec.ReadSessionToken(r)
			if ok {
				if _, found := sessions.Get(token); !found {
					ok = false
				}
			}
			if !ok {
				fresh, err := sessions.Create()
				if err != nil {
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
				if err := codec.SetSessionCookie(w, fresh); err != nil {
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
				token = fresh
			}

			session, _ := sessions.Get(token)
			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			ctx = context.WithValue(ctx, tokenContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Restrict guards a protected route: authorized sessions pass through,
// everyone else has the requested URL remembered on their session and is
// redirected to the login entry point. Never an error payload.
func Restrict(sessions *SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := GetSessionFromContext(r.Context())
			if ok && session.Authorized {
				next.ServeHTTP(w, r)
				return
			}
			if token, tokenOK := GetTokenFromContext(r.Context()); tokenOK {
				session.TargetURL = r.URL.RequestURI()
				sessions.Update(token, session)
			}
			http.Redirect(w, r, "/", http.StatusSeeOther)
		})
	}
}

// GetSessionFromContext extracts the session from the request context.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(Session)
	return session, ok
}

// GetTokenFromContext extracts the session token from the request context.
func GetTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey).(string)
	return token, ok
}

// ContextWithSession returns a context carrying the given session and token.
// Intended for use in tests.
func ContextWithSession(ctx context.Context, sess Session, token string) context.Context {
	ctx = context.WithValue(ctx, sessionContextKey, sess)
	return context.WithValue(ctx, tokenContextKey, token)
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
