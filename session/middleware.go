package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultCookieName names the cookie carrying the session id
	DefaultCookieName = "_order_intake_session"

	contextKey = "session"

	storeTimeout = 3 * time.Second
)

// Options configures the session middleware
type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Middleware loads the session before the handler runs and stores it afterwards
func Middleware(store Store, opts Options) gin.HandlerFunc {
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}

	return func(c *gin.Context) {
		sess, err := load(c, store, opts.CookieName)
		if err != nil {
			zap.L().Error("Failed to load session", zap.Error(err))
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(opts.CookieName, sess.ID, int(opts.TTL/time.Second), "/", "", opts.Secure, true)
		c.Set(contextKey, sess)

		c.Next()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), storeTimeout)
		defer cancel()

		switch {
		case sess.dirty:
			if err := store.Save(ctx, sess.ID, sess.payload, opts.TTL); err != nil {
				zap.L().Error("Failed to save session", zap.String("session_id", sess.ID), zap.Error(err))
			}
		case sess.cleared:
			if err := store.Delete(ctx, sess.ID); err != nil {
				zap.L().Error("Failed to delete session", zap.String("session_id", sess.ID), zap.Error(err))
			}
		}
	}
}

func load(c *gin.Context, store Store, cookieName string) (*Session, error) {
	raw, err := c.Cookie(cookieName)
	if err != nil {
		return newSession(uuid.NewString(), nil), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return newSession(uuid.NewString(), nil), nil
	}

	payload, err := store.Load(c.Request.Context(), id.String())
	if errors.Is(err, ErrNotFound) {
		// never adopt an id the server did not issue
		return newSession(uuid.NewString(), nil), nil
	}
	if err != nil {
		return nil, err
	}
	return newSession(id.String(), payload), nil
}

// Get returns the session of the current request
func Get(c *gin.Context) *Session {
	if v, ok := c.Get(contextKey); ok {
		if sess, ok := v.(*Session); ok {
			return sess
		}
	}
	// handlers mounted without the middleware get a throwaway session
	sess := newSession(uuid.NewString(), nil)
	c.Set(contextKey, sess)
	return sess
}
