package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/abhisek/mathtutor/internal/logger"
	"github.com/abhisek/mathtutor/internal/session"
)

const (
	// CookieName holds the durable session id.
	CookieName = "mathtutor_session"
	// HeaderSession carries the session id for clients without cookies. It
	// is echoed on every response.
	HeaderSession = "X-Session-ID"

	cookieMaxAge = 365 * 24 * 60 * 60
	ctxSession   = "mathtutor.session"
)

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Requested-With", HeaderSession},
		ExposeHeaders: []string{HeaderSession, "Content-Disposition", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

// sessionMiddleware resolves the learner for every request. The cookie is
// the durable store and the request header the ephemeral one.
func sessionMiddleware(log *logger.Logger, newID func() string) gin.HandlerFunc {
	return func(c *gin.Context) {
		durable := session.FuncStore{
			LoadFunc: func(context.Context) (string, error) {
				v, err := c.Cookie(CookieName)
				if errors.Is(err, http.ErrNoCookie) {
					return "", nil
				}
				return v, err
			},
			SaveFunc: func(_ context.Context, id string) error {
				c.SetSameSite(http.SameSiteLaxMode)
				c.SetCookie(CookieName, id, cookieMaxAge, "/", "", false, true)
				return nil
			},
		}
		ephemeral := session.FuncStore{
			LoadFunc: func(context.Context) (string, error) {
				return strings.TrimSpace(c.GetHeader(HeaderSession)), nil
			},
		}

		r := session.NewResolver(durable, ephemeral, log)
		if newID != nil {
			r = r.WithIDs(newID)
		}
		res := r.Resolve(c.Request.Context(), c.Request.URL)
		c.Set(ctxSession, res)
		c.Header(HeaderSession, res.ID)
		c.Next()
	}
}

func sessionOf(c *gin.Context) session.Result {
	v, _ := c.Get(ctxSession)
	res, _ := v.(session.Result)
	return res
}

func sessionID(c *gin.Context) string { return sessionOf(c).ID }

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []any{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if id := sessionID(c); id != "" {
			fields = append(fields, "session_id", id)
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Debug("HTTP request", fields...)
		}
	}
}
