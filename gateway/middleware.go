package gateway

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/example/storefront/pkg/auth"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/time/rate"
)

const (
	claimsKey  = "claims"
	subjectKey = "subject"
)

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// requireRole validates the bearer token and attaches its claims to the
// request context.
func (g *Gateway) requireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			abort(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}
		claims, err := g.svc.Tokens.Verify(strings.TrimSpace(raw))
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		if claims.Role != role {
			abort(c, http.StatusForbidden, "insufficient role for this route")
			return
		}
		id, err := claims.ID()
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid token claims")
			return
		}
		c.Set(claimsKey, claims)
		c.Set(subjectKey, id)
		c.Next()
	}
}

func subject(c *gin.Context) primitive.ObjectID {
	return c.MustGet(subjectKey).(primitive.ObjectID)
}

// uploadLimit rejects multipart bodies that cannot fit one image of the
// configured size. Per-file sizes are checked again when the file is read.
func (g *Gateway) uploadLimit() gin.HandlerFunc {
	const formOverhead = 1 << 20
	limit := g.maxUpload + formOverhead
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			abort(c, http.StatusBadRequest, g.tooLargeMessage())
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// ipLimiter hands each client IP its own token bucket.
type ipLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	clients map[string]*client
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(perSecond float64, burst int) *ipLimiter {
	if perSecond <= 0 {
		perSecond = 1
	}
	if burst <= 0 {
		burst = 5
	}
	return &ipLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		ttl:     10 * time.Minute,
		clients: make(map[string]*client),
	}
}

func (l *ipLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cl, ok := l.clients[ip]
	if !ok {
		l.sweep(now)
		cl = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// sweep drops idle clients; called with mu held.
func (l *ipLimiter) sweep(now time.Time) {
	for ip, cl := range l.clients {
		if now.Sub(cl.lastSeen) > l.ttl {
			delete(l.clients, ip)
		}
	}
}

func (l *ipLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP(), time.Now()) {
			abort(c, http.StatusTooManyRequests, "too many requests, try again later")
			return
		}
		c.Next()
	}
}
