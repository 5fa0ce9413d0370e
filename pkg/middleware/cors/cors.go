package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	allowHeaders  = "Authorization, Content-Type, Accept, X-Request-ID, Last-Event-ID"
	exposeHeaders = "X-Request-ID, Content-Disposition, X-Report-Rows"
	allowMethods  = "GET, POST, DELETE, OPTIONS"
	maxAge        = "600"
)

// policy decides which browser origins may call the console.
type policy struct {
	any     bool
	origins map[string]struct{}
}

func newPolicy(allowed []string) policy {
	p := policy{any: len(allowed) == 0, origins: make(map[string]struct{}, len(allowed))}
	for _, origin := range allowed {
		p.origins[normalize(origin)] = struct{}{}
	}
	return p
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin and
// whether credentials may be sent with it.
func (p policy) allowOrigin(origin string) (string, bool) {
	if origin == "" {
		if p.any {
			return "*", false
		}
		return "", false
	}
	if _, ok := p.origins[normalize(origin)]; ok || p.any {
		return origin, true
	}
	return "", false
}

// New returns a CORS middleware for the listed origins. An empty list allows
// any origin, which is only meant for local development.
func New(allowedOrigins []string) gin.HandlerFunc {
	p := newPolicy(allowedOrigins)

	return func(c *gin.Context) {
		h := c.Writer.Header()
		if value, credentials := p.allowOrigin(c.GetHeader("Origin")); value != "" {
			h.Set("Access-Control-Allow-Origin", value)
			if credentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
		}
		h.Set("Vary", "Origin")
		h.Set("Access-Control-Allow-Headers", allowHeaders)
		h.Set("Access-Control-Expose-Headers", exposeHeaders)
		h.Set("Access-Control-Allow-Methods", allowMethods)
		h.Set("Access-Control-Max-Age", maxAge)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func normalize(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}
