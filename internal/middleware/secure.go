package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/unrolled/secure"
)

// SecureHeaders applies the standard browser hardening headers.
func SecureHeaders(production bool, log zerolog.Logger) gin.HandlerFunc {
	sec := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		// authEmail answers with an inline script that closes the tab.
		ContentSecurityPolicy: "default-src 'none'; script-src 'unsafe-inline'",
		SSLRedirect:           production,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !production,
	})

	return func(c *gin.Context) {
		if err := sec.Process(c.Writer, c.Request); err != nil {
			// secure has already written the redirect or rejection.
			log.Debug().Err(err).Str("request_id", RequestIDFrom(c)).Msg("secure headers stopped request")
			c.Abort()
			return
		}
		c.Next()
	}
}
