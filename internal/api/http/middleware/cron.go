package middleware

import (
	"net/http"

	"github.com/clovalink/clovalink-server/internal/secret"
)

// CronGuard protects the maintenance endpoints with a shared secret header.
// They are invoked by a trusted scheduler, never by a user session.
type CronGuard struct {
	cronSecret string
}

func NewCronGuard(cronSecret string) *CronGuard {
	return &CronGuard{cronSecret: cronSecret}
}

func (m *CronGuard) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented := r.Header.Get("X-Cron-Secret")
		if presented == "" || !secret.EqualString(presented, m.cronSecret) {
			unauthorized(w, "invalid cron secret")
			return
		}
		next.ServeHTTP(w, r)
	})
}
