package middleware

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/christmas-fire/courier/internal/identity"
)

const requestLogTimeLayout = "2006-01-02 15:04:05.000000"

// RequestLogger appends one line per request to a sink:
//
//	<timestamp> - User: <identity> - Path: <path> - Method: <method>
//
// Sink failures never reach the client.
type RequestLogger struct {
	mu   sync.Mutex
	sink io.Writer
	now  func() time.Time
	log  *slog.Logger
}

func NewRequestLogger(sink io.Writer, now func() time.Time, log *slog.Logger) *RequestLogger {
	if now == nil {
		now = time.Now
	}
	return &RequestLogger{sink: sink, now: now, log: log}
}

func (l *RequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := identity.FromContext(r.Context()).DisplayName()
		l.write(user, r.URL.Path, r.Method)
		next.ServeHTTP(w, r)
	})
}

func (l *RequestLogger) write(user, path, method string) {
	line := fmt.Sprintf("%s - User: %s - Path: %s - Method: %s\n",
		l.now().Format(requestLogTimeLayout), user, path, method)

	l.mu.Lock()
	_, err := io.WriteString(l.sink, line)
	l.mu.Unlock()

	if err != nil {
		l.log.Debug("request log write failed", "error", err)
	}
}
