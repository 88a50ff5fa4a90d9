package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/christmas-fire/courier/internal/app/response"
	"github.com/christmas-fire/courier/internal/identity"
	"github.com/samber/lo"
)

// TimeOfDay is a wall-clock time with second precision, as seconds since midnight.
type TimeOfDay int

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		t, err = time.Parse("15:04:05", strings.TrimSpace(s))
		if err != nil {
			return 0, fmt.Errorf("invalid time of day %q: expected HH:MM or HH:MM:SS", s)
		}
	}
	return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
}

func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/3600, int(t)%3600/60)
}

// TimeWindowGate rejects non-staff requests to chat paths while the clock is inside
// the restricted window. Both bounds are inclusive; a window whose start is after
// its end wraps midnight.
type TimeWindowGate struct {
	start    TimeOfDay
	end      TimeOfDay
	prefixes []string
	now      func() time.Time
}

func NewTimeWindowGate(start, end TimeOfDay, prefixes []string, now func() time.Time) *TimeWindowGate {
	if now == nil {
		now = time.Now
	}
	return &TimeWindowGate{start: start, end: end, prefixes: prefixes, now: now}
}

func (g *TimeWindowGate) restricted(t TimeOfDay) bool {
	if g.start > g.end {
		return t >= g.start || t <= g.end
	}
	return t >= g.start && t <= g.end
}

func (g *TimeWindowGate) Blocks(r *http.Request) bool {
	if !hasAnyPrefix(r.URL.Path, g.prefixes) {
		return false
	}
	if identity.FromContext(r.Context()).IsStaff {
		return false
	}
	return g.restricted(TimeOfDayOf(g.now()))
}

func (g *TimeWindowGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.Blocks(r) {
			response.Error(w, http.StatusForbidden,
				fmt.Sprintf("Chat access is restricted between %s and %s", g.start, g.end))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func hasAnyPrefix(path string, prefixes []string) bool {
	return lo.ContainsBy(prefixes, func(p string) bool {
		return p != "" && strings.HasPrefix(path, p)
	})
}
