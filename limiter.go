package portalengine

import (
	"sync"
	"time"
)

// failureWindow tracks login failures for one address. The window
// opens on the first failure and expires as a whole, so a burst of
// bad passwords locks the address out until the window lapses.
type failureWindow struct {
	start time.Time
	count int
}

// LoginLimiter blocks repeated failed logins per client IP.
type LoginLimiter struct {
	mu      sync.Mutex
	windows map[string]failureWindow
	max     int
	window  time.Duration
	stop    chan struct{}
}

// NewLoginLimiter allows max failures per window for each IP and
// starts a janitor that drops lapsed windows.
func NewLoginLimiter(max int, window time.Duration) *LoginLimiter {
	l := &LoginLimiter{
		windows: make(map[string]failureWindow),
		max:     max,
		window:  window,
		stop:    make(chan struct{}),
	}
	go l.janitor()
	return l
}

func (l *LoginLimiter) janitor() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			l.mu.Lock()
			for ip, w := range l.windows {
				if now.Sub(w.start) >= l.window {
					delete(l.windows, ip)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Stop terminates the janitor goroutine.
func (l *LoginLimiter) Stop() {
	close(l.stop)
}

// Check reports whether ip may attempt a login. It never counts the
// attempt itself: call Record when the password turns out wrong.
func (l *LoginLimiter) Check(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.windows[ip]
	if !ok {
		return true
	}
	if time.Since(w.start) >= l.window {
		delete(l.windows, ip)
		return true
	}
	return w.count < l.max
}

// Record counts one failed login for ip, opening a fresh window when
// none is running.
func (l *LoginLimiter) Record(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.windows[ip]
	if !ok || time.Since(w.start) >= l.window {
		l.windows[ip] = failureWindow{start: time.Now(), count: 1}
		return
	}
	w.count++
	l.windows[ip] = w
}
