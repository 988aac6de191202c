package config

import "sync/atomic"

// LiveJWT holds the current JWT settings and allows them to be swapped at runtime.
type LiveJWT struct {
	current atomic.Pointer[JWTConfig]
}

// NewLiveJWT seeds the holder with initial settings.
func NewLiveJWT(initial JWTConfig) *LiveJWT {
	l := &LiveJWT{}
	l.Store(initial)
	return l
}

// Current returns a copy of the active settings.
func (l *LiveJWT) Current() JWTConfig {
	return *l.current.Load()
}

// Store replaces the active settings.
func (l *LiveJWT) Store(cfg JWTConfig) {
	l.current.Store(&cfg)
}
