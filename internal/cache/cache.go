// Package cache udostępnia proste key-value z TTL dla warstw pochodnych
// (ścieżki, ostatnie pliki, klucze pobrań). Wpisy są best-effort: zgubiony
// lub przeterminowany wpis nigdy nie może naruszyć stanu w bazie.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss zwracane przez Get, gdy klucz nie istnieje albo wygasł.
var ErrCacheMiss = errors.New("cache: key not found")

type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Incr zlicza z TTL ustawianym przy pierwszym trafieniu — rate limit
	// wywołań STS.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
