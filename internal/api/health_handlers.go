package api

import (
	"errors"
	"net/http"

	"chmura-plikow/internal/cache"
)

// @Summary      Health check
// @Description  Verifies connectivity to the database and the cache backend.
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /health [get]
func (s *Server) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"database": "ok", "cache": "ok"}
	healthy := true

	if err := s.store.GetPool().Ping(r.Context()); err != nil {
		status["database"] = err.Error()
		healthy = false
	}

	if _, err := s.cache.Get(r.Context(), "healthcheck"); err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		status["cache"] = err.Error()
		healthy = false
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}
