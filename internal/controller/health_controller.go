package controller

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// HealthController reports process and dependency health.
type HealthController struct {
	pool        *pgxpool.Pool
	redisClient *redis.Client
}

func NewHealthController(pool *pgxpool.Pool, redisClient *redis.Client) *HealthController {
	return &HealthController{pool: pool, redisClient: redisClient}
}

// Liveness reports that the process is up.
func (c *HealthController) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness checks the database and Redis connections.
func (c *HealthController) Readiness(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"database": "ok",
		"redis":    "ok",
	}
	status := http.StatusOK

	if err := c.pool.Ping(r.Context()); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if err := c.redisClient.Ping(r.Context()).Err(); err != nil {
		checks["redis"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, checks)
}

// Health is the combined endpoint.
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	c.Readiness(w, r)
}
