package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolReport is the payload served by /health/db. Ward dashboards poll it,
// so the field names follow the camelCase convention of the rest of the API.
type PoolReport struct {
	Status        string `json:"status"`
	TotalConns    int32  `json:"totalConns"`
	IdleConns     int32  `json:"idleConns"`
	AcquiredConns int32  `json:"acquiredConns"`
	MaxConns      int32  `json:"maxConns"`
	WaitCount     int64  `json:"waitCount"`
	WaitTime      string `json:"waitTime"`
	Error         string `json:"error,omitempty"`
}

// ReportPool snapshots the pool counters. WaitCount is the number of
// acquires that found the pool empty; a climbing value means DB_MAX_CONNS
// is too low for the current load.
func ReportPool(pool *pgxpool.Pool) PoolReport {
	stat := pool.Stat()
	return PoolReport{
		Status:        "ok",
		TotalConns:    stat.TotalConns(),
		IdleConns:     stat.IdleConns(),
		AcquiredConns: stat.AcquiredConns(),
		MaxConns:      stat.MaxConns(),
		WaitCount:     stat.EmptyAcquireCount(),
		WaitTime:      stat.AcquireDuration().String(),
	}
}

// HealthHandler serves the database health endpoint: a ping with a short
// deadline plus the pool counters. Unreachable database maps to 503 so the
// load balancer can drain the instance.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		report := ReportPool(pool)
		if err := pool.Ping(ctx); err != nil {
			report.Status = "unavailable"
			report.Error = err.Error()
			return c.JSON(http.StatusServiceUnavailable, report)
		}
		return c.JSON(http.StatusOK, report)
	}
}
