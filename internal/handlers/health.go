package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	componentOK       = "ok"
	componentError    = "error"
	componentDisabled = "disabled"
)

type healthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	Cache       string `json:"cache"`
	Environment string `json:"environment"`
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := componentDisabled
	if h.db != nil {
		dbStatus = componentOK
		if err := h.db.Ping(ctx); err != nil {
			dbStatus = componentError
			h.log.Error().Err(err).Msg("database ping failed")
		}
	}

	cacheStatus := componentDisabled
	if h.cache != nil {
		cacheStatus = componentOK
		if err := h.cache.Ping(ctx).Err(); err != nil {
			cacheStatus = componentError
			h.log.Error().Err(err).Msg("redis ping failed")
		}
	}

	status := componentOK
	if dbStatus == componentError || cacheStatus == componentError {
		status = "degraded"
	}

	c.JSON(http.StatusOK, healthResponse{
		Status:      status,
		Database:    dbStatus,
		Cache:       cacheStatus,
		Environment: h.cfg.Environment,
	})
}
