package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"unisync/internal/creds"
	"unisync/internal/models"
	"unisync/internal/repository"
	"unisync/internal/service"
	"unisync/internal/unified"
)

type SyncHandler struct {
	Service *service.SyncService
	Store   repository.Repository
	Logger  *zap.Logger
}

func (h *SyncHandler) Register(r *gin.Engine) {
	group := r.Group("/api")
	group.POST("/sync", h.triggerSync)
	group.GET("/sync-runs", h.listSyncRuns)
	group.GET("/sync-runs/:id", h.getSyncRun)
	group.GET("/sync-state", h.listSyncStates)
}

type syncRunView struct {
	*models.SyncRun
	Status string `json:"status"`
}

func runView(run *models.SyncRun) syncRunView {
	return syncRunView{SyncRun: run, Status: run.Status()}
}

func (h *SyncHandler) triggerSync(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	var event service.SyncEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}
	if event.CustomerID == "" || event.ProviderName == "" {
		Error(c, http.StatusBadRequest, "customer_id and provider_name are required", nil)
		return
	}
	if event.Vertical != "" && !unified.ValidVertical(event.Vertical) {
		Error(c, http.StatusBadRequest, "invalid vertical: "+event.Vertical, nil)
		return
	}

	run, err := h.Service.SyncConnection(c.Request.Context(), event)
	if err != nil {
		if _, ok := asConfigError(err); ok {
			Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		if h.Logger != nil {
			h.Logger.Warn("sync failed",
				zap.String("customer_id", event.CustomerID),
				zap.String("provider", event.ProviderName),
				zap.Error(err))
		}
		// The run carries partial progress even when the sync failed.
		if run != nil {
			Error(c, http.StatusBadGateway, err.Error(), map[string]any{"run": runView(run)})
			return
		}
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, runView(run), nil)
}

func (h *SyncHandler) listSyncRuns(c *gin.Context) {
	if h.Store == nil {
		Error(c, http.StatusInternalServerError, "store unavailable", nil)
		return
	}
	params := repository.ListSyncRunsParams{
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
	}
	runs, err := h.Store.ListSyncRuns(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	views := make([]syncRunView, 0, len(runs))
	for i := range runs {
		views = append(views, runView(&runs[i]))
	}
	OkList(c, views, len(views))
}

func (h *SyncHandler) getSyncRun(c *gin.Context) {
	if h.Store == nil {
		Error(c, http.StatusInternalServerError, "store unavailable", nil)
		return
	}
	run, err := h.Store.GetSyncRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if run == nil {
		Error(c, http.StatusNotFound, "sync run not found", nil)
		return
	}
	Ok(c, runView(run), nil)
}

func (h *SyncHandler) listSyncStates(c *gin.Context) {
	if h.Store == nil {
		Error(c, http.StatusInternalServerError, "store unavailable", nil)
		return
	}
	states, err := h.Store.ListSyncStates(c.Request.Context())
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	OkList(c, states, len(states))
}

func asConfigError(err error) (*creds.ConfigError, bool) {
	var ce *creds.ConfigError
	ok := errors.As(err, &ce)
	return ce, ok
}

func intQuery(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return parsed
}
