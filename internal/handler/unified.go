package handler

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"unisync/internal/provider"
	"unisync/internal/service"
	"unisync/internal/unified"
)

// UnifiedHandler is the live read surface: it lists unified records straight
// from the provider, one page per request, without touching the warehouse.
// The connection is addressed by headers, the same way every request.
type UnifiedHandler struct {
	Adapters service.AdapterBuilder
	Logger   *zap.Logger
}

func (h *UnifiedHandler) Register(r *gin.Engine) {
	crm := r.Group("/crm/v2")
	crm.GET("/:objectType", h.list(unified.VerticalCRM))
	crm.GET("/:objectType/_count", h.count(unified.VerticalCRM))

	engagement := r.Group("/engagement/v2")
	engagement.GET("/:objectType", h.list(unified.VerticalEngagement))
	engagement.GET("/:objectType/_count", h.count(unified.VerticalEngagement))
}

type listPage struct {
	Items       []map[string]any `json:"items"`
	HasNextPage bool             `json:"has_next_page"`
	NextCursor  string           `json:"next_cursor,omitempty"`
}

func (h *UnifiedHandler) connection(c *gin.Context) (customerID, providerName string, ok bool) {
	customerID = c.GetHeader("x-customer-id")
	providerName = c.GetHeader("x-provider-name")
	if customerID == "" || providerName == "" {
		Error(c, http.StatusBadRequest, "x-customer-id and x-provider-name headers are required", nil)
		return "", "", false
	}
	return customerID, providerName, true
}

func (h *UnifiedHandler) adapter(c *gin.Context, vertical, objectType string) (provider.Adapter, bool) {
	if !slices.Contains(unified.ObjectTypesFor(vertical), objectType) {
		Error(c, http.StatusNotFound, "unknown object type: "+objectType, nil)
		return nil, false
	}
	customerID, providerName, ok := h.connection(c)
	if !ok {
		return nil, false
	}
	adapter, err := h.Adapters.Adapter(c.Request.Context(), customerID, providerName)
	if err != nil {
		if _, ok := asConfigError(err); ok {
			Error(c, http.StatusBadRequest, err.Error(), nil)
			return nil, false
		}
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return nil, false
	}
	if adapter.Vertical() != vertical {
		Error(c, http.StatusBadRequest, "provider "+providerName+" does not serve the "+vertical+" vertical", nil)
		return nil, false
	}
	return adapter, true
}

func (h *UnifiedHandler) list(vertical string) gin.HandlerFunc {
	return func(c *gin.Context) {
		objectType := c.Param("objectType")
		adapter, ok := h.adapter(c, vertical, objectType)
		if !ok {
			return
		}

		page, err := provider.ListObjects(c.Request.Context(), adapter, objectType, provider.ListParams{
			Cursor:   c.Query("cursor"),
			PageSize: intQuery(c, "page_size", 0),
		})
		if err != nil {
			h.writeProviderError(c, adapter.Name(), objectType, err)
			return
		}

		items := make([]map[string]any, 0, len(page.Items))
		for _, rec := range page.Items {
			items = append(items, rec.Data)
		}
		Ok(c, listPage{
			Items:       items,
			HasNextPage: page.HasNextPage,
			NextCursor:  page.NextCursor,
		}, nil)
	}
}

func (h *UnifiedHandler) count(vertical string) gin.HandlerFunc {
	return func(c *gin.Context) {
		objectType := c.Param("objectType")
		adapter, ok := h.adapter(c, vertical, objectType)
		if !ok {
			return
		}
		counter, ok := adapter.(provider.EntityCounter)
		if !ok {
			Error(c, http.StatusNotImplemented, adapter.Name()+" does not support counting", nil)
			return
		}
		n, err := counter.CountEntity(c.Request.Context(), objectType)
		if err != nil {
			h.writeProviderError(c, adapter.Name(), objectType, err)
			return
		}
		Ok(c, gin.H{"object_type": objectType, "count": n}, nil)
	}
}

func (h *UnifiedHandler) writeProviderError(c *gin.Context, providerName, objectType string, err error) {
	if provider.IsNotImplemented(err) {
		Error(c, http.StatusNotImplemented, err.Error(), nil)
		return
	}
	if h.Logger != nil {
		h.Logger.Warn("provider request failed",
			zap.String("provider", providerName),
			zap.String("object_type", objectType),
			zap.Error(err))
	}
	Error(c, http.StatusBadGateway, err.Error(), nil)
}
