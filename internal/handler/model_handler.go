package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/guyueqh/sentinel/internal/registry"
	"github.com/guyueqh/sentinel/internal/xe"
)

// ModelHandler AI模型注册表管理接口
type ModelHandler struct {
	registry *registry.Registry
	logger   *zap.Logger
}

func NewModelHandler(reg *registry.Registry, logger *zap.Logger) *ModelHandler {
	return &ModelHandler{registry: reg, logger: logger}
}

type modelRequest struct {
	Name        string `json:"name" validate:"required"`
	Provider    string `json:"provider" validate:"required"`
	Model       string `json:"model" validate:"required"`
	APIKey      string `json:"api_key"`
	BaseURL     string `json:"base_url"`
	Description string `json:"description"`
}

// ListModels 全部已注册的模型，APIKey脱敏
// GET /api/models
func (h *ModelHandler) ListModels(c echo.Context) error {
	items := h.registry.List()
	for i := range items {
		items[i].APIKey = maskSecret(items[i].APIKey)
	}
	return c.JSON(http.StatusOK, items)
}

// CreateModel 注册新模型
// POST /api/models
func (h *ModelHandler) CreateModel(c echo.Context) error {
	var req modelRequest
	if err := c.Bind(&req); err != nil {
		return xe.ErrInvalidParams
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	created, err := h.registry.Add(registry.AIModel{
		Name:        req.Name,
		Provider:    req.Provider,
		Model:       req.Model,
		APIKey:      req.APIKey,
		BaseURL:     req.BaseURL,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	h.logger.Info("新增AI模型",
		zap.String("id", created.ID),
		zap.String("provider", created.Provider),
		zap.String("model", created.Model))
	created.APIKey = maskSecret(created.APIKey)
	return c.JSON(http.StatusOK, created)
}

// UpdateModel 更新模型配置
// PUT /api/models/:id
func (h *ModelHandler) UpdateModel(c echo.Context) error {
	var req modelRequest
	if err := c.Bind(&req); err != nil {
		return xe.ErrInvalidParams
	}

	err := h.registry.Update(c.Param("id"), registry.AIModel{
		Name:        req.Name,
		Provider:    req.Provider,
		Model:       req.Model,
		APIKey:      req.APIKey,
		BaseURL:     req.BaseURL,
		Description: req.Description,
	})
	if err != nil {
		return xe.ErrModelNotFound
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ok"})
}

// ActivateModel 切换激活模型，同一时刻只有一个激活
// POST /api/models/:id/active
func (h *ModelHandler) ActivateModel(c echo.Context) error {
	if err := h.registry.SetActive(c.Param("id")); err != nil {
		return xe.ErrModelNotFound
	}
	h.logger.Info("切换激活模型", zap.String("id", c.Param("id")))
	return c.JSON(http.StatusOK, echo.Map{"message": "ok"})
}

// DeleteModel 删除模型
// DELETE /api/models/:id
func (h *ModelHandler) DeleteModel(c echo.Context) error {
	if err := h.registry.Delete(c.Param("id")); err != nil {
		return xe.ErrModelNotFound
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ok"})
}

// RegisterRoutes 注册路由
func (h *ModelHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/models", h.ListModels)
	g.POST("/models", h.CreateModel)
	g.PUT("/models/:id", h.UpdateModel)
	g.POST("/models/:id/active", h.ActivateModel)
	g.DELETE("/models/:id", h.DeleteModel)
}

// maskSecret 只保留前后各4位
func maskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}
