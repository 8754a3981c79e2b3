package controllers

import (
	"net/http"

	"github.com/preenhq/payments-service/internal/app"
	"github.com/preenhq/payments-service/internal/dtos"
	"github.com/preenhq/payments-service/internal/utils"
)

type HealthController struct {
	application *app.App
}

func NewHealthController(application *app.App) *HealthController {
	return &HealthController{application: application}
}

// HealthCheckHandler -> GET /health
func (c *HealthController) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if err := c.application.DB.Ping(r.Context()); err != nil {
		utils.RespondErrorWithCode(w, http.StatusServiceUnavailable, utils.ErrCodeInternal, "Database unreachable", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.HealthCheckResponse{Status: "ok"})
}
