package controllers

import (
	"net/http"

	"github.com/huntboard/team-lock-service/internal/app"
	"github.com/huntboard/team-lock-service/internal/utils"
)

type HealthController struct {
	app *app.App
}

func NewHealthController(application *app.App) *HealthController {
	return &HealthController{app: application}
}

func (c *HealthController) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if err := c.app.DB.Ping(r.Context()); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusServiceUnavailable, utils.ErrCodeStorage, "Database unreachable", nil, err,
		)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
