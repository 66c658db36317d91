package admin

import (
	"net/http"

	"automedon/internal/models"
	"automedon/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles the admin HTTP endpoints.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new admin handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) ListAllMissions(c echo.Context) error {
	if _, _, err := utils.ExtractUserInfo(c); err != nil {
		return err
	}

	page, limit := utils.GetPageLimit(c)
	missions, total, err := h.svc.ListAllMissions(c.Request().Context(), c.QueryParam("statut"), page, limit)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"missions": missions, "total": total})
}

func (h *Handler) GetMission(c echo.Context) error {
	if _, _, err := utils.ExtractUserInfo(c); err != nil {
		return err
	}

	details, err := h.svc.GetMission(c.Request().Context(), c.Param("missionId"))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, details)
}

func (h *Handler) SetPricing(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.PricingRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}
	if req.ClientPrice == nil && req.ConvoyeurPayout == nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "At least one price field is required")
	}

	mission, err := h.svc.SetPricing(c.Request().Context(), c.Param("missionId"), userID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, mission)
}

func (h *Handler) ReassignMission(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.ReassignRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	mission, err := h.svc.ReassignMission(c.Request().Context(), c.Param("missionId"), userID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, mission)
}

func (h *Handler) ListUsers(c echo.Context) error {
	if _, _, err := utils.ExtractUserInfo(c); err != nil {
		return err
	}

	page, limit := utils.GetPageLimit(c)
	users, total, err := h.svc.ListUsers(c.Request().Context(), page, limit)
	if err != nil {
		return utils.RespondWithError(c, http.StatusInternalServerError, "Failed to list users")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"users": users, "total": total})
}
