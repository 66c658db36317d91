package missions

import (
	"net/http"
	"strconv"
	"strings"

	"automedon/internal/models"
	"automedon/pkg/report"
	"automedon/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for missions.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new mission handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) CreateMission(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.CreateMissionRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	mission, err := h.svc.CreateMission(c.Request().Context(), userID, role, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, mission)
}

func (h *Handler) ListAvailable(c echo.Context) error {
	if _, _, err := utils.ExtractUserInfo(c); err != nil {
		return err
	}

	page, limit := utils.GetPageLimit(c)
	missions, total, err := h.svc.ListAvailable(c.Request().Context(), page, limit)
	if err != nil {
		return utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve missions")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"missions": missions, "total": total})
}

func (h *Handler) ListMine(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	page, limit := utils.GetPageLimit(c)
	missions, total, err := h.svc.ListMine(c.Request().Context(), userID, role, page, limit)
	if err != nil {
		return utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve missions")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"missions": missions, "total": total})
}

func (h *Handler) GetMissionDetails(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	details, err := h.svc.GetMissionDetails(c.Request().Context(), c.Param("missionId"), userID, role)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, details)
}

func (h *Handler) ClaimMission(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	mission, err := h.svc.ClaimMission(c.Request().Context(), c.Param("missionId"), userID, role)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, mission)
}

func (h *Handler) StartMission(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	mission, err := h.svc.StartMission(c.Request().Context(), c.Param("missionId"), userID, role)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, mission)
}

func (h *Handler) AppendUpdate(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.AppendUpdateRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	update, err := h.svc.AppendUpdate(c.Request().Context(), c.Param("missionId"), userID, role, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, update)
}

// AddExpense accepts either a JSON body or a multipart form carrying a
// "receipt" file alongside the expense fields. With a receipt the photo is
// stored before the expense row is written.
func (h *Handler) AddExpense(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.AddExpenseRequest
	var receipt *ReceiptUpload

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		amount, parseErr := strconv.ParseFloat(c.FormValue("amount"), 64)
		if parseErr != nil {
			return utils.RespondWithError(c, http.StatusBadRequest, "Invalid amount")
		}
		req = models.AddExpenseRequest{
			Type:           c.FormValue("type"),
			Amount:         amount,
			Description:    c.FormValue("description"),
			IdempotencyKey: c.FormValue("idempotency_key"),
		}

		if fh, fileErr := c.FormFile("receipt"); fileErr == nil {
			f, openErr := fh.Open()
			if openErr != nil {
				return utils.RespondWithError(c, http.StatusBadRequest, "Unreadable receipt file")
			}
			defer f.Close()
			receipt = &ReceiptUpload{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Body:        f,
			}
		}
	} else {
		if err := c.Bind(&req); err != nil {
			return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		}
	}

	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	expense, err := h.svc.AddExpense(c.Request().Context(), c.Param("missionId"), userID, role, req, receipt)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, expense)
}

func (h *Handler) ListExpenses(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	expenses, total, err := h.svc.ListExpenses(c.Request().Context(), c.Param("missionId"), userID, role)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"expenses": expenses, "total": total})
}

func (h *Handler) CompleteMission(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.CompleteMissionRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	mission, err := h.svc.CompleteMission(c.Request().Context(), c.Param("missionId"), userID, role, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, mission)
}

// UploadPhoto stores a mission photo and returns its URL for attachment in a
// follow-up update or sheet request.
func (h *Handler) UploadPhoto(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("photo")
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Missing photo file")
	}
	f, err := fh.Open()
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Unreadable photo file")
	}
	defer f.Close()

	url, err := h.svc.UploadPhoto(c.Request().Context(), c.Param("missionId"), userID, role, &ReceiptUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	})
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, map[string]string{"url": url})
}

func (h *Handler) SaveSheet(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.SaveSheetRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	sheet, err := h.svc.SaveSheet(c.Request().Context(), c.Param("missionId"), c.Param("direction"), userID, role, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, sheet)
}

func (h *Handler) GetSheet(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	sheet, err := h.svc.GetSheet(c.Request().Context(), c.Param("missionId"), c.Param("direction"), userID, role)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, sheet)
}

// GetSheetPDF renders the sheet as a printable A4 report.
func (h *Handler) GetSheetPDF(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	missionID := c.Param("missionId")
	direction := c.Param("direction")

	details, err := h.svc.GetMissionDetails(c.Request().Context(), missionID, userID, role)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	var sheet *models.InspectionSheet
	switch direction {
	case models.SheetDeparture:
		sheet = details.DepartureSheet
	case models.SheetArrival:
		sheet = details.ArrivalSheet
	default:
		return utils.RespondWithError(c, http.StatusBadRequest, "Unknown inspection sheet direction")
	}
	if sheet == nil {
		return utils.RespondWithError(c, http.StatusNotFound, "Resource not found")
	}

	pdf, err := report.InspectionReport(&details.Mission, sheet)
	if err != nil {
		return utils.RespondWithError(c, http.StatusInternalServerError, "Failed to render report")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="fiche-`+direction+`-`+missionID+`.pdf"`)
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}
