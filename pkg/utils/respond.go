package utils

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"automedon/internal/models"

	"github.com/labstack/echo/v4"
)

// RespondWithJSON writes a JSON body with the given status code.
func RespondWithJSON(c echo.Context, status int, payload interface{}) error {
	return c.JSON(status, payload)
}

// RespondWithError writes the uniform error body with the given status code.
func RespondWithError(c echo.Context, status int, message string) error {
	return c.JSON(status, models.ErrorResponse{Message: message})
}

// HandleServiceError maps the sentinel errors of the service layer onto HTTP
// status codes. Anything unrecognized is treated as an internal error and the
// detail is logged rather than leaked.
func HandleServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrValidation):
		return RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		return RespondWithError(c, http.StatusNotFound, "Resource not found")
	case errors.Is(err, models.ErrForbidden):
		return RespondWithError(c, http.StatusForbidden, "You are not allowed to perform this action")
	case errors.Is(err, models.ErrAlreadyClaimed):
		return RespondWithError(c, http.StatusConflict, "Mission is no longer available")
	case errors.Is(err, models.ErrInvalidTransition):
		return RespondWithError(c, http.StatusConflict, "Mission status does not allow this action")
	case errors.Is(err, models.ErrProfileIncomplete):
		return RespondWithError(c, http.StatusForbidden, "Complete your profile before claiming missions")
	case errors.Is(err, models.ErrConflict):
		return RespondWithError(c, http.StatusConflict, "Resource already exists")
	case errors.Is(err, models.ErrSheetDirection):
		return RespondWithError(c, http.StatusBadRequest, "Unknown inspection sheet direction")
	case errors.Is(err, context.DeadlineExceeded):
		return RespondWithError(c, http.StatusGatewayTimeout, "The operation timed out, please retry")
	default:
		c.Logger().Errorf("internal error: %v", err)
		return RespondWithError(c, http.StatusInternalServerError, "An internal error occurred")
	}
}

// ExtractUserInfo returns the authenticated user's id and role, placed into
// the context by the JWT middleware.
func ExtractUserInfo(c echo.Context) (userID, role string, err error) {
	id, ok := c.Get("userID").(string)
	if !ok || id == "" {
		return "", "", RespondWithError(c, http.StatusUnauthorized, "Missing authentication")
	}
	r, _ := c.Get("userRole").(string)
	return id, r, nil
}

// GetPageLimit reads the page/limit query parameters with sane bounds.
func GetPageLimit(c echo.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
