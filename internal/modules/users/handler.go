package users

import (
	"net/http"
	"time"

	"automedon/internal/models"
	"automedon/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for authentication and profiles.
type Handler struct {
	svc          ServiceInterface
	clientOrigin string
}

// NewHandler creates a new user handler.
func NewHandler(svc ServiceInterface, clientOrigin string) *Handler {
	return &Handler{svc: svc, clientOrigin: clientOrigin}
}

func (h *Handler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	user, err := h.svc.Signup(c.Request().Context(), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, user)
}

func (h *Handler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	authResponse, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		if err == models.ErrInvalidCredentials {
			return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid email or password")
		}
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, authResponse)
}

func (h *Handler) Activate(c echo.Context) error {
	var req models.ActivationRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	authResponse, err := h.svc.ActivateUserAndLogin(c.Request().Context(), req.Token)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, authResponse)
}

func (h *Handler) ResendActivation(c echo.Context) error {
	var req models.ResendActivationRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	if err := h.svc.ResendActivationEmail(c.Request().Context(), req.Email); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *Handler) RequestPasswordReset(c echo.Context) error {
	var req models.RequestPasswordResetRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	if err := h.svc.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *Handler) ResetPassword(c echo.Context) error {
	var req models.ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	authResponse, err := h.svc.ResetPassword(c.Request().Context(), req.Token, req.NewPassword)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, authResponse)
}

// GoogleLogin redirects the user to Google's consent screen, storing the
// anti-forgery state in a short-lived cookie.
func (h *Handler) GoogleLogin(c echo.Context) error {
	authURL, state, err := h.svc.HandleGoogleLogin()
	if err != nil {
		c.Logger().Errorf("Handler.GoogleLogin: %v", err)
		return utils.RespondWithError(c, http.StatusInternalServerError, "Could not initiate Google login")
	}

	cookie := new(http.Cookie)
	cookie.Name = "oauthstate"
	cookie.Value = state
	cookie.Expires = time.Now().Add(10 * time.Minute)
	cookie.Path = "/"
	cookie.HttpOnly = true
	cookie.Secure = true
	cookie.SameSite = http.SameSiteLaxMode
	c.SetCookie(cookie)

	return c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// GoogleCallback validates the state cookie against the query parameter and
// completes the login.
func (h *Handler) GoogleCallback(c echo.Context) error {
	stateCookie, err := c.Cookie("oauthstate")
	if err != nil {
		return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid or missing state cookie")
	}
	if c.QueryParam("state") != stateCookie.Value {
		return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid state parameter")
	}

	// Single use.
	stateCookie.Value = ""
	stateCookie.Expires = time.Unix(0, 0)
	c.SetCookie(stateCookie)

	authResponse, err := h.svc.HandleGoogleCallback(c.Request().Context(), c.QueryParam("code"))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, authResponse)
}

func (h *Handler) GetMyProfile(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	profile, err := h.svc.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, profile)
}

func (h *Handler) UpdateMyProfile(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.ProfileUpdateRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	profile, err := h.svc.UpdateProfile(c.Request().Context(), userID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, profile)
}

func (h *Handler) UploadAvatar(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("avatar")
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Missing avatar file")
	}
	f, err := fh.Open()
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Unreadable avatar file")
	}
	defer f.Close()

	profile, err := h.svc.UploadAvatar(c.Request().Context(), userID, fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, profile)
}
