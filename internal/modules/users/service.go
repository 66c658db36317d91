package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"automedon/internal/models"
	emailSvc "automedon/pkg/email"
	"automedon/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

// UploaderInterface stores an avatar photo and returns its durable URL.
type UploaderInterface interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// ServiceInterface defines methods for user business logic.
type ServiceInterface interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	ActivateUserAndLogin(ctx context.Context, token string) (*models.AuthResponse, error)
	ResendActivationEmail(ctx context.Context, email string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) (*models.AuthResponse, error)
	HandleGoogleLogin() (string, string, error)
	HandleGoogleCallback(ctx context.Context, code string) (*models.AuthResponse, error)

	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, data models.ProfileUpdateRequest) (*models.Profile, error)
	UploadAvatar(ctx context.Context, userID, filename, contentType string, body io.Reader) (*models.Profile, error)
}

// Service implements the user business logic.
type Service struct {
	userRepo          RepositoryInterface
	emailer           emailSvc.ServiceInterface
	templateManager   *emailSvc.TemplateManager
	uploader          UploaderInterface
	jwtSecret         string
	clientOrigin      string
	googleOAuthConfig *oauth2.Config
}

// NewService creates a new user service.
func NewService(
	userRepo RepositoryInterface,
	emailer emailSvc.ServiceInterface,
	tm *emailSvc.TemplateManager,
	uploader UploaderInterface,
	jwtSecret string,
	clientOrigin string,
	googleOAuthConfig *oauth2.Config,
) ServiceInterface {
	return &Service{
		userRepo:          userRepo,
		emailer:           emailer,
		templateManager:   tm,
		uploader:          uploader,
		jwtSecret:         jwtSecret,
		clientOrigin:      clientOrigin,
		googleOAuthConfig: googleOAuthConfig,
	}
}

// GoogleUserInfo is the shape of Google's userinfo response.
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (s *Service) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	// 1. Check if a user with that email already exists.
	_, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("service.Signup.FindByEmail: %w", err)
	}
	if err == nil {
		return nil, models.ErrConflict
	}

	// 2. Hash the password.
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("service.Signup.HashPassword: %w", err)
	}

	// 3. Create an activation token.
	activationToken, err := utils.GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("service.Signup.GenerateToken: %w", err)
	}
	expiresAt := time.Now().Add(time.Minute * 30)

	// 4. Create the inactive user with their role and empty profile.
	createdUser, err := s.userRepo.CreateInactiveUser(ctx, req.Email, string(hashedPassword), req.Role, activationToken, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("service.Signup.CreateUser: %w", err)
	}

	// 5. Send the activation email without blocking the signup response.
	activationURL := fmt.Sprintf("%s/activate?token=%s", s.clientOrigin, activationToken)
	htmlContent, err := s.templateManager.GenerateActivateAccountEmailHTML(emailSvc.TemplateData{
		Name: createdUser.Email,
		Link: activationURL,
	})
	if err != nil {
		log.Printf("Failed to generate activation email HTML: %v", err)
		return createdUser, nil
	}

	subject := "Bienvenue sur Automédon - activez votre compte"
	plainText := fmt.Sprintf("Merci pour votre inscription. Cliquez sur ce lien sous 30 minutes pour activer votre compte : %s", activationURL)

	go func() {
		if err := s.emailer.SendEmail(context.Background(), createdUser.Email, subject, plainText, htmlContent); err != nil {
			log.Printf("Failed to send activation email to %s: %v", createdUser.Email, err)
		}
	}()

	return createdUser, nil
}

// generateAuthResponse builds the JWT and response payload after a
// successful authentication.
func (s *Service) generateAuthResponse(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	claims := &models.JwtCustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 24 * 30)),
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenSignedString, err := accessToken.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	user.PasswordHash = ""

	resp := &models.AuthResponse{
		AccessToken: tokenSignedString,
		User:        user,
	}
	if profile, profErr := s.userRepo.GetProfile(ctx, user.ID); profErr == nil {
		resp.Profile = profile
	}
	return resp, nil
}

func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("service.Login.FindByEmail: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, models.ErrForbidden
	}

	return s.generateAuthResponse(ctx, user)
}

func (s *Service) ActivateUserAndLogin(ctx context.Context, token string) (*models.AuthResponse, error) {
	activatedUser, err := s.userRepo.ActivateUser(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("service.ActivateUserAndLogin: %w", err)
	}
	return s.generateAuthResponse(ctx, activatedUser)
}

func (s *Service) ResendActivationEmail(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		// Hide account existence.
		if errors.Is(err, models.ErrNotFound) {
			log.Printf("INFO: Activation resend requested for non-existent email: %s", email)
			return nil
		}
		return fmt.Errorf("service.ResendActivationEmail.FindByEmail: %w", err)
	}
	if user.IsActive {
		log.Printf("INFO: Activation resend requested for already active user: %s", email)
		return nil
	}

	activationToken, err := utils.GenerateSecureToken(32)
	if err != nil {
		return fmt.Errorf("service.ResendActivationEmail.GenerateToken: %w", err)
	}
	expiresAt := time.Now().Add(time.Minute * 30)

	if err := s.userRepo.UpdateActivationToken(ctx, user.ID, activationToken, expiresAt); err != nil {
		return fmt.Errorf("service.ResendActivationEmail.UpdateToken: %w", err)
	}

	activationURL := fmt.Sprintf("%s/activate?token=%s", s.clientOrigin, activationToken)
	htmlContent, err := s.templateManager.GenerateActivateAccountEmailHTML(emailSvc.TemplateData{
		Name: user.Email,
		Link: activationURL,
	})
	if err != nil {
		log.Printf("Failed to generate re-activation email HTML: %v", err)
		return nil
	}

	subject := "Activez votre compte Automédon (nouveau lien)"
	plainText := fmt.Sprintf("Cliquez sur ce lien sous 30 minutes pour activer votre compte : %s", activationURL)

	go func() {
		if err := s.emailer.SendEmail(context.Background(), email, subject, plainText, htmlContent); err != nil {
			log.Printf("Failed to send re-activation email to %s: %v", email, err)
		}
	}()

	return nil
}

func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		// Hide account existence.
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("service.RequestPasswordReset.FindByEmail: %w", err)
	}

	resetToken, err := utils.GenerateSecureToken(32)
	if err != nil {
		return fmt.Errorf("service.RequestPasswordReset.GenerateToken: %w", err)
	}
	expiresAt := time.Now().Add(time.Hour)

	if err := s.userRepo.SetPasswordResetToken(ctx, user.ID, resetToken, expiresAt); err != nil {
		return fmt.Errorf("service.RequestPasswordReset.SetToken: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.clientOrigin, resetToken)
	htmlContent, err := s.templateManager.GenerateResetPasswordEmailHTML(emailSvc.TemplateData{
		Name: user.Email,
		Link: resetURL,
	})
	if err != nil {
		log.Printf("Failed to generate password reset email HTML: %v", err)
		return nil
	}

	subject := "Réinitialisation de votre mot de passe"
	plainText := fmt.Sprintf("Cliquez sur ce lien sous une heure pour choisir un nouveau mot de passe : %s", resetURL)

	go func() {
		if err := s.emailer.SendEmail(context.Background(), email, subject, plainText, htmlContent); err != nil {
			log.Printf("Failed to send password reset email to %s: %v", email, err)
		}
	}()

	return nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) (*models.AuthResponse, error) {
	user, err := s.userRepo.FindByPasswordResetToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("service.ResetPassword.FindByToken: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("service.ResetPassword.HashPassword: %w", err)
	}

	if err := s.userRepo.UpdatePasswordAndClearResetToken(ctx, user.ID, string(hashedPassword)); err != nil {
		return nil, fmt.Errorf("service.ResetPassword.UpdatePassword: %w", err)
	}

	return s.generateAuthResponse(ctx, user)
}

// HandleGoogleLogin returns the Google consent URL plus the anti-forgery
// state the handler stores in a cookie.
func (s *Service) HandleGoogleLogin() (string, string, error) {
	state, err := utils.GenerateSecureToken(16)
	if err != nil {
		return "", "", fmt.Errorf("service.HandleGoogleLogin: %w", err)
	}
	return s.googleOAuthConfig.AuthCodeURL(state), state, nil
}

// HandleGoogleCallback exchanges the authorization code, fetches the Google
// profile and logs the user in, creating the account on first visit.
func (s *Service) HandleGoogleCallback(ctx context.Context, code string) (*models.AuthResponse, error) {
	token, err := s.googleOAuthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("service.HandleGoogleCallback.Exchange: %w", err)
	}

	resp, err := s.googleOAuthConfig.Client(ctx, token).Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("service.HandleGoogleCallback.UserInfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("service.HandleGoogleCallback: userinfo returned %d", resp.StatusCode)
	}

	var info GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("service.HandleGoogleCallback.Decode: %w", err)
	}
	if !info.VerifiedEmail {
		return nil, models.ErrForbidden
	}

	user, err := s.userRepo.FindByEmail(ctx, info.Email)
	if errors.Is(err, models.ErrNotFound) {
		user, err = s.userRepo.CreateOAuthUser(ctx, info.Email, "google", info.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("service.HandleGoogleCallback.User: %w", err)
	}

	return s.generateAuthResponse(ctx, user)
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.userRepo.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.GetProfile: %w", err)
	}
	return profile, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, data models.ProfileUpdateRequest) (*models.Profile, error) {
	profile, err := s.userRepo.UpdateProfile(ctx, userID, data)
	if err != nil {
		return nil, fmt.Errorf("service.UpdateProfile: %w", err)
	}
	return profile, nil
}

// UploadAvatar stores the photo first and writes the profile second; when
// the profile write fails the uploaded object is deleted so the two never
// diverge from the caller's point of view.
func (s *Service) UploadAvatar(ctx context.Context, userID, filename, contentType string, body io.Reader) (*models.Profile, error) {
	key := fmt.Sprintf("avatars/%s/%s-%s", userID, uuid.NewString(), filename)
	url, err := s.uploader.Upload(ctx, key, contentType, body)
	if err != nil {
		return nil, fmt.Errorf("service.UploadAvatar.Upload: %w", err)
	}

	if err := s.userRepo.SetAvatarURL(ctx, userID, url); err != nil {
		_ = s.uploader.Delete(ctx, key)
		return nil, fmt.Errorf("service.UploadAvatar.SetAvatarURL: %w", err)
	}

	return s.userRepo.GetProfile(ctx, userID)
}
