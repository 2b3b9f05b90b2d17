package services

import (
	"errors"
	"net/http"
	"os"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/plateful-labs/plateful_api/dto"
	"github.com/plateful-labs/plateful_api/shared"
)

// AuthService protects the admin surface. Operators authenticate with a
// pre-shared API key whose bcrypt hash lives in the environment; a
// successful login yields a short-lived JWT for subsequent calls.
type AuthService struct {
	context.DefaultService

	apiKeyHash string

	jwtSvc *JWTService
}

const AUTH_SVC = "auth_svc"

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Configure(ctx *context.Context) error {
	svc.apiKeyHash = os.Getenv("ADMIN_API_KEY_HASH")
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthService) Start() error {
	svc.jwtSvc = svc.Service(JWT_SVC).(*JWTService)

	if svc.apiKeyHash == "" {
		log.Warn("ADMIN_API_KEY_HASH is not set; admin login is disabled")
	}
	return nil
}

// Login exchanges the admin API key for a token pair.
func (svc *AuthService) Login(req dto.AdminLoginRequest) (*dto.TokenPair, error) {
	if svc.apiKeyHash == "" {
		return nil, shared.NewAppError(http.StatusForbidden, "Admin access is disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(svc.apiKeyHash), []byte(req.APIKey)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, shared.NewAppError(http.StatusUnauthorized, "Invalid API key")
		}
		return nil, shared.WrapAppError(http.StatusInternalServerError, "Credential check failed", err)
	}

	return svc.jwtSvc.GenerateTokenPair("admin")
}

// RequiredAuth guards admin routes with a bearer token check.
func (svc *AuthService) RequiredAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		token, err := svc.jwtSvc.ExtractTokenFromHeader(authHeader)
		if err != nil {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", err.Error())
		}

		adminID, err := svc.jwtSvc.VerifyJWTToken(token)
		if err != nil {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", "Invalid JWT token")
		}

		if adminID == "" {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", "Invalid admin ID in token")
		}

		c.Locals(shared.AdminID, adminID)
		return c.Next()
	}
}
