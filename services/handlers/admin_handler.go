package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/plateful-labs/plateful_api/dto"
	"github.com/plateful-labs/plateful_api/shared"
)

type AdminHandler struct {
	authSvc      AuthServiceInterface
	budgetSvc    BudgetServiceInterface
	rateLimitSvc RateLimitServiceInterface
	blocklistSvc BlocklistServiceInterface
}

func NewAdminHandler(authSvc AuthServiceInterface, budgetSvc BudgetServiceInterface, rateLimitSvc RateLimitServiceInterface, blocklistSvc BlocklistServiceInterface) *AdminHandler {
	return &AdminHandler{
		authSvc:      authSvc,
		budgetSvc:    budgetSvc,
		rateLimitSvc: rateLimitSvc,
		blocklistSvc: blocklistSvc,
	}
}

// @Summary Admin login
// @Description Exchange the admin API key for a bearer token
// @Tags admin
// @Accept json
// @Produce json
// @Param loginRequest body dto.AdminLoginRequest true "Admin API key"
// @Success 200 {object} shared.Response{data=dto.TokenPair}
// @Failure 401 {object} shared.Response
// @Router /api/v1/admin/auth/login [post]
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.ResponseJSON(c, http.StatusBadRequest, "Invalid request", err.Error())
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	tokens, err := h.authSvc.Login(req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Login successful", tokens)
}

// @Summary Usage statistics (Admin)
// @Description Today's spend, budget utilisation and recent daily usage
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Success 200 {object} shared.Response{data=dto.UsageStatsResponse}
// @Router /api/v1/admin/usage [get]
func (h *AdminHandler) GetUsageStats(c *fiber.Ctx) error {
	stats, err := h.budgetSvc.GetUsageStats()
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, stats)
}

// @Summary Rate limit statistics (Admin)
// @Description Current rate limit configuration and live window counts
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Success 200 {object} shared.Response{data=dto.RateLimitStatsResponse}
// @Router /api/v1/admin/ratelimits [get]
func (h *AdminHandler) GetRateLimitStats(c *fiber.Ctx) error {
	windows, err := h.rateLimitSvc.ActiveWindows()
	if err != nil {
		return err
	}

	blocked, err := h.blocklistSvc.ActiveCount()
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, dto.RateLimitStatsResponse{
		RequestsPerHour: h.rateLimitSvc.Quota(),
		Enabled:         h.rateLimitSvc.Enabled(),
		ActiveWindows:   windows,
		BlockedIPs:      blocked,
	})
}

// @Summary Reset a rate limit (Admin)
// @Description Clear the current hourly windows for a client address
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param ip path string true "Client IP address"
// @Param endpoint query string false "Endpoint identifier" default(/parse)
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/admin/ratelimits/{ip} [delete]
func (h *AdminHandler) ResetRateLimit(c *fiber.Ctx) error {
	ipAddress := c.Params("ip")
	if ipAddress == "" {
		return shared.ResponseJSON(c, http.StatusBadRequest, "IP address is required", nil)
	}

	endpoint := c.Query("endpoint", shared.EndpointParse)
	if err := h.rateLimitSvc.Reset(ipAddress, endpoint); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Rate limit reset", nil)
}

// @Summary List blocked IPs (Admin)
// @Description All deny-list entries, including lapsed ones pending cleanup
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Success 200 {object} shared.Response{data=[]dto.BlockedIPResponse}
// @Router /api/v1/admin/blocklist [get]
func (h *AdminHandler) ListBlockedIPs(c *fiber.Ctx) error {
	entries, err := h.blocklistSvc.List()
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, entries)
}

// @Summary Block an IP (Admin)
// @Description Add or refresh a deny-list entry; zero duration blocks permanently
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param blockRequest body dto.BlockIPRequest true "Address to block"
// @Success 201 {object} shared.Response{data=dto.BlockedIPResponse}
// @Router /api/v1/admin/blocklist [post]
func (h *AdminHandler) BlockIP(c *fiber.Ctx) error {
	var req dto.BlockIPRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.ResponseJSON(c, http.StatusBadRequest, "Invalid request", err.Error())
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	var duration *time.Duration
	if req.DurationMinutes > 0 {
		d := time.Duration(req.DurationMinutes) * time.Minute
		duration = &d
	}

	entry, err := h.blocklistSvc.Block(req.IPAddress, req.Reason, duration)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "IP blocked", dto.BlockedIPResponse{
		IPAddress:    entry.IPAddress,
		Reason:       entry.Reason,
		BlockedAt:    entry.BlockedAt,
		BlockedUntil: entry.BlockedUntil,
	})
}

// @Summary Unblock an IP (Admin)
// @Description Remove a deny-list entry
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param ip path string true "Client IP address"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/admin/blocklist/{ip} [delete]
func (h *AdminHandler) UnblockIP(c *fiber.Ctx) error {
	ipAddress := c.Params("ip")
	if ipAddress == "" {
		return shared.ResponseJSON(c, http.StatusBadRequest, "IP address is required", nil)
	}

	if err := h.blocklistSvc.Unblock(ipAddress); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "IP unblocked", nil)
}

// @Summary Run maintenance cleanup (Admin)
// @Description Delete stale rate limit windows and lapsed temporary blocks
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/admin/maintenance/cleanup [post]
func (h *AdminHandler) Cleanup(c *fiber.Ctx) error {
	if err := h.rateLimitSvc.CleanupOldRecords(); err != nil {
		return err
	}

	if err := h.blocklistSvc.CleanupExpired(); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Cleanup completed", nil)
}
