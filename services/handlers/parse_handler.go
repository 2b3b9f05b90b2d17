package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/plateful-labs/plateful_api/dto"
	"github.com/plateful-labs/plateful_api/shared"
)

type ParseHandler struct {
	gateSvc    GateServiceInterface
	ssrfSvc    SsrfServiceInterface
	extractSvc ExtractServiceInterface
	budgetSvc  BudgetServiceInterface
}

func NewParseHandler(gateSvc GateServiceInterface, ssrfSvc SsrfServiceInterface, extractSvc ExtractServiceInterface, budgetSvc BudgetServiceInterface) *ParseHandler {
	return &ParseHandler{
		gateSvc:    gateSvc,
		ssrfSvc:    ssrfSvc,
		extractSvc: extractSvc,
		budgetSvc:  budgetSvc,
	}
}

// @Summary Parse a recipe URL
// @Description Validate the target URL, run admission checks and extract the recipe
// @Tags parse
// @Accept json
// @Produce json
// @Param parseRequest body dto.ParseRequest true "Recipe URL to parse"
// @Success 200 {object} shared.Response{data=dto.ParseResponse}
// @Failure 400 {object} shared.Response
// @Failure 403 {object} shared.Response
// @Failure 429 {object} shared.Response
// @Failure 502 {object} shared.Response
// @Failure 503 {object} shared.Response
// @Router /api/v1/parse [post]
func (h *ParseHandler) Parse(c *fiber.Ctx) error {
	clientIP, _ := c.Locals(shared.ClientIP).(string)
	if clientIP == "" {
		clientIP = shared.SentinelAddress
	}

	var req dto.ParseRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.ResponseJSON(c, http.StatusBadRequest, "Invalid request", err.Error())
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	if ok, reason := h.ssrfSvc.ValidateURL(req.URL); !ok {
		log.WithFields(log.Fields{
			"ip":  clientIP,
			"url": req.URL,
		}).Warn("Rejected unsafe target URL")
		return shared.ResponseJSON(c, http.StatusBadRequest, reason, nil)
	}

	result, err := h.gateSvc.Admit(clientIP, shared.EndpointParse)
	if err != nil {
		// Admission state is unknown, so the request does not go through.
		return shared.ResponseJSON(c, http.StatusServiceUnavailable, "Service temporarily unavailable", nil)
	}

	switch result.Status {
	case dto.AdmissionBlocked:
		return shared.ResponseJSON(c, http.StatusForbidden, "Access denied", nil)
	case dto.AdmissionRateLimited:
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(result.RetryAfterSeconds))
		return shared.ResponseJSON(c, http.StatusTooManyRequests, "Rate limit exceeded", fiber.Map{
			"retry_after": result.RetryAfterSeconds,
		})
	case dto.AdmissionBudgetExhausted:
		return shared.ResponseJSON(c, http.StatusServiceUnavailable, result.Message, nil)
	}

	extraction, err := h.extractSvc.Extract(c.Context(), req.URL)
	if err != nil {
		log.WithFields(log.Fields{
			"url":   req.URL,
			"error": err.Error(),
		}).Error("Extraction failed")
		return shared.ResponseJSON(c, http.StatusBadGateway, "Extraction failed", nil)
	}

	if err := h.budgetSvc.RecordUsage(extraction.CostEstimate, extraction.TokensUsed); err != nil {
		// The extraction already happened and was paid for; losing the
		// usage record must not fail the request.
		log.WithFields(log.Fields{
			"url":   req.URL,
			"error": err.Error(),
		}).Error("Failed to record usage")
	}

	return shared.ResponseOK(c, dto.ParseResponse{
		Recipe:    extraction.Recipe,
		Remaining: result.Remaining,
	})
}
