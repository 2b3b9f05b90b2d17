package services

import (
	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/plateful-labs/plateful_api/dto"
)

// admissionCheck is one stage of the gate pipeline. Each request gets its
// own result accumulator; a stage either passes (optionally annotating
// the result), denies by rewriting the result's status, or errors, in
// which case the gate fails closed.
type admissionCheck interface {
	name() string
	check(ipAddress, endpoint string, result *dto.AdmissionResult) (denied bool, err error)
}

// GateService runs every inbound request through the admission pipeline
// in fixed order: blocklist first (cheapest, most severe), then rate
// limit, then budget. A denial at any stage short-circuits the rest and
// the expensive downstream call is never made. If a stage errors the
// request is denied rather than silently allowed; cost containment is
// the whole point of this layer.
type GateService struct {
	context.DefaultService

	checks []admissionCheck

	blocklistSvc *BlocklistService
	rateLimitSvc *RateLimitService
	budgetSvc    *BudgetService
}

const GATE_SVC = "gate_svc"

func (svc GateService) Id() string {
	return GATE_SVC
}

func (svc *GateService) Start() error {
	svc.blocklistSvc = svc.Service(BLOCKLIST_SVC).(*BlocklistService)
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.budgetSvc = svc.Service(BUDGET_SVC).(*BudgetService)

	svc.checks = []admissionCheck{
		&blocklistCheck{svc: svc.blocklistSvc},
		&rateLimitCheck{svc: svc.rateLimitSvc},
		&budgetCheck{svc: svc.budgetSvc},
	}

	return nil
}

// Admit decides whether the request may proceed to the paid extraction.
// The returned result carries everything the HTTP layer needs to build
// the response; an error means the counter store was unreachable and the
// request must be denied.
func (svc *GateService) Admit(ipAddress, endpoint string) (*dto.AdmissionResult, error) {
	result := &dto.AdmissionResult{Status: dto.AdmissionAllowed}

	for _, stage := range svc.checks {
		denied, err := stage.check(ipAddress, endpoint, result)
		if err != nil {
			log.WithFields(log.Fields{
				"stage": stage.name(),
				"ip":    ipAddress,
				"error": err.Error(),
			}).Error("Admission check failed, denying request")
			admissionsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		if denied {
			admissionsTotal.WithLabelValues(string(result.Status)).Inc()
			return result, nil
		}
	}

	admissionsTotal.WithLabelValues(string(dto.AdmissionAllowed)).Inc()
	return result, nil
}

// ==================== PIPELINE STAGES ====================

type blocklistCheck struct {
	svc *BlocklistService
}

func (c *blocklistCheck) name() string { return "blocklist" }

func (c *blocklistCheck) check(ipAddress, _ string, result *dto.AdmissionResult) (bool, error) {
	blocked, err := c.svc.IsBlocked(ipAddress)
	if err != nil {
		return false, err
	}
	if blocked {
		result.Status = dto.AdmissionBlocked
		result.Remaining = 0
		return true, nil
	}
	return false, nil
}

type rateLimitCheck struct {
	svc *RateLimitService
}

func (c *rateLimitCheck) name() string { return "rate_limit" }

func (c *rateLimitCheck) check(ipAddress, endpoint string, result *dto.AdmissionResult) (bool, error) {
	info, err := c.svc.Check(ipAddress, endpoint)
	if err != nil {
		return false, err
	}
	if !info.Allowed {
		result.Status = dto.AdmissionRateLimited
		result.Remaining = 0
		result.RetryAfterSeconds = info.RetryAfterSeconds
		return true, nil
	}
	result.Remaining = info.Remaining
	return false, nil
}

type budgetCheck struct {
	svc *BudgetService
}

func (c *budgetCheck) name() string { return "budget" }

func (c *budgetCheck) check(_, _ string, result *dto.AdmissionResult) (bool, error) {
	allowed, message, err := c.svc.CheckBudget()
	if err != nil {
		return false, err
	}
	if !allowed {
		result.Status = dto.AdmissionBudgetExhausted
		result.Remaining = 0
		result.Message = message
		return true, nil
	}
	return false, nil
}
