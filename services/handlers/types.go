package handlers

import (
	stdcontext "context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/plateful-labs/plateful_api/dto"
	"github.com/plateful-labs/plateful_api/model"
)

type GateServiceInterface interface {
	Admit(ipAddress, endpoint string) (*dto.AdmissionResult, error)
}

type SsrfServiceInterface interface {
	ValidateURL(rawURL string) (bool, string)
}

type ExtractServiceInterface interface {
	Extract(ctx stdcontext.Context, url string) (*dto.ExtractionResult, error)
}

type BudgetServiceInterface interface {
	RecordUsage(costEstimate *decimal.Decimal, tokensUsed int) error
	GetUsageStats() (*dto.UsageStatsResponse, error)
}

type RateLimitServiceInterface interface {
	Quota() int
	Enabled() bool
	ActiveWindows() (int64, error)
	Reset(ipAddress, endpoint string) error
	CleanupOldRecords() error
}

type BlocklistServiceInterface interface {
	Block(ipAddress, reason string, duration *time.Duration) (*model.BlockedIP, error)
	Unblock(ipAddress string) error
	List() ([]dto.BlockedIPResponse, error)
	ActiveCount() (int64, error)
	CleanupExpired() error
}

type AuthServiceInterface interface {
	Login(req dto.AdminLoginRequest) (*dto.TokenPair, error)
	RequiredAuth() fiber.Handler
}
