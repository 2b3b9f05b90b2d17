package services

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/alphabatem/common/context"
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberSwagger "github.com/gofiber/swagger"
	log "github.com/sirupsen/logrus"

	docs "github.com/plateful-labs/plateful_api/docs"
	"github.com/plateful-labs/plateful_api/services/handlers"
	"github.com/plateful-labs/plateful_api/shared"
)

type HttpService struct {
	context.DefaultService

	gateSvc      *GateService
	ssrfSvc      *SsrfService
	extractSvc   *ExtractService
	budgetSvc    *BudgetService
	rateLimitSvc *RateLimitService
	blocklistSvc *BlocklistService
	authSvc      *AuthService

	parseHandler *handlers.ParseHandler
	adminHandler *handlers.AdminHandler

	port   int
	server *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.gateSvc = svc.Service(GATE_SVC).(*GateService)
	svc.ssrfSvc = svc.Service(SSRF_SVC).(*SsrfService)
	svc.extractSvc = svc.Service(EXTRACT_SVC).(*ExtractService)
	svc.budgetSvc = svc.Service(BUDGET_SVC).(*BudgetService)
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.blocklistSvc = svc.Service(BLOCKLIST_SVC).(*BlocklistService)
	svc.authSvc = svc.Service(AUTH_SVC).(*AuthService)

	svc.parseHandler = handlers.NewParseHandler(svc.gateSvc, svc.ssrfSvc, svc.extractSvc, svc.budgetSvc)
	svc.adminHandler = handlers.NewAdminHandler(svc.authSvc, svc.budgetSvc, svc.rateLimitSvc, svc.blocklistSvc)

	docs.SwaggerInfo.BasePath = ""

	app := fiber.New(fiber.Config{
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		ErrorHandler: svc.errorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(MonitoringMiddleware())
	app.Use(svc.clientIPMiddleware)

	app.Get("/ping", svc.ping)
	app.Get("/swagger/*", fiberSwagger.HandlerDefault)

	v1 := app.Group("/api/v1")
	v1.Get("/ping", svc.ping)
	v1.Post("/parse", svc.parseHandler.Parse)

	admin := v1.Group("/admin")
	admin.Post("/auth/login", svc.adminHandler.Login)

	protected := admin.Group("", svc.authSvc.RequiredAuth())
	protected.Get("/usage", svc.adminHandler.GetUsageStats)
	protected.Get("/ratelimits", svc.adminHandler.GetRateLimitStats)
	protected.Delete("/ratelimits/:ip", svc.adminHandler.ResetRateLimit)
	protected.Get("/blocklist", svc.adminHandler.ListBlockedIPs)
	protected.Post("/blocklist", svc.adminHandler.BlockIP)
	protected.Delete("/blocklist/:ip", svc.adminHandler.UnblockIP)
	protected.Post("/maintenance/cleanup", svc.adminHandler.Cleanup)

	svc.server = app

	log.WithField("port", svc.port).Info("HTTP server started")
	return app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

// clientIPMiddleware resolves the caller's address once per request so
// handlers and admission checks all see the same identity.
func (svc *HttpService) clientIPMiddleware(c *fiber.Ctx) error {
	c.Locals(shared.ClientIP, shared.ClientAddress(
		c.Get(fiber.HeaderXForwardedFor),
		c.Get("X-Real-Ip"),
		c.Context().RemoteAddr().String(),
	))
	return c.Next()
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "max-age=10")

	return shared.ResponseJSON(c, http.StatusOK, "Success", "pong")
}

func (svc *HttpService) errorHandler(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}

	if appErr, ok := shared.GetAppError(err); ok {
		return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
	}

	if fiberErr, ok := err.(*fiber.Error); ok {
		return shared.ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	return shared.ResponseInternalError(c, err)
}
