package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/yakoovad/perftest-admin/internal/auth"
	"github.com/yakoovad/perftest-admin/internal/model"
	"github.com/yakoovad/perftest-admin/internal/service"
	"go.uber.org/zap"
)

type Handler struct {
	auth      *service.AuthService
	user      *service.UserService
	testCase  *service.TestCaseService
	csvData   *service.CsvDataService
	knowledge *service.KnowledgeService
	dashboard *service.DashboardService

	tokens        *auth.Manager
	healthChecker HealthChecker
	maxUploadSize int64

	logger *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		logger:        logger,
		maxUploadSize: service.DefaultMaxUploadSize,
	}
}

func (h *Handler) WithHealthChecker(c HealthChecker) *Handler {
	h.healthChecker = c
	return h
}

func (h *Handler) WithTokenManager(tokens *auth.Manager) *Handler {
	h.tokens = tokens
	return h
}

func (h *Handler) WithMaxUploadSize(size int64) *Handler {
	if size > 0 {
		h.maxUploadSize = size
	}
	return h
}

func (h *Handler) WithAuthService(a *service.AuthService) *Handler {
	h.auth = a
	return h
}

func (h *Handler) WithUserService(user *service.UserService) *Handler {
	h.user = user
	return h
}

func (h *Handler) WithTestCaseService(tc *service.TestCaseService) *Handler {
	h.testCase = tc
	return h
}

func (h *Handler) WithCsvDataService(csv *service.CsvDataService) *Handler {
	h.csvData = csv
	return h
}

func (h *Handler) WithKnowledgeService(k *service.KnowledgeService) *Handler {
	h.knowledge = k
	return h
}

func (h *Handler) WithDashboardService(d *service.DashboardService) *Handler {
	h.dashboard = d
	return h
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.Validator = NewValidator()
	e.Use(middleware.RequestID())
	e.Use(RequestLoggerMiddleware(h.logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	// Uploads up to twice the allowed size reach the handler and get a 400.
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dB", 2*h.maxUploadSize)))

	e.GET("/", h.Welcome)
	if h.healthChecker != nil {
		e.GET("/health", h.healthChecker.HealthCheck())
	}

	bearer := AuthMiddleware(h.tokens)
	api := e.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/refresh-token", h.RefreshToken)
	authGroup.POST("/logout", h.Logout)
	authGroup.POST("/forgot-password", h.ForgotPassword)
	authGroup.POST("/reset-password", h.ResetPassword)
	authGroup.POST("/change-password", h.ChangePassword, bearer)
	authGroup.GET("/me", h.Me, bearer)
	authGroup.PUT("/profile", h.UpdateProfile, bearer)

	users := api.Group("/users", AuthMiddleware(h.tokens, model.RoleAdmin))
	users.GET("", h.ListUsers)
	users.PATCH("/:id", h.PatchUser)

	testCases := api.Group("/test-cases", bearer)
	testCases.GET("", h.ListTestCases)
	testCases.POST("", h.CreateTestCase)
	testCases.POST("/batch-import", h.BatchImportTestCases)
	testCases.POST("/import", h.BatchImportTestCases)
	testCases.GET("/export", h.ExportTestCases)
	testCases.GET("/export/:ids", h.ExportTestCases)
	testCases.GET("/:id", h.GetTestCase)
	testCases.PUT("/:id", h.UpdateTestCase)
	testCases.DELETE("/:id", h.DeleteTestCase)

	csvData := api.Group("/csv-data", bearer)
	csvData.POST("/upload", h.UploadCsv)
	csvData.GET("", h.ListCsv)
	csvData.GET("/export/:id", h.ExportCsv)
	csvData.GET("/:id", h.GetCsv)
	csvData.GET("/:id/stats", h.CsvStats)
	csvData.PATCH("/:id", h.UpdateCsvDescription)
	csvData.DELETE("/:id", h.DeleteCsv)

	knowledge := api.Group("/knowledge", bearer)
	knowledge.GET("", h.ListKnowledge)
	knowledge.GET("/search", h.SearchKnowledge)
	knowledge.POST("", h.CreateKnowledge)
	knowledge.GET("/:id", h.GetKnowledge)
	knowledge.PUT("/:id", h.UpdateKnowledge)
	knowledge.DELETE("/:id", h.DeleteKnowledge)
	knowledge.GET("/:id/versions", h.KnowledgeVersions)
	knowledge.POST("/:id/revert/:version", h.RevertKnowledge)
	knowledge.GET("/:id/comments", h.ListComments)
	knowledge.POST("/:id/comments", h.AddComment)
	knowledge.POST("/:id/like", h.LikeKnowledge)
	knowledge.GET("/:id/tags", h.KnowledgeTags)
	knowledge.POST("/:id/tags", h.AddKnowledgeTags)
	knowledge.DELETE("/:id/tags/:tagId", h.RemoveKnowledgeTag)

	api.GET("/tags", h.ListTags, bearer)

	dashboard := api.Group("/dashboard", bearer)
	dashboard.GET("/summary", h.DashboardSummary)
	dashboard.GET("/recent-activities", h.RecentActivities)
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) Welcome(e echo.Context) error {
	return e.JSON(http.StatusOK, messageResponse{Message: "Welcome to the performance test management API"})
}
