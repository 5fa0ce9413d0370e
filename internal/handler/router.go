package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/Alexseyf/elo-escola/internal/middleware"
	"github.com/Alexseyf/elo-escola/internal/models"
	"github.com/Alexseyf/elo-escola/pkg/logger"
	corsmiddleware "github.com/Alexseyf/elo-escola/pkg/middleware/cors"
	reqidmiddleware "github.com/Alexseyf/elo-escola/pkg/middleware/requestid"
)

// RouterConfig carries the HTTP-level settings of the console.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	EnableMetrics  bool
}

// Router groups every handler of the console API.
type Router struct {
	cfg      RouterConfig
	logger   *zap.Logger
	session  middleware.SessionManager
	onSwitch middleware.SwitchFunc
	observer middleware.HTTPObserver

	students *StudentHandler
	state    *StateHandler
	charts   *ChartHandler
	reports  *ReportHandler
	sessions *SessionHandler
	metrics  *MetricsHandler
}

// RouterDeps lists the collaborators of NewRouter.
type RouterDeps struct {
	Logger   *zap.Logger
	Session  middleware.SessionManager
	OnSwitch middleware.SwitchFunc
	Observer middleware.HTTPObserver

	Students *StudentHandler
	State    *StateHandler
	Charts   *ChartHandler
	Reports  *ReportHandler
	Sessions *SessionHandler
	Metrics  *MetricsHandler
}

// NewRouter constructs the router.
func NewRouter(cfg RouterConfig, deps RouterDeps) *Router {
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Router{
		cfg:      cfg,
		logger:   deps.Logger,
		session:  deps.Session,
		onSwitch: deps.OnSwitch,
		observer: deps.Observer,
		students: deps.Students,
		state:    deps.State,
		charts:   deps.Charts,
		reports:  deps.Reports,
		sessions: deps.Sessions,
		metrics:  deps.Metrics,
	}
}

// Setup builds the gin engine.
func (ro *Router) Setup() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(ro.logger, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(ro.cfg.AllowedOrigins))
	if ro.cfg.EnableMetrics && ro.observer != nil {
		r.Use(middleware.Metrics(ro.observer))
	}

	r.GET("/health", ro.metrics.Health)
	r.GET("/ready", ro.metrics.Ready)
	if ro.cfg.EnableMetrics {
		r.GET("/metrics", ro.metrics.Prometheus)
	}
	if ro.cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(ro.cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())
	api.Use(middleware.Session(ro.session, ro.onSwitch, ro.logger))

	// Reachable without an active session so views can detect expiry.
	api.GET("/session", ro.sessions.Get)

	signedIn := api.Group("")
	signedIn.Use(middleware.RequireSession(ro.session))
	signedIn.DELETE("/session", ro.sessions.Delete)

	admin := signedIn.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))

	students := admin.Group("/students")
	students.GET("", ro.students.List)
	students.POST("", middleware.Audit(ro.logger, "create", "student"), ro.students.Create)
	students.GET("/:id", ro.students.Get)
	students.GET("/:id/diary-check", ro.students.DiaryCheck)
	students.POST("/:id/guardians", middleware.Audit(ro.logger, "add_guardian", "student"), ro.students.AddGuardian)

	admin.GET("/classrooms/:id/students", ro.students.ByClassroom)

	admin.GET("/state", ro.state.Snapshot)
	admin.GET("/state/stream", ro.state.Stream)
	admin.DELETE("/cache", middleware.Audit(ro.logger, "clear_cache", "store"), ro.state.ClearCache)

	admin.GET("/charts/students-per-classroom", ro.charts.StudentsPerClassroom)
	admin.GET("/reports/students", ro.reports.Students)
	admin.GET("/metrics/summary", ro.metrics.Summary)

	return r
}
