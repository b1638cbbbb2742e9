package server

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	minio "github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"github.com/ksenchy/filevault/internal/auth"
	"github.com/ksenchy/filevault/internal/config"
	"github.com/ksenchy/filevault/internal/file"
	"github.com/ksenchy/filevault/internal/folder"
	"github.com/ksenchy/filevault/internal/logger"
	"github.com/ksenchy/filevault/internal/metrics"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config        config.Config
	Log           *zap.Logger
	DB            *pgxpool.Pool
	ObjectStore   *minio.Client
	AuthService   *auth.Service
	FolderService *folder.Service
	FileService   *file.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware(deps.Log))
	router.Use(metrics.Middleware())

	registerHealthRoutes(router, deps)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	api := router.Group("/v1")
	if deps.AuthService != nil {
		auth.RegisterRoutes(api, deps.AuthService)

		protected := api.Group("/")
		protected.Use(auth.AuthMiddleware(deps.AuthService))

		if deps.FolderService != nil {
			folder.RegisterRoutes(protected, deps.FolderService)
		}
		if deps.FileService != nil {
			file.RegisterRoutes(protected, deps.FileService)
		}
	}

	return router
}
