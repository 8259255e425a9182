package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/pedrhcorreia/cloudshare/internal/config"
	"github.com/pedrhcorreia/cloudshare/internal/handlers"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/anonlink"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/cache"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/logger"
	"github.com/pedrhcorreia/cloudshare/internal/repositories"
	"github.com/pedrhcorreia/cloudshare/internal/router"
	"github.com/pedrhcorreia/cloudshare/internal/services/admin"
	"github.com/pedrhcorreia/cloudshare/internal/services/anonymous"
	"github.com/pedrhcorreia/cloudshare/internal/services/objects"
	"github.com/pedrhcorreia/cloudshare/internal/services/sharing"
	"github.com/pedrhcorreia/cloudshare/internal/setup"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	db          *gorm.DB
	redisClient *redis.Client
}

// NewServer 负责构建所有依赖
func NewServer(cfg *config.Config) (*Server, error) {
	// 初始化数据库连接
	mysqlDB, err := setup.InitMySQL(&cfg.MySQL)
	if err != nil {
		return nil, fmt.Errorf("初始化 MySQL 失败: %w", err)
	}

	// 初始化 Redis 连接
	redisClient, err := setup.InitRedis(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("初始化 Redis 失败: %w", err)
	}

	// 初始化 MinIO 客户端
	storageService, err := setup.InitMinIOStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("初始化对象存储失败: %w", err)
	}

	// 初始化 Repositories
	// 用户查询挂 Redis 读穿缓存，匿名访问路径对它的压力最大
	redisCache := cache.NewRedisCache(redisClient)
	userRepo := repositories.NewCachedUserRepository(
		repositories.NewUserRepository(mysqlDB), redisCache)
	groupRepo := repositories.NewGroupRepository(mysqlDB)
	memberRepo := repositories.NewGroupMemberRepository(mysqlDB)
	shareRepo := repositories.NewFileShareRepository(mysqlDB)
	tm := repositories.NewTransactionManager(mysqlDB)

	// 初始化 Services
	authService := admin.NewAuthService(userRepo, cfg)
	userService := admin.NewUserService(userRepo, groupRepo, memberRepo, shareRepo, tm, storageService, cfg)
	groupService := admin.NewGroupService(groupRepo, memberRepo, userRepo, shareRepo, tm)
	sharingService := sharing.NewSharingService(shareRepo, userRepo, groupRepo, memberRepo, tm)
	objectService := objects.NewObjectService(storageService, sharingService, shareRepo, cfg)
	codec := anonlink.NewCodec(cfg.Anonymous.SecretKey)
	accessService := anonymous.NewAccessService(codec, storageService, userRepo, cfg)

	// 初始化 Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	groupHandler := handlers.NewGroupHandler(groupService)
	fileShareHandler := handlers.NewFileShareHandler(sharingService)
	objectHandler := handlers.NewObjectHandler(objectService)
	anonymousHandler := handlers.NewAnonymousHandler(accessService)

	engine := router.InitRouter(authHandler, userHandler, groupHandler, fileShareHandler, objectHandler, anonymousHandler, cfg)

	// 启动 HTTP 服务器
	addr := ":" + cfg.Server.Port
	logger.Info(fmt.Sprintf("Server is running on %s", addr))
	httpServer := &http.Server{
		Addr:    addr,
		Handler: engine,
	}

	return &Server{
		router:      engine,
		httpServer:  httpServer,
		db:          mysqlDB,
		redisClient: redisClient,
	}, nil
}

// Run 启动服务器并处理优雅关机
func (s *Server) Run(ctx context.Context, stopChan chan os.Signal) {
	// 确保在应用关闭时，所有连接都被释放
	// GORM v2 依赖连接池，通常不需要手动关闭。Redis需要
	defer s.redisClient.Close()
	defer setup.CloseMySQLDB(s.db)

	// 启动 HTTP 服务器
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// 等待停止信号
	<-stopChan
	logger.Info("Shutting down server...")

	// 优雅关机
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited gracefully")
}
