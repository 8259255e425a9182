package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pedrhcorreia/cloudshare/internal/config"
	"github.com/pedrhcorreia/cloudshare/internal/handlers"
	"github.com/pedrhcorreia/cloudshare/internal/middlewares"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/xerr"
)

// InitRouter 注册全部路由
// 匿名访问网关不挂认证中间件，令牌本身就是凭证
func InitRouter(
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	groupHandler *handlers.GroupHandler,
	fileShareHandler *handlers.FileShareHandler,
	objectHandler *handlers.ObjectHandler,
	anonymousHandler *handlers.AnonymousHandler,
	cfg *config.Config,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.RequestID())

	// Health Check 路由
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// 匿名访问网关（无需认证，凭令牌访问）
	anonymousGroup := router.Group("/anonymous")
	{
		anonymousGroup.GET("/info", anonymousHandler.GetFileInfo)
		anonymousGroup.GET("/download", anonymousHandler.DownloadFile)
	}

	v1 := router.Group("/api/v1")
	{
		// 认证相关路由 (无需认证)
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/signup", authHandler.Signup)
			authGroup.POST("/login", authHandler.Login)
		}

		// 需要认证的路由组
		authenticated := v1.Group("/")
		authenticated.Use(middlewares.AuthMiddleware(cfg))

		userGroup := authenticated.Group("/user")
		{
			userGroup.GET("", userHandler.ListUsers)
			userGroup.GET("/:id", userHandler.GetUser)
			userGroup.DELETE("/:id", userHandler.DeleteUser)

			// 群组路由
			userGroup.POST("/:id/group", groupHandler.CreateGroup)
			userGroup.GET("/:id/group", groupHandler.ListGroups)
			userGroup.PUT("/:id/group/:group_id", groupHandler.UpdateGroup)
			userGroup.DELETE("/:id/group/:group_id", groupHandler.DeleteGroup)
			userGroup.GET("/:id/group/:group_id/member", groupHandler.ListMembers)
			userGroup.POST("/:id/group/:group_id/member", groupHandler.AddMember)
			userGroup.DELETE("/:id/group/:group_id/member/:member_id", groupHandler.RemoveMember)

			// 分享目录路由
			userGroup.POST("/:id/fileshare", fileShareHandler.CreateFileShare)
			userGroup.GET("/:id/fileshare", fileShareHandler.ListSharedByUser)
			userGroup.GET("/:id/fileshare/received", fileShareHandler.ListSharedToUser)
			userGroup.DELETE("/:id/fileshare", fileShareHandler.DeleteFileShare)

			// 对象存储路由
			userGroup.GET("/:id/object", objectHandler.ListObjects)
			userGroup.POST("/:id/object", objectHandler.UploadObject)
			userGroup.GET("/:id/object/:key", objectHandler.DownloadObject)
			userGroup.DELETE("/:id/object/:key", objectHandler.DeleteObject)
			userGroup.POST("/:id/object/:key/anonymous-link", anonymousHandler.CreateAnonymousLink)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		xerr.Error(c, http.StatusNotFound, xerr.NotFoundCode, "Route not found")
	})

	return router
}
