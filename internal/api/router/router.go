package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vms/backend/config"
	"vms/backend/internal/api/handler"
	"vms/backend/internal/api/middleware"
	"vms/backend/internal/model"
	"vms/backend/pkg/jwt"
	"vms/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时 Token 黑名单与限流均降级为放行
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	// 避免把 nil *redis.Client 装进接口
	var (
		blacklist middleware.TokenBlacklist
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	publicLimit := middleware.RateLimit(limiter, cfg.Feature.PublicRateLimit, time.Minute)

	// ── 角色组合 ──
	approvers := middleware.RoleAuth(model.RoleAdmin, model.RoleManager)
	adminOnly := middleware.RoleAuth(model.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 公开接口（限流）
		public := v1.Group("")
		public.Use(publicLimit)
		{
			public.POST("/auth/login", h.Auth.Login)
			public.POST("/auth/refresh", h.Auth.RefreshToken)
			public.GET("/hosts", h.User.ListHosts)
			public.POST("/visitors/register", h.Visitor.Register)
			public.POST("/kiosk/check-in", h.Visitor.KioskCheckIn)
			public.POST("/kiosk/check-out", h.Visitor.KioskCheckOut)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist, logger))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 用户模块
			users := authorized.Group("/users", adminOnly)
			{
				users.GET("", h.User.ListUsers)
				users.POST("", h.User.CreateUser)
				users.POST("/import", h.User.ImportUsers)
				users.GET("/:id", h.User.GetUser)
				users.PUT("/:id", h.User.UpdateUser)
				users.DELETE("/:id", h.User.DeleteUser)
				users.PUT("/:id/role", h.User.AssignRole)
				users.POST("/:id/reset-password", h.User.ResetPassword)
			}

			// 访客模块
			visitors := authorized.Group("/visitors")
			{
				visitors.GET("", h.Visitor.ListVisitors)
				visitors.POST("", h.Visitor.PreSchedule)
				visitors.GET("/:id", h.Visitor.GetVisitor)
				visitors.PUT("/:id", h.Visitor.UpdateVisitor)
				visitors.GET("/:id/history", h.Visitor.History)
				visitors.GET("/:id/invite.ics", h.Visitor.Invite)
				// 审批在路由层与状态机内双重校验
				visitors.POST("/:id/approve", approvers, h.Visitor.Approve)
				visitors.POST("/:id/reject", approvers, h.Visitor.Reject)
				visitors.POST("/:id/check-in", h.Visitor.CheckIn)
				visitors.POST("/:id/check-out", h.Visitor.CheckOut)

				// 承包商资质文件
				visitors.GET("/:id/documents", h.Document.ListDocuments)
				visitors.POST("/:id/documents", h.Document.AddDocument)
				visitors.DELETE("/:id/documents/:docId", h.Document.DeleteDocument)

				// 承包商培训
				visitors.GET("/:id/trainings", h.Training.Status)
				visitors.POST("/:id/trainings", approvers, h.Training.Assign)
				visitors.POST("/:id/trainings/:trainingId/score", h.Training.SubmitScore)
			}

			// 培训课程
			trainings := authorized.Group("/trainings")
			{
				trainings.GET("", h.Training.ListTrainings)
				trainings.GET("/:id", h.Training.GetTraining)
				trainings.POST("", approvers, h.Training.CreateTraining)
				trainings.PUT("/:id", approvers, h.Training.UpdateTraining)
				trainings.DELETE("/:id", approvers, h.Training.DeleteTraining)
			}

			// 系统设置
			authorized.GET("/settings", h.Setting.GetSetting)
			authorized.PUT("/settings", adminOnly, h.Setting.UpdateSetting)

			// 站内通知
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.ListNotifications)
				notifications.GET("/unread-count", h.Notification.UnreadCount)
				notifications.POST("/read", h.Notification.MarkRead)
			}

			// 看板与导出
			authorized.GET("/dashboard/stats", h.Dashboard.Stats)
			authorized.GET("/export/visitors", approvers, h.Export.ExportVisitors)
		}
	}

	return r
}
