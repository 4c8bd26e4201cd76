package handlers

import (
	"log/slog"
	"time"

	"github.com/waste3d/learnhub/pkg/course"
	"github.com/waste3d/learnhub/services/gateway/internal/middleware"
	"github.com/waste3d/learnhub/services/gateway/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Auth        *AuthHandler
	Courses     *CourseHandler
	Authoring   *AuthoringHandler
	Enrollments *EnrollmentHandler
	Health      *HealthHandler
}

type RouterDeps struct {
	Sessions *session.Store
	Cookies  *middleware.SessionCookies
	Limiter  *middleware.RateLimiter
	Origins  []string
	Logger   *slog.Logger
}

func NewRouter(h Handlers, deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Observe(deps.Logger))

	config := cors.DefaultConfig()
	config.AllowOrigins = deps.Origins
	config.AllowCredentials = true
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-Request-ID"}
	config.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS", "PATCH"}
	config.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	r.Use(cors.New(config))

	r.GET("/healthz", h.Health.Live)
	r.GET("/readyz", h.Health.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.LoadSession(deps.Cookies, deps.Sessions))
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", h.Auth.Signup)
			auth.POST("/login", deps.Limiter.Limit("login", 5, 1*time.Minute), h.Auth.Login)
			auth.POST("/logout", h.Auth.Logout)
		}
		api.GET("/me", middleware.RequireSession(), h.Auth.Me)

		courses := api.Group("/courses")
		{
			courses.GET("", h.Courses.List)
			courses.GET("/:id", h.Courses.GetOne)
			courses.GET("/:id/modules", h.Courses.Modules)
			courses.GET("/:id/modules/:moduleId/lessons/:lessonId", h.Courses.Lesson)
			courses.POST("/:id/modules/:moduleId/lessons/:lessonId/complete",
				middleware.RequireSession(), middleware.RequireRole(course.RoleStudent), h.Courses.Complete)
		}

		authoring := api.Group("/courses")
		authoring.Use(middleware.RequireSession(), middleware.RequireRole(course.RoleInstructor))
		{
			authoring.POST("", h.Authoring.CreateCourse)
			authoring.PATCH("/:id", h.Authoring.UpdateCourse)
			authoring.DELETE("/:id", h.Authoring.DeleteCourse)
			authoring.POST("/:id/modules", h.Authoring.CreateModule)
			authoring.DELETE("/:id/modules/:moduleId", h.Authoring.DeleteModule)
			authoring.POST("/:id/modules/:moduleId/lessons", h.Authoring.CreateLesson)
			authoring.DELETE("/:id/modules/:moduleId/lessons/:lessonId", h.Authoring.DeleteLesson)
		}

		enrollments := api.Group("/enrollments")
		enrollments.Use(middleware.RequireSession(), middleware.RequireRole(course.RoleStudent))
		{
			enrollments.GET("", h.Enrollments.List)
			enrollments.POST("", h.Enrollments.Enroll)
		}
	}

	return r
}
