package handlers

import (
	"log/slog"

	"github.com/waste3d/learnhub/pkg/course"
	"github.com/waste3d/learnhub/services/catalog/internal/application/usecase"
	"github.com/waste3d/learnhub/services/catalog/internal/middleware"

	"github.com/gin-gonic/gin"
)

func NewRouter(authHandler *AuthHandler, courseHandler *CourseHandler, auth *usecase.AuthUseCase, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))

	authed := middleware.AuthMiddleware(auth)
	instructor := middleware.RequireRole(course.RoleInstructor)
	student := middleware.RequireRole(course.RoleStudent)

	a := r.Group("/auth")
	{
		a.POST("/signup", authHandler.Signup)
		a.POST("/login", authHandler.Login)
		a.POST("/logout", authed, authHandler.Logout)
		a.GET("/me", authed, authHandler.Me)
	}

	r.GET("/courses", courseHandler.List)
	r.GET("/courses/:id", courseHandler.GetOne)
	r.GET("/modules", courseHandler.ListModules)
	r.GET("/lessons", courseHandler.ListLessons)

	authoring := r.Group("/")
	authoring.Use(authed, instructor)
	{
		authoring.POST("/courses", courseHandler.Create)
		authoring.PATCH("/courses/:id", courseHandler.Update)
		authoring.DELETE("/courses/:id", courseHandler.Delete)
		authoring.POST("/modules", courseHandler.CreateModule)
		authoring.DELETE("/modules/:id", courseHandler.DeleteModule)
		authoring.POST("/lessons", courseHandler.CreateLesson)
		authoring.DELETE("/lessons/:id", courseHandler.DeleteLesson)
	}

	enrollments := r.Group("/enrollments")
	enrollments.Use(authed, student)
	{
		enrollments.GET("", courseHandler.ListEnrollments)
		enrollments.POST("", courseHandler.Enroll)
	}

	return r
}
