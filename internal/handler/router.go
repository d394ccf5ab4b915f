package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/internal/middleware"
)

// Handlers groups every HTTP handler the API mounts.
type Handlers struct {
	Auth        *AuthHandler
	Teachers    *TeacherHandler
	Students    *StudentHandler
	Classes     *ClassHandler
	Enrollments *EnrollmentHandler
	Activities  *ActivityHandler
	Grades      *GradeHandler
	Reports     *ReportHandler
}

// RegisterRoutes mounts the API under api. requireAuth guards everything
// except sign-up, sign-in and signed downloads.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, requireAuth gin.HandlerFunc, logger *zap.Logger) {
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.GET("/reports/download", h.Reports.Download)

	secured := api.Group("", requireAuth)
	secured.GET("/auth/me", h.Auth.Me)

	teachers := secured.Group("/teachers", middleware.Audit(logger, "teachers"))
	teachers.GET("", h.Teachers.List)
	teachers.GET("/:id", h.Teachers.Get)
	teachers.PUT("/:id", middleware.SelfOnly("id"), h.Teachers.Update)
	teachers.DELETE("/:id", middleware.SelfOnly("id"), h.Teachers.Delete)

	students := secured.Group("/students", middleware.Audit(logger, "students"))
	students.GET("", h.Students.List)
	students.POST("", h.Students.Create)
	students.GET("/:id", h.Students.Get)
	students.PUT("/:id", h.Students.Update)
	students.DELETE("/:id", h.Students.Delete)
	students.GET("/:id/classes", h.Students.Classes)
	students.GET("/:id/transcript", h.Reports.Transcript)
	students.POST("/:id/transcript/export", h.Reports.ExportTranscript)
	students.GET("/:id/standing", h.Reports.Standing)

	classes := secured.Group("/classes", middleware.Audit(logger, "classes"))
	classes.GET("", h.Classes.List)
	classes.POST("", h.Classes.Create)
	classes.GET("/:id", h.Classes.Get)
	classes.PUT("/:id", h.Classes.Update)
	classes.DELETE("/:id", h.Classes.Delete)
	classes.GET("/:id/students", h.Classes.Students)
	classes.POST("/:id/students/:studentId", h.Enrollments.Enroll)
	classes.DELETE("/:id/students/:studentId", h.Enrollments.Unenroll)
	classes.GET("/:id/students/:studentId/average", h.Reports.ClassAverage)
	classes.POST("/:id/roster", h.Enrollments.ImportRoster)
	classes.GET("/:id/activities", h.Classes.Activities)
	classes.GET("/:id/report", h.Reports.ClassReport)
	classes.GET("/:id/report/text", h.Reports.ClassReportText)
	classes.POST("/:id/report/export", h.Reports.ExportClassReport)
	classes.GET("/:id/ranking", h.Reports.Ranking)

	activities := secured.Group("/activities", middleware.Audit(logger, "activities"))
	activities.GET("", h.Activities.List)
	activities.POST("", h.Activities.Create)
	activities.GET("/:id", h.Activities.Get)
	activities.PUT("/:id", h.Activities.Update)
	activities.DELETE("/:id", h.Activities.Delete)
	activities.GET("/:id/grades", h.Grades.List)
	activities.PUT("/:id/grades/:studentId", h.Grades.Set)
	activities.DELETE("/:id/grades/:studentId", h.Grades.Remove)

	reports := secured.Group("/reports", middleware.Audit(logger, "reports"))
	reports.GET("/performance", h.Reports.Performance)
	reports.POST("/transcripts", h.Reports.ExportAllTranscripts)
}
