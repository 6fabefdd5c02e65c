package api

import (
	"net/http" // Static file system

	"mess_tracker/internal/domain"     // Roles
	"mess_tracker/internal/middleware" // Gateway and logging
	"mess_tracker/internal/session"    // Session cookie name
	"mess_tracker/web"                 // Embedded assets

	"github.com/gin-contrib/gzip"     // Response compression
	"github.com/gin-contrib/sessions" // Session middleware
	"github.com/gin-gonic/gin"        // Gin web framework
)

// ExportPath streams CSV and is kept out of gzip
const ExportPath = "/admin/reports/export"

// NewRouter wires every route of the application onto a new engine
func NewRouter(app *App, store sessions.Store) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{ExportPath})))
	r.Use(sessions.Sessions(session.Name, store))
	r.Use(middleware.LoadUser(app.DB))

	tpl, err := app.templates()
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tpl)
	r.StaticFS("/assets", http.FS(web.EmbeddedAssets()))

	// Public routes
	r.GET("/", IndexHandler())
	r.GET("/login", LoginPageHandler(app))
	r.POST("/login", LoginHandler(app))
	r.GET("/register", RegisterPageHandler(app))
	r.POST("/register", RegisterHandler(app))
	r.GET("/logout", LogoutHandler())

	// Admin routes
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.RequireLogin(), middleware.RequireRole(domain.RoleAdmin))
	adminGroup.GET("/dashboard", AdminDashboardHandler(app))
	adminGroup.GET("/students", StudentsPageHandler(app))
	adminGroup.POST("/students", StudentsHandler(app))
	adminGroup.GET("/attendance", AttendancePageHandler(app))
	adminGroup.POST("/attendance", ToggleAttendanceHandler(app))
	adminGroup.GET("/payments", PaymentsPageHandler(app))
	adminGroup.POST("/payments", PaymentsHandler(app))
	adminGroup.GET("/reports", ReportsHandler(app))
	adminGroup.GET("/reports/export", ExportReportHandler(app))

	// Student routes
	studentGroup := r.Group("/student")
	studentGroup.Use(middleware.RequireLogin(), middleware.RequireRole(domain.RoleStudent))
	studentGroup.GET("/dashboard", StudentDashboardHandler(app))
	studentGroup.GET("/attendance", StudentAttendanceHandler(app))
	studentGroup.GET("/payments", StudentPaymentsHandler(app))
	studentGroup.GET("/profile", ProfilePageHandler(app))
	studentGroup.POST("/profile", ProfileHandler(app))

	return r, nil
}
