package api

import (
	"context"       // Cache calls
	"html/template" // Page templates
	"net/http"      // HTTP status codes
	"strings"       // Title casing
	"time"          // Cache TTLs

	"mess_tracker/internal/billing"    // Balance Engine
	"mess_tracker/internal/domain"     // Domain models
	"mess_tracker/internal/middleware" // Current user
	"mess_tracker/internal/report"     // Money formatting
	"mess_tracker/internal/session"    // Flash messages
	"mess_tracker/internal/utils"      // Redis cache
	"mess_tracker/web"                 // Embedded templates

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // GORM ORM library
)

const (
	balanceTTL   = 5 * time.Minute
	dashboardTTL = time.Minute
)

// App carries the dependencies every handler needs
type App struct {
	DB         *gorm.DB
	Cache      *utils.Cache
	MealCost   float64
	Currency   string
	BcryptCost int
}

// templates parses the embedded pages with the helpers they use
func (a *App) templates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"money": func(v float64) string { return report.Money(a.Currency, v) },
		"yesno": report.YesNo,
		"title": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
	}
	return template.New("").Funcs(funcMap).ParseFS(web.EmbeddedHTML(), "html/*.html")
}

// render writes a page with the current user and pending flashes
func (a *App) render(c *gin.Context, status int, name, title string, data gin.H, extra ...session.Flash) {
	if data == nil {
		data = gin.H{}
	}
	data["Title"] = title
	data["User"] = middleware.CurrentUser(c)
	data["Flashes"] = append(session.Flashes(c), extra...)
	c.HTML(status, name, data)
}

// flashRedirect queues a message and redirects (post/redirect/get)
func flashRedirect(c *gin.Context, category, message, location string) {
	session.AddFlash(c, category, message)
	c.Redirect(http.StatusFound, location)
}

// studentBalance returns the lifetime balance, served from the cache when possible
func (a *App) studentBalance(ctx context.Context, studentID uint) (billing.Balance, error) {
	var bal billing.Balance
	key := utils.BalanceKey(studentID)
	if found, err := a.Cache.Get(ctx, key, &bal); err == nil && found {
		return bal, nil
	} else if err != nil {
		logrus.WithError(err).Warn("Balance cache read failed")
	}
	bal, err := billing.ComputeBalance(ctx, a.DB, a.MealCost, studentID, "", "")
	if err != nil {
		return bal, err
	}
	if err := a.Cache.Set(ctx, key, bal, balanceTTL); err != nil {
		logrus.WithError(err).Warn("Balance cache write failed")
	}
	return bal, nil
}

// dashboardTotals returns today's totals, served from the cache when possible
func (a *App) dashboardTotals(ctx context.Context) (billing.DashboardTotals, error) {
	today := utils.Today()
	var totals billing.DashboardTotals
	if found, err := a.Cache.Get(ctx, utils.DashboardKey, &totals); err == nil && found && totals.Date == today {
		return totals, nil
	}
	totals, err := billing.Dashboard(ctx, a.DB, a.MealCost, today)
	if err != nil {
		return totals, err
	}
	if err := a.Cache.Set(ctx, utils.DashboardKey, totals, dashboardTTL); err != nil {
		logrus.WithError(err).Warn("Dashboard cache write failed")
	}
	return totals, nil
}

// invalidate drops cached aggregates after a write touching the student
func (a *App) invalidate(ctx context.Context, studentID uint) {
	if err := a.Cache.InvalidateStudent(ctx, studentID); err != nil {
		logrus.WithError(err).WithField("student_id", studentID).Warn("Cache invalidation failed")
	}
}

// homeRedirect sends the request to the dashboard of its identity
func homeRedirect(c *gin.Context) {
	c.Redirect(http.StatusFound, domain.HomePath(middleware.Identity(c).GetRole()))
}
