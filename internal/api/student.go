package api

import (
	"net/http" // HTTP status codes

	"mess_tracker/internal/apperror"   // Error taxonomy
	"mess_tracker/internal/attendance" // Attendance reads
	"mess_tracker/internal/middleware" // Current user
	"mess_tracker/internal/session"    // Flash messages
	"mess_tracker/internal/store"      // Persistence operations
	"mess_tracker/internal/utils"      // Dates

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
)

const recentMeals = 10

// ProfileForm is the self-service profile form
type ProfileForm struct {
	Name     string `form:"name"`
	RollNo   string `form:"roll_no"`
	RoomNo   string `form:"room_no"`
	Contact  string `form:"contact"`
	Password string `form:"password"` // Empty keeps the current password
}

// StudentDashboardHandler shows today's row, the lifetime balance and recent meals
func StudentDashboardHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		user := middleware.CurrentUser(c)
		today, err := attendance.MealOn(ctx, app.DB, user.ID, utils.Today())
		if err != nil {
			logrus.WithError(err).Error("Failed to load today's meal")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		balance, err := app.studentBalance(ctx, user.ID)
		if err != nil {
			logrus.WithError(err).Error("Failed to compute balance")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		recent, err := attendance.Recent(ctx, app.DB, user.ID, recentMeals)
		if err != nil {
			logrus.WithError(err).Error("Failed to load recent meals")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		app.render(c, http.StatusOK, "student_dashboard.html", "Dashboard", gin.H{
			"TodayMeal": today,
			"Balance":   balance,
			"Recent":    recent,
		})
	}
}

// StudentAttendanceHandler lists the student's meals, the last 30 days by default
func StudentAttendanceHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		start := utils.RangeDate(c.Query("start_date"), utils.DaysAgo(30))
		end := utils.RangeDate(c.Query("end_date"), utils.Today())
		meals, err := attendance.History(c.Request.Context(), app.DB, user.ID, start, end)
		if err != nil {
			logrus.WithError(err).Error("Failed to load attendance")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		total := 0
		for _, m := range meals {
			total += m.Count()
		}
		app.render(c, http.StatusOK, "student_attendance.html", "Attendance", gin.H{
			"Meals":      meals,
			"Start":      start,
			"End":        end,
			"TotalMeals": total,
		})
	}
}

// StudentPaymentsHandler lists the student's own payments
func StudentPaymentsHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		payments, err := store.StudentPayments(c.Request.Context(), app.DB, user.ID)
		if err != nil {
			logrus.WithError(err).Error("Failed to load payments")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		app.render(c, http.StatusOK, "student_payments.html", "Payments", gin.H{"Payments": payments})
	}
}

// ProfilePageHandler shows the profile form
func ProfilePageHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		app.render(c, http.StatusOK, "student_profile.html", "Profile", nil)
	}
}

// ProfileHandler saves the student's own profile
func ProfileHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form ProfileForm
		if err := c.ShouldBind(&form); err != nil {
			flashRedirect(c, session.Danger, "Invalid profile form", "/student/profile")
			return
		}
		user := middleware.CurrentUser(c)
		in := store.StudentInput{
			Password: form.Password, // Username stays as is
			Name:     form.Name,
			RollNo:   form.RollNo,
			RoomNo:   form.RoomNo,
			Contact:  form.Contact,
		}
		if _, err := store.UpdateStudent(c.Request.Context(), app.DB, user.ID, in, app.BcryptCost); err != nil {
			flashRedirect(c, session.Danger, apperror.Message(err), "/student/profile")
			return
		}
		flashRedirect(c, session.Success, "Profile updated successfully", "/student/profile")
	}
}
