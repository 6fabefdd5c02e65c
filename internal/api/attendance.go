package api

import (
	"net/http" // HTTP status codes

	"mess_tracker/internal/apperror"   // Error taxonomy
	"mess_tracker/internal/attendance" // Attendance Manager
	"mess_tracker/internal/domain"     // Domain models
	"mess_tracker/internal/store"      // Student listing
	"mess_tracker/internal/utils"      // Dates

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
)

// ToggleRequest marks or unmarks one meal of one student. Date may come from
// the form body or the query string.
type ToggleRequest struct {
	StudentID uint   `form:"student_id" binding:"required"`               // Student to update
	MealType  string `form:"meal_type" binding:"required"`                // breakfast, lunch or dinner
	Action    string `form:"action" binding:"required,oneof=mark unmark"` // mark or unmark
	Date      string `form:"date"`                                        // YYYY-MM-DD, today when malformed
}

// attendanceRow pairs a student with their meal row of the selected date
type attendanceRow struct {
	Student domain.User
	Meal    domain.Meal
}

func toggleFailed(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{"success": false, "error": msg})
}

// AttendancePageHandler shows every student's flags for a date
func AttendancePageHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		date := utils.ParseDateOr(c.Query("date"), utils.Today())
		students, err := store.ListStudents(ctx, app.DB)
		if err != nil {
			logrus.WithError(err).Error("Failed to list students")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		meals, err := attendance.MealsOn(ctx, app.DB, date)
		if err != nil {
			logrus.WithError(err).Error("Failed to load meals")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		rows := make([]attendanceRow, len(students))
		for i, s := range students {
			rows[i] = attendanceRow{Student: s, Meal: meals[s.ID]} // Zero meal when unmarked
		}
		app.render(c, http.StatusOK, "admin_attendance.html", "Attendance", gin.H{"Date": date, "Rows": rows})
	}
}

// ToggleAttendanceHandler sets one meal flag and answers in JSON
func ToggleAttendanceHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ToggleRequest
		if err := c.ShouldBind(&req); err != nil {
			toggleFailed(c, "Missing parameters")
			return
		}
		mealType, err := domain.ParseMealType(req.MealType)
		if err != nil {
			toggleFailed(c, err.Error())
			return
		}
		date := utils.ParseDateOr(req.Date, utils.Today())
		ctx := c.Request.Context()
		if _, err := attendance.SetMealFlag(ctx, app.DB, req.StudentID, date, mealType, req.Action == "mark"); err != nil {
			toggleFailed(c, apperror.Message(err))
			return
		}
		app.invalidate(ctx, req.StudentID)
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
