package api

import (
	"net/http" // HTTP status codes
	"strconv"  // Amount parsing

	"mess_tracker/internal/apperror" // Error taxonomy
	"mess_tracker/internal/report"   // Reporting Engine
	"mess_tracker/internal/session"  // Flash messages
	"mess_tracker/internal/store"    // Persistence operations
	"mess_tracker/internal/utils"    // Dates and cache keys

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
)

// StudentForm is the add/edit/delete form of the students page
type StudentForm struct {
	StudentID uint   `form:"student_id"` // Set when editing or deleting
	Username  string `form:"username"`
	Password  string `form:"password"`
	Name      string `form:"name"`
	RollNo    string `form:"roll_no"`
	RoomNo    string `form:"room_no"`
	Contact   string `form:"contact"`
}

func (f StudentForm) input() store.StudentInput {
	return store.StudentInput{
		Username: f.Username,
		Password: f.Password,
		Name:     f.Name,
		RollNo:   f.RollNo,
		RoomNo:   f.RoomNo,
		Contact:  f.Contact,
	}
}

// PaymentForm is the record-payment form
type PaymentForm struct {
	StudentID uint   `form:"student_id" binding:"required"` // Student must be selected
	Amount    string `form:"amount" binding:"required"`     // Parsed separately for a readable error
	Date      string `form:"date"`                          // Defaults to today
}

// AdminDashboardHandler shows today's meal counts and the money totals
func AdminDashboardHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		totals, err := app.dashboardTotals(c.Request.Context())
		if err != nil {
			logrus.WithError(err).Error("Failed to load dashboard")
			app.render(c, http.StatusInternalServerError, "admin_dashboard.html", "Dashboard", gin.H{"Totals": totals},
				session.Flash{Category: session.Danger, Message: "Failed to load dashboard totals"})
			return
		}
		app.render(c, http.StatusOK, "admin_dashboard.html", "Dashboard", gin.H{"Totals": totals})
	}
}

// StudentsPageHandler lists every student
func StudentsPageHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		students, err := store.ListStudents(c.Request.Context(), app.DB)
		if err != nil {
			logrus.WithError(err).Error("Failed to list students")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		app.render(c, http.StatusOK, "admin_students.html", "Students", gin.H{"Students": students})
	}
}

// StudentsHandler adds, edits or deletes a student depending on the form
func StudentsHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form StudentForm
		if err := c.ShouldBind(&form); err != nil {
			flashRedirect(c, session.Danger, "Invalid student form", "/admin/students")
			return
		}
		ctx := c.Request.Context()

		// Deletion
		if _, del := c.GetPostForm("delete"); del {
			student, err := store.DeleteStudent(ctx, app.DB, form.StudentID)
			if err != nil {
				flashRedirect(c, session.Danger, apperror.Message(err), "/admin/students")
				return
			}
			app.invalidate(ctx, student.ID)
			flashRedirect(c, session.Success, "Student "+student.Name+" deleted successfully.", "/admin/students")
			return
		}

		// Edit
		if form.StudentID != 0 {
			if _, err := store.UpdateStudent(ctx, app.DB, form.StudentID, form.input(), app.BcryptCost); err != nil {
				flashRedirect(c, session.Danger, apperror.Message(err), "/admin/students")
				return
			}
			flashRedirect(c, session.Success, "Student updated successfully!", "/admin/students")
			return
		}

		// Create
		if _, err := store.CreateStudent(ctx, app.DB, form.input(), app.BcryptCost); err != nil {
			flashRedirect(c, session.Danger, apperror.Message(err), "/admin/students")
			return
		}
		if err := app.Cache.Delete(ctx, utils.DashboardKey); err != nil {
			logrus.WithError(err).Warn("Cache invalidation failed")
		}
		flashRedirect(c, session.Success, "Student added successfully!", "/admin/students")
	}
}

// PaymentsPageHandler lists every payment with the record form
func PaymentsPageHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		students, err := store.ListStudents(ctx, app.DB)
		if err != nil {
			logrus.WithError(err).Error("Failed to list students")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		payments, err := store.ListPayments(ctx, app.DB)
		if err != nil {
			logrus.WithError(err).Error("Failed to list payments")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		app.render(c, http.StatusOK, "admin_payments.html", "Payments", gin.H{
			"Students": students,
			"Payments": payments,
			"Today":    utils.Today(),
		})
	}
}

// PaymentsHandler records a cash payment
func PaymentsHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form PaymentForm
		if err := c.ShouldBind(&form); err != nil {
			flashRedirect(c, session.Danger, "Student and amount are required", "/admin/payments")
			return
		}
		amount, err := strconv.ParseFloat(form.Amount, 64)
		if err != nil {
			flashRedirect(c, session.Danger, "Amount must be a number", "/admin/payments")
			return
		}
		ctx := c.Request.Context()
		date := utils.ParseDateOr(form.Date, utils.Today())
		if _, err := store.RecordPayment(ctx, app.DB, form.StudentID, amount, date); err != nil {
			flashRedirect(c, session.Danger, apperror.Message(err), "/admin/payments")
			return
		}
		app.invalidate(ctx, form.StudentID)
		flashRedirect(c, session.Success, "Payment recorded successfully", "/admin/payments")
	}
}

// reportParams reads type and range from the query, defaulting to the last 7 days
func reportParams(c *gin.Context) (kind, start, end string) {
	today := utils.Today()
	kind = c.DefaultQuery("type", string(report.Attendance))
	start = utils.RangeDate(c.Query("start_date"), utils.DaysAgo(7))
	end = utils.RangeDate(c.Query("end_date"), today)
	return kind, start, end
}

// ReportsHandler shows a report for a date range
func ReportsHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		kindParam, start, end := reportParams(c)
		data := gin.H{"Kinds": report.Kinds, "Type": kindParam, "Start": start, "End": end}

		kind, err := report.ParseKind(kindParam)
		if err != nil {
			app.render(c, http.StatusOK, "admin_reports.html", "Reports", data,
				session.Flash{Category: session.Danger, Message: apperror.Message(err)})
			return
		}
		rep, err := report.Build(c.Request.Context(), app.DB, app.MealCost, kind, start, end)
		if err != nil {
			logrus.WithError(err).WithField("type", kind).Error("Failed to build report")
			app.render(c, http.StatusInternalServerError, "admin_reports.html", "Reports", data,
				session.Flash{Category: session.Danger, Message: apperror.Message(err)})
			return
		}
		data["Report"] = rep
		app.render(c, http.StatusOK, "admin_reports.html", "Reports", data)
	}
}

// ExportReportHandler downloads a report as CSV
func ExportReportHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		kindParam, start, end := reportParams(c)
		kind, err := report.ParseKind(kindParam)
		if err != nil {
			flashRedirect(c, session.Danger, apperror.Message(err), "/admin/reports")
			return
		}
		rep, err := report.Build(c.Request.Context(), app.DB, app.MealCost, kind, start, end)
		if err != nil {
			logrus.WithError(err).WithField("type", kind).Error("Failed to build report")
			flashRedirect(c, session.Danger, apperror.Message(err), "/admin/reports")
			return
		}
		c.Header("Content-Disposition", "attachment; filename="+report.Filename(kind, start, end))
		c.Header("Content-Type", "text/csv")
		c.Status(http.StatusOK)
		if err := report.WriteCSV(c.Writer, rep, app.Currency); err != nil {
			// Headers are gone, all we can do is log
			logrus.WithError(err).WithField("type", kind).Error("Failed to write CSV")
		}
	}
}
