package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"mess_tracker/internal/config"
	"mess_tracker/internal/domain"
	"mess_tracker/internal/testutil"
	"mess_tracker/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// client is a tiny browser keeping the session cookie between requests
type client struct {
	t       *testing.T
	r       *gin.Engine
	cookies map[string]*http.Cookie
}

func setup(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()
	return setupWithCache(t, utils.NewCache(nil))
}

func setupWithCache(t *testing.T, cache *utils.Cache) (*gorm.DB, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gdb := testutil.NewDB(t)
	app := &App{
		DB:         gdb,
		Cache:      cache,
		MealCost:   config.MealCost,
		Currency:   "₹",
		BcryptCost: bcrypt.MinCost,
	}
	r, err := NewRouter(app, cookie.NewStore([]byte("test-secret")))
	require.NoError(t, err)
	return gdb, r
}

func newClient(t *testing.T, r *gin.Engine) *client {
	return &client{t: t, r: r, cookies: map[string]*http.Cookie{}}
}

func (cl *client) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	cl.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range cl.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	cl.r.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(cl.cookies, c.Name)
			continue
		}
		cl.cookies[c.Name] = c
	}
	return w
}

func (cl *client) get(path string) *httptest.ResponseRecorder {
	return cl.do(http.MethodGet, path, nil)
}

func (cl *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	return cl.do(http.MethodPost, path, form)
}

// login signs in with the testutil convention of password == username
func (cl *client) login(username string) *httptest.ResponseRecorder {
	cl.t.Helper()
	w := cl.post("/login", url.Values{"username": {username}, "password": {username}})
	require.Equal(cl.t, http.StatusFound, w.Code)
	return w
}

func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, location, w.Header().Get("Location"))
}

func TestLoginFlow(t *testing.T) {
	gdb, r := setup(t)
	testutil.CreateAdmin(t, gdb, "boss")
	testutil.CreateStudent(t, gdb, "asha", "Asha", "R1")

	t.Run("wrong password", func(t *testing.T) {
		cl := newClient(t, r)
		w := cl.post("/login", url.Values{"username": {"boss"}, "password": {"nope"}})
		assertRedirect(t, w, "/login")
		page := cl.get("/login")
		assert.Equal(t, http.StatusOK, page.Code)
		assert.Contains(t, page.Body.String(), "Invalid username or password")
	})

	t.Run("unknown user", func(t *testing.T) {
		cl := newClient(t, r)
		assertRedirect(t, cl.post("/login", url.Values{"username": {"ghost"}, "password": {"ghost"}}), "/login")
	})

	t.Run("admin", func(t *testing.T) {
		cl := newClient(t, r)
		assertRedirect(t, cl.login("boss"), "/admin/dashboard")
		w := cl.get("/admin/dashboard")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Outstanding dues")
		assertRedirect(t, cl.get("/login"), "/admin/dashboard")
		assertRedirect(t, cl.get("/"), "/admin/dashboard")
	})

	t.Run("student", func(t *testing.T) {
		cl := newClient(t, r)
		assertRedirect(t, cl.login("asha"), "/student/dashboard")
		w := cl.get("/student/dashboard")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Welcome, Asha")
	})

	t.Run("logout", func(t *testing.T) {
		cl := newClient(t, r)
		cl.login("asha")
		assertRedirect(t, cl.get("/logout"), "/login")
		assertRedirect(t, cl.get("/student/dashboard"), "/login")
	})
}

func TestAccessControl(t *testing.T) {
	gdb, r := setup(t)
	testutil.CreateAdmin(t, gdb, "boss")
	testutil.CreateStudent(t, gdb, "asha", "Asha", "R1")

	anon := newClient(t, r)
	for _, path := range []string{"/", "/admin/dashboard", "/admin/reports/export", "/student/profile"} {
		assertRedirect(t, anon.get(path), "/login")
	}
	assertRedirect(t, anon.post("/admin/attendance", url.Values{}), "/login")

	student := newClient(t, r)
	student.login("asha")
	assertRedirect(t, student.get("/admin/reports"), "/student/dashboard")
	assertRedirect(t, student.post("/admin/payments", url.Values{"student_id": {"1"}, "amount": {"5"}}), "/student/dashboard")

	admin := newClient(t, r)
	admin.login("boss")
	assertRedirect(t, admin.get("/student/dashboard"), "/admin/dashboard")
}

func TestRegister(t *testing.T) {
	gdb, r := setup(t)
	testutil.CreateStudent(t, gdb, "asha", "Asha", "R1")
	cl := newClient(t, r)

	form := url.Values{
		"username": {"ben"},
		"password": {"ben"},
		"name":     {"Ben"},
		"roll_no":  {"R2"},
		"room_no":  {"12"},
	}
	assertRedirect(t, cl.post("/register", form), "/login")
	assert.Contains(t, cl.get("/login").Body.String(), "Registration successful")
	assertRedirect(t, cl.login("ben"), "/student/dashboard")

	other := newClient(t, r)
	form.Set("roll_no", "R9")
	assertRedirect(t, other.post("/register", form), "/register")
	assert.Contains(t, other.get("/register").Body.String(), "already exists")

	var count int64
	require.NoError(t, gdb.Model(&domain.User{}).Where("username = ?", "ben").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestToggleAttendance(t *testing.T) {
	gdb, r := setup(t)
	testutil.CreateAdmin(t, gdb, "boss")
	asha := testutil.CreateStudent(t, gdb, "asha", "Asha", "R1")
	cl := newClient(t, r)
	cl.login("boss")
	id := strconv.FormatUint(uint64(asha.ID), 10)

	t.Run("mark lunch creates a lunch-only row", func(t *testing.T) {
		w := cl.post("/admin/attendance?date=2024-01-01", url.Values{
			"student_id": {id}, "meal_type": {"lunch"}, "action": {"mark"},
		})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, map[string]any{"success": true}, decodeJSON(t, w))

		var meal domain.Meal
		require.NoError(t, gdb.Where("student_id = ? AND date = ?", asha.ID, "2024-01-01").First(&meal).Error)
		assert.False(t, meal.Breakfast)
		assert.True(t, meal.Lunch)
		assert.False(t, meal.Dinner)
	})

	t.Run("date from the form body", func(t *testing.T) {
		w := cl.post("/admin/attendance", url.Values{
			"student_id": {id}, "meal_type": {"dinner"}, "action": {"mark"}, "date": {"2024-01-01"},
		})
		assert.Equal(t, true, decodeJSON(t, w)["success"])
		w = cl.post("/admin/attendance", url.Values{
			"student_id": {id}, "meal_type": {"lunch"}, "action": {"unmark"}, "date": {"2024-01-01"},
		})
		assert.Equal(t, true, decodeJSON(t, w)["success"])

		var meals []domain.Meal
		require.NoError(t, gdb.Where("student_id = ?", asha.ID).Find(&meals).Error)
		require.Len(t, meals, 1)
		assert.False(t, meals[0].Lunch)
		assert.True(t, meals[0].Dinner)
	})

	t.Run("page shows the flags", func(t *testing.T) {
		w := cl.get("/admin/attendance?date=2024-01-01")
		assert.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, `value="2024-01-01"`)
		assert.Contains(t, body, `data-meal-type="dinner" checked`)
		assert.NotContains(t, body, `data-meal-type="lunch" checked`)
	})

	tests := []struct {
		name    string
		form    url.Values
		wantErr string
	}{
		{"missing action", url.Values{"student_id": {id}, "meal_type": {"lunch"}}, "Missing parameters"},
		{"bad action", url.Values{"student_id": {id}, "meal_type": {"lunch"}, "action": {"flip"}}, "Missing parameters"},
		{"bad meal", url.Values{"student_id": {id}, "meal_type": {"supper"}, "action": {"mark"}}, "unknown meal type"},
		{"unknown student", url.Values{"student_id": {"999"}, "meal_type": {"lunch"}, "action": {"mark"}}, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := cl.post("/admin/attendance", tt.form)
			assert.Equal(t, http.StatusOK, w.Code)
			got := decodeJSON(t, w)
			assert.Equal(t, false, got["success"])
			assert.Contains(t, got["error"], tt.wantErr)
		})
	}
}

func TestStudentManagement(t *testing.T) {
	gdb, r := setup(t)
	testutil.CreateAdmin(t, gdb, "boss")
	cl := newClient(t, r)
	cl.login("boss")

	add := url.Values{
		"username": {"asha"}, "password": {"secret"}, "name": {"Asha"},
		"roll_no": {"R1"}, "room_no": {"101"}, "contact": {"555"},
	}
	assertRedirect(t, cl.post("/admin/students", add), "/admin/students")
	page := cl.get("/admin/students").Body.String()
	assert.Contains(t, page, "Student added successfully!")
	assert.Contains(t, page, `value="R1"`)

	assertRedirect(t, cl.post("/admin/students", add), "/admin/students")
	assert.Contains(t, cl.get("/admin/students").Body.String(), "already exists")

	var asha domain.User
	require.NoError(t, gdb.Where("username = ?", "asha").First(&asha).Error)
	id := strconv.FormatUint(uint64(asha.ID), 10)

	edit := url.Values{
		"student_id": {id}, "username": {"asha"}, "name": {"Asha K"},
		"roll_no": {"R1"}, "room_no": {"102"}, "contact": {"555"},
	}
	assertRedirect(t, cl.post("/admin/students", edit), "/admin/students")
	assert.Contains(t, cl.get("/admin/students").Body.String(), "Student updated successfully!")
	require.NoError(t, gdb.First(&asha, asha.ID).Error)
	assert.Equal(t, "Asha K", asha.Name)
	assert.Equal(t, "102", asha.RoomNo)

	testutil.AddMeal(t, gdb, asha.ID, "2024-01-01", true, true, false)
	testutil.AddPayment(t, gdb, asha.ID, "2024-01-01", 50)

	assertRedirect(t, cl.post("/admin/students", url.Values{"student_id": {id}, "delete": {"1"}}), "/admin/students")
	assert.Contains(t, cl.get("/admin/students").Body.String(), "Student Asha K deleted successfully.")

	var meals, payments, users int64
	require.NoError(t, gdb.Model(&domain.Meal{}).Count(&meals).Error)
	require.NoError(t, gdb.Model(&domain.Payment{}).Count(&payments).Error)
	require.NoError(t, gdb.Model(&domain.User{}).Where("role = ?", domain.RoleStudent).Count(&users).Error)
	assert.Zero(t, meals)
	assert.Zero(t, payments)
	assert.Zero(t, users)

	assertRedirect(t, cl.post("/admin/students", url.Values{"student_id": {id}, "delete": {"1"}}), "/admin/students")
	assert.Contains(t, cl.get("/admin/students").Body.String(), "student not found")
}

func TestPaymentsAndBalance(t *testing.T) {
	gdb, r := setup(t)
	testutil.CreateAdmin(t, gdb, "boss")
	asha := testutil.CreateStudent(t, gdb, "asha", "Asha", "R1")
	testutil.AddMeal(t, gdb, asha.ID, "2024-01-01", true, true, true)
	admin := newClient(t, r)
	admin.login("boss")
	id := strconv.FormatUint(uint64(asha.ID), 10)

	assertRedirect(t, admin.post("/admin/payments", url.Values{"student_id": {id}, "amount": {"100"}, "date": {"2024-01-05"}}), "/admin/payments")
	page := admin.get("/admin/payments").Body.String()
	assert.Contains(t, page, "Payment recorded successfully")
	assert.Contains(t, page, "₹100.00")

	assertRedirect(t, admin.post("/admin/payments", url.Values{"student_id": {id}, "amount": {"-5"}}), "/admin/payments")
	assert.Contains(t, admin.get("/admin/payments").Body.String(), "non-negative")

	assertRedirect(t, admin.post("/admin/payments", url.Values{"student_id": {id}, "amount": {"abc"}}), "/admin/payments")
	assert.Contains(t, admin.get("/admin/payments").Body.String(), "Amount must be a number")

	var payment domain.Payment
	require.NoError(t, gdb.Where("student_id = ?", asha.ID).First(&payment).Error)
	assert.Equal(t, "2024-01-05", payment.Date)
	assert.Equal(t, domain.PaymentPaid, payment.Status)

	student := newClient(t, r)
	student.login("asha")
	dash := student.get("/student/dashboard").Body.String()
	assert.Contains(t, dash, "₹90.00 / ₹100.00")
	assert.Contains(t, dash, "₹10.00")

	mine := student.get("/student/payments").Body.String()
	assert.Contains(t, mine, "2024-01-05")

	hist := student.get("/student/attendance?start_date=2024-01-01&end_date=2024-01-31").Body.String()
	assert.Contains(t, hist, "2024-01-01")
}

func TestReports(t *testing.T) {
	gdb, r := setup(t)
	testutil.CreateAdmin(t, gdb, "boss")
	asha := testutil.CreateStudent(t, gdb, "asha", "Asha", "R1")
	testutil.AddMeal(t, gdb, asha.ID, "2024-01-01", true, false, true)
	cl := newClient(t, r)
	cl.login("boss")

	t.Run("page", func(t *testing.T) {
		w := cl.get("/admin/reports?type=attendance&start_date=2024-01-01&end_date=2024-01-31")
		assert.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "Asha")
		assert.Contains(t, body, "<th>Total</th>")
	})

	t.Run("unknown type", func(t *testing.T) {
		w := cl.get("/admin/reports?type=bogus")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Unknown report type")
	})

	t.Run("empty payments export is header only", func(t *testing.T) {
		w := cl.get("/admin/reports/export?type=payments&start_date=2024-01-01&end_date=2024-01-31")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "attachment; filename=payments_report_2024-01-01_to_2024-01-31.csv", w.Header().Get("Content-Disposition"))
		assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
		assert.Equal(t, "Date,Student Name,Roll No,Amount,Status\n", w.Body.String())
	})

	t.Run("attendance export", func(t *testing.T) {
		w := cl.get("/admin/reports/export?type=attendance&start_date=2024-01-01&end_date=2024-01-31")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Date,Student Name,Roll No,Breakfast,Lunch,Dinner,Total\n2024-01-01,Asha,R1,Yes,No,Yes,2\n", w.Body.String())
	})

	t.Run("export of unknown type", func(t *testing.T) {
		assertRedirect(t, cl.get("/admin/reports/export?type=bogus"), "/admin/reports")
	})

	t.Run("malformed dates collapse to today", func(t *testing.T) {
		today := utils.Today()
		body := cl.get("/admin/reports?type=attendance&start_date=garbage&end_date=2024-99-99").Body.String()
		assert.Contains(t, body, `name="start_date" value="`+today+`"`)
		assert.Contains(t, body, `name="end_date" value="`+today+`"`)

		w := cl.get("/admin/reports/export?type=payments&start_date=garbage")
		assert.Equal(t, "attachment; filename=payments_report_"+today+"_to_"+today+".csv", w.Header().Get("Content-Disposition"))
	})

	t.Run("missing dates use the last week", func(t *testing.T) {
		body := cl.get("/admin/reports?type=attendance").Body.String()
		assert.Contains(t, body, `name="start_date" value="`+utils.DaysAgo(7)+`"`)
	})
}

func TestProfileUpdate(t *testing.T) {
	gdb, r := setup(t)
	asha := testutil.CreateStudent(t, gdb, "asha", "Asha", "R1")
	cl := newClient(t, r)
	cl.login("asha")

	assert.Contains(t, cl.get("/student/profile").Body.String(), `value="R1"`)

	form := url.Values{"name": {"Asha N"}, "roll_no": {"R1"}, "room_no": {"7"}, "contact": {"123"}, "password": {"newpass"}}
	assertRedirect(t, cl.post("/student/profile", form), "/student/profile")
	assert.Contains(t, cl.get("/student/profile").Body.String(), "Profile updated successfully")

	require.NoError(t, gdb.First(asha, asha.ID).Error)
	assert.Equal(t, "Asha N", asha.Name)
	assert.Equal(t, "asha", asha.Username)

	fresh := newClient(t, r)
	assertRedirect(t, fresh.post("/login", url.Values{"username": {"asha"}, "password": {"newpass"}}), "/student/dashboard")
}

func TestAssetsServed(t *testing.T) {
	_, r := setup(t)
	w := newClient(t, r).get("/assets/script.js")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "meal-checkbox")
}

func TestCachedBalanceFollowsWrites(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	gdb, r := setupWithCache(t, utils.NewCache(rdb))

	testutil.CreateAdmin(t, gdb, "boss")
	asha := testutil.CreateStudent(t, gdb, "asha", "Asha", "R1")
	testutil.AddMeal(t, gdb, asha.ID, "2024-01-01", true, true, true)
	id := strconv.FormatUint(uint64(asha.ID), 10)
	key := utils.BalanceKey(asha.ID)

	admin := newClient(t, r)
	admin.login("boss")
	student := newClient(t, r)
	student.login("asha")

	assert.Contains(t, student.get("/student/dashboard").Body.String(), "₹90.00 / ₹0.00")
	require.True(t, mr.Exists(key))
	admin.get("/admin/dashboard")
	require.True(t, mr.Exists(utils.DashboardKey))

	w := admin.post("/admin/attendance", url.Values{
		"student_id": {id}, "meal_type": {"breakfast"}, "action": {"unmark"}, "date": {"2024-01-01"},
	})
	assert.Equal(t, true, decodeJSON(t, w)["success"])
	assert.False(t, mr.Exists(key))
	assert.False(t, mr.Exists(utils.DashboardKey))
	assert.Contains(t, student.get("/student/dashboard").Body.String(), "₹60.00 / ₹0.00")

	assertRedirect(t, admin.post("/admin/payments", url.Values{"student_id": {id}, "amount": {"100"}, "date": {"2024-01-05"}}), "/admin/payments")
	assert.False(t, mr.Exists(key))
	dash := student.get("/student/dashboard").Body.String()
	assert.Contains(t, dash, "₹60.00 / ₹100.00")
	assert.Contains(t, dash, "₹40.00")
	require.True(t, mr.Exists(key))

	assertRedirect(t, admin.post("/admin/students", url.Values{"student_id": {id}, "delete": {"1"}}), "/admin/students")
	assert.False(t, mr.Exists(key))
}
