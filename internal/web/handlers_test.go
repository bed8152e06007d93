package web

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"consultant-hub/internal/api"
	"consultant-hub/internal/assistant"
	"consultant-hub/internal/auth"
	"consultant-hub/internal/database"
	"consultant-hub/internal/media"
	"consultant-hub/internal/models"
	"consultant-hub/internal/posts"
	"consultant-hub/internal/quiz"
	"consultant-hub/internal/social"
	"consultant-hub/internal/ws"
)

func testSite(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	storage, err := media.NewStorage(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	hub := ws.NewHub(zap.NewNop())
	go hub.Run()

	client := assistant.NewClient("", "m", "http://unused", zap.NewNop())
	authSvc := auth.NewService(db, auth.NewSessionStore(rdb), storage, "test-secret", time.Hour, zap.NewNop())
	postSvc := posts.NewService(db, storage, hub, zap.NewNop())
	socialSvc := social.NewService(db)
	quizSvc := quiz.NewService(db, storage, client, zap.NewNop())

	apiHandler := api.NewHandler(authSvc, postSvc, socialSvc, quizSvc, client, hub, zap.NewNop())
	webHandler := NewHandler(authSvc, postSvc, socialSvc, quizSvc, zap.NewNop())

	r := gin.New()
	r.LoadHTMLGlob("../../web/templates/*.html")
	r.Use(apiHandler.SessionMiddleware())
	webHandler.Register(r)
	return r, db
}

func postForm(r *gin.Engine, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signupForm(handle string) url.Values {
	return url.Values{
		"handle":   {handle},
		"email":    {handle + "@example.com"},
		"name":     {"Dr. " + handle},
		"password": {"p@ss1234"},
	}
}

func TestSignupDuplicateRendersForm(t *testing.T) {
	r, _ := testSite(t)

	w := postForm(r, "/signup", signupForm("dr_amina"))
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = postForm(r, "/signup", signupForm("dr_amina"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already registered")
}

func TestSignupInternalErrorIsGeneric(t *testing.T) {
	r, db := testSite(t)

	// With the table gone every query fails; the visitor must get a plain
	// 500 and never the driver message.
	require.NoError(t, db.Migrator().DropTable(&models.Consultant{}))

	w := postForm(r, "/signup", signupForm("dr_amina"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal error", w.Body.String())
	assert.NotContains(t, w.Body.String(), "consultants")
}

func TestLoginInternalErrorIsGeneric(t *testing.T) {
	r, db := testSite(t)

	w := postForm(r, "/signup", signupForm("dr_amina"))
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = postForm(r, "/login", url.Values{"handle": {"dr_amina"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Incorrect handle or password")

	require.NoError(t, db.Migrator().DropTable(&models.Consultant{}))
	w = postForm(r, "/login", url.Values{"handle": {"dr_amina"}, "password": {"p@ss1234"}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal error", w.Body.String())
}

func TestDashboardPostValidationRendersForm(t *testing.T) {
	r, _ := testSite(t)

	w := postForm(r, "/signup", signupForm("dr_amina"))
	require.Equal(t, http.StatusSeeOther, w.Code)
	w = postForm(r, "/login", url.Values{"handle": {"dr_amina"}, "password": {"p@ss1234"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	session := w.Result().Cookies()[0]

	w = postForm(r, "/dashboard/posts", url.Values{"body": {"   "}}, session)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "body or media required")
}

func TestDashboardPostInternalErrorIsGeneric(t *testing.T) {
	r, db := testSite(t)

	w := postForm(r, "/signup", signupForm("dr_amina"))
	require.Equal(t, http.StatusSeeOther, w.Code)
	w = postForm(r, "/login", url.Values{"handle": {"dr_amina"}, "password": {"p@ss1234"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	session := w.Result().Cookies()[0]

	require.NoError(t, db.Migrator().DropTable(&models.Post{}))
	w = postForm(r, "/dashboard/posts", url.Values{"body": {"Hello patients"}}, session)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal error", w.Body.String())
}

func TestQuizValidationRendersForm(t *testing.T) {
	r, _ := testSite(t)

	w := postForm(r, "/quiz", url.Values{"answer_1": {"only one"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postForm(r, "/quiz", url.Values{"answer_1": {"tired"}, "answer_2": {"headaches"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Your quiz has been submitted.")
}

func TestQuizInternalErrorIsGeneric(t *testing.T) {
	r, db := testSite(t)

	require.NoError(t, db.Migrator().DropTable(&models.QuizSubmission{}))
	w := postForm(r, "/quiz", url.Values{"answer_1": {"tired"}, "answer_2": {"headaches"}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal error", w.Body.String())
}
