package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"training_backend/internal/config"
	"training_backend/internal/model"
	"training_backend/internal/testutil"
	"training_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "router-test-secret"

type fixture struct {
	app        *App
	db         *gorm.DB
	training   *model.Training
	level      *model.Level
	learner    *model.User
	other      *model.User
	instructor *model.User
	admin      *model.User
}

func newFixture(t *testing.T, attemptsPerMinute int) *fixture {
	t.Helper()
	db := testutil.DB(t)

	cfg := &config.Config{
		Server:    config.ServerConfig{Mode: "test"},
		JWT:       config.JWTConfig{Secret: testSecret},
		RateLimit: config.RateLimitConfig{AttemptsPerMinute: attemptsPerMinute},
		Scoring:   config.ScoringConfig{DefaultThreshold: 80, RecentAttempts: 10},
	}
	a := &App{Config: cfg, DB: db}
	a.mount()

	f := &fixture{
		app:        a,
		db:         db,
		training:   testutil.SeedTraining(t, db, "Onboarding"),
		learner:    testutil.SeedUser(t, db, "Ana", model.Learner),
		other:      testutil.SeedUser(t, db, "Bo", model.Learner),
		instructor: testutil.SeedUser(t, db, "Ines", model.Instructor),
		admin:      testutil.SeedUser(t, db, "Root", model.Admin),
	}
	f.level = testutil.SeedLevel(t, db, f.training.ID, 1, "First call", testutil.TenPointLevel())
	testutil.Enroll(t, db, f.training.ID, f.learner.ID, model.Learner)
	testutil.Enroll(t, db, f.training.ID, f.other.ID, model.Learner)
	return f
}

func (f *fixture) do(t *testing.T, user *model.User, method, path, body string) (int, util.Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		tok, err := util.GenerateJWT(user, testSecret, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	f.app.Router.ServeHTTP(w, req)

	var resp util.Response
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w.Code, resp
}

func (f *fixture) submitPath() string {
	return fmt.Sprintf("/api/trainings/%d/levels/attempts", f.training.ID)
}

func dataMap(t *testing.T, resp util.Response) map[string]interface{} {
	t.Helper()
	m, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "data is %T", resp.Data)
	return m
}

func TestRouter_Health(t *testing.T) {
	f := newFixture(t, 0)

	code, resp := f.do(t, nil, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, code)
	components := dataMap(t, resp)["components"].(map[string]interface{})
	assert.Equal(t, "up", components["database"])
	assert.Equal(t, "disabled", components["redis"])
}

func TestRouter_SwaggerDoc(t *testing.T) {
	f := newFixture(t, 0)

	w := httptest.NewRecorder()
	f.app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		BasePath string                     `json:"basePath"`
		Paths    map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "/", doc.BasePath)
	for _, p := range []string{
		"/api/trainings/{trainingId}/levels/attempts",
		"/api/trainings/{trainingId}/levels/{levelId}/statistics",
		"/api/trainings/import",
	} {
		assert.Contains(t, doc.Paths, p)
	}
}

func TestRouter_SubmitAttempt(t *testing.T) {
	f := newFixture(t, 0)

	code, _ := f.do(t, nil, http.MethodPost, f.submitPath(), `{"levelId":1,"trail":[]}`)
	assert.Equal(t, http.StatusUnauthorized, code)

	body := fmt.Sprintf(`{"levelId":%d,"trail":[{"sceneId":1,"optionId":"best"},{"sceneId":2,"terminal":true}]}`, f.level.ID)
	code, resp := f.do(t, f.learner, http.MethodPost, f.submitPath(), body)
	require.Equal(t, http.StatusOK, code)
	data := dataMap(t, resp)
	assert.Equal(t, true, data["approved"])
	assert.EqualValues(t, 10, data["earnedPoints"])
	assert.EqualValues(t, 100, data["percentage"])
	assert.Equal(t, "inserted", data["retention"])

	// 按关卡编号引用，较差成绩不替换已保存的尝试
	code, resp = f.do(t, f.learner, http.MethodPost, f.submitPath(), `{"levelNumber":1,"trail":[{"sceneId":1,"optionId":"half"}]}`)
	require.Equal(t, http.StatusOK, code)
	data = dataMap(t, resp)
	assert.Equal(t, false, data["approved"])
	assert.Equal(t, "discarded", data["retention"])
}

func TestRouter_SubmitAttemptErrors(t *testing.T) {
	f := newFixture(t, 0)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"bad training id", "/api/trainings/abc/levels/attempts", `{"levelId":1}`, http.StatusBadRequest},
		{"malformed body", f.submitPath(), `{"trail":`, http.StatusBadRequest},
		{"missing level reference", f.submitPath(), `{"trail":[{"sceneId":1,"points":10}]}`, http.StatusBadRequest},
		{"unknown level", f.submitPath(), `{"levelTitle":"nope","trail":[{"sceneId":1,"points":10}]}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := f.do(t, f.learner, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestRouter_SubmitAttemptRateLimited(t *testing.T) {
	f := newFixture(t, 2)
	body := fmt.Sprintf(`{"levelId":%d,"trail":[{"sceneId":1,"optionId":"half"}]}`, f.level.ID)

	for i := 0; i < 2; i++ {
		code, _ := f.do(t, f.learner, http.MethodPost, f.submitPath(), body)
		require.Equal(t, http.StatusOK, code)
	}
	code, _ := f.do(t, f.learner, http.MethodPost, f.submitPath(), body)
	assert.Equal(t, http.StatusTooManyRequests, code)

	// 限额按学员计算
	code, _ = f.do(t, f.other, http.MethodPost, f.submitPath(), body)
	assert.Equal(t, http.StatusOK, code)
}

func TestRouter_StatisticsAccess(t *testing.T) {
	f := newFixture(t, 0)
	levelStats := fmt.Sprintf("/api/trainings/%d/levels/%d/statistics", f.training.ID, f.level.ID)
	otherStats := fmt.Sprintf("/api/trainings/%d/users/%d/statistics", f.training.ID, f.other.ID)
	myStats := fmt.Sprintf("/api/trainings/%d/me/statistics", f.training.ID)

	tests := []struct {
		name string
		user *model.User
		path string
		want int
	}{
		{"learner cannot read level statistics", f.learner, levelStats, http.StatusForbidden},
		{"instructor reads level statistics", f.instructor, levelStats, http.StatusOK},
		{"admin reads level statistics", f.admin, levelStats, http.StatusOK},
		{"learner cannot read another learner", f.learner, otherStats, http.StatusForbidden},
		{"instructor reads a learner", f.instructor, otherStats, http.StatusOK},
		{"learner reads own statistics", f.learner, myStats, http.StatusOK},
		{"unknown training", f.learner, "/api/trainings/999/me/statistics", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := f.do(t, tt.user, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestRouter_ProgressAndOptimalPath(t *testing.T) {
	f := newFixture(t, 0)

	code, resp := f.do(t, f.learner, http.MethodGet, fmt.Sprintf("/api/trainings/%d/progress", f.training.ID), "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, dataMap(t, resp)["enrolledLearners"])

	code, resp = f.do(t, f.learner, http.MethodGet, "/api/trainings/progress", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, resp.Data, 1)

	code, resp = f.do(t, f.learner, http.MethodGet,
		fmt.Sprintf("/api/trainings/%d/levels/%d/optimal-path", f.training.ID, f.level.ID), "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 10, dataMap(t, resp)["totalMaxScore"])
}

func TestRouter_LevelManagement(t *testing.T) {
	f := newFixture(t, 0)
	path := fmt.Sprintf("/api/trainings/%d/levels", f.training.ID)
	body := `{"levelNumber":2,"title":"Escalation","scenes":[{"id":1,"description":"start","options":[{"id":"a","description":"calm","points":4}]}]}`

	code, _ := f.do(t, f.learner, http.MethodPost, path, body)
	assert.Equal(t, http.StatusForbidden, code)

	code, resp := f.do(t, f.instructor, http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, code)
	created := dataMap(t, resp)
	assert.Equal(t, "Escalation", created["title"])

	code, _ = f.do(t, f.instructor, http.MethodPost, path,
		`{"levelNumber":3,"title":"Broken","scenes":[{"id":1,"options":[{"id":"a","points":1,"next":9}]}]}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(t, f.instructor, http.MethodPost, path,
		`{"levelNumber":1,"title":"Duplicate","scenes":[{"id":1,"options":[{"id":"a","points":1}]}]}`)
	assert.Equal(t, http.StatusConflict, code)

	code, resp = f.do(t, f.learner, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, resp.Data, 2)
}

func TestRouter_Import(t *testing.T) {
	f := newFixture(t, 0)
	doc := `
trainings:
  - title: Imported
    levels:
      - levelNumber: 1
        title: Only level
        scenes:
          - id: 1
            description: start
            options:
              - id: a
                description: fine
                points: 3
users:
  - name: Cy
    email: cy@example.com
    trainings: [Imported]
`
	code, _ := f.do(t, f.instructor, http.MethodPost, "/api/trainings/import", doc)
	assert.Equal(t, http.StatusForbidden, code)

	code, resp := f.do(t, f.admin, http.MethodPost, "/api/trainings/import", doc)
	require.Equal(t, http.StatusOK, code)
	summary := dataMap(t, resp)
	assert.EqualValues(t, 1, summary["levelsCreated"])
	assert.EqualValues(t, 1, summary["enrollments"])
}
