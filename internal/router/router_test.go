package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-exam-api/internal/config"
	"github.com/noah-isme/gema-exam-api/internal/database"
	"github.com/noah-isme/gema-exam-api/internal/grading"
	"github.com/noah-isme/gema-exam-api/internal/handler"
	"github.com/noah-isme/gema-exam-api/internal/middleware"
	"github.com/noah-isme/gema-exam-api/internal/models"
	"github.com/noah-isme/gema-exam-api/internal/repository"
	"github.com/noah-isme/gema-exam-api/internal/router"
	"github.com/noah-isme/gema-exam-api/internal/service"
)

const resultSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["success", "message", "data"],
  "properties": {
    "success": {"const": true},
    "data": {
      "type": "object",
      "required": ["id", "student_id", "exam_id", "class_id", "obtained_marks", "total_marks", "percentage", "status", "submitted_at", "responses"],
      "properties": {
        "obtained_marks": {"type": "number", "minimum": 0},
        "total_marks": {"type": "integer", "minimum": 1},
        "percentage": {"type": "integer", "minimum": 0, "maximum": 100},
        "status": {"enum": ["Passed", "Failed"]},
        "responses": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["question_id", "question_text", "question_type", "options", "user_answer", "correct_answer", "is_correct", "obtained_marks"],
            "properties": {
              "question_type": {"enum": ["single_choice", "multi_choice", "free_text"]},
              "options": {"type": "array", "items": {"type": "string"}},
              "obtained_marks": {"type": "number", "minimum": 0, "maximum": 1}
            }
          }
        }
      }
    }
  }
}`

const secret = "router-test-secret"

type testEnv struct {
	app     *fiber.App
	db      *gorm.DB
	student models.Student
	exam    models.Exam
}

func setupRouter(t *testing.T) testEnv {
	t.Helper()

	db, err := database.Connect("sqlite", fmt.Sprintf("file:router_%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	student := models.Student{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", RollNo: "R-01"}
	class := models.Class{ClassName: "10-A"}
	exam := models.Exam{Title: "Science", Questions: []models.Question{
		{Position: 1, Text: "Pick B", Type: "single_choice", Options: datatypes.JSONSlice[string]{"A", "B"}, CorrectAnswer: datatypes.JSON(`"B"`)},
		{Position: 2, Text: "Pick A and C", Type: "checkbox", Options: datatypes.JSONSlice[string]{"A", "B", "C"}, CorrectAnswer: datatypes.JSON(`["A","C"]`)},
		{Position: 3, Text: "Explain", Type: "open end"},
	}}
	require.NoError(t, db.Create(&student).Error)
	require.NoError(t, db.Create(&class).Error)
	require.NoError(t, db.Create(&exam).Error)
	require.NoError(t, db.Create(&models.Enrollment{StudentID: student.ID, ClassID: class.ID, Status: models.EnrollmentStatusActive}).Error)
	require.NoError(t, db.Create(&models.ExamAssignment{ExamID: &exam.ID, ClassID: class.ID, StartTime: time.Now().UTC()}).Error)

	cfg := config.Config{AppName: "GEMA Exam API", AppEnv: "test", JWTSecret: secret, SubmitRateLimit: 2}
	logger := zerolog.Nop()

	examRepo := repository.NewExamRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	resultRepo := repository.NewResultRepository(db)

	analytics := service.NewClassAnalyticsService(repository.NewResultAnalyticsRepository(db), nil, time.Minute, logger)
	publisher := service.NewResultEventPublisher(nil, "", nil, analytics, logger)
	// No grading backend: free text falls back to pending review.
	descriptive := grading.NewDescriptiveGrader(nil, nil, time.Second, logger)
	submissions := service.NewExamSubmissionService(examRepo, enrollmentRepo, resultRepo, descriptive, publisher, validator.New(), logger)
	studentExams := service.NewStudentExamService(examRepo, enrollmentRepo, resultRepo, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		StudentExamHandler:    handler.NewStudentExamHandler(submissions, studentExams, logger),
		ClassAnalyticsHandler: handler.NewClassAnalyticsHandler(analytics, logger),
	})

	return testEnv{app: app, db: db, student: student, exam: exam}
}

func bearer(t *testing.T, userID uint, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  fmt.Sprintf("%d", userID),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func do(t *testing.T, app *fiber.App, method, path, auth string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func TestSubmitFlowMatchesContract(t *testing.T) {
	env := setupRouter(t)
	auth := bearer(t, env.student.ID, "student")
	path := fmt.Sprintf("/api/v1/student/exams/%d/submit", env.exam.ID)
	answers := map[string]interface{}{"answers": map[string]interface{}{
		fmt.Sprintf("%d", env.exam.Questions[0].ID): "B",
		fmt.Sprintf("%d", env.exam.Questions[1].ID): []string{"C", "A"},
		fmt.Sprintf("%d", env.exam.Questions[2].ID): "Because of <i>light</i>",
	}}

	resp, raw := do(t, env.app, http.MethodPost, path, auth, answers)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))

	schema, err := jsonschema.CompileString("result.schema.json", resultSchema)
	require.NoError(t, err)
	var document interface{}
	require.NoError(t, json.Unmarshal(raw, &document))
	require.NoError(t, schema.Validate(document))

	var payload struct {
		Data struct {
			ObtainedMarks float64 `json:"obtained_marks"`
			TotalMarks    int     `json:"total_marks"`
			Percentage    int     `json:"percentage"`
			Status        string  `json:"status"`
			Responses     []struct {
				UserAnswer    json.RawMessage `json:"user_answer"`
				CorrectAnswer json.RawMessage `json:"correct_answer"`
			} `json:"responses"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &payload))
	require.Equal(t, 2.0, payload.Data.ObtainedMarks)
	require.Equal(t, 3, payload.Data.TotalMarks)
	require.Equal(t, 67, payload.Data.Percentage)
	require.Equal(t, "Passed", payload.Data.Status)
	require.JSONEq(t, `"Because of <i>light</i>"`, string(payload.Data.Responses[2].UserAnswer))
	require.JSONEq(t, `"Pending Review"`, string(payload.Data.Responses[2].CorrectAnswer))

	resp, _ = do(t, env.app, http.MethodPost, path, auth, answers)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, _ = do(t, env.app, http.MethodPost, path, auth, answers)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	resp, raw = do(t, env.app, http.MethodGet, "/api/v1/student/exams", auth, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, string(raw), `"is_attempted":true`)

	resp, _ = do(t, env.app, http.MethodGet, fmt.Sprintf("/api/v1/student/exams/%d/result", env.exam.ID), auth, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestTeacherRoutesRequireRole(t *testing.T) {
	env := setupRouter(t)

	resp, _ := do(t, env.app, http.MethodGet, "/api/v1/teacher/exam-results", "", nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, env.app, http.MethodGet, "/api/v1/teacher/exam-results", bearer(t, env.student.ID, "student"), nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = do(t, env.app, http.MethodPost, fmt.Sprintf("/api/v1/student/exams/%d/submit", env.exam.ID), bearer(t, 99, "teacher"), map[string]interface{}{"answers": map[string]interface{}{}})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	_, _ = do(t, env.app, http.MethodPost, fmt.Sprintf("/api/v1/student/exams/%d/submit", env.exam.ID), bearer(t, env.student.ID, "student"), map[string]interface{}{"answers": map[string]interface{}{}})

	resp, raw := do(t, env.app, http.MethodGet, "/api/v1/teacher/exam-results", bearer(t, 1, "teacher"), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, string(raw), `"total_students":1`)

	resp, raw = do(t, env.app, http.MethodGet, fmt.Sprintf("/api/v1/teacher/exam-results/%d", env.exam.ID), bearer(t, 1, "admin"), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, string(raw), `"name":"Ada Lovelace"`)
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	env := setupRouter(t)

	resp, _ := do(t, env.app, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "GEMA Exam API", resp.Header.Get("X-Application"))

	resp, raw := do(t, env.app, http.MethodGet, "/api/v1/metrics", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, strings.Contains(string(raw), "api_requests_total"))
}
