package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/yigit/enrollhub/internal/app/controllers"
	"github.com/yigit/enrollhub/internal/app/models"
	"github.com/yigit/enrollhub/internal/app/models/dto"
	"github.com/yigit/enrollhub/internal/app/repositories/memory"
	"github.com/yigit/enrollhub/internal/app/rules"
	"github.com/yigit/enrollhub/internal/app/services"
	"github.com/yigit/enrollhub/internal/middleware"
	"github.com/yigit/enrollhub/internal/pkg/auth"
	"github.com/yigit/enrollhub/internal/pkg/dberrors"
	"github.com/yigit/enrollhub/internal/pkg/websocket"
)

type envelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Error   *dto.ErrorDetail `json:"error"`
}

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	store  *memory.Store
	hub    *websocket.Hub
	token  string
}

func newTestAPI(t *testing.T, authMiddleware *middleware.AuthMiddleware) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	hub := websocket.NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	svcs := services.NewServices(store, rules.NewEngine(rules.Options{}), zerolog.Nop(), services.WithPublisher(hub))

	router := gin.New()
	router.Use(middleware.RequestID())
	SetupRouter(router,
		controllers.NewStudentController(svcs.StudentService),
		controllers.NewCourseController(svcs.CourseService),
		controllers.NewEnrollmentController(svcs.EnrollmentService),
		controllers.NewDiagnosticsController(svcs.DiagnosticsService),
		controllers.NewChangeFeedController(websocket.NewHandler(hub, []string{"*"})),
		authMiddleware,
	)
	return &testAPI{t: t, router: router, store: store, hub: hub}
}

func (a *testAPI) do(method, path string, body interface{}) (int, envelope) {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			a.t.Fatalf("%s %s: decode response %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, env
}

func (a *testAPI) mustCreate(path string, body interface{}, into interface{}) {
	a.t.Helper()
	code, env := a.do(http.MethodPost, path, body)
	if code != http.StatusCreated {
		a.t.Fatalf("POST %s: expected 201, got %d (%+v)", path, code, env.Error)
	}
	if err := json.Unmarshal(env.Data, into); err != nil {
		a.t.Fatalf("decode created resource: %v", err)
	}
}

func (a *testAPI) seed() (dto.StudentResponse, dto.CourseResponse) {
	var student dto.StudentResponse
	a.mustCreate("/api/v1/students", dto.StudentRequest{Name: "Maria Santos", Email: "maria@example.com"}, &student)
	var course dto.CourseResponse
	a.mustCreate("/api/v1/courses", map[string]interface{}{
		"title": "Go Fundamentals", "basePrice": "299.90", "durationHours": 40,
	}, &course)
	return student, course
}

func enrollmentPath(studentID, courseID int64) string {
	return fmt.Sprintf("/api/v1/enrollments/%d/%d", studentID, courseID)
}

func TestEnrollmentLifecycle(t *testing.T) {
	api := newTestAPI(t, nil)
	student, course := api.seed()

	var created dto.EnrollmentResponse
	api.mustCreate("/api/v1/enrollments", map[string]interface{}{
		"studentId": student.ID, "courseId": course.ID, "progress": 40,
	}, &created)
	if created.Status != "Active" || created.Version != 1 {
		t.Fatalf("unexpected enrollment %+v", created)
	}
	if created.PricePaid.String() != "299.9" {
		t.Fatalf("price should default to the base price, got %s", created.PricePaid)
	}
	if created.StudentName != "Maria Santos" || created.CourseTitle != "Go Fundamentals" {
		t.Fatalf("summaries missing: %+v", created)
	}

	code, env := api.do(http.MethodGet, enrollmentPath(student.ID, course.ID), nil)
	if code != http.StatusOK || !env.Success {
		t.Fatalf("get: expected 200, got %d", code)
	}

	code, env = api.do(http.MethodPut, enrollmentPath(student.ID, course.ID), map[string]interface{}{
		"status": "Completed", "progress": 100, "finalGrade": 9.5, "expectedVersion": 1,
	})
	if code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d (%+v)", code, env.Error)
	}
	var updated dto.EnrollmentResponse
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Version != 2 || updated.Status != "Completed" {
		t.Fatalf("unexpected update result %+v", updated)
	}

	code, env = api.do(http.MethodGet, "/api/v1/enrollments?status=1&search=maria", nil)
	if code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", code)
	}
	var list []dto.EnrollmentResponse
	if err := json.Unmarshal(env.Data, &list); err != nil || len(list) != 1 {
		t.Fatalf("expected one completed enrollment, got %s (%v)", env.Data, err)
	}

	code, _ = api.do(http.MethodDelete, enrollmentPath(student.ID, course.ID), nil)
	if code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", code)
	}
	code, _ = api.do(http.MethodDelete, enrollmentPath(student.ID, course.ID), nil)
	if code != http.StatusOK {
		t.Fatalf("deleting a missing enrollment should succeed, got %d", code)
	}
	code, env = api.do(http.MethodGet, enrollmentPath(student.ID, course.ID), nil)
	if code != http.StatusNotFound || env.Error.Code != dto.ErrorCodeResourceNotFound {
		t.Fatalf("expected 404 after delete, got %d", code)
	}
}

func TestCreateEnrollmentErrors(t *testing.T) {
	api := newTestAPI(t, nil)
	student, course := api.seed()

	code, env := api.do(http.MethodPost, "/api/v1/enrollments", map[string]interface{}{
		"studentId": student.ID, "courseId": course.ID, "status": "Completed", "progress": 50, "finalGrade": "8.0",
	})
	if code != http.StatusBadRequest || env.Error.Code != dto.ErrorCodeValidationFailed {
		t.Fatalf("expected 400 validation failure, got %d (%+v)", code, env.Error)
	}
	violations, ok := env.Error.Details.([]interface{})
	if !ok || len(violations) != 2 {
		t.Fatalf("expected both violations in details, got %#v", env.Error.Details)
	}

	body := map[string]interface{}{"studentId": student.ID, "courseId": course.ID}
	api.mustCreate("/api/v1/enrollments", body, &dto.EnrollmentResponse{})
	code, env = api.do(http.MethodPost, "/api/v1/enrollments", body)
	if code != http.StatusConflict || env.Error.Code != dto.ErrorCodeDuplicateKey {
		t.Fatalf("expected 409 duplicate, got %d (%+v)", code, env.Error)
	}

	code, env = api.do(http.MethodPost, "/api/v1/enrollments", map[string]interface{}{"studentId": 999, "courseId": course.ID})
	if code != http.StatusBadRequest || env.Error.Field != "studentId" {
		t.Fatalf("expected 400 on studentId, got %d (%+v)", code, env.Error)
	}

	code, env = api.do(http.MethodPost, "/api/v1/enrollments", nil)
	if code != http.StatusBadRequest || env.Error.Code != dto.ErrorCodeInvalidRequest {
		t.Fatalf("expected 400 for a missing body, got %d (%+v)", code, env.Error)
	}
}

func TestStaleUpdate(t *testing.T) {
	api := newTestAPI(t, nil)
	student, course := api.seed()
	api.mustCreate("/api/v1/enrollments", map[string]interface{}{"studentId": student.ID, "courseId": course.ID}, &dto.EnrollmentResponse{})

	code, env := api.do(http.MethodPut, enrollmentPath(student.ID, course.ID), map[string]interface{}{
		"progress": 10, "expectedVersion": 7,
	})
	if code != http.StatusConflict || env.Error.Code != dto.ErrorCodeStaleState {
		t.Fatalf("expected 409 stale state, got %d (%+v)", code, env.Error)
	}
}

func TestParentDeletion(t *testing.T) {
	api := newTestAPI(t, nil)
	student, course := api.seed()
	api.mustCreate("/api/v1/enrollments", map[string]interface{}{"studentId": student.ID, "courseId": course.ID}, &dto.EnrollmentResponse{})

	code, env := api.do(http.MethodGet, fmt.Sprintf("/api/v1/students/%d/deletable", student.ID), nil)
	if code != http.StatusOK {
		t.Fatalf("deletable: expected 200, got %d", code)
	}
	var decision dto.DeletableResponse
	if err := json.Unmarshal(env.Data, &decision); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decision.Allowed || decision.Enrollments != 1 {
		t.Fatalf("expected a refusal with one enrollment, got %+v", decision)
	}

	code, env = api.do(http.MethodDelete, fmt.Sprintf("/api/v1/courses/%d", course.ID), nil)
	if code != http.StatusConflict || env.Error.Code != dto.ErrorCodeIntegrityDenied {
		t.Fatalf("expected 409 integrity denial, got %d (%+v)", code, env.Error)
	}

	api.do(http.MethodDelete, enrollmentPath(student.ID, course.ID), nil)
	code, _ = api.do(http.MethodDelete, fmt.Sprintf("/api/v1/courses/%d", course.ID), nil)
	if code != http.StatusOK {
		t.Fatalf("course without enrollments should delete, got %d", code)
	}
	code, _ = api.do(http.MethodDelete, fmt.Sprintf("/api/v1/courses/%d", course.ID), nil)
	if code != http.StatusNotFound {
		t.Fatalf("deleting a missing course should be 404, got %d", code)
	}
}

func TestStudentEmailConflict(t *testing.T) {
	api := newTestAPI(t, nil)
	api.seed()

	code, env := api.do(http.MethodPost, "/api/v1/students", dto.StudentRequest{Name: "Other", Email: "MARIA@example.com"})
	if code != http.StatusBadRequest || env.Error.Field != "email" {
		t.Fatalf("expected 400 on email, got %d (%+v)", code, env.Error)
	}
}

func TestInvalidPathAndFilter(t *testing.T) {
	api := newTestAPI(t, nil)

	code, env := api.do(http.MethodGet, "/api/v1/students/abc", nil)
	if code != http.StatusBadRequest || env.Error.Code != dto.ErrorCodeInvalidRequest {
		t.Fatalf("expected 400 for a bad id, got %d", code)
	}
	code, _ = api.do(http.MethodGet, "/api/v1/enrollments?status=Paused", nil)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown status filter, got %d", code)
	}
}

func TestStoreUnavailable(t *testing.T) {
	api := newTestAPI(t, nil)
	api.store.FailWith(dberrors.ErrUnavailable)

	code, env := api.do(http.MethodGet, "/api/v1/courses", nil)
	if code != http.StatusServiceUnavailable || env.Error.Code != dto.ErrorCodeStoreUnavailable {
		t.Fatalf("expected 503, got %d (%+v)", code, env.Error)
	}

	code, env = api.do(http.MethodGet, "/api/v1/diagnostics", nil)
	if code != http.StatusOK {
		t.Fatalf("diagnostics should answer even when the store is down, got %d", code)
	}
	var stats models.Stats
	if err := json.Unmarshal(env.Data, &stats); err != nil || stats.ConnectionOK || stats.Error == "" {
		t.Fatalf("expected connectionOk=false with an error message, got %s", env.Data)
	}
}

func TestMutationsRequireAdmin(t *testing.T) {
	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: "route-secret", TokenTTL: time.Hour, TokenIssuer: "enrollhub"})
	api := newTestAPI(t, middleware.NewAuthMiddleware(jwtService))

	code, _ := api.do(http.MethodGet, "/api/v1/students", nil)
	if code != http.StatusOK {
		t.Fatalf("reads stay public, got %d", code)
	}

	body := dto.StudentRequest{Name: "Maria Santos", Email: "maria@example.com"}
	code, env := api.do(http.MethodPost, "/api/v1/students", body)
	if code != http.StatusUnauthorized || env.Error.Code != dto.ErrorCodeUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", code)
	}

	viewer, _, err := jwtService.GenerateToken("viewer", models.RoleViewer)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	api.token = viewer
	code, env = api.do(http.MethodPost, "/api/v1/students", body)
	if code != http.StatusForbidden || env.Error.Code != dto.ErrorCodeForbidden {
		t.Fatalf("expected 403 for a viewer, got %d", code)
	}

	admin, _, err := jwtService.GenerateToken("admin", models.RoleAdmin)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	api.token = admin
	code, _ = api.do(http.MethodPost, "/api/v1/students", body)
	if code != http.StatusCreated {
		t.Fatalf("expected 201 for an admin, got %d", code)
	}

	api.token = "a.b.c"
	code, env = api.do(http.MethodDelete, "/api/v1/students/1", nil)
	if code != http.StatusUnauthorized || env.Error.Code != dto.ErrorCodeInvalidToken {
		t.Fatalf("expected 401 invalid token, got %d", code)
	}
}

func TestChangeFeed(t *testing.T) {
	api := newTestAPI(t, nil)
	student, course := api.seed()

	code, env := api.do(http.MethodGet, "/api/v1/changes?studentId=abc", nil)
	if code != http.StatusBadRequest || env.Error.Code != dto.ErrorCodeInvalidRequest {
		t.Fatalf("bad filter: expected 400/VAL_002, got %d", code)
	}

	srv := httptest.NewServer(api.router)
	defer srv.Close()
	url := fmt.Sprintf("ws%s/api/v1/changes?studentId=%d", strings.TrimPrefix(srv.URL, "http"), student.ID)
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial change feed: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for api.hub.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("change feed client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	var created dto.EnrollmentResponse
	api.mustCreate("/api/v1/enrollments", map[string]interface{}{
		"studentId": student.ID, "courseId": course.ID,
	}, &created)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event models.ChangeEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read change event: %v", err)
	}
	if event.Entity != models.EntityEnrollment || event.Kind != models.ChangeCreated ||
		event.StudentID != student.ID || event.CourseID != course.ID || event.Version != 1 {
		t.Fatalf("unexpected change event %+v", event)
	}
}

func TestStatusOrdinalsAndBlankUpdate(t *testing.T) {
	api := newTestAPI(t, nil)
	student, course := api.seed()

	var created dto.EnrollmentResponse
	api.mustCreate("/api/v1/enrollments", map[string]interface{}{
		"studentId": student.ID, "courseId": course.ID, "status": 2, "progress": 10,
	}, &created)
	if created.Status != "Cancelled" {
		t.Fatalf("ordinal 2 should be Cancelled, got %q", created.Status)
	}

	var updated dto.EnrollmentResponse
	code, env := api.do(http.MethodPut, enrollmentPath(student.ID, course.ID), map[string]interface{}{
		"status": "", "progress": 20,
	})
	if code != http.StatusOK {
		t.Fatalf("blank status update: expected 200, got %d (%+v)", code, env.Error)
	}
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatal(err)
	}
	if updated.Status != "Cancelled" || updated.Progress != 20 {
		t.Fatalf("blank status must keep Cancelled, got %+v", updated)
	}

	code, env = api.do(http.MethodPut, enrollmentPath(student.ID, course.ID), map[string]interface{}{"status": 0})
	if code != http.StatusOK {
		t.Fatalf("ordinal update: expected 200, got %d (%+v)", code, env.Error)
	}
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatal(err)
	}
	if updated.Status != "Active" {
		t.Fatalf("ordinal 0 should be Active, got %q", updated.Status)
	}
}
