package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/planner"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/repository"
)

type fakePublisher struct {
	keys     []string
	messages []amqp.Publishing
	err      error
}

func (f *fakePublisher) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.messages = append(f.messages, msg)
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 1
	cfg.RabbitMQ.Queue = "email_queue"
	cfg.RabbitMQ.PublishTimeout = 1
	cfg.Redis.OperationExpiration = 1
	cfg.Metrics.Enabled = true
	cfg.Metrics.Path = "/metrics"
	return cfg
}

// newTestHandler 不连接数据库和 redis，只能用于在访问存储之前就返回的请求
func newTestHandler(t *testing.T) (*Handler, *fakePublisher) {
	t.Helper()

	publisher := &fakePublisher{}
	h, err := NewHandler(testConfig(), nil, planner.New(planner.DefaultParameters()), publisher, nil)
	require.NoError(t, err)
	h.RegisterRoutes()

	return h, publisher
}

func tokenCookie(t *testing.T, h *Handler, role domain.Role) *http.Cookie {
	t.Helper()

	token, expiration, err := h.signToken(&domain.User{ID: 42, Role: role})
	require.NoError(t, err)

	return &http.Cookie{Name: authCookieName, Value: token, Expires: expiration}
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestAuthRejectsMissingCookie(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/my-info/", nil))

	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "用户未登录", resp.Message)
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	h, _ := newTestHandler(t)

	cases := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", func() string {
			other, err := NewHandler(testConfig(), nil, planner.New(planner.DefaultParameters()), nil, nil)
			require.NoError(t, err)
			other.config.JWT.Secret = "another-secret"
			token, _, err := other.signToken(&domain.User{ID: 1, Role: domain.RoleCounselor})
			require.NoError(t, err)
			return token
		}()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users/", nil)
			req.AddCookie(&http.Cookie{Name: authCookieName, Value: tc.token})

			rec := httptest.NewRecorder()
			h.Mux.ServeHTTP(rec, req)

			assert.Equal(t, "无效的令牌", decodeResponse(t, rec).Message)
		})
	}
}

func TestStudentCannotListUsers(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/users/", nil)
	req.AddCookie(tokenCookie(t, h, domain.RoleStudent))

	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)

	assert.Equal(t, "权限不足", decodeResponse(t, rec).Message)
}

func TestCounselorCannotUseStudentWorkload(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/my-workload/weeks", nil)
	req.AddCookie(tokenCookie(t, h, domain.RoleCounselor))

	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)

	assert.Equal(t, "权限不足", decodeResponse(t, rec).Message)
}

func TestRequestIDIsEchoed(t *testing.T) {
	h, _ := newTestHandler(t)

	t.Run("given", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/my-info/", nil)
		req.Header.Set("X-Request-ID", "req-123")

		rec := httptest.NewRecorder()
		h.Mux.ServeHTTP(rec, req)

		assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	})

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/my-info/", nil))

		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})
}

func TestRecovererReturnsInternalServerError(t *testing.T) {
	h, _ := newTestHandler(t)

	panicking := h.recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	panicking.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "服务器内部错误", decodeResponse(t, rec).Message)
}

func TestCreateScholarshipValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	yesterday := time.Now().AddDate(0, 0, -1).Format(planner.DateLayout)

	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "deadline in the past",
			body: `{"name":"罗德奖学金","deadline":"` + yesterday + `","essayPrompts":["个人陈述"]}`,
			want: "截止日期必须晚于今天",
		},
		{
			name: "malformed deadline",
			body: `{"name":"罗德奖学金","deadline":"2025/12/31"}`,
		},
		{
			name: "missing name",
			body: `{"deadline":"2099-12-31"}`,
		},
		{
			name: "duplicate essay prompts",
			body: `{"name":"罗德奖学金","deadline":"2099-12-31","essayPrompts":["个人陈述","个人陈述"]}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/scholarships/", strings.NewReader(tc.body))
			req.AddCookie(tokenCookie(t, h, domain.RoleCounselor))

			rec := httptest.NewRecorder()
			h.Mux.ServeHTTP(rec, req)

			resp := decodeResponse(t, rec)
			assert.False(t, resp.Success)
			if tc.want != "" {
				assert.Equal(t, tc.want, resp.Message)
			} else {
				assert.NotEmpty(t, resp.Message)
			}
		})
	}
}

func TestStudentCannotCreateScholarship(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/scholarships/", strings.NewReader(`{"name":"x","deadline":"2099-12-31"}`))
	req.AddCookie(tokenCookie(t, h, domain.RoleStudent))

	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)

	assert.Equal(t, "权限不足", decodeResponse(t, rec).Message)
}

func withStudentAndApplication(r *http.Request) *http.Request {
	ctx := context.WithValue(r.Context(), MyInfoCtx, &domain.User{ID: 42, Role: domain.RoleStudent, IsActive: true})
	ctx = context.WithValue(ctx, ApplicationCtx, &domain.Application{ID: 7, StudentID: 42, Status: domain.ApplicationStatusInProgress})
	return r.WithContext(ctx)
}

func TestDeferScheduleRejectsInvalidDays(t *testing.T) {
	h, _ := newTestHandler(t)

	for _, body := range []string{`{"days":0}`, `{"days":-3}`, `{}`, `not json`} {
		t.Run(body, func(t *testing.T) {
			req := withStudentAndApplication(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

			rec := httptest.NewRecorder()
			h.DeferSchedule(rec, req)

			resp := decodeResponse(t, rec)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestGetOverlapRejectsInvalidIDs(t *testing.T) {
	h, _ := newTestHandler(t)

	for _, query := range []string{"", "?a=1", "?a=x&b=2"} {
		t.Run(query, func(t *testing.T) {
			req := withStudentAndApplication(httptest.NewRequest(http.MethodGet, "/"+query, nil))

			rec := httptest.NewRecorder()
			h.GetOverlap(rec, req)

			assert.Equal(t, "申请ID无效", decodeResponse(t, rec).Message)
		})
	}
}

func TestOverlapPair(t *testing.T) {
	p := planner.New(planner.DefaultParameters())
	deadline := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	rhodes := p.NewSchedule(&domain.Application{ID: 7, Deadline: deadline, EssayCount: 2, RecommendationCount: 1})
	fulbright := p.NewSchedule(&domain.Application{ID: 8, Deadline: deadline.AddDate(0, 2, 0), EssayCount: 1})
	schedules := []*domain.Schedule{rhodes, fulbright}

	t.Run("same application", func(t *testing.T) {
		first, second := overlapPair(schedules, 7, 7)
		require.NotNil(t, first)
		require.NotNil(t, second)
		assert.Same(t, rhodes, first)
		assert.Same(t, rhodes, second)
		assert.True(t, p.Overlaps(first, second))
	})

	t.Run("different applications", func(t *testing.T) {
		first, second := overlapPair(schedules, 8, 7)
		assert.Same(t, fulbright, first)
		assert.Same(t, rhodes, second)
	})

	t.Run("missing application", func(t *testing.T) {
		first, second := overlapPair(schedules, 7, 99)
		assert.Same(t, rhodes, first)
		assert.Nil(t, second)
	})
}

func TestResponseCarriesRequestID(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/my-info/", nil)
	req.Header.Set("X-Request-ID", "req-456")

	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)

	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "req-456", resp.RequestID)
	assert.False(t, resp.Retryable)
}

func TestMutationErrorRetryable(t *testing.T) {
	h, _ := newTestHandler(t)

	cases := []struct {
		err       error
		retryable bool
	}{
		{errScheduleLocked, true},
		{repository.ErrVersionConflict, true},
		{planner.ErrScheduleNotFound, false},
		{planner.ErrInvalidDeferralDays, false},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.mutationError(rec, httptest.NewRequest(http.MethodPost, "/", nil), tc.err)

			resp := decodeResponse(t, rec)
			assert.False(t, resp.Success)
			assert.Equal(t, tc.retryable, resp.Retryable)
		})
	}
}

func TestMutationErrorMessages(t *testing.T) {
	h, _ := newTestHandler(t)

	cases := []struct {
		err  error
		want string
	}{
		{errScheduleLocked, "排期正在被修改，请稍后重试"},
		{planner.ErrScheduleNotFound, "排期不存在"},
		{planner.ErrInvalidDeferralDays, "推迟天数必须在 1 到 30 之间"},
	}

	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.mutationError(rec, httptest.NewRequest(http.MethodPost, "/", nil), tc.err)

			assert.Equal(t, tc.want, decodeResponse(t, rec).Message)
		})
	}
}

func TestPublishMail(t *testing.T) {
	h, publisher := newTestHandler(t)

	err := h.publishMail(domain.MailMessage{
		Type: domain.MailTypeWorkloadConflict,
		To:   "student@example.com",
		Data: domain.WorkloadConflictMailData{FullName: "张三", Warnings: []string{"warning"}},
	})
	require.NoError(t, err)

	require.Len(t, publisher.messages, 1)
	assert.Equal(t, "email_queue", publisher.keys[0])
	assert.Equal(t, "application/json", publisher.messages[0].ContentType)

	var msg struct {
		Type string                          `json:"type"`
		To   string                          `json:"to"`
		Data domain.WorkloadConflictMailData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(publisher.messages[0].Body, &msg))
	assert.Equal(t, domain.MailTypeWorkloadConflict, msg.Type)
	assert.Equal(t, "student@example.com", msg.To)
	assert.Equal(t, []string{"warning"}, msg.Data.Warnings)

	publisher.err = errors.New("channel closed")
	assert.Error(t, h.publishMail(domain.MailMessage{Type: domain.MailTypeScheduleAtRisk}))
}

func TestSchedulesToSave(t *testing.T) {
	a := &domain.Schedule{ID: 1}
	b := &domain.Schedule{ID: 2}
	aChanged := &domain.Schedule{ID: 1, HasConflicts: true}

	t.Run("updated first and deduplicated", func(t *testing.T) {
		result := schedulesToSave(a, []*domain.Schedule{aChanged, b})
		require.Len(t, result, 2)
		assert.Same(t, a, result[0])
		assert.Same(t, b, result[1])
	})

	t.Run("nothing updated", func(t *testing.T) {
		assert.Empty(t, schedulesToSave(nil, nil))
		assert.Equal(t, []*domain.Schedule{b}, schedulesToSave(nil, []*domain.Schedule{b}))
	})
}

func TestScheduleLockKey(t *testing.T) {
	assert.Equal(t, "schedule_lock_7", scheduleLockKey(7))
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	h.Mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/my-info/", nil))

	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_request_duration_seconds")
}
