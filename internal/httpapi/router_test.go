package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/career-counselor/internal/ai"
	"github.com/suPer8Hu/career-counselor/internal/auth"
	"github.com/suPer8Hu/career-counselor/internal/chat"
	"github.com/suPer8Hu/career-counselor/internal/httpapi/handlers"
	"github.com/suPer8Hu/career-counselor/internal/httpapi/middleware"
	"golang.org/x/crypto/bcrypt"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router *gin.Engine
	store  *chat.Store
	now    time.Time
}

func newTestServer(t *testing.T, delay time.Duration) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	now := time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC)
	store := chat.NewStore()
	require.NoError(t, chat.SeedDefaults(store, now))
	sim := chat.NewSimulator(store, ai.NewScriptedProvider(), delay, zerolog.Nop())
	svc := chat.NewService(store, sim, zerolog.Nop())
	t.Cleanup(svc.Shutdown)

	reset := auth.NewResetFlow(auth.NewMemoryOTPStore(nil), auth.ResetConfig{
		Secret:    "test-secret",
		OTPTTL:    time.Minute,
		OTPLength: 9,
		HashCost:  bcrypt.MinCost,
	}, zerolog.Nop())

	h := handlers.NewHandler(svc, reset, zerolog.Nop())
	h.Now = func() time.Time { return now }
	return &testServer{router: NewRouter(h, zerolog.Nop()), store: store, now: now}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type sessionJSON struct {
	SessionID     string `json:"session_id"`
	Title         string `json:"title"`
	LastMessage   string `json:"last_message"`
	MessageCount  int    `json:"message_count"`
	RelativeTime  string `json:"relative_time"`
	CategoryLabel string `json:"category_label"`
	Pending       bool   `json:"pending"`
	Active        bool   `json:"active"`
}

type sidebarJSON struct {
	ActiveSessionID string `json:"active_session_id"`
	Groups          struct {
		Today     []sessionJSON `json:"today"`
		Yesterday []sessionJSON `json:"yesterday"`
		ThisWeek  []sessionJSON `json:"this_week"`
		Older     []sessionJSON `json:"older"`
	} `json:"groups"`
	Recent []sessionJSON `json:"recent"`
	Total  int           `json:"total"`
}

func TestPing(t *testing.T) {
	s := newTestServer(t, time.Millisecond)
	w, env := s.do(t, http.MethodGet, "/ping", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 0, env.Code)
	require.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestNoRoute(t *testing.T) {
	s := newTestServer(t, time.Millisecond)
	w, env := s.do(t, http.MethodGet, "/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, 40400, env.Code)

	w, env = s.do(t, http.MethodPost, "/ping", nil)
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	require.Equal(t, 40500, env.Code)
}

func TestListChatSessions(t *testing.T) {
	s := newTestServer(t, time.Millisecond)
	w, env := s.do(t, http.MethodGet, "/chat/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)

	sb := decode[sidebarJSON](t, env.Data)
	require.Equal(t, 5, sb.Total)
	require.Len(t, sb.Groups.Today, 2)
	require.Equal(t, "40m ago", sb.Groups.Today[0].RelativeTime)
	require.Equal(t, "Career Planning", sb.Groups.Today[0].CategoryLabel)
	require.True(t, sb.Groups.Today[0].Active)
	require.Equal(t, sb.Groups.Today[0].SessionID, sb.ActiveSessionID)
	require.Len(t, sb.Groups.Yesterday, 1)
	require.Equal(t, "1d ago", sb.Groups.Yesterday[0].RelativeTime)

	_, env = s.do(t, http.MethodGet, "/chat/sessions?q=remote", nil)
	sb = decode[sidebarJSON](t, env.Data)
	require.Len(t, sb.Groups.Yesterday, 1)
	require.Empty(t, sb.Groups.Today)
	require.Equal(t, 5, sb.Total)
}

func TestChatFlow_SendAndReceive(t *testing.T) {
	s := newTestServer(t, 20*time.Millisecond)

	_, env := s.do(t, http.MethodPost, "/chat/sessions", nil)
	created := decode[struct {
		Session sessionJSON `json:"session"`
	}](t, env.Data).Session
	require.Equal(t, chat.DefaultTitle, created.Title)
	require.Equal(t, "just now", created.RelativeTime)

	w, env := s.do(t, http.MethodPost, "/chat/messages", gin.H{
		"session_id": created.SessionID,
		"message":    "How should I prepare for an interview?",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sent := decode[struct {
		Message *chat.Message `json:"message"`
		Reply   *struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"reply"`
	}](t, env.Data)
	require.NotNil(t, sent.Message)
	require.NotNil(t, sent.Reply)
	require.Equal(t, "pending", sent.Reply.Status)

	require.Eventually(t, func() bool {
		_, env := s.do(t, http.MethodGet, "/chat/sessions/"+created.SessionID+"/messages", nil)
		list := decode[struct {
			Messages []chat.Message `json:"messages"`
			Pending  bool           `json:"pending"`
		}](t, env.Data)
		return len(list.Messages) == 2 && !list.Pending && list.Messages[1].Role == chat.RoleAssistant
	}, 2*time.Second, 10*time.Millisecond)

	got, err := s.store.Session(created.SessionID)
	require.NoError(t, err)
	require.Equal(t, 2, got.MessageCount)
}

func TestSendChatMessage_BlankIsNoop(t *testing.T) {
	s := newTestServer(t, time.Millisecond)
	active, _ := s.store.Active()
	before, _ := s.store.Session(active)

	w, env := s.do(t, http.MethodPost, "/chat/messages", gin.H{"session_id": active, "message": "   "})
	require.Equal(t, http.StatusOK, w.Code)
	data := decode[map[string]json.RawMessage](t, env.Data)
	require.Equal(t, "null", string(data["message"]))
	require.Equal(t, "null", string(data["reply"]))

	after, _ := s.store.Session(active)
	require.Equal(t, before, after)
}

func TestSendChatMessage_Errors(t *testing.T) {
	s := newTestServer(t, time.Millisecond)

	w, env := s.do(t, http.MethodPost, "/chat/messages", gin.H{"session_id": "missing", "message": "hi"})
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, 40004, env.Code)

	w, env = s.do(t, http.MethodPost, "/chat/messages", gin.H{"message": "hi"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, 10001, env.Code)
}

func TestDeleteChatSession_CancelsReply(t *testing.T) {
	s := newTestServer(t, 50*time.Millisecond)
	id, _ := s.store.Active()

	_, _ = s.do(t, http.MethodPost, "/chat/messages", gin.H{"session_id": id, "message": "salary advice please"})

	w, env := s.do(t, http.MethodDelete, "/chat/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode[struct {
		Deleted  bool   `json:"deleted"`
		ActiveID string `json:"active_session_id"`
	}](t, env.Data)
	require.True(t, data.Deleted)
	require.NotEqual(t, id, data.ActiveID)
	require.Equal(t, s.store.Sessions()[0].ID, data.ActiveID)

	time.Sleep(100 * time.Millisecond)
	w, env = s.do(t, http.MethodGet, "/chat/sessions/"+id+"/messages", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, 40004, env.Code)
	require.Len(t, s.store.Sessions(), 4)

	_, env = s.do(t, http.MethodDelete, "/chat/sessions/"+id, nil)
	require.False(t, decode[struct {
		Deleted bool `json:"deleted"`
	}](t, env.Data).Deleted)
}

func TestRenameAndSelect(t *testing.T) {
	s := newTestServer(t, time.Millisecond)
	target := s.store.Sessions()[3]

	w, env := s.do(t, http.MethodPatch, "/chat/sessions/"+target.ID, gin.H{"title": "  Skills roadmap "})
	require.Equal(t, http.StatusOK, w.Code)
	renamed := decode[struct {
		Session sessionJSON `json:"session"`
	}](t, env.Data).Session
	require.Equal(t, "Skills roadmap", renamed.Title)
	require.False(t, renamed.Active)

	w, _ = s.do(t, http.MethodPut, "/chat/sessions/"+target.ID+"/select", nil)
	require.Equal(t, http.StatusOK, w.Code)
	active, _ := s.store.Active()
	require.Equal(t, target.ID, active)

	_, env = s.do(t, http.MethodPatch, "/chat/sessions/"+target.ID, gin.H{"title": "Skills plan"})
	renamed = decode[struct {
		Session sessionJSON `json:"session"`
	}](t, env.Data).Session
	require.True(t, renamed.Active, "renaming the selected session keeps it marked active")

	w, env = s.do(t, http.MethodPut, "/chat/sessions/missing/select", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, 40004, env.Code)
}

func TestCancelChatReply(t *testing.T) {
	s := newTestServer(t, time.Hour)
	id, _ := s.store.Active()
	_, _ = s.do(t, http.MethodPost, "/chat/messages", gin.H{"session_id": id, "message": "hello"})

	_, env := s.do(t, http.MethodDelete, "/chat/sessions/"+id+"/reply", nil)
	require.Equal(t, 1, decode[struct {
		Cancelled int `json:"cancelled"`
	}](t, env.Data).Cancelled)
}

func TestResetPasswordFlow(t *testing.T) {
	s := newTestServer(t, time.Millisecond)

	w, env := s.do(t, http.MethodPost, "/auth/reset/otp", gin.H{"email": "user@example.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	issued := decode[struct {
		Code      string `json:"code"`
		ExpiresIn int    `json:"expires_in"`
	}](t, env.Data)
	require.Len(t, issued.Code, 9)
	require.Equal(t, 60, issued.ExpiresIn)

	w, env = s.do(t, http.MethodPost, "/auth/reset/verify", gin.H{"email": "user@example.com", "code": issued.Code})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ticket := decode[struct {
		Ticket string `json:"ticket"`
	}](t, env.Data).Ticket

	w, env = s.do(t, http.MethodPost, "/auth/reset/password", gin.H{
		"ticket": ticket, "password": "abc12345", "confirm_password": "abc1234",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, 10022, env.Code)

	w, _ = s.do(t, http.MethodPost, "/auth/reset/password", gin.H{
		"ticket": ticket, "password": "abc12345", "confirm_password": "abc12345",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(t, http.MethodPost, "/auth/reset/verify", gin.H{"email": "user@example.com", "code": issued.Code})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, 10020, env.Code)

	w, env = s.do(t, http.MethodPost, "/auth/reset/password", gin.H{
		"ticket": "bogus", "password": "x", "confirm_password": "x",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, 40101, env.Code)
}

func TestVerifyResetCode_TooManyAttempts(t *testing.T) {
	s := newTestServer(t, time.Millisecond)

	_, env := s.do(t, http.MethodPost, "/auth/reset/otp", gin.H{"email": "guess@example.com"})
	code := decode[struct {
		Code string `json:"code"`
	}](t, env.Data).Code
	wrong := "000000000"
	if code == wrong {
		wrong = "111111111"
	}

	for i := 1; i < auth.DefaultMaxAttempts; i++ {
		w, env := s.do(t, http.MethodPost, "/auth/reset/verify", gin.H{"email": "guess@example.com", "code": wrong})
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, 10021, env.Code)
	}
	w, env := s.do(t, http.MethodPost, "/auth/reset/verify", gin.H{"email": "guess@example.com", "code": wrong})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, 10023, env.Code)

	w, env = s.do(t, http.MethodPost, "/auth/reset/verify", gin.H{"email": "guess@example.com", "code": code})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, 10020, env.Code)
}

func TestValidateSignup(t *testing.T) {
	s := newTestServer(t, time.Millisecond)

	w, _ := s.do(t, http.MethodPost, "/auth/signup/validate", gin.H{
		"email": "new@example.com", "password": "pw", "confirm_password": "pw",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, env := s.do(t, http.MethodPost, "/auth/signup/validate", gin.H{
		"email": "new@example.com", "password": "pw", "confirm_password": "wp",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, 10022, env.Code)

	w, env = s.do(t, http.MethodPost, "/auth/signup/validate", gin.H{
		"email": "", "password": "pw", "confirm_password": "pw",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, 10002, env.Code)
}
