package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/terra-clan/skillify/internal/auth"
	"github.com/terra-clan/skillify/internal/config"
	"github.com/terra-clan/skillify/internal/content"
	"github.com/terra-clan/skillify/internal/models"
	"github.com/terra-clan/skillify/internal/planner"
	"github.com/terra-clan/skillify/internal/session"
	"github.com/terra-clan/skillify/internal/storage"
	"github.com/terra-clan/skillify/internal/workspace"
)

type testEnv struct {
	mr         *miniredis.Miniredis
	auth       *auth.Service
	workspaces *workspace.Manager
	server     *Server
	handler    http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := auth.NewRedisClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	authService := auth.NewService(
		storage.NewMemoryRepository(),
		auth.NewSessionStore(client),
		auth.NewTokenIssuer("api-test-secret", "skillify-test"),
		auth.WithBcryptCost(bcrypt.MinCost),
	)

	loader := content.NewLoader()
	require.NoError(t, loader.LoadDefaults())

	manager := workspace.NewManager(authService, loader.Catalog(), workspace.Options{})
	t.Cleanup(manager.Close)

	srv := NewServer(
		config.ServerConfig{GateWait: 2 * time.Second},
		authService,
		manager,
		0,
		map[string]Pinger{"redis": authService},
	)
	return &testEnv{mr: mr, auth: authService, workspaces: manager, server: srv, handler: srv.Router()}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.True(t, env.Success, rec.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *apiError {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.False(t, env.Success)
	require.NotNil(t, env.Error)
	return env.Error
}

func (e *testEnv) signUp(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/sign-up", "", models.SignUpRequest{
		Email:    "ada@example.com",
		Password: "secret-pass",
		Name:     "Ada",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[models.AuthResponse](t, rec)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

type screen[T any] struct {
	Screen  string `json:"screen"`
	Path    string `json:"path"`
	Sidebar []struct {
		Path    string `json:"path"`
		Enabled bool   `json:"enabled"`
		Active  bool   `json:"active"`
	} `json:"sidebar"`
	View T `json:"view"`
}

func minimalPDF() []byte {
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
	}
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objs)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return b.Bytes()
}

func (e *testEnv) uploadCV(t *testing.T, token, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload-cv", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	env.mr.Close()
	rec = env.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_ready", decodeError(t, rec).Code)
}

func TestPublicScreens(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	home := decode[screen[HomeView]](t, rec)
	assert.Equal(t, "home", home.Screen)
	assert.Len(t, home.View.Features, 4)

	rec = env.do(t, http.MethodGet, "/auth", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	authScreen := decode[screen[AuthView]](t, rec)
	assert.False(t, authScreen.View.SignedIn)

	token := env.signUp(t)
	rec = env.do(t, http.MethodGet, "/auth", token, nil)
	authScreen = decode[screen[AuthView]](t, rec)
	assert.True(t, authScreen.View.SignedIn)
	assert.Equal(t, "/dashboard", authScreen.View.Next)
}

func TestUnknownPathIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/no/such/page", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not-found", decodeError(t, rec).Code)
}

func TestGateRedirectsWithoutSession(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/dashboard", "/upload-cv", "/roadmap", "/roadmap/3", "/schedule", "/chatbot", "/interview", "/dream-job"} {
		t.Run(path, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, path, "", nil)
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/auth", rec.Header().Get("Location"))
			assert.Empty(t, rec.Body.String())
		})
	}

	rec := env.do(t, http.MethodGet, "/dashboard", "not-a-token", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestGatePendingWhileSessionCheckOutstanding(t *testing.T) {
	env := newTestEnv(t)

	provider := session.NewMemoryProvider()
	provider.CheckGate = make(chan struct{})
	defer close(provider.CheckGate)

	loader := content.NewLoader()
	require.NoError(t, loader.LoadDefaults())
	token := env.signUp(t)
	manager := workspace.NewManager(workspace.ResolverFunc(func(token string) (string, session.Provider, error) {
		id, _, err := env.auth.Resolve(token)
		return id, provider, err
	}), loader.Catalog(), workspace.Options{})
	defer manager.Close()

	srv := NewServer(config.ServerConfig{GateWait: 20 * time.Millisecond}, env.auth, manager, 0, nil)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"status":"pending"}`, rec.Body.String())
}

func TestCareerFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t)

	rec := env.do(t, http.MethodGet, "/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dash := decode[screen[planner.Dashboard]](t, rec)
	assert.Equal(t, "dashboard", dash.Screen)
	assert.Equal(t, 20, dash.View.Progress)
	assert.Equal(t, "/upload-cv", dash.View.NextAction.Target)
	require.NotEmpty(t, dash.Sidebar)
	assert.True(t, dash.Sidebar[0].Active)

	rec = env.uploadCV(t, token, "resume.txt", []byte("plain text"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	apiErr := decodeError(t, rec)
	require.NotNil(t, apiErr.Notice)
	assert.Equal(t, "Invalid file type", apiErr.Notice.Title)

	rec = env.uploadCV(t, token, "resume.pdf", minimalPDF())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	outcome := decode[planner.Outcome](t, rec)
	assert.Equal(t, "CV Uploaded Successfully", outcome.Notice.Title)
	assert.Equal(t, "/dream-job", outcome.Next)

	rec = env.do(t, http.MethodPost, "/dream-job", token, planner.DreamJobRequest{DreamJob: "  "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Dream job is required", decodeError(t, rec).Notice.Title)

	rec = env.do(t, http.MethodPost, "/dream-job", token, planner.DreamJobRequest{DreamJob: "Data Scientist"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	outcome = decode[planner.Outcome](t, rec)
	assert.Equal(t, "/roadmap", outcome.Next)

	rec = env.do(t, http.MethodGet, "/roadmap", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	roadmap := decode[screen[planner.RoadmapView]](t, rec)
	assert.Equal(t, "Data Scientist", roadmap.View.DreamJob)
	require.Len(t, roadmap.View.Items, 6)

	rec = env.do(t, http.MethodPut, "/roadmap/"+roadmap.View.Items[0].ID, token, map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[planner.RoadmapView](t, rec)
	assert.Equal(t, 17, updated.Progress)

	rec = env.do(t, http.MethodPut, "/roadmap/missing", token, map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/dashboard", token, nil)
	dash = decode[screen[planner.Dashboard]](t, rec)
	assert.Equal(t, 17, dash.View.Progress)
	assert.Equal(t, "/roadmap", dash.View.NextAction.Target)
}

func TestScheduleEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t)

	rec := env.do(t, http.MethodPost, "/schedule", token, planner.ScheduleInput{Day: "Monday"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing information", decodeError(t, rec).Notice.Title)

	rec = env.do(t, http.MethodPost, "/schedule", token, planner.ScheduleInput{
		Day:       "Monday",
		StartTime: "09:00",
		EndTime:   "10:30",
		Activity:  "Study statistics",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	added := decode[struct {
		Item models.ScheduleItem `json:"item"`
	}](t, rec)
	assert.Equal(t, models.Priority("medium"), added.Item.Priority)

	rec = env.do(t, http.MethodPut, "/schedule/"+added.Item.ID, token, map[string]string{"activity": "Study probability"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/schedule", token, nil)
	view := decode[screen[planner.ScheduleView]](t, rec)
	assert.Equal(t, 1, view.View.Total)
	require.NotEmpty(t, view.View.Days[0].Items)
	assert.Equal(t, "Study probability", view.View.Days[0].Items[0].Activity)
	assert.Equal(t, "1 hr 30 min", view.View.Days[0].Items[0].Duration)

	rec = env.do(t, http.MethodDelete, "/schedule/"+added.Item.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/schedule/template", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	generated := decode[struct {
		Schedule planner.ScheduleView `json:"schedule"`
	}](t, rec)
	assert.Equal(t, 7, generated.Schedule.Total)
}

func TestChatEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t)

	rec := env.do(t, http.MethodPost, "/chatbot/messages", token, map[string]string{"text": " "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Empty message", decodeError(t, rec).Notice.Title)

	rec = env.do(t, http.MethodPost, "/chatbot/messages", token, map[string]string{"text": "How do I improve my resume?"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[struct {
		Message planner.Message `json:"message"`
		Reply   planner.Message `json:"reply"`
	}](t, rec)
	assert.Equal(t, planner.SenderUser, resp.Message.Sender)
	assert.True(t, strings.HasPrefix(resp.Reply.Text, "Here are some tips to improve your resume:"))

	rec = env.do(t, http.MethodGet, "/chatbot", token, nil)
	chat := decode[screen[planner.ChatView]](t, rec)
	assert.Len(t, chat.View.Messages, 3)
}

func TestInterviewEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t)

	rec := env.do(t, http.MethodPost, "/interview/next", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/interview/category", token, map[string]string{"category": "technical"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/interview/start", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	started := decode[interviewResponse](t, rec)
	require.NotNil(t, started.View.Question)
	assert.Contains(t, started.View.Question.Question, "your dream job")
	require.NotNil(t, started.Notice)
	assert.Equal(t, "Interview Started", started.Notice.Title)

	rec = env.do(t, http.MethodPost, "/interview/test/start", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/interview/test/answer", token, map[string]int{"option": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	answer := decode[planner.AnswerResult](t, rec)
	assert.True(t, answer.Correct)
}

func TestSignOutClearsWorkspace(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t)

	rec := env.do(t, http.MethodGet, "/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.workspaces.Len())

	rec = env.do(t, http.MethodGet, "/auth/session", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/sign-out", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 0, env.workspaces.Len())

	rec = env.do(t, http.MethodGet, "/dashboard", token, nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = env.do(t, http.MethodGet, "/auth/session", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStaleTokenBuildsNoWorkspace(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t)

	rec := env.do(t, http.MethodPost, "/auth/sign-out", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, path := range []string{"/dashboard", "/roadmap", "/schedule"} {
		rec = env.do(t, http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/auth", rec.Header().Get("Location"))
	}
	rec = env.do(t, http.MethodGet, "/events", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Equal(t, 0, env.workspaces.Len())
}

func TestSignInErrors(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t)

	rec := env.do(t, http.MethodPost, "/auth/sign-in", "", models.SignInRequest{Email: "ada@example.com", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decodeError(t, rec).Code)

	rec = env.do(t, http.MethodPost, "/auth/sign-up", "", models.SignUpRequest{Email: "ada@example.com", Password: "secret-pass"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/sign-in", "", models.SignInRequest{Email: "ada@example.com", Password: "secret-pass"})
	require.Equal(t, http.StatusOK, rec.Code)
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == TokenCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateUserRenamesProfile(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t)

	rec := env.do(t, http.MethodGet, "/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPut, "/auth/user", token, models.UpdateUserRequest{Name: "Ada Lovelace"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Eventually(t, func() bool {
		rec := env.do(t, http.MethodGet, "/dashboard", token, nil)
		var env envelope
		if json.Unmarshal(rec.Body.Bytes(), &env) != nil {
			return false
		}
		var dash screen[planner.Dashboard]
		if json.Unmarshal(env.Data, &dash) != nil {
			return false
		}
		return strings.Contains(dash.View.Welcome, "Ada Lovelace")
	}, 2*time.Second, 20*time.Millisecond)
}

func TestEventsStream(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t)

	ts := httptest.NewServer(env.handler)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	read := func() Event {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var e Event
		require.NoError(t, conn.ReadJSON(&e))
		return e
	}

	assert.Equal(t, EventConnected, read().Type)

	rec := env.do(t, http.MethodPost, "/chatbot/messages", token, map[string]string{"text": "networking tips?"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var messages int
	for messages < 2 {
		e := read()
		if e.Type == EventMessage {
			messages++
		}
	}
}

func TestEventsStreamHoldsWorkspace(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t)
	sess, err := env.auth.Authenticate(context.Background(), token)
	require.NoError(t, err)

	ts := httptest.NewServer(env.handler)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var e Event
	require.NoError(t, conn.ReadJSON(&e))
	assert.Equal(t, EventConnected, e.Type)

	// A listening client is not idle however long ago its last request was
	assert.Empty(t, env.workspaces.Idle(time.Now().Add(time.Hour)))

	// Removing the workspace ends its stream
	require.True(t, env.workspaces.Remove(sess.ID))
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		if _, _, err = conn.ReadMessage(); err != nil {
			break
		}
	}
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestEventsRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/events", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
