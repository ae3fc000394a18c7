package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/community-blog-api/internal/api"
	"github.com/community-blog-api/internal/config"
	"github.com/community-blog-api/internal/content"
	"github.com/community-blog-api/internal/mocks"
	"github.com/community-blog-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type testServer struct {
	router     *gin.Engine
	store      *mocks.Store
	dispatcher *mocks.MockDispatcher
}

func setupTestRouter() *testServer {
	gin.SetMode(gin.TestMode)

	repos, store := mocks.NewRepositories()
	cfg := &config.Config{
		Server: config.ServerConfig{Port: "8080"},
		Content: config.ContentConfig{
			AllowedTags:   config.DefaultAllowedTags,
			AllowedAttrs:  config.DefaultAllowedAttrs,
			PreviewLength: 1000,
			DefaultFormat: "html",
			MaxTags:       20,
		},
		Feed: config.FeedConfig{ExportLimit: 50},
	}
	dispatcher := mocks.NewMockDispatcher()

	log := zerolog.Nop()
	services := service.NewServices(repos, content.New(cfg.Content), dispatcher, &mocks.MockPinger{}, cfg, log)

	return &testServer{
		router:     api.NewRouter(services, cfg, log),
		store:      store,
		dispatcher: dispatcher,
	}
}

func (s *testServer) do(method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Invalid JSON response %q: %v", w.Body.String(), err)
	}
	return response
}

func (s *testServer) createUser(t *testing.T, name string) string {
	t.Helper()
	w := s.do("POST", "/v1/users", "", map[string]string{"name": name, "email": name + "@test.com"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	return decode(t, w)["id"].(string)
}

func (s *testServer) createPost(t *testing.T, userID, text string) string {
	t.Helper()
	w := s.do("POST", "/v1/posts", userID, map[string]interface{}{"type": 0, "title": "Post", "text": text})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	return decode(t, w)["id"].(string)
}

func TestHealthEndpoint(t *testing.T) {
	s := setupTestRouter()

	w := s.do("GET", "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	response := decode(t, w)
	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if response["service"] != "community-blog-api" {
		t.Errorf("Expected service name, got %v", response["service"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestRouter()
	alice := s.createUser(t, "alice")
	s.createPost(t, alice, "hello")

	w := s.do("GET", "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	db := decode(t, w)["database"].(map[string]interface{})
	if db["users"].(float64) != 1 {
		t.Errorf("Expected 1 user, got %v", db["users"])
	}
	if db["posts"].(float64) != 1 {
		t.Errorf("Expected 1 post, got %v", db["posts"])
	}
}

func TestActingUserRequired(t *testing.T) {
	s := setupTestRouter()

	w := s.do("POST", "/v1/posts", "", map[string]interface{}{"title": "x"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}

	w = s.do("POST", "/v1/posts", "not-a-uuid", map[string]interface{}{"title": "x"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestCreatePostValidation(t *testing.T) {
	s := setupTestRouter()
	alice := s.createUser(t, "alice")

	w := s.do("POST", "/v1/posts", alice, map[string]interface{}{"type": 1, "title": "Link", "text": "see"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", w.Code)
	}
	if field := decode(t, w)["field"]; field != "addition" {
		t.Errorf("Expected field 'addition', got %v", field)
	}

	req := httptest.NewRequest("POST", "/v1/posts", strings.NewReader("{broken"))
	req.Header.Set("X-User-ID", alice)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestPostNotFound(t *testing.T) {
	s := setupTestRouter()

	w := s.do("GET", "/v1/posts/00000000-0000-0000-0000-000000000000", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	if code := decode(t, w)["code"]; code != "post_not_found" {
		t.Errorf("Expected code 'post_not_found', got %v", code)
	}
}

func TestCommentThread(t *testing.T) {
	s := setupTestRouter()
	alice := s.createUser(t, "alice")
	postID := s.createPost(t, alice, "hello")

	w := s.do("GET", "/v1/posts/"+postID+"/comments", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if comments := decode(t, w)["comments"].([]interface{}); len(comments) != 0 {
		t.Errorf("Expected empty thread, got %d comments", len(comments))
	}

	w = s.do("POST", "/v1/posts/"+postID+"/comments", alice, map[string]string{"text": "first"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	first := decode(t, w)["id"].(string)

	w = s.do("POST", "/v1/posts/"+postID+"/comments", alice, map[string]string{"text": "reply", "parent_id": first})
	reply := decode(t, w)
	if reply["margin"].(float64) != 20 {
		t.Errorf("Expected margin 20, got %v", reply["margin"])
	}

	w = s.do("GET", "/v1/posts/"+postID+"/comments", "", nil)
	comments := decode(t, w)["comments"].([]interface{})
	if len(comments) != 2 {
		t.Fatalf("Expected 2 comments, got %d", len(comments))
	}
	if comments[0].(map[string]interface{})["id"] != first {
		t.Error("Parent should come before its reply")
	}
}

func TestRateEndpoint(t *testing.T) {
	s := setupTestRouter()
	alice := s.createUser(t, "alice")
	bob := s.createUser(t, "bob")
	postID := s.createPost(t, alice, "hello")

	w := s.do("POST", "/v1/rates/post/"+postID, alice, map[string]int{"delta": 1})
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403 for self-rating, got %d", w.Code)
	}

	w = s.do("GET", "/v1/rates/post/"+postID, bob, nil)
	if w.Code != http.StatusOK || decode(t, w)["rated"] != false {
		t.Errorf("Expected not rated yet, got %d: %s", w.Code, w.Body.String())
	}

	w = s.do("POST", "/v1/rates/post/"+postID, bob, map[string]int{"delta": 1})
	if w.Code != http.StatusOK || decode(t, w)["applied"] != true {
		t.Errorf("Expected applied rating, got %d: %s", w.Code, w.Body.String())
	}

	w = s.do("POST", "/v1/rates/post/"+postID, bob, map[string]int{"delta": 1})
	if w.Code != http.StatusOK || decode(t, w)["applied"] != false {
		t.Errorf("Expected repeated rating to be a no-op, got %d: %s", w.Code, w.Body.String())
	}

	w = s.do("GET", "/v1/rates/post/"+postID, bob, nil)
	if w.Code != http.StatusOK || decode(t, w)["rated"] != true {
		t.Errorf("Expected rated, got %d: %s", w.Code, w.Body.String())
	}

	w = s.do("POST", "/v1/rates/planet/"+postID, bob, map[string]int{"delta": 1})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422 for unknown kind, got %d", w.Code)
	}
}

func TestPostOptions(t *testing.T) {
	s := setupTestRouter()
	alice := s.createUser(t, "alice")
	bob := s.createUser(t, "bob")
	postID := s.createPost(t, alice, "hello")

	w := s.do("PUT", "/v1/posts/"+postID+"/options", bob, map[string]bool{"disable_reply": true})
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403 for another user, got %d", w.Code)
	}

	w = s.do("PUT", "/v1/posts/"+postID+"/options", alice, map[string]bool{"disable_reply": true})
	if w.Code != http.StatusOK || decode(t, w)["disable_reply"] != true {
		t.Fatalf("Expected replies disabled, got %d: %s", w.Code, w.Body.String())
	}

	w = s.do("POST", "/v1/posts/"+postID+"/comments", bob, map[string]string{"text": "late"})
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403 when replies are disabled, got %d", w.Code)
	}
}

func TestDrafts(t *testing.T) {
	s := setupTestRouter()
	alice := s.createUser(t, "alice")
	bob := s.createUser(t, "bob")

	w := s.do("POST", "/v1/drafts", alice, map[string]interface{}{"type": 3})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422 for a poll draft, got %d", w.Code)
	}

	w = s.do("POST", "/v1/drafts", alice, map[string]interface{}{"type": 0, "text": "later"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	draft := decode(t, w)
	draftID := draft["id"].(string)
	if draft["title"] != "Unnamed post" {
		t.Errorf("Expected default title, got %v", draft["title"])
	}

	w = s.do("PUT", "/v1/drafts/"+draftID, alice, map[string]interface{}{"title": "Done", "text": "now"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	w = s.do("GET", "/v1/drafts/"+draftID, bob, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for another user's draft, got %d", w.Code)
	}

	w = s.do("GET", "/v1/drafts", alice, nil)
	if drafts := decode(t, w)["drafts"].([]interface{}); len(drafts) != 1 {
		t.Errorf("Expected 1 draft, got %d", len(drafts))
	}

	w = s.do("POST", "/v1/drafts/"+draftID+"/publish", alice, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if post := decode(t, w); post["title"] != "Done" || post["text"] != "now" {
		t.Errorf("Unexpected published post: %v", post)
	}

	w = s.do("DELETE", "/v1/drafts/"+draftID, alice, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 after publish, got %d", w.Code)
	}
}

func TestPollVoting(t *testing.T) {
	s := setupTestRouter()
	alice := s.createUser(t, "alice")
	bob := s.createUser(t, "bob")

	w := s.do("POST", "/v1/polls", alice, map[string]interface{}{"type": 3, "title": "Pick", "answers": `["A","B"]`})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	pollID := decode(t, w)["id"].(string)

	w = s.do("GET", "/v1/posts/"+pollID+"/content?kind=0", "", nil)
	body := decode(t, w)
	if body["type"] != "choice" {
		t.Fatalf("Expected choice content, got %v", body["type"])
	}
	answers := body["answers"].([]interface{})
	answerA := answers[0].(map[string]interface{})["id"].(string)

	w = s.do("POST", "/v1/posts/"+pollID+"/votes", bob, map[string][]string{"answer_ids": {answerA}})
	if w.Code != http.StatusOK || decode(t, w)["voted"] != true {
		t.Errorf("Expected vote to succeed, got %d: %s", w.Code, w.Body.String())
	}

	w = s.do("GET", "/v1/posts/"+pollID+"/vote", bob, nil)
	if decode(t, w)["can_vote"] != false {
		t.Error("Voter should be locked out")
	}

	w = s.do("POST", "/v1/posts/"+pollID+"/votes", bob, map[string][]string{"answer_ids": {answerA}})
	if decode(t, w)["voted"] != false {
		t.Error("Second vote should be refused")
	}

	w = s.do("GET", "/v1/posts/"+pollID+"/answers", "", nil)
	results := decode(t, w)["answers"].([]interface{})
	if results[0].(map[string]interface{})["count"].(float64) != 1 {
		t.Errorf("Expected count 1, got %v", results[0])
	}

	w = s.do("PUT", "/v1/posts/"+pollID, alice, map[string]string{"title": "x", "text": "y"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected polls to be uneditable, got %d", w.Code)
	}
}

func TestMessages(t *testing.T) {
	s := setupTestRouter()
	alice := s.createUser(t, "alice")
	bob := s.createUser(t, "bob")

	w := s.do("POST", "/v1/messages", alice, map[string]string{"recipient_id": bob, "title": "Hi", "text": "hello"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	msgID := decode(t, w)["id"].(string)

	w = s.do("DELETE", "/v1/messages/"+msgID, alice, nil)
	if decode(t, w)["deleted"].(float64) != 1 {
		t.Errorf("Expected deleted 1, got %s", w.Body.String())
	}

	w = s.do("GET", "/v1/messages/inbox", bob, nil)
	if len(decode(t, w)["messages"].([]interface{})) != 1 {
		t.Error("Recipient should still see the message")
	}

	w = s.do("DELETE", "/v1/messages/"+msgID, bob, nil)
	if decode(t, w)["purged"] != true {
		t.Errorf("Expected purge, got %s", w.Body.String())
	}
	if len(s.store.Messages) != 0 {
		t.Errorf("Expected message row to be removed, got %d", len(s.store.Messages))
	}
}

func TestFavouriteToggle(t *testing.T) {
	s := setupTestRouter()
	alice := s.createUser(t, "alice")
	postID := s.createPost(t, alice, "hello")

	w := s.do("POST", "/v1/posts/"+postID+"/favourite", alice, nil)
	if decode(t, w)["added"] != true {
		t.Errorf("Expected favourite to be added, got %s", w.Body.String())
	}

	w = s.do("GET", "/v1/posts?filter=favourite&param="+alice, "", nil)
	if decode(t, w)["count"].(float64) != 1 {
		t.Errorf("Expected 1 favourite, got %s", w.Body.String())
	}

	w = s.do("POST", "/v1/posts/"+postID+"/favourite", alice, nil)
	if decode(t, w)["added"] != false {
		t.Errorf("Expected favourite to be removed, got %s", w.Body.String())
	}
}

func TestMentionNotifies(t *testing.T) {
	s := setupTestRouter()
	alice := s.createUser(t, "alice")
	s.createUser(t, "bob")

	s.createPost(t, alice, "hey @bob")

	if len(s.dispatcher.Mentions) != 1 {
		t.Errorf("Expected 1 mention, got %d", len(s.dispatcher.Mentions))
	}
}

func TestFeedStream(t *testing.T) {
	s := setupTestRouter()
	alice := s.createUser(t, "alice")
	s.createPost(t, alice, "one")
	s.createPost(t, alice, "two")

	w := s.do("GET", "/v1/feed", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Errorf("Expected NDJSON content type, got %s", ct)
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 {
		t.Errorf("Expected 2 lines, got %d", len(lines))
	}

	w = s.do("GET", "/v1/feed?format=csv", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}
