package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/minixhq/minix-backend/internal/directory"
)

func directoryRouter(h *Handlers) *gin.Engine {
	r := gin.New()
	r.GET("/directory", h.GetDirectory)
	r.POST("/login", h.Login)
	r.GET("/users", h.ListUsers)
	return r
}

func TestLogin_Handler(t *testing.T) {
	h, _ := newHandlerFixture(t, "h_login")
	r := directoryRouter(h)

	w := doJSON(t, r, http.MethodPost, "/login", `{"username":"   "}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank username status = %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPost, "/login", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing username status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/login", `{"username":" alice "}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d body=%s", w.Code, w.Body.String())
	}
	user := decodeMap(t, w)["user"].(map[string]any)
	if user["username"] != "alice" {
		t.Fatalf("username = %v", user["username"])
	}
	firstID, _ := user["id"].(string)
	if firstID == "" {
		t.Fatalf("user id missing")
	}

	// Logging in again resolves the same account.
	w = doJSON(t, r, http.MethodPost, "/login", `{"username":"alice"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("relogin status = %d", w.Code)
	}
	if got := decodeMap(t, w)["user"].(map[string]any)["id"]; got != firstID {
		t.Fatalf("relogin id = %v, want %s", got, firstID)
	}
}

func TestGetDirectory_Handler(t *testing.T) {
	h, _ := newHandlerFixture(t, "h_directory")
	r := directoryRouter(h)

	w := doJSON(t, r, http.MethodPost, "/login", `{"username":"alice"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d", w.Code)
	}
	aliceID := decodeMap(t, w)["user"].(map[string]any)["id"].(string)

	w = doJSON(t, r, http.MethodGet, "/directory", "")
	if w.Code != http.StatusOK {
		t.Fatalf("directory status = %d", w.Code)
	}
	profiles := decodeMap(t, w)["data"].([]any)
	wantLen := len(directory.DefaultContacts()) + 1
	if len(profiles) != wantLen {
		t.Fatalf("directory = %d entries, want %d", len(profiles), wantLen)
	}
	usernames := make(map[string]bool, len(profiles))
	for _, p := range profiles {
		usernames[p.(map[string]any)["username"].(string)] = true
	}
	if !usernames["alice"] || !usernames[directory.BotUsername] {
		t.Fatalf("directory usernames = %v", usernames)
	}

	w = doJSON(t, r, http.MethodGet, "/directory?exclude_id="+aliceID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("excluded directory status = %d", w.Code)
	}
	profiles = decodeMap(t, w)["data"].([]any)
	if len(profiles) != wantLen-1 {
		t.Fatalf("excluded directory = %d entries, want %d", len(profiles), wantLen-1)
	}
	for _, p := range profiles {
		if p.(map[string]any)["id"] == aliceID {
			t.Fatalf("excluded user still listed")
		}
	}
}

func TestListUsers_Handler(t *testing.T) {
	h, _ := newHandlerFixture(t, "h_users")
	r := directoryRouter(h)

	w := doJSON(t, r, http.MethodGet, "/users", "")
	if w.Code != http.StatusOK {
		t.Fatalf("empty users status = %d", w.Code)
	}
	if users, _ := decodeMap(t, w)["users"].([]any); len(users) != 0 {
		t.Fatalf("users = %d, want 0", len(users))
	}

	for _, name := range []string{"alice", "bob"} {
		w = doJSON(t, r, http.MethodPost, "/login", `{"username":"`+name+`"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("login %s status = %d", name, w.Code)
		}
	}

	w = doJSON(t, r, http.MethodGet, "/users", "")
	if w.Code != http.StatusOK {
		t.Fatalf("users status = %d", w.Code)
	}
	users := decodeMap(t, w)["users"].([]any)
	if len(users) != 2 {
		t.Fatalf("users = %d, want 2", len(users))
	}
}
