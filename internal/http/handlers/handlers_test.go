package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/minixhq/minix-backend/internal/directory"
	"github.com/minixhq/minix-backend/internal/repo"
	"github.com/minixhq/minix-backend/internal/services"
)

// newHandlerFixture wires real services over a fresh in-memory database.
// Each test passes a unique name so shared-cache connections do not collide.
func newHandlerFixture(t *testing.T, name string) (*Handlers, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:" + name + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	dirSvc := services.NewDirectoryService(db, directory.DefaultContacts())
	dmSvc := services.NewDMService(db, dirSvc)
	mediaSvc := services.NewMediaService(db)
	tlSvc := services.NewTimelineService(db, dirSvc)
	return New(dmSvc, dirSvc, mediaSvc, tlSvc), db
}

// registerUsers logs in each username and returns name -> id. Posting and
// commenting require existing accounts.
func registerUsers(t *testing.T, h *Handlers, names ...string) map[string]string {
	t.Helper()
	ids := make(map[string]string, len(names))
	for _, name := range names {
		u, err := h.dirSvc.FindOrCreateByUsername(context.Background(), name)
		if err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
		ids[name] = u.ID
	}
	return ids
}

// doJSON performs a request against a bare engine with an optional JSON body
// and extra headers given as alternating name/value pairs.
func doJSON(t *testing.T, r *gin.Engine, method, path, body string, kv ...string) *httptest.ResponseRecorder {
	t.Helper()
	if len(kv)%2 != 0 {
		t.Fatalf("doJSON: odd header list")
	}
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i < len(kv); i += 2 {
		req.Header.Set(kv[i], kv[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decodeMap unmarshals a JSON object response body.
func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return out
}
