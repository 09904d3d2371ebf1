package repository

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"blockbridge-go/internal/docstore"
	"blockbridge-go/internal/models"
)

// fakeBinStore emulates the hosted document store: one versioned JSON
// document per handle, GET {handle}/latest and whole-document PUT.
type fakeBinStore struct {
	mu       sync.Mutex
	records  map[string]json.RawMessage
	versions map[string]int64
	server   *httptest.Server
}

func newFakeBinStore(t *testing.T) *fakeBinStore {
	t.Helper()
	f := &fakeBinStore{
		records:  make(map[string]json.RawMessage),
		versions: make(map[string]int64),
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeBinStore) handle(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/b/"), "/")
	handle := parts[0]

	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		record, ok := f.records[handle]
		if !ok {
			http.Error(w, `{"message":"bin not found"}`, http.StatusNotFound)
			return
		}
		f.writeEnvelope(w, handle, record)
	case http.MethodPut:
		var record json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
			http.Error(w, `{"message":"invalid json"}`, http.StatusBadRequest)
			return
		}
		f.records[handle] = record
		f.versions[handle]++
		f.writeEnvelope(w, handle, record)
	default:
		http.Error(w, `{"message":"method not allowed"}`, http.StatusMethodNotAllowed)
	}
}

func (f *fakeBinStore) writeEnvelope(w http.ResponseWriter, handle string, record json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"record":   record,
		"metadata": map[string]int64{"version": f.versions[handle]},
	})
}

// seed installs a document for handle at version 1.
func (f *fakeBinStore) seed(t *testing.T, handle string, doc any) {
	t.Helper()
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("seed marshal failed: %v", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[handle] = raw
	f.versions[handle] = 1
}

func testHandles() models.DocumentHandles {
	return models.DocumentHandles{
		Users:              "users-bin",
		FundingRequests:    "funding-bin",
		WithdrawalRequests: "withdrawal-bin",
		Notifications:      "notifications-bin",
		Messages:           "messages-bin",
	}
}

func newTestService(t *testing.T) (*Service, *fakeBinStore) {
	t.Helper()
	bins := newFakeBinStore(t)

	client, err := docstore.NewClient(models.DocStoreConfig{
		BaseURL:        bins.server.URL,
		MasterKey:      "test-master-key",
		RequestTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	svc, err := NewService(client, testHandles())
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc, bins
}

func testUser(id, email string) models.User {
	return models.User{
		ID:            id,
		Email:         email,
		Username:      "user-" + id,
		PasswordHash:  "$2a$10$fakehash",
		Role:          models.RoleUser,
		Tier:          1,
		AccountStatus: models.AccountActive,
		CreatedAt:     time.Now().UTC(),
	}
}
