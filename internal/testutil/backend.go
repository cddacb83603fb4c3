package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/artmixer/atelier/internal/domain"
)

// Submission records the multipart fields of one POST /transfer.
type Submission struct {
	JobID         string
	ContentImage  []byte
	StyleImage    []byte
	StyleWeight   string
	ContentWeight string
	NumSteps      string
	LayerWeights  string
}

// Backend is an in-memory fake of the remote style-transfer service,
// faithful to its wire shapes: bearer auth, {detail} error bodies,
// {requests}/{users} envelopes, scripted job status sequences.
type Backend struct {
	srv *httptest.Server

	mu sync.Mutex

	// MasterPassword unlocks the admin tier via master login.
	MasterPassword string
	// Users maps email to password for regular logins.
	Users map[string]string

	Requests []domain.PermissionRequest
	Gallery  []domain.GalleryItem

	// JobScripts maps job id to the sequence of status payloads the
	// backend serves; the final entry repeats once exhausted.
	JobScripts map[string][]domain.Job

	Submissions []Submission

	tokens    map[string]bool // token -> isMaster
	jobCursor map[string]int
	// StatusCalls counts GET /transfer/{id} hits per job id.
	StatusCalls map[string]int

	statusGates map[string]chan struct{}
}

// NewBackend starts a fake service. The returned backend is safe for
// concurrent use; the server is torn down via t.Cleanup.
func NewBackend(t TestingTB) *Backend {
	t.Helper()

	b := &Backend{
		MasterPassword: "master-secret",
		Users:          map[string]string{},
		JobScripts:     map[string][]domain.Job{},
		tokens:         map[string]bool{},
		jobCursor:      map[string]int{},
		StatusCalls:    map[string]int{},
		statusGates:    map[string]chan struct{}{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", b.handleLogin)
	mux.HandleFunc("POST /auth/requests", b.handleCreateRequest)
	mux.HandleFunc("GET /auth/requests", b.admin(b.handleListRequests))
	mux.HandleFunc("POST /auth/requests/{id}/approve", b.admin(b.handleApprove))
	mux.HandleFunc("POST /auth/requests/{id}/reject", b.admin(b.handleReject))
	mux.HandleFunc("DELETE /auth/requests/{id}", b.admin(b.handleDeleteRequest))
	mux.HandleFunc("GET /auth/users", b.admin(b.handleListUsers))
	mux.HandleFunc("POST /auth/users", b.admin(b.handleCreateUser))
	mux.HandleFunc("DELETE /auth/users/{email}", b.admin(b.handleDeleteUser))
	mux.HandleFunc("POST /transfer", b.authed(b.handleSubmit))
	mux.HandleFunc("GET /transfer/{id}", b.handleStatus)
	mux.HandleFunc("GET /gallery", b.handleGallery)
	mux.HandleFunc("GET /gallery/{id}", b.handleGalleryItem)
	mux.HandleFunc("DELETE /gallery/{id}", b.authed(b.handleDeleteGalleryItem))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

// URL is the backend base URL (no trailing slash).
func (b *Backend) URL() string { return b.srv.URL }

// Close shuts the server down early (before test cleanup).
func (b *Backend) Close() { b.srv.Close() }

// IssueToken mints a valid bearer token directly, bypassing login.
func (b *Backend) IssueToken(isMaster bool) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	tok := "tok-" + uuid.NewString()
	b.tokens[tok] = isMaster
	return tok
}

// RevokeToken invalidates a previously issued token so subsequent
// calls carrying it are rejected.
func (b *Backend) RevokeToken(tok string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tokens, tok)
}

// GateStatus makes GET /transfer/{jobID} block, after recording the
// hit, until the returned release function is called. Handlers also
// unblock when the caller abandons the request. Used to hold a status
// check in flight across a cancellation.
func (b *Backend) GateStatus(jobID string) (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.statusGates[jobID] = gate
	b.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// StatusCallCount reports how many status checks jobID has received.
func (b *Backend) StatusCallCount(jobID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.StatusCalls[jobID]
}

// LastSubmission returns the most recent recorded submission.
func (b *Backend) LastSubmission() (Submission, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.Submissions) == 0 {
		return Submission{}, false
	}
	return b.Submissions[len(b.Submissions)-1], true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func (b *Backend) bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	tok := strings.TrimPrefix(h, "Bearer ")
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.tokens[tok]
	return tok, ok
}

func (b *Backend) isMaster(r *http.Request) bool {
	h := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokens[h]
}

func (b *Backend) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := b.bearer(r); !ok {
			writeDetail(w, http.StatusUnauthorized, "Invalid authentication credentials")
			return
		}
		next(w, r)
	}
}

func (b *Backend) admin(next http.HandlerFunc) http.HandlerFunc {
	return b.authed(func(w http.ResponseWriter, r *http.Request) {
		if !b.isMaster(r) {
			writeDetail(w, http.StatusUnauthorized, "Master access required")
			return
		}
		next(w, r)
	})
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password       string `json:"password"`
		Email          string `json:"email"`
		MasterPassword string `json:"master_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch {
	case body.MasterPassword != "":
		if body.MasterPassword != b.MasterPassword {
			writeDetail(w, http.StatusUnauthorized, "Invalid master password")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": b.IssueToken(true),
			"token_type":   "bearer",
			"is_master":    true,
		})
	default:
		b.mu.Lock()
		pw, ok := b.Users[body.Email]
		b.mu.Unlock()
		if !ok || pw != body.Password {
			writeDetail(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": b.IssueToken(false),
			"token_type":   "bearer",
			"is_master":    false,
			"email":        body.Email,
		})
	}
}

func (b *Backend) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name   string `json:"name"`
		Email  string `json:"email"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req := domain.PermissionRequest{
		ID:     uuid.NewString(),
		Name:   body.Name,
		Email:  body.Email,
		Reason: body.Reason,
		Status: domain.RequestStatusPending,
	}
	b.mu.Lock()
	b.Requests = append(b.Requests, req)
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"request_id": req.ID,
		"status":     string(req.Status),
	})
}

func (b *Backend) handleListRequests(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	reqs := append([]domain.PermissionRequest(nil), b.Requests...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"requests": reqs})
}

func (b *Backend) setRequestStatus(id string, status domain.RequestStatus, reason string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.Requests {
		if b.Requests[i].ID == id {
			b.Requests[i].Status = status
			b.Requests[i].RejectionReason = reason
			return true
		}
	}
	return false
}

func (b *Backend) handleApprove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !b.setRequestStatus(id, domain.RequestStatusApproved, "") {
		writeDetail(w, http.StatusNotFound, "Request not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

func (b *Backend) handleReject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	id := r.PathValue("id")
	if !b.setRequestStatus(id, domain.RequestStatusRejected, body.Reason) {
		writeDetail(w, http.StatusNotFound, "Request not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (b *Backend) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b.mu.Lock()
	kept := b.Requests[:0]
	for _, req := range b.Requests {
		if req.ID != id {
			kept = append(kept, req)
		}
	}
	b.Requests = kept
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (b *Backend) handleListUsers(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	users := make([]domain.User, 0, len(b.Users))
	for email := range b.Users {
		users = append(users, domain.User{Email: email})
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (b *Backend) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b.mu.Lock()
	_, exists := b.Users[body.Email]
	if !exists {
		b.Users[body.Email] = body.Password
	}
	b.mu.Unlock()

	if exists {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("User with email %s already exists", body.Email))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "created"})
}

func (b *Backend) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")
	b.mu.Lock()
	delete(b.Users, email)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (b *Backend) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	readFile := func(field string) []byte {
		f, _, err := r.FormFile(field)
		if err != nil {
			return nil
		}
		defer f.Close() //nolint:errcheck // test fake
		data, _ := io.ReadAll(f)
		return data
	}

	jobID := uuid.NewString()
	sub := Submission{
		JobID:         jobID,
		ContentImage:  readFile("content_image"),
		StyleImage:    readFile("style_image"),
		StyleWeight:   r.FormValue("style_weight"),
		ContentWeight: r.FormValue("content_weight"),
		NumSteps:      r.FormValue("num_steps"),
		LayerWeights:  r.FormValue("layer_weights"),
	}

	b.mu.Lock()
	b.Submissions = append(b.Submissions, sub)
	if _, ok := b.JobScripts[jobID]; !ok {
		if _, hasNext := b.JobScripts["__next__"]; !hasNext {
			// Unscripted jobs sit in pending forever.
			b.JobScripts[jobID] = []domain.Job{{ID: jobID, Status: domain.JobStatusPending}}
		}
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"job_id": jobID,
		"status": "pending",
	})
}

// ScriptNextJob pre-registers the status sequence the next submitted
// job will serve. The backend rewrites the script's job ids to the
// actual id it mints.
func (b *Backend) ScriptNextJob(statuses ...domain.Job) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.JobScripts["__next__"] = statuses
}

func (b *Backend) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	b.mu.Lock()
	script, ok := b.JobScripts[id]
	if !ok {
		// A pre-registered script adopts the first id asked about.
		if next, hasNext := b.JobScripts["__next__"]; hasNext {
			script, ok = next, true
			b.JobScripts[id] = next
			delete(b.JobScripts, "__next__")
		}
	}
	if !ok {
		b.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Job not found"})
		return
	}

	b.StatusCalls[id]++
	cursor := b.jobCursor[id]
	if cursor >= len(script) {
		cursor = len(script) - 1
	} else {
		b.jobCursor[id] = cursor + 1
	}
	job := script[cursor]
	gate := b.statusGates[id]
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	job.ID = id
	writeJSON(w, http.StatusOK, job)
}

func (b *Backend) handleGallery(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	items := append([]domain.GalleryItem(nil), b.Gallery...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, items)
}

func (b *Backend) handleGalleryItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, item := range b.Gallery {
		if item.ID == id {
			writeJSON(w, http.StatusOK, item)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Item not found"})
}

func (b *Backend) handleDeleteGalleryItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, item := range b.Gallery {
		if item.ID == id {
			b.Gallery = append(b.Gallery[:i], b.Gallery[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Item not found"})
}
