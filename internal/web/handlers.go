package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"uismith/internal/blob"
	"uismith/internal/pipeline"
	"uismith/internal/preview"
	"uismith/internal/sandbox"
	"uismith/internal/store"
)

// Handlers is the HTTP surface. Generation runs synchronously inside the
// request; the preview push afterwards is best-effort.
type Handlers struct {
	repo      store.Repository
	sessions  *sessions.CookieStore
	generator Generator
	bridge    *preview.Bridge
	template  sandbox.TemplateSource

	// Snapshots, when set, archives every revision's code to object storage
	// under snapshots/{componentID}/{revisionID}.tsx. Best-effort.
	Snapshots blob.Store
}

func NewHandlers(repo store.Repository, sessionStore *sessions.CookieStore, gen Generator, bridge *preview.Bridge, template sandbox.TemplateSource) *Handlers {
	return &Handlers{
		repo:      repo,
		sessions:  sessionStore,
		generator: gen,
		bridge:    bridge,
		template:  template,
	}
}

func (h *Handlers) Routes() http.Handler {
	r := chi.NewRouter()

	r.Post("/api/signup", h.handleSignup)
	r.Post("/api/signin", h.handleSignin)
	r.Post("/api/signout", h.handleSignout)
	r.Get("/api/me", h.handleMe)

	r.Get("/api/components", h.handleListComponents)
	r.Post("/api/components", h.handleCreateComponent)
	r.Get("/api/components/{componentID}", h.handleGetComponent)
	r.Post("/api/components/{componentID}/modify", h.handleModifyComponent)
	r.Put("/api/components/{componentID}/code", h.handleSaveCode)
	r.Get("/api/components/{componentID}/revisions", h.handleListRevisions)

	r.Get("/api/settings/apikey", h.handleGetAPIKey)
	r.Put("/api/settings/apikey", h.handleSetAPIKey)

	r.Get("/template.zip", h.handleTemplate)
	if h.bridge != nil {
		r.Get("/ws/preview", preview.StatusFeed(h.bridge))
	}

	return cors(r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeFieldError reports a validation failure the client renders inline.
// Status stays 200: the request itself was well-formed.
func writeFieldError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, map[string]string{"error": msg})
}

type userJSON struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type componentJSON struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Prompt      string    `json:"prompt"`
	Code        string    `json:"code"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toComponentJSON(c store.Component) componentJSON {
	return componentJSON{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Prompt:      c.Prompt,
		Code:        c.Code,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(body.Email)
	if !strings.Contains(email, "@") {
		writeFieldError(w, "a valid email is required")
		return
	}
	if len(body.Password) < 8 {
		writeFieldError(w, "password must be at least 8 characters")
		return
	}
	hash, err := hashPassword(body.Password)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	u, err := h.repo.CreateUser(r.Context(), email, hash)
	if errors.Is(err, store.ErrDuplicate) {
		writeFieldError(w, "a user already exists with this email")
		return
	}
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := h.signInSession(w, r, u.ID); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": userJSON{ID: u.ID, Email: u.Email}})
}

func (h *Handlers) handleSignin(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	u, err := h.repo.UserByEmail(r.Context(), body.Email)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !checkPassword(u.PasswordHash, body.Password)) {
		writeFieldError(w, "invalid email or password")
		return
	}
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := h.signInSession(w, r, u.ID); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": userJSON{ID: u.ID, Email: u.Email}})
}

func (h *Handlers) handleSignout(w http.ResponseWriter, r *http.Request) {
	_ = h.signOutSession(w, r)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": userJSON{ID: u.ID, Email: u.Email}})
}

func (h *Handlers) handleListComponents(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	list, err := h.repo.ListComponents(r.Context(), u.ID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	out := make([]componentJSON, 0, len(list))
	for _, c := range list {
		out = append(out, toComponentJSON(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"components": out})
}

type promptBody struct {
	Prompt string `json:"prompt"`
}

func (h *Handlers) handleCreateComponent(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var body promptBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.Prompt) == "" {
		writeFieldError(w, "a prompt is required")
		return
	}
	if u.APIKey == "" {
		writeFieldError(w, "set your API key in settings first")
		return
	}

	artifact, err := h.generator.Generate(r.Context(), u.APIKey, pipeline.GenerationRequest{
		Prompt: body.Prompt,
	})
	if err != nil {
		h.writeGenerationError(w, err)
		return
	}

	c, err := h.repo.CreateComponent(r.Context(), store.Component{
		UserID:      u.ID,
		Name:        artifact.Name,
		Description: artifact.Description,
		Prompt:      artifact.Prompt,
		Code:        artifact.Code,
	})
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if _, err := h.recordRevision(r, c.ID, artifact.Prompt, artifact.Code); err != nil {
		log.Printf("web: record revision for %s: %v", c.ID, err)
	}
	h.pushPreview(r, artifact.Code)
	writeJSON(w, http.StatusOK, map[string]any{"component": toComponentJSON(c)})
}

func (h *Handlers) handleGetComponent(w http.ResponseWriter, r *http.Request) {
	c, ok := h.ownedComponent(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"component": toComponentJSON(c)})
}

func (h *Handlers) handleModifyComponent(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	c, ok := h.ownedComponentFor(w, r, u)
	if !ok {
		return
	}
	var body promptBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.Prompt) == "" {
		writeFieldError(w, "a prompt is required")
		return
	}
	if u.APIKey == "" {
		writeFieldError(w, "set your API key in settings first")
		return
	}

	artifact, err := h.generator.Generate(r.Context(), u.APIKey, pipeline.GenerationRequest{
		Prompt: body.Prompt,
		Existing: &pipeline.ExistingComponent{
			Name:        c.Name,
			Description: c.Description,
			Code:        c.Code,
		},
	})
	if err != nil {
		h.writeGenerationError(w, err)
		return
	}

	if _, err := h.recordRevision(r, c.ID, artifact.Prompt, artifact.Code); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	updated, err := h.repo.GetComponent(r.Context(), c.ID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.pushPreview(r, artifact.Code)
	writeJSON(w, http.StatusOK, map[string]any{"component": toComponentJSON(updated)})
}

type codeBody struct {
	Code string `json:"code"`
}

func (h *Handlers) handleSaveCode(w http.ResponseWriter, r *http.Request) {
	c, ok := h.ownedComponent(w, r)
	if !ok {
		return
	}
	var body codeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.Code) == "" {
		writeFieldError(w, "code must not be empty")
		return
	}
	if _, err := h.recordRevision(r, c.ID, "manual edit", body.Code); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	updated, err := h.repo.GetComponent(r.Context(), c.ID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.pushPreview(r, body.Code)
	writeJSON(w, http.StatusOK, map[string]any{"component": toComponentJSON(updated)})
}

func (h *Handlers) handleListRevisions(w http.ResponseWriter, r *http.Request) {
	c, ok := h.ownedComponent(w, r)
	if !ok {
		return
	}
	revs, err := h.repo.ListRevisions(r.Context(), c.ID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	type revisionJSON struct {
		ID        string    `json:"id"`
		Prompt    string    `json:"prompt"`
		Code      string    `json:"code"`
		CreatedAt time.Time `json:"createdAt"`
	}
	out := make([]revisionJSON, 0, len(revs))
	for _, rev := range revs {
		out = append(out, revisionJSON{ID: rev.ID, Prompt: rev.Prompt, Code: rev.Code, CreatedAt: rev.CreatedAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{"revisions": out})
}

func (h *Handlers) handleGetAPIKey(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	// The key itself is never sent back.
	writeJSON(w, http.StatusOK, map[string]bool{"set": u.APIKey != ""})
}

type apiKeyBody struct {
	APIKey string `json:"apiKey"`
}

func (h *Handlers) handleSetAPIKey(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var body apiKeyBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.APIKey) == "" {
		writeFieldError(w, "an API key is required")
		return
	}
	if err := h.repo.SetAPIKey(r.Context(), u.ID, strings.TrimSpace(body.APIKey)); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) handleTemplate(w http.ResponseWriter, r *http.Request) {
	if h.template == nil {
		http.NotFound(w, r)
		return
	}
	archive, err := h.template(r.Context())
	if err != nil {
		http.Error(w, "template unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	_, _ = w.Write(archive)
}

// ownedComponent authenticates and loads the path component, enforcing
// ownership. Foreign components read as 404, not 403.
func (h *Handlers) ownedComponent(w http.ResponseWriter, r *http.Request) (store.Component, bool) {
	u, ok := h.currentUser(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return store.Component{}, false
	}
	return h.ownedComponentFor(w, r, u)
}

func (h *Handlers) ownedComponentFor(w http.ResponseWriter, r *http.Request, u store.User) (store.Component, bool) {
	id := chi.URLParam(r, "componentID")
	c, err := h.repo.GetComponent(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && c.UserID != u.ID) {
		http.Error(w, "not found", http.StatusNotFound)
		return store.Component{}, false
	}
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return store.Component{}, false
	}
	return c, true
}

// writeGenerationError logs the stage-level detail and hands the client one
// generic message: pipeline internals (stage names, model output problems)
// are diagnostics, not something the user can act on.
func (h *Handlers) writeGenerationError(w http.ResponseWriter, err error) {
	log.Printf("web: generation failed: %v", err)
	if errors.Is(err, pipeline.ErrPipelineInput) || errors.Is(err, pipeline.ErrEmptyModelOutput) {
		writeFieldError(w, "component generation failed, please try again")
		return
	}
	http.Error(w, "generation failed", http.StatusBadGateway)
}

// recordRevision appends to history and archives the code to object storage
// when a snapshot store is configured. Archive failures only log: history in
// the database is the source of truth.
func (h *Handlers) recordRevision(r *http.Request, componentID, prompt, code string) (store.Revision, error) {
	rev, err := h.repo.AppendRevision(r.Context(), componentID, prompt, code)
	if err != nil {
		return rev, err
	}
	if h.Snapshots != nil {
		key := fmt.Sprintf("snapshots/%s/%s.tsx", componentID, rev.ID)
		if err := h.Snapshots.Put(r.Context(), key, []byte(code)); err != nil {
			log.Printf("web: archive revision %s: %v", rev.ID, err)
		}
	}
	return rev, nil
}

func (h *Handlers) pushPreview(r *http.Request, code string) {
	if h.bridge == nil {
		return
	}
	if err := h.bridge.Push(r.Context(), code); err != nil {
		log.Printf("web: preview push: %v", err)
	}
}
