package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/sanketpal/filevault"
)

// AuthService handles account registration and credential verification.
type AuthService interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (string, error)
}

// FileService handles the authenticated file operations.
type FileService interface {
	Upload(ctx context.Context, identity string, obj filevault.UploadObject, content io.Reader) (filevault.FileRecord, error)
	Download(ctx context.Context, identity, fileIdentifier string) (filevault.FileRecord, io.ReadSeekCloser, error)
	Delete(ctx context.Context, identity, fileIdentifier string) error
	GetMetadata(ctx context.Context, identity, fileIdentifier string) (filevault.FileRecord, error)
	ListOwned(ctx context.Context, identity string) ([]string, error)
}

type CORSConfig struct {
	Enabled          bool
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

type HandlerConfig struct {
	MaxUploadSize int64
	CORS          CORSConfig
}

const defaultMaxUploadSize = 32 << 20 // 32 MiB

// Handler provides the HTTP handlers for the filevault API.
type Handler struct {
	config   HandlerConfig
	auth     AuthService
	files    FileService
	verifier TokenVerifier
	validate *validator.Validate
}

// NewHandler creates a new Handler with the given configuration and services.
func NewHandler(config *HandlerConfig, auth AuthService, files FileService, verifier TokenVerifier) *Handler {
	cfg := *config
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = defaultMaxUploadSize
	}
	return &Handler{
		config:   cfg,
		auth:     auth,
		files:    files,
		verifier: verifier,
		validate: validator.New(),
	}
}

// Router returns an http.Handler with all routes configured. The /users
// routes are public; everything under /data requires a bearer token.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Route("/users", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
	})

	r.Route("/data", func(r chi.Router) {
		r.Use(BearerAuth(h.verifier))
		r.Get("/get_identity", h.handleGetIdentity)
		r.Post("/file", h.handleUpload)
		r.Get("/file/{fileIdentifier}", h.handleDownload)
		r.Delete("/file/{fileIdentifier}", h.handleDelete)
		r.Get("/user_file", h.handleListOwned)
		r.Get("/metadata/{fileIdentifier}", h.handleMetadata)
	})

	return r
}

type credentialsPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) decodeCredentials(r *http.Request) (credentialsPayload, error) {
	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return credentialsPayload{}, fmt.Errorf("%w: malformed JSON body", filevault.ErrInvalidInput)
	}
	if err := h.validate.Struct(payload); err != nil {
		return credentialsPayload{}, fmt.Errorf("%w: username and password are required", filevault.ErrInvalidInput)
	}
	return payload, nil
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	payload, err := h.decodeCredentials(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	if err := h.auth.Register(r.Context(), payload.Username, payload.Password); err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, map[string]string{"message": "user registered"})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	payload, err := h.decodeCredentials(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	token, err := h.auth.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]string{"jwt_token": token})
}

func (h *Handler) handleGetIdentity(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintf(w, "Logged in as %s", id)
}

// reserved multipart form fields; everything else becomes extra metadata.
const (
	fileField           = "file"
	fileIdentifierField = "file_identifier"
)

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	if err := r.ParseMultipartForm(h.config.MaxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "Upload exceeds size limit")
			return
		}
		WriteError(w, http.StatusBadRequest, "invalid_input", "Expected multipart form data")
		return
	}

	content, header, err := r.FormFile(fileField)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Missing file field")
		return
	}
	defer func() { _ = content.Close() }()

	obj := filevault.UploadObject{
		FileIdentifier: r.FormValue(fileIdentifierField),
		Extension:      filevault.SafeExtension(header.Filename),
		Extra:          extraFields(r.MultipartForm),
	}

	record, err := h.files.Upload(r.Context(), id, obj, content)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, record.Metadata())
}

// extraFields collects the non-reserved form values. Repeated fields keep
// their first value.
func extraFields(form *multipart.Form) map[string]string {
	if form == nil || len(form.Value) == 0 {
		return nil
	}

	extra := make(map[string]string)
	for key, values := range form.Value {
		if key == fileIdentifierField || len(values) == 0 {
			continue
		}
		extra[key] = values[0]
	}

	if len(extra) == 0 {
		return nil
	}
	return extra
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	fileIdentifier := chi.URLParam(r, "fileIdentifier")

	record, content, err := h.files.Download(r.Context(), id, fileIdentifier)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = content.Close() }()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(record.Filename)))
	http.ServeContent(w, r, record.Filename, record.CreatedAt, content)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	fileIdentifier := chi.URLParam(r, "fileIdentifier")

	if err := h.files.Delete(r.Context(), id, fileIdentifier); err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]string{"message": "file deleted"})
}

func (h *Handler) handleListOwned(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	ids, err := h.files.ListOwned(r.Context(), id)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string][]string{"file_identifiers": ids})
}

func (h *Handler) handleMetadata(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	fileIdentifier := chi.URLParam(r, "fileIdentifier")

	record, err := h.files.GetMetadata(r.Context(), id, fileIdentifier)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, record.Metadata())
}
