package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/observability"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server is the development backend serving the posts/comments API.
type Server struct {
	repo     ports.Repository
	sessions *session.Manager

	logger   *slog.Logger
	metrics  *observability.HTTPMetrics
	gatherer prometheus.Gatherer
	origins  []string
	secure   bool
	maxInput int
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics instruments every route and serves g on /metrics.
func WithMetrics(m *observability.HTTPMetrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// WithAllowedOrigins enables credentialed CORS for the given origins. "*" reflects any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = append(s.origins, origins...)
	}
}

// WithMaxInputSize bounds each submitted text field (default: DefaultMaxInputSize).
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxInput = n
		}
	}
}

// WithSecureCookies marks the session cookie Secure.
func WithSecureCookies(secure bool) Option {
	return func(s *Server) {
		s.secure = secure
	}
}

// NewHandler builds the router for repo, authenticating through sessions.
func NewHandler(repo ports.Repository, sessions *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		repo:     repo,
		sessions: sessions,
		logger:   logging.NewNop(),
		maxInput: DefaultMaxInputSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	if len(s.origins) > 0 {
		r.Use(s.cors)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", s.register)
		r.Post("/login", s.login)
		r.Post("/logout", s.logout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/user", s.listUsers)
			r.Get("/user/{id}", s.userDetail)
			r.Delete("/user/{id}", s.userDetail)

			r.Get("/post", s.listPosts)

			r.Get("/comment", s.listComments)
			r.Post("/comment", s.createComment)
			r.Get("/comment/{id}", s.commentDetail)
			r.Delete("/comment/{id}", s.commentDetail)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)

			r.Post("/post", s.createPost)
			r.Get("/post/{id}", s.postDetail)
			r.Delete("/post/{id}", s.postDetail)
		})
	})

	return otelhttp.NewHandler(r, "lattice.backend")
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	username, err := s.formText(r, "username")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.sessions.Register(r.Context(), username, r.FormValue("password"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	token, u, err := s.sessions.Login(r.Context(), r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(CookieName); err == nil {
		if err := s.sessions.Logout(r.Context(), c.Value); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	http.SetCookie(w, &http.Cookie{Name: CookieName, Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.repo.ListUsers(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) userDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.repo.GetUser(r.Context(), id)
	if err != nil {
		s.fail(w, r, notFound(err, "no user with that ID"))
		return
	}
	if r.Method == http.MethodDelete {
		if err := s.repo.DeleteUser(r.Context(), id); err != nil {
			s.fail(w, r, notFound(err, "no user with that ID"))
			return
		}
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.repo.ListPosts(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	var draft domain.PostDraft
	var err error
	if draft.Title, err = s.formText(r, "title"); err != nil {
		s.fail(w, r, err)
		return
	}
	if draft.Body, err = s.formText(r, "body"); err != nil {
		s.fail(w, r, err)
		return
	}
	switch {
	case draft.Title == "":
		s.fail(w, r, fmt.Errorf("%w: title is required", domain.ErrInvalidInput))
		return
	case draft.Body == "":
		s.fail(w, r, fmt.Errorf("%w: content is required", domain.ErrInvalidInput))
		return
	}
	author, err := authorID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	draft.AuthorID = author

	p, err := s.repo.CreatePost(r.Context(), draft)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) postDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.repo.GetPost(r.Context(), id)
	if err != nil {
		s.fail(w, r, notFound(err, "no post with that ID"))
		return
	}
	if r.Method == http.MethodDelete {
		if err := s.repo.DeletePost(r.Context(), id); err != nil {
			s.fail(w, r, notFound(err, "no post with that ID"))
			return
		}
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	var postID *int64
	if r.URL.Query().Has("post_id") {
		id, err := strconv.ParseInt(r.URL.Query().Get("post_id"), 10, 64)
		if err != nil {
			s.fail(w, r, fmt.Errorf("%w: post_id must be an integer", domain.ErrInvalidInput))
			return
		}
		postID = &id
	}

	comments, err := s.repo.ListComments(r.Context(), postID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	body, err := s.formText(r, "body")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if body == "" {
		s.fail(w, r, fmt.Errorf("%w: content is required", domain.ErrInvalidInput))
		return
	}
	postID, err := strconv.ParseInt(r.FormValue("post_id"), 10, 64)
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: post_id must be an integer", domain.ErrInvalidInput))
		return
	}
	if _, err := s.repo.GetPost(r.Context(), postID); err != nil {
		s.fail(w, r, notFound(err, "no post with that ID"))
		return
	}
	author, err := authorID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	c, err := s.repo.CreateComment(r.Context(), domain.CommentDraft{Body: body, PostID: postID, AuthorID: author})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) commentDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.repo.GetComment(r.Context(), id)
	if err != nil {
		s.fail(w, r, notFound(err, "no comment with that ID"))
		return
	}
	if r.Method == http.MethodDelete {
		if err := s.repo.DeleteComment(r.Context(), id); err != nil {
			s.fail(w, r, notFound(err, "no comment with that ID"))
			return
		}
	}
	writeJSON(w, http.StatusOK, c)
}

// fail writes err as {"error": msg} with the status its sentinel maps to.
// Unmapped errors are logged and reported as a generic 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"err", err,
		)
		msg = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func notFound(err error, msg string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, msg)
	}
	return err
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: id must be an integer", domain.ErrInvalidInput)
	}
	return id, nil
}

// authorID reads the author_id form field, defaulting to the session user.
func authorID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.FormValue("author_id"))
	if raw == "" || raw == "0" {
		u, _ := userFrom(r.Context())
		return u.ID, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: author_id must be an integer", domain.ErrInvalidInput)
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.allowed(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization")
			h.Set("Access-Control-Max-Age", "21600")
			h.Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowed(origin string) bool {
	for _, o := range s.origins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}
