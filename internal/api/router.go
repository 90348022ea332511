package api

import (
	"askchat-backend/internal/auth"
	"askchat-backend/internal/config"
	"askchat-backend/internal/handlers"
	"askchat-backend/internal/ratelimit"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// AskPath is the endpoint guarded by admission control.
const AskPath = "/api/ask"

// RouterDependencies holds all the dependencies required by the router setup,
// primarily handlers and configuration.
type RouterDependencies struct {
	AuthHandler *handlers.AuthHandler
	AskHandler  *handlers.AskHandler
	ChatHandler *handlers.ChatHandlers
	Sessions    auth.SessionProvider
	Limiter     *ratelimit.Limiter
	Config      *config.Config
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second)) // upstream LLM calls can be slow

	// --- CORS Configuration ---
	// Credentials are allowed so the session cookie reaches /api/ask from the web UI.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Requested-With"},
		ExposedHeaders:   []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Admission Control ---
	// Runs for every request; only AskPath is gated.
	if deps.Limiter == nil {
		panic("Limiter dependency is nil in router setup")
	}
	r.Use(AdmissionControl(AskPath, deps.Limiter))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api/auth", func(r chi.Router) {
		if deps.AuthHandler == nil {
			panic("AuthHandler dependency is nil in router setup")
		}
		r.Post("/signup", deps.AuthHandler.HandleSignup)
		r.Post("/login", deps.AuthHandler.HandleLogin)
		r.Post("/logout", deps.AuthHandler.HandleLogout)
	})

	// --- Authenticated Routes ---
	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(deps.Sessions))

		if deps.AskHandler != nil {
			r.Post(AskPath, deps.AskHandler.HandleAsk)
		} else {
			log.Println("WARN: AskHandler dependency is nil, skipping /api/ask route.")
		}

		if deps.ChatHandler != nil {
			r.Route("/api/chats", func(r chi.Router) {
				r.Get("/", deps.ChatHandler.HandleListChats)
				r.Post("/", deps.ChatHandler.HandleCreateChat)
				r.Get("/{chatID}", deps.ChatHandler.HandleGetChat)
				r.Delete("/{chatID}", deps.ChatHandler.HandleDeleteChat)
			})
		} else {
			log.Println("WARN: ChatHandler dependency is nil, skipping /api/chats routes.")
		}
	})

	return r
}
