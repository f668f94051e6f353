package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fdg312/preppair/internal/auth"
	"github.com/fdg312/preppair/internal/blob"
	"github.com/fdg312/preppair/internal/budget"
	"github.com/fdg312/preppair/internal/config"
	"github.com/fdg312/preppair/internal/grocery"
	"github.com/fdg312/preppair/internal/logger"
	"github.com/fdg312/preppair/internal/planner"
	"github.com/fdg312/preppair/internal/recipes"
	"github.com/fdg312/preppair/internal/settings"
	"github.com/fdg312/preppair/internal/storage"
	"github.com/fdg312/preppair/internal/storage/memory"
	"github.com/fdg312/preppair/internal/storage/postgres"
	"github.com/fdg312/preppair/internal/storage/sqlite"
)

// Server wires storage, services and routes into one http.Handler.
type Server struct {
	config         *config.Config
	logger         *logger.Logger
	mux            *http.ServeMux
	storage        storage.Store
	storageMode    string
	blobStore      blob.Store
	blobMode       string
	authMiddleware *auth.Middleware
	httpServer     *http.Server
}

// New opens storage and the export blob store and registers every route.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Server, error) {
	s := &Server{
		config: cfg,
		logger: log,
		mux:    http.NewServeMux(),
	}

	s.initStorage(ctx)

	blobStore, blobMode, err := blob.NewBlobStore(ctx, cfg.Blob, log)
	if err != nil {
		s.storage.Close()
		return nil, fmt.Errorf("init blob store: %w", err)
	}
	s.blobStore = blobStore
	s.blobMode = blobMode
	log.Info("blob store ready", "mode", blobMode)

	s.routes()
	return s, nil
}

// initStorage picks Postgres, then SQLite, then memory. A store that fails to
// open falls back to memory.
func (s *Server) initStorage(ctx context.Context) {
	switch {
	case s.config.DatabaseURL != "":
		s.logger.Info("connecting to postgres")
		pg, err := postgres.New(ctx, s.config.DatabaseURL)
		if err != nil {
			s.logger.Warn("postgres unavailable, falling back to in-memory storage", "error", err)
			s.useMemory()
			return
		}
		s.storage = pg
		s.storageMode = "postgres"
	case s.config.SQLitePath != "":
		s.logger.Info("opening sqlite", "path", s.config.SQLitePath)
		lite, err := sqlite.New(ctx, s.config.SQLitePath, s.logger)
		if err != nil {
			s.logger.Warn("sqlite unavailable, falling back to in-memory storage", "error", err)
			s.useMemory()
			return
		}
		s.storage = lite
		s.storageMode = "sqlite"
	default:
		s.useMemory()
	}
	s.logger.Info("storage ready", "mode", s.storageMode)
}

func (s *Server) useMemory() {
	s.storage = memory.New()
	s.storageMode = "memory"
}

// StorageMode reports which store backs the server: postgres, sqlite or memory.
func (s *Server) StorageMode() string {
	return s.storageMode
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealthz)

	// Auth
	authService := auth.NewService(s.config, s.storage)
	authHandler := auth.NewHandlers(authService, s.logger, s.secureCookies())
	s.authMiddleware = auth.NewMiddleware(s.config, authService, s.logger)

	s.mux.HandleFunc("GET /v1/auth/status", authHandler.HandleStatus)
	s.mux.HandleFunc("POST /v1/auth/setup", authHandler.HandleSetup)
	s.mux.HandleFunc("POST /v1/auth/login", authHandler.HandleLogin)
	s.mux.HandleFunc("POST /v1/auth/logout", authHandler.HandleLogout)
	s.mux.HandleFunc("POST /v1/auth/pin", authHandler.HandleChangePIN)

	// Settings
	settingsService := settings.NewService(s.storage, s.config)
	settingsHandler := settings.NewHandler(settingsService, s.logger)

	s.mux.HandleFunc("GET /v1/settings", settingsHandler.HandleGet)
	s.mux.HandleFunc("PUT /v1/settings", settingsHandler.HandlePut)

	// Recipes
	recipeService := recipes.NewService(s.storage)
	recipeHandler := recipes.NewHandler(recipeService, s.logger)

	s.mux.HandleFunc("GET /v1/recipes", recipeHandler.HandleList)
	s.mux.HandleFunc("POST /v1/recipes", recipeHandler.HandleCreate)
	s.mux.HandleFunc("GET /v1/recipes/categories", recipeHandler.HandleCategories)
	s.mux.HandleFunc("GET /v1/recipes/{id}", recipeHandler.HandleGet)
	s.mux.HandleFunc("PUT /v1/recipes/{id}", recipeHandler.HandleUpdate)
	s.mux.HandleFunc("DELETE /v1/recipes/{id}", recipeHandler.HandleDelete)
	s.mux.HandleFunc("POST /v1/recipes/{id}/favorite", recipeHandler.HandleToggleFavorite)

	// Weeks and slots
	plannerService := planner.NewService(s.storage)
	plannerHandler := planner.NewHandler(plannerService, s.logger)

	s.mux.HandleFunc("GET /v1/weeks/current", plannerHandler.HandleCurrentWeek)
	s.mux.HandleFunc("GET /v1/weeks/{date}", plannerHandler.HandleWeek)
	s.mux.HandleFunc("GET /v1/plans/{planID}", s.plan(plannerHandler.HandleGetPlan))
	s.mux.HandleFunc("GET /v1/plans/{planID}/summary", s.plan(plannerHandler.HandleSummary))
	s.mux.HandleFunc("PUT /v1/plans/{planID}/slots", s.plan(plannerHandler.HandleAssign))
	s.mux.HandleFunc("DELETE /v1/plans/{planID}/slots/{slotID}", s.plan(plannerHandler.HandleRemove))
	s.mux.HandleFunc("POST /v1/plans/{planID}/slots/{slotID}/move", s.plan(plannerHandler.HandleMove))
	s.mux.HandleFunc("PATCH /v1/plans/{planID}/slots/{slotID}/status", s.plan(plannerHandler.HandleSetStatus))
	s.mux.HandleFunc("POST /v1/plans/{planID}/slots/{slotID}/status/cycle", s.plan(plannerHandler.HandleCycleStatus))

	// Grocery list
	groceryService := grocery.NewService(s.storage, s.blobStore, s.config.ExportPresignTTLSeconds)
	groceryHandler := grocery.NewHandler(groceryService, s.logger)

	s.mux.HandleFunc("POST /v1/plans/{planID}/grocery/generate", s.plan(groceryHandler.HandleGenerate))
	s.mux.HandleFunc("GET /v1/plans/{planID}/grocery", s.plan(groceryHandler.HandleList))
	s.mux.HandleFunc("GET /v1/plans/{planID}/grocery/count", s.plan(groceryHandler.HandleCount))
	s.mux.HandleFunc("GET /v1/plans/{planID}/grocery/export", s.plan(groceryHandler.HandleExport))
	s.mux.HandleFunc("POST /v1/plans/{planID}/grocery/items/{itemID}/toggle", s.plan(groceryHandler.HandleToggle))
	s.mux.HandleFunc("POST /v1/plans/{planID}/grocery/clear-checked", s.plan(groceryHandler.HandleClearChecked))

	// Budget
	budgetService := budget.NewService(s.storage, settingsService)
	budgetHandler := budget.NewHandler(budgetService, s.logger)

	s.mux.HandleFunc("GET /v1/budget/entries", budgetHandler.HandleListEntries)
	s.mux.HandleFunc("POST /v1/budget/entries", budgetHandler.HandleCreateEntry)
	s.mux.HandleFunc("DELETE /v1/budget/entries/{id}", budgetHandler.HandleDeleteEntry)
	s.mux.HandleFunc("GET /v1/budget/week", budgetHandler.HandleWeek)
	s.mux.HandleFunc("GET /v1/budget/trend", budgetHandler.HandleTrend)
}

func (s *Server) plan(next http.HandlerFunc) http.HandlerFunc {
	return requirePlan(s.storage, s.logger, next)
}

func (s *Server) secureCookies() bool {
	return s.config.Env != "" && s.config.Env != "local"
}

// Handler returns the router behind the middleware chain (outermost first):
// CORS, rate limit, access log, auth.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	handler = s.authMiddleware.Handler(handler)
	handler = AccessLogMiddleware(s.logger, handler)
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)
	return handler
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"storage": s.storageMode,
	})
}

// Start listens on the configured port until Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("server listening", "addr", "http://localhost"+addr, "health", "http://localhost"+addr+"/healthz")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Close releases the storage.
func (s *Server) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
