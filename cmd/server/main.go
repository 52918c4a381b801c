package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/pricefy/repricing/catalog"
	"github.com/pricefy/repricing/internal/config"
	"github.com/pricefy/repricing/internal/logger"
	"github.com/pricefy/repricing/repricing"
	"github.com/pricefy/repricing/schema"
)

// Server wires the repricing engine and stores behind the REST API.
type Server struct {
	engine      *repricing.Engine
	competitors repricing.CompetitorStore
	products    catalog.ProductStore
	healthCheck func() error
	router      *chi.Mux
}

// NewServer builds a server over the given collaborators. healthCheck may
// be nil when there is no backing connection to probe.
func NewServer(engine *repricing.Engine, competitors repricing.CompetitorStore,
	products catalog.ProductStore, healthCheck func() error,
	requestTimeout time.Duration) *Server {
	s := &Server{
		engine:      engine,
		competitors: competitors,
		products:    products,
		healthCheck: healthCheck,
	}
	s.setupRoutes(requestTimeout)
	return s
}

func (s *Server) setupRoutes(requestTimeout time.Duration) {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/api/v1/health", s.handleHealth)

	r.Route("/api/v1/repricing/rules", func(r chi.Router) {
		r.Get("/", s.handleListRules)
		r.Post("/", s.handleCreateRule)
		r.Post("/preview", s.handlePreview)

		r.Route("/{ruleId}", func(r chi.Router) {
			r.Get("/", s.handleGetRule)
			r.Put("/", s.handleUpdateRule)
			r.Delete("/", s.handleDeleteRule)
		})
	})

	r.Route("/api/v1/competitors", func(r chi.Router) {
		r.Get("/", s.handleListCompetitors)
		r.Post("/", s.handleCreateCompetitor)
		r.Put("/{competitorId}", s.handleUpdateCompetitor)
		r.Delete("/{competitorId}", s.handleDeleteCompetitor)
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", s.handleListProducts)
		r.Post("/", s.handleCreateProduct)
		r.Post("/bulk", s.handleBulkUpdateProducts)
		r.Get("/{productId}", s.handleGetProduct)
		r.Put("/{productId}", s.handleUpdateProduct)
		r.Delete("/{productId}", s.handleDeleteProduct)
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestLogger logs each request and keeps the status counters accurate.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		logger.CountHTTPStatus(ww.Status())
		if elapsed > time.Second {
			logger.CountSlowRequest()
		}
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", elapsed.String(),
			"requestId", middleware.GetReqID(r.Context()),
		)
	})
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.healthCheck != nil {
		if err := s.healthCheck(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"errors":   logger.TotalErrors.Load(),
		"warnings": logger.TotalWarnings.Load(),
	})
}

// Rule handlers

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.engine.ListRules()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list rules", err)
		return
	}
	if rules == nil {
		rules = []*repricing.Rule{}
	}
	respondJSON(w, http.StatusOK, RulesListResponse{Rules: rules})
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var rule repricing.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if violations := schema.ValidateRule(rule, schema.CollectAll); !violations.OK() {
		respondValidation(w, violations)
		return
	}

	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}

	if err := s.engine.AddRule(&rule); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, repricing.ErrExists) {
			status = http.StatusConflict
		}
		respondError(w, status, "failed to add rule", err)
		return
	}

	respondJSON(w, http.StatusCreated, rule)
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "ruleId")

	rule, err := s.engine.GetRule(ruleID)
	if err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}
	respondJSON(w, http.StatusOK, rule)
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "ruleId")

	var rule repricing.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	rule.ID = ruleID

	if violations := schema.ValidateRule(rule, schema.CollectAll); !violations.OK() {
		respondValidation(w, violations)
		return
	}

	if err := s.engine.UpdateRule(&rule); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, repricing.ErrNotFound) {
			status = http.StatusNotFound
		}
		respondError(w, status, "failed to update rule", err)
		return
	}

	respondJSON(w, http.StatusOK, rule)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "ruleId")

	if err := s.engine.DeleteRule(ruleID); err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Preview handler. Accepts either an inline rule (unsaved form state) or a
// ruleId referencing a stored rule, plus the product snapshots to price.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	rule := req.Rule
	if rule == nil {
		if req.RuleID == "" {
			respondError(w, http.StatusBadRequest, "rule or ruleId is required", nil)
			return
		}
		var err error
		rule, err = s.engine.GetRule(req.RuleID)
		if err != nil {
			respondError(w, http.StatusNotFound, "rule not found", err)
			return
		}
	} else if rule.StopCondition.Filter != "" {
		// Inline rules are not persisted, so their filter is compiled under a
		// throwaway ID for the duration of the preview.
		tmp := rule.Clone()
		tmp.ID = uuid.New().String()
		if err := s.engine.CompileFilter(tmp.ID, tmp.StopCondition.Filter); err != nil {
			respondError(w, http.StatusBadRequest, "invalid stop condition filter", err)
			return
		}
		defer s.engine.CompileFilter(tmp.ID, "")
		rule = &tmp
	}

	if violations := schema.ValidateRule(*rule, schema.CollectAll); !violations.OK() {
		respondValidation(w, violations)
		return
	}

	startTime := time.Now()
	results := s.engine.PreviewAll(rule, req.Products)

	respondJSON(w, http.StatusOK, PreviewResponse{
		Results:        results,
		EvaluationTime: time.Since(startTime).String(),
	})
}

// Competitor handlers

func (s *Server) handleListCompetitors(w http.ResponseWriter, r *http.Request) {
	competitors, err := s.competitors.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list competitors", err)
		return
	}
	if competitors == nil {
		competitors = []*repricing.Competitor{}
	}
	respondJSON(w, http.StatusOK, CompetitorsListResponse{Competitors: competitors})
}

func (s *Server) handleCreateCompetitor(w http.ResponseWriter, r *http.Request) {
	var in schema.CompetitorInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if violations := schema.ValidateCompetitor(in, schema.CollectAll); !violations.OK() {
		respondValidation(w, violations)
		return
	}

	competitor := &repricing.Competitor{
		ID:      uuid.New().String(),
		Name:    in.Name,
		URL:     in.URL,
		Enabled: in.Enabled,
		Avatar:  in.Avatar,
	}
	if err := s.competitors.Add(competitor); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create competitor", err)
		return
	}

	respondJSON(w, http.StatusCreated, competitor)
}

func (s *Server) handleUpdateCompetitor(w http.ResponseWriter, r *http.Request) {
	competitorID := chi.URLParam(r, "competitorId")

	existing, err := s.competitors.Get(competitorID)
	if err != nil {
		respondError(w, http.StatusNotFound, "competitor not found", err)
		return
	}

	var in schema.CompetitorInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if violations := schema.ValidateCompetitor(in, schema.CollectAll); !violations.OK() {
		respondValidation(w, violations)
		return
	}

	existing.Name = in.Name
	existing.URL = in.URL
	existing.Enabled = in.Enabled
	existing.Avatar = in.Avatar

	if err := s.competitors.Update(existing); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update competitor", err)
		return
	}
	respondJSON(w, http.StatusOK, existing)
}

func (s *Server) handleDeleteCompetitor(w http.ResponseWriter, r *http.Request) {
	competitorID := chi.URLParam(r, "competitorId")

	if err := s.competitors.Delete(competitorID); err != nil {
		respondError(w, http.StatusNotFound, "competitor not found", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Product handlers

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q, violations := schema.QueryFromValues(r.URL.Query(), schema.CollectAll)
	if !violations.OK() {
		respondValidation(w, violations)
		return
	}

	products, total, err := s.products.List(q)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list products", err)
		return
	}
	if products == nil {
		products = []*catalog.Product{}
	}

	respondJSON(w, http.StatusOK, ProductsListResponse{
		Products: products,
		Total:    total,
		Page:     q.Page,
		Limit:    q.Limit,
	})
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var in schema.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if violations := schema.ValidateProduct(&in, schema.CollectAll); !violations.OK() {
		respondValidation(w, violations)
		return
	}

	product := &catalog.Product{
		ID:            uuid.New().String(),
		Name:          in.Name,
		SKU:           in.SKU,
		Price:         in.Price,
		Cost:          in.Cost,
		Stock:         in.Stock,
		Margin:        in.Margin,
		Status:        in.Status,
		CheapestColor: in.CheapestColor,
		BrandID:       in.BrandID,
		CategoryID:    in.CategoryID,
		ImageURL:      in.ImageURL,
	}
	if err := s.products.Add(product); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create product", err)
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	product, err := s.products.Get(productID)
	if err != nil {
		respondError(w, http.StatusNotFound, "product not found", err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	var update schema.ProductUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	in := schema.UpdateProductInput{ID: productID, Updates: update}
	if violations := schema.ValidateUpdateProduct(in, schema.CollectAll); !violations.OK() {
		respondValidation(w, violations)
		return
	}

	product, err := s.products.Update(productID, update)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, catalog.ErrNotFound) {
			status = http.StatusNotFound
		}
		respondError(w, status, "failed to update product", err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	if err := s.products.Delete(productID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, catalog.ErrNotFound) {
			status = http.StatusNotFound
		}
		respondError(w, status, "failed to delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBulkUpdateProducts(w http.ResponseWriter, r *http.Request) {
	var in schema.BulkUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if violations := schema.ValidateBulkUpdate(in, schema.CollectAll); !violations.OK() {
		respondValidation(w, violations)
		return
	}

	updated, err := s.products.BulkUpdate(in.ProductIDs, in.Updates)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to bulk update products", err)
		return
	}
	respondJSON(w, http.StatusOK, BulkUpdateResponse{Updated: updated})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := ErrorResponse{Error: message}
	if err != nil {
		response.Details = err.Error()
	}
	respondJSON(w, status, response)
}

func respondValidation(w http.ResponseWriter, violations schema.Violations) {
	respondJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:  "validation failed",
		Fields: violations.FieldMap(),
	})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", "error", err)
	}

	if level, err := logger.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to open database", "error", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal("Failed to ping database", "error", err)
	}

	var cache repricing.RulesCache = repricing.NewInMemoryRulesCache(repricing.CacheConfig{TTL: cfg.CacheTTL})
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		cache = repricing.NewRedisRulesCache(client, cfg.RedisCacheKey, repricing.CacheConfig{TTL: cfg.CacheTTL})
		logger.Info("Using Redis rules cache", "addr", cfg.RedisAddr)
	}

	engine, err := repricing.NewEngineWithCache(repricing.NewPostgresRuleStore(db), cache)
	if err != nil {
		logger.Fatal("Failed to create engine", "error", err)
	}

	server := NewServer(engine,
		repricing.NewPostgresCompetitorStore(db),
		catalog.NewPostgresProductStore(db),
		db.Ping,
		cfg.RequestTimeout,
	)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	if err := logger.Shutdown(ctx); err != nil {
		logger.Error("Logger shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
