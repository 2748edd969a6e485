package api

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/juju/ratelimit"

	"sihacare/m/internal/ledger"
	"sihacare/m/internal/metrics"
	"sihacare/m/internal/realtime"
)

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	db      *sqlx.DB
	ledger  *ledger.Ledger
	hub     *realtime.Hub
	secret  string
	limiter *rateLimiter
}

// New constructs a Handler. The hub may be nil when realtime streaming is
// disabled.
func New(db *sqlx.DB, l *ledger.Ledger, hub *realtime.Hub, secret string, ratePerSec float64, burst int64) *Handler {
	return &Handler{
		db:      db,
		ledger:  l,
		hub:     hub,
		secret:  secret,
		limiter: newRateLimiter(ratePerSec, burst),
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(slogMiddleware)
	r.Use(metrics.Middleware)
	r.Use(h.rateLimitMiddleware)

	r.Get("/health", h.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.register)
		r.Post("/auth/login", h.login)

		r.Group(func(pr chi.Router) {
			pr.Use(h.authMiddleware)

			pr.Get("/auth/me", h.me)

			pr.Get("/users", h.listUsers)
			pr.Put("/users/{id}/role", h.updateUserRole)

			pr.Post("/warehouses", h.createWarehouse)
			pr.Get("/warehouses", h.listWarehouses)
			pr.Post("/hospitals", h.createHospital)
			pr.Get("/hospitals", h.listHospitals)
			pr.Post("/patients", h.createPatient)
			pr.Get("/patients", h.listPatients)

			pr.Post("/batches", h.createBatch)
			pr.Get("/batches", h.listBatches)
			pr.Get("/batches/expiring", h.expiringBatches)
			pr.Get("/batches/{id}", h.getBatch)
			pr.Get("/batches/{id}/audit", h.auditTrail)

			pr.Post("/dispatches", h.createDispatch)
			pr.Get("/dispatches", h.listDispatches)
			pr.Post("/dispatches/{id}/transit", h.markInTransit)
			pr.Post("/dispatches/{id}/receive", h.confirmReceipt)
			pr.Post("/scan/receive", h.receiveByScan)

			pr.Post("/usage", h.recordUsage)
			pr.Get("/usage", h.listUsage)

			pr.Get("/stats", h.stats)

			if h.hub != nil {
				pr.Get("/events", h.hub.ServeHTTP)
			}
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ledger.Stats(r.Context())
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// slogMiddleware logs each request with method, path, status and duration.
func slogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond).String(),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// Per-client rate limiting with token buckets.
type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*ratelimit.Bucket
	rate    float64
	burst   int64
}

func newRateLimiter(rate float64, burst int64) *rateLimiter {
	return &rateLimiter{
		clients: make(map[string]*ratelimit.Bucket),
		rate:    rate,
		burst:   burst,
	}
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	bucket, ok := rl.clients[clientIP]
	if !ok {
		bucket = ratelimit.NewBucketWithRate(rl.rate, rl.burst)
		rl.clients[clientIP] = bucket
	}
	rl.mu.Unlock()
	return bucket.TakeAvailable(1) > 0
}

func (h *Handler) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !h.limiter.allow(ip) {
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
