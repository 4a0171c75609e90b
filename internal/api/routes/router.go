package routes

import (
	"net/http"

	"github.com/zatekoja/appointmentbooking/backend/internal/api/handlers"
	"github.com/zatekoja/appointmentbooking/backend/internal/api/middleware"
	"github.com/zatekoja/appointmentbooking/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	doctorHandler     *handlers.DoctorHandler
	validationHandler *handlers.ValidationHandler
	bookingHandler    *handlers.BookingHandler
	sseHandler        *handlers.SSEHandler

	cacheMiddleware *middleware.CacheMiddleware
	rateLimiter     *middleware.RateLimiter
	allowedOrigins  []string
	metrics         *observability.Metrics
}

// Options carries the optional pieces of the HTTP stack
type Options struct {
	CacheMiddleware *middleware.CacheMiddleware
	RateLimiter     *middleware.RateLimiter
	AllowedOrigins  []string
	Metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	doctorHandler *handlers.DoctorHandler,
	validationHandler *handlers.ValidationHandler,
	bookingHandler *handlers.BookingHandler,
	sseHandler *handlers.SSEHandler,
	opts Options,
) *Router {
	return &Router{
		mux:               http.NewServeMux(),
		doctorHandler:     doctorHandler,
		validationHandler: validationHandler,
		bookingHandler:    bookingHandler,
		sseHandler:        sseHandler,
		cacheMiddleware:   opts.CacheMiddleware,
		rateLimiter:       opts.RateLimiter,
		allowedOrigins:    opts.AllowedOrigins,
		metrics:           opts.Metrics,
	}
}

// SetupRoutes registers every route and wraps the mux in middleware
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Doctor directory and availability
	r.mux.Handle("GET /api/doctors", r.readOnly(r.doctorHandler.ListDoctors))
	r.mux.Handle("GET /api/doctors/{id}/dates", r.readOnly(r.doctorHandler.GetOfferableDates))
	r.mux.Handle("GET /api/doctors/{id}/slots", r.readOnly(r.doctorHandler.GetSlots))

	// Validation
	r.mux.HandleFunc("POST /api/validation/field", r.validationHandler.ValidateField)
	r.mux.HandleFunc("POST /api/validation/form", r.validationHandler.ValidateForm)

	// Booking wizard sessions
	r.mux.Handle("POST /api/booking/sessions", r.limited(r.bookingHandler.CreateSession))
	r.mux.HandleFunc("GET /api/booking/sessions/{id}", r.bookingHandler.GetSession)
	r.mux.HandleFunc("DELETE /api/booking/sessions/{id}", r.bookingHandler.DeleteSession)
	r.mux.Handle("POST /api/booking/sessions/{id}/actions", r.limited(r.bookingHandler.ApplyAction))
	r.mux.Handle("POST /api/booking/sessions/{id}/submit", r.limited(r.bookingHandler.Submit))

	// Streaming
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/booking/sessions/{id}", r.sseHandler.StreamBookingSession)
	}

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS is outermost so preflights and errors carry CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}

// readOnly applies response caching and HTTP optimizations to cacheable reads
func (r *Router) readOnly(h http.HandlerFunc) http.Handler {
	var handler http.Handler = h
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}
	return middleware.ResponseOptimization(handler)
}

// limited applies the per-client rate limit to mutating routes
func (r *Router) limited(h http.HandlerFunc) http.Handler {
	if r.rateLimiter == nil {
		return h
	}
	return r.rateLimiter.Middleware(h)
}
