// Package handlers contains HTTP handler interfaces and reusable middleware.
//
// This package provides:
//   - Health check interfaces and implementations
//   - Authentication middleware for write endpoints
//   - Generic middleware components (timeouts, security headers, body limits)
//
// # Health Checks
//
// The HealthChecker interface allows registering multiple named health checks
// that are executed in parallel:
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0")
//	checker.AddCheck("postgres", handlers.NewDatabaseCheck(db))
//	checker.AddCheck("redis", handlers.NewCacheCheck(cache))
//	checker.AddCheck("notifications", handlers.NewSenderCheck(sender))
//
//	status := checker.Check(ctx)
//	if !status.Healthy {
//	    log.Printf("Health check failed: %s", status.Message)
//	}
//
// # Middleware
//
//	// API Key authentication for write endpoints
//	auth := handlers.NewAPIKeyAuth("X-API-Key", []string{"secret-key"})
//	protected := auth.Middleware(myHandler)
//
//	// Request timeout
//	withTimeout := handlers.TimeoutMiddleware(30 * time.Second)(myHandler)
//
//	// Chain multiple middleware
//	handler := handlers.ChainHandler(
//	    myHandler,
//	    handlers.SecurityHeadersMiddleware,
//	    auth.Middleware,
//	)
//
// When implementing health checks:
//   - Use timeouts to prevent slow checks from blocking the response
//   - Include critical dependencies like database and cache
//   - Keep checks fast (< 1 second ideally)
package handlers
