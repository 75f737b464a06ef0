package router

import "net/http"

type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler)
}

// New wires every controller onto one mux. The transfer route is additionally
// wrapped by transferMiddleware, which runs before authentication.
func New(
	transferController RouteRegistrar,
	accountController RouteRegistrar,
	healthController RouteRegistrar,
	authMiddleware func(http.Handler) http.Handler,
	transferMiddleware func(http.Handler) http.Handler,
) *http.ServeMux {
	mux := http.NewServeMux()
	registerSwaggerRoutes(mux)

	if transferController != nil {
		transferController.RegisterRoutes(mux, chain(transferMiddleware, authMiddleware))
	}
	if accountController != nil {
		accountController.RegisterRoutes(mux, authMiddleware)
	}
	if healthController != nil {
		healthController.RegisterRoutes(mux, nil)
	}

	return mux
}

// chain applies middlewares outermost first, skipping nil ones.
func chain(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			if middlewares[i] != nil {
				next = middlewares[i](next)
			}
		}
		return next
	}
}
