package httpserver

import (
	"net/http"
	"strings"

	"utilitypay/backend/services/portal/internal/http/handlers"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	Pages      *handlers.PageHandlers
	Enrollment *handlers.EnrollmentHandlers
	Receipt    *handlers.ReceiptHandlers
	Health     http.HandlerFunc
	Static     http.Handler
}

// NewRouter wires page routes. Each path maps to exactly one page; / and /login share
// the login view. session wraps routes that act on behalf of the user.
func NewRouter(deps RouterDeps, session func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/health", methods(deps.Health, http.MethodGet))
	if deps.Static != nil {
		mux.Handle("/static/", methods(deps.Static.ServeHTTP, http.MethodGet, http.MethodHead))
	}

	mux.Handle("/{$}", methods(deps.Pages.Login, http.MethodGet))
	mux.Handle("/login", methods(deps.Pages.Login, http.MethodGet))
	mux.Handle("/register", methods(deps.Pages.Register, http.MethodGet))
	mux.Handle("/home", methods(deps.Pages.Home, http.MethodGet))
	mux.Handle("/admin", methods(deps.Pages.Admin, http.MethodGet))

	mux.Handle("/add_service", session(methods(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			deps.Enrollment.Submit(w, r)
			return
		}
		deps.Enrollment.Form(w, r)
	}, http.MethodGet, http.MethodPost)))

	mux.Handle("/payment-success", methods(deps.Receipt.Show, http.MethodGet, http.MethodPost))

	return mux
}

func methods(handler http.HandlerFunc, allowed ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, m := range allowed {
			if r.Method == m {
				handler(w, r)
				return
			}
		}
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
