// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api assembles the read-only HTTP surface of the marketplace.
// Mutations enter through the Go API; exposing them over HTTP would
// need request authentication, which is out of scope here.
package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/workmesh/workmesh/api/accounts"
	"github.com/workmesh/workmesh/api/jobs"
	"github.com/workmesh/workmesh/api/utils"
	"github.com/workmesh/workmesh/api/voting"
	"github.com/workmesh/workmesh/log"
	"github.com/workmesh/workmesh/runtime"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	EnableMetrics   bool
	EnableReqLogger bool
}

// New returns the assembled api handler.
func New(rt *runtime.Runtime, opts Options) http.HandlerFunc {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	router.Path("/health").
		Methods(http.MethodGet).
		Name("GET /health").
		HandlerFunc(utils.WrapHandlerFunc(func(w http.ResponseWriter, _ *http.Request) error {
			return utils.WriteJSON(w, map[string]bool{"healthy": true})
		}))

	jobs.New(rt).Mount(router, "/jobs")
	accounts.New(rt).Mount(router, "/accounts")
	voting.New(rt).Mount(router, "/voting")

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = requestLoggerHandler(handler)
	}
	if opts.EnableMetrics {
		handler = metricsHandler(handler)
	}
	return handler.ServeHTTP
}

// requestLoggerHandler logs every request through the package logger.
func requestLoggerHandler(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info("api request", "method", r.Method, "uri", r.URL.String(), "from", r.RemoteAddr)
		h.ServeHTTP(w, r)
	})
}
