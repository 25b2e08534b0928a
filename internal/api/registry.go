package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// Endpoint defines both an HTTP route and its corresponding CLI command.
type Endpoint interface {
	// Route returns the HTTP method, path, and handler for this endpoint.
	Route() (method, path string, handler http.HandlerFunc)

	// RequiresInit returns true if this endpoint needs the engine wired.
	RequiresInit() bool

	// Command returns a Cobra command that calls this endpoint via HTTP.
	// getServerURL is called at runtime, after flag parsing.
	Command(getServerURL func() string) *cobra.Command
}

// Registry holds all registered endpoints.
type Registry struct {
	endpoints []Endpoint
}

// NewRegistry creates a registry holding eps.
func NewRegistry(eps ...Endpoint) *Registry {
	return &Registry{endpoints: eps}
}

// Register adds an endpoint to the registry.
func (r *Registry) Register(ep Endpoint) {
	r.endpoints = append(r.endpoints, ep)
}

// RegisterRoutes registers all endpoint HTTP routes with the given mux.
// initMiddleware wraps handlers of endpoints that require the engine.
func (r *Registry) RegisterRoutes(mux *http.ServeMux, initMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	for _, ep := range r.endpoints {
		method, path, handler := ep.Route()
		if ep.RequiresInit() {
			handler = initMiddleware(handler)
		}
		mux.HandleFunc(method+" "+path, handler)
	}
}

// Routes lists "METHOD /path" for every endpoint, sorted by path.
func (r *Registry) Routes() []string {
	routes := make([]string, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		method, path, _ := ep.Route()
		routes = append(routes, method+" "+path)
	}
	sort.Slice(routes, func(i, j int) bool {
		_, pi, _ := strings.Cut(routes[i], " ")
		_, pj, _ := strings.Cut(routes[j], " ")
		if pi != pj {
			return pi < pj
		}
		return routes[i] < routes[j]
	})
	return routes
}

// BuildCommands returns the `api` command with one subcommand per endpoint.
func (r *Registry) BuildCommands(getServerURL func() string) *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Commands that call the running server",
		Long: `API commands call the running booklet server via HTTP.

These commands require a running server (booklet serve).
Use --server to specify a custom server URL.

Examples:
  booklet api health                          # Check server health
  booklet api estimate job.yaml               # Page and cost accounting
  booklet api assemble job.yaml --dest a.pdf  # Build a booklet remotely
  booklet api metrics --kind assemble -o json # Build statistics`,
	}

	for _, ep := range r.endpoints {
		apiCmd.AddCommand(ep.Command(getServerURL))
	}

	return apiCmd
}

// Endpoints returns all registered endpoints.
func (r *Registry) Endpoints() []Endpoint {
	return r.endpoints
}
