package endpoints

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/booklet/internal/api"
	"github.com/jackzampolin/booklet/internal/metrics"
	"github.com/jackzampolin/booklet/internal/svcctx"
)

// defaultRecentLimit is how many recent builds /metrics lists by default.
const defaultRecentLimit = 20

// MetricsResponse is the response for GET /metrics.
type MetricsResponse struct {
	Total   int                         `json:"total"`
	Summary *metrics.Summary            `json:"summary"`
	ByKind  map[string]*metrics.Summary `json:"by_kind"`
	Recent  []metrics.Metric            `json:"recent"`
}

// MetricsEndpoint handles GET /metrics.
type MetricsEndpoint struct{}

func (e *MetricsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/metrics", e.handler
}

func (e *MetricsEndpoint) RequiresInit() bool { return true }

func (e *MetricsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	recorder := svcctx.MetricsFrom(r.Context())
	if recorder == nil {
		writeError(w, http.StatusServiceUnavailable, "metrics recorder not initialized")
		return
	}

	q := r.URL.Query()
	f, err := parseFilter(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := defaultRecentLimit
	if s := q.Get("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
	}

	writeJSON(w, http.StatusOK, MetricsResponse{
		Total:   recorder.Total(),
		Summary: recorder.Summary(f),
		ByKind:  recorder.ByKind(f),
		Recent:  recorder.List(f, limit),
	})
}

func parseFilter(q url.Values) (metrics.Filter, error) {
	f := metrics.Filter{Kind: q.Get("kind")}
	if s := q.Get("success"); s != "" {
		ok, err := strconv.ParseBool(s)
		if err != nil {
			return f, fmt.Errorf("invalid success value %q", s)
		}
		f.Success = &ok
	}
	if s := q.Get("since"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return f, fmt.Errorf("invalid since value %q", s)
		}
		f.After = time.Now().Add(-d)
	}
	return f, nil
}

func (e *MetricsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var kind, since string
	var limit int

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show build metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if kind != "" {
				q.Set("kind", kind)
			}
			if since != "" {
				q.Set("since", since)
			}
			q.Set("limit", strconv.Itoa(limit))

			client := api.NewClient(getServerURL())
			var resp MetricsResponse
			if err := client.Get(cmd.Context(), "/metrics?"+q.Encode(), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Filter by build kind (assemble or estimate)")
	cmd.Flags().StringVar(&since, "since", "", "Only builds within this duration, e.g. 1h")
	cmd.Flags().IntVar(&limit, "limit", defaultRecentLimit, "Number of recent builds to list")
	return cmd
}
