package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/booklet/internal/api"
	"github.com/jackzampolin/booklet/internal/booklet"
	"github.com/jackzampolin/booklet/internal/jobcfg"
	"github.com/jackzampolin/booklet/internal/svcctx"
)

// EstimateEndpoint handles POST /estimate.
type EstimateEndpoint struct{}

func (e *EstimateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/estimate", e.handler
}

func (e *EstimateEndpoint) RequiresInit() bool { return true }

func (e *EstimateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	engine := svcctx.EngineFrom(r.Context())
	if engine == nil {
		writeError(w, http.StatusServiceUnavailable, "engine not initialized")
		return
	}

	job, err := decodeJob(w, r)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	acct, err := engine.Estimate(r.Context(), job.Book, job.Fragments, job.ColorMap)
	if err != nil {
		if logger := svcctx.LoggerFrom(r.Context()); logger != nil {
			logger.Warn("estimate failed", "error", err)
		}
		writeError(w, buildStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (e *EstimateEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "estimate <job-file>",
		Short: "Estimate page counts for a job on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := jobcfg.Load(args[0])
			if err != nil {
				return err
			}
			if err := job.Inline(); err != nil {
				return err
			}

			client := api.NewClient(getServerURL())
			var acct booklet.Accounting
			if err := client.Post(cmd.Context(), "/estimate", job, &acct); err != nil {
				return err
			}
			return api.Output(acct)
		},
	}
}
