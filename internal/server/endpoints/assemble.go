package endpoints

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/booklet/internal/api"
	"github.com/jackzampolin/booklet/internal/booklet"
	"github.com/jackzampolin/booklet/internal/config"
	"github.com/jackzampolin/booklet/internal/jobcfg"
	"github.com/jackzampolin/booklet/internal/svcctx"
)

// Accounting headers set on the assemble response.
const (
	HeaderBuildID       = "X-Build-ID"
	HeaderPageCount     = "X-Page-Count"
	HeaderFullPageCount = "X-Full-Page-Count"
	HeaderBPages        = "X-B-Pages"
	HeaderCPages        = "X-C-Pages"
)

// AssembleResponse describes a finished assemble call on the CLI.
type AssembleResponse struct {
	BuildID    string             `json:"build_id"`
	Path       string             `json:"path"`
	Bytes      int                `json:"bytes"`
	Accounting booklet.Accounting `json:"accounting"`
}

// Text summarizes the build on one line.
func (r AssembleResponse) Text() string {
	a := r.Accounting
	return fmt.Sprintf("%s: %d pages (%d colour, %d b/w), %d bytes", r.Path, a.PageCount, a.CPages, a.BPages, r.Bytes)
}

// AssembleEndpoint handles POST /assemble. The response body is the PDF.
type AssembleEndpoint struct{}

func (e *AssembleEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/assemble", e.handler
}

func (e *AssembleEndpoint) RequiresInit() bool { return true }

func (e *AssembleEndpoint) handler(w http.ResponseWriter, r *http.Request) {
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
	opts, err := jobOptions(r.Context(), job)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := engine.Assemble(r.Context(), job.Book, job.Fragments, opts)
	if err != nil {
		if logger := svcctx.LoggerFrom(r.Context()); logger != nil {
			logger.Warn("assemble failed", "error", err)
		}
		writeError(w, buildStatus(err), err.Error())
		return
	}

	name := "booklet"
	if opts.Preview {
		name += "-preview"
	}
	h := w.Header()
	h.Set("Content-Type", "application/pdf")
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".pdf"))
	h.Set("Content-Length", strconv.Itoa(len(res.Bytes)))
	setAccountingHeaders(h, res.BuildID, res.Accounting)
	w.WriteHeader(http.StatusOK)
	w.Write(res.Bytes)
}

// jobOptions resolves a job's overrides against the current config.
func jobOptions(ctx context.Context, job *jobcfg.Job) (booklet.Options, error) {
	cfg := svcctx.ConfigFrom(ctx)
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	builder, err := jobcfg.NewBuilder(cfg)
	if err != nil {
		return booklet.Options{}, err
	}
	return builder.Options(job.Options)
}

// buildStatus maps engine errors to HTTP statuses. Problems with the
// submitted fragments are the caller's to fix.
func buildStatus(err error) int {
	var fe *booklet.FragmentError
	switch {
	case errors.As(err, &fe), errors.Is(err, booklet.ErrInvalidPeriod), errors.Is(err, booklet.ErrCoverNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func setAccountingHeaders(h http.Header, buildID string, acct booklet.Accounting) {
	h.Set(HeaderBuildID, buildID)
	h.Set(HeaderPageCount, strconv.Itoa(acct.PageCount))
	h.Set(HeaderFullPageCount, strconv.Itoa(acct.FullPageCount))
	h.Set(HeaderBPages, strconv.Itoa(acct.BPages))
	h.Set(HeaderCPages, strconv.Itoa(acct.CPages))
}

// AccountingFromHeader reads the accounting headers of an assemble response.
// Missing or malformed headers read as zero.
func AccountingFromHeader(h http.Header) booklet.Accounting {
	n := func(key string) int {
		v, _ := strconv.Atoi(h.Get(key))
		return v
	}
	return booklet.Accounting{
		PageCount:     n(HeaderPageCount),
		FullPageCount: n(HeaderFullPageCount),
		BPages:        n(HeaderBPages),
		CPages:        n(HeaderCPages),
	}
}

func (e *AssembleEndpoint) Command(getServerURL func() string) *cobra.Command {
	var dest string
	var preview bool

	cmd := &cobra.Command{
		Use:   "assemble <job-file>",
		Short: "Assemble a booklet on the server",
		Long: `Assemble a booklet from a YAML or JSON job file on the server.

Local fragment files are inlined into the request, so the server does not
need access to the job's directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := jobcfg.Load(args[0])
			if err != nil {
				return err
			}
			if err := job.Inline(); err != nil {
				return err
			}
			if preview {
				if job.Options == nil {
					job.Options = &jobcfg.OptionsSpec{}
				}
				job.Options.Preview = true
			}
			if dest == "" {
				dest = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
				if job.Preview() {
					dest += "-preview"
				}
				dest += ".pdf"
			}

			client := api.NewClient(getServerURL())
			data, header, err := client.PostRaw(cmd.Context(), "/assemble", job)
			if err != nil {
				return err
			}
			if err := os.WriteFile(dest, data, 0o644); err != nil {
				return fmt.Errorf("failed to write booklet: %w", err)
			}
			return api.Output(AssembleResponse{
				BuildID:    header.Get(HeaderBuildID),
				Path:       dest,
				Bytes:      len(data),
				Accounting: AccountingFromHeader(header),
			})
		},
	}

	cmd.Flags().StringVarP(&dest, "dest", "d", "", "Output PDF path (default: <job-file>.pdf)")
	cmd.Flags().BoolVar(&preview, "preview", false, "Build a short preview")
	return cmd
}
