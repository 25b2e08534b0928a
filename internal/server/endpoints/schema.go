package endpoints

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jackzampolin/booklet/internal/jobcfg"
	"github.com/jackzampolin/booklet/internal/svcctx"
)

// defaultMaxBodyBytes applies when no config is in the request context.
const defaultMaxBodyBytes = 64 << 20

//go:embed schemas/job.json
var jobSchemaJSON []byte

var (
	jobSchemaOnce sync.Once
	jobSchema     *jsonschema.Schema
	jobSchemaErr  error
)

// JobSchema returns the compiled schema for assemble and estimate bodies.
func JobSchema() (*jsonschema.Schema, error) {
	jobSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("job.json", bytes.NewReader(jobSchemaJSON)); err != nil {
			jobSchemaErr = fmt.Errorf("failed to load job schema: %w", err)
			return
		}
		jobSchema, jobSchemaErr = compiler.Compile("job.json")
		if jobSchemaErr != nil {
			jobSchemaErr = fmt.Errorf("failed to compile job schema: %w", jobSchemaErr)
		}
	})
	return jobSchema, jobSchemaErr
}

// requestError carries the status a body problem maps to.
type requestError struct {
	status int
	err    error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

// decodeJob reads the request body, validates it against the job schema
// and decodes it.
func decodeJob(w http.ResponseWriter, r *http.Request) (*jobcfg.Job, error) {
	limit := int64(defaultMaxBodyBytes)
	if cfg := svcctx.ConfigFrom(r.Context()); cfg != nil && cfg.Server.MaxBodyBytes > 0 {
		limit = cfg.Server.MaxBodyBytes
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &requestError{http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", limit)}
		}
		return nil, &requestError{http.StatusBadRequest, fmt.Errorf("failed to read body: %w", err)}
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &requestError{http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err)}
	}
	schema, err := JobSchema()
	if err != nil {
		return nil, &requestError{http.StatusInternalServerError, err}
	}
	if err := schema.Validate(doc); err != nil {
		return nil, &requestError{http.StatusBadRequest, fmt.Errorf("job does not match schema: %w", err)}
	}

	job, err := jobcfg.DecodeJSON(data)
	if err != nil {
		return nil, &requestError{http.StatusBadRequest, err}
	}
	return job, nil
}

// writeRequestError maps a decodeJob error to its response.
func writeRequestError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	var re *requestError
	if errors.As(err, &re) {
		status = re.status
	}
	writeError(w, status, err.Error())
}
