// Package athena runs SQL queries against AWS Athena, waits for their
// terminal state, and downloads successful results from S3 for loading
// into the local cache.
package athena

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	athenasdk "github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mlighty/bi-agent-dashboard/internal/config"
)

// QueryAPI is the slice of the Athena client the runner needs.
type QueryAPI interface {
	StartQueryExecution(ctx context.Context, params *athenasdk.StartQueryExecutionInput, optFns ...func(*athenasdk.Options)) (*athenasdk.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athenasdk.GetQueryExecutionInput, optFns ...func(*athenasdk.Options)) (*athenasdk.GetQueryExecutionOutput, error)
}

// ObjectAPI is the slice of the S3 client the runner needs.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Result is the outcome of one query execution.
type Result struct {
	ExecutionID string
	State       types.QueryExecutionState
	// LocalPath is set when the query succeeded and results were downloaded.
	LocalPath string
	// FailureReason is set when the query reached FAILED or CANCELLED.
	FailureReason string
}

// Succeeded reports whether the query produced a downloadable result.
func (r Result) Succeeded() bool {
	return r.State == types.QueryExecutionStateSucceeded
}

// Runner drives the submit, poll, download cycle for one workgroup.
type Runner struct {
	athena         QueryAPI
	objects        ObjectAPI
	database       string
	workgroup      string
	outputLocation string
	pollInterval   time.Duration

	// sleep is swapped out in tests to avoid real poll waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRunner creates a runner over the given service clients.
func NewRunner(queryAPI QueryAPI, objectAPI ObjectAPI, cfg config.AthenaConfig) *Runner {
	pollSeconds := cfg.PollSeconds
	if pollSeconds <= 0 {
		pollSeconds = 2
	}
	return &Runner{
		athena:         queryAPI,
		objects:        objectAPI,
		database:       cfg.Database,
		workgroup:      cfg.Workgroup,
		outputLocation: cfg.OutputLocation,
		pollInterval:   time.Duration(pollSeconds) * time.Second,
		sleep:          sleepContext,
	}
}

// Run submits the query, polls until it reaches a terminal state, and on
// success downloads the result object to destPath. A FAILED or CANCELLED
// query is reported through the Result, not as an error; errors are
// reserved for the submit/poll/download machinery itself.
func (r *Runner) Run(ctx context.Context, query, destPath string) (Result, error) {
	submitted, err := r.athena.StartQueryExecution(ctx, &athenasdk.StartQueryExecutionInput{
		QueryString:           aws.String(query),
		QueryExecutionContext: &types.QueryExecutionContext{Database: aws.String(r.database)},
		WorkGroup:             aws.String(r.workgroup),
		ResultConfiguration:   &types.ResultConfiguration{OutputLocation: aws.String(r.outputLocation)},
	})
	if err != nil {
		return Result{}, fmt.Errorf("start query execution: %w", err)
	}
	executionID := aws.ToString(submitted.QueryExecutionId)

	execution, err := r.waitForQuery(ctx, executionID)
	if err != nil {
		return Result{ExecutionID: executionID}, err
	}

	state := execution.Status.State
	if state != types.QueryExecutionStateSucceeded {
		return Result{
			ExecutionID:   executionID,
			State:         state,
			FailureReason: aws.ToString(execution.Status.StateChangeReason),
		}, nil
	}

	outputURI := aws.ToString(execution.ResultConfiguration.OutputLocation)
	if err := r.download(ctx, outputURI, destPath); err != nil {
		return Result{ExecutionID: executionID, State: state}, err
	}

	return Result{ExecutionID: executionID, State: state, LocalPath: destPath}, nil
}

// waitForQuery polls at a fixed interval until the execution reaches a
// terminal state. There is no overall deadline beyond ctx.
func (r *Runner) waitForQuery(ctx context.Context, executionID string) (*types.QueryExecution, error) {
	for {
		out, err := r.athena.GetQueryExecution(ctx, &athenasdk.GetQueryExecutionInput{
			QueryExecutionId: aws.String(executionID),
		})
		if err != nil {
			return nil, fmt.Errorf("get query execution %s: %w", executionID, err)
		}

		switch out.QueryExecution.Status.State {
		case types.QueryExecutionStateSucceeded,
			types.QueryExecutionStateFailed,
			types.QueryExecutionStateCancelled:
			return out.QueryExecution, nil
		}

		if err := r.sleep(ctx, r.pollInterval); err != nil {
			return nil, err
		}
	}
}

// download fetches an s3://bucket/key object into destPath.
func (r *Runner) download(ctx context.Context, uri, destPath string) error {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return err
	}

	out, err := r.objects.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("get result object %s: %w", uri, err)
	}
	defer func() { _ = out.Body.Close() }()

	file, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := io.Copy(file, out.Body); err != nil {
		return fmt.Errorf("write result file: %w", err)
	}
	return nil
}

// parseS3URI splits scheme://bucket/key into its parts.
func parseS3URI(uri string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(uri, "s3://")
	if trimmed == uri {
		return "", "", fmt.Errorf("unexpected result location %q", uri)
	}
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("unexpected result location %q", uri)
	}
	return parts[0], parts[1], nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
