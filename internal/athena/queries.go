package athena

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	athenasdk "github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mlighty/bi-agent-dashboard/internal/config"
)

// Query is one named SQL query; the name doubles as the cache table name.
type Query struct {
	Name string
	SQL  string
}

// LoadQueries reads every *.sql file in dir. The file stem becomes the
// query name; queries come back sorted by name for a stable run order.
func LoadQueries(dir string) ([]Query, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("list query files: %w", err)
	}

	queries := make([]Query, 0, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read query file %s: %w", path, err)
		}
		name := strings.TrimSuffix(filepath.Base(path), ".sql")
		queries = append(queries, Query{Name: name, SQL: string(data)})
	}

	sort.Slice(queries, func(i, j int) bool { return queries[i].Name < queries[j].Name })
	return queries, nil
}

// NewClients builds the Athena and S3 service clients from static
// credentials in the integration config.
func NewClients(ctx context.Context, cfg config.AthenaConfig) (*athenasdk.Client, *s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("load aws config: %w", err)
	}
	return athenasdk.NewFromConfig(awsCfg), s3.NewFromConfig(awsCfg), nil
}
