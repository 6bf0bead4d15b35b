// Package nomad is a read-only adapter over the Nomad HTTP API. Every error
// it returns belongs to the taxonomy in pkg/errors.
package nomad

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/nomad/api"
	"go.uber.org/zap"

	"github.com/muman613/nomad-helper/pkg/config"
	apperrors "github.com/muman613/nomad-helper/pkg/errors"
	"github.com/muman613/nomad-helper/pkg/logging"
	"github.com/muman613/nomad-helper/pkg/tlsutil"
)

// Client issues the handful of read-only calls the report needs.
type Client struct {
	api     *api.Client
	address string
	prefix  string
	logger  *logging.ColoredLogger
}

type options struct {
	httpClient *http.Client
	logger     *logging.ColoredLogger
}

// Option customizes NewClient.
type Option func(*options)

// WithHTTPClient replaces the mTLS client built from the cert directory.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *logging.ColoredLogger) Option {
	return func(o *options) { o.logger = l }
}

// NewClient builds one authenticated session against cfg's host. Unless
// WithHTTPClient is given, the session presents the client certificate
// found in cfg.CertPath.
func NewClient(cfg *config.Config, opts ...Option) (*Client, error) {
	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	address, err := cfg.Address()
	if err != nil {
		return nil, apperrors.NewValidationError("host", err.Error(), cfg.Host)
	}

	var tlsConfig *api.TLSConfig
	hc := o.httpClient
	if hc == nil {
		bundle := tlsutil.BundleFromDir(cfg.CertPath)
		o.logger.ComponentDebug(logging.ComponentTLS, "Loading client identity",
			zap.String("ca", bundle.CAFile),
			zap.String("cert", bundle.CertFile),
			zap.String("key", bundle.KeyFile),
		)
		hc, err = tlsutil.NewHTTPClient(bundle, cfg.ServerName, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		// Same material, so the client library never falls back to its
		// environment-derived TLS settings.
		tlsConfig = &api.TLSConfig{
			CACert:        bundle.CAFile,
			ClientCert:    bundle.CertFile,
			ClientKey:     bundle.KeyFile,
			TLSServerName: cfg.ServerName,
		}
	}

	apiClient, err := api.NewClient(&api.Config{
		Address:    address,
		Region:     cfg.Region,
		Namespace:  cfg.Namespace,
		SecretID:   cfg.Token,
		HttpClient: hc,
		TLSConfig:  tlsConfig,
	})
	if err != nil {
		return nil, apperrors.Classify(err, apperrors.Op{Name: "create client", Address: address})
	}

	return &Client{
		api:     apiClient,
		address: address,
		prefix:  cfg.Prefix,
		logger:  o.logger,
	}, nil
}

// Address returns the API URL the client talks to.
func (c *Client) Address() string {
	return c.address
}

func (c *Client) query(ctx context.Context) *api.QueryOptions {
	return (&api.QueryOptions{}).WithContext(ctx)
}

func (c *Client) fail(err error, op, resource, id string) error {
	return apperrors.Classify(err, apperrors.Op{
		Name:     op,
		Address:  c.address,
		Resource: resource,
		ID:       id,
	})
}

// Jobs lists every job visible to the session, in API order.
func (c *Client) Jobs(ctx context.Context) ([]*api.JobListStub, error) {
	start := time.Now()
	q := c.query(ctx)
	q.Prefix = c.prefix

	// Raw keeps the server's order; Jobs().List re-sorts by ID.
	var jobs []*api.JobListStub
	if _, err := c.api.Raw().Query("/v1/jobs", &jobs, q); err != nil {
		return nil, c.fail(err, "list jobs", "job", c.prefix)
	}
	c.logger.ComponentDebug(logging.ComponentNomad, "Listed jobs",
		zap.Int("count", len(jobs)),
		zap.Duration("took", time.Since(start)),
	)
	return jobs, nil
}

// Allocations lists the allocations of jobID, in API order.
func (c *Client) Allocations(ctx context.Context, jobID string) ([]*api.AllocationListStub, error) {
	var allocs []*api.AllocationListStub
	endpoint := "/v1/job/" + url.PathEscape(jobID) + "/allocations"
	if _, err := c.api.Raw().Query(endpoint, &allocs, c.query(ctx)); err != nil {
		return nil, c.fail(err, "list allocations", "job", jobID)
	}
	c.logger.ComponentDebug(logging.ComponentNomad, "Listed allocations",
		zap.String("job", jobID),
		zap.Int("count", len(allocs)),
	)
	return allocs, nil
}

// TaskOrder returns the task names of group in the order the job spec
// declares them. A group absent from the job yields an empty slice.
func (c *Client) TaskOrder(ctx context.Context, jobID, group string) ([]string, error) {
	job, _, err := c.api.Jobs().Info(jobID, c.query(ctx))
	if err != nil {
		return nil, c.fail(err, "get job", "job", jobID)
	}

	var names []string
	for _, tg := range job.TaskGroups {
		if tg == nil || tg.Name == nil || *tg.Name != group {
			continue
		}
		for _, task := range tg.Tasks {
			if task != nil {
				names = append(names, task.Name)
			}
		}
	}
	return names, nil
}

// Logs fetches the whole log of one task in plain mode. logType is
// "stderr" or "stdout".
func (c *Client) Logs(ctx context.Context, allocID, task, logType string) (string, error) {
	q := c.query(ctx)
	q.Params = map[string]string{
		"task":   task,
		"type":   logType,
		"plain":  "true",
		"follow": "false",
		"origin": "start",
	}

	body, err := c.api.Raw().Response("/v1/client/fs/logs/"+url.PathEscape(allocID), q)
	if err != nil {
		return "", c.fail(err, "fetch logs", "task log", allocID+"/"+task)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", c.fail(err, "read logs", "task log", allocID+"/"+task)
	}

	c.logger.ComponentDebug(logging.ComponentNomad, "Fetched task log",
		zap.String("alloc", allocID),
		zap.String("task", task),
		zap.String("type", logType),
		zap.String("size", humanize.Bytes(uint64(len(data)))),
	)
	return string(data), nil
}
