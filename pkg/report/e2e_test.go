package report_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/nomad/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muman613/nomad-helper/pkg/config"
	apperrors "github.com/muman613/nomad-helper/pkg/errors"
	"github.com/muman613/nomad-helper/pkg/nomad"
	"github.com/muman613/nomad-helper/pkg/nomad/nomadtest"
	"github.com/muman613/nomad-helper/pkg/report"
	"github.com/muman613/nomad-helper/pkg/tlsutil/tlstest"
)

func clusterConfig(t *testing.T, host, certPath string) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Host = host
	cfg.CertPath = certPath
	cfg.Timeout = 5 * time.Second
	return cfg
}

func alloc(id, jobID string, tasks ...string) *api.AllocationListStub {
	states := make(map[string]*api.TaskState, len(tasks))
	for _, task := range tasks {
		states[task] = &api.TaskState{State: "running"}
	}
	return &api.AllocationListStub{
		ID:         id,
		Name:       jobID + ".main[0]",
		JobID:      jobID,
		TaskGroup:  "main",
		TaskStates: states,
	}
}

func TestReportOverMutualTLS(t *testing.T) {
	pki := tlstest.New(t)
	fake := nomadtest.New()
	srv := pki.NewServer(t, fake.Handler())

	fake.AddJob(&api.JobListStub{ID: "job1", Status: "running"}, alloc("alloc-1", "job1", "server"))
	fake.AddJob(&api.JobListStub{ID: "job2", Status: "running"}, alloc("alloc-2", "job2", "worker"))
	fake.SetLog("alloc-1", "server", "stderr", "hello")
	fake.FailLogs("alloc-2", http.StatusInternalServerError)

	client, err := nomad.NewClient(clusterConfig(t, srv.URL, pki.Dir))
	require.NoError(t, err)

	var out bytes.Buffer
	sum, err := report.NewDumper(client, report.Options{Out: &out}).Run(context.Background())
	require.NoError(t, err)

	text := out.String()
	job2 := strings.Index(text, "JOB ID : job2")
	require.Positive(t, job2, "job2 header missing:\n%s", text)

	first, second := text[:job2], text[job2:]
	assert.Contains(t, first, ">> ALLOCATION ID : alloc-1 ALLOCATION NAME : job1.main[0]\n")
	assert.Contains(t, first, "-- LOG "+strings.Repeat("-", 74)+"\nhello\n"+strings.Repeat("-", 80)+"\n")
	assert.Contains(t, second, ">> ALLOCATION ID : alloc-2 ALLOCATION NAME : job2.main[0]\nEXCEPTION: ")
	assert.NotContains(t, second, "-- LOG")

	assert.Equal(t, report.Summary{Jobs: 2, Allocations: 2, Logs: 1, Exceptions: 1}, sum)

	requests := fake.LogRequests()
	require.Len(t, requests, 2)
	for _, req := range requests {
		assert.True(t, req.Plain, "logs must be requested in plain mode")
		assert.Equal(t, "stderr", req.Type)
	}
}

func TestReportConnectionFailure(t *testing.T) {
	pki := tlstest.New(t)
	srv := httptest.NewUnstartedServer(http.NotFoundHandler())
	addr := srv.Listener.Addr().String()
	srv.Listener.Close()

	client, err := nomad.NewClient(clusterConfig(t, addr, pki.Dir))
	require.NoError(t, err)

	var out bytes.Buffer
	_, err = report.NewDumper(client, report.Options{Out: &out}).Run(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsConnection(err), "expected ConnectionError, got %v", err)

	assert.True(t, strings.HasPrefix(out.String(), "ERROR: "), "got %q", out.String())
	assert.Equal(t, 1, strings.Count(out.String(), "\n"), "expected a single line, got %q", out.String())
	assert.NotContains(t, out.String(), "JOB ID")
}

func TestReportRejectsForeignServerCertificate(t *testing.T) {
	pki := tlstest.New(t)
	other := tlstest.New(t)
	srv := other.NewServer(t, nomadtest.New().Handler())

	client, err := nomad.NewClient(clusterConfig(t, srv.URL, pki.Dir))
	require.NoError(t, err)

	var out bytes.Buffer
	_, err = report.NewDumper(client, report.Options{Out: &out}).Run(context.Background())
	assert.True(t, apperrors.IsCertificate(err), "expected CertificateError, got %v", err)
	assert.True(t, strings.HasPrefix(out.String(), "ERROR: "))
}

func TestReportKeepsClusterOrder(t *testing.T) {
	pki := tlstest.New(t)
	fake := nomadtest.New()
	srv := pki.NewServer(t, fake.Handler())

	fake.AddJob(&api.JobListStub{ID: "zulu", Status: "running"},
		&api.AllocationListStub{ID: "z-2", Name: "zulu.main[1]", CreateIndex: 2},
		&api.AllocationListStub{ID: "z-9", Name: "zulu.main[0]", CreateIndex: 9},
	)
	fake.AddJob(&api.JobListStub{ID: "alpha", Status: "running"})

	client, err := nomad.NewClient(clusterConfig(t, srv.URL, pki.Dir))
	require.NoError(t, err)

	var out bytes.Buffer
	_, err = report.NewDumper(client, report.Options{Out: &out}).Run(context.Background())
	require.NoError(t, err)

	text := out.String()
	assert.Less(t, strings.Index(text, "JOB ID : zulu"), strings.Index(text, "JOB ID : alpha"))
	assert.Less(t, strings.Index(text, "ALLOCATION ID : z-2"), strings.Index(text, "ALLOCATION ID : z-9"))
}
