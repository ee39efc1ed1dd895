package rpc_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/monsend/internal/rpc"
)

// nodeServer answers eth_blockNumber and eth_chainId like a live node.
func nodeServer(t *testing.T, chainID int64, block uint64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			ID     int    `json:"id"`
		}
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		var result string
		switch req.Method {
		case "eth_chainId":
			result = fmt.Sprintf("0x%x", chainID)
		default:
			result = fmt.Sprintf("0x%x", block)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": result}) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProbeHealthy(t *testing.T) {
	srv := nodeServer(t, 10143, 500)
	ep, err := rpc.Probe(context.Background(), srv.URL, 10143, 0)
	require.NoError(t, err)
	assert.True(t, ep.Checked)
	assert.True(t, ep.Healthy)
	assert.Equal(t, uint64(500), ep.BlockNumber)
}

func TestProbeWrongChain(t *testing.T) {
	srv := nodeServer(t, 1, 500)
	ep, err := rpc.Probe(context.Background(), srv.URL, 10143, 0)
	assert.ErrorContains(t, err, "serves chain 1")
	assert.False(t, ep.Healthy)
}

func TestProbeBehindTip(t *testing.T) {
	srv := nodeServer(t, 10143, 490)
	ep, err := rpc.Probe(context.Background(), srv.URL, 10143, 500)
	require.NoError(t, err)
	assert.False(t, ep.Healthy)
}

func TestProbeUnreachable(t *testing.T) {
	ep, err := rpc.Probe(context.Background(), "http://127.0.0.1:1", 10143, 0)
	assert.Error(t, err)
	assert.False(t, ep.Healthy)
	assert.True(t, ep.Checked)
}

func TestNewPoolDedupes(t *testing.T) {
	p := rpc.NewPool([]string{"http://a", " ", "http://b", "http://a "}, 10143, rpc.AlgorithmFastest)
	assert.Equal(t, []string{"http://a", "http://b"}, p.URLs())
}

func TestResolveSingleURLSkipsProbe(t *testing.T) {
	p := rpc.NewPool([]string{"http://never-contacted"}, 10143, rpc.AlgorithmFastest)
	url, err := p.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://never-contacted", url)
}

func TestResolveEmpty(t *testing.T) {
	_, err := rpc.NewPool(nil, 10143, rpc.AlgorithmFastest).Resolve(context.Background())
	assert.ErrorIs(t, err, rpc.ErrNoHealthyRPC)
}

func TestResolveSkipsDeadAndForeignNodes(t *testing.T) {
	good := nodeServer(t, 10143, 500)
	foreign := nodeServer(t, 1, 500)
	p := rpc.NewPool([]string{"http://127.0.0.1:1", foreign.URL, good.URL}, 10143, rpc.AlgorithmFailover)

	url, err := p.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, good.URL, url)
}

func TestBenchmarkMarksLaggingNode(t *testing.T) {
	tip := nodeServer(t, 10143, 500)
	lag := nodeServer(t, 10143, 400)
	eps := rpc.NewPool([]string{tip.URL, lag.URL}, 10143, rpc.AlgorithmFastest).Benchmark(context.Background())
	require.Len(t, eps, 2)
	assert.True(t, eps[0].Healthy)
	assert.False(t, eps[1].Healthy)
}

func TestClient(t *testing.T) {
	srv := nodeServer(t, 10143, 1)
	c, err := rpc.NewPool([]string{srv.URL}, 10143, rpc.AlgorithmFastest).Client(context.Background())
	require.NoError(t, err)
	assert.Equal(t, srv.URL, c.URL())
}
