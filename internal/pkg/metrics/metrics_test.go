package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordContractRead(t *testing.T) {
	before := testutil.ToFloat64(contractReads.WithLabelValues("polygon", "zero"))
	RecordContractRead("polygon", "zero")
	RecordContractRead("polygon", "zero")
	assert.Equal(t, before+2, testutil.ToFloat64(contractReads.WithLabelValues("polygon", "zero")))
}

func TestRecordChainScanAndPriceLookup(t *testing.T) {
	RecordChainScan("bsc", "timeout", 15*time.Second)
	assert.GreaterOrEqual(t, testutil.ToFloat64(chainOutcomes.WithLabelValues("bsc", "timeout")), 1.0)

	RecordPriceLookup("fallback")
	assert.GreaterOrEqual(t, testutil.ToFloat64(priceLookups.WithLabelValues("fallback")), 1.0)

	RecordHTTPRequest("GET", "", 404)
	assert.GreaterOrEqual(t, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "unmatched", "404")), 1.0)
}

func TestHandlerExposesCollectors(t *testing.T) {
	RecordContractRead("ethereum", "ok")

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "portfolio_checker_chain_contract_reads_total")
}
