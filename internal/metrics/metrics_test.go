package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrement(t *testing.T) {
	ParcelsEncoded.WithLabelValues("application").Inc()
	ParcelsDecoded.WithLabelValues("platform").Inc()
	HandshakesInitiated.WithLabelValues("initiator").Inc()
	TrackersCreated.WithLabelValues("deferred").Inc()
	RoutesDispatched.WithLabelValues("/info/node", "success").Inc()

	mfs, err := Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestHandlerServesMetrics(t *testing.T) {
	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()

	Handler().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "brypt_")
}
