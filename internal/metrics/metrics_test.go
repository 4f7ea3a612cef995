package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordPolicyDecision(t *testing.T) {
	before := testutil.ToFloat64(PolicyDecisionsTotal.WithLabelValues("object", "deny"))
	RecordPolicyDecision("object", false)
	after := testutil.ToFloat64(PolicyDecisionsTotal.WithLabelValues("object", "deny"))
	assert.Equal(t, before+1, after)
}

func TestRecordRequestUnmatchedRoute(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404"))
	RecordRequest("GET", "", 404, 3*time.Millisecond)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404"))
	assert.Equal(t, before+1, after)
}

func TestRecordRelationMutation(t *testing.T) {
	before := testutil.ToFloat64(RelationMutationsTotal.WithLabelValues("cart", "add", "ok"))
	RecordRelationMutation("cart", "add", "ok")
	assert.Equal(t, before+1, testutil.ToFloat64(RelationMutationsTotal.WithLabelValues("cart", "add", "ok")))
}
