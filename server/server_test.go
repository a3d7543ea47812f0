package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"shield/compliance-prover/prover"
)

func TestProofErrorMapping(t *testing.T) {
	cases := []struct {
		err        error
		statusCode int
		code       string
	}{
		{prover.ErrJurisdictionNotAllowed, http.StatusUnprocessableEntity, "compliance_check_failed"},
		{prover.ErrCircuitArtifactMissing, http.StatusServiceUnavailable, "artifact_missing"},
		{fmt.Errorf("%w: context deadline exceeded", prover.ErrProofTimeout), http.StatusGatewayTimeout, "proving_timeout"},
		{fmt.Errorf("%w: witness solve", prover.ErrProofGenerationFailed), http.StatusBadRequest, "proving_error"},
		{fmt.Errorf("unknown request schema"), http.StatusBadRequest, "malformed_body"},
	}
	for _, tc := range cases {
		e := proofErrorOf(tc.err)
		assert.Equal(t, tc.statusCode, e.StatusCode, tc.code)
		assert.Equal(t, tc.code, e.Code)
	}
}

func TestErrorTypeLabels(t *testing.T) {
	assert.Equal(t, "timeout", errorType(fmt.Errorf("%w: deadline", prover.ErrProofTimeout)))
	assert.Equal(t, "proving", errorType(prover.ErrProofGenerationFailed))
	assert.Equal(t, "precheck", errorType(prover.ErrIdentityNotInSet))
	assert.Equal(t, "malformed", errorType(fmt.Errorf("bad body")))
}
