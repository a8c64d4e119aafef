package flowerr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{Required("question"), CodeValidation},
		{&TemplateError{Prompt: "answer_data_questions", Err: errors.New("missing key")}, CodeTemplate},
		{fmt.Errorf("flow: %w", &BackendUnavailableError{Attempts: 3, Err: context.DeadlineExceeded}), CodeBackendUnavailable},
		{&SchemaMismatchError{Attempts: 2, Raw: "{}"}, CodeSchemaMismatch},
		{&EmptyResponseError{Attempts: 2}, CodeEmptyResponse},
		{&SchemaMismatchError{Attempts: 2, Err: &ValidationError{Field: "table.rows[0]", Reason: "has 1 cells, want 2"}}, CodeSchemaMismatch},
		{&BackendUnavailableError{Attempts: 1, Err: fmt.Errorf("wrapped: %w", Required("x"))}, CodeBackendUnavailable},
		{fmt.Errorf("x: %w", ErrSuperseded), CodeSuperseded},
		{context.Canceled, CodeCancelled},
		{errors.New("boom"), CodeInternal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Code(tc.err), "err=%v", tc.err)
	}
}

func TestBackendUnavailableUnwraps(t *testing.T) {
	err := &BackendUnavailableError{Attempts: 3, Err: context.DeadlineExceeded}
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "3 attempt")
}

func TestValidationErrorMessage(t *testing.T) {
	assert.Equal(t, "invalid insightId: required", Required("insightId").Error())
	assert.Equal(t, "invalid x", (&ValidationError{Field: "x"}).Error())
}
