package hookio

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Name string `json:"name"`
}

func TestRunInvokesHandler(t *testing.T) {
	var got *testPayload
	out := &bytes.Buffer{}

	run(context.Background(), "test", strings.NewReader(`{"name": "hello"}`), out,
		func(ctx context.Context, input *testPayload) error {
			got = input
			return nil
		})

	require.NotNil(t, got)
	assert.Equal(t, "hello", got.Name)
	assert.JSONEq(t, `{"continue": true}`, out.String())
}

// The editor is acknowledged no matter what goes wrong.
func TestRunAlwaysAcks(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		handler     Handler[testPayload]
		wantInvoked bool
	}{
		{
			name:  "empty input skips the handler",
			input: "",
		},
		{
			name:  "whitespace input skips the handler",
			input: "   \n",
		},
		{
			name:  "malformed payload skips the handler",
			input: "{not json",
		},
		{
			name:        "handler error is swallowed",
			input:       `{"name": "x"}`,
			wantInvoked: true,
			handler: func(ctx context.Context, input *testPayload) error {
				return errors.New("boom")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoked := false
			handler := tt.handler
			if handler == nil {
				handler = func(ctx context.Context, input *testPayload) error {
					invoked = true
					return nil
				}
			} else {
				inner := handler
				handler = func(ctx context.Context, input *testPayload) error {
					invoked = true
					return inner(ctx, input)
				}
			}

			out := &bytes.Buffer{}
			run(context.Background(), "test", strings.NewReader(tt.input), out, handler)

			assert.Equal(t, tt.wantInvoked, invoked)
			assert.JSONEq(t, `{"continue": true}`, out.String())
		})
	}
}
