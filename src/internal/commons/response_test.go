package commons

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transferView struct {
	ID string `json:"id"`
}

func TestStampAddsRequestIDToEnvelopes(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-7")

	stamped := Stamp(ctx, SuccessResponse("transfer completed successfully", transferView{ID: "entry-1"}))
	body, err := json.Marshal(stamped)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"message":"transfer completed successfully","data":{"id":"entry-1"},"requestId":"req-7"}`, string(body))

	failure, ok := Stamp(ctx, ErrorResponse[transferView]("Account not found")).(Response[transferView])
	require.True(t, ok)
	assert.Equal(t, "req-7", failure.RequestID)
	assert.Nil(t, failure.Data)
}

func TestStampPassesThrough(t *testing.T) {
	plain := map[string]string{"status": "ok"}
	assert.Equal(t, plain, Stamp(WithRequestID(context.Background(), "req-8"), plain))

	response := ErrorResponse[transferView]("validation failed", "payer is required")
	assert.Equal(t, response, Stamp(context.Background(), response))
	assert.Empty(t, RequestIDFrom(context.Background()))
}
