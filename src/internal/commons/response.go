package commons

import "context"

// Response is the envelope every HTTP answer is wrapped in. RequestID echoes
// the X-Request-Id the call was served under so a client can quote it when a
// transfer needs to be traced.
type Response[T any] struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Data      *T       `json:"data,omitempty"`
	Errors    []string `json:"errors,omitempty"`
	RequestID string   `json:"requestId,omitempty"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Message: message,
		Data:    &data,
	}
}

func ErrorResponse[T any](message string, errors ...string) Response[T] {
	return Response[T]{
		Success: false,
		Message: message,
		Errors:  errors,
	}
}

type requestStamped interface {
	withRequestID(id string) any
}

func (r Response[T]) withRequestID(id string) any {
	r.RequestID = id
	return r
}

// Stamp copies the request id carried by ctx onto an envelope. Payloads that
// are not envelopes, and contexts without an id, pass through untouched.
func Stamp(ctx context.Context, payload any) any {
	id := RequestIDFrom(ctx)
	if id == "" {
		return payload
	}
	if envelope, ok := payload.(requestStamped); ok {
		return envelope.withRequestID(id)
	}
	return payload
}
