package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/api-sage/funds-transfer-service/src/internal/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHTTPNotifier_PostsMessage(t *testing.T) {
	var got notifyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	err := NewHTTPNotifier(srv.URL, nil).Notify(context.Background(), "acc-1", "You received $10.00 from John Common")
	require.NoError(t, err)
	assert.Equal(t, notifyRequest{UserID: "acc-1", Message: "You received $10.00 from John Common"}, got)
}

func TestHTTPNotifier_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	t.Cleanup(srv.Close)

	err := NewHTTPNotifier(srv.URL, nil).Notify(context.Background(), "acc-1", "hello")
	assert.ErrorContains(t, err, "504")
}

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaNotifier_PublishesKeyedEvent(t *testing.T) {
	writer := &fakeWriter{}
	n := newKafkaNotifier(writer)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return fixed }

	require.NoError(t, n.Notify(context.Background(), "acc-7", "You sent $5.00 to Jane Common"))
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "acc-7", string(msg.Key))

	var event NotificationRequested
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, NotificationRequested{AccountID: "acc-7", Message: "You sent $5.00 to Jane Common", OccurredAt: fixed}, event)

	require.NoError(t, n.Close())
	assert.True(t, writer.closed)
}

func TestKafkaNotifier_WriteFailure(t *testing.T) {
	n := newKafkaNotifier(&fakeWriter{err: errors.New("leader not available")})

	err := n.Notify(context.Background(), "acc-7", "hello")
	assert.ErrorContains(t, err, "leader not available")
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger.SetLogger(zap.New(core))
	t.Cleanup(func() { logger.SetLogger(nil) })

	require.NoError(t, LogNotifier{}.Notify(context.Background(), "acc-1", "hello"))

	entries := logs.FilterMessage("notification").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "acc-1", entries[0].ContextMap()["accountId"])
}
