package acp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispatcherHandleRequestMissingMethod(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	resp := d.HandleRequest(context.Background(), json.RawMessage(`"1"`), "nonexistent/method", nil)
	require.NotNil(t, resp.Error)
	require.Equal(t, CodeMethodNotFound, resp.Error.Code)
}

func TestDispatcherHandleRequestMissingFSHandlerHasHint(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	resp := d.HandleRequest(context.Background(), json.RawMessage(`"1"`), MethodFSReadTextFile, nil)
	require.NotNil(t, resp.Error)
	require.Contains(t, resp.Error.Message, "fs.readTextFile")
}

func TestDispatcherHandleRequestInvalidParams(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	RegisterTypedRequest(d, "echo", func(_ context.Context, p struct {
		Text string `json:"text"`
	}) (string, error) {
		return p.Text, nil
	})

	resp := d.HandleRequest(context.Background(), json.RawMessage(`"1"`), "echo", json.RawMessage(`{"text": 5}`))
	require.NotNil(t, resp.Error)
	require.Equal(t, CodeInvalidParams, resp.Error.Code)
}

func TestDispatcherHandleRequestSuccess(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	type echoParams struct {
		Text string `json:"text"`
	}
	RegisterTypedRequest(d, "echo", func(_ context.Context, p echoParams) (echoParams, error) {
		return p, nil
	})

	resp := d.HandleRequest(context.Background(), json.RawMessage(`"1"`), "echo", json.RawMessage(`{"text":"hi"}`))
	require.Nil(t, resp.Error)
	var out echoParams
	require.NoError(t, json.Unmarshal(resp.Result, &out))
	require.Equal(t, "hi", out.Text)
}

func TestDispatcherHandleRequestHandlerErrorPreservesCode(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	RegisterTypedRequest(d, "boom", func(_ context.Context, _ struct{}) (struct{}, error) {
		return struct{}{}, errSessionNotFound("nope")
	})

	resp := d.HandleRequest(context.Background(), json.RawMessage(`"1"`), "boom", nil)
	require.NotNil(t, resp.Error)
	require.Equal(t, CodeSessionNotFound, resp.Error.Code)
}

func TestDispatcherHandleRequestPanicBecomesInternalError(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	d.RegisterRequest("panics", func(context.Context, json.RawMessage) (any, error) {
		panic("boom")
	})

	resp := d.HandleRequest(context.Background(), json.RawMessage(`"1"`), "panics", nil)
	require.NotNil(t, resp.Error)
	require.Equal(t, CodeInternalError, resp.Error.Code)
}

func TestDispatcherHandleNotificationMissingIsNoop(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	require.NotPanics(t, func() {
		d.HandleNotification(context.Background(), "unregistered", nil)
	})
}

func TestDispatcherHandleNotificationInvoked(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	called := make(chan string, 1)
	RegisterTypedNotification(d, MethodSessionCancel, func(_ context.Context, p SessionCancelParams) {
		called <- p.SessionID
	})

	d.HandleNotification(context.Background(), MethodSessionCancel, json.RawMessage(`{"sessionId":"s1"}`))
	require.Equal(t, "s1", <-called)
}
