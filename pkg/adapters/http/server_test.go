package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/dsl"
	"github.com/aretw0/tendril/pkg/mapper"
)

var (
	nameKey   = domain.NewKey[string]("name")
	amountKey = domain.NewKey[int]("amount")
)

func newDispatcher(t *testing.T, opts ...tendril.Option) *tendril.Dispatcher {
	t.Helper()
	auth := memory.NewAuthorizer()
	auth.Grant("admin", "*")

	d := tendril.New(append([]tendril.Option{tendril.WithAuthorizer(auth)}, opts...)...)
	b := dsl.New()
	b.Add("greet|hi").
		Describe("Say hello").
		Arg(domain.Positional("name", nameKey, mapper.StringKey)).
		Handle(func(cc *domain.CommandContext) error {
			fmt.Fprintf(domain.Output(cc), "hello %s", domain.GetOr(cc, nameKey, ""))
			return nil
		})
	b.Add("pay").
		Permission("bank.pay").
		Arg(domain.Positional("amount", amountKey, mapper.IntKey)).
		Handle(func(*domain.CommandContext) error { return nil })
	b.Add("fail").Handle(func(*domain.CommandContext) error { return errors.New("boom") })
	b.Add("later").Async().Handle(func(*domain.CommandContext) error { return nil })
	_, err := b.RegisterTo(d)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close(context.Background()) })
	return d
}

func newServer(t *testing.T, d Dispatcher, opts ...Option) http.Handler {
	t.Helper()
	h, err := NewHandler(d, opts...)
	require.NoError(t, err)
	return h
}

func postDispatch(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/dispatch", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w, out
}

func TestDispatch(t *testing.T) {
	h := newServer(t, newDispatcher(t))

	tests := []struct {
		name    string
		body    string
		code    int
		kind    string
		closest string
	}{
		{name: "unknown command", body: `{"line": "gret bob"}`, code: http.StatusNotFound, kind: "routing", closest: "greet"},
		{name: "missing argument", body: `{"line": "greet"}`, code: http.StatusBadRequest, kind: "syntax"},
		{name: "bad number", body: `{"line": "pay ten", "subject": "admin"}`, code: http.StatusBadRequest, kind: "mapping"},
		{name: "forbidden", body: `{"line": "pay 10", "subject": "guest"}`, code: http.StatusForbidden, kind: "authorization"},
		{name: "handler error", body: `{"line": "fail"}`, code: http.StatusInternalServerError, kind: "handler"},
		{name: "control characters are stripped", body: `{"line": "greet \u0007"}`, code: http.StatusBadRequest, kind: "syntax"},
		{name: "invalid body", body: `{`, code: http.StatusBadRequest, kind: "request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, out := postDispatch(t, h, tt.body)
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.kind, out["kind"])
			if tt.closest != "" {
				assert.Equal(t, tt.closest, out["closest"])
			}
		})
	}

	t.Run("success with output", func(t *testing.T) {
		w, out := postDispatch(t, h, `{"line": "hi bob"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "greet|hi", out["route"])
		assert.Equal(t, "hello bob", out["output"])
		assert.Equal(t, map[string]any{"name": "bob"}, out["arguments"])
		assert.NotEmpty(t, out["dispatch_id"])
	})

	t.Run("subject header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/dispatch", strings.NewReader(`{"line": "pay 10"}`))
		req.Header.Set(SubjectHeader, "admin")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("async accepted", func(t *testing.T) {
		w, out := postDispatch(t, h, `{"line": "later"}`)
		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, true, out["async"])
	})
}

func TestDispatch_AsyncOutlivesRequest(t *testing.T) {
	d := newDispatcher(t)
	result := make(chan error, 1)
	b := dsl.New()
	b.Add("bg").Async().Handle(func(cc *domain.CommandContext) error {
		time.Sleep(100 * time.Millisecond)
		result <- cc.Context().Err()
		return nil
	})
	_, err := b.RegisterTo(d)
	require.NoError(t, err)

	srv := httptest.NewServer(newServer(t, d))
	t.Cleanup(srv.Close)

	resp, err := http.Post(srv.URL+"/dispatch", "application/json", strings.NewReader(`{"line": "bg"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	select {
	case err := <-result:
		assert.NoError(t, err, "async handler context must survive the response")
	case <-time.After(5 * time.Second):
		t.Fatal("async handler did not run")
	}
}

func TestSuggestSyntaxAndCommands(t *testing.T) {
	h := newServer(t, newDispatcher(t))

	get := func(path string) map[string]any {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var out map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		return out
	}

	out := get("/suggest?line=" + url.QueryEscape("g"))
	assert.Equal(t, []any{"greet", "hi", "pay", "fail", "later"}, out["suggestions"])

	out = get("/syntax?line=" + url.QueryEscape("hi"))
	assert.Equal(t, "greet <name>", out["syntax"])

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/commands", nil))
	var cmds []CommandInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cmds))
	require.Len(t, cmds, 4)
	assert.Equal(t, CommandInfo{Route: "greet|hi", Usage: "greet <name>", Description: "Say hello"}, cmds[0])
	assert.Equal(t, "bank.pay", cmds[1].Permission)
}

func TestMetaEndpoints(t *testing.T) {
	h := newServer(t, newDispatcher(t))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/info", nil))
	var info map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "1.0.0", info["api_version"])
	assert.Equal(t, tendril.Version, info["version"])

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	assert.Equal(t, "text/yaml", w.Header().Get("Content-Type"))
	assert.True(t, bytes.Contains(w.Body.Bytes(), []byte("Tendril Command API")))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/dispatch", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusNotFound, w.Code, "events are off without a stream manager")
}

func TestLoadSpec(t *testing.T) {
	doc, err := LoadSpec(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths.Find("/dispatch"))
}

func TestSubscribeEvents(t *testing.T) {
	streams := NewStreamManager(nil)
	d := newDispatcher(t, tendril.WithLifecycleHooks(streams.Hooks()))
	srv := httptest.NewServer(newServer(t, d, WithStreams(streams)))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	require.True(t, scanner.Scan())
	assert.Equal(t, "event: ping", scanner.Text())

	require.NoError(t, d.Dispatch(nil, "greet bob"))

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: {") {
			continue
		}
		var evt Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &evt))
		assert.Equal(t, "dispatch", evt.Type)
		assert.Equal(t, "greet bob", evt.Line)
		assert.Equal(t, "greet|hi", evt.Route)
		return
	}
	t.Fatal("no dispatch event received")
}

func TestStreamManager_SlowClient(t *testing.T) {
	sm := NewStreamManager(nil)
	ch, cancel := sm.Subscribe()
	for i := 0; i < 20; i++ {
		sm.Broadcast("x")
	}
	assert.Len(t, ch, 10)
	cancel()
	cancel()
	_, ok := <-ch
	assert.True(t, ok, "buffered messages survive unsubscribe")
}
