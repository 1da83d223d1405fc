package injection_test

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Killjoybr/IA-CAI/pkg/finding"
	"github.com/Killjoybr/IA-CAI/pkg/httpclient"
	"github.com/Killjoybr/IA-CAI/pkg/injection"
	"github.com/Killjoybr/IA-CAI/pkg/params"
	"github.com/Killjoybr/IA-CAI/pkg/sqli"
	"github.com/Killjoybr/IA-CAI/pkg/xss"
)

// funcGetter adapts a function to httpclient.Getter and records calls.
type funcGetter struct {
	mu    sync.Mutex
	calls []string
	fn    func(rawURL string) (*httpclient.Page, error)
}

func (g *funcGetter) Get(_ context.Context, rawURL string) (*httpclient.Page, error) {
	g.mu.Lock()
	g.calls = append(g.calls, rawURL)
	g.mu.Unlock()
	return g.fn(rawURL)
}

func echoGetter() *funcGetter {
	return &funcGetter{fn: func(rawURL string) (*httpclient.Page, error) {
		u, _ := url.Parse(rawURL)
		return &httpclient.Page{URL: rawURL, StatusCode: 200, Body: []byte(u.Query().Encode())}, nil
	}}
}

func TestEngine_NoParamsNoRequests(t *testing.T) {
	g := &funcGetter{fn: func(string) (*httpclient.Page, error) {
		t.Fatal("no request expected")
		return nil, nil
	}}
	e := injection.NewEngine(g, nil)

	for _, u := range []string{"http://t.test/", "http://t.test/path?", "http://t.test/#frag", "http://[::1"} {
		for _, check := range []injection.Check{xss.New(), sqli.New()} {
			out := e.Test(context.Background(), u, check)
			assert.Empty(t, out.Findings, u)
			assert.Zero(t, out.Requests, u)
		}
	}
	assert.Empty(t, g.calls)
}

func TestEngine_RequestBoundAndParamNames(t *testing.T) {
	g := echoGetter()
	e := injection.NewEngine(g, nil)
	raw := "http://t.test/p?a=1&b=2&c=3"

	for _, check := range []injection.Check{xss.New(), sqli.New()} {
		g.calls = nil
		out := e.Test(context.Background(), raw, check)

		P, K := len(check.Payloads()), 3
		assert.Equal(t, P*K, out.Requests)
		assert.Len(t, g.calls, P*K)
		for _, f := range out.Findings {
			assert.Contains(t, []string{"a", "b", "c"}, f.Param)
			assert.Equal(t, check.Kind(), f.Kind)
		}
	}
}

func TestEngine_ProbeOrderAndSubstitution(t *testing.T) {
	g := echoGetter()
	e := injection.NewEngine(g, nil)

	_ = e.Test(context.Background(), "http://t.test/p?id=1&id=2&q=x", sqli.New("P1", "P2"))

	require.Len(t, g.calls, 4)
	want := []struct{ id, q []string }{
		{[]string{"P1"}, []string{"x"}},
		{[]string{"1"}, []string{"P1"}},
		{[]string{"P2"}, []string{"x"}},
		{[]string{"1"}, []string{"P2"}},
	}
	for i, call := range g.calls {
		m := params.Extract(call)
		assert.Equal(t, []string{"id", "q"}, m.Names(), "order kept")
		assert.Equal(t, want[i].id, m.Values("id"), "call %d", i)
		assert.Equal(t, want[i].q, m.Values("q"), "call %d", i)
	}
}

func TestXSS_ReflectedEcho(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<html><body>Results for %s</body></html>", r.URL.Query().Get("q"))
	}))
	defer srv.Close()

	e := injection.NewEngine(httpclient.NewFetcher(httpclient.DefaultConfig()), nil)
	out := e.Test(context.Background(), srv.URL+"/search?q=test", xss.New())

	require.NotEmpty(t, out.Findings)
	first := out.Findings[0]
	assert.Equal(t, finding.KindXSSReflected, first.Kind)
	assert.Equal(t, "q", first.Param)
	assert.Equal(t, `"><script>alert(1)</script>`, first.Payload)

	// The finding URL reproduces the exact triggering query.
	assert.Equal(t, []string{first.Payload}, params.Extract(first.URL).Values("q"))
	assert.True(t, strings.HasPrefix(first.URL, srv.URL+"/search?"))
}

func TestXSS_EscapedEchoIsNotAFinding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<p>%s</p>", html.EscapeString(r.URL.Query().Get("q")))
	}))
	defer srv.Close()

	e := injection.NewEngine(httpclient.NewFetcher(httpclient.DefaultConfig()), nil)
	out := e.Test(context.Background(), srv.URL+"/?q=1", xss.New())
	assert.Empty(t, out.Findings)
	assert.Equal(t, 2, out.Requests)
}

func TestSQLi_ErrorSignature(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if strings.ContainsAny(id, `'"`) {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, "Warning: MySQL error near '"+id+"'")
			return
		}
		fmt.Fprint(w, "item "+id)
	}))
	defer srv.Close()

	e := injection.NewEngine(httpclient.NewFetcher(httpclient.DefaultConfig()), nil)
	out := e.Test(context.Background(), srv.URL+"/item?id=7&sort=asc", sqli.New())

	require.Len(t, out.Findings, 4, "every payload trips id; sort is never reflected into SQL")
	for i, f := range out.Findings {
		assert.Equal(t, finding.KindSQLiErrorBased, f.Kind)
		assert.Equal(t, "id", f.Param)
		assert.Equal(t, sqli.DefaultPayloads()[i], f.Payload)
		assert.Contains(t, f.Detail, "warning: mysql")
	}
}

func TestEngine_FailuresAreSwallowedPerPair(t *testing.T) {
	boom := errors.New("boom")
	g := &funcGetter{fn: func(rawURL string) (*httpclient.Page, error) {
		if strings.Contains(rawURL, "a=FAIL") {
			return nil, boom
		}
		return &httpclient.Page{URL: rawURL, Body: []byte("you have an error in your SQL syntax")}, nil
	}}
	e := injection.NewEngine(g, nil)

	out := e.Test(context.Background(), "http://t.test/?a=1&b=2", sqli.New("FAIL", "OK"))
	assert.Equal(t, 4, out.Requests)
	assert.Len(t, out.Errors, 1)
	assert.ErrorIs(t, out.Err(), boom)
	assert.Len(t, out.Findings, 3)
}

func TestEngine_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := echoGetter()
	out := injection.NewEngine(g, nil).Test(ctx, "http://t.test/?a=1", xss.New())
	assert.Empty(t, g.calls)
	assert.ErrorIs(t, out.Err(), context.Canceled)
}
