package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/vibewear/api/internal/config"
	"github.com/vibewear/api/internal/model"
)

func newProxy(t *testing.T, handler http.HandlerFunc) *DesignProxyClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewDesignProxyClientWithHTTP(srv.URL+"/proxy/generate-design", srv.Client())
}

func TestInvokeSendsPromptAndQuality(t *testing.T) {
	var got model.DesignProxyRequest
	c := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/proxy/generate-design" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"url":"https://img.example/fox.png","revised_prompt":"a red fox, revised"}`))
	})

	res, err := c.Invoke(context.Background(), "a red fox. Style: x", "")
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got.Prompt != "a red fox. Style: x" || got.Quality != model.QualityStandard {
		t.Errorf("unexpected request body: %+v", got)
	}
	if res.URL != "https://img.example/fox.png" || res.RevisedPrompt != "a red fox, revised" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestInvokeRemoteErrorFromJSONBody(t *testing.T) {
	c := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	})

	_, err := c.Invoke(context.Background(), "p", model.QualityHigh)
	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *RemoteError, got %v", err)
	}
	if rerr.Status != http.StatusInternalServerError || rerr.Message != "boom" {
		t.Errorf("unexpected remote error: %+v", rerr)
	}
}

func TestInvokeRemoteErrorCarriesProviderCode(t *testing.T) {
	c := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Your request was rejected","code":"content_policy_violation"}`))
	})

	_, err := c.Invoke(context.Background(), "p", "")
	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *RemoteError, got %v", err)
	}
	if rerr.Code != "content_policy_violation" {
		t.Errorf("expected code, got %+v", rerr)
	}
}

func TestInvokeRemoteErrorToleratesNonJSON(t *testing.T) {
	c := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream timed out\n"))
	})

	_, err := c.Invoke(context.Background(), "p", "")
	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *RemoteError, got %v", err)
	}
	if rerr.Status != http.StatusBadGateway || rerr.Message != "upstream timed out" {
		t.Errorf("unexpected remote error: %+v", rerr)
	}
}

func TestInvokeRemoteErrorEmptyBody(t *testing.T) {
	c := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Invoke(context.Background(), "p", "")
	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *RemoteError, got %v", err)
	}
	if !strings.Contains(rerr.Message, "503") {
		t.Errorf("expected status in fallback message, got %q", rerr.Message)
	}
}

func TestInvokeConvertsBase64ToDataURL(t *testing.T) {
	c := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"b64_json":"iVBORw0KGgo="}`))
	})

	res, err := c.Invoke(context.Background(), "p", "")
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res.URL != "data:image/png;base64,iVBORw0KGgo=" {
		t.Errorf("unexpected url %q", res.URL)
	}

	encoded, _ := json.Marshal(res)
	if strings.Contains(string(encoded), "b64_json") {
		t.Errorf("raw base64 field leaked: %s", encoded)
	}
}

func TestInvokeMissingResult(t *testing.T) {
	c := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"revised_prompt":"nothing"}`))
	})

	_, err := c.Invoke(context.Background(), "p", "")
	if !errors.Is(err, ErrMissingResult) {
		t.Fatalf("expected ErrMissingResult, got %v", err)
	}
}

func TestInvokeErrorFieldOnSuccessStatus(t *testing.T) {
	c := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"quota"}`))
	})

	_, err := c.Invoke(context.Background(), "p", "")
	var rerr *RemoteError
	if !errors.As(err, &rerr) || rerr.Message != "quota" {
		t.Fatalf("expected RemoteError quota, got %v", err)
	}
}

func TestInvokeSendsProxySecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(model.HeaderProxySecret); got != "edge-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Unauthorized","code":"unauthorized"}`))
			return
		}
		w.Write([]byte(`{"url":"https://img.example/fox.png"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewDesignProxyClient(&config.ProxyConfig{DesignURL: srv.URL, Secret: "edge-secret", Timeout: 5 * time.Second})
	if _, err := c.Invoke(context.Background(), "p", ""); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
}

func TestInvokeRemoteErrorTruncatesOnRuneBoundary(t *testing.T) {
	// byte 512 falls inside a two-byte rune
	text := "a" + strings.Repeat("é", 300)
	c := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(text))
	})

	_, err := c.Invoke(context.Background(), "p", "")
	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *RemoteError, got %v", err)
	}
	if !utf8.ValidString(rerr.Message) {
		t.Errorf("message split a rune: %q", rerr.Message[len(rerr.Message)-4:])
	}
	if len(rerr.Message) != 511 || !strings.HasPrefix(text, rerr.Message) {
		t.Errorf("unexpected truncation to %d bytes", len(rerr.Message))
	}
}
