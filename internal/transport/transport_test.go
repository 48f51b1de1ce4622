package transport

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetSendsUserAgentAndReturnsBody(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	tr := NewHTTP(Options{UserAgent: "bhub/test"})
	b, err := tr.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(b) != "hello" {
		t.Fatalf("unexpected body %q", b)
	}
	if gotUA != "bhub/test" {
		t.Fatalf("unexpected user agent %q", gotUA)
	}
}

func TestGetNon2xxIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTP(Options{}).Get(context.Background(), srv.URL)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", se.Code)
	}
}

func TestDownloadStreamsToWriter(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 10000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	n, err := NewHTTP(Options{}).Download(context.Background(), srv.URL, &buf)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if n != int64(len(payload)) || !bytes.Equal(buf.Bytes(), payload) {
		t.Fatalf("download mismatch: n=%d len=%d", n, buf.Len())
	}
}

func TestDownloadFailsWithoutWriting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	if _, err := NewHTTP(Options{}).Download(context.Background(), srv.URL, &buf); err == nil {
		t.Fatalf("expected error")
	}
	if buf.Len() != 0 {
		t.Fatalf("error body leaked into writer: %q", buf.String())
	}
}

func TestGetNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()
	if _, err := NewHTTP(Options{}).Get(context.Background(), url); err == nil {
		t.Fatalf("expected network error")
	}
}

func TestGetRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	b, err := NewHTTP(Options{MaxResponseSize: 10}).Get(context.Background(), srv.URL)
	if err != nil || string(b) != "0123456789" {
		t.Fatalf("body at the limit should pass: %q %v", b, err)
	}
	b, err = NewHTTP(Options{MaxResponseSize: 9}).Get(context.Background(), srv.URL)
	if !errors.Is(err, ErrResponseTooLarge) {
		t.Fatalf("expected ErrResponseTooLarge, got %v", err)
	}
	if b != nil {
		t.Fatalf("oversized body must not be returned, got %q", b)
	}
}
