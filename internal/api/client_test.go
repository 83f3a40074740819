package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c, err := NewClient(Config{BaseURL: ts.URL + "/"}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestUpdateAvatarSendsMultipart(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method != http.MethodPost || r.URL.Path != AvatarPath {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		f, hdr, err := r.FormFile(AvatarField)
		if err != nil {
			t.Errorf("FormFile: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		b, _ := io.ReadAll(f)
		if hdr.Filename != "me.png" || string(b) != "PNGDATA" {
			t.Errorf("file = %q %q", hdr.Filename, b)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"avatar_url":"/x.png"}`))
	})

	resp, err := c.UpdateAvatar(context.Background(), "me.png", strings.NewReader("PNGDATA"))
	if err != nil {
		t.Fatalf("UpdateAvatar: %v", err)
	}
	if !resp.Success || resp.AvatarURL != "/x.png" {
		t.Errorf("resp = %+v", resp)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestUpdateAvatarFailureBodyIsReturned(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"too large"}`))
	})
	resp, err := c.UpdateAvatar(context.Background(), "a.png", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("UpdateAvatar: %v", err)
	}
	if resp.Success || resp.Message != "too large" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestUpdateAvatarNonJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	_, err := c.UpdateAvatar(context.Background(), "a.png", strings.NewReader("x"))
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadGateway {
		t.Fatalf("err = %v", err)
	}
}

func TestUpdateAvatarTruncatedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "200")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":tr`))
	})
	_, err := c.UpdateAvatar(context.Background(), "a.png", strings.NewReader("x"))
	if err == nil {
		t.Fatal("expected read error")
	}
	var se *StatusError
	if errors.As(err, &se) {
		t.Fatalf("truncated body reported as status error: %v", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("err = %v", err)
	}
}

func TestToggleFavoriteStatus(t *testing.T) {
	for _, tc := range []struct {
		code    int
		wantErr bool
	}{
		{http.StatusOK, false},
		{http.StatusNoContent, false},
		{http.StatusNotFound, true},
		{http.StatusInternalServerError, true},
	} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/toggle_favorite/42" {
				t.Errorf("path = %s", r.URL.Path)
			}
			w.WriteHeader(tc.code)
		})
		err := c.ToggleFavorite(context.Background(), 42)
		if (err != nil) != tc.wantErr {
			t.Errorf("status %d: err = %v", tc.code, err)
		}
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Config{}, zerolog.Nop()); err == nil {
		t.Fatal("expected error")
	}
}
