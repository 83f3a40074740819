package avatar

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"mediapage/internal/api"
)

func newController(t *testing.T, h http.HandlerFunc) (*Controller, *Dialog, *Toasts) {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	client, err := api.NewClient(api.Config{BaseURL: ts.URL}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	d := &Dialog{}
	toasts := NewToasts(time.Hour)
	t.Cleanup(toasts.Close)
	c := NewController(client, d, toasts, "/static/default.png", zerolog.Nop())
	c.now = func() time.Time { return time.UnixMilli(1700000000123) }
	return c, d, toasts
}

func TestSubmitSuccess(t *testing.T) {
	var posts atomic.Int32
	c, d, toasts := newController(t, func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		f, _, err := r.FormFile(api.AvatarField)
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		if b, _ := io.ReadAll(f); string(b) != "img" {
			t.Errorf("body = %q", b)
		}
		_, _ = w.Write([]byte(`{"success":true,"avatar_url":"/x.png"}`))
	})

	c.Open()
	if !d.Open() {
		t.Fatal("modal not shown")
	}
	c.Select(&File{Name: "me.png", Data: []byte("img")})
	res := c.Submit(context.Background())
	if !res.OK() {
		t.Fatalf("res = %+v", res)
	}
	if want := "/x.png?1700000000123"; res.AvatarSrc != want || c.View().AvatarSrc != want {
		t.Errorf("src = %q / %q, want %q", res.AvatarSrc, c.View().AvatarSrc, want)
	}
	if d.Open() {
		t.Error("modal still open")
	}
	if got := toasts.Active(); len(got) != 1 || got[0] != SuccessMessage {
		t.Errorf("toasts = %v", got)
	}
	v := c.View()
	if v.SubmitDisabled || v.Loading || v.ErrorText != "" || v.InputInvalid {
		t.Errorf("view = %+v", v)
	}
	if posts.Load() != 1 {
		t.Errorf("posts = %d, want 1", posts.Load())
	}

	// the file was consumed
	if res := c.Submit(context.Background()); !errors.Is(res.Err, ErrNoFile) {
		t.Errorf("resubmit err = %v", res.Err)
	}
}

func TestSubmitServerRejects(t *testing.T) {
	c, d, _ := newController(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"too large"}`))
	})
	c.Open()
	c.Select(&File{Name: "big.png", Data: []byte("x")})

	res := c.Submit(context.Background())
	if !errors.Is(res.Err, ErrRejected) {
		t.Fatalf("err = %v", res.Err)
	}
	v := c.View()
	if v.ErrorText != "too large" || !v.InputInvalid {
		t.Errorf("view = %+v", v)
	}
	if v.AvatarSrc != "/static/default.png" {
		t.Errorf("avatar changed to %q", v.AvatarSrc)
	}
	if v.SubmitDisabled {
		t.Error("submit left disabled")
	}
	if !d.Open() {
		t.Error("modal closed on failure")
	}

	// reopening clears the error
	c.Open()
	if v := c.View(); v.ErrorText != "" || v.InputInvalid {
		t.Errorf("after reopen: %+v", v)
	}
	if res := c.Submit(context.Background()); !errors.Is(res.Err, ErrNoFile) {
		t.Errorf("selection survived reopen: %v", res.Err)
	}
}

func TestSubmitRejectWithoutMessage(t *testing.T) {
	c, _, _ := newController(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false}`))
	})
	c.Select(&File{Name: "a.png", Data: []byte("x")})
	res := c.Submit(context.Background())
	if res.Message != GenericError || c.View().ErrorText != GenericError {
		t.Errorf("res = %+v", res)
	}
}

func TestSubmitTransportFailure(t *testing.T) {
	c, _, _ := newController(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})
	c.Select(&File{Name: "a.png", Data: []byte("x")})
	res := c.Submit(context.Background())
	var se *api.StatusError
	if !errors.As(res.Err, &se) {
		t.Fatalf("err = %v", res.Err)
	}
	if v := c.View(); v.ErrorText != GenericError || !v.InputInvalid || v.SubmitDisabled {
		t.Errorf("view = %+v", v)
	}
}

func TestSubmitWithoutFileIsSilent(t *testing.T) {
	var posts atomic.Int32
	c, _, _ := newController(t, func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
	})
	res := c.Submit(context.Background())
	if !errors.Is(res.Err, ErrNoFile) {
		t.Fatalf("err = %v", res.Err)
	}
	if posts.Load() != 0 {
		t.Error("request sent without a file")
	}
	if v := c.View(); v.ErrorText != "" || v.InputInvalid {
		t.Errorf("view = %+v", v)
	}
}

type blockingUploader struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingUploader) UpdateAvatar(ctx context.Context, _ string, _ io.Reader) (api.AvatarResponse, error) {
	close(b.started)
	<-b.release
	return api.AvatarResponse{Success: true, AvatarURL: "/y.png"}, nil
}

func TestSubmitDisabledWhileInFlight(t *testing.T) {
	up := &blockingUploader{started: make(chan struct{}), release: make(chan struct{})}
	c := NewController(up, &Dialog{}, nil, "", zerolog.Nop())
	c.Select(&File{Name: "a.png", Data: []byte("x")})

	done := c.SubmitAsync(context.Background())
	<-up.started

	if c.State() != Submitting {
		t.Errorf("state = %v", c.State())
	}
	if v := c.View(); !v.SubmitDisabled || !v.Loading {
		t.Errorf("in-flight view = %+v", v)
	}
	if res := c.Submit(context.Background()); !errors.Is(res.Err, ErrBusy) {
		t.Errorf("second submit err = %v", res.Err)
	}

	close(up.release)
	res := <-done
	if !res.OK() {
		t.Fatalf("res = %+v", res)
	}
	if v := c.View(); v.SubmitDisabled || v.Loading {
		t.Errorf("settled view = %+v", v)
	}
	if c.State() != Idle {
		t.Errorf("state = %v", c.State())
	}
}

func TestToastsExpire(t *testing.T) {
	toasts := NewToasts(10 * time.Millisecond)
	defer toasts.Close()
	toasts.Show("hi")
	if len(toasts.Active()) != 1 {
		t.Fatal("toast not shown")
	}
	deadline := time.Now().Add(2 * time.Second)
	for len(toasts.Active()) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("toast never removed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCacheBust(t *testing.T) {
	ts := time.UnixMilli(42)
	if got := cacheBust("/a.png", ts); got != "/a.png?42" {
		t.Errorf("got %q", got)
	}
	if got := cacheBust("/a.png?v=1", ts); got != "/a.png?v=1&42" {
		t.Errorf("got %q", got)
	}
}
