// Package avatar drives the avatar-upload modal: Idle -> Submitting ->
// Idle, with the modal closed on success or an error shown on failure.
package avatar

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mediapage/internal/api"
)

const (
	GenericError   = "Failed to update avatar. Please try again."
	SuccessMessage = "Avatar updated"
)

var (
	ErrNoFile   = errors.New("avatar: no file selected")
	ErrBusy     = errors.New("avatar: upload in progress")
	ErrRejected = errors.New("avatar: rejected by server")
)

type Uploader interface {
	UpdateAvatar(ctx context.Context, filename string, data io.Reader) (api.AvatarResponse, error)
}

// Modal is the dialog hosting the upload form.
type Modal interface {
	Show()
	Hide()
}

// Dialog is a Modal that only records visibility.
type Dialog struct {
	mu   sync.Mutex
	open bool
}

func (d *Dialog) Show() {
	d.mu.Lock()
	d.open = true
	d.mu.Unlock()
}

func (d *Dialog) Hide() {
	d.mu.Lock()
	d.open = false
	d.mu.Unlock()
}

func (d *Dialog) Open() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

type File struct {
	Name string
	Data []byte
}

type State int

const (
	Idle State = iota
	Submitting
)

// View is what the page shows for the avatar widget.
type View struct {
	AvatarSrc      string
	ErrorText      string
	InputInvalid   bool
	SubmitDisabled bool
	Loading        bool
}

type Result struct {
	AvatarSrc string // cache-busted src now displayed
	Message   string // text shown to the user
	Err       error
}

func (r Result) OK() bool { return r.Err == nil }

type Controller struct {
	up     Uploader
	modal  Modal
	toasts *Toasts
	log    zerolog.Logger
	now    func() time.Time

	mu       sync.Mutex
	state    State
	selected *File
	view     View
}

func NewController(up Uploader, modal Modal, toasts *Toasts, avatarSrc string, log zerolog.Logger) *Controller {
	return &Controller{
		up:     up,
		modal:  modal,
		toasts: toasts,
		log:    log,
		now:    time.Now,
		view:   View{AvatarSrc: avatarSrc},
	}
}

// Open shows the modal with prior error and selection cleared.
func (c *Controller) Open() {
	c.mu.Lock()
	c.selected = nil
	c.view.ErrorText = ""
	c.view.InputInvalid = false
	c.mu.Unlock()
	c.modal.Show()
}

// Select sets the file chosen in the file input; nil clears it.
func (c *Controller) Select(f *File) {
	c.mu.Lock()
	c.selected = f
	c.mu.Unlock()
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit uploads the selected file. With nothing selected it returns
// ErrNoFile and changes nothing. The submit control stays disabled until
// the call settles either way.
func (c *Controller) Submit(ctx context.Context) Result {
	c.mu.Lock()
	if c.state == Submitting {
		c.mu.Unlock()
		return Result{Err: ErrBusy}
	}
	f := c.selected
	if f == nil {
		c.mu.Unlock()
		return Result{Err: ErrNoFile}
	}
	c.state = Submitting
	c.view.SubmitDisabled = true
	c.view.Loading = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state = Idle
		c.view.SubmitDisabled = false
		c.view.Loading = false
		c.mu.Unlock()
	}()

	resp, err := c.up.UpdateAvatar(ctx, f.Name, bytes.NewReader(f.Data))
	if err != nil {
		c.log.Error().Err(err).Str("file", f.Name).Msg("avatar upload failed")
		return c.fail(GenericError, err)
	}
	if !resp.Success {
		msg := strings.TrimSpace(resp.Message)
		if msg == "" {
			msg = GenericError
		}
		c.log.Warn().Str("file", f.Name).Str("message", msg).Msg("avatar rejected")
		return c.fail(msg, ErrRejected)
	}

	src := cacheBust(resp.AvatarURL, c.now())
	c.mu.Lock()
	c.view.AvatarSrc = src
	c.selected = nil
	c.mu.Unlock()

	c.modal.Hide()
	if c.toasts != nil {
		c.toasts.Show(SuccessMessage)
	}
	return Result{AvatarSrc: src, Message: SuccessMessage}
}

// SubmitAsync runs Submit in the background and delivers exactly one Result.
func (c *Controller) SubmitAsync(ctx context.Context) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		out <- c.Submit(ctx)
	}()
	return out
}

func (c *Controller) fail(msg string, err error) Result {
	c.mu.Lock()
	c.view.ErrorText = msg
	c.view.InputInvalid = true
	src := c.view.AvatarSrc
	c.mu.Unlock()
	return Result{AvatarSrc: src, Message: msg, Err: err}
}

func cacheBust(url string, t time.Time) string {
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + strconv.FormatInt(t.UnixMilli(), 10)
}
