package portal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"

	checkout "pixelpanic/internal/features/checkout/domain"
	"pixelpanic/internal/features/technicians/domain"

	"go.uber.org/zap"
)

// GigAction is a forward step a technician can take on a gig.
type GigAction string

const (
	ActionStart    GigAction = "start"
	ActionComplete GigAction = "complete"
)

var (
	// ErrActionUnavailable is returned when the gig status offers no such action.
	ErrActionUnavailable = errors.New("this action is not available for the gig")
	// ErrGigGone is returned when a refresh no longer finds the gig among the technician's gigs.
	ErrGigGone = errors.New("gig is no longer assigned to you")
	// ErrPhotoLimit is returned when no more photos can be attached.
	ErrPhotoLimit = fmt.Errorf("at most %d photos can be attached", domain.MaxPhotos)
)

// Actions returns at most one forward action for status.
func Actions(status checkout.OrderStatus) []GigAction {
	switch status {
	case checkout.OrderStatusConfirmed:
		return []GigAction{ActionStart}
	case checkout.OrderStatusInProgress:
		return []GigAction{ActionComplete}
	default:
		return nil
	}
}

// ListGigs fetches the signed-in technician's gigs.
func (c *Client) ListGigs(ctx context.Context, filter domain.Filter) ([]domain.Gig, error) {
	var out struct {
		Gigs []domain.Gig `json:"gigs"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/technicians/me/gigs?status="+url.QueryEscape(string(filter)), nil, &out); err != nil {
		return nil, err
	}
	return out.Gigs, nil
}

// PhotoFile is a picture waiting to be uploaded.
type PhotoFile struct {
	Name string
	Data []byte
}

// UploadResult reports a sequential upload batch.
type UploadResult struct {
	// Accepted is every URL attached to the gig after the batch, earlier ones included.
	Accepted []string
	// Failed is the file that needs a retry, nil when the batch went through.
	Failed *PhotoFile
	// Skipped counts files dropped because the photo cap was reached.
	Skipped int
	Err     error
}

// GigWorkflow drives one gig from start to completion.
type GigWorkflow struct {
	client *Client

	mu     sync.Mutex
	gig    domain.Gig
	photos []string
	// reserved counts slots claimed by batches still uploading.
	reserved int
}

// NewGigWorkflow wraps a gig as last fetched from the server.
func NewGigWorkflow(c *Client, gig domain.Gig) *GigWorkflow {
	return &GigWorkflow{client: c, gig: gig}
}

// Gig returns the last fetched gig.
func (w *GigWorkflow) Gig() domain.Gig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gig
}

// Actions returns the action offered for the current status.
func (w *GigWorkflow) Actions() []GigAction {
	return Actions(w.Gig().Status)
}

// Photos returns the uploaded photo URLs.
func (w *GigWorkflow) Photos() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.photos...)
}

// RemovePhoto detaches photo before completion.
func (w *GigWorkflow) RemovePhoto(photo string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, p := range w.photos {
		if p == photo {
			w.photos = append(w.photos[:i], w.photos[i+1:]...)
			return
		}
	}
}

// Refresh re-reads the gig from the server.
func (w *GigWorkflow) Refresh(ctx context.Context) error {
	id := w.Gig().ID
	gigs, err := w.client.ListGigs(ctx, domain.FilterAll)
	if err != nil {
		return err
	}
	for _, g := range gigs {
		if g.ID == id {
			w.mu.Lock()
			w.gig = g
			w.mu.Unlock()
			return nil
		}
	}
	return ErrGigGone
}

// Start moves a confirmed gig to in_progress and then re-syncs from the server,
// whatever the status call answered.
func (w *GigWorkflow) Start(ctx context.Context) error {
	if !w.offers(ActionStart) {
		return ErrActionUnavailable
	}

	err := w.client.do(ctx, http.MethodPost, "/api/technicians/gigs/"+url.PathEscape(w.Gig().ID)+"/status",
		map[string]string{"to": string(checkout.OrderStatusInProgress)}, nil)

	if rerr := w.Refresh(ctx); rerr != nil {
		w.client.log.Warn("Failed to refresh gig", zap.Error(rerr))
		if err == nil {
			err = rerr
		}
	}
	return err
}

// UploadPhotos uploads files one at a time. The cap is applied before the first upload;
// files past it are skipped. Slots are reserved up front so concurrent batches never
// exceed the cap together. The first failure stops the batch and keeps every URL
// accepted so far.
func (w *GigWorkflow) UploadPhotos(ctx context.Context, files []PhotoFile) UploadResult {
	w.mu.Lock()
	room := domain.MaxPhotos - len(w.photos) - w.reserved
	if room <= 0 {
		w.mu.Unlock()
		return UploadResult{Accepted: w.Photos(), Skipped: len(files), Err: ErrPhotoLimit}
	}

	res := UploadResult{}
	if len(files) > room {
		res.Skipped = len(files) - room
		files = files[:room]
	}
	w.reserved += len(files)
	w.mu.Unlock()

	pending := len(files)
	defer func() {
		w.mu.Lock()
		w.reserved -= pending
		w.mu.Unlock()
	}()

	for i := range files {
		u, err := w.client.UploadPhoto(ctx, domain.DefaultFolder, files[i])
		if err != nil {
			failed := files[i]
			res.Failed, res.Err = &failed, err
			break
		}
		w.mu.Lock()
		w.photos = append(w.photos, u)
		w.reserved--
		pending--
		w.mu.Unlock()
	}

	res.Accepted = w.Photos()
	if res.Err == nil && res.Skipped > 0 {
		res.Err = ErrPhotoLimit
	}
	return res
}

// Complete submits the code, notes and photos in one request. The submission is
// validated locally first; nothing is sent when it is incomplete.
func (w *GigWorkflow) Complete(ctx context.Context, otp, notes string) error {
	if !w.offers(ActionComplete) {
		return ErrActionUnavailable
	}

	req := domain.CompletionRequest{
		OTP:    strings.TrimSpace(otp),
		Notes:  strings.TrimSpace(notes),
		Photos: w.Photos(),
	}
	if err := req.Validate(); err != nil {
		return err
	}

	err := w.client.do(ctx, http.MethodPost, "/api/technicians/gigs/"+url.PathEscape(w.Gig().ID)+"/complete", req, nil)
	var re *RemoteError
	if errors.As(err, &re) {
		return err
	}

	if rerr := w.Refresh(ctx); rerr != nil {
		w.client.log.Warn("Failed to refresh gig", zap.Error(rerr))
		if err == nil {
			err = rerr
		}
	}
	if err == nil {
		w.mu.Lock()
		w.photos = nil
		w.mu.Unlock()
	}
	return err
}

func (w *GigWorkflow) offers(action GigAction) bool {
	for _, a := range w.Actions() {
		if a == action {
			return true
		}
	}
	return false
}

// UploadPhoto sends one file as multipart form data and returns its URL.
func (c *Client) UploadPhoto(ctx context.Context, folder string, file PhotoFile) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("folder", folder); err != nil {
		return "", fmt.Errorf("portal: failed to build upload: %w", err)
	}
	part, err := mw.CreateFormFile("file", file.Name)
	if err != nil {
		return "", fmt.Errorf("portal: failed to build upload: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return "", fmt.Errorf("portal: failed to build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("portal: failed to build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/technicians/upload", &buf)
	if err != nil {
		return "", &TransportError{Op: "POST /api/technicians/upload", Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		URL string `json:"url"`
	}
	if err := c.send(req, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", &TransportError{Op: "POST /api/technicians/upload", Err: errors.New("response has no url")}
	}
	return out.URL, nil
}
