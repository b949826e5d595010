package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"pixelpanic/internal/core/apperr"
	"pixelpanic/internal/core/logger"
	authports "pixelpanic/internal/features/auth/ports"
	checkout "pixelpanic/internal/features/checkout/domain"
	checkoutports "pixelpanic/internal/features/checkout/ports"
	"pixelpanic/internal/features/technicians/domain"
	"pixelpanic/internal/features/technicians/ports"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrGigNotFound is returned when the order does not exist or is assigned to someone else.
var ErrGigNotFound = errors.New("gig not found")

const sniffLen = 3072

// Options tunes completion codes.
type Options struct {
	CodeTTL     time.Duration
	MaxAttempts int
}

// GigService drives the technician side of an order.
type GigService struct {
	orders      checkoutports.OrderRepository
	completions ports.CompletionRepository
	codes       ports.CodeStore
	sms         authports.SMSSender
	photos      ports.PhotoStorage
	opts        Options
	log         *zap.Logger
}

// NewGigService creates a new instance of GigService.
func NewGigService(orders checkoutports.OrderRepository, completions ports.CompletionRepository, codes ports.CodeStore, sms authports.SMSSender, photos ports.PhotoStorage, opts Options) *GigService {
	if opts.CodeTTL <= 0 {
		opts.CodeTTL = 24 * time.Hour
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	return &GigService{
		orders:      orders,
		completions: completions,
		codes:       codes,
		sms:         sms,
		photos:      photos,
		opts:        opts,
		log:         logger.Named("gigs"),
	}
}

// ListMine returns the gigs assigned to technicianID.
func (s *GigService) ListMine(ctx context.Context, technicianID uuid.UUID, filter domain.Filter) ([]domain.Gig, error) {
	orders, err := s.orders.List(ctx, checkoutports.OrderFilter{
		Statuses:     filter.Statuses(),
		TechnicianID: &technicianID,
		Limit:        200,
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to list gigs: %w", err)
	}

	gigs := make([]domain.Gig, 0, len(orders))
	for i := range orders {
		gigs = append(gigs, domain.NewGig(&orders[i]))
	}
	return gigs, nil
}

// ChangeStatus applies a technician status change. Only confirmed to in_progress is
// allowed; starting a gig texts a completion code to the customer.
func (s *GigService) ChangeStatus(ctx context.Context, technicianID, orderID uuid.UUID, to string) error {
	target, err := checkout.ParseOrderStatus(to)
	if err != nil {
		return apperr.Invalid("to", err.Error())
	}

	order, err := s.assigned(ctx, technicianID, orderID)
	if err != nil {
		return err
	}
	if target != checkout.OrderStatusInProgress {
		return &apperr.InvalidTransitionError{From: string(order.Status), To: string(target)}
	}

	if err := s.orders.Transition(ctx, orderID, target, "gig_started", map[string]any{
		"technician_id": technicianID.String(),
	}); err != nil {
		return err
	}

	if err := s.issueCode(ctx, order); err != nil {
		s.log.Error("Failed to issue completion code", zap.String("order_id", orderID.String()), zap.Error(err))
	}
	return nil
}

// ResendCode issues a fresh completion code for an in-progress gig.
func (s *GigService) ResendCode(ctx context.Context, technicianID, orderID uuid.UUID) error {
	order, err := s.assigned(ctx, technicianID, orderID)
	if err != nil {
		return err
	}
	if order.Status != checkout.OrderStatusInProgress {
		return &apperr.InvalidTransitionError{From: string(order.Status), To: string(checkout.OrderStatusCompleted)}
	}
	return s.issueCode(ctx, order)
}

// Complete verifies the customer code and records the completion.
func (s *GigService) Complete(ctx context.Context, technicianID, orderID uuid.UUID, req domain.CompletionRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	for _, url := range req.Photos {
		if !s.photos.Exists(ctx, url) {
			return apperr.Invalid("photos", "photo not found: "+url)
		}
	}

	order, err := s.assigned(ctx, technicianID, orderID)
	if err != nil {
		return err
	}
	if err := order.Status.Transition(checkout.OrderStatusCompleted); err != nil {
		return err
	}

	if err := s.verifyCode(ctx, orderID, strings.TrimSpace(req.OTP)); err != nil {
		return err
	}

	if err := s.completions.Complete(ctx, orderID, technicianID, strings.TrimSpace(req.Notes), req.Photos); err != nil {
		return err
	}

	if err := s.codes.Delete(ctx, orderID); err != nil {
		s.log.Warn("Failed to delete completion code", zap.String("order_id", orderID.String()), zap.Error(err))
	}
	s.log.Info("Gig completed",
		zap.String("order_id", orderID.String()),
		zap.Int("photos", len(req.Photos)),
	)
	return nil
}

// UploadPhoto sniffs the image type and stores the file under folder.
func (s *GigService) UploadPhoto(ctx context.Context, folder string, size int64, r io.Reader) (string, error) {
	if size > domain.MaxUploadBytes {
		return "", apperr.Invalid("file", "photos must be 10 MB or smaller")
	}
	folder, err := domain.SanitizeFolder(folder)
	if err != nil {
		return "", err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("service: failed to read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return "", apperr.Invalid("file", "file is empty")
	}

	ext, ok := domain.ImageExtension(mimetype.Detect(head).String())
	if !ok {
		return "", apperr.Invalid("file", "only JPEG, PNG, WebP or HEIC photos are accepted")
	}

	body := io.LimitReader(io.MultiReader(bytes.NewReader(head), r), domain.MaxUploadBytes)
	url, err := s.photos.Save(ctx, folder, uuid.NewString()+ext, body)
	if err != nil {
		return "", fmt.Errorf("service: failed to store photo: %w", err)
	}
	return url, nil
}

func (s *GigService) assigned(ctx context.Context, technicianID, orderID uuid.UUID) (*checkout.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		var nf *apperr.NotFoundError
		if errors.As(err, &nf) {
			return nil, ErrGigNotFound
		}
		return nil, fmt.Errorf("service: failed to load gig: %w", err)
	}
	if order.TechnicianID == nil || *order.TechnicianID != technicianID {
		return nil, ErrGigNotFound
	}
	return order, nil
}

func (s *GigService) issueCode(ctx context.Context, order *checkout.Order) error {
	code, err := randomDigits(domain.CompletionCodeLength)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash completion code: %w", err)
	}
	if err := s.codes.Save(ctx, order.ID, hash, s.opts.CodeTTL); err != nil {
		return fmt.Errorf("failed to store completion code: %w", err)
	}

	phone := ""
	if order.Customer != nil {
		phone = order.Customer.PhoneNumber
	}
	if order.Address != nil && order.Address.Phone != "" {
		phone = order.Address.Phone
	}
	msg := fmt.Sprintf("Your PixelPanic technician has started on order %s. Share code %s with them once the repair is done.", order.OrderNumber, code)
	return s.sms.Send(ctx, phone, msg)
}

func (s *GigService) verifyCode(ctx context.Context, orderID uuid.UUID, code string) error {
	hash, err := s.codes.Get(ctx, orderID)
	if errors.Is(err, ports.ErrCodeNotFound) {
		return domain.ErrCodeExpired
	}
	if err != nil {
		return fmt.Errorf("service: failed to load completion code: %w", err)
	}

	attempts, err := s.codes.Failures(ctx, orderID)
	if err != nil {
		return fmt.Errorf("service: failed to read attempts: %w", err)
	}
	if attempts >= int64(s.opts.MaxAttempts) {
		s.burnCode(ctx, orderID)
		return domain.ErrTooManyAttempts
	}

	if bcrypt.CompareHashAndPassword(hash, []byte(code)) == nil {
		return nil
	}

	attempts, err = s.codes.RecordFailure(ctx, orderID, s.opts.CodeTTL)
	if err != nil {
		return fmt.Errorf("service: failed to record attempt: %w", err)
	}
	if attempts >= int64(s.opts.MaxAttempts) {
		s.burnCode(ctx, orderID)
		return domain.ErrTooManyAttempts
	}
	return domain.ErrCodeMismatch
}

func (s *GigService) burnCode(ctx context.Context, orderID uuid.UUID) {
	if err := s.codes.Delete(ctx, orderID); err != nil {
		s.log.Warn("Failed to burn completion code", zap.Error(err))
	}
}

func randomDigits(n int) (string, error) {
	var b strings.Builder
	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}
