package domain

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"time"
)

// OrderNumberScheme selects the human readable order number layout.
type OrderNumberScheme string

const (
	// SchemeSimple is PP-YYYY-NNNN.
	SchemeSimple OrderNumberScheme = "simple"
	// SchemeRandom is PP-YYYYMMDD-NNN-XXXX.
	SchemeRandom OrderNumberScheme = "random"
)

const suffixAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ErrInvalidOrderNumber is returned for any string that is not a canonical order number.
var ErrInvalidOrderNumber = errors.New("invalid order number")

var (
	simplePattern = regexp.MustCompile(`^PP-([0-9]{4})-([0-9]{4,9})$`)
	randomPattern = regexp.MustCompile(`^PP-([0-9]{8})-([0-9]{3,9})-([A-Z0-9]{4})$`)
)

// OrderNumber is a parsed order number.
type OrderNumber struct {
	Scheme   OrderNumberScheme
	Year     int
	Date     time.Time // random scheme only
	Sequence int
	Suffix   string // random scheme only
}

// String formats n back into its canonical form.
func (n OrderNumber) String() string {
	if n.Scheme == SchemeRandom {
		return fmt.Sprintf("PP-%s-%03d-%s", n.Date.Format("20060102"), n.Sequence, n.Suffix)
	}
	return fmt.Sprintf("PP-%04d-%04d", n.Year, n.Sequence)
}

// FormatOrderNumber renders seq under scheme. suffix is only used by the random scheme
// and must be 4 uppercase alphanumerics. Padding is a minimum width.
func FormatOrderNumber(scheme OrderNumberScheme, seq int, now time.Time, suffix string) (string, error) {
	if seq < 1 {
		return "", fmt.Errorf("%w: sequence %d", ErrInvalidOrderNumber, seq)
	}
	switch scheme {
	case SchemeSimple:
		return OrderNumber{Scheme: scheme, Year: now.Year(), Sequence: seq}.String(), nil
	case SchemeRandom:
		if !isSuffix(suffix) {
			return "", fmt.Errorf("%w: suffix %q", ErrInvalidOrderNumber, suffix)
		}
		return OrderNumber{Scheme: scheme, Date: now, Sequence: seq, Suffix: suffix}.String(), nil
	default:
		return "", fmt.Errorf("%w: scheme %q", ErrInvalidOrderNumber, scheme)
	}
}

// NewOrderNumber formats seq with a random suffix drawn from crypto/rand.
func NewOrderNumber(scheme OrderNumberScheme, seq int, now time.Time) (string, error) {
	suffix, err := RandomSuffix()
	if err != nil {
		return "", err
	}
	return FormatOrderNumber(scheme, seq, now, suffix)
}

// RandomSuffix returns 4 uppercase alphanumeric characters.
func RandomSuffix() (string, error) {
	b := make([]byte, 4)
	limit := big.NewInt(int64(len(suffixAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate order suffix: %w", err)
		}
		b[i] = suffixAlphabet[n.Int64()]
	}
	return string(b), nil
}

// ParseOrderNumber recognises both layouts. Anything that would not be produced
// by FormatOrderNumber, including extra zero padding, is rejected.
func ParseOrderNumber(s string) (OrderNumber, error) {
	var n OrderNumber

	if m := simplePattern.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		seq, _ := strconv.Atoi(m[2])
		n = OrderNumber{Scheme: SchemeSimple, Year: year, Sequence: seq}
	} else if m := randomPattern.FindStringSubmatch(s); m != nil {
		date, err := time.Parse("20060102", m[1])
		if err != nil {
			return OrderNumber{}, fmt.Errorf("%w: %q", ErrInvalidOrderNumber, s)
		}
		seq, _ := strconv.Atoi(m[2])
		n = OrderNumber{Scheme: SchemeRandom, Year: date.Year(), Date: date, Sequence: seq, Suffix: m[3]}
	} else {
		return OrderNumber{}, fmt.Errorf("%w: %q", ErrInvalidOrderNumber, s)
	}

	if n.Sequence < 1 || n.String() != s {
		return OrderNumber{}, fmt.Errorf("%w: %q", ErrInvalidOrderNumber, s)
	}
	return n, nil
}

func isSuffix(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
