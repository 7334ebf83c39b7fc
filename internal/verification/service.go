// AngelaMos | 2026
// service.go

package verification

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"

	"github.com/parkwise-dev/parkwise-backend/internal/core"
)

const (
	minDigits = 4
	maxDigits = 10
)

// Sender delivers an issued code to its recipient. Templated email rendering
// lives outside this service; the dev sender just logs.
type Sender interface {
	Send(ctx context.Context, email, code string) error
}

type Service struct {
	repo   Repository
	sender Sender
}

func NewService(repo Repository, sender Sender) *Service {
	return &Service{repo: repo, sender: sender}
}

// Generate draws a uniformly distributed numeric code with exactly digits
// digits, persists it, and hands it to the sender. Earlier codes for the
// same email stay valid; generation is append-only and never conflicts
// under concurrency.
func (s *Service) Generate(
	ctx context.Context,
	email string,
	digits int,
) (string, error) {
	if digits < minDigits || digits > maxDigits {
		return "", fmt.Errorf(
			"code length %d outside %d..%d: %w",
			digits, minDigits, maxDigits, core.ErrInvalidArgument,
		)
	}

	code, err := randomCode(digits)
	if err != nil {
		return "", fmt.Errorf("draw verification code: %w", err)
	}

	record := &Code{
		ID:    uuid.New().String(),
		Email: strings.TrimSpace(email),
		Code:  code,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return "", err
	}

	if s.sender != nil {
		if err := s.sender.Send(ctx, record.Email, code); err != nil {
			return "", fmt.Errorf("send verification code: %w", err)
		}
	}

	return code, nil
}

// Validate reports whether any record matches the trimmed email/code pair.
// It does not consume the code and does not check its age.
func (s *Service) Validate(ctx context.Context, email, code string) (bool, error) {
	return s.repo.Exists(
		ctx,
		strings.TrimSpace(email),
		strings.TrimSpace(code),
	)
}

// randomCode maps secure randomness uniformly into
// [10^(digits-1), 10^digits - 1], so the result never has a leading zero.
func randomCode(digits int) (string, error) {
	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits-1)), nil)
	span := new(big.Int).Mul(low, big.NewInt(9))

	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", err
	}

	return n.Add(n, low).String(), nil
}
