// AngelaMos | 2026
// service_test.go

package verification

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkwise-dev/parkwise-backend/internal/core"
)

type fakeCodeRepository struct {
	codes []Code
}

func (r *fakeCodeRepository) Create(_ context.Context, code *Code) error {
	r.codes = append(r.codes, *code)
	return nil
}

func (r *fakeCodeRepository) Exists(
	_ context.Context,
	email, code string,
) (bool, error) {
	for _, c := range r.codes {
		if c.Email == email && c.Code == code {
			return true, nil
		}
	}
	return false, nil
}

type recordingSender struct {
	sent []string
}

func (s *recordingSender) Send(_ context.Context, email, code string) error {
	s.sent = append(s.sent, email+":"+code)
	return nil
}

func TestGenerateCodeRange(t *testing.T) {
	repo := &fakeCodeRepository{}
	svc := NewService(repo, nil)

	cases := []struct {
		digits int
		low    int64
		high   int64
	}{
		{digits: 6, low: 100000, high: 999999},
		{digits: 4, low: 1000, high: 9999},
	}

	for _, tc := range cases {
		for range 200 {
			code, err := svc.Generate(
				context.Background(),
				"a@example.com",
				tc.digits,
			)
			require.NoError(t, err)
			require.Len(t, code, tc.digits)

			n, err := strconv.ParseInt(code, 10, 64)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, n, tc.low)
			assert.LessOrEqual(t, n, tc.high)
		}
	}
}

func TestGenerateRejectsBadLengths(t *testing.T) {
	svc := NewService(&fakeCodeRepository{}, nil)

	for _, digits := range []int{0, 3, 11, -1} {
		_, err := svc.Generate(context.Background(), "a@example.com", digits)
		require.ErrorIs(t, err, core.ErrInvalidArgument)
	}
}

func TestGenerateDeliversThroughSender(t *testing.T) {
	repo := &fakeCodeRepository{}
	sender := &recordingSender{}
	svc := NewService(repo, sender)

	code, err := svc.Generate(context.Background(), "a@example.com", 6)
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "a@example.com:"+code, sender.sent[0])
}

// A code stays checkable forever and is not consumed by validation. Changing
// this breaks clients that re-submit the code on a second form step.
func TestValidateRepeatable(t *testing.T) {
	repo := &fakeCodeRepository{}
	svc := NewService(repo, nil)

	code, err := svc.Generate(context.Background(), "a@example.com", 6)
	require.NoError(t, err)

	for range 3 {
		valid, err := svc.Validate(context.Background(), "a@example.com", code)
		require.NoError(t, err)
		assert.True(t, valid)
	}
}

func TestValidateTrimsInput(t *testing.T) {
	repo := &fakeCodeRepository{}
	svc := NewService(repo, nil)

	code, err := svc.Generate(context.Background(), "  a@example.com ", 6)
	require.NoError(t, err)

	valid, err := svc.Validate(
		context.Background(),
		" a@example.com  ",
		" "+code+" ",
	)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestPriorCodesStayValid(t *testing.T) {
	repo := &fakeCodeRepository{}
	svc := NewService(repo, nil)

	first, err := svc.Generate(context.Background(), "a@example.com", 6)
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), "a@example.com", 6)
	require.NoError(t, err)

	for _, code := range []string{first, second} {
		valid, err := svc.Validate(context.Background(), "a@example.com", code)
		require.NoError(t, err)
		assert.True(t, valid)
	}
}

func TestValidateUnknownCode(t *testing.T) {
	svc := NewService(&fakeCodeRepository{}, nil)

	valid, err := svc.Validate(context.Background(), "a@example.com", "123456")
	require.NoError(t, err)
	assert.False(t, valid)
}
