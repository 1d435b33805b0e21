package orders

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubSequence struct {
	next int64
	err  error
	keys []string
}

func (s *stubSequence) NextDailySequence(_ context.Context, name string, day time.Time, _ time.Duration) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.keys = append(s.keys, name+":"+day.UTC().Format("20060102"))
	s.next++
	return s.next, nil
}

func TestSequenceNumbersFormat(t *testing.T) {
	seq := &stubSequence{next: 41}
	gen := NewSequenceNumbers("ord", seq, time.Hour)
	now := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)

	num, err := gen.Next(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, "ORD-20260301-000042", num)
	require.Equal(t, []string{"order_number:20260301"}, seq.keys)

	_, err = NewSequenceNumbers("", &stubSequence{err: errors.New("down")}, time.Hour).Next(context.Background(), now)
	require.Error(t, err)
}

func TestRandomNumbersFormat(t *testing.T) {
	num, err := NewRandomNumbers("").Next(context.Background(), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^ORD-20260301-\d{6}$`), num)
}
