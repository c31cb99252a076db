package sample

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestRecorder_FailureDoesNotBlockOtherDevices(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := NewMockWriter(ctrl)

	a := Sample{Serial: "A", Location: "Kitchen", AirQuality: 1}
	b := Sample{Serial: "B", Location: "Office", AirQuality: 2}

	gomock.InOrder(
		w.EXPECT().Write(gomock.Any(), a).Return(errors.Join(ErrPersistence, errors.New("disk full"))),
		w.EXPECT().Write(gomock.Any(), b).Return(nil),
	)

	r := NewRecorder(w)
	assert.False(t, r.Record(context.Background(), a))
	assert.True(t, r.Record(context.Background(), b))

	assert.Equal(t, uint64(1), r.Written())
	assert.Equal(t, uint64(1), r.Dropped())
}

// captureLogger records Error calls.
type captureLogger struct {
	noopLogger
	errors [][]any
}

func (c *captureLogger) Error(msg string, args ...any) {
	c.errors = append(c.errors, append([]any{msg}, args...))
}

func TestRecorder_LogsSerialAndName(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := NewMockWriter(ctrl)
	w.EXPECT().Write(gomock.Any(), gomock.Any()).Return(ErrPersistence)

	logger := &captureLogger{}
	r := NewRecorder(w)
	r.SetLogger(logger)
	r.Record(context.Background(), Sample{Serial: "NK6", Location: "Lounge"})

	if assert.Len(t, logger.errors, 1) {
		assert.Contains(t, logger.errors[0], "NK6")
		assert.Contains(t, logger.errors[0], "Lounge")
	}
}

func TestRecorder_NilLoggerIsSafe(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := NewMockWriter(ctrl)
	w.EXPECT().Write(gomock.Any(), gomock.Any()).Return(ErrPersistence)

	r := NewRecorder(w)
	r.SetLogger(nil)
	assert.False(t, r.Record(context.Background(), Sample{}))
}
