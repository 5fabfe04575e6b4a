package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestWithApplication_Nil(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, ctx, WithApplication(ctx, nil))

	_, ok := applicationFromContext(ctx)
	assert.False(t, ok)
}

func TestRecording_WithoutApplication(t *testing.T) {
	ctx := context.Background()

	assert.NotPanics(t, func() {
		RecordEvent(ctx, "TestEvent", map[string]interface{}{"key": "value"})
		RecordCount(ctx, "Test/Count", 1)
		RecordDuration(ctx, "Test/Duration", time.Second)
	})
}

func TestTraceMethodCall_WithoutTransaction(t *testing.T) {
	tracer := TraceMethodCall(context.Background(), "payment", "Pay")
	assert.Nil(t, tracer)

	assert.NotPanics(t, func() {
		tracer.AddAttribute("payment", "p1")
		tracer.OnError(errors.New("failure"))
		tracer.End()
	})
}

func TestForwardedMessage(t *testing.T) {
	entry := logrus.NewEntry(logrus.New())
	entry.Message = "payment updated"
	assert.Equal(t, "payment updated", forwardedMessage(entry))

	entry = entry.WithFields(logrus.Fields{
		"payment":       "p1",
		logrus.ErrorKey: errors.New("boom"),
	})
	entry.Message = "payment updated"
	assert.Equal(t, `message="payment updated", error="boom", data={"payment":"p1"}`, forwardedMessage(entry))
}
