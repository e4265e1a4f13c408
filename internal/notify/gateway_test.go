package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentacc/accommodation-booking/internal/queue"
)

type fakePublisher struct {
	bodies [][]byte
	err    error
	calls  int
}

func (f *fakePublisher) Publish(ctx context.Context, body []byte) error {
	f.calls++
	f.bodies = append(f.bodies, body)
	return f.err
}

type blockingMailer struct{}

func (blockingMailer) Send(ctx context.Context, to, subject, html string) error {
	<-ctx.Done()
	return ctx.Err()
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestDisabledChannels(t *testing.T) {
	g := NewGateway(nil, nil, nil, time.Second, time.Minute, quietLogger())
	ctx := context.Background()

	assert.ErrorIs(t, g.Enqueue(ctx, queue.BookingSnapshot{BookingID: 1}), ErrChannelDisabled)
	assert.ErrorIs(t, g.Alert(ctx, "s", "b"), ErrChannelDisabled)
	assert.ErrorIs(t, g.NotifyStudent(ctx, "kim@uni.ac.uk", "s", "<p>b</p>"), ErrChannelDisabled)
}

func TestEnqueuePublishesJSON(t *testing.T) {
	pub := &fakePublisher{}
	g := NewGateway(pub, nil, nil, time.Second, time.Minute, quietLogger())

	require.NoError(t, g.Enqueue(context.Background(), queue.BookingSnapshot{BookingID: 9, FinalPrice: "80.00"}))
	require.Len(t, pub.bodies, 1)
	var got queue.BookingSnapshot
	require.NoError(t, json.Unmarshal(pub.bodies[0], &got))
	assert.Equal(t, uint64(9), got.BookingID)
	assert.Equal(t, "80.00", got.FinalPrice)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	g := NewGateway(pub, nil, nil, time.Second, time.Minute, quietLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.EqualError(t, g.Enqueue(ctx, queue.BookingSnapshot{BookingID: 1}), "broker down")
	}
	err := g.Enqueue(ctx, queue.BookingSnapshot{BookingID: 1})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, pub.calls)
}

func TestTimeoutBoundsDelivery(t *testing.T) {
	g := NewGateway(nil, nil, blockingMailer{}, 20*time.Millisecond, time.Minute, quietLogger())

	start := time.Now()
	err := g.NotifyStudent(context.Background(), "kim@uni.ac.uk", "Booked", "<p>ok</p>")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNotifyStudentRequiresAddress(t *testing.T) {
	g := NewGateway(nil, nil, blockingMailer{}, time.Second, time.Minute, quietLogger())
	assert.Error(t, g.NotifyStudent(context.Background(), "", "s", "b"))
}
