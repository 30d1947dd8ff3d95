package pending

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agntcy/go-bridge-sdk/internal/transport"
)

func TestTableResolveDeliversToAwaiter(t *testing.T) {
	tbl := New()
	reply, errs := tbl.Register("req-1")

	tbl.Resolve("req-1", []byte("pong"))

	select {
	case payload := <-reply:
		assert.Equal(t, "pong", string(payload))
	case <-errs:
		t.Fatal("unexpected error channel signal")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for resolve")
	}
	assert.Equal(t, 0, tbl.Len())
}

func TestTableResolveUnknownIDIsNoop(t *testing.T) {
	tbl := New()
	assert.NotPanics(t, func() { tbl.Resolve("nope", []byte("x")) })
}

func TestTableCancelAllFailsEveryAwaiter(t *testing.T) {
	tbl := New()
	_, errsA := tbl.Register("a")
	_, errsB := tbl.Register("b")

	tbl.CancelAll()

	for _, errs := range []<-chan error{errsA, errsB} {
		select {
		case err := <-errs:
			require.ErrorIs(t, err, transport.ErrCancelled)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for cancellation")
		}
	}
	assert.Equal(t, 0, tbl.Len())
}

func TestTableForget(t *testing.T) {
	tbl := New()
	tbl.Register("req-1")
	assert.Equal(t, 1, tbl.Len())
	tbl.Forget("req-1")
	assert.Equal(t, 0, tbl.Len())
}
