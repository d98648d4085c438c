package browser

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestHarvester() *Harvester {
	return NewHarvester(context.Background(), zap.NewNop())
}

func sentEvent(id, url, typ string) *network.EventRequestWillBeSent {
	return &network.EventRequestWillBeSent{
		RequestID: network.RequestID(id),
		Type:      network.ResourceType(typ),
		Request:   &network.Request{URL: url, Method: "GET"},
	}
}

func TestHarvesterRecordsRequests(t *testing.T) {
	h := newTestHarvester()

	h.handleRequestWillBeSent(sentEvent("1", "https://api.example.com/v1/price", "XHR"))
	h.handleRequestWillBeSent(sentEvent("2", "https://cdn.example.com/app.js", "Script"))

	recs := h.Requests()
	require.Len(t, recs, 2)
	assert.Equal(t, "https://api.example.com/v1/price", recs[0].URL)
	assert.Equal(t, "XHR", recs[0].Type)
	assert.Equal(t, "GET", recs[0].Method)
	assert.Equal(t, "Script", recs[1].Type)
}

func TestHarvesterRequestsReturnsCopy(t *testing.T) {
	h := newTestHarvester()
	h.handleRequestWillBeSent(sentEvent("1", "https://a.example.com/", "Document"))

	recs := h.Requests()
	recs[0].URL = "mutated"

	assert.Equal(t, "https://a.example.com/", h.Requests()[0].URL)
}

func TestWaitNetworkIdleReturnsWhenQuiet(t *testing.T) {
	h := newTestHarvester()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.WaitNetworkIdle(ctx, 20*time.Millisecond))
}

func TestWaitNetworkIdleBlocksOnInflight(t *testing.T) {
	h := newTestHarvester()
	h.handleRequestWillBeSent(sentEvent("1", "https://slow.example.com/", "XHR"))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	err := h.WaitNetworkIdle(ctx, 20*time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// Completing the request lets the wait drain.
	h.handleDone(network.RequestID("1"))
	ctx2, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel2()
	require.NoError(t, h.WaitNetworkIdle(ctx2, 20*time.Millisecond))
}

func TestCombineContextCancelsWithSecondary(t *testing.T) {
	secondary, cancelSecondary := context.WithCancel(context.Background())
	combined, cancel := CombineContext(context.Background(), secondary)
	defer cancel()

	select {
	case <-combined.Done():
		t.Fatal("combined context ended early")
	default:
	}

	cancelSecondary()
	select {
	case <-combined.Done():
	case <-time.After(time.Second):
		t.Fatal("combined context did not follow secondary cancellation")
	}
}
