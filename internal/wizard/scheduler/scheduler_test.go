package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboard/internal/wizard/models"
	"onboard/internal/wizard/store"
	"onboard/internal/wizard/store/cache"
	dErrors "onboard/pkg/domain-errors"
)

type fakeRemote struct {
	mu      sync.Mutex
	saves   []store.SaveRequest
	failAll bool
	// gate, when set, blocks the next Save until closed; started is closed
	// once that Save has begun.
	gate    chan struct{}
	started chan struct{}
}

func (f *fakeRemote) Fetch(context.Context, string, models.StepID) (*store.RemoteStep, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRemote) Save(_ context.Context, _ string, _ models.StepID, req store.SaveRequest) error {
	f.mu.Lock()
	gate, started := f.gate, f.started
	f.gate, f.started = nil, nil
	f.mu.Unlock()
	if gate != nil {
		if started != nil {
			close(started)
		}
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errors.New("remote down")
	}
	f.saves = append(f.saves, req)
	return nil
}

func (f *fakeRemote) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func (f *fakeRemote) lastSave() store.SaveRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves[len(f.saves)-1]
}

func taxPayload(filing string) models.StepPayload {
	return models.StepPayload{Kind: models.StepTax, Tax: &models.Tax{FilingStatus: filing}}
}

func TestRapidEditsCoalesceIntoOneWrite(t *testing.T) {
	local := cache.NewMemoryStore()
	remote := &fakeRemote{}
	s := New(local, remote, WithQuietPeriod(30*time.Millisecond))
	defer s.Close(context.Background())
	ctx := context.Background()

	s.Schedule(ctx, "emp-1", models.StepTax, taxPayload("a"))
	s.Schedule(ctx, "emp-1", models.StepTax, taxPayload("b"))
	s.Schedule(ctx, "emp-1", models.StepTax, taxPayload("single"))

	require.Eventually(t, func() bool { return remote.saveCount() == 1 },
		time.Second, 10*time.Millisecond)
	// No duplicate remote calls for intermediate states.
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 1, remote.saveCount())
	assert.Equal(t, "single", remote.lastSave().Payload.Tax.FilingStatus)
}

func TestQuietPeriodFirePromotesOriginToRemote(t *testing.T) {
	local := cache.NewMemoryStore()
	remote := &fakeRemote{}
	s := New(local, remote, WithQuietPeriod(20*time.Millisecond))
	defer s.Close(context.Background())
	ctx := context.Background()

	s.Schedule(ctx, "emp-1", models.StepTax, taxPayload("single"))

	require.Eventually(t, func() bool {
		snap, err := local.Get(ctx, "emp-1", models.StepTax)
		return err == nil && snap.Origin == models.OriginRemote
	}, time.Second, 10*time.Millisecond)

	snap, err := local.Get(ctx, "emp-1", models.StepTax)
	require.NoError(t, err)
	assert.NotEmpty(t, snap.Fingerprint)
	assert.Equal(t, uint64(1), snap.Seq)
}

func TestBackgroundRemoteFailureStaysLocalAndSilent(t *testing.T) {
	local := cache.NewMemoryStore()
	remote := &fakeRemote{failAll: true}

	var savedMu sync.Mutex
	var remoteOKs []bool
	s := New(local, remote,
		WithQuietPeriod(20*time.Millisecond),
		WithSavedFunc(func(_ context.Context, res SaveResult) {
			savedMu.Lock()
			remoteOKs = append(remoteOKs, res.RemoteOK)
			savedMu.Unlock()
		}),
	)
	defer s.Close(context.Background())
	ctx := context.Background()

	s.Schedule(ctx, "emp-1", models.StepTax, taxPayload("single"))

	require.Eventually(t, func() bool {
		savedMu.Lock()
		defer savedMu.Unlock()
		return len(remoteOKs) == 1
	}, time.Second, 10*time.Millisecond)

	savedMu.Lock()
	assert.False(t, remoteOKs[0])
	savedMu.Unlock()

	snap, err := local.Get(ctx, "emp-1", models.StepTax)
	require.NoError(t, err)
	assert.Equal(t, models.OriginLocal, snap.Origin, "failed remote write leaves the snapshot local")
}

func TestFlushPersistsImmediatelyAndSurfacesFailure(t *testing.T) {
	local := cache.NewMemoryStore()
	remote := &fakeRemote{failAll: true}
	s := New(local, remote, WithQuietPeriod(time.Hour))
	defer s.Close(context.Background())
	ctx := context.Background()

	s.Schedule(ctx, "emp-1", models.StepTax, taxPayload("single"))
	err := s.Flush(ctx, "emp-1", models.StepTax)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))

	// The local write still happened.
	snap, err := local.Get(ctx, "emp-1", models.StepTax)
	require.NoError(t, err)
	assert.Equal(t, models.OriginLocal, snap.Origin)
}

func TestFlushWithoutPendingIsNoOp(t *testing.T) {
	s := New(cache.NewMemoryStore(), &fakeRemote{}, WithQuietPeriod(time.Hour))
	defer s.Close(context.Background())
	assert.NoError(t, s.Flush(context.Background(), "emp-1", models.StepTax))
}

func TestStaleCompletionDoesNotClobberFresherState(t *testing.T) {
	local := cache.NewMemoryStore()
	remote := &fakeRemote{}
	s := New(local, remote, WithQuietPeriod(time.Hour))
	defer s.Close(context.Background())
	ctx := context.Background()

	// First write blocks inside the remote store.
	gate := make(chan struct{})
	started := make(chan struct{})
	remote.mu.Lock()
	remote.gate, remote.started = gate, started
	remote.mu.Unlock()

	s.Schedule(ctx, "emp-1", models.StepTax, taxPayload("old"))
	flushDone := make(chan error, 1)
	go func() { flushDone <- s.Flush(ctx, "emp-1", models.StepTax) }()
	<-started

	// A fresher edit races ahead and completes while seq 1 is in flight.
	s.Schedule(ctx, "emp-1", models.StepTax, taxPayload("new"))
	require.NoError(t, s.Flush(ctx, "emp-1", models.StepTax))

	snap, err := local.Get(ctx, "emp-1", models.StepTax)
	require.NoError(t, err)
	require.Equal(t, "new", snap.Payload.Tax.FilingStatus)
	require.Equal(t, uint64(2), snap.Seq)

	// Let the stale write finish; it must not overwrite the fresher state.
	close(gate)
	require.NoError(t, <-flushDone)

	snap, err = local.Get(ctx, "emp-1", models.StepTax)
	require.NoError(t, err)
	assert.Equal(t, "new", snap.Payload.Tax.FilingStatus)
	assert.Equal(t, uint64(2), snap.Seq)
}

func TestCloseFlushesPending(t *testing.T) {
	local := cache.NewMemoryStore()
	remote := &fakeRemote{}
	s := New(local, remote, WithQuietPeriod(time.Hour))
	ctx := context.Background()

	s.Schedule(ctx, "emp-1", models.StepTax, taxPayload("single"))
	s.Close(ctx)

	assert.Equal(t, 1, remote.saveCount())
}
