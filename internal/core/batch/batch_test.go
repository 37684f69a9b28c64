package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/agenthands/labelcheck/internal/core/errs"
	"github.com/agenthands/labelcheck/internal/core/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type verifierFunc func(ctx context.Context, image model.Image, app *model.ApplicationData) (model.VerificationResult, error)

func (f verifierFunc) Verify(ctx context.Context, image model.Image, app *model.ApplicationData) (model.VerificationResult, error) {
	return f(ctx, image, app)
}

func images(names ...string) []model.Image {
	out := make([]model.Image, len(names))
	for i, n := range names {
		out[i] = model.Image{Name: n, Data: []byte(n)}
	}
	return out
}

func apps(names ...string) []NamedApplication {
	out := make([]NamedApplication, len(names))
	for i, n := range names {
		out[i] = NamedApplication{Name: n, Application: &model.ApplicationData{BrandName: n}}
	}
	return out
}

func statuses(b *model.VerificationBatch) []model.PairStatus {
	var out []model.PairStatus
	for _, p := range b.Pairs {
		out = append(out, p.Status)
	}
	return out
}

func TestPairByIndex(t *testing.T) {
	b := PairByIndex(images("a.png", "b.png", "c.png"), apps("first", "second"))
	require.Len(t, b.Pairs, 3)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, []model.PairStatus{model.PairComplete, model.PairComplete, model.PairMissingApplication}, statuses(b))
	assert.Equal(t, "second", b.Pairs[1].Application.BrandName)
	assert.Equal(t, "b.png", b.Pairs[1].ImageName)

	b = PairByIndex(images("a.png"), apps("first", "second"))
	assert.Equal(t, []model.PairStatus{model.PairComplete, model.PairMissingImage}, statuses(b))
	assert.Nil(t, b.Pairs[1].Image)
}

func TestPairByStem(t *testing.T) {
	b := PairByStem(
		images("labels/Old-Tom.PNG", "mountain.jpg", "orphan.png"),
		apps("mountain.json", "old-tom.json", "unused.json"),
	)
	require.Len(t, b.Pairs, 4)
	assert.Equal(t, []model.PairStatus{
		model.PairComplete, model.PairComplete, model.PairMissingApplication, model.PairMissingImage,
	}, statuses(b))
	assert.Equal(t, "old-tom.json", b.Pairs[0].ApplicationName)
	assert.Equal(t, "mountain.json", b.Pairs[1].ApplicationName)
	assert.Equal(t, "unused.json", b.Pairs[3].ApplicationName)

	ids := map[string]bool{}
	for _, p := range b.Pairs {
		ids[p.ID] = true
	}
	assert.Len(t, ids, 4, "pair ids are unique")
}

func TestRunnerRecordsPerPairOutcome(t *testing.T) {
	v := verifierFunc(func(ctx context.Context, image model.Image, app *model.ApplicationData) (model.VerificationResult, error) {
		switch app.BrandName {
		case "bad":
			return model.VerificationResult{}, errs.Contract("decode", "secret oracle detail")
		case "blank":
			return model.VerificationResult{}, errs.Validation("verify", "label image is required")
		}
		return model.VerificationResult{OverallStatus: model.OverallApproved}, nil
	})

	b := PairByIndex(images("1.png", "2.png", "3.png", "4.png"), apps("good", "bad", "blank"))
	require.NoError(t, NewRunner(v, 2, 0, zap.NewNop()).Run(context.Background(), b))

	require.NotNil(t, b.Pairs[0].Result)
	assert.Empty(t, b.Pairs[0].Error)

	assert.Nil(t, b.Pairs[1].Result)
	assert.Equal(t, errs.FailureMessage, b.Pairs[1].Error)
	assert.NotContains(t, b.Pairs[1].Error, "secret")

	assert.Equal(t, "label image is required", b.Pairs[2].Error)
	assert.Contains(t, b.Pairs[3].Error, "no application")

	assert.Equal(t, map[string]int{"approved": 1, "error": 3}, Tally(b))
}

func TestRunnerBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	var mu sync.Mutex
	seen := map[string]bool{}

	v := verifierFunc(func(ctx context.Context, image model.Image, app *model.ApplicationData) (model.VerificationResult, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		mu.Lock()
		seen[image.Name] = true
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		return model.VerificationResult{OverallStatus: model.OverallReview}, nil
	})

	names := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}
	b := PairByIndex(images(names...), apps(names...))
	require.NoError(t, NewRunner(v, 3, 0, nil).Run(context.Background(), b))

	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Greater(t, peak.Load(), int32(0))
	assert.Len(t, seen, len(names))
	for _, p := range b.Pairs {
		assert.NotNil(t, p.Result, p.ID)
	}
}

func TestRunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v := verifierFunc(func(ctx context.Context, image model.Image, app *model.ApplicationData) (model.VerificationResult, error) {
		return model.VerificationResult{}, errors.New("should not be reached")
	})
	r := NewRunner(v, 2, 1, nil)
	b := PairByIndex(images("1.png", "2.png"), apps("a", "b"))

	err := r.Run(ctx, b)
	assert.ErrorIs(t, err, context.Canceled)
	for _, p := range b.Pairs {
		assert.Nil(t, p.Result)
		assert.NotEmpty(t, p.Error)
	}
}

func TestStem(t *testing.T) {
	assert.Equal(t, "label-01", Stem("uploads/Label-01.png"))
	assert.Equal(t, "archive.tar", Stem("archive.tar.gz"))
	assert.Equal(t, "noext", Stem("noext"))
}
