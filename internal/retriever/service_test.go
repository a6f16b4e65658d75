package retriever

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/meetkant/internal/corpus"
	"github.com/hyperjump/meetkant/internal/models"
)

// switchableLoader returns whichever catalog is currently stored, or err when set.
type switchableLoader struct {
	catalog atomic.Pointer[corpus.Catalog]
	err     atomic.Pointer[error]
}

func (l *switchableLoader) load(context.Context) (*corpus.Catalog, error) {
	if e := l.err.Load(); e != nil {
		return nil, *e
	}
	return l.catalog.Load(), nil
}

func kantOnly() *corpus.Catalog {
	return corpus.NewCatalog([]models.PassageRecord{
		{WorkID: "groundwork", ParaID: "1", Lang: "en", Text: "Act only according to that maxim whereby you can will that it should become a universal law."},
	})
}

func TestService_ReloadSwapsRetriever(t *testing.T) {
	l := &switchableLoader{}
	l.catalog.Store(corpus.SampleCatalog())
	path := filepath.Join(t.TempDir(), "vectors.index")

	s, err := NewService(context.Background(), l.load, hashEmbedder(), WithSnapshotPath(path))
	require.NoError(t, err)
	defer s.Close()
	first := s.Current()
	assert.Equal(t, 7, first.Stats().Passages)

	l.catalog.Store(kantOnly())
	require.NoError(t, s.Reload(context.Background()))
	assert.NotSame(t, first, s.Current())
	assert.Equal(t, 1, s.Current().Stats().Passages)

	results, err := s.Retrieve(context.Background(), "universal law maxim", 5, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "groundwork", results[0].WorkID)

	// The old instance still answers for callers that held on to it.
	old, err := first.Retrieve(context.Background(), categoricalQuestion, 1, "")
	require.NoError(t, err)
	assert.Len(t, old, 1)
}

func TestService_ReloadUnchangedCorpusReusesSnapshot(t *testing.T) {
	l := &switchableLoader{}
	l.catalog.Store(corpus.SampleCatalog())
	path := filepath.Join(t.TempDir(), "vectors.index")

	s, err := NewService(context.Background(), l.load, hashEmbedder(), WithSnapshotPath(path))
	require.NoError(t, err)
	require.NoError(t, s.Reload(context.Background()))
	assert.True(t, s.Current().Stats().Loaded)
}

func TestService_FailedReloadKeepsCurrent(t *testing.T) {
	l := &switchableLoader{}
	l.catalog.Store(corpus.SampleCatalog())
	s, err := NewService(context.Background(), l.load, hashEmbedder())
	require.NoError(t, err)
	before := s.Current()

	boom := errors.New("disk gone")
	l.err.Store(&boom)
	assert.ErrorIs(t, s.Reload(context.Background()), boom)
	assert.Same(t, before, s.Current())

	results, err := s.Retrieve(context.Background(), categoricalQuestion, 2, "en")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestService_ConcurrentQueriesDuringReload(t *testing.T) {
	l := &switchableLoader{}
	l.catalog.Store(corpus.SampleCatalog())
	s, err := NewService(context.Background(), l.load, hashEmbedder())
	require.NoError(t, err)

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				results, err := s.Retrieve(ctx, categoricalQuestion, 2, "")
				assert.NoError(t, err)
				assert.NotEmpty(t, results)
			}
		}()
	}
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				l.catalog.Store(kantOnly())
			} else {
				l.catalog.Store(corpus.SampleCatalog())
			}
			assert.NoError(t, s.Reload(ctx))
		}(i)
	}
	wg.Wait()
}

func TestNewService_LoaderError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewService(context.Background(), func(context.Context) (*corpus.Catalog, error) { return nil, boom }, hashEmbedder())
	assert.ErrorIs(t, err, boom)

	_, err = NewService(context.Background(), nil, hashEmbedder())
	assert.Error(t, err)
}
