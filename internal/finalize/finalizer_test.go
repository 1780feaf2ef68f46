package finalize

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LarjGit/edinburgh-finds-core/internal/store"
	"github.com/LarjGit/edinburgh-finds-core/pkg/domain"
	"github.com/LarjGit/edinburgh-finds-core/pkg/merge"
	"github.com/LarjGit/edinburgh-finds-core/pkg/trust"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(discardWriter{})
	return logger
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestFinalizerRunMergesRecordsBySlug(t *testing.T) {
	stores := store.NewMemoryStores()
	hierarchy := trust.New(map[string]float64{"official": 90, "crowd": 40})
	finalizer := New(stores.ExtractedRecords, stores.CanonicalEntities, hierarchy, merge.FieldGroups{}, merge.DefaultConflictThreshold, testLogger())

	ctx := context.Background()
	require.NoError(t, stores.ExtractedRecords.Upsert(ctx, domain.ExtractedRecord{
		ID:          "er-1",
		Source:      "official",
		Attributes:  map[string]interface{}{"name": "Cafe One", "phone": "0131 000 0000"},
		ExtractedAt: time.Now(),
	}))
	require.NoError(t, stores.ExtractedRecords.Upsert(ctx, domain.ExtractedRecord{
		ID:          "er-2",
		Source:      "crowd",
		Attributes:  map[string]interface{}{"name": "Cafe One", "phone": "0131 111 1111"},
		ExtractedAt: time.Now(),
	}))

	summary, err := finalizer.Run(ctx, "run-1", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.EntitiesCreated)
	assert.Equal(t, 0, summary.EntitiesUpdated)

	entities, err := stores.CanonicalEntities.List(ctx)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "0131 000 0000", entities[0].Attributes["phone"])
	assert.Equal(t, "official", entities[0].SourceInfo["phone"])
	assert.Equal(t, 2, entities[0].SourceCount)
}

func TestFinalizerRunIsIdempotentAcrossReruns(t *testing.T) {
	stores := store.NewMemoryStores()
	hierarchy := trust.New(nil)
	finalizer := New(stores.ExtractedRecords, stores.CanonicalEntities, hierarchy, merge.FieldGroups{}, merge.DefaultConflictThreshold, testLogger())

	ctx := context.Background()
	require.NoError(t, stores.ExtractedRecords.Upsert(ctx, domain.ExtractedRecord{
		ID:          "er-1",
		Source:      "official",
		Attributes:  map[string]interface{}{"name": "Cafe One"},
		ExtractedAt: time.Now(),
	}))

	_, err := finalizer.Run(ctx, "run-1", time.Time{})
	require.NoError(t, err)

	before, found, err := stores.CanonicalEntities.Get(ctx, "cafe-one")
	require.NoError(t, err)
	require.True(t, found)

	summary, err := finalizer.Run(ctx, "run-2", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.EntitiesCreated)
	assert.Equal(t, 1, summary.EntitiesUpdated)

	after, found, err := stores.CanonicalEntities.Get(ctx, "cafe-one")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, before.FirstSeen, after.FirstSeen)
}
