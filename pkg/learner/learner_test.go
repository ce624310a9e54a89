package learner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Muahhidun/poster-helper-bot-sub000/internal/repositories/alias"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/catalog"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/learner"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/matcher"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/models"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

type fakeStore struct {
	added  []models.Alias
	addErr error
}

func (s *fakeStore) Load(ctx context.Context, tenantID string, kind models.EntityKind) ([]models.Alias, error) {
	return nil, nil
}

func (s *fakeStore) Add(ctx context.Context, a models.Alias) (alias.AddOutcome, error) {
	if s.addErr != nil {
		return "", s.addErr
	}
	s.added = append(s.added, a)
	return alias.AddOutcomeCreated, nil
}

func (s *fakeStore) BulkLoad(ctx context.Context, tenantID string, records []models.AliasRecord, known func(int64) bool) (int, error) {
	return 0, nil
}

func newTestMatcher() *matcher.Matcher {
	snapshot := catalog.NewSnapshot(models.EntityKindIngredient, []models.CanonicalEntity{
		{ID: 55, Name: "Брынза Сербская", Unit: "кг", TenantLabel: "pizzburg"},
	})
	return matcher.New(getTestLogger(), models.EntityKindIngredient, snapshot, nil, matcher.DefaultConfig(models.EntityKindIngredient))
}

func TestLearn_IndexesAndPersists(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	l := learner.NewLearner(store, nil, getTestLogger())
	m := newTestMatcher()

	err := l.Learn(ctx, m, "pizzburg", `Сыр "Брынза"`, 55, "Брынза Сербская", models.EntityKindIngredient)
	require.NoError(t, err)

	require.Len(t, store.added, 1)
	assert.Equal(t, "сыр брынза", store.added[0].Phrase, "the persisted phrase is normalized")
	assert.Equal(t, models.ProvenanceUserSelection, store.added[0].Provenance)

	result, err := m.Match(ctx, "сыр брынза")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(55), result.EntityID)
	assert.Equal(t, models.ExactScore, result.Score)
}

func TestLearn_PersistFailureKeepsIndex(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{addErr: errors.New("connection refused")}
	l := learner.NewLearner(store, nil, getTestLogger())
	m := newTestMatcher()

	err := l.Learn(ctx, m, "pizzburg", "брынза", 55, "Брынза Сербская", models.EntityKindIngredient)
	require.Error(t, err)

	var persistErr *learner.PersistError
	require.ErrorAs(t, err, &persistErr)
	assert.ErrorIs(t, err, store.addErr)

	// The session keeps the alias even though the write failed.
	result, matchErr := m.Match(ctx, "брынза")
	require.NoError(t, matchErr)
	require.NotNil(t, result)
	assert.Equal(t, int64(55), result.EntityID)
}

func TestLearn_RejectsUnknownEntity(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	l := learner.NewLearner(store, nil, getTestLogger())
	m := newTestMatcher()

	err := l.Learn(ctx, m, "pizzburg", "призрак", 404, "", models.EntityKindIngredient)
	require.Error(t, err)

	var persistErr *learner.PersistError
	assert.False(t, errors.As(err, &persistErr), "an index rejection is not a persistence failure")
	assert.Empty(t, store.added, "nothing is persisted when indexing fails")
}

func TestLearn_RejectsEmptyPhrase(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	l := learner.NewLearner(store, nil, getTestLogger())
	m := newTestMatcher()

	err := l.Learn(ctx, m, "pizzburg", `" "`, 55, "Брынза Сербская", models.EntityKindIngredient)
	require.Error(t, err)
	assert.Empty(t, store.added)
}
