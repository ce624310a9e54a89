package matcher_test

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/catalog"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/matcher"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/models"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func ingredientSnapshot(tenant string, entities ...models.CanonicalEntity) *catalog.Snapshot {
	for i := range entities {
		if entities[i].TenantLabel == "" {
			entities[i].TenantLabel = tenant
		}
	}
	return catalog.NewSnapshot(models.EntityKindIngredient, entities)
}

func newIngredientMatcher(t *testing.T, snapshot *catalog.Snapshot, aliases []models.Alias) *matcher.Matcher {
	t.Helper()
	return matcher.New(getTestLogger(), models.EntityKindIngredient, snapshot, aliases, matcher.DefaultConfig(models.EntityKindIngredient))
}

func TestMatch_AliasExact(t *testing.T) {
	ctx := context.Background()
	snapshot := ingredientSnapshot("pizzburg",
		models.CanonicalEntity{ID: 55, Name: "Брынза Сербская", Unit: "кг"},
	)
	m := newIngredientMatcher(t, snapshot, []models.Alias{
		{TenantID: "pizzburg", Phrase: "брынза", EntityID: 55, EntityName: "Брынза Сербская", EntityKind: models.EntityKindIngredient},
	})

	result, err := m.Match(ctx, "брынза")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(55), result.EntityID)
	assert.Equal(t, "Брынза Сербская", result.EntityName)
	assert.Equal(t, models.ExactScore, result.Score)
	assert.Equal(t, models.OriginAlias, result.Origin)
}

func TestMatch_AliasExactIsCaseAndQuoteInsensitive(t *testing.T) {
	ctx := context.Background()
	snapshot := ingredientSnapshot("pizzburg",
		models.CanonicalEntity{ID: 55, Name: "Брынза Сербская"},
	)
	m := newIngredientMatcher(t, snapshot, []models.Alias{
		{TenantID: "pizzburg", Phrase: "брынза", EntityID: 55, EntityKind: models.EntityKindIngredient},
	})

	result, err := m.Match(ctx, `  "БРЫНЗА" `)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, models.ExactScore, result.Score)
}

func TestMatch_CatalogExactName(t *testing.T) {
	ctx := context.Background()
	snapshot := ingredientSnapshot("pizzburg",
		models.CanonicalEntity{ID: 7, Name: "Сыр", Unit: "кг"},
	)
	m := newIngredientMatcher(t, snapshot, nil)

	result, err := m.Match(ctx, "сыр")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(7), result.EntityID)
	assert.Equal(t, models.ExactScore, result.Score)
	assert.Equal(t, models.OriginName, result.Origin)
}

func TestMatch_ExactAliasBeatsFuzzyName(t *testing.T) {
	ctx := context.Background()
	// The alias target and a confusingly similar catalog name compete; the
	// exact alias must win with score 100.
	snapshot := ingredientSnapshot("pizzburg",
		models.CanonicalEntity{ID: 55, Name: "Брынза Сербская"},
		models.CanonicalEntity{ID: 56, Name: "Брынза"},
	)
	m := newIngredientMatcher(t, snapshot, []models.Alias{
		{TenantID: "pizzburg", Phrase: "брынза", EntityID: 55, EntityKind: models.EntityKindIngredient},
	})

	result, err := m.Match(ctx, "брынза")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(55), result.EntityID, "the alias target wins over the identically named catalog entity")
	assert.Equal(t, models.ExactScore, result.Score)
}

func TestMatch_FuzzyCatalogName(t *testing.T) {
	ctx := context.Background()
	snapshot := ingredientSnapshot("pizzburg",
		models.CanonicalEntity{ID: 12, Name: "Филе ЦБ, групп, охл", Unit: "кг"},
	)
	m := newIngredientMatcher(t, snapshot, nil)

	result, err := m.Match(ctx, "филе цб")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(12), result.EntityID)
	assert.GreaterOrEqual(t, result.Score, 75.0)
	assert.Less(t, result.Score, 100.0)
}

func TestMatch_TokenOrderIndependentAliasFuzzy(t *testing.T) {
	ctx := context.Background()
	snapshot := ingredientSnapshot("pizzburg",
		models.CanonicalEntity{ID: 12, Name: "Филе ЦБ, групп, охл"},
	)
	m := newIngredientMatcher(t, snapshot, []models.Alias{
		{TenantID: "pizzburg", Phrase: "цб филе", EntityID: 12, EntityKind: models.EntityKindIngredient},
	})

	result, err := m.Match(ctx, "филе цб")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(12), result.EntityID)
	assert.GreaterOrEqual(t, result.Score, 75.0)
}

func TestMatch_NoMatch(t *testing.T) {
	ctx := context.Background()
	snapshot := ingredientSnapshot("pizzburg",
		models.CanonicalEntity{ID: 12, Name: "Филе ЦБ, групп, охл"},
		models.CanonicalEntity{ID: 55, Name: "Брынза Сербская"},
	)
	m := newIngredientMatcher(t, snapshot, []models.Alias{
		{TenantID: "pizzburg", Phrase: "брынза", EntityID: 55, EntityKind: models.EntityKindIngredient},
	})

	result, err := m.Match(ctx, "xyz999nonexistent")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestMatch_EmptyInput(t *testing.T) {
	ctx := context.Background()
	snapshot := ingredientSnapshot("pizzburg",
		models.CanonicalEntity{ID: 1, Name: "Сыр"},
	)
	m := newIngredientMatcher(t, snapshot, nil)

	for _, input := range []string{"", "   ", `""`} {
		result, err := m.Match(ctx, input)
		require.NoError(t, err)
		assert.Nil(t, result, "input %q must never reach the fuzzy stage", input)
	}
}

func TestMatch_EmptyCatalogDegradesToNoMatch(t *testing.T) {
	ctx := context.Background()
	snapshot := ingredientSnapshot("pizzburg")
	m := newIngredientMatcher(t, snapshot, nil)

	result, err := m.Match(ctx, "сыр")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestMatch_FalsePositiveGuard(t *testing.T) {
	ctx := context.Background()
	// A short generic alias shares its single token with a long unrelated
	// input; the token-set score is 100 but the match must be rejected.
	snapshot := ingredientSnapshot("pizzburg",
		models.CanonicalEntity{ID: 3, Name: "Картофель Фри"},
	)
	m := newIngredientMatcher(t, snapshot, []models.Alias{
		{TenantID: "pizzburg", Phrase: "фри", EntityID: 3, EntityKind: models.EntityKindIngredient},
	})

	result, err := m.Match(ctx, "соус сырный к блюду фри острый")
	require.NoError(t, err)
	if result != nil {
		assert.NotEqual(t, models.OriginAlias, result.Origin, "the single-token alias must not win on token-set score alone")
		assert.LessOrEqual(t, result.Score, 95.0)
	}
}

func TestMatch_GuardAllowsMultiTokenOverlap(t *testing.T) {
	ctx := context.Background()
	snapshot := ingredientSnapshot("pizzburg",
		models.CanonicalEntity{ID: 12, Name: "Филе ЦБ, групп, охл"},
	)
	m := newIngredientMatcher(t, snapshot, []models.Alias{
		{TenantID: "pizzburg", Phrase: "филе цб", EntityID: 12, EntityKind: models.EntityKindIngredient},
	})

	// Shares two tokens with the alias, so the high token-set score is
	// trusted as-is.
	result, err := m.Match(ctx, "филе цб охлаждённое")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(12), result.EntityID)
	assert.Equal(t, models.OriginAlias, result.Origin)
}

func TestMatchWithCutoff_RespectsCustomCutoff(t *testing.T) {
	ctx := context.Background()
	snapshot := ingredientSnapshot("pizzburg",
		models.CanonicalEntity{ID: 12, Name: "Филе ЦБ, групп, охл"},
	)
	m := newIngredientMatcher(t, snapshot, nil)

	result, err := m.MatchWithCutoff(ctx, "филе цб", 99)
	require.NoError(t, err)
	assert.Nil(t, result, "a fuzzy hit below the raised cutoff must not match")
}

func TestMatchWithPriority_PrefersPrimaryTenant(t *testing.T) {
	ctx := context.Background()
	merged := catalog.MergeSnapshots(models.EntityKindIngredient,
		ingredientSnapshot("Pizzburg", models.CanonicalEntity{ID: 7, Name: "Сыр"}),
		ingredientSnapshot("Pizzburg-cafe", models.CanonicalEntity{ID: 99, Name: "Сыр"}),
	)
	m := newIngredientMatcher(t, merged, nil)

	result, err := m.MatchWithPriority(ctx, "сыр", "Pizzburg")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(7), result.EntityID)
	assert.Equal(t, "Pizzburg", result.TenantLabel)

	// Deterministic regardless of request order or which tenant scores higher.
	for i := 0; i < 10; i++ {
		result, err := m.MatchWithPriority(ctx, "сыр", "Pizzburg")
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, int64(7), result.EntityID)
	}

	result, err = m.MatchWithPriority(ctx, "сыр", "Pizzburg-cafe")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(99), result.EntityID)
}

func TestMatchWithPriority_FallsBackToSecondary(t *testing.T) {
	ctx := context.Background()
	merged := catalog.MergeSnapshots(models.EntityKindIngredient,
		ingredientSnapshot("Pizzburg", models.CanonicalEntity{ID: 7, Name: "Сыр"}),
		ingredientSnapshot("Pizzburg-cafe", models.CanonicalEntity{ID: 412, Name: "Круассан"}),
	)
	m := newIngredientMatcher(t, merged, nil)

	result, err := m.MatchWithPriority(ctx, "круассан", "Pizzburg")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(412), result.EntityID)
	assert.Equal(t, "Pizzburg-cafe", result.TenantLabel)
}

func TestTopMatches(t *testing.T) {
	ctx := context.Background()
	snapshot := ingredientSnapshot("pizzburg",
		models.CanonicalEntity{ID: 1, Name: "Сыр Моцарелла"},
		models.CanonicalEntity{ID: 2, Name: "Сыр Гауда"},
		models.CanonicalEntity{ID: 3, Name: "Сыр Пармезан"},
		models.CanonicalEntity{ID: 4, Name: "Дрожжи"},
	)
	m := newIngredientMatcher(t, snapshot, []models.Alias{
		{TenantID: "pizzburg", Phrase: "сыр гауда", EntityID: 2, EntityKind: models.EntityKindIngredient},
	})

	results, err := m.TopMatches(ctx, "сыр гауда", 10, 50)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	// Sorted by descending score, deduplicated by entity keeping the best.
	assert.Equal(t, int64(2), results[0].EntityID)
	assert.Equal(t, models.ExactScore, results[0].Score)
	seen := make(map[int64]int)
	for i, r := range results {
		seen[r.EntityID]++
		if i > 0 {
			assert.GreaterOrEqual(t, results[i-1].Score, r.Score)
		}
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, "entity %d appears more than once", id)
	}
	for _, r := range results {
		assert.NotEqual(t, int64(4), r.EntityID, "unrelated entity must not clear the cutoff")
	}
}

func TestTopMatches_Truncates(t *testing.T) {
	ctx := context.Background()
	snapshot := ingredientSnapshot("pizzburg",
		models.CanonicalEntity{ID: 1, Name: "Сыр Моцарелла"},
		models.CanonicalEntity{ID: 2, Name: "Сыр Гауда"},
		models.CanonicalEntity{ID: 3, Name: "Сыр Пармезан"},
	)
	m := newIngredientMatcher(t, snapshot, nil)

	results, err := m.TopMatches(ctx, "сыр", 2, 40)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 2)
}

func TestAddAlias_VisibleImmediately(t *testing.T) {
	ctx := context.Background()
	snapshot := ingredientSnapshot("pizzburg",
		models.CanonicalEntity{ID: 7, Name: "Сыр", Unit: "кг"},
	)
	m := newIngredientMatcher(t, snapshot, nil)

	result, err := m.Match(ctx, "сырок жирный особый")
	require.NoError(t, err)
	require.Nil(t, result)

	require.NoError(t, m.AddAlias(ctx, "сырок жирный особый", 7, "Сыр"))

	result, err = m.Match(ctx, "сырок жирный особый")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(7), result.EntityID)
	assert.Equal(t, models.ExactScore, result.Score)
	assert.Equal(t, "Сыр", result.EntityName)
	assert.Equal(t, "кг", result.Unit)
}

func TestAddAlias_RejectsUnknownEntity(t *testing.T) {
	ctx := context.Background()
	snapshot := ingredientSnapshot("pizzburg",
		models.CanonicalEntity{ID: 7, Name: "Сыр"},
	)
	m := newIngredientMatcher(t, snapshot, nil)

	err := m.AddAlias(ctx, "призрак", 404, "")
	assert.Error(t, err)
}

func TestAddAlias_RejectsEmptyPhrase(t *testing.T) {
	ctx := context.Background()
	snapshot := ingredientSnapshot("pizzburg",
		models.CanonicalEntity{ID: 7, Name: "Сыр"},
	)
	m := newIngredientMatcher(t, snapshot, nil)

	err := m.AddAlias(ctx, `" "`, 7, "Сыр")
	assert.Error(t, err)
}

func TestNew_SkipsStaleAliases(t *testing.T) {
	ctx := context.Background()
	snapshot := ingredientSnapshot("pizzburg",
		models.CanonicalEntity{ID: 7, Name: "Сыр"},
	)
	m := newIngredientMatcher(t, snapshot, []models.Alias{
		{TenantID: "pizzburg", Phrase: "сырок", EntityID: 7, EntityKind: models.EntityKindIngredient},
		{TenantID: "pizzburg", Phrase: "старый", EntityID: 404, EntityKind: models.EntityKindIngredient},
	})

	assert.Equal(t, 1, m.AliasCount())

	result, err := m.Match(ctx, "старый")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestDefaultCutoff(t *testing.T) {
	assert.Equal(t, 75.0, matcher.DefaultCutoff(models.EntityKindIngredient))
	assert.Equal(t, 75.0, matcher.DefaultCutoff(models.EntityKindProduct))
	assert.Equal(t, 80.0, matcher.DefaultCutoff(models.EntityKindAccount))
	assert.Equal(t, 80.0, matcher.DefaultCutoff(models.EntityKindCategory))
	assert.Equal(t, 80.0, matcher.DefaultCutoff(models.EntityKindSupplier))
}

func TestCrossKindIsolation(t *testing.T) {
	ctx := context.Background()
	// The same phrase is an ingredient alias and an account alias; each
	// matcher only knows its own kind.
	ingredients := newIngredientMatcher(t,
		ingredientSnapshot("pizzburg", models.CanonicalEntity{ID: 10, Name: "Кола сироп"}),
		[]models.Alias{{TenantID: "pizzburg", Phrase: "кола", EntityID: 10, EntityKind: models.EntityKindIngredient}},
	)

	accountSnapshot := catalog.NewSnapshot(models.EntityKindAccount, []models.CanonicalEntity{
		{ID: 20, Name: "Счёт закупки напитков", TenantLabel: "pizzburg"},
	})
	accounts := matcher.New(getTestLogger(), models.EntityKindAccount, accountSnapshot,
		[]models.Alias{{TenantID: "pizzburg", Phrase: "кола", EntityID: 20, EntityKind: models.EntityKindAccount}},
		matcher.DefaultConfig(models.EntityKindAccount),
	)

	ingredientHit, err := ingredients.Match(ctx, "кола")
	require.NoError(t, err)
	require.NotNil(t, ingredientHit)
	assert.Equal(t, int64(10), ingredientHit.EntityID)

	accountHit, err := accounts.Match(ctx, "кола")
	require.NoError(t, err)
	require.NotNil(t, accountHit)
	assert.Equal(t, int64(20), accountHit.EntityID)
}
