package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/catalog"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/models"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func TestLoader_Load(t *testing.T) {
	source := catalog.SourceFunc(func(ctx context.Context, tenantID string, kind models.EntityKind) ([]catalog.Record, error) {
		return []catalog.Record{
			{ID: 12, Name: "Филе ЦБ, групп, охл", Unit: "кг"},
			{ID: 55, Name: "Брынза Сербская", Unit: "кг"},
			{ID: 0, Name: "битая строка"},
			{ID: 77, Name: "   "},
		}, nil
	})

	loader := catalog.NewLoader(getTestLogger(), source, catalog.LoaderConfig{})
	snapshot, err := loader.Load(context.Background(), "pizzburg", models.EntityKindIngredient)
	require.NoError(t, err)

	assert.Equal(t, 2, snapshot.Len())

	entity, ok := snapshot.LookupID("pizzburg", 12)
	require.True(t, ok)
	assert.Equal(t, "Филе ЦБ, групп, охл", entity.Name)
	assert.Equal(t, "кг", entity.Unit)
	assert.Equal(t, "pizzburg", entity.TenantLabel)

	_, ok = snapshot.LookupID("pizzburg", 0)
	assert.False(t, ok)
	_, ok = snapshot.LookupID("pizzburg", 77)
	assert.False(t, ok)
}

func TestLoader_ProductCategoryFilter(t *testing.T) {
	source := catalog.SourceFunc(func(ctx context.Context, tenantID string, kind models.EntityKind) ([]catalog.Record, error) {
		return []catalog.Record{
			{ID: 1, Name: "Кола 0.5", Category: "Напитки"},
			{ID: 2, Name: "Сок яблочный", Category: "напитки"},
			{ID: 3, Name: "Пицца Маргарита", Category: "Пиццы"},
		}, nil
	})

	loader := catalog.NewLoader(getTestLogger(), source, catalog.LoaderConfig{
		ProductCategories: []string{"Напитки"},
	})

	snapshot, err := loader.Load(context.Background(), "pizzburg", models.EntityKindProduct)
	require.NoError(t, err)

	assert.Equal(t, 2, snapshot.Len())
	assert.True(t, snapshot.Contains(1))
	assert.True(t, snapshot.Contains(2), "category comparison is case-insensitive")
	assert.False(t, snapshot.Contains(3))
}

func TestLoader_CategoryFilterOnlyAppliesToProducts(t *testing.T) {
	source := catalog.SourceFunc(func(ctx context.Context, tenantID string, kind models.EntityKind) ([]catalog.Record, error) {
		return []catalog.Record{
			{ID: 10, Name: "Мука", Category: "Бакалея"},
		}, nil
	})

	loader := catalog.NewLoader(getTestLogger(), source, catalog.LoaderConfig{
		ProductCategories: []string{"Напитки"},
	})

	snapshot, err := loader.Load(context.Background(), "pizzburg", models.EntityKindIngredient)
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.Len())
}

func TestLoader_SourceError(t *testing.T) {
	sourceErr := errors.New("pos api down")
	source := catalog.SourceFunc(func(ctx context.Context, tenantID string, kind models.EntityKind) ([]catalog.Record, error) {
		return nil, sourceErr
	})

	loader := catalog.NewLoader(getTestLogger(), source, catalog.LoaderConfig{})
	snapshot, err := loader.Load(context.Background(), "pizzburg", models.EntityKindIngredient)
	assert.Nil(t, snapshot)
	assert.ErrorIs(t, err, sourceErr)
}

func TestSnapshot_LookupName(t *testing.T) {
	snapshot := catalog.NewSnapshot(models.EntityKindIngredient, []models.CanonicalEntity{
		{ID: 7, Name: "Сыр", TenantLabel: "pizzburg"},
		{ID: 99, Name: "СЫР", TenantLabel: "pizzburg-cafe"},
		{ID: 12, Name: "Филе ЦБ", TenantLabel: "pizzburg"},
	})

	entities := snapshot.LookupName("сыр")
	require.Len(t, entities, 2, "same-named entities across tenants are both indexed")

	assert.Empty(t, snapshot.LookupName("молоко"))
}

func TestMergeSnapshots(t *testing.T) {
	a := catalog.NewSnapshot(models.EntityKindIngredient, []models.CanonicalEntity{
		{ID: 7, Name: "Сыр", TenantLabel: "pizzburg"},
	})
	b := catalog.NewSnapshot(models.EntityKindIngredient, []models.CanonicalEntity{
		{ID: 7, Name: "Молоко", TenantLabel: "pizzburg-cafe"},
	})

	merged := catalog.MergeSnapshots(models.EntityKindIngredient, a, b)
	assert.Equal(t, 2, merged.Len())

	// Ids collide across tenants; lookups stay per-tenant.
	cheese, ok := merged.LookupID("pizzburg", 7)
	require.True(t, ok)
	assert.Equal(t, "Сыр", cheese.Name)

	milk, ok := merged.LookupID("pizzburg-cafe", 7)
	require.True(t, ok)
	assert.Equal(t, "Молоко", milk.Name)
}
