package integration

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amfikit/go-amfi-nav-cache/cache"
	"github.com/amfikit/go-amfi-nav-cache/models"
)

func TestNavCache_WriteAndGetFund_Integration(t *testing.T) {
	navCache, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	record := &models.FundRecord{
		SchemeCode:      "119551",
		SchemeName:      "Integration Equity Fund - Growth",
		NAV:             "84.2310",
		Date:            "28-Aug-2026",
		SchemeType:      "Open Ended",
		SchemeSubType:   "Equity",
		SchemeFundHouse: "Integration Mutual Fund",
	}

	require.NoError(t, navCache.WriteFund(ctx, record))

	retrieved, err := navCache.GetFund(ctx, record.SchemeName)
	require.NoError(t, err)
	assert.Equal(t, record, retrieved)

	_, err = navCache.GetFund(ctx, "Integration No Such Fund")
	assert.True(t, cache.IsFundNotFoundError(err))
}

func TestNavCache_Hierarchy_Integration(t *testing.T) {
	navCache, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	fundNames := []string{"Integration Fund A", "Integration Fund B"}
	require.NoError(t, navCache.AddFundHouse(ctx, "Integration Mutual Fund", fundNames))
	require.NoError(t, navCache.AddFundHouseUnderSubType(ctx, "Equity", "Integration Mutual Fund", fundNames))
	require.NoError(t, navCache.AddSchemeSubType(ctx, "Open Ended", "Equity", []string{"Integration Mutual Fund"}))
	require.NoError(t, navCache.AddSchemeType(ctx, "Open Ended", []string{"Equity"}))

	funds, err := navCache.GetFundHouseFunds(ctx, "Integration Mutual Fund")
	require.NoError(t, err)
	assert.ElementsMatch(t, fundNames, funds)

	// Set semantics: re-adding the same members does not duplicate them
	require.NoError(t, navCache.AddFundHouse(ctx, "Integration Mutual Fund", fundNames[:1]))
	funds, err = navCache.GetFundHouseFunds(ctx, "Integration Mutual Fund")
	require.NoError(t, err)
	assert.Len(t, funds, 2)

	_, err = navCache.GetFundHouseFunds(ctx, "Integration Ghost House")
	assert.True(t, cache.IsFundHouseNotFoundError(err))
}

func TestNavCache_ListAndCount_Integration(t *testing.T) {
	navCache, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	for _, name := range []string{"Integration Zeta Fund", "Integration Alpha Fund"} {
		record := &models.FundRecord{SchemeCode: "1", SchemeName: name, NAV: "10.0", Date: "28-Aug-2026"}
		require.NoError(t, navCache.WriteFund(ctx, record))
	}

	names, err := navCache.ListAllFundKeys(ctx)
	require.NoError(t, err)
	assert.True(t, len(names) >= 2)
	assert.IsIncreasing(t, names)

	count, err := navCache.CountFunds(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(names), count)
}

func TestSearchClient_Integration(t *testing.T) {
	navCache, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	record := &models.FundRecord{
		SchemeCode: "119551",
		SchemeName: "Integration Searchable Fund",
		NAV:        "12.3400",
		Date:       "28-Aug-2026",
	}
	require.NoError(t, navCache.WriteFund(ctx, record))

	config := testConfig()
	searchClient, err := cache.NewSearchClient(config)
	require.NoError(t, err)
	defer searchClient.Close()

	results, err := searchClient.Search(ctx, cache.NamespaceFund, "Integration Search")
	if err != nil {
		// FT.SUGGET needs the RediSearch module; a plain Redis answers
		// with an unknown-command error.
		t.Skip("RediSearch not available for testing:", err)
	}

	found := false
	for _, result := range results {
		if result.Key == record.SchemeName {
			found = true
		}
	}
	assert.True(t, found, "expected %q in results %v", record.SchemeName, results)
}

func TestRebuilder_Integration(t *testing.T) {
	navCache, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	snapshot := models.Snapshot{
		"Open Ended": {
			"Equity": {
				"Integration Mutual Fund": {
					{SchemeCode: "1", SchemeName: "Integration Rebuilt Fund", NAV: "10.0", Date: "28-Aug-2026"},
				},
			},
		},
	}

	rebuilder := cache.NewRebuilder(navCache, slog.New(slog.NewTextHandler(io.Discard, nil)))
	source := cache.SnapshotFunc(func(ctx context.Context) (models.Snapshot, error) {
		return snapshot, nil
	})

	status, err := rebuilder.Rebuild(ctx, source)
	require.NoError(t, err)
	assert.Equal(t, cache.RebuildCompleted, status.State)
	assert.Equal(t, 1, status.FundsWritten)

	record, err := navCache.GetFund(ctx, "Integration Rebuilt Fund")
	require.NoError(t, err)
	assert.Equal(t, "Open Ended", record.SchemeType)
	assert.Equal(t, "Equity", record.SchemeSubType)
	assert.Equal(t, "Integration Mutual Fund", record.SchemeFundHouse)

	funds, err := navCache.GetFundHouseFunds(ctx, "Integration Mutual Fund")
	require.NoError(t, err)
	assert.Contains(t, funds, "Integration Rebuilt Fund")
}

func testConfig() *cache.RedisConfig {
	config := cache.DefaultRedisConfig()
	config.RedisDB = 15 // Use a different DB for tests
	return config
}

func setupTestCache(t *testing.T) (cache.Cache, func()) {
	navCache, err := cache.NewNavCache(testConfig())
	require.NoError(t, err)

	// Test Redis connection
	ctx := context.Background()
	if err := navCache.Health(ctx); err != nil {
		t.Skip("Redis not available for testing:", err)
	}

	// Cleanup function
	cleanup := func() {
		ctx := context.Background()
		for _, prefix := range []string{
			cache.FundPrefix,
			cache.FundHousePrefix,
			cache.SchemeTypePrefix,
			cache.SchemeSubTypePrefix,
			cache.SchemeSubTypeFundHousePrefix,
		} {
			_ = navCache.Cleanup(ctx, prefix)
		}
		_ = navCache.Close()
	}

	return navCache, cleanup
}
