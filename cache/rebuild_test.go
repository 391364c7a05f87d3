package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amfikit/go-amfi-nav-cache/internal"
	"github.com/amfikit/go-amfi-nav-cache/models"
)

// memCache is an in-memory Cache used to observe what a rebuild writes
type memCache struct {
	mu                 sync.Mutex
	funds              map[string]models.FundRecord
	fundHouses         map[string][]string
	housesUnderSubType map[string][]string
	subTypes           map[string][]string
	schemeTypes        map[string][]string
	failFundWrites     bool
}

func newMemCache() *memCache {
	return &memCache{
		funds:              make(map[string]models.FundRecord),
		fundHouses:         make(map[string][]string),
		housesUnderSubType: make(map[string][]string),
		subTypes:           make(map[string][]string),
		schemeTypes:        make(map[string][]string),
	}
}

func (m *memCache) WriteFund(ctx context.Context, record *models.FundRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFundWrites {
		return internal.NewConnectionError("store unavailable", nil)
	}
	m.funds[record.SchemeName] = *record
	return nil
}

func (m *memCache) AddFundHouseUnderSubType(ctx context.Context, schemeSubType, houseName string, fundNames []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := schemeSubType + "|" + houseName
	m.housesUnderSubType[key] = append(m.housesUnderSubType[key], fundNames...)
	return nil
}

func (m *memCache) AddFundHouse(ctx context.Context, houseName string, fundNames []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fundHouses[houseName] = append(m.fundHouses[houseName], fundNames...)
	return nil
}

func (m *memCache) AddSchemeSubType(ctx context.Context, schemeType, schemeSubType string, houseNames []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := schemeType + "|" + schemeSubType
	m.subTypes[key] = append(m.subTypes[key], houseNames...)
	return nil
}

func (m *memCache) AddSchemeType(ctx context.Context, schemeType string, subTypeNames []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemeTypes[schemeType] = append(m.schemeTypes[schemeType], subTypeNames...)
	return nil
}

func (m *memCache) GetFund(ctx context.Context, schemeName string) (*models.FundRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.funds[schemeName]
	if !ok {
		return nil, internal.NewFundNotFoundError(schemeName)
	}
	return &record, nil
}

func (m *memCache) GetFundHouseFunds(ctx context.Context, houseName string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	funds := m.fundHouses[houseName]
	if len(funds) == 0 {
		return nil, internal.NewFundHouseNotFoundError(houseName)
	}
	return funds, nil
}

func (m *memCache) ListAllFundKeys(ctx context.Context) ([]string, error) { return nil, nil }
func (m *memCache) CountFunds(ctx context.Context) (int, error)           { return len(m.funds), nil }
func (m *memCache) Cleanup(ctx context.Context, prefix string) error      { return nil }
func (m *memCache) Health(ctx context.Context) error                      { return nil }
func (m *memCache) Close() error                                          { return nil }

func testSnapshot() models.Snapshot {
	return models.Snapshot{
		"Open Ended": {
			"Equity": {
				"ABC Mutual Fund": {
					{
						SchemeCode: "119551",
						SchemeName: "ABC Equity Fund - Growth",
						NAV:        "84.2310",
						Date:       "28-Aug-2026",
					},
				},
			},
		},
	}
}

func staticSource(snapshot models.Snapshot) SnapshotSource {
	return SnapshotFunc(func(ctx context.Context) (models.Snapshot, error) {
		return snapshot, nil
	})
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRebuilder_Rebuild(t *testing.T) {
	ctx := context.Background()

	t.Run("populates every hierarchy level from the snapshot", func(t *testing.T) {
		mem := newMemCache()
		r := NewRebuilder(mem, quietLogger())

		status, err := r.Rebuild(ctx, staticSource(testSnapshot()))

		require.NoError(t, err)
		assert.Equal(t, RebuildCompleted, status.State)
		assert.Equal(t, 1, status.FundsWritten)
		assert.Zero(t, status.SkippedRecords)

		record, err := mem.GetFund(ctx, "ABC Equity Fund - Growth")
		require.NoError(t, err)
		assert.Equal(t, "Open Ended", record.SchemeType)
		assert.Equal(t, "Equity", record.SchemeSubType)
		assert.Equal(t, "ABC Mutual Fund", record.SchemeFundHouse)

		funds, err := mem.GetFundHouseFunds(ctx, "ABC Mutual Fund")
		require.NoError(t, err)
		assert.Contains(t, funds, "ABC Equity Fund - Growth")

		assert.Contains(t, mem.housesUnderSubType["Equity|ABC Mutual Fund"], "ABC Equity Fund - Growth")
		assert.Contains(t, mem.subTypes["Open Ended|Equity"], "ABC Mutual Fund")
		assert.Contains(t, mem.schemeTypes["Open Ended"], "Equity")
	})

	t.Run("fund name with the delimiter is skipped, not fatal", func(t *testing.T) {
		snapshot := testSnapshot()
		snapshot["Open Ended"]["Equity"]["ABC Mutual Fund"] = append(
			snapshot["Open Ended"]["Equity"]["ABC Mutual Fund"],
			models.FundRecord{SchemeCode: "2", SchemeName: "Bad: Fund", NAV: "1.0"},
		)

		mem := newMemCache()
		r := NewRebuilder(mem, quietLogger())

		status, err := r.Rebuild(ctx, staticSource(snapshot))

		require.NoError(t, err)
		assert.Equal(t, RebuildCompleted, status.State)
		assert.Equal(t, 1, status.FundsWritten)
		assert.Equal(t, 1, status.SkippedRecords)

		_, err = mem.GetFund(ctx, "Bad: Fund")
		assert.True(t, IsFundNotFoundError(err))
	})

	t.Run("fund house name with the delimiter skips the whole house", func(t *testing.T) {
		snapshot := models.Snapshot{
			"Open Ended": {
				"Equity": {
					"Bad:House": {
						{SchemeCode: "1", SchemeName: "Fund A", NAV: "1.0"},
						{SchemeCode: "2", SchemeName: "Fund B", NAV: "2.0"},
					},
				},
			},
		}

		mem := newMemCache()
		r := NewRebuilder(mem, quietLogger())

		status, err := r.Rebuild(ctx, staticSource(snapshot))

		require.NoError(t, err)
		assert.Zero(t, status.FundsWritten)
		assert.Equal(t, 2, status.SkippedRecords)
	})

	t.Run("store failure fails the batch and records the error", func(t *testing.T) {
		mem := newMemCache()
		mem.failFundWrites = true
		r := NewRebuilder(mem, quietLogger())

		status, err := r.Rebuild(ctx, staticSource(testSnapshot()))

		require.Error(t, err)
		assert.Equal(t, RebuildFailed, status.State)
		assert.NotEmpty(t, status.LastError)
		assert.Equal(t, RebuildFailed, r.Status().State)
	})

	t.Run("snapshot fetch failure fails the rebuild", func(t *testing.T) {
		r := NewRebuilder(newMemCache(), quietLogger())

		source := SnapshotFunc(func(ctx context.Context) (models.Snapshot, error) {
			return nil, fmt.Errorf("upstream unavailable")
		})

		status, err := r.Rebuild(ctx, source)

		require.Error(t, err)
		assert.Equal(t, RebuildFailed, status.State)
	})
}

func TestRebuilder_ConcurrentRebuildRejected(t *testing.T) {
	ctx := context.Background()

	mem := newMemCache()
	r := NewRebuilder(mem, quietLogger())

	release := make(chan struct{})
	blocking := SnapshotFunc(func(ctx context.Context) (models.Snapshot, error) {
		<-release
		return testSnapshot(), nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := r.Rebuild(ctx, blocking)
		done <- err
	}()

	// Wait until the first rebuild is in flight.
	require.Eventually(t, r.Running, time.Second, time.Millisecond)

	_, err := r.Rebuild(ctx, staticSource(testSnapshot()))
	assert.True(t, IsRebuildInProgressError(err))

	close(release)
	require.NoError(t, <-done)

	// Once idle again, a new rebuild is accepted.
	status, err := r.Rebuild(ctx, staticSource(testSnapshot()))
	require.NoError(t, err)
	assert.Equal(t, RebuildCompleted, status.State)
}

func TestRebuildStateString(t *testing.T) {
	assert.Equal(t, "idle", RebuildIdle.String())
	assert.Equal(t, "running", RebuildRunning.String())
	assert.Equal(t, "completed", RebuildCompleted.String())
	assert.Equal(t, "failed", RebuildFailed.String())
	assert.Equal(t, "unknown", RebuildState(9).String())
}
