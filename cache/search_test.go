package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amfikit/go-amfi-nav-cache/internal"
)

func newTestSearchClient(client internal.RedisClientInterface) *SearchClient {
	return NewSearchClientWithDependencies(client, internal.NewKeyGenerator())
}

func TestParseNamespace(t *testing.T) {
	tests := []struct {
		queryType   string
		expected    Namespace
		expectError bool
	}{
		{"fund", NamespaceFund, false},
		{"fund_house", NamespaceFundHouse, false},
		{"scheme_sub_type", NamespaceSchemeSubType, false},
		{"scheme_sub_type_fund_house", NamespaceSchemeSubTypeFundHouse, false},
		{"funds", 0, true},
		{"FUND", 0, true},
		{"", 0, true},
		{"scheme_type", 0, true},
	}

	for _, tt := range tests {
		t.Run("queryType="+tt.queryType, func(t *testing.T) {
			ns, err := ParseNamespace(tt.queryType)
			if tt.expectError {
				require.Error(t, err)
				assert.True(t, IsInvalidQueryTypeError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ns)
		})
	}
}

func TestNamespaceBehavior(t *testing.T) {
	tests := []struct {
		ns        Namespace
		str       string
		prefix    string
		dictKey   string
		composite bool
	}{
		{NamespaceFund, "fund", "FUND", "fund_ac", false},
		{NamespaceFundHouse, "fund_house", "FUND_HOUSE", "fund_house_ac", false},
		{NamespaceSchemeSubType, "scheme_sub_type", "SCHEME_SUB_TYPE", "scheme_sub_type_ac", true},
		{NamespaceSchemeSubTypeFundHouse, "scheme_sub_type_fund_house", "SCHEME_SUB_TYPE_FUND_HOUSE", "scheme_sub_type_fund_house_ac", true},
	}

	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			assert.Equal(t, tt.str, tt.ns.String())
			assert.Equal(t, tt.prefix, tt.ns.Prefix())
			assert.Equal(t, tt.dictKey, tt.ns.DictKey())
			assert.Equal(t, tt.composite, tt.ns.composite())
		})
	}
}

func TestSearchClient_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("fund namespace strips the prefix from every hit", func(t *testing.T) {
		mockClient := NewMockRedisClient()
		sc := newTestSearchClient(mockClient)

		mockClient.On("SugGetWithRetry", ctx, "fund_ac", "FUND:ABC Equity", true, int64(10)).
			Return([]string{"FUND:ABC Equity Fund - Growth", "FUND:ABC Equity Fund - Dividend"}, nil)

		results, err := sc.Search(ctx, NamespaceFund, "ABC Equity")

		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "ABC Equity Fund - Growth", results[0].Key)
		assert.Nil(t, results[0].Parts)
	})

	t.Run("fund house namespace", func(t *testing.T) {
		mockClient := NewMockRedisClient()
		sc := newTestSearchClient(mockClient)

		mockClient.On("SugGetWithRetry", ctx, "fund_house_ac", "FUND_HOUSE:ABC", true, int64(10)).
			Return([]string{"FUND_HOUSE:ABC Mutual Fund"}, nil)

		results, err := sc.Search(ctx, NamespaceFundHouse, "ABC")

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "ABC Mutual Fund", results[0].Key)
	})

	t.Run("composite namespace splits hits into two parts", func(t *testing.T) {
		mockClient := NewMockRedisClient()
		sc := newTestSearchClient(mockClient)

		mockClient.On("SugGetWithRetry", ctx, "scheme_sub_type_ac", "SCHEME_SUB_TYPE:Open", true, int64(10)).
			Return([]string{"SCHEME_SUB_TYPE:Open Ended:Equity"}, nil)

		results, err := sc.Search(ctx, NamespaceSchemeSubType, "Open")

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, []string{"Open Ended", "Equity"}, results[0].Parts)
	})

	t.Run("scheme sub type fund house splits in storage order", func(t *testing.T) {
		mockClient := NewMockRedisClient()
		sc := newTestSearchClient(mockClient)

		mockClient.On("SugGetWithRetry", ctx, "scheme_sub_type_fund_house_ac", "SCHEME_SUB_TYPE_FUND_HOUSE:Equity", true, int64(10)).
			Return([]string{"SCHEME_SUB_TYPE_FUND_HOUSE:Equity:ABC Mutual Fund"}, nil)

		results, err := sc.Search(ctx, NamespaceSchemeSubTypeFundHouse, "Equity")

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, []string{"Equity", "ABC Mutual Fund"}, results[0].Parts)
	})

	t.Run("hits missing the namespace prefix are dropped", func(t *testing.T) {
		mockClient := NewMockRedisClient()
		sc := newTestSearchClient(mockClient)

		mockClient.On("SugGetWithRetry", ctx, "fund_ac", "FUND:ABC", true, int64(10)).
			Return([]string{"FUND:ABC Fund", "garbage-without-prefix"}, nil)

		results, err := sc.Search(ctx, NamespaceFund, "ABC")

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "ABC Fund", results[0].Key)
	})

	t.Run("no matches yields an empty list, not an error", func(t *testing.T) {
		mockClient := NewMockRedisClient()
		sc := newTestSearchClient(mockClient)

		mockClient.On("SugGetWithRetry", ctx, "fund_ac", "FUND:zzz", true, int64(10)).
			Return(nil, nil)

		results, err := sc.Search(ctx, NamespaceFund, "zzz")

		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("empty query is passed through, not rejected", func(t *testing.T) {
		mockClient := NewMockRedisClient()
		sc := newTestSearchClient(mockClient)

		mockClient.On("SugGetWithRetry", ctx, "fund_ac", "FUND:", true, int64(10)).
			Return(nil, nil)

		results, err := sc.Search(ctx, NamespaceFund, "")

		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("unregistered namespace fails with invalid-query-type", func(t *testing.T) {
		mockClient := NewMockRedisClient()
		sc := newTestSearchClient(mockClient)

		_, err := sc.Search(ctx, Namespace(42), "anything")

		assert.True(t, IsInvalidQueryTypeError(err))
		mockClient.AssertNotCalled(t, "SugGetWithRetry",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSearchClient_SearchByQueryType(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves the namespace from its string form", func(t *testing.T) {
		mockClient := NewMockRedisClient()
		sc := newTestSearchClient(mockClient)

		mockClient.On("SugGetWithRetry", ctx, "fund_house_ac", "FUND_HOUSE:ABC", true, int64(10)).
			Return([]string{"FUND_HOUSE:ABC Mutual Fund"}, nil)

		results, err := sc.SearchByQueryType(ctx, "fund_house", "ABC")

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "ABC Mutual Fund", results[0].Key)
	})

	t.Run("unknown query type fails regardless of query text", func(t *testing.T) {
		sc := newTestSearchClient(NewMockRedisClient())

		for _, query := range []string{"", "ABC"} {
			_, err := sc.SearchByQueryType(ctx, "bogus", query)
			assert.True(t, IsInvalidQueryTypeError(err))
		}
	})
}
