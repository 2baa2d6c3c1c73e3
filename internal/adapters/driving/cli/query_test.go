package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

func TestQueryCmd_Use(t *testing.T) {
	assert.Equal(t, "query [question]", queryCmd.Use)
}

func TestQueryCmd_Flags(t *testing.T) {
	k := queryCmd.Flags().Lookup("top-k")
	require.NotNil(t, k)
	assert.Equal(t, "k", k.Shorthand)
	assert.Equal(t, "0", k.DefValue)

	for _, name := range []string{"country", "visa-type", "json"} {
		assert.NotNil(t, queryCmd.Flags().Lookup(name), name)
	}
}

func TestQueryCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := execute(t, "query")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestQueryCmd_PrintsResults(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.retrieval.result = &domain.Retrieval{
		Chunks: []domain.ScoredChunk{{
			Chunk: domain.Chunk{
				ID: 4, SourceDocument: "uk/skilled_worker/guide.pdf", Pages: []int{3, 4},
				Country: "uk", VisaType: "skilled_worker", Text: "You need a certificate of sponsorship.",
			},
			Distance: 0.1234,
		}},
		Exact:    false,
		Strategy: domain.IndexStrategyHNSW,
	}

	out, err := execute(t, "query", "-k", "3", "--country", "UK", "--visa-type", "skilled_worker", "do I need a sponsor")

	require.NoError(t, err)
	assert.Equal(t, 1, ts.loads)
	assert.Equal(t, 3, ts.retrieval.lastK)
	assert.Equal(t, domain.Filter{Country: "UK", VisaType: "skilled_worker"}, ts.retrieval.lastFilter)
	assert.Contains(t, out, "uk/skilled_worker/guide.pdf")
	assert.Contains(t, out, "pages 3, 4")
	assert.Contains(t, out, "certificate of sponsorship")
	assert.Contains(t, out, "approximate hnsw index")
}

func TestQueryCmd_EmptyFilteredResult(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "query", "--country", "atlantis", "anything")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found for country atlantis.")
}

func TestQueryCmd_JSON(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.retrieval.result = &domain.Retrieval{
		Chunks: []domain.ScoredChunk{{
			Chunk:    domain.Chunk{ID: 1, SourceDocument: "a.txt", Pages: []int{1}, Country: "ca", VisaType: "express_entry", Text: "CRS points."},
			Distance: 2,
		}},
		Exact:    true,
		Strategy: domain.IndexStrategyFlat,
		BuildID:  "b-7",
	}

	out, err := execute(t, "query", "--json", "points")

	require.NoError(t, err)
	var got domain.Retrieval
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, *ts.retrieval.result, got)
}

func TestQueryCmd_NoBuild(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.loadErr = domain.ErrNotFound

	_, err := execute(t, "query", "anything")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "visarag build")
}

func TestQueryCmd_EmbeddingUnavailable(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.retrieval.err = domain.ErrEmbeddingUnavailable

	_, err := execute(t, "query", "anything")

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestPagesLabel(t *testing.T) {
	assert.Equal(t, "no pages", pagesLabel(nil))
	assert.Equal(t, "page 7", pagesLabel([]int{7}))
	assert.Equal(t, "pages 1, 2", pagesLabel([]int{1, 2}))
}

func TestDescribeFilter(t *testing.T) {
	assert.Equal(t, "country us", describeFilter(domain.Filter{Country: "us"}))
	assert.Equal(t, "country us and visa type h1b", describeFilter(domain.Filter{Country: "us", VisaType: "h1b"}))
	assert.Equal(t, "visa type f1", describeFilter(domain.Filter{Country: "  ", VisaType: "f1"}))
}
