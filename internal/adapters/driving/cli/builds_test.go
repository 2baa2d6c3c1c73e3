package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

func TestBuildsCmd_Empty(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "builds")

	require.NoError(t, err)
	assert.Contains(t, out, "No builds yet.")
}

func TestBuildsCmd_MarksCurrent(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	older := *sampleRecord()
	older.ID = "older-build"
	older.Skipped = nil
	ts.index.records = []domain.BuildRecord{*sampleRecord(), older}
	ts.retrieval.manifest = &sampleRecord().BuildManifest

	out, err := execute(t, "builds")

	require.NoError(t, err)
	assert.Contains(t, out, "* 0b8a4c1e")
	assert.Contains(t, out, "  older-build")
	assert.Contains(t, out, "1 skipped")
}

func TestBuildsCmd_Limit(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.records = []domain.BuildRecord{*sampleRecord(), *sampleRecord(), *sampleRecord()}

	out, err := execute(t, "builds", "-n", "1", "--json")

	require.NoError(t, err)
	var got []domain.BuildRecord
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got, 1)
}
