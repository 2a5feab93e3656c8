package nodeloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sagsin/internal/domain"
)

func TestToy_MatchesSeedScenario(t *testing.T) {
	nodes := Toy()
	require.Len(t, nodes, 3)

	assert.Equal(t, domain.KindGround, nodes[0].Kind)
	assert.Equal(t, domain.KindGround, nodes[1].Kind)
	assert.Equal(t, domain.KindSatellite, nodes[2].Kind)
	assert.Equal(t, 550000.0, nodes[2].AltM)
}

func TestSaveThenLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodes.json")

	original := Toy()
	require.NoError(t, Save(path, original))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, len(original))

	for i, n := range loaded {
		assert.Equal(t, int32(i), n.ID)
		assert.Equal(t, original[i].Kind, n.Kind)
		assert.Equal(t, original[i].LatDeg, n.LatDeg)
		assert.Equal(t, original[i].Name, n.Name)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	assert.Error(t, err)
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
