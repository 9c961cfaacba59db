package territory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pharmdist/salesflow/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Ташкент  ", "ташкент"},
		{"г. Ташкент, ул. «Навои»", "г ташкент ул навои"},
		{"ＡＢＣ", "abc"},
		{"O‘zbekiston", "ozbekiston"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestCompileVariation(t *testing.T) {
	re, err := compileVariation("Мирзо  Улугбек")
	require.NoError(t, err)
	require.NotNil(t, re)

	assert.True(t, re.MatchString("ташкент мирзо улугбек район"))
	assert.True(t, re.MatchString("мирзо\tулугбек"))
	assert.False(t, re.MatchString("мирзоулугбек"))
	assert.False(t, re.MatchString("ташкент мирзо улугбеклар"))

	empty, err := compileVariation(" ... ")
	require.NoError(t, err)
	assert.Nil(t, empty)
}

const regionsJSON = `{
  "Ташкент": ["Ташкент", "г. Ташкент", "Toshkent"],
  "Самарканд": ["Самарканд"]
}`

const territoriesJSON = `{
  "Ташкент": {
    "Ташкент город": {
      "Чиланзар": [["Чиланзар", "Chilonzor"]],
      "Юнусабад": [["Юнусабад"], ["Yunusobod"]]
    },
    "Ташкентская область": {
      "Чирчик": [["Чирчик"]]
    }
  },
  "Самарканд": {
    "Самарканд": {
      "Ургут": [["Ургут"]]
    }
  }
}`

func TestResolver_Resolve(t *testing.T) {
	regions, err := LoadRegionMapping(writeFile(t, "regions.json", regionsJSON))
	require.NoError(t, err)
	patterns, err := LoadPatterns(writeFile(t, "territories.json", territoriesJSON))
	require.NoError(t, err)
	r := NewResolver(regions, patterns)

	tests := []struct {
		name          string
		region        string
		address       string
		wantRegion    string
		wantTerritory string
		wantOK        bool
	}{
		{"match overrides region", "г. Ташкент", "ул. Чиланзар, 5", "Ташкент город", "Чиланзар", true},
		{"second real region", "Toshkent", "Чирчик, рынок", "Ташкентская область", "Чирчик", true},
		{"latin variation", "Ташкент", "Yunusobod 4", "Ташкент город", "Юнусабад", true},
		{"no address match keeps mapped region", "Ташкент", "Бухара", "Ташкент", "", false},
		{"unknown region", "Москва", "Чиланзар", "", "", false},
		{"empty address", "Самарканд", "", "Самарканд", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region, territory, ok := r.Resolve(tt.region, tt.address)
			assert.Equal(t, tt.wantRegion, region)
			assert.Equal(t, tt.wantTerritory, territory)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestLoadPatterns_ValidSets(t *testing.T) {
	patterns, err := LoadPatterns(writeFile(t, "territories.json", territoriesJSON))
	require.NoError(t, err)

	assert.Equal(t, []string{"Самарканд", "Ташкент город", "Ташкентская область"}, patterns.ValidRegions())
	assert.Equal(t, []string{"Ургут", "Чиланзар", "Чирчик", "Юнусабад"}, patterns.ValidTerritories())
	assert.True(t, patterns.IsValidRegion("Самарканд"))
	assert.False(t, patterns.IsValidTerritory("Бухара"))
	assert.Equal(t, 6, patterns.PatternCount())
}

func TestLoadPatterns_KeepsFileOrder(t *testing.T) {
	// both real regions list the same variation; the first one in the file wins
	patterns, err := LoadPatterns(writeFile(t, "territories.json", `{
		"X": {"Zeta": {"T1": [["центр"]]}, "Alpha": {"T2": [["центр"]]}}
	}`))
	require.NoError(t, err)

	realRegion, territory, ok := patterns.Match("X", "центр")
	require.True(t, ok)
	assert.Equal(t, "Zeta", realRegion)
	assert.Equal(t, "T1", territory)
}

func TestLoadYAML(t *testing.T) {
	regions, err := LoadRegionMapping(writeFile(t, "regions.yaml", `
Ташкент:
  - Ташкент
  - Toshkent
`))
	require.NoError(t, err)
	assert.Equal(t, "Ташкент", regions.Lookup(" TOSHKENT "))

	patterns, err := LoadPatterns(writeFile(t, "territories.yml", `
Ташкент:
  Ташкент город:
    Чиланзар:
      - [Чиланзар]
`))
	require.NoError(t, err)
	_, territory, ok := patterns.Match("Ташкент", "массив чиланзар")
	assert.True(t, ok)
	assert.Equal(t, "Чиланзар", territory)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRegionMapping(filepath.Join(t.TempDir(), "none.json"))
		ee, ok := shared.AsExpected(err)
		require.True(t, ok)
		assert.Equal(t, shared.ErrCodeMappingFile, ee.Code)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("invalid json reports position", func(t *testing.T) {
		_, err := LoadPatterns(writeFile(t, "bad.json", "{\n  \"a\": [1,,]\n}"))
		require.True(t, shared.IsExpected(err))
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("invalid encoding", func(t *testing.T) {
		_, err := LoadRegionMapping(writeFile(t, "latin1.json", "{\"\xe9\": []}"))
		require.True(t, shared.IsExpected(err))
		assert.Contains(t, err.Error(), "UTF-8")
	})

	t.Run("wrong shape", func(t *testing.T) {
		_, err := LoadPatterns(writeFile(t, "shape.json", `{"a": ["b"]}`))
		require.True(t, shared.IsExpected(err))
		assert.Contains(t, err.Error(), "UNEXPECTED STRUCTURE")
	})
}
