package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalNamesCoverAllEntries(t *testing.T) {
	names := CanonicalNames()
	require.Len(t, names, len(taxonomyEntries))

	seen := make(map[string]struct{})
	for _, name := range names {
		_, dup := seen[name]
		assert.False(t, dup, "重複的正準名稱: %s", name)
		seen[name] = struct{}{}
	}
}

func TestLookupCanonicalByName(t *testing.T) {
	name, ok := LookupCanonical(Normalize("Pasta"))
	require.True(t, ok)
	assert.Equal(t, "Pasta", name)

	// 複數輸入與正準名稱共享同一標準形
	name, ok = LookupCanonical(Normalize("Soups"))
	require.True(t, ok)
	assert.Equal(t, "Soups", name)
}

func TestLookupCanonicalByAlias(t *testing.T) {
	tests := []struct {
		alias string
		want  string
	}{
		{"poultry", "Chicken"},
		{"bbq", "Grilled"},
		{"drinks", "Beverages"},
		{"crockpot", "Slow-Cooked"},
		{"sweets", "Desserts"},
	}

	for _, tt := range tests {
		t.Run(tt.alias, func(t *testing.T) {
			name, ok := LookupCanonical(Normalize(tt.alias))
			require.True(t, ok)
			assert.Equal(t, tt.want, name)
		})
	}
}

func TestLookupCanonicalMiss(t *testing.T) {
	_, ok := LookupCanonical("zzyzx")
	assert.False(t, ok)
}

func TestIsTaxonomyCategory(t *testing.T) {
	assert.True(t, IsTaxonomyCategory("Pasta"))
	assert.True(t, IsTaxonomyCategory("pasta"))
	assert.True(t, IsTaxonomyCategory("One-Pot"))
	assert.False(t, IsTaxonomyCategory("Weeknight Favorites"))
}

func TestSynonymSetGroupKey(t *testing.T) {
	set := SynonymSet("main course")
	require.NotEmpty(t, set)

	for _, member := range []string{"beef", "chicken", "pork", "lamb", "seafood", "pasta"} {
		_, ok := set[member]
		assert.True(t, ok, "main course 應包含 %s", member)
	}
}

func TestSynonymSetMembership(t *testing.T) {
	// beef 是多個等價組的成員，詞集應帶回組裡的其他成員
	set := SynonymSet("beef")
	require.NotEmpty(t, set)

	_, hasChicken := set["chicken"]
	assert.True(t, hasChicken)
}

func TestSynonymSetEmptyForUnknown(t *testing.T) {
	assert.Empty(t, SynonymSet("quantum physics"))
}

func TestEquivalenceGroupMembersAreNormalizedTaxonomyNames(t *testing.T) {
	// 等價組成員必須是某個正準名稱的標準形，否則語義匹配永遠打不中
	for key, members := range equivalenceGroups {
		for _, member := range members {
			_, ok := LookupCanonical(member)
			assert.True(t, ok, "組 %s 的成員 %s 不在分類表", key, member)
			assert.Equal(t, member, Normalize(member), "組 %s 的成員 %s 不是標準形", key, member)
		}
	}
}
