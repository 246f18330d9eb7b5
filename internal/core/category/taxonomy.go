package category

// Entry 靜態分類表的一筆條目，運行期唯讀
type Entry struct {
	CanonicalName string
	Aliases       []string
	IsCore        bool
}

// taxonomyEntries 預定義分類。CanonicalName 保留原始大小寫供顯示，
// 比對一律走 Normalize 後的形式。
var taxonomyEntries = []Entry{
	{CanonicalName: "Beef", Aliases: []string{"steak"}, IsCore: true},
	{CanonicalName: "Chicken", Aliases: []string{"poultry"}, IsCore: true},
	{CanonicalName: "Pork", IsCore: true},
	{CanonicalName: "Lamb", IsCore: true},
	{CanonicalName: "Seafood", Aliases: []string{"fish", "shellfish"}, IsCore: true},
	{CanonicalName: "Pasta", Aliases: []string{"noodles"}, IsCore: true},
	{CanonicalName: "Soups", Aliases: []string{"stews"}, IsCore: true},
	{CanonicalName: "Salads", IsCore: true},
	{CanonicalName: "Desserts", Aliases: []string{"sweets", "baking"}, IsCore: true},
	{CanonicalName: "Breakfast", Aliases: []string{"brunch"}, IsCore: true},
	{CanonicalName: "Lunch", IsCore: true},
	{CanonicalName: "Dinner", Aliases: []string{"supper"}, IsCore: true},
	{CanonicalName: "Snacks", IsCore: true},
	{CanonicalName: "Appetizers", Aliases: []string{"starters", "hors doeuvres"}, IsCore: true},
	{CanonicalName: "Beverages", Aliases: []string{"drinks"}, IsCore: true},
	{CanonicalName: "Italian", IsCore: false},
	{CanonicalName: "Asian", IsCore: false},
	{CanonicalName: "Mexican", IsCore: false},
	{CanonicalName: "Vegetarian", Aliases: []string{"veggie"}, IsCore: false},
	{CanonicalName: "Vegan", IsCore: false},
	{CanonicalName: "Baked", IsCore: false},
	{CanonicalName: "Grilled", Aliases: []string{"barbecue", "bbq"}, IsCore: false},
	{CanonicalName: "Fried", IsCore: false},
	{CanonicalName: "Slow-Cooked", Aliases: []string{"crockpot"}, IsCore: false},
	{CanonicalName: "No-Cook", Aliases: []string{"raw"}, IsCore: false},
	{CanonicalName: "One-Pot", Aliases: []string{"skillet"}, IsCore: false},
	{CanonicalName: "Bread", Aliases: []string{"loaves"}, IsCore: false},
	{CanonicalName: "Sauces", Aliases: []string{"condiments", "dressings"}, IsCore: false},
}

// equivalenceGroups 人工維護的語義等價組。
// 鍵與成員都是標準形；一個詞可以出現在多個組裡。
var equivalenceGroups = map[string][]string{
	"main course":  {"beef", "chicken", "pork", "lamb", "seafood", "pasta"},
	"main dish":    {"beef", "chicken", "pork", "lamb", "seafood", "pasta"},
	"entree":       {"beef", "chicken", "pork", "lamb", "seafood", "pasta"},
	"entrée":       {"beef", "chicken", "pork", "lamb", "seafood", "pasta"},
	"meat":         {"beef", "chicken", "pork", "lamb"},
	"protein":      {"beef", "chicken", "pork", "lamb", "seafood"},
	"sweet treat":  {"dessert", "snack"},
	"baking":       {"dessert", "bread", "baked"},
	"starter":      {"appetizer", "salad", "soup"},
	"side dish":    {"salad", "soup", "bread", "sauce"},
	"side":         {"salad", "soup", "bread", "sauce"},
	"comfort food": {"soup", "pasta", "baked"},
	"healthy":      {"salad", "vegetarian", "vegan"},
	"plant based":  {"vegetarian", "vegan"},
	"quick meal":   {"snack", "one pot", "no cook"},
	"barbecue":     {"grilled", "beef", "pork"},
}

// normalizedIndex 標準形 → 正準名稱，啟動時由條目與別名建立
var normalizedIndex = buildNormalizedIndex()

func buildNormalizedIndex() map[string]string {
	idx := make(map[string]string, len(taxonomyEntries)*2)
	for _, entry := range taxonomyEntries {
		idx[Normalize(entry.CanonicalName)] = entry.CanonicalName
		for _, alias := range entry.Aliases {
			idx[Normalize(alias)] = entry.CanonicalName
		}
	}
	return idx
}

// CanonicalNames 回傳所有正準分類名稱，順序與條目表一致
func CanonicalNames() []string {
	names := make([]string, len(taxonomyEntries))
	for i, entry := range taxonomyEntries {
		names[i] = entry.CanonicalName
	}
	return names
}

// LookupCanonical 以標準形查找正準名稱，別名也會命中
func LookupCanonical(normalized string) (string, bool) {
	name, ok := normalizedIndex[normalized]
	return name, ok
}

// IsTaxonomyCategory 檢查名稱（含別名）是否屬於靜態分類表
func IsTaxonomyCategory(name string) bool {
	_, ok := normalizedIndex[Normalize(name)]
	return ok
}

// SynonymSet 回傳某標準形的語義同義詞集：
// 它作為組鍵的所有成員，加上包含它的所有組的其餘成員與組鍵。
// 不在任何組內時回傳空集。
func SynonymSet(normalized string) map[string]struct{} {
	set := make(map[string]struct{})
	if members, ok := equivalenceGroups[normalized]; ok {
		for _, m := range members {
			set[m] = struct{}{}
		}
	}
	for key, members := range equivalenceGroups {
		for _, m := range members {
			if m == normalized {
				set[key] = struct{}{}
				for _, other := range members {
					if other != normalized {
						set[other] = struct{}{}
					}
				}
				break
			}
		}
	}
	return set
}
