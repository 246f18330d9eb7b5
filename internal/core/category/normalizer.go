package category

import (
	"strings"
	"unicode"
)

// irregularSingulars 不規則複數與已知不該去尾的單數。
// 樸素的去尾 s 會把 hummus 切成 hummu，先查表再退回去尾規則。
var irregularSingulars = map[string]string{
	// "ies" 規則會把這些切成 cooky / smoothy
	"cookies":   "cookie",
	"smoothies": "smoothie",
	"brownies":  "brownie",
	"veggies":   "veggie",
	// 本身就是單數，不該去尾
	"hummus":    "hummus",
	"couscous":  "couscous",
	"asparagus": "asparagus",
	"citrus":    "citrus",
	"molasses":  "molasses",
	"swiss":     "swiss",
}

// Normalize 將分類字串轉為標準比較形式。
// 依序：小寫、去頭尾空白、標點改為空白、壓縮空白、單數化。
// 純函數，任何輸入都有輸出，兩個標準形相同的字串視為同一分類。
// 標點換成空白而非直接刪除，"One-Pot" 與 "one pot" 才會是同一標準形。
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	words := strings.Fields(b.String())
	if len(words) == 0 {
		return ""
	}

	// 只單數化最後一個詞，"main courses" → "main course"
	words[len(words)-1] = singularize(words[len(words)-1])

	return strings.Join(words, " ")
}

// singularize 樸素單數化：先查不規則表，再去單一尾 s
func singularize(word string) string {
	if singular, ok := irregularSingulars[word]; ok {
		return singular
	}
	// "ies" 結尾的常見規則：berries → berry
	if strings.HasSuffix(word, "ies") && len(word) > 3 {
		return strings.TrimSuffix(word, "ies") + "y"
	}
	// 避免把 "ss" 結尾（glass、bass）剁掉
	if strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") && len(word) > 1 {
		return strings.TrimSuffix(word, "s")
	}
	return word
}
