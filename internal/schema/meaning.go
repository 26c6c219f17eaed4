package schema

import "strings"

var abbreviations = map[string]string{
	"nm": "name", "dt": "date", "no": "number", "cd": "code",
	"desc": "description", "amt": "amount", "cnt": "count", "qty": "quantity",
	"addr": "address", "tel": "phone", "ph": "phone", "mob": "phone",
	"ip": "ip", "zip": "zipcode", "msg": "message", "txt": "text",
	"usr": "user", "uid": "id", "pid": "id", "rid": "id",
	"lv": "level", "lvl": "level", "exp": "experience", "gold": "amount",
	"ts": "date", "tm": "date", "dur": "duration", "cost": "price",
	"stat": "status", "sts": "status", "typ": "type", "val": "value",
	"seq": "sequence", "idx": "index", "yn": "yesno", "flg": "yesno",
}

var commentKeywords = []struct {
	words   []string
	meaning string
}{
	{[]string{"phone", "mobile"}, "phone"},
	{[]string{"email", "mail"}, "email"},
	{[]string{"address"}, "address"},
	{[]string{"zip", "postal"}, "zipcode"},
	{[]string{"name"}, "name"},
	{[]string{"ip"}, "ip"},
	{[]string{"time", "date"}, "date"},
	{[]string{"price", "cost", "amount"}, "price"},
	{[]string{"count", "qty", "num"}, "count"},
	{[]string{"age"}, "age"},
	{[]string{"level"}, "level"},
	{[]string{"flag", "enabled", "whether"}, "yesno"},
	{[]string{"country"}, "country"},
	{[]string{"city"}, "city"},
	{[]string{"desc", "content", "detail", "reason"}, "description"},
}

// AnalyzeMeaning guesses what a column holds from its comment, falling back
// to expanding abbreviations in its name.
func AnalyzeMeaning(colName, comment string) string {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(comment), notLetter) {
		words[w] = true
	}
	for _, kw := range commentKeywords {
		for _, w := range kw.words {
			if words[w] {
				return kw.meaning
			}
		}
	}

	parts := strings.FieldsFunc(splitCamel(colName), func(r rune) bool { return r == '_' || r == ' ' })
	decoded := make([]string, 0, len(parts))
	for _, part := range parts {
		if full, ok := abbreviations[part]; ok {
			decoded = append(decoded, full)
		} else {
			decoded = append(decoded, part)
		}
	}
	return strings.Join(decoded, " ")
}

func notLetter(r rune) bool {
	return (r < 'a' || r > 'z') && (r < '0' || r > '9')
}

// splitCamel lowercases createTime into create_time.
func splitCamel(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				sb.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
