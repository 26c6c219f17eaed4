package schema

// changeAllow lists, per desired kind, the observed kinds a column may be
// modified from without destructive narrowing. A desired kind with no entry
// is never modified.
var changeAllow = map[SQLType]map[SQLType]bool{
	Bigint:   setOf(Varchar, Longtext, Text, Bigint),
	Bit:      setOf(Longtext, Varchar, Text, Bigint, Integer, Int, Bit),
	Int:      setOf(Longtext, Varchar, Text, Bigint, Integer, Int),
	Integer:  setOf(Longtext, Varchar, Text, Bigint, Integer, Int),
	Tinyint:  setOf(Longtext, Varchar, Text, Bigint, Int, Integer, Tinyint),
	Varchar:  setOf(Longtext, Varchar, Text, Int, Bigint),
	Text:     setOf(Longtext, Text, Varchar),
	Longtext: setOf(Longtext),
}

func setOf(ts ...SQLType) map[SQLType]bool {
	m := make(map[SQLType]bool, len(ts))
	for _, t := range ts {
		m[t] = true
	}
	return m
}

// sizeInvariant kinds compare equal regardless of reported size.
var sizeInvariant = setOf(Bigint, Text, Longtext, Bit, Tinyint)

// IsSame reports whether an observed column already satisfies the desired
// one. Integer-family kinds match each other; size-invariant kinds match
// themselves; otherwise the kinds must be equal and the observed column at
// least as large as desired.
func IsSame(desired, observed ColumnInfo) bool {
	if desired.Type.IsIntegerFamily() && observed.Type.IsIntegerFamily() {
		return true
	}
	if sizeInvariant[desired.Type] && desired.Type == observed.Type {
		return true
	}
	return desired.Type == observed.Type && desired.Size <= observed.Size
}

// AbleChange reports whether observed may be modified into desired.
func AbleChange(desired, observed ColumnInfo) bool {
	allowed, ok := changeAllow[desired.Type]
	if !ok {
		return false
	}
	return allowed[observed.Type]
}
