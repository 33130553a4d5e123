package measurement

import (
	"strconv"
	"strings"
)

// MetaEntry は、メタデータの1項目です。
type MetaEntry struct {
	Key   string
	Value string
}

// Meta は、計測条件を記録する順序付きのキーと値の組です。
type Meta struct {
	entries []MetaEntry
}

// Set は、項目を追加します。同じキーがあれば値を置き換えます。
func (m *Meta) Set(key, value string) {
	for i := range m.entries {
		if m.entries[i].Key == key {
			m.entries[i].Value = value
			return
		}
	}
	m.entries = append(m.entries, MetaEntry{Key: key, Value: value})
}

func (m *Meta) SetFloat(key string, v float64) {
	m.Set(key, strconv.FormatFloat(v, 'g', -1, 64))
}

func (m *Meta) SetFloats(key string, vs []float64) {
	s := make([]string, len(vs))
	for i, v := range vs {
		s[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	m.Set(key, strings.Join(s, " "))
}

func (m *Meta) Get(key string) string {
	for _, e := range m.entries {
		if e.Key == key {
			return e.Value
		}
	}
	return ""
}

func (m *Meta) Entries() []MetaEntry {
	return m.entries
}
