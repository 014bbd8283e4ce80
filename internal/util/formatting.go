package util

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/constraints"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func Title(s string) string {
	return cases.Title(language.English).String(s)
}

func SortedKeys[K constraints.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Sort(sortableSlice[K](keys))
	return keys
}

func FormatList[T constraints.Ordered](list []T) string {
	var buf strings.Builder

	for index, value := range list {
		if index != 0 {
			buf.WriteString(", ")
		}
		_, _ = fmt.Fprintf(&buf, "%v", value)
	}

	return buf.String()
}

type sortableSlice[T constraints.Ordered] []T

func (s sortableSlice[T]) Len() int           { return len(s) }
func (s sortableSlice[T]) Less(i, j int) bool { return s[i] < s[j] }
func (s sortableSlice[T]) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
