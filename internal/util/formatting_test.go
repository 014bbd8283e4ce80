package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSortedKeys(t *testing.T) {
	require.Equal(t, []string{"ms0", "ms1", "ms2"}, SortedKeys(map[string]int{"ms2": 2, "ms0": 0, "ms1": 1}))
	require.Empty(t, SortedKeys(map[string]int{}))
}

func TestFormatList(t *testing.T) {
	require.Equal(t, "", FormatList([]string{}))
	require.Equal(t, "ms0, ms1", FormatList([]string{"ms0", "ms1"}))
	require.Equal(t, "1, 2, 3", FormatList([]int{1, 2, 3}))
}

func TestTitle(t *testing.T) {
	require.Equal(t, "Podman", Title("podman"))
}
