package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KonishchevDmitry/storage-harness/internal/metrics"
)

func TestDumpMetrics(t *testing.T) {
	metrics.ScratchFilesMetric.Inc()

	var buf bytes.Buffer
	require.NoError(t, dumpMetrics(&buf))

	output := buf.String()
	require.Contains(t, output, "# TYPE storage_harness_scratch_files_created counter")
	require.Contains(t, output, "storage_harness_handles_opened")
	require.NotContains(t, output, "go_goroutines")
}
