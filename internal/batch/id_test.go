package batch

import (
	"testing"

	"github.com/halvardk/vaultctl/internal/model"
	"github.com/stretchr/testify/require"
)

func TestComputeBatchID_Deterministic(t *testing.T) {
	a := ComputeBatchID(model.OperationUpload, []string{"/b", "/a"}, "/remote")
	b := ComputeBatchID(model.OperationUpload, []string{"/a", "/b"}, "/remote")
	require.Equal(t, a, b, "sort order of sources must not affect the id")
	require.Len(t, a, 16)
}

func TestComputeBatchID_DiffersByTarget(t *testing.T) {
	a := ComputeBatchID(model.OperationUpload, []string{"/a"}, "/remote1")
	b := ComputeBatchID(model.OperationUpload, []string{"/a"}, "/remote2")
	require.NotEqual(t, a, b)
}

func TestComputeBatchID_DiffersByOperation(t *testing.T) {
	a := ComputeBatchID(model.OperationUpload, []string{"/a"}, "/remote")
	b := ComputeBatchID(model.OperationDownload, []string{"/a"}, "/remote")
	require.NotEqual(t, a, b)
}
