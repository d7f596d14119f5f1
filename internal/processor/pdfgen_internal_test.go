// Copyright (c) 2025 Justin Cranford

package processor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderTextToPDF_ProducesNonEmptyPDFBytes(t *testing.T) {
	t.Parallel()
	out, err := renderTextToPDF("Hello, World!\nSecond line.")
	require.NoError(t, err)
	require.NotEmpty(t, out)
	require.Equal(t, "%PDF", string(out[:4]))
}

func TestRenderTextToPDF_EmptyTextStillProducesAPage(t *testing.T) {
	t.Parallel()
	out, err := renderTextToPDF("")
	require.NoError(t, err)
	require.NotEmpty(t, out)
}
