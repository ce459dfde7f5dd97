package importresolver_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/typeeval/core/internal/importresolver"
	"github.com/typeeval/core/internal/types"
)

func TestRegisterThenLookupRoundTrips(t *testing.T) {
	r := importresolver.New()
	table := types.NewSymbolTable()
	r.Register("pkg/util", table, "util helpers")

	res, ok := r.ImportLookup("pkg/util")
	require.True(t, ok)
	require.Same(t, table, res.SymbolTable)
	require.Equal(t, "util helpers", res.DocString)
}

func TestImportLookupMissingReturnsFalse(t *testing.T) {
	r := importresolver.New()
	_, ok := r.ImportLookup("nope")
	require.False(t, ok)
}

func TestCanonicalizeStripsExtensionsAndBackslashes(t *testing.T) {
	r := importresolver.New()
	require.Equal(t, "pkg/util", r.Canonicalize("pkg\\util.py", ""))
	require.Equal(t, "pkg/util", r.Canonicalize("pkg/util.pyi", ""))
}
