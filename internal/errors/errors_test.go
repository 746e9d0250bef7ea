package errors_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keepclip/keepclip/internal/errors"
)

func TestBuilderDefaultsCategoryAndComponent(t *testing.T) {
	err := errors.Newf("boom").Build()
	require.Equal(t, errors.CategoryGeneric, err.Category)
	require.NotEmpty(t, err.GetComponent())
}

func TestBuilderPreservesExplicitFields(t *testing.T) {
	err := errors.Newf("disk write failed").
		Component("videoring").
		Category(errors.CategoryDiskIO).
		Context("slot", 7).
		Build()

	require.Equal(t, "videoring", err.GetComponent())
	require.Equal(t, errors.CategoryDiskIO, err.Category)
	require.Equal(t, 7, err.GetContext()["slot"])
}

func TestIsCategoryAndHelpers(t *testing.T) {
	busy := errors.Newf("extraction in progress").Category(errors.CategoryConflict).Build()
	cancelled := errors.Newf("extraction cancelled").Category(errors.CategoryCancellation).Build()

	require.True(t, errors.IsBusy(busy))
	require.False(t, errors.IsBusy(cancelled))
	require.True(t, errors.IsCancelled(cancelled))
	require.False(t, errors.IsCancelled(busy))
}

func TestStandardLibraryPassthrough(t *testing.T) {
	base := errors.NewStd("base")
	wrapped := errors.New(base).Category(errors.CategoryFileIO).Build()

	require.True(t, errors.Is(wrapped, base))

	var asEnhanced *errors.EnhancedError
	require.True(t, errors.As(wrapped, &asEnhanced))
	require.Equal(t, errors.CategoryFileIO, asEnhanced.Category)
}

func TestValidationError(t *testing.T) {
	err := errors.ValidationError("width must be positive")
	require.Equal(t, errors.CategoryValidation, err.Category)
	require.EqualError(t, err, "width must be positive")
}
