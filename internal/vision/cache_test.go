package vision

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedAnnotator_HitsCacheForSameImage(t *testing.T) {
	stub := &stubAnnotator{annotation: &Annotation{Objects: []string{"Vase"}, Texts: []string{}}}
	cached := NewCachedAnnotator(stub, 10, time.Minute)

	first, err := cached.Annotate(context.Background(), []byte("image-a"))
	require.NoError(t, err)
	second, err := cached.Annotate(context.Background(), []byte("image-a"))
	require.NoError(t, err)

	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, first, second)
}

func TestCachedAnnotator_DifferentImagesMiss(t *testing.T) {
	stub := &stubAnnotator{annotation: &Annotation{Objects: []string{"Vase"}}}
	cached := NewCachedAnnotator(stub, 10, time.Minute)

	_, _ = cached.Annotate(context.Background(), []byte("image-a"))
	_, _ = cached.Annotate(context.Background(), []byte("image-b"))

	assert.Equal(t, 2, stub.calls)
}

func TestCachedAnnotator_ErrorsAreNotCached(t *testing.T) {
	stub := &stubAnnotator{err: errors.New("unavailable")}
	cached := NewCachedAnnotator(stub, 10, time.Minute)

	_, err := cached.Annotate(context.Background(), []byte("image-a"))
	assert.Error(t, err)

	stub.err = nil
	stub.annotation = &Annotation{Objects: []string{"Clock"}}
	result, err := cached.Annotate(context.Background(), []byte("image-a"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Clock"}, result.Objects)
	assert.Equal(t, 2, stub.calls)
}

func TestCachedAnnotator_ReturnsCopies(t *testing.T) {
	stub := &stubAnnotator{annotation: &Annotation{Objects: []string{"Vase"}}}
	cached := NewCachedAnnotator(stub, 10, time.Minute)

	first, _ := cached.Annotate(context.Background(), []byte("image-a"))
	first.Objects[0] = "mutated"

	second, _ := cached.Annotate(context.Background(), []byte("image-a"))
	assert.Equal(t, "Vase", second.Objects[0])
}
