package vision

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"

	"github.com/Toverson/Thrifter-s-Eye/internal/metrics"
)

// CachedAnnotator wraps an Annotator with an in-memory LRU cache keyed by
// image content. Failed annotations are not cached.
type CachedAnnotator struct {
	inner Annotator
	cache *expirable.LRU[string, *Annotation]
}

// NewCachedAnnotator creates a cached annotator holding at most size entries
// for ttl each.
func NewCachedAnnotator(inner Annotator, size int, ttl time.Duration) *CachedAnnotator {
	return &CachedAnnotator{
		inner: inner,
		cache: expirable.NewLRU[string, *Annotation](size, nil, ttl),
	}
}

func hashImage(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}

// Annotate implements Annotator with caching.
func (c *CachedAnnotator) Annotate(ctx context.Context, image []byte) (*Annotation, error) {
	hash := hashImage(image)

	if cached, ok := c.cache.Get(hash); ok {
		metrics.VisionCacheHit()
		log.Debug().Str("hash", hash[:16]).Msg("vision cache hit")
		return cloneAnnotation(cached), nil
	}
	metrics.VisionCacheMiss()

	result, err := c.inner.Annotate(ctx, image)
	if err != nil {
		return nil, err
	}

	c.cache.Add(hash, cloneAnnotation(result))
	log.Debug().Str("hash", hash[:16]).Msg("cached vision result")
	return result, nil
}

func cloneAnnotation(a *Annotation) *Annotation {
	return &Annotation{
		Objects: append([]string{}, a.Objects...),
		Texts:   append([]string{}, a.Texts...),
	}
}
