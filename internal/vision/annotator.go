package vision

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// Annotation is what a recognition backend reports for one image.
type Annotation struct {
	Objects []string
	Texts   []string
}

// Annotator detects labeled objects and text in an image.
type Annotator interface {
	Annotate(ctx context.Context, image []byte) (*Annotation, error)
}

// handleError turns >399 responses into errors; resty reports them as
// successful otherwise.
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return res, err
	}
	if res.IsError() {
		return res, fmt.Errorf("request failed: %s %s (status: %d)", res.Request.Method, res.Request.URL, res.StatusCode())
	}
	return res, nil
}
