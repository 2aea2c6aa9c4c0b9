package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	CloudVisionBaseURL = "https://vision.googleapis.com"

	maxObjects = 5
	maxTexts   = 3
)

type ClientOpts struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// CloudVisionClient calls the Google Cloud Vision images:annotate REST
// endpoint with an API key.
type CloudVisionClient struct {
	httpClient *resty.Client
	apiKey     string
}

func NewCloudVisionClient(opts ClientOpts) *CloudVisionClient {
	baseURL := CloudVisionBaseURL
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	httpClient := resty.New().
		SetDebug(false).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}
	return &CloudVisionClient{httpClient: httpClient, apiKey: opts.APIKey}
}

type annotateFeature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults"`
}

type annotateImageRequest struct {
	Image struct {
		Content string `json:"content"`
	} `json:"image"`
	Features []annotateFeature `json:"features"`
}

type annotateRequest struct {
	Requests []annotateImageRequest `json:"requests"`
}

type annotateResponse struct {
	Responses []struct {
		LocalizedObjectAnnotations []struct {
			Name  string  `json:"name"`
			Score float64 `json:"score"`
		} `json:"localizedObjectAnnotations"`
		TextAnnotations []struct {
			Description string `json:"description"`
			Locale      string `json:"locale"`
		} `json:"textAnnotations"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

// Annotate requests object localization and text detection for one image.
func (c *CloudVisionClient) Annotate(ctx context.Context, image []byte) (*Annotation, error) {
	var imgReq annotateImageRequest
	imgReq.Image.Content = base64.StdEncoding.EncodeToString(image)
	imgReq.Features = []annotateFeature{
		{Type: "OBJECT_LOCALIZATION", MaxResults: maxObjects},
		{Type: "TEXT_DETECTION", MaxResults: maxTexts},
	}

	result := &annotateResponse{}
	_, err := handleError(c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(annotateRequest{Requests: []annotateImageRequest{imgReq}}).
		SetResult(result).
		Post("/v1/images:annotate"))
	if err != nil {
		return nil, fmt.Errorf("vision annotate failed: %w", err)
	}

	annotation := &Annotation{Objects: []string{}, Texts: []string{}}
	if len(result.Responses) == 0 {
		return annotation, nil
	}

	first := result.Responses[0]
	if first.Error != nil {
		return nil, fmt.Errorf("vision annotate failed: %s (code %d)", first.Error.Message, first.Error.Code)
	}
	for _, obj := range first.LocalizedObjectAnnotations {
		annotation.Objects = append(annotation.Objects, obj.Name)
	}
	for _, text := range first.TextAnnotations {
		annotation.Texts = append(annotation.Texts, text.Description)
	}
	return annotation, nil
}
