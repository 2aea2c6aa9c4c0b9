package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Toverson/Thrifter-s-Eye/internal/scan"
)

const (
	// MaxImageBytes bounds a decoded upload.
	MaxImageBytes = 20 << 20

	// base64 inflates by 4/3; leave room for the other JSON fields.
	maxBodyBytes = MaxImageBytes/3*4 + 1<<20

	bannerMessage = "Thrifter's Eye API - Ready to scan!"
)

// MarketCodes is the optional market context of a scan request.
type MarketCodes struct {
	CountryCode  string `json:"countryCode" validate:"omitempty,iso3166_1_alpha2"`
	CurrencyCode string `json:"currencyCode" validate:"omitempty,iso4217"`
}

type scanRequest struct {
	ImageBase64 string `json:"imageBase64" validate:"required"`
	UserID      string `json:"userId"`
	MarketCodes
}

type deleteHistoryResponse struct {
	Success      bool  `json:"success"`
	DeletedCount int64 `json:"deleted_count"`
}

// GET /api/
func (r *Router) handleRoot(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, http.StatusOK, map[string]string{"message": bannerMessage})
}

// POST /api/scan
// Body: JSON {"imageBase64", "userId", "countryCode", "currencyCode"} or a
// multipart form with the image in "file".
func (r *Router) handleScan(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)

	var (
		body  scanRequest
		image []byte
		err   error
	)
	mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		body, image, err = readMultipartScan(req)
	} else {
		body, err = readJSONScan(req)
	}
	if err != nil {
		return err
	}

	if strings.TrimSpace(body.UserID) == "" {
		return scan.ErrUserIDRequired
	}
	body.CountryCode = strings.ToUpper(strings.TrimSpace(body.CountryCode))
	body.CurrencyCode = strings.ToUpper(strings.TrimSpace(body.CurrencyCode))
	// Multipart uploads carry raw bytes; only the codes need checking.
	var target any = body
	if image != nil {
		target = body.MarketCodes
	}
	if err := r.validate.Struct(target); err != nil {
		return validationError(err)
	}

	if image == nil {
		image, err = decodeImage(body.ImageBase64)
		if err != nil {
			return err
		}
	}
	if len(image) == 0 {
		return scan.ErrImageRequired
	}
	if len(image) > MaxImageBytes {
		return &apiError{status: http.StatusRequestEntityTooLarge, detail: "Image too large"}
	}

	record, err := r.scanner.Run(req.Context(), scan.Request{
		Image:        image,
		UserID:       body.UserID,
		CountryCode:  body.CountryCode,
		CurrencyCode: body.CurrencyCode,
	})
	if err != nil {
		if errors.Is(err, scan.ErrUserIDRequired) || errors.Is(err, scan.ErrImageRequired) {
			return err
		}
		return internalError("Scan failed", err)
	}

	return writeJSON(w, http.StatusOK, record)
}

func readJSONScan(req *http.Request) (scanRequest, error) {
	var body scanRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return body, &apiError{status: http.StatusRequestEntityTooLarge, detail: "Image too large"}
		}
		return body, badRequest("Invalid request body: %v", err)
	}
	return body, nil
}

func readMultipartScan(req *http.Request) (scanRequest, []byte, error) {
	var body scanRequest
	if err := req.ParseMultipartForm(MaxImageBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return body, nil, &apiError{status: http.StatusRequestEntityTooLarge, detail: "Image too large"}
		}
		return body, nil, badRequest("Invalid multipart form: %v", err)
	}
	body.UserID = req.FormValue("userId")
	body.CountryCode = req.FormValue("countryCode")
	body.CurrencyCode = req.FormValue("currencyCode")

	file, _, err := req.FormFile("file")
	if err != nil {
		return body, nil, badRequest("file is required")
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		return body, nil, badRequest("Failed to read uploaded file: %v", err)
	}
	return body, image, nil
}

// decodeImage accepts plain base64 or a data URL.
func decodeImage(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		if i := strings.Index(encoded, ","); i >= 0 {
			encoded = encoded[i+1:]
		}
	}
	image, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, badRequest("imageBase64 must be valid base64")
	}
	return image, nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return badRequest("Invalid request: %v", err)
	}
	fe := verrs[0]
	if fe.Tag() == "required" {
		return badRequest("%s is required", fe.Field())
	}
	return badRequest("%s is invalid", fe.Field())
}

// GET /api/history?user_id=
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	userID := req.URL.Query().Get("user_id")
	if strings.TrimSpace(userID) == "" {
		return badRequest("user_id parameter is required")
	}

	records, err := r.history.List(req.Context(), userID)
	if err != nil {
		return internalError("Failed to retrieve history", err)
	}
	return writeJSON(w, http.StatusOK, records)
}

// GET /api/scan/{id}?user_id=
func (r *Router) handleGetScan(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	userID := req.URL.Query().Get("user_id")

	record, err := r.history.Get(req.Context(), id, userID)
	if err != nil {
		if errors.Is(err, scan.ErrNotFound) || errors.Is(err, scan.ErrForbidden) {
			return err
		}
		return internalError("Failed to retrieve scan", err)
	}
	return writeJSON(w, http.StatusOK, record)
}

// DELETE /api/history?user_id=
func (r *Router) handleDeleteHistory(w http.ResponseWriter, req *http.Request) error {
	userID := req.URL.Query().Get("user_id")
	if strings.TrimSpace(userID) == "" {
		return badRequest("user_id parameter is required")
	}

	n, err := r.history.Delete(req.Context(), userID)
	if err != nil {
		return internalError("Failed to delete history", err)
	}
	return writeJSON(w, http.StatusOK, deleteHistoryResponse{Success: true, DeletedCount: n})
}
