package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// Cloudinary posts images to an unsigned upload endpoint with a fixed preset.
type Cloudinary struct {
	Endpoint string
	Preset   string
	Client   *http.Client
}

func NewCloudinary(endpoint, preset string) *Cloudinary {
	return &Cloudinary{
		Endpoint: endpoint,
		Preset:   preset,
		Client:   &http.Client{Timeout: Timeout},
	}
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
}

func (c *Cloudinary) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	img, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrUploadFailed, name, err)
	}

	body, contentType, err := c.form(name, img)
	if err != nil {
		return "", fmt.Errorf("%w: build form: %v", ErrUploadFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.Client.Do(req)
	if err != nil {
		slog.Error("Cloudinary upload error", "file", name, "error", err)
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Error("Cloudinary upload failed", "file", name, "status", resp.Status, "body", string(b))
		return "", fmt.Errorf("%w: upstream status %s", ErrUploadFailed, resp.Status)
	}

	var out cloudinaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUploadFailed, err)
	}
	if out.SecureURL == "" {
		return "", fmt.Errorf("%w: response has no secure_url", ErrUploadFailed)
	}
	return out.SecureURL, nil
}

func (c *Cloudinary) form(name string, img []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	h.Set("Content-Type", sniffImageType(img))
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(img); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("upload_preset", c.Preset); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func sniffImageType(b []byte) string {
	ct := http.DetectContentType(b)
	if strings.HasPrefix(ct, "image/") {
		return ct
	}
	return "image/jpeg"
}
