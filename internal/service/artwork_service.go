package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vibewear/api/internal/client"
)

const (
	maxArtworkSize   = 32 << 20
	printURLExpiry   = 30 * 24 * time.Hour
	dataURLPNGPrefix = "data:image/png;base64,"
)

// ArtworkService copies generated print artwork into object storage so the
// order keeps a stable file after provider URLs expire.
type ArtworkService struct {
	storage    client.StorageClient
	httpClient *http.Client
}

func NewArtworkService(storage client.StorageClient, httpClient *http.Client) *ArtworkService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &ArtworkService{storage: storage, httpClient: httpClient}
}

// Enabled reports whether artwork is persisted at all.
func (s *ArtworkService) Enabled() bool {
	return s.storage != nil
}

// Store saves the image behind imageURL (remote or data URL) under
// designs/<jobID>.png and returns the storage key and a URL to it.
func (s *ArtworkService) Store(ctx context.Context, jobID, imageURL string) (key, url string, err error) {
	if s.storage == nil {
		return "", "", nil
	}

	data, contentType, err := s.load(ctx, imageURL)
	if err != nil {
		return "", "", err
	}

	key = fmt.Sprintf("designs/%s.png", jobID)
	url, err = s.storage.Upload(ctx, key, bytes.NewReader(data), contentType)
	if err != nil {
		return "", "", err
	}
	if url == "" {
		url, err = s.storage.GetSignedURL(ctx, key, printURLExpiry)
		if err != nil {
			return "", "", err
		}
	}
	return key, url, nil
}

func (s *ArtworkService) load(ctx context.Context, imageURL string) ([]byte, string, error) {
	if strings.HasPrefix(imageURL, dataURLPNGPrefix) {
		data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(imageURL, dataURLPNGPrefix))
		if err != nil {
			return nil, "", fmt.Errorf("invalid image data: %w", err)
		}
		return data, "image/png", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download artwork: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("artwork download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtworkSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read artwork: %w", err)
	}
	if len(data) > maxArtworkSize {
		return nil, "", fmt.Errorf("artwork exceeds %d bytes", maxArtworkSize)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	return data, contentType, nil
}
