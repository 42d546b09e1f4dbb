// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Vertex AI providers call the hosted Imagen and Veo models through the
// aiplatform predict REST endpoint.
//
// Logic Flow:
//  1. Build the predict request for the configured publisher model.
//  2. POST with a bearer token; on a 401/403 retry once with the API key
//     passed as a query parameter instead.
//  3. Map quota (429) and gateway timeout (504) responses to typed errors.
//  4. Decode the first prediction: inline base64 bytes are written to the
//     output directory, GCS URIs are downloaded when a storage client is
//     available and returned verbatim otherwise.
package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"github.com/reelforge/gcp-go-ad-pipeline/internal/cloud"
)

const (
	vertexEndpointFormat = "https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s:predict"
	vertexHTTPTimeout    = 60 * time.Second
)

// VertexConfig holds the connection settings shared by the Vertex providers.
type VertexConfig struct {
	APIKey    string
	ProjectID string
	Location  string
	OutputDir string
}

// vertexPredictRequest is the wire format of the predict call.
type vertexPredictRequest struct {
	Instances  []vertexInstance `json:"instances"`
	Parameters vertexParameters `json:"parameters"`
}

type vertexInstance struct {
	Prompt string `json:"prompt"`
}

type vertexParameters struct {
	SampleCount       int    `json:"sampleCount"`
	AspectRatio       string `json:"aspectRatio,omitempty"`
	SafetyFilterLevel string `json:"safetyFilterLevel"`
	PersonGeneration  string `json:"personGeneration"`
}

// vertexPredictResponse holds the subset of the predict response the
// providers consume.
type vertexPredictResponse struct {
	Predictions []vertexPrediction `json:"predictions"`
}

// vertexPrediction is a single generated artifact, delivered either inline
// or as a GCS object reference.
type vertexPrediction struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	GcsURI             string `json:"gcsUri"`
	MimeType           string `json:"mimeType"`
}

// vertexClient performs the shared predict plumbing for both model families.
type vertexClient struct {
	cfg        VertexConfig
	model      string
	httpClient *http.Client
	storage    *storage.Client
	name       string
}

func newVertexClient(name string, cfg VertexConfig, model string, storageClient *storage.Client) *vertexClient {
	return &vertexClient{
		cfg:        cfg,
		model:      model,
		httpClient: &http.Client{Timeout: vertexHTTPTimeout},
		storage:    storageClient,
		name:       name,
	}
}

// predict sends the prompt to the model and returns the decoded response.
// A 401 or 403 on the bearer-token attempt is retried once with the key
// passed as a query parameter, which covers API-key-only projects.
func (c *vertexClient) predict(ctx context.Context, prompt string, aspectRatio string) (*vertexPredictResponse, error) {
	endpoint := fmt.Sprintf(vertexEndpointFormat, c.cfg.Location, c.cfg.ProjectID, c.cfg.Location, c.model)
	payload := vertexPredictRequest{
		Instances: []vertexInstance{{Prompt: prompt}},
		Parameters: vertexParameters{
			SampleCount:       1,
			AspectRatio:       aspectRatio,
			SafetyFilterLevel: "block_some",
			PersonGeneration:  "allow_all",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewProviderError(c.name, ErrGeneration, "failed to encode predict request", err)
	}

	resp, err := c.post(ctx, endpoint, body, true)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		slog.WarnContext(ctx, "bearer auth rejected, retrying with query key",
			"provider", c.name, "status", resp.StatusCode)
		resp, err = c.post(ctx, endpoint+"?key="+c.cfg.APIKey, body, false)
		if err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, NewProviderError(c.name, ErrAuth,
			fmt.Sprintf("authentication rejected with status %d", resp.StatusCode), nil)
	case http.StatusTooManyRequests:
		return nil, NewProviderError(c.name, ErrQuota, "request quota exhausted", nil)
	case http.StatusGatewayTimeout:
		return nil, NewProviderError(c.name, ErrTimeout, "model endpoint timed out", nil)
	default:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, NewProviderError(c.name, ErrGeneration,
			fmt.Sprintf("predict failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(data))), nil)
	}

	out := &vertexPredictResponse{}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, NewProviderError(c.name, ErrGeneration, "failed to decode predict response", err)
	}
	if len(out.Predictions) == 0 {
		return nil, NewProviderError(c.name, ErrGeneration, "predict returned no predictions", nil)
	}
	return out, nil
}

func (c *vertexClient) post(ctx context.Context, url string, body []byte, bearer bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, NewProviderError(c.name, ErrGeneration, "failed to build predict request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, NewProviderError(c.name, ErrTimeout, "predict request failed", err)
	}
	return resp, nil
}

// materialize turns a prediction into a local artifact path. Inline bytes are
// written under the output directory, GCS URIs are downloaded when a storage
// client is present and passed back untouched when it is not.
func (c *vertexClient) materialize(ctx context.Context, prediction vertexPrediction, extension string) (string, error) {
	if prediction.BytesBase64Encoded != "" {
		data, err := base64.StdEncoding.DecodeString(prediction.BytesBase64Encoded)
		if err != nil {
			return "", NewProviderError(c.name, ErrGeneration, "failed to decode inline media bytes", err)
		}
		path := filepath.Join(c.cfg.OutputDir,
			fmt.Sprintf("vertex_%s_%d_%s%s", c.model, time.Now().Unix(), shortID(), extension))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", NewProviderError(c.name, ErrGeneration, "failed to create output directory", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return "", NewProviderError(c.name, ErrGeneration, "failed to write media file", err)
		}
		return path, nil
	}
	if prediction.GcsURI != "" {
		if c.storage == nil {
			slog.WarnContext(ctx, "no storage client, returning GCS URI as-is",
				"provider", c.name, "uri", prediction.GcsURI)
			return prediction.GcsURI, nil
		}
		local, err := cloud.DownloadObject(ctx, c.storage, prediction.GcsURI, c.cfg.OutputDir)
		if err != nil {
			return "", NewProviderError(c.name, ErrGeneration, "failed to download generated media", err)
		}
		return local, nil
	}
	return "", NewProviderError(c.name, ErrGeneration, "prediction carried neither inline bytes nor a GCS URI", nil)
}

// VertexImageProvider generates still images with a hosted Imagen model.
type VertexImageProvider struct {
	client *vertexClient
}

// NewVertexImageProvider constructs an Imagen-backed image provider.
//
// Inputs:
//  1. cfg - API key, project, location and output directory
//  2. model - the publisher model identifier (e.g. imagen-3.0-generate-001)
//  3. storageClient - optional client used to fetch GCS-hosted results
//
// Outputs:
//  1. *VertexImageProvider - the configured provider
func NewVertexImageProvider(cfg VertexConfig, model string, storageClient *storage.Client) *VertexImageProvider {
	return &VertexImageProvider{client: newVertexClient("vertex-image", cfg, model, storageClient)}
}

func (p *VertexImageProvider) Name() string { return p.client.name }

// GenerateImage sends the prompt to the Imagen predict endpoint and
// materializes the first returned prediction.
func (p *VertexImageProvider) GenerateImage(ctx context.Context, req *ImageRequest) (*ImageResult, error) {
	resp, err := p.client.predict(ctx, req.Prompt, req.AspectRatio)
	if err != nil {
		return nil, err
	}
	path, err := p.client.materialize(ctx, resp.Predictions[0], ".jpg")
	if err != nil {
		return nil, err
	}
	result := &ImageResult{
		ImagePath: path,
		Metadata:  map[string]string{"provider": p.Name(), "model": p.client.model},
	}
	if strings.HasPrefix(path, "gs://") {
		result.ImageURL = path
	}
	return result, nil
}

// VertexVideoProvider generates video segments with a hosted Veo model.
type VertexVideoProvider struct {
	client *vertexClient
}

// NewVertexVideoProvider constructs a Veo-backed video provider.
func NewVertexVideoProvider(cfg VertexConfig, model string, storageClient *storage.Client) *VertexVideoProvider {
	return &VertexVideoProvider{client: newVertexClient("vertex-video", cfg, model, storageClient)}
}

func (p *VertexVideoProvider) Name() string { return p.client.name }

// GenerateVideo sends the segment prompt to the Veo predict endpoint and
// materializes the first returned prediction.
func (p *VertexVideoProvider) GenerateVideo(ctx context.Context, req *VideoRequest) (*VideoResult, error) {
	resp, err := p.client.predict(ctx, req.Prompt, "")
	if err != nil {
		return nil, err
	}
	path, err := p.client.materialize(ctx, resp.Predictions[0], ".mp4")
	if err != nil {
		return nil, err
	}
	return &VideoResult{
		VideoPath: path,
		Duration:  req.DurationSeconds,
		Metadata:  map[string]string{"provider": p.Name(), "model": p.client.model},
	}, nil
}
