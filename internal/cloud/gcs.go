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

// Package cloud provides components for interacting with Google Cloud
// services. This file holds the Cloud Storage helpers the Vertex providers
// use when a predict call returns its artifact as a `gcsUri` instead of
// inline bytes.
//
// Functions:
//   - ParseGCSURI: Splits a "gs://bucket/object" URI into its parts.
//   - DownloadObject: Downloads a GCS object to a local directory.
package cloud

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// downloadTimeout bounds a single object download. Generated media files
// are small; anything that takes longer than this is wedged.
const downloadTimeout = 300 * time.Second

// ParseGCSURI splits a "gs://bucket/path/to/object" URI into bucket and
// object name.
//
// Inputs:
//   - uri: The GCS URI string.
//
// Outputs:
//   - bucket: The bucket name.
//   - object: The object path within the bucket.
//   - err: An error if the URI is not a well-formed gs:// URI.
func ParseGCSURI(uri string) (bucket string, object string, err error) {
	trimmed := strings.TrimPrefix(uri, "gs://")
	if trimmed == uri {
		return "", "", fmt.Errorf("not a gs:// uri: %q", uri)
	}
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed gcs uri: %q", uri)
	}
	return parts[0], parts[1], nil
}

// DownloadObject downloads the object named by a gs:// URI into destDir,
// keeping the object's base filename. The download is bounded by
// downloadTimeout.
//
// Inputs:
//   - ctx: The parent context for the download.
//   - client: An initialized Cloud Storage client.
//   - uri: The "gs://bucket/object" URI to fetch.
//   - destDir: The local directory the file is written into.
//
// Outputs:
//   - string: The local path of the downloaded file.
//   - error: An error if the URI is malformed or the transfer fails.
func DownloadObject(ctx context.Context, client *storage.Client, uri string, destDir string) (string, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return "", err
	}

	dlCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	reader, err := client.Bucket(bucket).Object(object).NewReader(dlCtx)
	if err != nil {
		return "", fmt.Errorf("failed to open gcs object %s: %w", uri, err)
	}
	defer func() { _ = reader.Close() }()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create destination directory: %w", err)
	}

	localPath := filepath.Join(destDir, filepath.Base(object))
	file, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create local file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := io.Copy(file, reader); err != nil {
		return "", fmt.Errorf("failed to download gcs object %s: %w", uri, err)
	}
	return localPath, nil
}
