// Copyright 2017 The Fuchsia Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shipping

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/fuchsia-br/cobalt-core/pb"
)

// Uploader is the HTTP transport capability ShippingManager ships
// encrypted envelopes through. RetryableError distinguishes a
// transient failure (server unavailable,
// timeout) from a permanent one (envelope rejected) so the caller knows
// whether to hold the envelope for a later retry.
type Uploader interface {
	Upload(ctx context.Context, message *pb.EncryptedMessage) error
}

// RetryableError wraps an Upload failure that should be retried later.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return fmt.Sprintf("retryable: %v", e.Err) }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err should be retried on the next
// scheduled send rather than discarded.
func IsRetryable(err error) bool {
	_, ok := err.(*RetryableError)
	return ok
}

// HTTPUploader POSTs the raw bytes of an EncryptedMessage's ciphertext
// to a fixed upload endpoint, the default production Uploader.
type HTTPUploader struct {
	Endpoint string
	Client   *http.Client
}

// NewHTTPUploader builds an uploader against endpoint using
// http.DefaultClient.
func NewHTTPUploader(endpoint string) *HTTPUploader {
	return &HTTPUploader{Endpoint: endpoint, Client: http.DefaultClient}
}

func (u *HTTPUploader) Upload(ctx context.Context, message *pb.EncryptedMessage) error {
	body := bytes.NewReader(message.Ciphertext)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.Endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := u.Client.Do(req)
	if err != nil {
		return &RetryableError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return &RetryableError{Err: fmt.Errorf("upload endpoint returned status %d", resp.StatusCode)}
	default:
		return fmt.Errorf("upload endpoint rejected envelope with status %d", resp.StatusCode)
	}
}
