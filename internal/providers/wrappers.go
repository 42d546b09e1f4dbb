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

// Rate-limited decorators for the remote providers. Hosted model endpoints
// enforce per-minute request quotas, so outbound calls are throttled with a
// token bucket before they leave the process.
package providers

import (
	"context"

	"golang.org/x/time/rate"
)

// QuotaAwareImageProvider wraps an ImageProvider with a rate limiter that
// blocks until a request token is available.
type QuotaAwareImageProvider struct {
	limiter  *rate.Limiter
	delegate ImageProvider
}

// NewQuotaAwareImageProvider creates a throttled image provider allowing
// requestsPerMinute calls per minute against the delegate.
//
// Inputs:
//  1. requestsPerMinute - the per-minute request quota of the backend
//  2. delegate - the provider performing the actual generation
//
// Outputs:
//  1. *QuotaAwareImageProvider - the throttled wrapper
func NewQuotaAwareImageProvider(requestsPerMinute int, delegate ImageProvider) *QuotaAwareImageProvider {
	return &QuotaAwareImageProvider{
		limiter:  rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1),
		delegate: delegate,
	}
}

func (p *QuotaAwareImageProvider) Name() string { return p.delegate.Name() }

// GenerateImage waits for quota and then delegates.
func (p *QuotaAwareImageProvider) GenerateImage(ctx context.Context, req *ImageRequest) (*ImageResult, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, NewProviderError(p.Name(), ErrTimeout, "canceled while waiting for request quota", err)
	}
	return p.delegate.GenerateImage(ctx, req)
}

// QuotaAwareVideoProvider wraps a VideoProvider with a rate limiter that
// blocks until a request token is available.
type QuotaAwareVideoProvider struct {
	limiter  *rate.Limiter
	delegate VideoProvider
}

// NewQuotaAwareVideoProvider creates a throttled video provider allowing
// requestsPerMinute calls per minute against the delegate.
func NewQuotaAwareVideoProvider(requestsPerMinute int, delegate VideoProvider) *QuotaAwareVideoProvider {
	return &QuotaAwareVideoProvider{
		limiter:  rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1),
		delegate: delegate,
	}
}

func (p *QuotaAwareVideoProvider) Name() string { return p.delegate.Name() }

// GenerateVideo waits for quota and then delegates.
func (p *QuotaAwareVideoProvider) GenerateVideo(ctx context.Context, req *VideoRequest) (*VideoResult, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, NewProviderError(p.Name(), ErrTimeout, "canceled while waiting for request quota", err)
	}
	return p.delegate.GenerateVideo(ctx, req)
}
