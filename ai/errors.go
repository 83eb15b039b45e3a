// Copyright 2025 Fleetkit Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBatch indicates an embedding batch with no inputs.
	ErrEmptyBatch = errors.New("embedding batch cannot be empty")

	// ErrBatchTooLarge indicates an embedding batch over the provider limit.
	ErrBatchTooLarge = errors.New("embedding batch exceeds provider maximum")
)

// ProviderError reports a transport or provider-side failure of an AI
// service call. It carries the upstream error message.
type ProviderError struct {
	// Service names the failing service: "embedding", "completion" or "vision".
	Service string

	// Err is the upstream error.
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Service, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// AsProviderError unwraps err as a *ProviderError if possible.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	ok := errors.As(err, &pe)
	return pe, ok
}
