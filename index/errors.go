// Copyright 2025 Poiesic Systems
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

package index

import "errors"

var (
	// ErrInvalidDimension is returned when the index is created with a non-positive dimension.
	ErrInvalidDimension = errors.New("index dimension must be greater than 0")

	// ErrUnknownMetric is returned for an unsupported similarity metric.
	ErrUnknownMetric = errors.New("unknown similarity metric")
)
