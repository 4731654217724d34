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

import (
	"fmt"
	"math"
	"strings"
)

// Metric selects the similarity function.
type Metric int

const (
	// MetricCosine scores by cosine similarity. A zero vector scores 0.
	MetricCosine Metric = iota
	// MetricDot scores by raw dot product.
	MetricDot
)

// String returns the metric name.
func (m Metric) String() string {
	switch m {
	case MetricCosine:
		return "cosine"
	case MetricDot:
		return "dot"
	default:
		return fmt.Sprintf("metric(%d)", int(m))
	}
}

// ParseMetric parses "cosine" or "dot".
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cosine":
		return MetricCosine, nil
	case "dot":
		return MetricDot, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}

// score computes the similarity of a query (with precomputed norm) and an
// entry (with precomputed norm).
func (m Metric) score(q []float32, qNorm float64, v []float32, vNorm float64) float64 {
	d := dot(q, v)
	if m == MetricDot {
		return d
	}
	if qNorm == 0 || vNorm == 0 {
		return 0
	}
	return d / (qNorm * vNorm)
}
