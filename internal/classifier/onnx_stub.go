//go:build !cgo
// +build !cgo

package classifier

import (
	"context"
	"fmt"
)

// ONNXClassifier stub type when built without CGO (see onnx.go for real implementation).
type ONNXClassifier struct{}

// NewONNXClassifier returns an error when built without CGO (ONNX not available).
func NewONNXClassifier(_ ONNXOptions) (*ONNXClassifier, error) {
	return nil, fmt.Errorf("%w: ONNX classifier requires CGO; build with CGO_ENABLED=1 and onnxruntime", ErrUnavailable)
}

// Predict always fails on the stub.
func (c *ONNXClassifier) Predict(_ context.Context, _ [][]float32) ([][]float32, error) {
	return nil, ErrUnavailable
}

// InputSize returns 0 on the stub.
func (c *ONNXClassifier) InputSize() int { return 0 }

// Labels returns nil on the stub.
func (c *ONNXClassifier) Labels() Labels { return nil }

// Close is a no-op on the stub.
func (c *ONNXClassifier) Close() error { return nil }
