//go:build cgo
// +build cgo

package classifier

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/hyperjump/motifscan/pkg/utils"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

func initRuntime(libraryPath string) error {
	ortInitOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// ONNXClassifier runs a dense classifier with ONNX Runtime. It requires CGO and the onnxruntime shared library.
type ONNXClassifier struct {
	session *ort.AdvancedSession
	labels  Labels
	opts    ONNXOptions
	// Pre-allocated [BatchSize x InputSize] and [BatchSize x classes] tensors for Run().
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	mu           sync.Mutex
}

// NewONNXClassifier loads the model at opts.ModelPath. InitializeEnvironment is called once per process.
func NewONNXClassifier(opts ONNXOptions) (*ONNXClassifier, error) {
	opts.applyDefaults()
	if opts.InputSize <= 0 {
		return nil, fmt.Errorf("%w: input size must be positive", ErrShapeMismatch)
	}
	if len(opts.Labels) == 0 {
		return nil, fmt.Errorf("%w: no labels configured", ErrShapeMismatch)
	}
	if _, err := os.Stat(opts.ModelPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := initRuntime(opts.LibraryPath); err != nil {
		return nil, fmt.Errorf("%w: failed to initialize ONNX runtime: %v", ErrUnavailable, err)
	}

	classes := len(opts.Labels)
	inputTensor, err := ort.NewTensor(ort.NewShape(int64(opts.BatchSize), int64(opts.InputSize)),
		make([]float32, opts.BatchSize*opts.InputSize))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	outputTensor, err := ort.NewTensor(ort.NewShape(int64(opts.BatchSize), int64(classes)),
		make([]float32, opts.BatchSize*classes))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		opts.ModelPath,
		[]string{opts.InputName},
		[]string{opts.OutputName},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		nil,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("%w: failed to create ONNX session: %v", ErrUnavailable, err)
	}

	return &ONNXClassifier{
		session:      session,
		labels:       append(Labels(nil), opts.Labels...),
		opts:         opts,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Predict classifies batch in runs of BatchSize rows. The final partial run is zero-padded
// and the padding rows are discarded.
func (c *ONNXClassifier) Predict(ctx context.Context, batch [][]float32) ([][]float32, error) {
	if err := CheckBatch(batch, c.opts.InputSize); err != nil {
		return nil, err
	}
	classes := len(c.labels)
	out := make([][]float32, len(batch))

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, ErrUnavailable
	}

	in := c.inputTensor.GetData()
	for off := 0; off < len(batch); off += c.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := off + c.opts.BatchSize
		if end > len(batch) {
			end = len(batch)
		}
		clear(in)
		for i, vec := range batch[off:end] {
			copy(in[i*c.opts.InputSize:], vec)
		}
		if err := c.session.Run(); err != nil {
			return nil, fmt.Errorf("inference failed: %w", err)
		}
		res := c.outputTensor.GetData()
		for i := 0; i < end-off; i++ {
			row := make([]float32, classes)
			copy(row, res[i*classes:(i+1)*classes])
			if c.opts.ApplySoftmax {
				utils.Softmax(row)
			}
			out[off+i] = row
		}
	}
	return out, nil
}

// InputSize returns the feature vector width.
func (c *ONNXClassifier) InputSize() int {
	return c.opts.InputSize
}

// Labels returns the output column labels.
func (c *ONNXClassifier) Labels() Labels {
	return c.labels
}

// Close destroys the session and tensors.
func (c *ONNXClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	if c.session != nil {
		err = c.session.Destroy()
		c.session = nil
	}
	if c.inputTensor != nil {
		_ = c.inputTensor.Destroy()
		c.inputTensor = nil
	}
	if c.outputTensor != nil {
		_ = c.outputTensor.Destroy()
		c.outputTensor = nil
	}
	return err
}
