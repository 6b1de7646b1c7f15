package classifier

// ONNXOptions configures an ONNX-backed classifier.
type ONNXOptions struct {
	// ModelPath is the .onnx file exported from the trained model.
	ModelPath string
	// LibraryPath optionally points at the onnxruntime shared library.
	LibraryPath string
	// InputName and OutputName are the graph's tensor names.
	InputName  string
	OutputName string
	// InputSize is the feature vector width (k * alphabet size).
	InputSize int
	// BatchSize is the number of rows per inference run; larger batches are split.
	BatchSize int
	Labels    Labels
	// ApplySoftmax normalises raw logits for models exported without a softmax layer.
	ApplySoftmax bool
}

func (o *ONNXOptions) applyDefaults() {
	if o.InputName == "" {
		o.InputName = "input"
	}
	if o.OutputName == "" {
		o.OutputName = "output"
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 256
	}
}
