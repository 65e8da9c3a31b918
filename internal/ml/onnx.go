package ml

import (
	"context"
	"fmt"

	onnxruntime "github.com/yalue/onnxruntime_go"
)

// ONNXConfig locates an ONNX export of the regressor and its tensor names
type ONNXConfig struct {
	ModelPath         string
	SharedLibraryPath string
	InputName         string
	OutputName        string
}

// ONNXModel wraps an ONNX Runtime session for regression inference
type ONNXModel struct {
	session    *onnxruntime.DynamicAdvancedSession
	inputName  string
	outputName string
}

// LoadONNXModel loads an ONNX model from file
func LoadONNXModel(cfg ONNXConfig) (*ONNXModel, error) {
	if cfg.InputName == "" {
		cfg.InputName = "float_input"
	}
	if cfg.OutputName == "" {
		cfg.OutputName = "variable"
	}

	if !onnxruntime.IsInitialized() {
		if cfg.SharedLibraryPath != "" {
			onnxruntime.SetSharedLibraryPath(cfg.SharedLibraryPath)
		}
		if err := onnxruntime.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
		}
	}

	options, err := onnxruntime.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	session, err := onnxruntime.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName}, options)
	if err != nil {
		return nil, fmt.Errorf("failed to load ONNX model: %w", err)
	}

	return &ONNXModel{
		session:    session,
		inputName:  cfg.InputName,
		outputName: cfg.OutputName,
	}, nil
}

// Predict runs the session on a single row of features
func (m *ONNXModel) Predict(_ context.Context, features []float64) (float64, error) {
	if m.session == nil {
		return 0, fmt.Errorf("model session is closed")
	}

	// skl2onnx exports regressors with float32 input [1, n] and output [1, 1]
	input := make([]float32, len(features))
	for i, v := range features {
		input[i] = float32(v)
	}
	inputTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(1, int64(len(input))), input)
	if err != nil {
		return 0, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	output := make([]float32, 1)
	outputTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(1, 1), output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	err = m.session.Run([]onnxruntime.Value{inputTensor}, []onnxruntime.Value{outputTensor})
	if err != nil {
		return 0, fmt.Errorf("%w: inference failed: %v", ErrShapeMismatch, err)
	}

	return float64(output[0]), nil
}

// Name identifies the backend
func (m *ONNXModel) Name() string {
	return "onnx"
}

// Close destroys the ONNX session
func (m *ONNXModel) Close() error {
	if m.session == nil {
		return nil
	}
	err := m.session.Destroy()
	m.session = nil
	return err
}
