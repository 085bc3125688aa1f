package inference

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"gorgonia.org/tensor"
)

type Options struct {
	LibraryPath    string
	IntraOpThreads int
	PolicySize     int
}

type Option func(*Options)

// WithLibraryPath points at the onnxruntime shared library. It only takes
// effect for the first engine created in the process.
func WithLibraryPath(path string) Option {
	return func(o *Options) { o.LibraryPath = path }
}

func WithIntraOpThreads(n int) Option {
	return func(o *Options) { o.IntraOpThreads = n }
}

// WithPolicySize sets the width of the policy output.
func WithPolicySize(n int) Option {
	return func(o *Options) { o.PolicySize = n }
}

var envMu sync.Mutex

func initEnvironment(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize onnxruntime: %w", err)
	}
	return nil
}

// OnnxEngine runs the network through ONNX Runtime.
type OnnxEngine struct {
	session    *ort.DynamicAdvancedSession
	policySize int
}

// NewOnnxEngine loads a model from a .onnx file.
func NewOnnxEngine(modelPath string, opts ...Option) (*OnnxEngine, error) {
	return newOnnxEngine(opts, func(so *ort.SessionOptions) (*ort.DynamicAdvancedSession, error) {
		return ort.NewDynamicAdvancedSession(modelPath, InputNames, OutputNames, so)
	})
}

// NewOnnxEngineFromBytes loads a model held in memory.
func NewOnnxEngineFromBytes(model []byte, opts ...Option) (*OnnxEngine, error) {
	return newOnnxEngine(opts, func(so *ort.SessionOptions) (*ort.DynamicAdvancedSession, error) {
		return ort.NewDynamicAdvancedSessionWithONNXData(model, InputNames, OutputNames, so)
	})
}

func newOnnxEngine(
	opts []Option,
	create func(*ort.SessionOptions) (*ort.DynamicAdvancedSession, error),
) (*OnnxEngine, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.PolicySize <= 0 {
		return nil, fmt.Errorf("policy size must be positive, got %d", o.PolicySize)
	}
	if err := initEnvironment(o.LibraryPath); err != nil {
		return nil, err
	}

	so, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer so.Destroy()
	if o.IntraOpThreads > 0 {
		if err := so.SetIntraOpNumThreads(o.IntraOpThreads); err != nil {
			return nil, fmt.Errorf("failed to set intra op threads: %w", err)
		}
	}

	session, err := create(so)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &OnnxEngine{session: session, policySize: o.PolicySize}, nil
}

func (e *OnnxEngine) Run(inputs map[string]*tensor.Dense) (map[string]*tensor.Dense, error) {
	boards, ok := inputs[InputBoards]
	if !ok || boards.Dims() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingInput, InputBoards)
	}
	batch := boards.Shape()[0]

	values := make([]ort.Value, 0, len(InputNames)+len(OutputNames))
	defer func() {
		for _, v := range values {
			v.Destroy()
		}
	}()

	in := make([]ort.Value, 0, len(InputNames))
	for _, name := range InputNames {
		v, err := toOrt(inputs[name])
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", name, err)
		}
		values = append(values, v)
		in = append(in, v)
	}

	policy, err := ort.NewEmptyTensor[float32](ort.NewShape(int64(batch), int64(e.policySize)))
	if err != nil {
		return nil, fmt.Errorf("failed to allocate policy output: %w", err)
	}
	values = append(values, policy)
	value, err := ort.NewEmptyTensor[float32](ort.NewShape(int64(batch)))
	if err != nil {
		return nil, fmt.Errorf("failed to allocate value output: %w", err)
	}
	values = append(values, value)

	if err := e.session.Run(in, []ort.Value{policy, value}); err != nil {
		return nil, err
	}

	// The ort buffers die with the deferred Destroy, so copy out.
	return map[string]*tensor.Dense{
		OutputPolicy: tensor.New(
			tensor.WithShape(batch, e.policySize),
			tensor.WithBacking(append([]float32(nil), policy.GetData()...)),
		),
		OutputValue: tensor.New(
			tensor.WithShape(batch),
			tensor.WithBacking(append([]float32(nil), value.GetData()...)),
		),
	}, nil
}

func (e *OnnxEngine) Close() error {
	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	return err
}

func toOrt(t *tensor.Dense) (ort.Value, error) {
	if t == nil {
		return nil, ErrMissingInput
	}
	dims := t.Shape()
	shape := make(ort.Shape, len(dims))
	for i, d := range dims {
		shape[i] = int64(d)
	}
	switch data := t.Data().(type) {
	case []float32:
		return ort.NewTensor(shape, data)
	case []int64:
		return ort.NewTensor(shape, data)
	default:
		return nil, fmt.Errorf("unsupported dtype %v", t.Dtype())
	}
}
