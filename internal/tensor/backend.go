package tensor

// Backend is the set of raw kernels a compute device provides.
//
// Binary element-wise kernels follow NumPy broadcasting. Kernels panic with
// a descriptive message when their shape contract is violated: a mismatch is
// a programming error in the caller, never something to recover from.
type Backend interface {
	// Element-wise binary operations (broadcasting).
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Scalar operations.
	AddScalar(x *RawTensor, s float32) *RawTensor
	MulScalar(x *RawTensor, s float32) *RawTensor

	// Element-wise math.
	Exp(x *RawTensor) *RawTensor
	Log(x *RawTensor) *RawTensor
	Abs(x *RawTensor) *RawTensor
	Pow(x *RawTensor, p float32) *RawTensor
	Clamp(x *RawTensor, lo, hi float32) *RawTensor

	// Activations.
	Sigmoid(x *RawTensor) *RawTensor
	ReLU(x *RawTensor) *RawTensor
	SiLU(x *RawTensor) *RawTensor
	Softplus(x *RawTensor) *RawTensor
	Softmax(x *RawTensor, dim int) *RawTensor

	// Reductions.
	Sum(x *RawTensor) *RawTensor // scalar result, Shape{}
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor

	// Shape and indexing.
	Reshape(x *RawTensor, shape Shape) *RawTensor
	Expand(x *RawTensor, shape Shape) *RawTensor
	Gather(x *RawTensor, dim int, index []int) *RawTensor
	Concat(xs []*RawTensor, dim int) *RawTensor
	Narrow(x *RawTensor, dim, start, length int) *RawTensor

	// Spatial operations on [N, C, H, W] tensors.
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor
	Conv2DInputBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor
	Conv2DKernelBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor
	UpsampleNearest(x *RawTensor, outH, outW int) *RawTensor
	UpsampleNearestBackward(grad *RawTensor, inH, inW int) *RawTensor
	MaxPool2D(x *RawTensor, kernel, stride, padding int) *RawTensor
	MaxPool2DBackward(input, grad *RawTensor, kernel, stride, padding int) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
