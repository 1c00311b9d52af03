package nn

import (
	"fmt"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// SPPF is YOLOv8's fast spatial pyramid pooling block:
//
//	h  = Conv1x1(x)                 [N, C/2, H, W]
//	p1 = MaxPool(h), p2 = MaxPool(p1), p3 = MaxPool(p2)
//	y  = Conv1x1(concat(h, p1, p2, p3))
//
// Chaining three k×k pools at stride 1 covers the receptive fields of
// k, 2k-1 and 3k-2 windows.
type SPPF[B tensor.Backend] struct {
	cv1  *Conv[B]
	cv2  *Conv[B]
	pool *MaxPool2D[B]
}

// NewSPPF creates an SPPF block. kernel must be odd; YOLOv8 uses 5.
func NewSPPF[B tensor.Backend](inChannels, outChannels, kernel int, backend B) *SPPF[B] {
	if inChannels < 2 || outChannels <= 0 {
		panic(fmt.Sprintf("sppf: invalid channels in=%d, out=%d", inChannels, outChannels))
	}
	if kernel <= 0 || kernel%2 == 0 {
		panic(fmt.Sprintf("sppf: kernel must be odd and positive, got %d", kernel))
	}
	hidden := inChannels / 2
	s := &SPPF[B]{
		cv1:  NewConv(inChannels, hidden, 1, 1, backend),
		cv2:  NewConv(4*hidden, outChannels, 1, 1, backend),
		pool: NewMaxPool2D[B](kernel, 1, kernel/2),
	}
	prefix("cv1", s.cv1.Parameters())
	prefix("cv2", s.cv2.Parameters())
	return s
}

// Forward maps [N, in, H, W] to [N, out, H, W].
func (s *SPPF[B]) Forward(x *tensor.Tensor[B]) *tensor.Tensor[B] {
	h := s.cv1.Forward(x)
	p1 := s.pool.Forward(h)
	p2 := s.pool.Forward(p1)
	p3 := s.pool.Forward(p2)
	return s.cv2.Forward(tensor.Concat([]*tensor.Tensor[B]{h, p1, p2, p3}, 1))
}

// Parameters returns both convolutions' parameters.
func (s *SPPF[B]) Parameters() []*Parameter[B] {
	return CollectParameters[B](s.cv1, s.cv2)
}

// OutChannels returns the number of output channels.
func (s *SPPF[B]) OutChannels() int {
	return s.cv2.OutChannels()
}

// String returns a string representation of the block.
func (s *SPPF[B]) String() string {
	return fmt.Sprintf("SPPF(%d -> %d, k=%d)", s.cv1.InChannels(), s.cv2.OutChannels(), s.pool.KernelSize())
}
