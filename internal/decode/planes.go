package decode

import (
	"fmt"

	"github.com/zsiec/lens/internal/media/format"
)

// copyPlanes packs the engine's planes into one owned buffer laid out
// per the descriptor, de-striding rows where the engine pads them. The
// result length always equals desc.TotalBytes.
func copyPlanes(desc *format.Descriptor, planes [][]byte, strides []int) ([]byte, error) {
	sizes := desc.PlaneSizes()
	if len(planes) != len(sizes) {
		return nil, fmt.Errorf("plane count mismatch: engine produced %d, descriptor wants %d", len(planes), len(sizes))
	}

	rowBytes := make([]int, len(sizes))
	rows := make([]int, len(sizes))
	rowBytes[0] = desc.Width * desc.BytesPerComponent
	rows[0] = desc.Height
	for i := 1; i < len(sizes); i++ {
		cw := desc.ChromaWidth() * desc.BytesPerComponent
		if desc.Layout == format.ChromaInterleaved {
			cw *= 2
		}
		rowBytes[i] = cw
		rows[i] = desc.ChromaHeight()
	}

	out := make([]byte, desc.TotalBytes)
	offset := 0
	for i, plane := range planes {
		stride := rowBytes[i]
		if i < len(strides) && strides[i] > 0 {
			stride = strides[i]
		}
		if stride < rowBytes[i] {
			return nil, fmt.Errorf("plane %d stride %d shorter than row %d", i, stride, rowBytes[i])
		}
		if len(plane) < (rows[i]-1)*stride+rowBytes[i] {
			return nil, fmt.Errorf("plane %d too short: %d bytes", i, len(plane))
		}

		if stride == rowBytes[i] {
			copy(out[offset:offset+sizes[i]], plane[:sizes[i]])
		} else {
			dst := offset
			for r := 0; r < rows[i]; r++ {
				copy(out[dst:dst+rowBytes[i]], plane[r*stride:r*stride+rowBytes[i]])
				dst += rowBytes[i]
			}
		}
		offset += sizes[i]
	}

	return out, nil
}
