package count

import (
	"fmt"
	"slices"

	"github.com/born-ml/gridcount/internal/grid"
	"github.com/born-ml/gridcount/internal/parallel"
)

// DefaultBlockSize is the block edge length used when none is given.
const DefaultBlockSize = 50

// Block is a half-open sub-rectangle [RowStart, RowEnd) × [ColStart, ColEnd)
// of a grid. Edge blocks are clamped to the grid and may be smaller than
// blockSize×blockSize.
type Block struct {
	Index    int // Flattened row-major block index.
	Row, Col int // Position in the block grid.

	RowStart, RowEnd int
	ColStart, ColEnd int
}

// NumElements returns the number of grid elements the block covers.
func (b Block) NumElements() int {
	return (b.RowEnd - b.RowStart) * (b.ColEnd - b.ColStart)
}

// Partition divides a grid shape into square blocks indexed row-major:
// index = blockRow*BlocksCol() + blockCol.
type Partition struct {
	shape     grid.Shape
	blockSize int
	blocksRow int
	blocksCol int
}

// NewPartition returns the block partition of shape for the given block size.
func NewPartition(shape grid.Shape, blockSize int) (Partition, error) {
	if err := shape.Validate(); err != nil {
		return Partition{}, err
	}
	if blockSize <= 0 {
		return Partition{}, fmt.Errorf("%w: block size %d (must be > 0)", ErrInvalidInput, blockSize)
	}

	return Partition{
		shape:     shape,
		blockSize: blockSize,
		blocksRow: ceilDiv(shape.Rows, blockSize),
		blocksCol: ceilDiv(shape.Cols, blockSize),
	}, nil
}

// Shape returns the partitioned grid shape.
func (p Partition) Shape() grid.Shape { return p.shape }

// BlockSize returns the block edge length.
func (p Partition) BlockSize() int { return p.blockSize }

// BlocksRow returns the number of block rows.
func (p Partition) BlocksRow() int { return p.blocksRow }

// BlocksCol returns the number of block columns.
func (p Partition) BlocksCol() int { return p.blocksCol }

// TotalBlocks returns BlocksRow()*BlocksCol().
func (p Partition) TotalBlocks() int { return p.blocksRow * p.blocksCol }

// Block returns block i. Panics if i is outside [0, TotalBlocks()).
func (p Partition) Block(i int) Block {
	if i < 0 || i >= p.TotalBlocks() {
		panic(fmt.Sprintf("count: block index %d out of range [0, %d)", i, p.TotalBlocks()))
	}

	br, bc := i/p.blocksCol, i%p.blocksCol
	return Block{
		Index:    i,
		Row:      br,
		Col:      bc,
		RowStart: br * p.blockSize,
		RowEnd:   min((br+1)*p.blockSize, p.shape.Rows),
		ColStart: bc * p.blockSize,
		ColEnd:   min((bc+1)*p.blockSize, p.shape.Cols),
	}
}

// WorkerBlocks returns the block indices worker owns when workers share the
// partition round-robin.
func (p Partition) WorkerBlocks(worker, workers int) []int {
	return slices.Collect(parallel.Stride(worker, workers, p.TotalBlocks()))
}

// ClampWorkers limits workers to the number of blocks.
func (p Partition) ClampWorkers(workers int) int {
	return min(workers, p.TotalBlocks())
}

// ceilDiv returns ceil(a/b) for a >= 0, b > 0 without overflowing a+b-1.
func ceilDiv(a, b int) int {
	q := a / b
	if a%b != 0 {
		q++
	}
	return q
}
