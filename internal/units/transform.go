package units

import (
	"fmt"
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"
)

// OpKind identifies one entry of a transform stack.
type OpKind int

// Transform operations, named after their SVG transform-list functions.
const (
	OpTranslate OpKind = iota
	OpScale
	OpRotate
	OpSkewX
	OpSkewY
	OpMatrix
)

var opNames = [...]string{
	OpTranslate: "translate",
	OpScale:     "scale",
	OpRotate:    "rotate",
	OpSkewX:     "skewX",
	OpSkewY:     "skewY",
	OpMatrix:    "matrix",
}

func (k OpKind) String() string {
	if k < 0 || int(k) >= len(opNames) {
		return fmt.Sprintf("OpKind(%d)", int(k))
	}
	return opNames[k]
}

// OpKindByName looks up an operation by its SVG function name.
func OpKindByName(name string) (OpKind, bool) {
	for k, n := range opNames {
		if n == name {
			return OpKind(k), true
		}
	}
	return 0, false
}

// Op is a single affine operation. Args follow the SVG argument lists:
// translate(tx [ty]), scale(sx [sy]), rotate(deg [cx cy]), skewX(deg),
// skewY(deg), matrix(a b c d e f).
type Op struct {
	Kind OpKind
	Args []float64
}

// Translate returns a pure translation op.
func Translate(x, y float64) Op {
	return Op{Kind: OpTranslate, Args: []float64{x, y}}
}

// Scale returns a scale op.
func Scale(sx, sy float64) Op {
	return Op{Kind: OpScale, Args: []float64{sx, sy}}
}

// Rotate returns a rotation about the origin, in degrees.
func Rotate(deg float64) Op {
	return Op{Kind: OpRotate, Args: []float64{deg}}
}

func (op Op) arg(i int, def float64) float64 {
	if i < len(op.Args) {
		return op.Args[i]
	}
	return def
}

// Matrix returns the affine matrix of the op.
func (op Op) Matrix() matrix.Matrix {
	switch op.Kind {
	case OpTranslate:
		return matrix.Translate(op.arg(0, 0), op.arg(1, 0))
	case OpScale:
		sx := op.arg(0, 1)
		return matrix.Scale(sx, op.arg(1, sx))
	case OpRotate:
		rad := op.arg(0, 0) * math.Pi / 180
		s, c := math.Sincos(rad)
		rot := matrix.Matrix{c, s, -s, c, 0, 0}
		if len(op.Args) >= 3 {
			cx, cy := op.Args[1], op.Args[2]
			return matrix.Translate(-cx, -cy).Mul(rot).Mul(matrix.Translate(cx, cy))
		}
		return rot
	case OpSkewX:
		return matrix.Matrix{1, 0, math.Tan(op.arg(0, 0) * math.Pi / 180), 1, 0, 0}
	case OpSkewY:
		return matrix.Matrix{1, math.Tan(op.arg(0, 0) * math.Pi / 180), 0, 1, 0, 0}
	case OpMatrix:
		if len(op.Args) == 6 {
			return matrix.Matrix{op.Args[0], op.Args[1], op.Args[2], op.Args[3], op.Args[4], op.Args[5]}
		}
	}
	return matrix.Identity
}

// Compose folds a transform stack into one matrix. As in SVG, the last op
// in the stack is applied to a point first.
func Compose(stack []Op) matrix.Matrix {
	m := matrix.Identity
	for i := len(stack) - 1; i >= 0; i-- {
		m = m.Mul(stack[i].Matrix())
	}
	return m
}

// ExtractTranslation returns the offset of a stack consisting of exactly
// one translate op. Any other shape, including an identity stack, an extra
// scale or a rotation, reports false so that callers skip the element
// instead of persisting a wrong position.
func ExtractTranslation(stack []Op) (vec.Vec2, bool) {
	if len(stack) != 1 {
		return vec.Vec2{}, false
	}
	op := stack[0]
	if op.Kind != OpTranslate || len(op.Args) == 0 || len(op.Args) > 2 {
		return vec.Vec2{}, false
	}
	for _, a := range op.Args {
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return vec.Vec2{}, false
		}
	}
	return vec.Vec2{X: op.arg(0, 0), Y: op.arg(1, 0)}, true
}

// ExtractScale returns the uniform scale of a stack consisting of exactly
// one scale op with equal factors.
func ExtractScale(stack []Op) (float64, bool) {
	if len(stack) != 1 || stack[0].Kind != OpScale || len(stack[0].Args) == 0 {
		return 0, false
	}
	sx := stack[0].arg(0, 1)
	if sy := stack[0].arg(1, sx); sy != sx || sx <= 0 {
		return 0, false
	}
	return sx, true
}
