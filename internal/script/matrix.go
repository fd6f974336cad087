package script

import (
	"fmt"
	"math"

	"github.com/roach88/adaptivity/internal/ir"
	"github.com/roach88/adaptivity/internal/operator"
)

// maxMatrixCells bounds matrices built from script arguments.
const maxMatrixCells = 10_000

func registerMatrix(env *Environment) {
	native(env, "matrix", 2, 3, func(_ *Environment, args []ir.Value) (ir.Value, error) {
		rows, cols, ok := dimensions(operator.ToNumber(args[0]), operator.ToNumber(args[1]))
		if !ok {
			return nil, fmt.Errorf("bad dimensions %vx%v", operator.ToString(args[0]), operator.ToString(args[1]))
		}
		var fill ir.Value = ir.Number(0)
		if len(args) > 2 {
			fill = args[2]
		}
		m := make([][]float64, rows)
		for i := range m {
			m[i] = make([]float64, cols)
			for j := range m[i] {
				m[i][j] = operator.ToNumber(fill)
			}
		}
		return fromMatrix(m), nil
	})
	native(env, "identity", 1, 1, func(_ *Environment, args []ir.Value) (ir.Value, error) {
		n, _, ok := dimensions(operator.ToNumber(args[0]), operator.ToNumber(args[0]))
		if !ok {
			return nil, fmt.Errorf("bad size %v", operator.ToString(args[0]))
		}
		m := make([][]float64, n)
		for i := range m {
			m[i] = make([]float64, n)
			m[i][i] = 1
		}
		return fromMatrix(m), nil
	})
	native(env, "transpose", 1, 1, func(_ *Environment, args []ir.Value) (ir.Value, error) {
		m, err := toMatrix(args[0])
		if err != nil {
			return nil, err
		}
		if len(m) == 0 {
			return ir.Array{}, nil
		}
		out := make([][]float64, len(m[0]))
		for j := range out {
			out[j] = make([]float64, len(m))
			for i := range m {
				out[j][i] = m[i][j]
			}
		}
		return fromMatrix(out), nil
	})
	native(env, "madd", 2, 2, func(_ *Environment, args []ir.Value) (ir.Value, error) {
		a, err := toMatrix(args[0])
		if err != nil {
			return nil, err
		}
		b, err := toMatrix(args[1])
		if err != nil {
			return nil, err
		}
		if len(a) != len(b) || (len(a) > 0 && len(a[0]) != len(b[0])) {
			return nil, fmt.Errorf("dimension mismatch")
		}
		out := make([][]float64, len(a))
		for i := range a {
			out[i] = make([]float64, len(a[i]))
			for j := range a[i] {
				out[i][j] = a[i][j] + b[i][j]
			}
		}
		return fromMatrix(out), nil
	})
	native(env, "mmul", 2, 2, func(_ *Environment, args []ir.Value) (ir.Value, error) {
		a, err := toMatrix(args[0])
		if err != nil {
			return nil, err
		}
		b, err := toMatrix(args[1])
		if err != nil {
			return nil, err
		}
		if len(a) == 0 || len(b) == 0 || len(a[0]) != len(b) {
			return nil, fmt.Errorf("dimension mismatch")
		}
		out := make([][]float64, len(a))
		for i := range a {
			out[i] = make([]float64, len(b[0]))
			for j := range b[0] {
				for k := range b {
					out[i][j] += a[i][k] * b[k][j]
				}
			}
		}
		return fromMatrix(out), nil
	})
	native(env, "det", 1, 1, func(_ *Environment, args []ir.Value) (ir.Value, error) {
		m, err := toMatrix(args[0])
		if err != nil {
			return nil, err
		}
		for _, row := range m {
			if len(row) != len(m) {
				return nil, fmt.Errorf("matrix is not square")
			}
		}
		return ir.Number(determinant(m)), nil
	})
}

// dimensions checks a requested matrix shape against maxMatrixCells. Rows
// are counted even when empty, and each side is checked before the product
// so the product cannot overflow.
func dimensions(r, c float64) (rows, cols int, ok bool) {
	if math.IsNaN(r) || math.IsNaN(c) || r < 0 || c < 0 || r > maxMatrixCells || c > maxMatrixCells {
		return 0, 0, false
	}
	rows, cols = int(r), int(c)
	if rows*max(cols, 1) > maxMatrixCells {
		return 0, 0, false
	}
	return rows, cols, true
}

// toMatrix reads a rectangular list of numeric rows.
func toMatrix(v ir.Value) ([][]float64, error) {
	rows, err := asList(v)
	if err != nil {
		return nil, err
	}
	m := make([][]float64, len(rows))
	for i, row := range rows {
		cells, err := asList(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if i > 0 && len(cells) != len(m[0]) {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(cells), len(m[0]))
		}
		m[i] = make([]float64, len(cells))
		for j, c := range cells {
			m[i][j] = operator.ToNumber(c)
		}
	}
	return m, nil
}

func fromMatrix(m [][]float64) ir.Array {
	out := make(ir.Array, len(m))
	for i, row := range m {
		r := make(ir.Array, len(row))
		for j, x := range row {
			r[j] = ir.Number(x)
		}
		out[i] = r
	}
	return out
}

// determinant uses Gaussian elimination with partial pivoting.
func determinant(src [][]float64) float64 {
	n := len(src)
	m := make([][]float64, n)
	for i := range src {
		m[i] = append([]float64(nil), src[i]...)
	}

	det := 1.0
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if m[pivot][col] == 0 {
			return 0
		}
		if pivot != col {
			m[pivot], m[col] = m[col], m[pivot]
			det = -det
		}
		det *= m[col][col]
		for r := col + 1; r < n; r++ {
			factor := m[r][col] / m[col][col]
			for c := col; c < n; c++ {
				m[r][c] -= factor * m[col][c]
			}
		}
	}
	return det
}
