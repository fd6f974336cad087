package script

import (
	"fmt"
	"math"

	"github.com/roach88/adaptivity/internal/ir"
	"github.com/roach88/adaptivity/internal/operator"
)

// registerRandom installs the random builtins. They draw from the root
// environment's source, which is seeded from session.seed, so a check with
// the same state always draws the same numbers.
func registerRandom(env *Environment) {
	native(env, "random", 0, 0, func(env *Environment, _ []ir.Value) (ir.Value, error) {
		return ir.Number(env.Rand().Float64()), nil
	})
	native(env, "randomRange", 2, 2, func(env *Environment, args []ir.Value) (ir.Value, error) {
		lo, hi := operator.ToNumber(args[0]), operator.ToNumber(args[1])
		if math.IsNaN(lo) || math.IsNaN(hi) {
			return nil, fmt.Errorf("bounds must be numbers")
		}
		return ir.Number(lo + env.Rand().Float64()*(hi-lo)), nil
	})
	native(env, "randomInt", 2, 2, func(env *Environment, args []ir.Value) (ir.Value, error) {
		lo := math.Ceil(operator.ToNumber(args[0]))
		hi := math.Floor(operator.ToNumber(args[1]))
		if math.IsNaN(lo) || math.IsNaN(hi) || hi < lo {
			return nil, fmt.Errorf("empty range [%v, %v]", lo, hi)
		}
		// The span plus one must fit Int63n's argument.
		if span := hi - lo; math.IsInf(span, 0) || span >= math.MaxInt64 {
			return nil, fmt.Errorf("range [%v, %v] too wide", lo, hi)
		}
		return ir.Number(lo + float64(env.Rand().Int63n(int64(hi-lo)+1))), nil
	})
	native(env, "pick", 1, 1, func(env *Environment, args []ir.Value) (ir.Value, error) {
		list, err := asList(args[0])
		if err != nil {
			return nil, err
		}
		if len(list) == 0 {
			return ir.Null{}, nil
		}
		return list[env.Rand().Intn(len(list))], nil
	})
	native(env, "shuffle", 1, 1, func(env *Environment, args []ir.Value) (ir.Value, error) {
		list, err := asList(args[0])
		if err != nil {
			return nil, err
		}
		out := make(ir.Array, len(list))
		copy(out, list)
		env.Rand().Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		return out, nil
	})
}
