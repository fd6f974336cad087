package script

import (
	"fmt"
	"sync"
)

// stdlibSource is loaded into every new environment after the native
// builtins. It may only declare functions.
const stdlibSource = `
fn rad(d) => d * pi() / 180;
fn deg(r) => r * 180 / pi();
fn sind(d) => sin(rad(d));
fn cosd(d) => cos(rad(d));
fn tand(d) => tan(rad(d));
fn sq(x) => x * x;
fn clamp(x, lo, hi) => x < lo ? lo : (x > hi ? hi : x);
fn lerp(a, b, t) => a + (b - a) * t;
fn dist(x1, y1, x2, y2) => sqrt(sq(x2 - x1) + sq(y2 - y1));
fn percent(part, whole) => whole == 0 ? 0 : part / whole * 100;
fn roundTo(x, n) => round(x, n);
fn between(x, lo, hi) => x >= lo && x <= hi;
fn fact(n) => n <= 1 ? 1 : n * fact(n - 1);
fn gcd(a, b) => b == 0 ? abs(a) : gcd(b, a % b);
fn lcm(a, b) => a == 0 || b == 0 ? 0 : abs(a * b) / gcd(a, b);
`

var stdlibProgram = sync.OnceValue(func() *Program {
	prog, err := Parse(stdlibSource)
	if err != nil {
		panic(fmt.Sprintf("script: standard library does not parse: %v", err))
	}
	return prog
})

func loadStdlib(env *Environment) {
	for _, stmt := range stdlibProgram().Stmts {
		fn, ok := stmt.(*FnStmt)
		if !ok {
			panic(fmt.Sprintf("script: standard library statement at offset %d is not a function", stmt.Offset()))
		}
		env.Define(&Function{Name: fn.Name, Params: fn.Params, Body: fn.Body, scope: env})
	}
}
