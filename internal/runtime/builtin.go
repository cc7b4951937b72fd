package runtime

import "time"

// now is swapped out by tests.
var now = time.Now

// RegisterNatives installs the built-in functions into env.
func RegisterNatives(env *Environment) {
	env.Define("clock", &NativeFunction{
		Name:  "clock",
		arity: 0,
		Fn: func(args []Value) (Value, error) {
			return NumberVal(float64(now().UnixMilli()) / 1000.0), nil
		},
	})
}
