package manifest

import (
	"fmt"

	"github.com/effectus/adaptation/factory"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Guard is a compiled when expression. It sees the value being adapted as
// adaptee.
type Guard struct {
	source  string
	program *vm.Program
}

// CompileGuard compiles a boolean expression over adaptee
func CompileGuard(source string) (*Guard, error) {
	program, err := expr.Compile(source, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid guard expression: %w", err)
	}
	return &Guard{source: source, program: program}, nil
}

// String returns the expression source
func (g *Guard) String() string {
	return g.source
}

// Allows evaluates the guard against adaptee
func (g *Guard) Allows(adaptee any) (bool, error) {
	out, err := expr.Run(g.program, map[string]any{"adaptee": adaptee})
	if err != nil {
		return false, fmt.Errorf("evaluating guard %q: %w", g.source, err)
	}
	allowed, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("guard %q returned %T, not bool", g.source, out)
	}
	return allowed, nil
}

// Wrap returns a converter that declines adaptees the guard rejects
func (g *Guard) Wrap(convert factory.ConvertFunc) factory.ConvertFunc {
	return func(adaptee any) (any, error) {
		allowed, err := g.Allows(adaptee)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, nil
		}
		return convert(adaptee)
	}
}
