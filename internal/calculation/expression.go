package calculation

import (
	"encoding/json"
	"errors"
	"fmt"

	"go-payroll/internal/shared/money"

	"github.com/shopspring/decimal"
)

// Formula components are stored as a small expression tree with a fixed
// operator set, evaluated by this interpreter. Stored strings are parsed as
// JSON, never evaluated as code.
const (
	OpFixed     = "fixed"
	OpPercentOf = "percent_of"
	OpSum       = "sum"
	OpSub       = "sub"
)

var (
	ErrUnknownOp  = errors.New("unknown formula operator")
	ErrUnknownRef = errors.New("formula references an unresolved component")
)

// Expression is one node of the formula tree.
//
//	{"op":"fixed","amount":50000}
//	{"op":"percent_of","ref":"BASIC","percent":"12"}
//	{"op":"sum","args":[...]}   {"op":"sub","args":[a, b]}
type Expression struct {
	Op      string       `json:"op"`
	Amount  *int64       `json:"amount,omitempty"`
	Ref     string       `json:"ref,omitempty"`
	Percent *string      `json:"percent,omitempty"`
	Args    []Expression `json:"args,omitempty"`
}

// ParseExpression decodes and validates a stored formula.
func ParseExpression(raw string) (*Expression, error) {
	var expr Expression
	if err := json.Unmarshal([]byte(raw), &expr); err != nil {
		return nil, fmt.Errorf("parse formula: %w", err)
	}
	if err := expr.validate(); err != nil {
		return nil, err
	}
	return &expr, nil
}

func (e *Expression) validate() error {
	switch e.Op {
	case OpFixed:
		if e.Amount == nil {
			return fmt.Errorf("fixed node requires amount")
		}
	case OpPercentOf:
		if e.Ref == "" || e.Percent == nil {
			return fmt.Errorf("percent_of node requires ref and percent")
		}
		if _, err := decimal.NewFromString(*e.Percent); err != nil {
			return fmt.Errorf("percent_of node: invalid percent: %w", err)
		}
	case OpSum:
		if len(e.Args) == 0 {
			return fmt.Errorf("sum node requires args")
		}
		for i := range e.Args {
			if err := e.Args[i].validate(); err != nil {
				return err
			}
		}
	case OpSub:
		if len(e.Args) != 2 {
			return fmt.Errorf("sub node requires exactly two args")
		}
		for i := range e.Args {
			if err := e.Args[i].validate(); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, e.Op)
	}
	return nil
}

// Env resolves a reference (component code or base name) to an already
// computed amount.
type Env func(ref string) (int64, bool)

// Eval interprets the expression against env. References must already be
// resolved; component ordering in the snapshot guarantees that.
func (e *Expression) Eval(env Env) (int64, error) {
	switch e.Op {
	case OpFixed:
		return *e.Amount, nil
	case OpPercentOf:
		base, ok := env(e.Ref)
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownRef, e.Ref)
		}
		pct, _ := decimal.NewFromString(*e.Percent)
		return money.PercentOf(base, pct), nil
	case OpSum:
		var total int64
		for i := range e.Args {
			v, err := e.Args[i].Eval(env)
			if err != nil {
				return 0, err
			}
			total += v
		}
		return total, nil
	case OpSub:
		a, err := e.Args[0].Eval(env)
		if err != nil {
			return 0, err
		}
		b, err := e.Args[1].Eval(env)
		if err != nil {
			return 0, err
		}
		return a - b, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOp, e.Op)
	}
}
