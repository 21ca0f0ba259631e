package calculation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpression_RejectsUnknownOp(t *testing.T) {
	_, err := ParseExpression(`{"op":"exec","ref":"rm -rf"}`)
	assert.ErrorIs(t, err, ErrUnknownOp)
}

func TestParseExpression_RejectsMalformedNodes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"fixed without amount", `{"op":"fixed"}`},
		{"percent_of without ref", `{"op":"percent_of","percent":"10"}`},
		{"percent_of bad percent", `{"op":"percent_of","ref":"BASIC","percent":"ten"}`},
		{"sum without args", `{"op":"sum"}`},
		{"sub with one arg", `{"op":"sub","args":[{"op":"fixed","amount":1}]}`},
		{"not json", `percent_of(BASIC, 10)`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseExpression(tc.raw)
			assert.Error(t, err)
		})
	}
}

func TestExpression_Eval(t *testing.T) {
	env := func(ref string) (int64, bool) {
		if ref == "BASIC" {
			return 300000, true
		}
		return 0, false
	}

	expr, err := ParseExpression(`{"op":"sub","args":[{"op":"sum","args":[{"op":"fixed","amount":10000},{"op":"percent_of","ref":"BASIC","percent":"10"}]},{"op":"fixed","amount":5000}]}`)
	require.NoError(t, err)

	got, err := expr.Eval(env)
	require.NoError(t, err)
	assert.Equal(t, int64(10000+30000-5000), got)
}

func TestExpression_EvalUnresolvedRef(t *testing.T) {
	expr, err := ParseExpression(`{"op":"percent_of","ref":"HRA","percent":"10"}`)
	require.NoError(t, err)

	_, err = expr.Eval(func(string) (int64, bool) { return 0, false })
	assert.ErrorIs(t, err, ErrUnknownRef)
}
