package config

import (
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/go-drift/cordyceps/pkg/state"
)

type hclMark string

// noRecurseMark is attached by the norecurse() function to opaque values.
const noRecurseMark = hclMark("norecurse")

// noRecurseFunc returns its argument marked as opaque:
//
//	state = {
//	  widget = norecurse({ v = 1 })
//	}
var noRecurseFunc = function.New(&function.Spec{
	Description: "Marks a state value so updates replace it instead of merging into it.",
	Params: []function.Parameter{
		{
			Name:             "value",
			Type:             cty.DynamicPseudoType,
			AllowNull:        true,
			AllowMarked:      true,
			AllowDynamicType: true,
		},
	},
	Type: func(args []cty.Value) (cty.Type, error) {
		return args[0].Type(), nil
	},
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		return args[0].Mark(noRecurseMark), nil
	},
})

func hclEvalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"norecurse": noRecurseFunc,
		},
	}
}

func decodeHCL(data []byte, name string) (*document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, name)
	if diags.HasErrors() {
		return nil, diags
	}
	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}

	ctx := hclEvalContext()
	doc := &document{}
	for attrName, attr := range attrs {
		val, diags := attr.Expr.Value(ctx)
		if diags.HasErrors() {
			return nil, diags
		}
		var err error
		switch attrName {
		case "debug":
			err = gocty.FromCtyValue(val, &doc.Debug)
		case "scheduler":
			err = gocty.FromCtyValue(val, &doc.Scheduler)
		case "frame_interval":
			err = gocty.FromCtyValue(val, &doc.FrameInterval)
		case "no_recurse":
			err = hclStrings(val, &doc.NoRecurse)
		case "state":
			doc.State, err = hclState(val)
		default:
			err = fmt.Errorf("unknown attribute")
		}
		if err != nil {
			return nil, fmt.Errorf("%s: attribute %q: %w", attr.Range, attrName, err)
		}
	}
	return doc, nil
}

// hclStrings decodes a tuple or list of strings.
func hclStrings(val cty.Value, out *[]string) error {
	list, err := convert.Convert(val, cty.List(cty.String))
	if err != nil {
		return err
	}
	return gocty.FromCtyValue(list, out)
}

func hclState(val cty.Value) (state.Tree, error) {
	v, err := ctyValue(val)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return t, nil
	default:
		return nil, fmt.Errorf("state must be an object, got %s", val.Type().FriendlyName())
	}
}

// ctyValue converts val to plain Go values. Values marked by norecurse()
// are wrapped in state.NoRecurse. Whole numbers become int64.
func ctyValue(val cty.Value) (any, error) {
	val, marks := val.Unmark()
	if _, opaque := marks[noRecurseMark]; opaque {
		v, err := ctyValue(val)
		if err != nil {
			return nil, err
		}
		return state.Opaque(v), nil
	}

	if !val.IsKnown() {
		return nil, fmt.Errorf("value is not known")
	}
	if val.IsNull() {
		return nil, nil
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil
	case ty == cty.Bool:
		return val.True(), nil
	case ty == cty.Number:
		bf := val.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i, nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			conv, err := ctyValue(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = conv
		}
		return out, nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		var out []any
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			conv, err := ctyValue(v)
			if err != nil {
				return nil, err
			}
			out = append(out, conv)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported type %s", ty.FriendlyName())
	}
}
