package arx

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
	"gopkg.in/yaml.v3"
)

// LoadDataFile reads a context data file. The format follows the file
// extension: .yaml/.yml as YAML, .hcl as HCL attributes, anything else as
// JSON. The top level must be an object.
func LoadDataFile(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, NewDataError(ErrMsgDataRead, path, err)
	}
	return DecodeData(path, raw)
}

// DecodeData decodes raw data, choosing the format from label's extension
func DecodeData(label string, raw []byte) (map[string]any, error) {
	switch strings.ToLower(filepath.Ext(label)) {
	case DataExtYAML, DataExtYML:
		return decodeYAMLData(label, raw)
	case DataExtHCL:
		return decodeHCLData(label, raw)
	default:
		return decodeJSONData(label, raw)
	}
}

// ParseDataJSON decodes an inline JSON object. Blank input is an empty
// object; any other non-object value fails naming label.
func ParseDataJSON(label, raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return make(map[string]any), nil
	}
	return decodeJSONData(label, []byte(raw))
}

func decodeJSONData(label string, raw []byte) (map[string]any, error) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, NewDataError(ErrMsgDataDecode, label, err)
	}
	m, ok := decoded.(map[string]any)
	if !ok {
		return nil, NewDataError(ErrMsgDataNotMap, label, nil)
	}
	return m, nil
}

func decodeYAMLData(label string, raw []byte) (map[string]any, error) {
	var decoded any
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		return nil, NewDataError(ErrMsgDataDecode, label, err)
	}
	if decoded == nil {
		return make(map[string]any), nil
	}
	m, ok := asStringMap(decoded)
	if !ok {
		return nil, NewDataError(ErrMsgDataNotMap, label, nil)
	}
	return m, nil
}

// decodeHCLData evaluates the top-level attributes of an HCL body. Blocks
// are not supported; nested data is written as object expressions.
func decodeHCLData(label string, raw []byte) (map[string]any, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(raw, label)
	if diags.HasErrors() {
		return nil, NewDataError(ErrMsgDataDecode, label, diags)
	}

	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, NewDataError(ErrMsgDataDecode, label, diags)
	}

	out := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, NewDataError(ErrMsgDataHCLExpr, label, fmt.Errorf("%s: %w", name, diags))
		}
		native, err := ctyToNative(val)
		if err != nil {
			return nil, NewDataError(ErrMsgDataHCLExpr, label, fmt.Errorf("%s: %w", name, err))
		}
		out[name] = native
	}
	return out, nil
}

// ctyToNative converts a cty value to nil, string, float64, bool, []any or
// map[string]any
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, err
		}
		return f, nil

	case ty == cty.Bool:
		var b bool
		if err := gocty.FromCtyValue(v, &b); err != nil {
			return nil, err
		}
		return b, nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		items := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, err
			}
			items = append(items, native)
		}
		return items, nil

	case ty.IsObjectType() || ty.IsMapType():
		m := make(map[string]any)
		it := v.ElementIterator()
		for it.Next() {
			key, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key.AsString(), err)
			}
			m[key.AsString()] = native
		}
		return m, nil

	default:
		return nil, fmt.Errorf("unsupported HCL value type %s", ty.FriendlyName())
	}
}
