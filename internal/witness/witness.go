// Package witness implements WitnessCodec (C5): parsing the arbiter
// registry's parametric witness-type-string grammar and computing its
// EIP-712 type-hash/struct-hash, without hard-coding the Mandate shape — the
// codec parses whatever string the calling ArbiterEntry carries.
package witness

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"

	"calibrator.backend/internal/apperr"
)

// Param is one `SolidityType FieldName` entry of a Definition's ParamList.
type Param struct {
	SolidityType string
	FieldName    string
}

// Type is a parsed witness-type-string: the grammar in §4.5.
type Type struct {
	StructName   string
	VariableName string
	Params       []Param
}

// Parse validates and parses a witness-type-string per the grammar:
//
//	TypeString  = Declaration ")" Definition
//	Declaration = StructName " " VariableName
//	Definition  = StructName "(" ParamList ")"
//	ParamList   = Param ("," Param)*
//	Param       = SolidityType " " FieldName
func Parse(typeString string) (*Type, error) {
	pieces := splitNonEmpty(typeString, ")")
	if len(pieces) != 2 {
		return nil, parseError(fmt.Sprintf("expected exactly 2 non-empty pieces split on ')', got %d", len(pieces)))
	}
	declaration, definition := pieces[0], pieces[1]
	if typeString != declaration+")"+definition+")" {
		return nil, parseError(fmt.Sprintf("%q must be Declaration \")\" Definition, ending in the definition's ')'", typeString))
	}

	declTokens := strings.Fields(declaration)
	if len(declTokens) != 2 {
		return nil, parseError(fmt.Sprintf("declaration %q must be \"StructName VariableName\"", declaration))
	}
	declStructName, variableName := declTokens[0], declTokens[1]

	openParen := strings.Index(definition, "(")
	if openParen < 0 {
		return nil, parseError(fmt.Sprintf("definition %q missing '('", definition))
	}
	defStructName := definition[:openParen]
	if defStructName != declStructName {
		return nil, parseError(fmt.Sprintf("struct name mismatch: declaration %q vs definition %q", declStructName, defStructName))
	}

	paramList := definition[openParen+1:]
	params, err := parseParamList(paramList)
	if err != nil {
		return nil, err
	}

	return &Type{StructName: declStructName, VariableName: variableName, Params: params}, nil
}

func parseParamList(paramList string) ([]Param, error) {
	if strings.TrimSpace(paramList) == "" {
		return nil, parseError("empty parameter list")
	}
	rawParams := strings.Split(paramList, ",")
	params := make([]Param, 0, len(rawParams))
	for _, raw := range rawParams {
		tokens := strings.Fields(raw)
		if len(tokens) != 2 {
			return nil, parseError(fmt.Sprintf("param %q must be \"SolidityType FieldName\"", raw))
		}
		params = append(params, Param{SolidityType: tokens[0], FieldName: tokens[1]})
	}
	return params, nil
}

func splitNonEmpty(s, sep string) []string {
	raw := strings.Split(s, sep)
	out := make([]string, 0, len(raw))
	for _, piece := range raw {
		if strings.TrimSpace(piece) != "" {
			out = append(out, piece)
		}
	}
	return out
}

// Canonical returns "StructName(type1,type2,...)" in declaration order, the
// input to typeHash.
func (t *Type) Canonical() string {
	types := make([]string, len(t.Params))
	for i, p := range t.Params {
		types[i] = p.SolidityType
	}
	return fmt.Sprintf("%s(%s)", t.StructName, strings.Join(types, ","))
}

// TypeHash is keccak256(utf8(canonical)).
func (t *Type) TypeHash() [32]byte {
	return crypto.Keccak256Hash([]byte(t.Canonical()))
}

// StructHash ABI-encodes each field (in declaration order) against its
// declared Solidity type and returns keccak256(typeHash || encoded). values
// must carry every FieldName named in Params; a missing key fails
// MissingWitnessField.
func (t *Type) StructHash(values map[string]any) ([32]byte, error) {
	var zero [32]byte

	arguments := make(abi.Arguments, len(t.Params))
	packed := make([]any, len(t.Params))
	for i, p := range t.Params {
		value, ok := values[p.FieldName]
		if !ok {
			return zero, apperr.NewKindError(apperr.KindMissingWitnessField,
				fmt.Sprintf("witness field %q missing from mandate dict", p.FieldName), nil)
		}
		abiType, err := abi.NewType(p.SolidityType, "", nil)
		if err != nil {
			return zero, parseError(fmt.Sprintf("unsupported solidity type %q for field %q: %v", p.SolidityType, p.FieldName, err))
		}
		arguments[i] = abi.Argument{Type: abiType}
		packed[i] = value
	}

	encoded, err := arguments.Pack(packed...)
	if err != nil {
		return zero, parseError(fmt.Sprintf("abi-encode fields: %v", err))
	}

	typeHash := t.TypeHash()
	preimage := append(append([]byte{}, typeHash[:]...), encoded...)
	return crypto.Keccak256Hash(preimage), nil
}

// Hash parses typeString and computes its witness hash against values in
// one call, the shape QuotePipeline uses.
func Hash(typeString string, values map[string]any) (hash [32]byte, variableName string, err error) {
	parsed, err := Parse(typeString)
	if err != nil {
		return [32]byte{}, "", err
	}
	h, err := parsed.StructHash(values)
	if err != nil {
		return [32]byte{}, "", err
	}
	return h, parsed.VariableName, nil
}

func parseError(detail string) *apperr.AppError {
	return apperr.NewKindError(apperr.KindWitnessTypeParseError, "witness type string parse error: "+detail, nil)
}
