package program

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// IDL describes a program's interface in the Anchor IDL layout, so existing
// client tooling can generate bindings for it.
type IDL struct {
	Version      string           `json:"version"`
	Name         string           `json:"name"`
	Instructions []IDLInstruction `json:"instructions"`
	Metadata     IDLMetadata      `json:"metadata"`
}

type IDLInstruction struct {
	Name     string       `json:"name"`
	Accounts []IDLAccount `json:"accounts"`
	Args     []IDLField   `json:"args"`
}

type IDLAccount struct {
	Name     string `json:"name"`
	IsMut    bool   `json:"isMut"`
	IsSigner bool   `json:"isSigner"`
}

type IDLField struct {
	Name string `json:"name"`
	Type any    `json:"type"`
}

type IDLMetadata struct {
	Address string `json:"address"`
}

func BuildIDL(p Program) (*IDL, error) {
	idl := &IDL{
		Version:      p.Version(),
		Name:         p.Name(),
		Instructions: []IDLInstruction{},
		Metadata:     IDLMetadata{Address: FormatID(p.ID())},
	}
	for _, ix := range p.Instructions() {
		accounts := make([]IDLAccount, 0, len(ix.Accounts))
		for _, a := range ix.Accounts {
			accounts = append(accounts, IDLAccount{
				Name:     camelCase(a.Name),
				IsMut:    a.Writable,
				IsSigner: a.Signer,
			})
		}
		args, err := idlFields(ix.argsType)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ix.Name, err)
		}
		idl.Instructions = append(idl.Instructions, IDLInstruction{
			Name:     camelCase(ix.Name),
			Accounts: accounts,
			Args:     args,
		})
	}
	return idl, nil
}

// MarshalIDL returns the indented JSON form of the program IDL.
func MarshalIDL(p Program) ([]byte, error) {
	idl, err := BuildIDL(p)
	if err != nil {
		return nil, err
	}
	b, err := json.MarshalIndent(idl, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func idlFields(t reflect.Type) ([]IDLField, error) {
	fields := []IDLField{}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrUnsupportedArgumentType, t)
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Tag.Get("borsh_skip") == "true" {
			continue
		}
		typ, err := idlType(f.Type)
		if err != nil {
			return nil, err
		}
		fields = append(fields, IDLField{Name: camelCase(f.Name), Type: typ})
	}
	return fields, nil
}

func idlType(t reflect.Type) (any, error) {
	switch t.Kind() {
	case reflect.Bool:
		return "bool", nil
	case reflect.Uint8:
		return "u8", nil
	case reflect.Uint16:
		return "u16", nil
	case reflect.Uint32:
		return "u32", nil
	case reflect.Uint64:
		return "u64", nil
	case reflect.Int8:
		return "i8", nil
	case reflect.Int16:
		return "i16", nil
	case reflect.Int32:
		return "i32", nil
	case reflect.Int64:
		return "i64", nil
	case reflect.String:
		return "string", nil
	case reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 && t.Len() == IDLen {
			return "publicKey", nil
		}
		elem, err := idlType(t.Elem())
		if err != nil {
			return nil, err
		}
		return map[string]any{"array": []any{elem, t.Len()}}, nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return "bytes", nil
		}
		elem, err := idlType(t.Elem())
		if err != nil {
			return nil, err
		}
		return map[string]any{"vec": elem}, nil
	case reflect.Ptr:
		elem, err := idlType(t.Elem())
		if err != nil {
			return nil, err
		}
		return map[string]any{"option": elem}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedArgumentType, t)
	}
}

// camelCase converts snake_case and Go exported names to lowerCamelCase.
func camelCase(s string) string {
	var b strings.Builder
	upper := false
	for i, r := range s {
		switch {
		case r == '_':
			upper = true
		case i == 0:
			b.WriteRune(unicode.ToLower(r))
		case upper:
			b.WriteRune(unicode.ToUpper(r))
			upper = false
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
