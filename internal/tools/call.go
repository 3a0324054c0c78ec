package tools

import (
	"encoding/json"
	"fmt"

	"github.com/ashureev/shopchat/internal/shared"
)

// Call is a parsed tool invocation. The set of implementations is closed:
// SearchProducts, ConvertCurrencies and Unknown.
type Call interface {
	toolName() string
}

// SearchProducts asks for catalog matches of Query.
type SearchProducts struct {
	Query string `json:"query"`
}

// ConvertCurrencies asks to convert Amount from one currency code to another.
type ConvertCurrencies struct {
	Amount float64 `json:"amount"`
	From   string  `json:"from"`
	To     string  `json:"to"`
}

// Unknown is a call to a tool this service does not provide.
type Unknown struct {
	Name string
}

func (SearchProducts) toolName() string    { return NameSearchProducts }
func (ConvertCurrencies) toolName() string { return NameConvertCurrencies }
func (u Unknown) toolName() string         { return u.Name }

// CallName returns the tool name a call was made with.
func CallName(c Call) string {
	return c.toolName()
}

// ParseCall decodes the JSON argument string of a tool call. Arguments are
// validated as JSON for every tool, unknown ones included. Absent fields take
// their zero value; a field of the wrong JSON type is rejected.
func ParseCall(name, argsJSON string) (Call, error) {
	raw := []byte(argsJSON)
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: %s: not valid JSON", shared.ErrMalformedToolArguments, name)
	}

	switch name {
	case NameSearchProducts:
		var c SearchProducts
		if err := decodeArgs(raw, &c); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", shared.ErrMalformedToolArguments, name, err)
		}
		return c, nil
	case NameConvertCurrencies:
		var c ConvertCurrencies
		if err := decodeArgs(raw, &c); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", shared.ErrMalformedToolArguments, name, err)
		}
		return c, nil
	default:
		return Unknown{Name: name}, nil
	}
}

// ParseArguments builds a Call from already-decoded arguments, as delivered
// by MCP clients.
func ParseArguments(name string, args any) (Call, error) {
	if args == nil {
		args = map[string]any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", shared.ErrMalformedToolArguments, name, err)
	}
	return ParseCall(name, string(raw))
}

func decodeArgs(raw []byte, v any) error {
	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return err
	}
	if _, ok := probe.(map[string]any); !ok {
		return fmt.Errorf("arguments must be a JSON object")
	}
	return json.Unmarshal(raw, v)
}
