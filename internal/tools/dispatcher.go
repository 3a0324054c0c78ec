package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ashureev/shopchat/internal/domain"
)

// MaxSearchResults caps how many products a search hands to the model.
const MaxSearchResults = 2

// NotImplementedMessage is returned as the result of calls to unknown tools.
const NotImplementedMessage = "I'm sorry, this tool is not implemented."

// Searcher finds catalog products.
type Searcher interface {
	Search(query string) []domain.Product
}

// Converter converts currency amounts.
type Converter interface {
	Convert(ctx context.Context, amount float64, from, to string) (string, error)
}

// Result is the outcome of a tool call, either ProductResults or TextResult.
type Result interface {
	isResult()
}

// ProductResults is the searchProducts result. It encodes as a JSON array,
// empty when nothing matched.
type ProductResults []domain.ProductSummary

// TextResult is a plain string result. It encodes as a JSON string.
type TextResult string

func (ProductResults) isResult() {}
func (TextResult) isResult()     {}

// Encode serializes a result into the content of a tool message. HTML
// characters are left unescaped so product URLs reach the model verbatim.
func Encode(r Result) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return "", fmt.Errorf("encode tool result: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Dispatcher executes parsed tool calls.
type Dispatcher struct {
	catalog   Searcher
	converter Converter
	logger    *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(catalog Searcher, converter Converter, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{catalog: catalog, converter: converter, logger: logger}
}

// Dispatch runs call. Unknown tools yield NotImplementedMessage rather than an
// error; converter errors are returned unchanged.
func (d *Dispatcher) Dispatch(ctx context.Context, call Call) (Result, error) {
	switch c := call.(type) {
	case SearchProducts:
		d.logger.Info("[TOOL CALL] searchProducts", "query", c.Query)
		matches := d.catalog.Search(c.Query)
		n := min(len(matches), MaxSearchResults)
		out := make(ProductResults, n)
		for i := range n {
			out[i] = matches[i].Summary()
		}
		return out, nil

	case ConvertCurrencies:
		d.logger.Info("[TOOL CALL] convertCurrencies", "amount", c.Amount, "from", c.From, "to", c.To)
		text, err := d.converter.Convert(ctx, c.Amount, c.From, c.To)
		if err != nil {
			return nil, err
		}
		return TextResult(text), nil

	case Unknown:
		d.logger.Warn("[TOOL CALL] unknown tool", "name", c.Name)
		return TextResult(NotImplementedMessage), nil

	default:
		return nil, fmt.Errorf("unsupported tool call %T", call)
	}
}
