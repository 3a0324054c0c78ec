package domain

import (
	"encoding/json"
	"strconv"
)

// BotMessage is the structured reply the model emits for product searches.
type BotMessage struct {
	Explanation string       `json:"explanation"`
	Products    []BotProduct `json:"products"`
}

// BotProduct is a product card inside a structured reply. Models are loose
// about scalar types here, so every field accepts strings, numbers and booleans.
type BotProduct struct {
	Title       LooseString `json:"title"`
	URL         LooseString `json:"url"`
	ImageURL    LooseString `json:"imageUrl"`
	Price       LooseString `json:"price"`
	Discount    LooseString `json:"discount,omitempty"`
	ProductType LooseString `json:"productType"`
}

// LooseString decodes any JSON scalar into its textual form. null decodes to "".
type LooseString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *LooseString) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*s = ""
	case string:
		*s = LooseString(t)
	case float64:
		*s = LooseString(strconv.FormatFloat(t, 'f', -1, 64))
	case bool:
		*s = LooseString(strconv.FormatBool(t))
	default:
		*s = LooseString(data)
	}
	return nil
}
