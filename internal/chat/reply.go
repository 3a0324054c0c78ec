package chat

import (
	"encoding/json"

	"github.com/ashureev/shopchat/internal/domain"
)

// ParseBotMessage reports whether text is a structured product reply: a JSON
// object with a string "explanation" and an array "products". Product entries
// that are not objects are dropped.
func ParseBotMessage(text string) (*domain.BotMessage, bool) {
	var raw struct {
		Explanation *string           `json:"explanation"`
		Products    []json.RawMessage `json:"products"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, false
	}
	if raw.Explanation == nil || raw.Products == nil {
		return nil, false
	}

	msg := &domain.BotMessage{
		Explanation: *raw.Explanation,
		Products:    make([]domain.BotProduct, 0, len(raw.Products)),
	}
	for _, p := range raw.Products {
		var product domain.BotProduct
		if err := json.Unmarshal(p, &product); err != nil {
			continue
		}
		msg.Products = append(msg.Products, product)
	}
	return msg, true
}
