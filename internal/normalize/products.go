package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/joseph-ayodele/docs-extractor/internal/entity"
)

// Products coerces the model's products value into line items. Mapping
// entries keep their fields (quantity defaults to 1, prices to 0); any other
// entry becomes {name: <entry as text>, quantity: 1, unit_price: 0, total: 0}.
// A missing or non-list value yields an empty list.
func Products(v any) []entity.LineItem {
	switch t := v.(type) {
	case []entity.LineItem:
		return append([]entity.LineItem{}, t...)
	case []any:
		items := make([]entity.LineItem, 0, len(t))
		for _, entry := range t {
			items = append(items, lineItem(entry))
		}
		return items
	default:
		return []entity.LineItem{}
	}
}

func lineItem(entry any) entity.LineItem {
	m, ok := entry.(map[string]any)
	if !ok {
		return entity.LineItem{Name: text(entry), Quantity: 1}
	}
	return entity.LineItem{
		Name:      text(m["name"]),
		Quantity:  numberOr(m["quantity"], 1),
		UnitPrice: numberOr(m["unit_price"], 0),
		Total:     numberOr(m["total"], 0),
	}
}

func numberOr(v any, fallback float64) float64 {
	if f := Amount(v); f != nil {
		return *f
	}
	return fallback
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

// ProductsJSON serializes items as a JSON array; nil becomes [].
func ProductsJSON(items []entity.LineItem) ([]byte, error) {
	if items == nil {
		items = []entity.LineItem{}
	}
	return json.Marshal(items)
}
