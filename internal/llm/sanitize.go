package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
	"github.com/joseph-ayodele/invoice-tracker/internal/parse"
)

var reCodeFence = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

// StripCodeFences removes a ```json ... ``` wrapper some models add around JSON.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if m := reCodeFence.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// NormalizeAIFields decodes a provider reply into ExtractedFields, coercing loose
// types. It returns the names of fields it had to drop.
func NormalizeAIFields(raw []byte) (*entity.ExtractedFields, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("normalize: decode: %w", err)
	}
	if m == nil {
		return nil, nil, errors.New("normalize: reply is not a json object")
	}

	var dropped []string
	out := &entity.ExtractedFields{}

	out.InvoiceNumber = asString(m["invoiceNumber"])
	out.Vendor = asString(m["vendor"])
	if d := asString(m["date"]); d != "" {
		out.Date = parse.NormalizeDate(d)
	}
	if d := asString(m["dueDate"]); d != "" {
		out.DueDate = parse.NormalizeDate(d)
	}
	out.Currency = strings.ToUpper(asString(m["currency"]))

	for key, dst := range map[string]**float64{
		"totalAmount": &out.TotalAmount,
		"subtotal":    &out.Subtotal,
		"tax":         &out.Tax,
	} {
		v, present := m[key]
		if !present || v == nil {
			continue
		}
		if f, ok := asNumber(v); ok {
			*dst = &f
		} else {
			dropped = append(dropped, key)
		}
	}

	switch t := m["taxRate"].(type) {
	case string:
		out.TaxRate = strings.TrimSpace(t)
	case float64:
		out.TaxRate = strconv.FormatFloat(t, 'f', -1, 64) + "%"
	}

	switch t := m["customerInfo"].(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out.CustomerInfo = &entity.CustomerInfo{Name: s}
		}
	case map[string]any:
		ci := &entity.CustomerInfo{Name: asString(t["name"]), Address: asString(t["address"])}
		if ci.Name != "" || ci.Address != "" {
			out.CustomerInfo = ci
		}
	}

	if items, ok := m["lineItems"].([]any); ok {
		for i, it := range items {
			obj, ok := it.(map[string]any)
			if !ok {
				dropped = append(dropped, fmt.Sprintf("lineItems[%d]", i))
				continue
			}
			li := entity.LineItem{
				Description: asString(obj["description"]),
				Quantity:    numberOrZero(obj["quantity"]),
				UnitPrice:   numberOrZero(firstPresent(obj, "unitPrice", "price")),
				Total:       numberOrZero(obj["total"]),
			}
			if li.Description == "" || li.Total <= 0 {
				dropped = append(dropped, fmt.Sprintf("lineItems[%d]", i))
				continue
			}
			out.LineItems = append(out.LineItems, li)
		}
	}

	return out, dropped, nil
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		s := strings.TrimLeft(strings.TrimSpace(t), "$€£¥¢ ")
		return parse.ParseAmountFloat(s)
	}
	return 0, false
}

func numberOrZero(v any) float64 {
	f, _ := asNumber(v)
	return f
}

func firstPresent(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}
