package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Field identifiers shared by ApplicationData and the field schemas.
const (
	FieldBrandName         = "brand_name"
	FieldClassType         = "class_type"
	FieldAlcoholContent    = "alcohol_content"
	FieldNetContents       = "net_contents"
	FieldProducerName      = "producer_name"
	FieldCountryOfOrigin   = "country_of_origin"
	FieldGovernmentWarning = "government_warning"
)

// ApplicationFields lists every attribute of ApplicationData by identifier.
var ApplicationFields = []string{
	FieldBrandName,
	FieldClassType,
	FieldAlcoholContent,
	FieldNetContents,
	FieldProducerName,
	FieldCountryOfOrigin,
	FieldGovernmentWarning,
}

type ApplicationData struct {
	BrandName         string `json:"brandName"`
	ClassType         string `json:"classType"`
	AlcoholContent    string `json:"alcoholContent"`
	NetContents       string `json:"netContents"`
	ProducerName      string `json:"producerName"`
	CountryOfOrigin   string `json:"countryOfOrigin"`
	GovernmentWarning string `json:"governmentWarning"`
}

func IsApplicationField(id string) bool {
	for _, f := range ApplicationFields {
		if f == id {
			return true
		}
	}
	return false
}

// Value returns the expected value recorded for field id.
func (a *ApplicationData) Value(id string) (string, bool) {
	if p := a.ref(id); p != nil {
		return *p, true
	}
	return "", false
}

func (a *ApplicationData) Set(id, value string) error {
	p := a.ref(id)
	if p == nil {
		return fmt.Errorf("unknown application field %q", id)
	}
	*p = value
	return nil
}

func (a *ApplicationData) ref(id string) *string {
	switch id {
	case FieldBrandName:
		return &a.BrandName
	case FieldClassType:
		return &a.ClassType
	case FieldAlcoholContent:
		return &a.AlcoholContent
	case FieldNetContents:
		return &a.NetContents
	case FieldProducerName:
		return &a.ProducerName
	case FieldCountryOfOrigin:
		return &a.CountryOfOrigin
	case FieldGovernmentWarning:
		return &a.GovernmentWarning
	}
	return nil
}

// splitParts maps combined fields to the (amount, format) keys used by the
// split application form.
var splitParts = map[string][2]string{
	FieldAlcoholContent: {"alcohol_content_amount", "alcohol_content_format"},
	FieldNetContents:    {"net_contents_amount", "net_contents_unit"},
}

// UnmarshalJSON accepts both the camelCase form and the snake_case form
// with split amount/unit attributes.
func (a *ApplicationData) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out ApplicationData
	for _, id := range ApplicationFields {
		v, ok, err := lookup(raw, id)
		if err != nil {
			return err
		}
		if !ok {
			parts, split := splitParts[id]
			if !split {
				continue
			}
			amount, _, err := lookup(raw, parts[0])
			if err != nil {
				return err
			}
			format, _, err := lookup(raw, parts[1])
			if err != nil {
				return err
			}
			v = strings.TrimSpace(amount + " " + format)
		}
		_ = out.Set(id, v)
	}

	*a = out
	return nil
}

func lookup(raw map[string]json.RawMessage, snake string) (string, bool, error) {
	for _, key := range []string{snake, camel(snake)} {
		msg, ok := raw[key]
		if !ok {
			continue
		}
		v, err := scalar(msg)
		if err != nil {
			return "", false, fmt.Errorf("application field %q: %w", key, err)
		}
		return v, true, nil
	}
	return "", false, nil
}

func scalar(msg json.RawMessage) (string, error) {
	var v any
	dec := json.NewDecoder(strings.NewReader(string(msg)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(t), nil
	case json.Number:
		return t.String(), nil
	case bool:
		return "", fmt.Errorf("unexpected boolean")
	default:
		return "", fmt.Errorf("expected a string or number")
	}
}

func camel(snake string) string {
	parts := strings.Split(snake, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}
