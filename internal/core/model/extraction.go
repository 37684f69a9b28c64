package model

// ExtractedValue is what the extraction oracle read off the label for one
// field. Found is false when the oracle reported the field as absent.
type ExtractedValue struct {
	Text  string `json:"text"`
	Found bool   `json:"found"`
}

// Extraction maps field identifiers to extracted values.
type Extraction map[string]ExtractedValue

func Found(text string) ExtractedValue {
	return ExtractedValue{Text: text, Found: true}
}

func NotFound() ExtractedValue {
	return ExtractedValue{}
}

// Image is an uploaded label image.
type Image struct {
	Name     string `json:"name,omitempty"`
	Data     []byte `json:"-"`
	MIMEType string `json:"mimeType"`
}
