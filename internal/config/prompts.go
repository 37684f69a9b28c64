package config

// DefaultExtractionPrompt is formatted with the field list and then the
// expected application values. The model only transcribes; it does not
// judge compliance.
const DefaultExtractionPrompt = `You are reading a U.S. alcohol beverage label for a TTB compliance review.

Transcribe the following fields exactly as printed on the label image:
%s
Rules:
- Copy text verbatim. Keep the original capitalization, punctuation and units.
- For the government warning, copy the complete statement starting with its heading.
- If a field is not visible on the label, use null. Do not guess and do not copy the expected value.
- The application values below tell you what to look for; they are not the answer.

Application values submitted with this label:
%s
Respond with ONLY valid JSON in this shape:
{"fields": [{"field": "<field id>", "extracted": "<text as printed>" or null}]}
Include every field id listed above exactly once.`
