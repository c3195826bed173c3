package openai

const visionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "description": {"type": "string"},
    "style": {"type": "string"},
    "colors": {"type": "array", "items": {"type": "string"}},
    "elements": {"type": "array", "items": {"type": "string"}},
    "mood": {"type": "string"},
    "category": {"type": "string"},
    "tags": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["description", "style", "colors", "elements", "mood", "category", "tags"],
  "additionalProperties": false
}`

const visionSystemPrompt = `Analyze the supplied image and return a structured description as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

` + visionResponseSchema + `

Rules:
- description: 2-4 sentences covering the subject, composition, and any visible text.
- style: one short phrase (e.g. "photograph", "flat illustration", "screenshot", "oil painting").
- colors: 3-5 dominant colors, lowercase.
- elements: the salient objects or elements, lowercase, most prominent first.
- mood: one short phrase for the overall atmosphere.
- category: a single high-level category such as "art", "design", "nature", "architecture", "people", "technology", "food", "document".
- tags: 5-10 lowercase retrieval keywords.
- Describe only what is visible. Do not speculate about what is outside the frame.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.`
