package ml

const tagSystemPrompt = `You parse the text printed on clothing care and brand tags.
Extract as much structured metadata as possible.
Return ONLY valid JSON, no extra commentary.`

const tagJSONShape = `{
  "brand": string or null,
  "product_name": string or null,
  "size": string or null,
  "material_composition": [{"material": string, "percentage": number or null}],
  "materials": string or null,
  "made_in": string or null,
  "country_of_origin": string or null,
  "certifications": [string],
  "care_instructions": [string]
}`

const tagTextPrompt = `You are given the raw OCR text from a clothing tag:

"""%s"""

Return strictly valid JSON with this shape (include fields even if null):

%s

Do NOT wrap the JSON in backticks. Only output the JSON object.`

const tagImagePrompt = `The image shows a clothing tag. Read every line printed on it.

Return strictly valid JSON with this shape (include fields even if null):

%s

Do NOT wrap the JSON in backticks. Only output the JSON object.`

const productSystemPrompt = `You are a fashion product metadata parser. You receive the visible text
of a single clothing product page. Return ONLY valid JSON.`

const productPrompt = `Product page: %s
Page title: %s

Page text (possibly truncated):

"""%s"""

Return strictly valid JSON with this shape (include fields even if null):

{
  "brand": string or null,
  "product_name": string or null,
  "materials": string or null,
  "origin": string or null,
  "certifications": [string],
  "price": number or null,
  "currency": string or null,
  "eco_notes": string or null
}

"materials" looks like "80% cotton, 20% polyester"; "origin" like "Made in Portugal".
Do NOT wrap the JSON in backticks. Only output the JSON object.`

const explainSystemPrompt = `You explain sustainability scores for clothing in clear, non-technical
language. A score runs from 0 to 100 (higher is better) with a grade from A
(lowest impact) to F (highest impact). Summarise in 2-3 short sentences why the
item likely received its score. Focus on materials, certifications and origin.
Do not mention algorithms or that a model produced the score.`

const explainPrompt = `Score details:
- Score: %d/100
- Grade: %s
- Materials: %s
- Origin: %s
- Certifications: %s
- Product: %s
- Brand: %s
- Flags: %s

Write a short explanation (2-3 sentences) for a shopper.`

const styleSystemPrompt = `You describe a shopper's clothing style from their recent scans in one
sentence of at most 25 words. No preamble.`

const stylePrompt = `Recent scans (product, brand, material):
%s

Describe this shopper's style.`
