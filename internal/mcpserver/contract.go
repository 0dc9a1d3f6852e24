package mcpserver

// AnnotationFormatContract describes the JSON annotation payload that LLM
// consumers must produce when replacing the annotations of a page.
const AnnotationFormatContract = `# pdfmcr Annotation Format Contract

Every page carries one JSON document with two arrays. Both are always present.

## Structure

` + "```" + `json
{
  "annotations": [ Annotation, ... ],
  "artifacts":   [ { "kind": "Pagination", "annotation": Annotation }, ... ]
}
` + "```" + `

An **Annotation** is one positioned label of text:

| field     | type   | meaning                                                        |
|-----------|--------|----------------------------------------------------------------|
| left      | number | distance of the label origin from the left page edge, points   |
| bottom    | number | distance of the label origin from the bottom page edge, points |
| font_size | number | font size in points, greater than 0                            |
| leading   | number | line height minus font size, points (may be negative)          |
| elements  | array  | text chunks, in reading order                                  |

A **text chunk** (element of ` + "`" + `elements` + "`" + `):

| field             | type           | meaning                                         |
|-------------------|----------------|-------------------------------------------------|
| text              | string         | the text                                        |
| font_variant      | string         | one of Regular, Italic, Bold, BoldItalic        |
| character_spacing | number         | extra space between characters, points          |
| word_spacing      | number         | extra space between words, points               |
| language          | string or null | BCP 47 tag such as "en" or "de-CH"              |
| alternate_text    | string or null | replacement text for assistive technology       |
| actual_text       | string or null | exact text when the glyphs differ from it       |
| expansion         | string or null | expansion of an abbreviation                    |

## Rules

1. **Points, bottom-left origin.** 1 pt = 1/72 inch. Use the page's
   ` + "`" + `width_pt` + "`" + ` and ` + "`" + `height_pt` + "`" + ` from ` + "`" + `get_page` + "`" + ` to stay on the page.
2. **Artifacts** are content that is not part of the document's logical text.
   ` + "`" + `kind` + "`" + ` is one of Pagination, Page, Layout, Background.
3. **Optional strings** are ` + "`" + `null` + "`" + ` when absent, never the empty string.
4. **Numbers** are rounded to whole points by the editor; fractional values
   are accepted.
5. Saving replaces the whole page payload. Read it first with
   ` + "`" + `get_page_annotations` + "`" + ` when adding to existing labels.

## Example

` + "```" + `json
{
  "annotations": [
    {
      "left": 72, "bottom": 720, "font_size": 18, "leading": 4,
      "elements": [
        {"text": "Annual report", "font_variant": "Bold",
         "character_spacing": 0, "word_spacing": 0, "language": "en",
         "alternate_text": null, "actual_text": null, "expansion": null}
      ]
    }
  ],
  "artifacts": [
    {
      "kind": "Pagination",
      "annotation": {
        "left": 297, "bottom": 36, "font_size": 9, "leading": 0,
        "elements": [
          {"text": "3", "font_variant": "Regular",
           "character_spacing": 0, "word_spacing": 0, "language": null,
           "alternate_text": null, "actual_text": null, "expansion": null}
        ]
      }
    }
  ]
}
` + "```" + `

## Page images

Add pages with the ` + "`" + `add_page` + "`" + ` tool. The image must be a JFIF JPEG with a
pixel density in dots per inch or per centimetre; it determines the page size.
`
