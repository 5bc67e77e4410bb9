package mcpserver

// ContentFormatContract describes the canonical JSON content document format
// that LLM consumers should follow when creating or updating notes.
const ContentFormatContract = `# Foliant Content Format Contract

Every note's content is a JSON document: a tree of typed block nodes with
inline text leaves.

## Structure

` + "```" + `json
{
  "type": "doc",
  "content": [
    { "type": "heading", "attrs": { "level": 1 },
      "content": [ { "type": "text", "text": "Document title" } ] },
    { "type": "paragraph",
      "content": [ { "type": "text", "text": "Body text." } ] }
  ]
}
` + "```" + `

## Block types

| type        | attrs                          | children            |
|-------------|--------------------------------|---------------------|
| doc         | —                              | any blocks          |
| heading     | level (1-6, default 1)         | text leaves         |
| paragraph   | —                              | text leaves         |
| bulletList  | —                              | listItem            |
| orderedList | —                              | listItem            |
| listItem    | —                              | paragraph, lists    |
| codeBlock   | language (optional hint)       | text leaves         |
| table       | —                              | rows (opaque)       |
| image       | attachmentId (required)        | —                   |
| audio       | attachmentId (required)        | —                   |
| text        | —                              | — (carries "text")  |

## Rules

1. The root node has type "doc".
2. Start the document with a level-1 heading: it becomes the note's title.
3. Headings define the outline; search results reference their text, so keep
   them descriptive. Do not skip levels without reason.
4. Plain prose goes in paragraph blocks; one paragraph per idea.
5. image and audio blocks reference uploaded attachments by id. Never invent
   attachment ids.
6. Text formatting marks are not part of this contract; use plain text leaves.

## Example

` + "```" + `json
{
  "type": "doc",
  "content": [
    { "type": "heading", "attrs": { "level": 1 },
      "content": [ { "type": "text", "text": "Weekly standup" } ] },
    { "type": "heading", "attrs": { "level": 2 },
      "content": [ { "type": "text", "text": "Action items" } ] },
    { "type": "bulletList", "content": [
      { "type": "listItem", "content": [
        { "type": "paragraph", "content": [
          { "type": "text", "text": "Alice to review the design doc" } ] } ] }
    ] }
  ]
}
` + "```" + `
`
