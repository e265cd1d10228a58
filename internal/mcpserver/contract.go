package mcpserver

// PlaceholderSyntax describes how templates reference fields and how those
// fields are resolved against an analysis document.
const PlaceholderSyntax = `# docfill Placeholder Syntax

Templates are plain UTF-8 text files. A field is written as its name in
square brackets.

## Fields

` + "```" + `text
Dear [CLIENT_NAME],

Thank you for your order of [ORDER_DATE].
` + "```" + `

1. **A field is ` + "`" + `[` + "`" + ` + name + ` + "`" + `]` + "`" + `.** The first ` + "`" + `]` + "`" + ` after a ` + "`" + `[` + "`" + ` closes it.
   There is no escaping and no nesting.
2. **Empty brackets** (` + "`" + `[]` + "`" + `) are not fields and are left as they are.
3. **A field may repeat.** Every occurrence receives the same value.
4. **Unknown text in brackets** is still a field; name fields in
   UPPER_SNAKE_CASE to keep them apart from ordinary bracketed prose.

## Resolution

The analysis document (JSON or YAML, optionally inside a Markdown code
fence) is flattened into a table of keys:

- nested keys are joined with ` + "`" + `_` + "`" + ` (` + "`" + `client.name` + "`" + ` becomes ` + "`" + `client_name` + "`" + `);
- lists of strings are joined with ` + "`" + `, ` + "`" + `;
- in other lists, objects are keyed by their index (` + "`" + `items_0_price` + "`" + `) and
  everything else is dropped;
- null becomes the empty string.

Each field then takes the value of:

1. the key with exactly the field's name, otherwise
2. the first key (in document order) that contains the field's name,
   compared case-insensitively, otherwise
3. the empty string.

Values passed to ` + "`" + `render_template` + "`" + ` override the resolved value per field,
even when the override is empty.

## Rendering

Rendering is a single pass: text inserted for a field is never scanned for
further fields. Fields rendered as empty text are reported as ` + "`" + `unfilled` + "`" + `.
`
