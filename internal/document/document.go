// Package document builds the declarative, renderer-agnostic description of
// a voucher. The render service consumes the JSON form of Document and
// returns the final PDF bytes; nothing in here knows about page geometry.
package document

// Document is the root of the description tree
type Document struct {
	Title    string    `json:"title"`
	Code     string    `json:"code"`
	Logo     *Image    `json:"logo,omitempty"`
	Sections []Section `json:"sections"`
}

// Image is an embedded binary asset
type Image struct {
	Name string `json:"name"`
	MIME string `json:"mime"`
	Data []byte `json:"data"`
}

// Section is one titled region of the document. Exactly one of Lines,
// Table or KeyValues is normally populated.
type Section struct {
	Title     string     `json:"title,omitempty"`
	Style     *Style     `json:"style,omitempty"`
	Lines     []Text     `json:"lines,omitempty"`
	Table     *Table     `json:"table,omitempty"`
	KeyValues []KeyValue `json:"key_values,omitempty"`
}

// Text is a styled line of text
type Text struct {
	Value string `json:"value"`
	Style *Style `json:"style,omitempty"`
}

// KeyValue is a labeled value in a summary grid
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Style *Style `json:"style,omitempty"`
}

// Table holds a header row plus data rows; Widths are relative column
// weights interpreted by the renderer.
type Table struct {
	Header      []string   `json:"header"`
	Widths      []int      `json:"widths,omitempty"`
	Rows        [][]string `json:"rows"`
	HeaderStyle *Style     `json:"header_style,omitempty"`
}

// Style carries presentation hints for the renderer
type Style struct {
	Bold      bool   `json:"bold,omitempty"`
	FontSize  int    `json:"font_size,omitempty"`
	Color     string `json:"color,omitempty"`
	FillColor string `json:"fill_color,omitempty"`
	Alignment string `json:"alignment,omitempty"`
}
