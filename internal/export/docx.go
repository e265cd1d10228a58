package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
</Relationships>`

type docxDocument struct {
	XMLName xml.Name `xml:"w:document"`
	NS      string   `xml:"xmlns:w,attr"`
	Body    docxBody `xml:"w:body"`
}

type docxBody struct {
	Paragraphs []docxParagraph `xml:"w:p"`
	Section    docxSection     `xml:"w:sectPr"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"w:r,omitempty"`
}

// docxRun holds either a text piece or a tab.
type docxRun struct {
	Text *docxText `xml:"w:t,omitempty"`
	Tab  *docxTab  `xml:"w:tab,omitempty"`
}

type docxTab struct{}

type docxText struct {
	Space string `xml:"xml:space,attr,omitempty"`
	Value string `xml:",chardata"`
}

type docxSection struct {
	PageSize docxPageSize `xml:"w:pgSz"`
	Margins  docxMargins  `xml:"w:pgMar"`
}

// Twentieths of a point: US Letter with one inch margins.
type docxPageSize struct {
	W int `xml:"w:w,attr"`
	H int `xml:"w:h,attr"`
}

type docxMargins struct {
	Top    int `xml:"w:top,attr"`
	Right  int `xml:"w:right,attr"`
	Bottom int `xml:"w:bottom,attr"`
	Left   int `xml:"w:left,attr"`
}

// EncodeDOCX writes a word-processing package with one paragraph per line of
// text, empty lines included. It returns the paragraph count.
func EncodeDOCX(w io.Writer, text string) (int, error) {
	segments := lines(text)
	doc := docxDocument{
		NS: wordNS,
		Body: docxBody{
			Paragraphs: make([]docxParagraph, len(segments)),
			Section: docxSection{
				PageSize: docxPageSize{W: 12240, H: 15840},
				Margins:  docxMargins{Top: 1440, Right: 1440, Bottom: 1440, Left: 1440},
			},
		},
	}
	for i, s := range segments {
		doc.Body.Paragraphs[i].Runs = runs(s)
	}

	body, err := xml.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("docx: marshal document: %w", err)
	}

	zw := zip.NewWriter(w)
	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(rootRelsXML)},
		{"word/_rels/document.xml.rels", []byte(documentRelsXML)},
		{"word/document.xml", append([]byte(xml.Header), body...)},
	}
	for _, p := range parts {
		fw, err := zw.Create(p.name)
		if err != nil {
			return 0, fmt.Errorf("docx: create %s: %w", p.name, err)
		}
		if _, err := fw.Write(p.data); err != nil {
			return 0, fmt.Errorf("docx: write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("docx: close: %w", err)
	}
	return len(segments), nil
}

// runs splits a line on tabs into text runs separated by tab runs.
func runs(line string) []docxRun {
	var out []docxRun
	for i, piece := range strings.Split(line, "\t") {
		if i > 0 {
			out = append(out, docxRun{Tab: &docxTab{}})
		}
		if piece == "" {
			continue
		}
		t := &docxText{Value: piece}
		if strings.TrimSpace(piece) != piece {
			t.Space = "preserve"
		}
		out = append(out, docxRun{Text: t})
	}
	return out
}

// ReadDOCXText returns the paragraphs of a DOCX package joined by "\n".
// Tabs become "\t" and in-paragraph breaks become "\n".
func ReadDOCXText(r io.ReaderAt, size int64) (string, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("docx: open: %w", err)
	}
	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("docx: word/document.xml not found")
	}
	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("docx: open document: %w", err)
	}
	defer rc.Close()

	var (
		paras []string
		cur   strings.Builder
		inP   bool
		inT   bool
	)
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("docx: parse document: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "p":
				inP = true
				cur.Reset()
			case "t":
				inT = true
			case "tab":
				if inP {
					cur.WriteByte('\t')
				}
			case "br", "cr":
				if inP {
					cur.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "p":
				paras = append(paras, cur.String())
				inP = false
			case "t":
				inT = false
			}
		case xml.CharData:
			if inT {
				cur.Write(el)
			}
		}
	}
	return strings.Join(paras, "\n"), nil
}

// DOCXText is ReadDOCXText over an in-memory package.
func DOCXText(data []byte) (string, error) {
	return ReadDOCXText(bytes.NewReader(data), int64(len(data)))
}
