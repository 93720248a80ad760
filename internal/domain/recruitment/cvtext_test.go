package recruitment

import (
	"archive/zip"
	"bytes"
	"testing"

	qt "github.com/frankban/quicktest"
)

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractCVTextDocx(t *testing.T) {
	c := qt.New(t)
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Ada Obi</w:t></w:r></w:p>
    <w:p><w:r><w:t>Kubernetes</w:t></w:r><w:r><w:tab/><w:t xml:space="preserve">and Golang</w:t></w:r></w:p>
  </w:body>
</w:document>`
	text, err := ExtractCVText("Ada-CV.DOCX", buildDocx(t, doc))
	c.Assert(err, qt.IsNil)
	c.Assert(text, qt.Equals, "Ada Obi\nKubernetes and Golang")
}

func TestExtractCVTextTxt(t *testing.T) {
	c := qt.New(t)
	text, err := ExtractCVText("cv.txt", []byte("  PostgreSQL tuning\n"))
	c.Assert(err, qt.IsNil)
	c.Assert(text, qt.Equals, "PostgreSQL tuning")
}

func TestExtractCVTextErrors(t *testing.T) {
	c := qt.New(t)
	_, err := ExtractCVText("cv.odt", []byte("x"))
	c.Assert(err, qt.Equals, ErrUnsupportedCV)

	_, err = ExtractCVText("cv.pdf", []byte("not a pdf"))
	c.Assert(err, qt.IsNotNil)

	_, err = ExtractCVText("cv.docx", []byte("not a zip"))
	c.Assert(err, qt.IsNotNil)

	_, err = ExtractCVText("cv.docx", buildDocx(t, "<w:document"))
	c.Assert(err, qt.IsNotNil)
}
