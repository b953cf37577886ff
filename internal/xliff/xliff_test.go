package xliff_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valpere/batchtran/internal/xliff"
)

const sampleSDLXLIFF = `<?xml version="1.0" encoding="utf-8"?>
<xliff xmlns="urn:oasis:names:tc:xliff:document:1.2" xmlns:sdl="http://sdl.com/FileTypes/SdlXliff/1.0" version="1.2">
  <file original="doc.docx" source-language="zh-CN" target-language="en-US">
    <header>
      <sdl:ref-files>
        <sdl:ref-file uid="0" id="ref1"/>
      </sdl:ref-files>
    </header>
    <body>
      <trans-unit id="tu-1">
        <source>焦炉装煤系统</source>
      </trans-unit>
      <trans-unit id="tu-2">
        <source>热回收 <g id="g1">炼焦</g> 工艺</source>
        <target>Heat recovery coking process</target>
      </trans-unit>
      <trans-unit id="tu-3">
        <source>   </source>
      </trans-unit>
    </body>
  </file>
</xliff>`

const samplePlainXLIFF = `<?xml version="1.0" encoding="utf-8"?>
<root>
  <trans-unit id="p1">
    <source>First plain segment</source>
  </trans-unit>
  <trans-unit id="p2">
    <source>Second plain segment</source>
    <target></target>
  </trans-unit>
</root>`

func TestParseBytes_Malformed(t *testing.T) {
	_, err := xliff.ParseBytes([]byte("<xliff><unclosed>"))
	if err == nil {
		t.Fatal("expected error for malformed document")
	}
}

func TestParse_MissingFile(t *testing.T) {
	_, err := xliff.Parse(filepath.Join(t.TempDir(), "nope.sdlxliff"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFindUnits_PrimaryDialect(t *testing.T) {
	doc, err := xliff.ParseBytes([]byte(sampleSDLXLIFF))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	units, dialect := doc.FindUnits()
	if dialect != xliff.DialectXLIFF12 {
		t.Fatalf("expected xliff-1.2 dialect, got %s", dialect)
	}
	if len(units) != 3 {
		t.Fatalf("expected 3 units, got %d", len(units))
	}

	if units[0].ID != "tu-1" || units[1].ID != "tu-2" || units[2].ID != "tu-3" {
		t.Errorf("unexpected unit ids: %s, %s, %s", units[0].ID, units[1].ID, units[2].ID)
	}
	if units[0].HasTarget() {
		t.Error("tu-1 should have no target")
	}
	if !units[1].HasTarget() {
		t.Error("tu-2 should have a target")
	}
	if got := units[1].TargetText(); got != "Heat recovery coking process" {
		t.Errorf("unexpected target text: %q", got)
	}
}

func TestFindUnits_InlineMarkupConcatenated(t *testing.T) {
	doc, err := xliff.ParseBytes([]byte(sampleSDLXLIFF))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	units, _ := doc.FindUnits()

	// Text fragments around the inline <g> element are concatenated.
	if got := units[1].SourceText(); got != "热回收 炼焦 工艺" {
		t.Errorf("unexpected source text: %q", got)
	}
}

func TestFindUnits_FallbackDialect(t *testing.T) {
	doc, err := xliff.ParseBytes([]byte(samplePlainXLIFF))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	units, dialect := doc.FindUnits()
	if dialect != xliff.DialectPlain {
		t.Fatalf("expected plain dialect, got %s", dialect)
	}
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}
}

func TestFindUnits_PrimaryWinsOverFallback(t *testing.T) {
	// One namespaced unit and one bare unit: the fallback must not run, so
	// only the namespaced unit is returned.
	mixed := `<?xml version="1.0" encoding="utf-8"?>
<root>
  <wrap xmlns="urn:oasis:names:tc:xliff:document:1.2">
    <trans-unit id="ns-1">
      <source>namespaced</source>
    </trans-unit>
  </wrap>
  <trans-unit id="bare-1">
    <source>bare</source>
  </trans-unit>
</root>`
	doc, err := xliff.ParseBytes([]byte(mixed))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	units, dialect := doc.FindUnits()
	if dialect != xliff.DialectXLIFF12 {
		t.Fatalf("expected xliff-1.2 dialect, got %s", dialect)
	}
	if len(units) != 1 || units[0].ID != "ns-1" {
		t.Fatalf("expected only the namespaced unit, got %d units", len(units))
	}
}

func TestFindUnits_NoUnits(t *testing.T) {
	doc, err := xliff.ParseBytes([]byte(`<?xml version="1.0"?><root><other/></root>`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	units, dialect := doc.FindUnits()
	if dialect != xliff.DialectNone || len(units) != 0 {
		t.Errorf("expected no units, got %d (%s)", len(units), dialect)
	}
}

func TestSetTarget_CreatesAfterSource(t *testing.T) {
	doc, err := xliff.ParseBytes([]byte(sampleSDLXLIFF))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	units, _ := doc.FindUnits()

	units[0].SetTarget("Coke oven coal charging system")

	var buf bytes.Buffer
	if err := doc.WriteTo(&buf); err != nil {
		t.Fatalf("serialize failed: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "</source><target>Coke oven coal charging system</target>") {
		t.Errorf("target not placed directly after source:\n%s", out)
	}
}

func TestSetTarget_OverwritesExisting(t *testing.T) {
	doc, err := xliff.ParseBytes([]byte(sampleSDLXLIFF))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	units, _ := doc.FindUnits()

	units[1].SetTarget("New translation")
	if got := units[1].TargetText(); got != "New translation" {
		t.Errorf("expected overwritten target, got %q", got)
	}

	var buf bytes.Buffer
	if err := doc.WriteTo(&buf); err != nil {
		t.Fatalf("serialize failed: %v", err)
	}
	if strings.Contains(buf.String(), "Heat recovery coking process") {
		t.Error("old target text still present after overwrite")
	}
}

func TestWriteTo_PreservesUntouchedDocument(t *testing.T) {
	doc, err := xliff.ParseBytes([]byte(sampleSDLXLIFF))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	var buf bytes.Buffer
	if err := doc.WriteTo(&buf); err != nil {
		t.Fatalf("serialize failed: %v", err)
	}

	if got := buf.String(); got != sampleSDLXLIFF {
		t.Errorf("round-trip altered the document:\n--- in ---\n%s\n--- out ---\n%s", sampleSDLXLIFF, got)
	}
}

func TestWriteTo_AddsDeclarationWhenAbsent(t *testing.T) {
	doc, err := xliff.ParseBytes([]byte(`<root><trans-unit id="1"><source>x</source></trans-unit></root>`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	var buf bytes.Buffer
	if err := doc.WriteTo(&buf); err != nil {
		t.Fatalf("serialize failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "<?xml ") {
		t.Errorf("expected XML declaration, got %q", buf.String()[:20])
	}
}

func TestSerialize_WritesFile(t *testing.T) {
	doc, err := xliff.ParseBytes([]byte(sampleSDLXLIFF))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	out := filepath.Join(t.TempDir(), "out.sdlxliff")
	if err := doc.Serialize(out); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if string(data) != sampleSDLXLIFF {
		t.Error("serialized file differs from source document")
	}
}
