package placeholder

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScan_DedupKeepsFirstOccurrence(t *testing.T) {
	got := Scan("[A] and [B] and [A]")
	if diff := cmp.Diff([]string{"A", "B"}, got); diff != "" {
		t.Errorf("Scan mismatch (-want +got):\n%s", diff)
	}
}

func TestScan_EmptyNamesSkipped(t *testing.T) {
	got := Scan("[] x [NAME] []")
	if diff := cmp.Diff([]string{"NAME"}, got); diff != "" {
		t.Errorf("Scan mismatch (-want +got):\n%s", diff)
	}
}

func TestScan_UnmatchedBracketStops(t *testing.T) {
	got := Scan("[A] then [B and [C]")
	// "[B and [C]" is one field: the inner "[" is not special.
	if diff := cmp.Diff([]string{"A", "B and [C"}, got); diff != "" {
		t.Errorf("Scan mismatch (-want +got):\n%s", diff)
	}

	got = Scan("[A] trailing [open")
	if diff := cmp.Diff([]string{"A"}, got); diff != "" {
		t.Errorf("Scan mismatch (-want +got):\n%s", diff)
	}
}

func TestScan_NoFields(t *testing.T) {
	if got := Scan("plain text ] with stray ]"); len(got) != 0 {
		t.Errorf("Scan = %v, want none", got)
	}
	if got := Scan(""); len(got) != 0 {
		t.Errorf("Scan(\"\") = %v, want none", got)
	}
}

func TestScan_MultiLine(t *testing.T) {
	text := "Dear [CLIENT_NAME],\n\nInvoice [INVOICE_NO] dated [DATE].\nRegards,\n[SENDER]\n[CLIENT_NAME]"
	want := []string{"CLIENT_NAME", "INVOICE_NO", "DATE", "SENDER"}
	if diff := cmp.Diff(want, Scan(text)); diff != "" {
		t.Errorf("Scan mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_EmptyValuesUnchanged(t *testing.T) {
	text := "Dear [NAME], see [REF]."
	if got := Render(text, nil); got != text {
		t.Errorf("Render(nil) = %q, want %q", got, text)
	}
	if got := Render(text, map[string]string{}); got != text {
		t.Errorf("Render({}) = %q, want %q", got, text)
	}
}

func TestRender_ReplacesAllOccurrences(t *testing.T) {
	got := Render("Dear [NAME], thanks [NAME]!", map[string]string{"NAME": "Bob"})
	if got != "Dear Bob, thanks Bob!" {
		t.Errorf("Render = %q", got)
	}
}

func TestRender_MissingFieldsLeftLiteral(t *testing.T) {
	got := Render("[A] [B]", map[string]string{"A": "x"})
	if got != "x [B]" {
		t.Errorf("Render = %q, want %q", got, "x [B]")
	}
}

func TestRender_ExplicitEmptyValue(t *testing.T) {
	got := Render("a[A]b", map[string]string{"A": ""})
	if got != "ab" {
		t.Errorf("Render = %q, want %q", got, "ab")
	}
}

func TestRender_ValuesAreNotReexpanded(t *testing.T) {
	values := map[string]string{"A": "[B]", "B": "bee"}
	got := Render("[A] [B]", values)
	if got != "[B] bee" {
		t.Errorf("Render = %q, want %q", got, "[B] bee")
	}
}

func TestRender_RoundTripFromScan(t *testing.T) {
	text := "Dear [NAME],\nYour order [ORDER] ships to [CITY]. [NAME], thank you."
	values := map[string]string{}
	for i, f := range Scan(text) {
		values[f] = string(rune('a' + i))
	}
	got := Render(text, values)
	if left := Scan(got); len(left) != 0 {
		t.Fatalf("fields %v still present in %q", left, got)
	}
	if got != "Dear a,\nYour order b ships to c. a, thank you." {
		t.Errorf("Render = %q", got)
	}
}

func TestUnfilled(t *testing.T) {
	got := Unfilled("[A] [B] [C] [A]", map[string]string{"B": ""})
	if diff := cmp.Diff([]string{"A", "C"}, got); diff != "" {
		t.Errorf("Unfilled mismatch (-want +got):\n%s", diff)
	}
}

func TestToken(t *testing.T) {
	if got := Token("NAME"); got != "[NAME]" {
		t.Errorf("Token = %q", got)
	}
}
