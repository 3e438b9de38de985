package engrave

import "testing"

func TestEnumNamesRoundTrip(t *testing.T) {
	for _, k := range []Kind{KindArt, KindText} {
		if got, ok := ParseKind(k.String()); !ok || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k, got, ok)
		}
	}
	for _, f := range []FinishVariant{FinishFlush, FinishEtched, FinishRaised} {
		if got, ok := ParseFinish(f.String()); !ok || got != f {
			t.Errorf("ParseFinish(%q) = %v, %v", f, got, ok)
		}
	}
	for _, a := range []Alignment{AlignLeft, AlignCenter, AlignRight} {
		if got, ok := ParseAlignment(a.String()); !ok || got != a {
			t.Errorf("ParseAlignment(%q) = %v, %v", a, got, ok)
		}
	}

	if _, ok := ParseFinish("polished"); ok {
		t.Error("ParseFinish accepted an unknown name")
	}
	if Kind(9).String() != "unknown" {
		t.Errorf("Kind(9) = %q", Kind(9))
	}
}

func TestDecorationFinish(t *testing.T) {
	art := Decoration{Kind: KindArt, Art: &ArtPayload{}}
	if art.Finish() != FinishFlush {
		t.Errorf("art finish = %v, want flush", art.Finish())
	}
	if art.Attached() {
		t.Error("decoration without host reports attached")
	}

	text := Decoration{Kind: KindText, HostID: "h", Text: &TextPayload{Finish: FinishRaised}}
	if text.Finish() != FinishRaised {
		t.Errorf("text finish = %v, want raised", text.Finish())
	}
	if !text.Attached() {
		t.Error("decoration with host reports detached")
	}
}
