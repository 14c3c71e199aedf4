package marker

import (
	"testing"

	statex "github.com/nattavee/homecall/agent/state"
)

func TestParseIntakeDirective(t *testing.T) {
	t.Parallel()

	res, clean := Parse("All set! [STATE: ready_to_search, missing: none]")
	if res.Intake == nil {
		t.Fatalf("expected intake directive, got %+v", res)
	}
	if res.Intake.State != statex.AgentReadyToSearch {
		t.Fatalf("unexpected state: %s", res.Intake.State)
	}
	if res.Intake.Missing != statex.MissingNone {
		t.Fatalf("unexpected missing: %s", res.Intake.Missing)
	}
	if clean != "All set!" {
		t.Fatalf("unexpected clean text: %q", clean)
	}
}

func TestParseDispatchDirective(t *testing.T) {
	t.Parallel()

	res, clean := Parse("Searching for plumbers near you... [DISPATCH_STATE: searching]")
	if res.Dispatch == nil {
		t.Fatalf("expected dispatch directive, got %+v", res)
	}
	if res.Dispatch.State != statex.DispatchSearching {
		t.Fatalf("unexpected state: %s", res.Dispatch.State)
	}
	if clean != "Searching for plumbers near you..." {
		t.Fatalf("unexpected clean text: %q", clean)
	}
}

func TestParseCaseInsensitive(t *testing.T) {
	t.Parallel()

	res, _ := Parse("ok [State: Needs_Clarification, Missing: LOCATION]")
	if res.Intake == nil {
		t.Fatalf("expected intake directive")
	}
	if res.Intake.State != statex.AgentNeedsClarification || res.Intake.Missing != statex.MissingLocation {
		t.Fatalf("unexpected directive: %+v", res.Intake)
	}

	res, _ = Parse("[dispatch_state: NO_PROVIDERS]")
	if res.Dispatch == nil || res.Dispatch.State != statex.DispatchNoProviders {
		t.Fatalf("unexpected directive: %+v", res.Dispatch)
	}
}

func TestParseNoMarkerReturnsTextUnchanged(t *testing.T) {
	t.Parallel()

	in := "  hello, I need a plumber  "
	res, clean := Parse(in)
	if res.Found() {
		t.Fatalf("expected no directive, got %+v", res)
	}
	if clean != in {
		t.Fatalf("text changed: %q", clean)
	}
}

func TestParseMalformedMarkerTreatedAsAbsent(t *testing.T) {
	t.Parallel()

	cases := []string{
		"done [STATE: ready_to_search]",                       // missing field
		"done [STATE: ready, missing: none]",                  // unknown keyword
		"done [DISPATCH_STATE: cancelled]",                    // unknown keyword
		"done [STATE ready_to_search, missing: none]",         // missing colon
		"done [DISPATCHSTATE: searching]",                     // wrong tag
		"done [STATE: ready_to_search, missing: everything]",  // unknown missing
	}
	for _, in := range cases {
		res, clean := Parse(in)
		if res.Found() {
			t.Fatalf("input %q: expected no directive, got %+v", in, res)
		}
		if clean != in {
			t.Fatalf("input %q: malformed marker was stripped: %q", in, clean)
		}
	}
}

func TestParseFirstMatchWins(t *testing.T) {
	t.Parallel()

	in := "[DISPATCH_STATE: recommending] then [STATE: ready_to_search, missing: none]"
	res, clean := Parse(in)
	if res.Dispatch == nil || res.Dispatch.State != statex.DispatchRecommending {
		t.Fatalf("expected leftmost dispatch directive, got %+v", res)
	}
	if clean != "then [STATE: ready_to_search, missing: none]" {
		t.Fatalf("unexpected clean text: %q", clean)
	}

	in = "[STATE: needs_clarification, missing: issue] and [DISPATCH_STATE: searching]"
	res, clean = Parse(in)
	if res.Intake == nil || res.Intake.Missing != statex.MissingIssue {
		t.Fatalf("expected leftmost intake directive, got %+v", res)
	}
	if clean != "and [DISPATCH_STATE: searching]" {
		t.Fatalf("unexpected clean text: %q", clean)
	}
}

func TestParseIdempotentOnStrippedText(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"Got it, searching now. [DISPATCH_STATE: searching]",
		"What's the address? [STATE: needs_clarification, missing: location]",
	}
	for _, in := range inputs {
		res, clean := Parse(in)
		if !res.Found() {
			t.Fatalf("input %q: expected a directive", in)
		}
		res2, clean2 := Parse(clean)
		if res2.Found() {
			t.Fatalf("second parse found a directive in %q", clean)
		}
		if clean2 != clean {
			t.Fatalf("second parse changed text: %q -> %q", clean, clean2)
		}
	}
}

func TestParseMarkerInsideWhitespace(t *testing.T) {
	t.Parallel()

	_, clean := Parse("On my way.   [DISPATCH_STATE: dispatched]  \n")
	if clean != "On my way." {
		t.Fatalf("unexpected clean text: %q", clean)
	}
}
