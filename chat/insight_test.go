package chat

import "testing"

func TestExtractInsightNoFragment(t *testing.T) {
	raw := "Just a plain reply with no structured content."
	display, insight := ExtractInsight(raw)
	if display != raw {
		t.Errorf("display changed: got %q", display)
	}
	if insight != "" {
		t.Errorf("expected empty insight, got %q", insight)
	}
}

func TestExtractInsightFragmentPresent(t *testing.T) {
	raw := `Here is my answer.

{"PsychologicalInsight": {"mood": "curious", "confidence": 0.8}}`
	display, insight := ExtractInsight(raw)
	if display != "Here is my answer." {
		t.Errorf("unexpected display: %q", display)
	}
	if insight != `{"PsychologicalInsight": {"mood": "curious", "confidence": 0.8}}` {
		t.Errorf("unexpected insight: %q", insight)
	}
}

func TestExtractInsightGreedySpan(t *testing.T) {
	// Two braced fragments around the tag collapse into one greedy match
	// from the first opening brace to the last closing brace.
	raw := `prefix {"a": 1} middle {"PsychologicalInsight": "x"} suffix {"b": 2} end`
	display, insight := ExtractInsight(raw)
	want := `{"a": 1} middle {"PsychologicalInsight": "x"} suffix {"b": 2}`
	if insight != want {
		t.Errorf("insight = %q, want %q", insight, want)
	}
	if display != "prefix  end" {
		t.Errorf("display = %q", display)
	}
}

func TestExtractInsightMultiline(t *testing.T) {
	raw := "Reply text.\n{\n  \"PsychologicalInsight\": {\n    \"note\": \"spans lines\"\n  }\n}"
	display, insight := ExtractInsight(raw)
	if display != "Reply text." {
		t.Errorf("display = %q", display)
	}
	if insight == "" {
		t.Error("expected a multi-line fragment to match")
	}
}

func TestExtractInsightWholeReplyIsFragment(t *testing.T) {
	raw := `{"PsychologicalInsight": "only"}`
	display, insight := ExtractInsight(raw)
	if display != "" {
		t.Errorf("display = %q, want empty", display)
	}
	if insight != raw {
		t.Errorf("insight = %q, want whole reply", insight)
	}
}

func TestExtractInsightTagWithoutBraces(t *testing.T) {
	raw := `The phrase "PsychologicalInsight" appears but no braces surround it.`
	display, insight := ExtractInsight(raw)
	if insight != "" {
		t.Errorf("expected no match, got %q", insight)
	}
	if display != raw {
		t.Errorf("display changed: %q", display)
	}
}
