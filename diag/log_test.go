package diag

import "testing"

func TestLogAppendOrder(t *testing.T) {
	var log Log
	log.Appendf(CodeMissingData, "missing %d months", 2)
	log.Appendf(CodeAnomalies, "anomaly in %s", "2023-04")

	msgs := log.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Code != CodeMissingData || msgs[1].Code != CodeAnomalies {
		t.Errorf("messages out of order: %v", msgs)
	}
	if got := msgs[0].String(); got != "note_004: missing 2 months" {
		t.Errorf("unexpected rendering: %q", got)
	}
	if !log.HasCode(CodeAnomalies) || log.HasCode(CodeWithZeros) {
		t.Error("HasCode mismatch")
	}
}

func TestLogAppendOncef(t *testing.T) {
	var log Log
	log.AppendOncef(CodeDegreeDayGaps, "reference %s incomplete", "hdd10")
	log.AppendOncef(CodeDegreeDayGaps, "reference %s incomplete", "hdd10")
	log.AppendOncef(CodeDegreeDayGaps, "reference %s incomplete", "hdd15")

	if log.Len() != 2 {
		t.Errorf("expected 2 distinct messages, got %d", log.Len())
	}
}

func TestLogCopySafety(t *testing.T) {
	var log Log
	log.Appendf(CodeNote, "first")
	msgs := log.Messages()
	msgs[0].Text = "mutated"
	if log.Messages()[0].Text != "first" {
		t.Error("Messages must return a copy")
	}
}
