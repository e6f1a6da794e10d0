// Package diag provides the ordered diagnostic message log shared by the
// modeling pipeline. Every fallback, imputation and correction decision made
// during training appends a coded message here so the caller can reconstruct
// the exact path taken.
package diag

import "fmt"

// Stable message codes. The numeric codes mirror the reporting contract of
// the legacy reference algorithm and must not be renumbered.
const (
	CodeNoReferenceData     = "note_000"
	CodeTooFewObservations  = "note_001"
	CodeAnnualReference     = "note_annual_ref"
	CodeHighMissingFraction = "note_003"
	CodeMissingData         = "note_004"
	CodeAnomalies           = "note_005"
	CodeWithoutZeros        = "note_006"
	CodeWithZeros           = "note_007"
	CodeBestOutcome         = "note_008"
	CodeNoUsageFactors      = "note_012"
	CodeNote                = "note"
	CodeDebug               = "debug"

	CodePredWindowTooWide = "error_000"
	CodeDegreeDayRefEmpty = "error_008"
	CodeDegreeDayGaps     = "error_009"
	CodeAllDegreeDaysLost = "error_010"
	CodeInvoicesMissing   = "error_014"
)

// Message is a single coded diagnostic entry.
type Message struct {
	Code string
	Text string
}

// String renders the message in the "code: text" form used by reports.
func (m Message) String() string {
	return m.Code + ": " + m.Text
}

// Log is an append-only ordered collection of diagnostic messages. The zero
// value is ready to use. Log is not safe for concurrent use; each training
// pair owns its own Log.
type Log struct {
	msgs []Message
}

// Appendf formats and appends a message with the given code.
func (l *Log) Appendf(code, format string, args ...any) {
	l.msgs = append(l.msgs, Message{Code: code, Text: fmt.Sprintf(format, args...)})
}

// AppendOncef appends the message only if an identical entry is not already
// present. Used by preprocessing steps that may revisit the same condition.
func (l *Log) AppendOncef(code, format string, args ...any) {
	m := Message{Code: code, Text: fmt.Sprintf(format, args...)}
	for _, existing := range l.msgs {
		if existing == m {
			return
		}
	}
	l.msgs = append(l.msgs, m)
}

// Messages returns a copy of the accumulated messages in append order.
func (l *Log) Messages() []Message {
	out := make([]Message, len(l.msgs))
	copy(out, l.msgs)
	return out
}

// Strings returns the rendered messages in append order.
func (l *Log) Strings() []string {
	out := make([]string, len(l.msgs))
	for i, m := range l.msgs {
		out[i] = m.String()
	}
	return out
}

// Len returns the number of accumulated messages.
func (l *Log) Len() int {
	return len(l.msgs)
}

// HasCode reports whether any message with the given code was appended.
func (l *Log) HasCode(code string) bool {
	for _, m := range l.msgs {
		if m.Code == code {
			return true
		}
	}
	return false
}
