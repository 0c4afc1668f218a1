package logger

import (
	"io"
	"regexp"
)

// RedactionMarker replaces every sensitive value before a record is emitted.
const RedactionMarker = "[REDACTED]"

// sensitivePatterns match credential material in rendered log records:
// key/value pairs for API keys, passwords, secrets, access/refresh tokens and
// cloud credential fields, plus bare bearer/basic authorization values.
var sensitivePatterns = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{
		// Authorization schemes first, so "Authorization: Bearer <tok>"
		// keeps the scheme and loses only the credential.
		re:          regexp.MustCompile(`(?i)\b(bearer|basic)\s+[A-Za-z0-9._~+/=-]{4,}`),
		replacement: "$1 " + RedactionMarker,
	},
	{
		re: regexp.MustCompile(`(?i)\b(api[_-]?key|password|passwd|pwd|secret|client[_-]?secret|private[_-]?key|token|access[_-]?token|refresh[_-]?token|session[_-]?token|aws[_-]?access[_-]?key[_-]?id|aws[_-]?secret[_-]?access[_-]?key|aws[_-]?session[_-]?token)\b(\\?["']?\s*[:=]\s*\\?["']?)[^\s\\"',;&}]+`),
		replacement: "$1$2" + RedactionMarker,
	},
}

// Redact replaces every sensitive match in s with the redaction marker.
func Redact(s string) string {
	for _, p := range sensitivePatterns {
		s = p.re.ReplaceAllString(s, p.replacement)
	}
	return s
}

// RedactWriter scrubs rendered log records before they reach the sink.
// The scan runs unconditionally so a misconfigured call site cannot leak
// secrets through any log level.
type RedactWriter struct {
	w io.Writer
}

// NewRedactWriter wraps w with the redaction scan.
func NewRedactWriter(w io.Writer) *RedactWriter {
	return &RedactWriter{w: w}
}

func (rw *RedactWriter) Write(p []byte) (int, error) {
	if _, err := rw.w.Write([]byte(Redact(string(p)))); err != nil {
		return 0, err
	}
	// Report the original length: the redacted record may be shorter and a
	// short write would make zerolog treat the emit as failed.
	return len(p), nil
}
