package chat

import "strings"

// streamFilter forwards completion chunks to a callback while withholding
// tag lines. Text streams through freely until the current line starts with
// "[" (a potential tag); from then on the line is buffered and only emitted
// once it completes without containing a tag marker. The filtered stream is
// advisory; callers send the authoritative clean text when the reply is done.
type streamFilter struct {
	emit    func(string)
	line    strings.Builder // current line so far
	emitted int             // bytes of the current line already emitted
}

func newStreamFilter(emit func(string)) *streamFilter {
	return &streamFilter{emit: emit}
}

// Write consumes one chunk from the stream.
func (f *streamFilter) Write(chunk string) {
	for {
		i := strings.IndexByte(chunk, '\n')
		if i < 0 {
			f.line.WriteString(chunk)
			f.emitPartial()
			return
		}
		f.line.WriteString(chunk[:i])
		f.finishLine("\n")
		chunk = chunk[i+1:]
	}
}

// Flush completes a trailing line that arrived without a newline.
func (f *streamFilter) Flush() {
	if f.line.Len() > 0 {
		f.finishLine("")
	}
}

func (f *streamFilter) emitPartial() {
	line := f.line.String()
	if f.held(line) {
		return
	}
	if len(line) > f.emitted {
		f.emit(line[f.emitted:])
		f.emitted = len(line)
	}
}

func (f *streamFilter) finishLine(suffix string) {
	line := f.line.String()
	isTag := strings.Contains(line, rememberMarker) || strings.Contains(line, forgetMarker)
	if !isTag && len(line)+len(suffix) > f.emitted {
		f.emit(line[f.emitted:] + suffix)
	}
	f.line.Reset()
	f.emitted = 0
}

// held reports whether the current partial line must be buffered because it
// may still turn out to be a tag line.
func (f *streamFilter) held(line string) bool {
	if f.emitted > 0 {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(line), "[")
}
