package models

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	dataPrefix   = "data: "
	doneMarker   = "[DONE]"
	maxLineBytes = 1 << 20
)

// Chunk is one decoded "data:" payload of a completion stream.
type Chunk struct {
	ID      string
	Content string
}

// Chunks decodes a stream line by line. Lines without the data prefix,
// the [DONE] marker, payloads that are not valid JSON objects and lines
// longer than maxLineBytes are skipped. A trailing line without a newline
// is still decoded. A read failure is yielded once as the last element.
func Chunks(r io.Reader) iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		br := bufio.NewReaderSize(r, 64*1024)
		for {
			line, oversized, err := readLine(br, maxLineBytes)
			if oversized {
				slog.Warn("skipping oversized stream line", "limit_bytes", maxLineBytes)
			} else if len(line) > 0 {
				if chunk, ok := decodeLine(string(line)); ok && !yield(chunk, nil) {
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					yield(Chunk{}, err)
				}
				return
			}
		}
	}
}

// readLine returns the next line including its newline. Once a line grows
// past limit its bytes are discarded up to the newline and oversized is set.
func readLine(br *bufio.Reader, limit int) (line []byte, oversized bool, err error) {
	for {
		frag, readErr := br.ReadSlice('\n')
		if !oversized {
			if len(line)+len(frag) > limit {
				oversized = true
				line = nil
			} else {
				line = append(line, frag...)
			}
		}
		if errors.Is(readErr, bufio.ErrBufferFull) {
			continue
		}
		return line, oversized, readErr
	}
}

func decodeLine(line string) (Chunk, bool) {
	data, ok := strings.CutPrefix(strings.TrimSpace(line), dataPrefix)
	if !ok || data == doneMarker {
		return Chunk{}, false
	}
	if !gjson.Valid(data) {
		return Chunk{}, false
	}
	root := gjson.Parse(data)
	if !root.IsObject() {
		return Chunk{}, false
	}

	var chunk Chunk
	if id := root.Get("id"); id.Type == gjson.String {
		chunk.ID = id.Str
	}
	choices := root.Get("choices")
	if choices.IsArray() {
		if items := choices.Array(); len(items) > 0 {
			if content := items[0].Get("delta.content"); content.Type == gjson.String {
				chunk.Content = content.Str
			}
		}
	}
	return chunk, true
}

// ConsumeStream folds a completion stream into one reply. The first
// payload id becomes the request id. On a read failure the text gathered
// so far is returned together with the error.
func ConsumeStream(r io.Reader) (Completion, error) {
	var (
		completion Completion
		text       strings.Builder
	)
	for chunk, err := range Chunks(r) {
		if err != nil {
			completion.Text = text.String()
			return completion, fmt.Errorf("failed to read completion stream: %w", err)
		}
		if completion.RequestID == "" {
			completion.RequestID = chunk.ID
		}
		text.WriteString(chunk.Content)
	}
	completion.Text = text.String()
	return completion, nil
}
