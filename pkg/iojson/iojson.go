// Package iojson reads and writes the JSON documents exchanged by the
// command line.
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteWith writes obj as indented JSON to w. If obj cannot be encoded, a
// {"message","data":{"json_error"}} document is written to ew instead.
func WriteWith(w io.Writer, ew io.Writer, obj any) error {
	bits, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		blob, _ := json.Marshal(map[string]any{
			"message": "encode output",
			"data":    map[string]string{"json_error": err.Error()},
		})
		_, werr := fmt.Fprintln(ew, string(blob))
		return werr
	}

	_, err = fmt.Fprintln(w, string(bits))
	return err
}

// WriteLine writes obj as a single line of JSON.
func WriteLine(w io.Writer, obj any) error {
	bits, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("marshal line: %w", err)
	}
	_, err = fmt.Fprintln(w, string(bits))
	return err
}
