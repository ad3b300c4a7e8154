package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/kavach/internal/ux"
)

// view pairs a result with its text rendering. JSON and YAML output
// encode data; text output calls text.
type view struct {
	data any
	text func(w io.Writer) error
}

func (v view) RenderText(w io.Writer) error {
	return v.text(w)
}

func (v view) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.data)
}

// message is a one-line text result
func message(data any, format string, args ...any) view {
	return view{data: data, text: func(w io.Writer) error {
		_, err := fmt.Fprintf(w, format+"\n", args...)
		return err
	}}
}

// fields renders label/value pairs, skipping empty values
func fields(w io.Writer, pairs ...string) error {
	var rows [][]string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		rows = append(rows, []string{pairs[i] + ":", pairs[i+1]})
	}
	return ux.Table(w, nil, rows)
}

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func percent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func list(items []string) string {
	return strings.Join(items, ", ")
}
