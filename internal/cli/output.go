package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/shandysiswandi/mfacore/internal/pkg/goerror"
)

const (
	outputText = "text"
	outputJSON = "json"
)

var errUnknownOutput = errors.New("output must be text or json")

// field is one line of text output.
type field struct {
	name  string
	value any
}

// print writes v as JSON or the fields as aligned "name: value" lines.
func (c *cli) print(v any, fields ...field) error {
	switch c.output {
	case outputJSON:
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputText, "":
		width := 0
		for _, f := range fields {
			width = max(width, len(f.name))
		}
		for _, f := range fields {
			if _, err := fmt.Fprintf(c.stdout, "%-*s  %v\n", width+1, f.name+":", f.value); err != nil {
				return err
			}
		}
		return nil
	default:
		return errUnknownOutput
	}
}

type valuer interface {
	Values() map[string]string
}

// Describe renders err for a terminal: the user-facing message of a
// goerror, followed by any per-field validation messages.
func Describe(err error) string {
	ge, ok := goerror.As(err)
	if !ok {
		return err.Error()
	}

	msg := ge.Msg()
	if msg == "" || ge.Type() == goerror.TypeServer && ge.Code() != goerror.CodeUnavailable {
		msg = ge.Error()
	}

	fields := ge.Fields()
	var v valuer
	if errors.As(err, &v) {
		fields = v.Values()
	}
	if len(fields) == 0 {
		return msg
	}

	var b strings.Builder
	b.WriteString(msg)
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		fmt.Fprintf(&b, "\n  %s: %s", k, fields[k])
	}
	return b.String()
}

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if ge, ok := goerror.As(err); ok {
		return ge.ExitCode()
	}
	return 1
}
