package action

import (
	"fmt"
	"strings"
)

// ParamFormat selects how a parameter file encodes its arguments.
type ParamFormat int

const (
	// ParamMultiline writes one argument per line, the format protoc reads.
	ParamMultiline ParamFormat = iota
	// ParamShell writes whitespace-separated, shell-quoted arguments, the
	// response-file format compiler drivers read.
	ParamShell
)

// WithParamFile returns an action whose arguments live in a parameter file
// at path, together with the FileWrite that creates it. The action gets a
// single "@path" argument and the file as an input, so command lines stay
// short regardless of dependency fan-out.
func WithParamFile(a Action, path string, format ParamFormat) (Action, FileWrite, error) {
	content, err := encodeParams(a.Args, format)
	if err != nil {
		return Action{}, FileWrite{}, fmt.Errorf("parameter file for %s: %w", a.ID(), err)
	}
	a.ParamFile = path
	a.Args = []string{"@" + path}
	a.Inputs = append(append([]string(nil), a.Inputs...), path)
	return a, FileWrite{Owner: a.Owner, Path: path, Content: content}, nil
}

func encodeParams(args []string, format ParamFormat) ([]byte, error) {
	var sb strings.Builder
	for _, arg := range args {
		switch format {
		case ParamMultiline:
			if strings.ContainsAny(arg, "\n\r") {
				return nil, fmt.Errorf("argument %q contains a line break", arg)
			}
			sb.WriteString(arg)
		case ParamShell:
			sb.WriteString(shellQuote(arg))
		default:
			return nil, fmt.Errorf("unknown parameter file format %d", format)
		}
		sb.WriteByte('\n')
	}
	return []byte(sb.String()), nil
}

// shellQuote single-quotes arg when it contains anything a response-file
// tokenizer would split or interpret.
func shellQuote(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsAny(arg, " \t\n\r'\"\\$`") {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

// DecodeMultiline splits a ParamMultiline file back into arguments.
func DecodeMultiline(content []byte) []string {
	lines := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	return lines
}
