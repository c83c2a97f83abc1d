package loader

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// cifTokenKind classifies a lexical token of a CIF file.
type cifTokenKind int

const (
	tokenData cifTokenKind = iota
	tokenLoop
	tokenTag
	tokenValue
	tokenSave
)

// cifToken is a single CIF token with the 1-based line it started on.
type cifToken struct {
	kind  cifTokenKind
	text  string
	line  int
	quote bool
}

// lexCIF splits CIF text into tokens. It understands comments, single- and
// double-quoted values (a quote only closes when followed by whitespace or end of
// line), and semicolon-delimited text fields.
//
// Parameters:
//   - r: the CIF text
//
// Returns:
//   - []cifToken: the tokens in order
//   - error: error on an unterminated quote or text field, or a read failure
func lexCIF(r io.Reader) ([]cifToken, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var tokens []cifToken
	lineNo := 0
	var text *strings.Builder
	textStart := 0

	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")

		if text != nil {
			if strings.HasPrefix(line, ";") {
				tokens = append(tokens, cifToken{kind: tokenValue, text: strings.TrimSuffix(text.String(), "\n"), line: textStart, quote: true})
				text = nil
				line = line[1:]
			} else {
				text.WriteString(line)
				text.WriteByte('\n')
				continue
			}
		} else if strings.HasPrefix(line, ";") {
			text = &strings.Builder{}
			text.WriteString(line[1:])
			if len(line) > 1 {
				text.WriteByte('\n')
			}
			textStart = lineNo
			continue
		}

		toks, err := lexLine(line, lineNo)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, toks...)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read CIF: %w", err)
	}
	if text != nil {
		return nil, &MalformedRecordError{Format: FormatMMCIF, Record: -1, Line: textStart, Reason: "unterminated text field"}
	}
	return tokens, nil
}

func lexLine(line string, lineNo int) ([]cifToken, error) {
	var tokens []cifToken
	i := 0
	n := len(line)
	for i < n {
		c := line[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '#':
			return tokens, nil
		case c == '\'' || c == '"':
			j := i + 1
			for {
				k := strings.IndexByte(line[j:], c)
				if k < 0 {
					return nil, &MalformedRecordError{Format: FormatMMCIF, Record: -1, Line: lineNo, Reason: "unterminated quoted value"}
				}
				j += k
				if j+1 >= n || line[j+1] == ' ' || line[j+1] == '\t' {
					break
				}
				j++
			}
			tokens = append(tokens, cifToken{kind: tokenValue, text: line[i+1 : j], line: lineNo, quote: true})
			i = j + 1
		default:
			j := i
			for j < n && line[j] != ' ' && line[j] != '\t' {
				j++
			}
			word := line[i:j]
			tokens = append(tokens, classifyWord(word, lineNo))
			i = j
		}
	}
	return tokens, nil
}

func classifyWord(word string, lineNo int) cifToken {
	lower := strings.ToLower(word)
	switch {
	case strings.HasPrefix(lower, "data_"):
		return cifToken{kind: tokenData, text: word[5:], line: lineNo}
	case lower == "loop_":
		return cifToken{kind: tokenLoop, line: lineNo}
	case strings.HasPrefix(lower, "save_"):
		return cifToken{kind: tokenSave, text: word[5:], line: lineNo}
	case strings.HasPrefix(word, "_"):
		return cifToken{kind: tokenTag, text: lower, line: lineNo}
	default:
		return cifToken{kind: tokenValue, text: word, line: lineNo}
	}
}
