package plagiarism

import (
	"regexp"
	"strings"
)

const (
	stringToken = "STRING"
	numberToken = "NUMBER"
)

var (
	stringLiteralRe = regexp.MustCompile(`"(?:[^"\\\n]|\\.)*"|'(?:[^'\\\n]|\\.)*'`)
	integerRe       = regexp.MustCompile(`\b\d+\b`)
	whitespaceRe    = regexp.MustCompile(`\s+`)

	pythonLineCommentRe = regexp.MustCompile(`#.*`)
	cLineCommentRe      = regexp.MustCompile(`//.*`)

	pythonBlockCommentRes = []*regexp.Regexp{
		regexp.MustCompile(`(?s)'''.*?'''`),
		regexp.MustCompile(`(?s)""".*?"""`),
	}
	cBlockCommentRes = []*regexp.Regexp{
		regexp.MustCompile(`(?s)/\*.*?\*/`),
	}
)

// Normalizer canonicalizes source text so that lexical comparison ignores
// comments, literal values and layout.
type Normalizer struct {
	lineComment   *regexp.Regexp
	blockComments []*regexp.Regexp
}

// PythonNormalizer strips `#` comments and triple-quoted blocks.
var PythonNormalizer = &Normalizer{
	lineComment:   pythonLineCommentRe,
	blockComments: pythonBlockCommentRes,
}

// CStyleNormalizer strips `//` and `/* */` comments.
var CStyleNormalizer = &Normalizer{
	lineComment:   cLineCommentRe,
	blockComments: cBlockCommentRes,
}

// Normalize normalizes Python source.
func Normalize(source string) string {
	return PythonNormalizer.Normalize(source)
}

// Normalize applies, in order: line comment removal, block comment removal,
// string masking, integer masking and whitespace collapsing.
func (n *Normalizer) Normalize(source string) string {
	if source == "" {
		return ""
	}

	code := n.lineComment.ReplaceAllString(source, "")
	for _, re := range n.blockComments {
		code = re.ReplaceAllString(code, "")
	}
	code = stringLiteralRe.ReplaceAllString(code, stringToken)
	code = integerRe.ReplaceAllString(code, numberToken)
	code = whitespaceRe.ReplaceAllString(code, " ")

	return strings.TrimSpace(code)
}
