package plagiarism

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubParser(kinds ...string) Parser {
	return ParserFunc(func(string) ParseResult {
		return ParseResult{OK: true, NodeKinds: kinds}
	})
}

func TestExtractWithStubParser(t *testing.T) {
	e := NewExtractor(PythonNormalizer, stubParser("module", "call", "call", "identifier"))

	f := e.Extract("print('a')  # hi\nprint(2)")

	assert.Equal(t, "print(STRING) print(NUMBER)", f.NormalizedText)
	assert.Equal(t, 1, f.LineCount)
	assert.Equal(t, len("print(STRING) print(NUMBER)"), f.CharCount)
	assert.Equal(t, 2, f.WordCount)
	assert.Equal(t, map[string]int{"module": 1, "call": 2, "identifier": 1}, f.NodeHistogram)
}

func TestExtractParseFailureKeepsMetrics(t *testing.T) {
	failing := ParserFunc(func(string) ParseResult { return ParseResult{} })
	e := NewExtractor(nil, failing)

	f := e.Extract("def broken(:")

	assert.Equal(t, "def broken(:", f.NormalizedText)
	assert.Equal(t, 2, f.WordCount)
	assert.NotNil(t, f.NodeHistogram)
	assert.Empty(t, f.NodeHistogram)
}

func TestExtractEmpty(t *testing.T) {
	e, err := ExtractorFor("python")
	require.NoError(t, err)

	f := e.Extract("")

	assert.Equal(t, "", f.NormalizedText)
	assert.Zero(t, f.LineCount)
	assert.Zero(t, f.CharCount)
	assert.Zero(t, f.WordCount)
	assert.Empty(t, f.NodeHistogram)
}

func TestExtractCountsRunes(t *testing.T) {
	e := NewExtractor(PythonNormalizer, nil)

	f := e.Extract("naïve = café")

	assert.Equal(t, 12, f.CharCount)
}

func TestExtractTreeSitterHistogram(t *testing.T) {
	e, err := ExtractorFor("py")
	require.NoError(t, err)

	f := e.Extract("for i in range(10):\n    print(i)\n")

	assert.Equal(t, 1, f.NodeHistogram["module"])
	assert.Equal(t, 1, f.NodeHistogram["for_statement"])
	assert.Equal(t, 2, f.NodeHistogram["call"])
	// anonymous nodes count too
	assert.Equal(t, 1, f.NodeHistogram["for"])
	assert.Equal(t, 1, f.NodeHistogram[":"])
}

func TestExtractTreeSitterSyntaxError(t *testing.T) {
	e, err := ExtractorFor("python")
	require.NoError(t, err)

	f := e.Extract("def f(:\n    return")

	assert.Empty(t, f.NodeHistogram)
	assert.NotZero(t, f.WordCount)
}

func TestExtractOtherLanguages(t *testing.T) {
	js, err := ExtractorFor("javascript")
	require.NoError(t, err)
	f := js.Extract("function add(a, b) { return a + b; } // sum")
	assert.Equal(t, "function add(a, b) { return a + b; }", f.NormalizedText)
	assert.Equal(t, 1, f.NodeHistogram["function_declaration"])

	gosrc, err := ExtractorFor("golang")
	require.NoError(t, err)
	f = gosrc.Extract("package main\n\nfunc main() {}\n")
	assert.Equal(t, 1, f.NodeHistogram["function_declaration"])
}

func TestLookupLanguage(t *testing.T) {
	for _, name := range []string{"python", "PY", " python3 ", "js", "node", "go", "golang", ""} {
		l, err := LookupLanguage(name)
		require.NoError(t, err, name)
		assert.NotNil(t, l.Grammar)
	}

	l, err := LookupLanguage("")
	require.NoError(t, err)
	assert.Equal(t, DefaultLanguage, l.Name)

	_, err = LookupLanguage("cobol")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestSetDefaultLanguage(t *testing.T) {
	defer func() { require.NoError(t, SetDefaultLanguage(DefaultLanguage)) }()

	require.NoError(t, SetDefaultLanguage("js"))
	l, err := LookupLanguage("")
	require.NoError(t, err)
	assert.Equal(t, "javascript", l.Name)

	assert.ErrorIs(t, SetDefaultLanguage("cobol"), ErrUnsupportedLanguage)
}

func TestTreeSitterParserRejectsInvalidUTF8(t *testing.T) {
	l, err := LookupLanguage("python")
	require.NoError(t, err)

	res := NewTreeSitterParser(l.Grammar).Parse("x = '" + string([]byte{0xff, 0xfe}) + "'")

	assert.False(t, res.OK)
	assert.Empty(t, res.NodeKinds)
}

func TestTreeSitterParserWalkOrder(t *testing.T) {
	l, err := LookupLanguage("python")
	require.NoError(t, err)

	res := NewTreeSitterParser(l.Grammar).Parse("x = 1")

	require.True(t, res.OK)
	assert.Equal(t, "module", res.NodeKinds[0])
	assert.Contains(t, strings.Join(res.NodeKinds, " "), "assignment identifier = integer")
}
