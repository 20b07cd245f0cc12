package plagiarism

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
)

// ParseResult is the outcome of parsing one source file. NodeKinds lists the
// grammatical kind of every node in the tree, in walk order.
type ParseResult struct {
	OK        bool
	NodeKinds []string
}

// Parser turns source text into the node kinds of its syntax tree.
type Parser interface {
	Parse(source string) ParseResult
}

// ParserFunc adapts a plain function to the Parser interface.
type ParserFunc func(source string) ParseResult

func (f ParserFunc) Parse(source string) ParseResult {
	return f(source)
}

// TreeSitterParser parses with a tree-sitter grammar. A tree containing
// ERROR or MISSING nodes counts as a failed parse.
type TreeSitterParser struct {
	lang *sitter.Language
}

// NewTreeSitterParser creates a parser for the given grammar.
func NewTreeSitterParser(lang *sitter.Language) *TreeSitterParser {
	return &TreeSitterParser{lang: lang}
}

// Parse walks every node of the tree, named and anonymous.
func (p *TreeSitterParser) Parse(source string) ParseResult {
	if strings.TrimSpace(source) == "" || !utf8.ValidString(source) {
		return ParseResult{}
	}

	// sitter.Parser is not safe for concurrent use, so each call gets its own.
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(p.lang)

	tree, err := parser.ParseCtx(context.Background(), nil, []byte(source))
	if err != nil || tree == nil {
		return ParseResult{}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		return ParseResult{}
	}

	kinds := make([]string, 0, 64)
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		kinds = append(kinds, n.Type())
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)

	return ParseResult{OK: true, NodeKinds: kinds}
}

// Language pairs a grammar with the comment syntax its normalizer strips.
type Language struct {
	Name       string
	Aliases    []string
	Grammar    *sitter.Language
	Normalizer *Normalizer
}

// DefaultLanguage is used when a submission does not name its language,
// unless SetDefaultLanguage picked another one.
const DefaultLanguage = "python"

// ErrUnsupportedLanguage is returned for names no grammar is registered under.
var ErrUnsupportedLanguage = errors.New("unsupported language")

var (
	languages       = map[string]*Language{}
	defaultLanguage atomic.Pointer[Language]
)

func registerLanguage(l *Language) {
	languages[l.Name] = l
	for _, alias := range l.Aliases {
		languages[alias] = l
	}
}

func init() {
	registerLanguage(&Language{
		Name:       "python",
		Aliases:    []string{"py", "python3"},
		Grammar:    python.GetLanguage(),
		Normalizer: PythonNormalizer,
	})
	registerLanguage(&Language{
		Name:       "javascript",
		Aliases:    []string{"js", "node"},
		Grammar:    javascript.GetLanguage(),
		Normalizer: CStyleNormalizer,
	})
	registerLanguage(&Language{
		Name:       "go",
		Aliases:    []string{"golang"},
		Grammar:    golang.GetLanguage(),
		Normalizer: CStyleNormalizer,
	})
	defaultLanguage.Store(languages[DefaultLanguage])
}

// SetDefaultLanguage changes the language empty names resolve to.
func SetDefaultLanguage(name string) error {
	l, ok := languages[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedLanguage, name)
	}
	defaultLanguage.Store(l)
	return nil
}

// LookupLanguage resolves a language name or alias. An empty name resolves
// to the default language.
func LookupLanguage(name string) (*Language, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return defaultLanguage.Load(), nil
	}
	l, ok := languages[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, name)
	}
	return l, nil
}
