package plagiarism

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", "  \n\t ", ""},
		{"line comment", "x = y  # note\n", "x = y"},
		{"triple quoted block", "'''doc\nstring'''\nfoo()", "foo()"},
		{"double triple quoted block", "\"\"\"doc\"\"\"\nbar()", "bar()"},
		{"strings masked", `print("hi", 'there')`, "print(STRING, STRING)"},
		{"escaped quote", `s = "a\"b"`, "s = STRING"},
		{"integers masked", "range(10, 200)", "range(NUMBER, NUMBER)"},
		{"identifier digits kept", "x1 = 2", "x1 = NUMBER"},
		{"whitespace collapsed", "a   =\n\n   b", "a = b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	src := "def f(x):  # add one\n    return x + 1\nprint(f(2), 'done')\n"

	once := Normalize(src)
	assert.Equal(t, once, Normalize(once))
}

func TestCStyleNormalizer(t *testing.T) {
	src := "/* header\n comment */\nlet x = 42; // answer\nconsole.log(\"x\", x);"

	assert.Equal(t, "let x = NUMBER; console.log(STRING, x);", CStyleNormalizer.Normalize(src))
}
