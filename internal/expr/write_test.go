package expr

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_Canonical(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3", "1 + 2 * 3"},
		{"(1 + 2) * 3", "(1 + 2) * 3"},
		{"a && b || !c", "a and b or not c"},
		{"10 - (4 - 3)", "10 - (4 - 3)"},
		{"10 - 4 - 3", "10 - 4 - 3"},
		{"x = 'hi'", "x == 'hi'"},
		{`f( 1,g( ), "s" )`, "f(1, g(), 's')"},
		{"-(a + b)", "- (a + b)"},
		{"2.50", "2.5"},
		{"(a or b) and c", "(a or b) and c"},
		{"a * b / c", "(a * b) / c"},
		{"a / (b * c)", "a / (b * c)"},
		{"a == (b == c)", "a == (b == c)"},
		{"not (a > 1)", "not (a > 1)"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, Write(MustParse(tt.src), WriteOptions{}))
		})
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	sources := []string{
		"a or b or c",
		"a or (b or c)",
		"a and (b or c) and not d",
		"1 - (2 - 3)",
		"1 - (2 + 3)",
		"8 / (4 / 2)",
		"0 * (x / 0)",
		"x * y / z * w",
		"-(-(3))",
		"not not flag",
		"(a == b) != (c < d)",
		"f(a or b, g(h()), -1) >= 2 * k",
		"'a' == 'b' or \"c\" != 'd'",
		"gold >= 5 and (has_key('red') or not -x < 2)",
		`"it's" == x`,
		`'say "hi"' == x`,
	}

	ctx := MapContext{
		"a": true, "b": false, "c": true, "d": false,
		"x": 4, "y": 3, "z": 2, "w": 5, "k": 1,
		"flag": true, "gold": 7,
		"f": NewFunc(3, func(args []Value) (any, error) {
			n, err := ToNumber(args[2])
			return n + 3, err
		}),
		"g":       NewFunc(1, func(args []Value) (any, error) { return args[0], nil }),
		"h":       NewFunc(0, func([]Value) (any, error) { return 1, nil }),
		"has_key": NewFunc(1, func([]Value) (any, error) { return false, nil }),
	}

	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			first := MustParse(src)
			written := Write(first, WriteOptions{})

			second, err := Parse(written)
			require.NoError(t, err, "written form %q must parse", written)
			assert.Equal(t, first, second, "written form %q", written)

			want, wantErr := Eval(first, ctx, nil)
			got, gotErr := Eval(second, ctx, nil)
			assert.Equal(t, wantErr, gotErr)
			assert.Equal(t, want, got)
		})
	}
}

func TestWrite_StringFormats(t *testing.T) {
	n := MustParse(`name == "bob"`)

	assert.Equal(t, `name == 'bob'`, Write(n, WriteOptions{}))
	assert.Equal(t, `name == \'bob\'`, Write(n, WriteOptions{Strings: EscapedSingleQuote}))
	assert.Equal(t, `name == "bob"`, Write(n, WriteOptions{Strings: DoubleQuote}))
	assert.Equal(t, `name == \"bob\"`, Write(n, WriteOptions{Strings: EscapedDoubleQuote}))
}

func TestWrite_StringFormatsSwapQuotes(t *testing.T) {
	apostrophe := MustParse(`line == "it's"`)
	quoted := MustParse(`line == 'say "hi"'`)

	assert.Equal(t, `line == "it's"`, Write(apostrophe, WriteOptions{}))
	assert.Equal(t, `line == \"it's\"`, Write(apostrophe, WriteOptions{Strings: EscapedSingleQuote}))
	assert.Equal(t, `line == 'say "hi"'`, Write(quoted, WriteOptions{Strings: DoubleQuote}))
	assert.Equal(t, `line == \'say "hi"\'`, Write(quoted, WriteOptions{Strings: EscapedDoubleQuote}))
	assert.Equal(t, `line == 'say "hi"'`, Write(quoted, WriteOptions{}))
}

func TestParseStringFormat(t *testing.T) {
	f, err := ParseStringFormat("escaped-double")
	require.NoError(t, err)
	assert.Equal(t, EscapedDoubleQuote, f)

	f, err = ParseStringFormat("")
	require.NoError(t, err)
	assert.Equal(t, SingleQuote, f)

	_, err = ParseStringFormat("backtick")
	assert.Error(t, err)
}

func TestDump_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	n := MustParse("gold >= 5 and (has_key('red') or not -x < 2)")
	g.Assert(t, "dump_condition", []byte(Dump(n, 0)))

	n = MustParse("1.25 + roll()")
	g.Assert(t, "dump_indented", []byte(Dump(n, 2)))
}
