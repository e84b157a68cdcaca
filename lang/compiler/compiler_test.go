package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/glox/lang/compiler"
)

func TestCompileValidPrograms(t *testing.T) {
	sources := []string{
		`print 1 + 2 * 3;`,
		`var a = 1; { var a = 2; print a; } print a;`,
		`fun makeCounter() { var i = 0; fun c() { i = i + 1; return i; } return c; } var c = makeCounter();`,
		`class A { greet() { print "hi"; } } A().greet();`,
		`class A { init(x) { this.x = x; } } class B < A { init(x) { super.init(x); this.y = x + 1; } }`,
		`for (var i = 0; i < 10; i = i + 1) print i;`,
		`if (true) { print 1; } else { print 2; }`,
		`print "a" + "b";`,
	}
	for _, src := range sources {
		fn, err := compiler.Compile(src)
		require.NoError(t, err, "source: %s", src)
		require.NotNil(t, fn)
	}
}

func TestCompileErrorMessages(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"missing paren", `print(1;`, "Expect ')' after expression."},
		{"invalid assignment target", `1 = 2;`, "Invalid assignment target."},
		{"return at top level", `return 1;`, "Can't return from top-level code."},
		{"this outside class", `print this;`, "Can't use 'this' outside of a class."},
		{"super outside class", `print super.x;`, "Can't use 'super' outside of a class."},
		{"self-inheriting class", `class A < A {}`, "A class can't inherit from itself."},
		{"duplicate local", `{ var a = 1; var a = 2; }`, "Already a variable with this name in this scope."},
		{"self-referencing initializer", `{ var a = a; }`, "Can't read local variable in its own initializer."},
		{"return value from initializer", `class A { init() { return 1; } }`, "Can't return a value from an initializer."},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := compiler.Compile(c.src)
			require.Error(t, err)
			require.Contains(t, err.Error(), c.want)
		})
	}
}

func TestCompileUnterminatedString(t *testing.T) {
	_, err := compiler.Compile(`print "oops;`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Unterminated string.")
}

func TestCompileAccumulatesMultipleErrors(t *testing.T) {
	_, err := compiler.Compile("1 = 2; return 1;")
	require.Error(t, err)
	list, ok := err.(compiler.ErrorList)
	require.True(t, ok)
	require.Len(t, list, 2)
}
