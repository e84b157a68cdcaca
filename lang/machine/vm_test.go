package machine_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/glox/lang/compiler"
	"github.com/mna/glox/lang/machine"
)

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	fn, err := compiler.Compile(src)
	require.NoError(t, err, "compile: %s", src)

	var out bytes.Buffer
	vm := machine.New(&out, &out, 0)
	err = vm.Interpret(fn)
	return out.String(), err
}

func TestArithmeticPrecedence(t *testing.T) {
	out, err := run(t, `print 1 + 2 * 3;`)
	require.NoError(t, err)
	require.Equal(t, "7\n", out)
}

func TestBlockScoping(t *testing.T) {
	out, err := run(t, `var a=1; { var a=2; print a; } print a;`)
	require.NoError(t, err)
	require.Equal(t, "2\n1\n", out)
}

func TestClosureCapturesSharedUpvalue(t *testing.T) {
	out, err := run(t, `
fun makeCounter() {
  var i = 0;
  fun c() {
    i = i + 1;
    return i;
  }
  return c;
}
var c = makeCounter();
print c();
print c();
print c();
`)
	require.NoError(t, err)
	require.Equal(t, "1\n2\n3\n", out)
}

func TestMethodCall(t *testing.T) {
	out, err := run(t, `class A { greet() { print "hi"; } } A().greet();`)
	require.NoError(t, err)
	require.Equal(t, "hi\n", out)
}

func TestInheritanceAndSuper(t *testing.T) {
	out, err := run(t, `
class A { init(x) { this.x = x; } }
class B < A {
  init(x) {
    super.init(x);
    this.y = x + 1;
  }
}
var b = B(10);
print b.x;
print b.y;
`)
	require.NoError(t, err)
	require.Equal(t, "10\n11\n", out)
}

func TestUndefinedGlobalIsRuntimeError(t *testing.T) {
	out, err := run(t, `print x;`)
	require.Error(t, err)
	require.Equal(t, "", out)

	rerr, ok := err.(*machine.RuntimeError)
	require.True(t, ok)
	require.Equal(t, "Undefined variable x.", rerr.Msg)
	require.Len(t, rerr.Trace, 1)
	require.Contains(t, rerr.Trace[0], "in script")
}

func TestFieldsAndBoundMethods(t *testing.T) {
	out, err := run(t, `
class Pair {
  set(a, b) { this.a = a; this.b = b; }
  sum() { return this.a + this.b; }
}
var p = Pair();
p.set(3, 4);
var m = p.sum;
print m();
`)
	require.NoError(t, err)
	require.Equal(t, "7\n", out)
}

func TestNativeClockReturnsNumber(t *testing.T) {
	out, err := run(t, `print clock() > 0;`)
	require.NoError(t, err)
	require.Equal(t, "true\n", out)
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	_, err := run(t, `fun f(a, b) { return a + b; } f(1);`)
	require.Error(t, err)
	rerr, ok := err.(*machine.RuntimeError)
	require.True(t, ok)
	require.Equal(t, "Expected 2 arguments but got 1.", rerr.Msg)
}

func TestCallingNonCallableIsRuntimeError(t *testing.T) {
	_, err := run(t, `var x = 1; x();`)
	require.Error(t, err)
	rerr, ok := err.(*machine.RuntimeError)
	require.True(t, ok)
	require.Equal(t, "Can only call functions and classes.", rerr.Msg)
}

func TestWhileAndForLoops(t *testing.T) {
	out, err := run(t, `
var i = 0;
while (i < 3) {
  print i;
  i = i + 1;
}
for (var j = 0; j < 2; j = j + 1) print j * 10;
`)
	require.NoError(t, err)
	require.Equal(t, "0\n1\n2\n0\n10\n", out)
}
