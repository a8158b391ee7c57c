package interpreter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/thomasha1310/jlox-interpreter/parser"
	"github.com/thomasha1310/jlox-interpreter/report"
)

// --- helpers ---------------------------------------------------------------

// Runs src through the full pipeline, returning stdout, stderr and the
// reporter for flag inspection.
func runSrc(t *testing.T, src string) (string, string, *report.Reporter) {
	t.Helper()

	rep := report.NewReporter()
	var errBuf bytes.Buffer
	rep.Err = &errBuf

	interp := NewInterpreter(rep)
	var outBuf bytes.Buffer
	interp.Out = &outBuf

	p := parser.MakeParser(src, rep)
	stmts := p.Parse()

	if !rep.HadError {
		NewResolver(interp, rep).Resolve(stmts)
	}
	if !rep.HadError {
		interp.Interpret(stmts)
	}

	return outBuf.String(), errBuf.String(), rep
}

func wantOutput(t *testing.T, src, want string) {
	t.Helper()

	out, errOut, rep := runSrc(t, src)
	if rep.HadError || rep.HadRuntimeError {
		t.Fatalf("unexpected errors for:\n%s\nstderr:\n%s", src, errOut)
	}
	if out != want {
		t.Fatalf("\nsource:\n%s\nwant output: %q\ngot output:  %q", src, want, out)
	}
}

func wantRuntimeError(t *testing.T, src, wantMessage string) {
	t.Helper()

	_, errOut, rep := runSrc(t, src)
	if !rep.HadRuntimeError {
		t.Fatalf("want runtime error for:\n%s", src)
	}
	if !strings.Contains(errOut, wantMessage) {
		t.Fatalf("\nsource:\n%s\nwant stderr containing: %q\ngot: %q",
			src, wantMessage, errOut)
	}
}

func wantCompileError(t *testing.T, src, wantMessage string) {
	t.Helper()

	out, errOut, rep := runSrc(t, src)
	if !rep.HadError {
		t.Fatalf("want compile error for:\n%s", src)
	}
	if !strings.Contains(errOut, wantMessage) {
		t.Fatalf("\nsource:\n%s\nwant stderr containing: %q\ngot: %q",
			src, wantMessage, errOut)
	}
	if out != "" {
		t.Fatalf("evaluation must be skipped on compile errors, got output %q", out)
	}
}

// --- basics ----------------------------------------------------------------

func TestEmptyProgram(t *testing.T) {
	wantOutput(t, "", "")
}

func TestPrintNil(t *testing.T) {
	wantOutput(t, "print nil;", "nil\n")
}

func TestArithmeticPrecedence(t *testing.T) {
	wantOutput(t, "print 1 + 2 * 3;", "7\n")
	wantOutput(t, "print (1 + 2) * 3;", "9\n")
	wantOutput(t, "print 10 - 4 - 3;", "3\n")
	wantOutput(t, "print 8 / 4 / 2;", "1\n")
	wantOutput(t, "print 10 % 3;", "1\n")
	wantOutput(t, "print -3 + 5;", "2\n")
}

func TestNumberFormatting(t *testing.T) {
	wantOutput(t, "print 7;", "7\n")
	wantOutput(t, "print 2.5;", "2.5\n")
	wantOutput(t, "print 10 / 4;", "2.5\n")
	wantOutput(t, "print 0.1 + 0.2 == 0.3;", "false\n")
}

func TestStringConcat(t *testing.T) {
	wantOutput(t, `print "foo" + "bar";`, "foobar\n")
	wantOutput(t, `print "x=" + 3;`, "x=3\n")
	wantOutput(t, `print 3 + "=x";`, "3=x\n")
	wantOutput(t, `print "v: " + nil;`, "v: nil\n")
	wantOutput(t, `print "b: " + true;`, "b: true\n")
}

func TestPlusTypeError(t *testing.T) {
	wantRuntimeError(t, "print 1 + true;",
		"Operands must be two numbers or include a string.")
}

func TestComparisons(t *testing.T) {
	wantOutput(t, "print 1 < 2;", "true\n")
	wantOutput(t, "print 2 <= 2;", "true\n")
	wantOutput(t, "print 1 > 2;", "false\n")
	wantOutput(t, "print 2 >= 3;", "false\n")
}

func TestComparisonTypeError(t *testing.T) {
	wantRuntimeError(t, `print "a" < "b";`, "Operands must be numbers.")
}

func TestUnary(t *testing.T) {
	wantOutput(t, "print -5;", "-5\n")
	wantOutput(t, "print !true;", "false\n")
	wantOutput(t, "print !nil;", "true\n")
	wantOutput(t, "print !!0;", "true\n")
	wantRuntimeError(t, `print -"x";`, "Operand must be a number.")
}

func TestEquality(t *testing.T) {
	wantOutput(t, "print nil == nil;", "true\n")
	wantOutput(t, "print 1 == 1;", "true\n")
	wantOutput(t, `print "a" == "a";`, "true\n")
	// Cross-type comparisons are false, not errors.
	wantOutput(t, `print 1 == "1";`, "false\n")
	wantOutput(t, "print nil == false;", "false\n")
	wantOutput(t, "print 1 != 2;", "true\n")
}

func TestDivideByZero(t *testing.T) {
	wantRuntimeError(t, "print 1/0;",
		"RuntimeError [line 1]: Cannot divide by zero.")
	wantRuntimeError(t, "print 1 % 0;", "Cannot divide by zero.")
}

func TestLogicalReturnsOperand(t *testing.T) {
	wantOutput(t, `print "a" or "b";`, "a\n")
	wantOutput(t, `print nil or "b";`, "b\n")
	wantOutput(t, `print nil and "b";`, "nil\n")
	wantOutput(t, `print 1 and 2;`, "2\n")
}

func TestLogicalShortCircuits(t *testing.T) {
	wantOutput(t, `
var called = false;
fun f() { called = true; return true; }
var r = true or f();
print called;`, "false\n")
}

// --- variables and scope ---------------------------------------------------

func TestVariableDeclarationAndAssignment(t *testing.T) {
	wantOutput(t, "var a = 1; a = 2; print a;", "2\n")
	wantOutput(t, "var a; print a;", "nil\n")
	wantOutput(t, "var a = 1; print a = 5;", "5\n")
}

func TestUndefinedVariable(t *testing.T) {
	wantRuntimeError(t, "print nope;", "Undefined variable 'nope'.")
	wantRuntimeError(t, "nope = 1;", "Undefined variable 'nope'.")
}

func TestBlockShadowing(t *testing.T) {
	wantOutput(t, `
var a = "outer";
{
	var a = "inner";
	print a;
}
print a;`, "inner\nouter\n")
}

func TestCompoundAssignment(t *testing.T) {
	wantOutput(t, "var x = 10; x += 5; print x;", "15\n")
	wantOutput(t, "var x = 10; x -= 5; print x;", "5\n")
	wantOutput(t, "var x = 10; x *= 5; print x;", "50\n")
	wantOutput(t, "var x = 10; x /= 5; print x;", "2\n")
	wantOutput(t, "var x = 10; x %= 3; print x;", "1\n")
}

func TestIncrementDecrement(t *testing.T) {
	wantOutput(t, "var x = 1; x++; print x;", "2\n")
	wantOutput(t, "var x = 1; x--; print x;", "0\n")
	wantOutput(t, "var x = 1; print x++;", "2\n")
}

// --- control flow ----------------------------------------------------------

func TestIfElse(t *testing.T) {
	wantOutput(t, `if (1 < 2) print "then"; else print "else";`, "then\n")
	wantOutput(t, `if (nil) print "then"; else print "else";`, "else\n")
	wantOutput(t, `if (false) print "skipped";`, "")
}

func TestWhileLoop(t *testing.T) {
	wantOutput(t, `
var i = 0;
while (i < 3) {
	print i;
	i = i + 1;
}`, "0\n1\n2\n")
}

func TestWhileConditionReevaluated(t *testing.T) {
	// The condition must be evaluated every iteration, so the loop ends.
	wantOutput(t, "var i = 0; while (i < 3) i = i + 1; print i;", "3\n")
}

func TestForLoop(t *testing.T) {
	wantOutput(t, "for (var i = 0; i < 3; i = i + 1) print i;", "0\n1\n2\n")
	wantOutput(t, "for (var i = 0; i < 6; i += 2) print i;", "0\n2\n4\n")
}

func TestBreak(t *testing.T) {
	wantOutput(t, `
var i = 0;
while (true) {
	if (i == 3) break;
	i = i + 1;
}
print i;`, "3\n")
}

func TestBreakInnermostLoopOnly(t *testing.T) {
	wantOutput(t, `
for (var i = 0; i < 2; i = i + 1) {
	for (var j = 0; j < 10; j = j + 1) {
		if (j == 1) break;
		print i + j;
	}
}`, "0\n1\n")
}

// --- functions and closures ------------------------------------------------

func TestFunctionCall(t *testing.T) {
	wantOutput(t, `
fun add(a, b) { return a + b; }
print add(1, 2);`, "3\n")
}

func TestFunctionImplicitNil(t *testing.T) {
	wantOutput(t, `
fun noop() {}
print noop();`, "nil\n")
	wantOutput(t, `
fun bare() { return; }
print bare();`, "nil\n")
}

func TestRecursion(t *testing.T) {
	wantOutput(t, `
fun fib(n) {
	if (n < 2) return n;
	return fib(n - 1) + fib(n - 2);
}
print fib(10);`, "55\n")
}

func TestClosureCapturesByReference(t *testing.T) {
	wantOutput(t, `
fun makeCounter() {
	var n = 0;
	fun c() { n = n + 1; return n; }
	return c;
}
var c = makeCounter();
print c();
print c();
print c();`, "1\n2\n3\n")
}

func TestClosuresShareEnvironment(t *testing.T) {
	wantOutput(t, `
var get;
var set;
fun make() {
	var n = 0;
	fun g() { return n; }
	fun s(v) { n = v; }
	get = g;
	set = s;
}
make();
set(41);
print get() + 1;`, "42\n")
}

func TestResolverFixesLateBinding(t *testing.T) {
	wantOutput(t, `
var a = "global";
{
	fun show() { print a; }
	show();
	var a = "local";
	show();
}`, "global\nglobal\n")
}

func TestCallNonCallable(t *testing.T) {
	wantRuntimeError(t, `"text"();`, "Can only call functions and classes.")
	wantRuntimeError(t, "123(4);", "Can only call functions and classes.")
}

func TestArityMismatch(t *testing.T) {
	wantRuntimeError(t, `
fun f(a, b) { return a; }
f(1);`, "Expected 2 arguments but got 1.")
	wantRuntimeError(t, `
fun g() { return 1; }
g(2, 3);`, "Expected 0 arguments but got 2.")
}

func TestFunctionStringForm(t *testing.T) {
	wantOutput(t, "fun f() {} print f;", "<fn f>\n")
	wantOutput(t, "print clock;", "<native fn>\n")
}

func TestClockNative(t *testing.T) {
	wantOutput(t, "print clock() > 0;", "true\n")
	wantRuntimeError(t, "clock(1);", "Expected 0 arguments but got 1.")
}

// --- classes ---------------------------------------------------------------

func TestClassInstance(t *testing.T) {
	wantOutput(t, "class P { } var p = P(); print p;", "P instance\n")
	wantOutput(t, "class P { } print P;", "P\n")
}

func TestInstanceFields(t *testing.T) {
	wantOutput(t, `
class Box { }
var b = Box();
b.content = "treasure";
print b.content;`, "treasure\n")
}

func TestUndefinedProperty(t *testing.T) {
	wantRuntimeError(t, `
class Box { }
var b = Box();
print b.missing;`, "Undefined property 'missing'.")
}

func TestOnlyInstancesHaveProperties(t *testing.T) {
	wantRuntimeError(t, "print 4.foo;", "Only instances have properties.")
	wantRuntimeError(t, `"str".foo = 1;`, "Only instances have fields.")
}

func TestMethodsAndThis(t *testing.T) {
	wantOutput(t, `
class Greeter {
	greet(name) { return this.prefix + name; }
}
var g = Greeter();
g.prefix = "hi ";
print g.greet("lox");`, "hi lox\n")
}

func TestInitializer(t *testing.T) {
	wantOutput(t, `
class Point {
	init(x, y) {
		this.x = x;
		this.y = y;
	}
	sum() { return this.x + this.y; }
}
var p = Point(1, 2);
print p.sum();`, "3\n")
}

func TestInitializerArity(t *testing.T) {
	wantRuntimeError(t, `
class Point {
	init(x, y) { this.x = x; }
}
Point(1);`, "Expected 2 arguments but got 1.")
}

func TestInitializerReturnsInstance(t *testing.T) {
	wantOutput(t, `
class Thing {
	init() { this.ok = true; return; }
}
print Thing().ok;`, "true\n")
}

func TestBoundMethodKeepsReceiver(t *testing.T) {
	wantOutput(t, `
class Cake {
	taste() { print this.flavor; }
}
var cake = Cake();
cake.flavor = "chocolate";
var m = cake.taste;
m();`, "chocolate\n")
}

func TestFieldShadowsMethod(t *testing.T) {
	wantOutput(t, `
class C {
	label() { return "method"; }
}
var c = C();
c.label = "field";
print c.label;`, "field\n")
}

func TestMethodsSeeClassByName(t *testing.T) {
	wantOutput(t, `
class Factory {
	spawn() { return Factory(); }
}
print Factory().spawn();`, "Factory instance\n")
}

// --- resolution errors -----------------------------------------------------

func TestSelfInitializerRejected(t *testing.T) {
	wantCompileError(t, "{ var a = a; }",
		"Can't read local variable in its own initializer.")
}

func TestDuplicateDeclarationInScope(t *testing.T) {
	wantCompileError(t, "{ var a = 1; var a = 2; }",
		"Already a variable with this name in this scope.")
}

func TestGlobalRedeclarationAllowed(t *testing.T) {
	wantOutput(t, "var a = 1; var a = 2; print a;", "2\n")
}

func TestTopLevelReturnRejected(t *testing.T) {
	wantCompileError(t, "return 1;", "Can't return from top-level code.")
}

func TestThisOutsideClassRejected(t *testing.T) {
	wantCompileError(t, "print this;", "Can't use 'this' outside of a class.")
	wantCompileError(t, "fun f() { return this; }",
		"Can't use 'this' outside of a class.")
}

func TestInitializerValueReturnRejected(t *testing.T) {
	wantCompileError(t, `
class C {
	init() { return 1; }
}`, "Can't return a value from an initializer.")
}

// --- runtime error behavior ------------------------------------------------

func TestRuntimeErrorAbortsStatements(t *testing.T) {
	out, _, rep := runSrc(t, `
print "before";
print 1/0;
print "after";`)

	if !rep.HadRuntimeError {
		t.Fatal("want runtime error")
	}
	if out != "before\n" {
		t.Fatalf("execution must stop at the failing statement, got %q", out)
	}
}

func TestInterpreterUsableAfterRuntimeError(t *testing.T) {
	rep := report.NewReporter()
	var errBuf bytes.Buffer
	rep.Err = &errBuf

	interp := NewInterpreter(rep)
	var outBuf bytes.Buffer
	interp.Out = &outBuf

	run := func(src string) {
		p := parser.MakeParser(src, rep)
		stmts := p.Parse()
		if !rep.HadError {
			NewResolver(interp, rep).Resolve(stmts)
		}
		if !rep.HadError {
			interp.Interpret(stmts)
		}
	}

	run("var a = 1; print 1/0;")
	run("print a;")

	if got := outBuf.String(); got != "1\n" {
		t.Fatalf("want globals to survive the error, got output %q", got)
	}
}

func TestRuntimeErrorLineNumber(t *testing.T) {
	wantRuntimeError(t, "var a = 1;\nvar b = 2;\nprint a / (b - 2);",
		"RuntimeError [line 3]: Cannot divide by zero.")
}
