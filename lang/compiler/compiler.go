// Package compiler implements the single-pass Pratt compiler that turns
// Lox source text directly into bytecode: it parses expressions and
// statements and emits instructions as it goes, resolving lexical scope,
// closure capture, and class/super semantics in the same pass.
package compiler

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/mna/glox/lang/bytecode"
	"github.com/mna/glox/lang/scanner"
	"github.com/mna/glox/lang/token"
)

// MaxLocals is the largest number of local variables (including function
// parameters) a single function body may declare.
const MaxLocals = 256

// MaxUpvalues is the largest number of variables a single function may
// capture from enclosing functions.
const MaxUpvalues = 256

// MaxArity is the largest number of parameters a function may declare, or
// arguments a call may pass.
const MaxArity = 255

type funcKind int

const (
	kindScript funcKind = iota
	kindFunction
	kindMethod
	kindInitializer
)

type local struct {
	name       string
	depth      int // -1 means declared but not yet initialized
	isCaptured bool
}

type upvalueDesc struct {
	isLocal bool
	index   uint8
}

// funcCompiler holds the compile-time state for one function currently
// being compiled: its locals, its upvalue descriptors, and a link to the
// compiler for the lexically enclosing function.
type funcCompiler struct {
	enclosing *funcCompiler
	function  *bytecode.Function
	kind      funcKind

	locals     []local
	scopeDepth int
	upvalues   []upvalueDesc
}

// classCompiler tracks the class currently being compiled, for validating
// `this` and `super`, and whether it declared a superclass.
type classCompiler struct {
	enclosing     *classCompiler
	hasSuperclass bool
}

// Compiler is a single-pass Pratt parser and bytecode emitter. A Compiler
// is single-use: create one per call to Compile.
type Compiler struct {
	scanner scanner.Scanner

	previous token.Token
	current  token.Token

	errs      ErrorList
	hadError  bool
	panicMode bool

	cur   *funcCompiler
	class *classCompiler
}

// Compile parses and compiles source into the top-level Function that
// serves as the entry point for the virtual machine. On any compile error
// it returns a nil function and a non-nil error (an ErrorList, or the
// single *CompileError it holds).
func Compile(source string) (*bytecode.Function, error) {
	c := &Compiler{}
	c.scanner.Init(source)

	c.cur = &funcCompiler{
		function:   &bytecode.Function{Name: ""},
		kind:       kindScript,
		scopeDepth: 0,
	}
	// Slot 0 is reserved for the callee/receiver and is otherwise unnamed
	// and unreachable for ordinary functions and the top-level script.
	c.cur.locals = append(c.cur.locals, local{name: "", depth: 0})

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}
	fn := c.endCompiler()

	if c.hadError {
		c.errs.Sort()
		return nil, c.errs.Err()
	}
	return fn, nil
}

func (c *Compiler) currentChunk() *bytecode.Chunk {
	return &c.cur.function.Chunk
}

// --- token stream -----------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.Scan()
		if c.current.Kind != token.ILLEGAL {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(kind token.Kind) bool {
	return c.current.Kind == kind
}

func (c *Compiler) match(kind token.Kind) bool {
	if !c.check(kind) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(kind token.Kind, msg string) {
	if c.current.Kind == kind {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.current, msg) }
func (c *Compiler) error(msg string)          { c.errorAt(c.previous, msg) }

func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	where := fmt.Sprintf(" at '%s'", tok.Lexeme)
	if tok.Kind == token.EOF {
		where = " at end"
	}
	c.errs.Add(tok.Line, fmt.Sprintf("[line %d] Error%s: %s", tok.Line, where, msg))
}

// synchronize realigns the parser at the next likely statement boundary
// after a syntax error, so that a single mistake does not cascade into a
// flood of spurious follow-on errors.
func (c *Compiler) synchronize() {
	c.panicMode = false

	for c.current.Kind != token.EOF {
		if c.previous.Kind == token.SEMICOLON {
			return
		}
		switch c.current.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF,
			token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

// --- emission -----------------------------------------------------------

func (c *Compiler) emitByte(b byte) {
	c.currentChunk().Write(b, c.previous.Line)
}

func (c *Compiler) emitOp(op bytecode.Opcode) {
	c.emitByte(byte(op))
}

func (c *Compiler) emitOpByte(op bytecode.Opcode, b byte) {
	c.emitOp(op)
	c.emitByte(b)
}

func (c *Compiler) emitOps(op1, op2 bytecode.Opcode) {
	c.emitOp(op1)
	c.emitOp(op2)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(bytecode.OpLoop)

	offset := c.currentChunk().Count() - loopStart + 2
	if offset > 0xffff {
		c.error("Loop body too large.")
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset & 0xff))
}

func (c *Compiler) emitJump(op bytecode.Opcode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return c.currentChunk().Count() - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := c.currentChunk().Count() - offset - 2
	if jump > 0xffff {
		c.error("Too much code to jump over.")
	}
	c.currentChunk().WriteAt(offset, byte(jump>>8))
	c.currentChunk().WriteAt(offset+1, byte(jump&0xff))
}

func (c *Compiler) emitReturn() {
	if c.cur.kind == kindInitializer {
		c.emitOpByte(bytecode.OpGetLocal, 0)
	} else {
		c.emitOp(bytecode.OpNil)
	}
	c.emitOp(bytecode.OpReturn)
}

func (c *Compiler) makeConstant(v bytecode.Value) uint8 {
	idx, ok := c.currentChunk().AddConstant(v)
	if !ok {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return idx
}

func (c *Compiler) emitConstant(v bytecode.Value) {
	c.emitOpByte(bytecode.OpConstant, c.makeConstant(v))
}

func (c *Compiler) identifierConstant(name string) uint8 {
	return c.makeConstant(bytecode.Str(name))
}

// --- scope & functions ---------------------------------------------------

func (c *Compiler) endCompiler() *bytecode.Function {
	c.emitReturn()
	fn := c.cur.function
	fn.UpvalueCount = len(c.cur.upvalues)
	c.cur = c.cur.enclosing
	return fn
}

func (c *Compiler) beginScope() {
	c.cur.scopeDepth++
}

func (c *Compiler) endScope() {
	c.cur.scopeDepth--

	fc := c.cur
	for len(fc.locals) > 0 && fc.locals[len(fc.locals)-1].depth > fc.scopeDepth {
		if fc.locals[len(fc.locals)-1].isCaptured {
			c.emitOp(bytecode.OpCloseUpvalue)
		} else {
			c.emitOp(bytecode.OpPop)
		}
		fc.locals = fc.locals[:len(fc.locals)-1]
	}
}

// --- variable resolution --------------------------------------------------

func (c *Compiler) addLocal(name string) {
	if len(c.cur.locals) >= MaxLocals {
		c.error("Too many local variables in function.")
		return
	}
	c.cur.locals = append(c.cur.locals, local{name: name, depth: -1})
}

func (c *Compiler) declareVariable() {
	if c.cur.scopeDepth == 0 {
		return
	}

	name := c.previous.Lexeme
	fc := c.cur
	for i := len(fc.locals) - 1; i >= 0; i-- {
		l := fc.locals[i]
		if l.depth != -1 && l.depth < fc.scopeDepth {
			break
		}
		if l.name == name {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) parseVariable(errMsg string) uint8 {
	c.consume(token.IDENT, errMsg)

	c.declareVariable()
	if c.cur.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.previous.Lexeme)
}

func (c *Compiler) markInitialized() {
	if c.cur.scopeDepth == 0 {
		return
	}
	c.cur.locals[len(c.cur.locals)-1].depth = c.cur.scopeDepth
}

func (c *Compiler) defineVariable(global uint8) {
	if c.cur.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(bytecode.OpDefineGlobal, global)
}

// resolveLocal looks up name among fc's own locals, innermost first. It
// returns -1 if not found, and reports a compile error (returning -1) if
// the name resolves to a local whose initializer is still being compiled.
func (c *Compiler) resolveLocal(fc *funcCompiler, name string) int {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		if fc.locals[i].name == name {
			if fc.locals[i].depth == -1 {
				c.error("Can't read local variable in its own initializer.")
				return -1
			}
			return i
		}
	}
	return -1
}

func (c *Compiler) addUpvalue(fc *funcCompiler, index uint8, isLocal bool) int {
	if i := slices.IndexFunc(fc.upvalues, func(uv upvalueDesc) bool {
		return uv.index == index && uv.isLocal == isLocal
	}); i != -1 {
		return i
	}
	if len(fc.upvalues) >= MaxUpvalues {
		c.error("Too many closure variables in function.")
		return 0
	}
	fc.upvalues = append(fc.upvalues, upvalueDesc{isLocal: isLocal, index: index})
	return len(fc.upvalues) - 1
}

// resolveUpvalue recursively walks enclosing function compilers to find
// name, capturing the local (or outer upvalue) it resolves to and
// returning the index of the upvalue descriptor in fc. It returns -1 if
// name is not found in any enclosing scope, meaning it must be a global.
func (c *Compiler) resolveUpvalue(fc *funcCompiler, name string) int {
	if fc.enclosing == nil {
		return -1
	}

	if local := c.resolveLocal(fc.enclosing, name); local != -1 {
		fc.enclosing.locals[local].isCaptured = true
		return c.addUpvalue(fc, uint8(local), true)
	}

	if upvalue := c.resolveUpvalue(fc.enclosing, name); upvalue != -1 {
		return c.addUpvalue(fc, uint8(upvalue), false)
	}

	return -1
}

func (c *Compiler) namedVariable(tok token.Token, canAssign bool) {
	var getOp, setOp bytecode.Opcode
	arg := c.resolveLocal(c.cur, tok.Lexeme)
	if arg != -1 {
		getOp, setOp = bytecode.OpGetLocal, bytecode.OpSetLocal
	} else if arg = c.resolveUpvalue(c.cur, tok.Lexeme); arg != -1 {
		getOp, setOp = bytecode.OpGetUpvalue, bytecode.OpSetUpvalue
	} else {
		arg = int(c.identifierConstant(tok.Lexeme))
		getOp, setOp = bytecode.OpGetGlobal, bytecode.OpSetGlobal
	}

	if canAssign && c.match(token.EQ) {
		c.expression()
		c.emitOpByte(setOp, byte(arg))
	} else {
		c.emitOpByte(getOp, byte(arg))
	}
}

// --- expressions ----------------------------------------------------------

func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	rule := getRule(c.previous.Kind)
	if rule.prefix == nil {
		c.error("Expect expression.")
		return
	}

	canAssign := prec <= PrecAssignment
	rule.prefix(c, canAssign)

	for prec <= getRule(c.current.Kind).prec {
		c.advance()
		infix := getRule(c.previous.Kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.EQ) {
		c.error("Invalid assignment target.")
	}
}

func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

func (c *Compiler) grouping(bool) {
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after expression.")
}

func (c *Compiler) number(bool) {
	var f float64
	fmt.Sscanf(c.previous.Lexeme, "%g", &f)
	c.emitConstant(bytecode.Number(f))
}

func (c *Compiler) string_(bool) {
	lex := c.previous.Lexeme
	c.emitConstant(bytecode.Str(lex[1 : len(lex)-1]))
}

func (c *Compiler) literal(bool) {
	switch c.previous.Kind {
	case token.FALSE:
		c.emitOp(bytecode.OpFalse)
	case token.NIL:
		c.emitOp(bytecode.OpNil)
	case token.TRUE:
		c.emitOp(bytecode.OpTrue)
	}
}

func (c *Compiler) unary(bool) {
	opKind := c.previous.Kind
	c.parsePrecedence(PrecUnary)

	switch opKind {
	case token.BANG:
		c.emitOp(bytecode.OpNot)
	case token.MINUS:
		c.emitOp(bytecode.OpNegate)
	}
}

func (c *Compiler) binary(bool) {
	opKind := c.previous.Kind
	rule := getRule(opKind)
	c.parsePrecedence(rule.prec + 1)

	switch opKind {
	case token.BANG_EQ:
		c.emitOps(bytecode.OpEqual, bytecode.OpNot)
	case token.EQ_EQ:
		c.emitOp(bytecode.OpEqual)
	case token.GT:
		c.emitOp(bytecode.OpGreater)
	case token.GT_EQ:
		c.emitOps(bytecode.OpLess, bytecode.OpNot)
	case token.LT:
		c.emitOp(bytecode.OpLess)
	case token.LT_EQ:
		c.emitOps(bytecode.OpGreater, bytecode.OpNot)
	case token.PLUS:
		c.emitOp(bytecode.OpAdd)
	case token.MINUS:
		c.emitOp(bytecode.OpSubtract)
	case token.STAR:
		c.emitOp(bytecode.OpMultiply)
	case token.SLASH:
		c.emitOp(bytecode.OpDivide)
	}
}

func (c *Compiler) and_(bool) {
	endJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or_(bool) {
	elseJump := c.emitJump(bytecode.OpJumpIfFalse)
	endJump := c.emitJump(bytecode.OpJump)

	c.patchJump(elseJump)
	c.emitOp(bytecode.OpPop)

	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

func (c *Compiler) call(bool) {
	argc := c.argumentList()
	c.emitOpByte(bytecode.OpCall, argc)
}

func (c *Compiler) argumentList() byte {
	var argc int
	if !c.check(token.RPAREN) {
		for {
			c.expression()
			if argc == MaxArity {
				c.error("Can't have more than 255 arguments.")
			}
			argc++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after arguments.")
	return byte(argc)
}

func (c *Compiler) dot(canAssign bool) {
	c.consume(token.IDENT, "Expect property name after '.'.")
	name := c.identifierConstant(c.previous.Lexeme)

	switch {
	case canAssign && c.match(token.EQ):
		c.expression()
		c.emitOpByte(bytecode.OpSetProperty, name)
	case c.match(token.LPAREN):
		argc := c.argumentList()
		c.emitOpByte(bytecode.OpInvoke, name)
		c.emitByte(argc)
	default:
		c.emitOpByte(bytecode.OpGetProperty, name)
	}
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

func (c *Compiler) this_(bool) {
	if c.class == nil {
		c.error("Can't use 'this' outside of a class.")
		return
	}
	c.namedVariable(c.previous, false)
}

func (c *Compiler) super_(bool) {
	switch {
	case c.class == nil:
		c.error("Can't use 'super' outside of a class.")
	case !c.class.hasSuperclass:
		c.error("Can't use 'super' in a class with no superclass.")
	}

	c.consume(token.DOT, "Expect '.' after 'super'.")
	c.consume(token.IDENT, "Expect superclass method name.")
	name := c.identifierConstant(c.previous.Lexeme)

	c.namedVariable(token.Token{Kind: token.IDENT, Lexeme: "this"}, false)
	if c.match(token.LPAREN) {
		argc := c.argumentList()
		c.namedVariable(token.Token{Kind: token.IDENT, Lexeme: "super"}, false)
		c.emitOpByte(bytecode.OpSuperInvoke, name)
		c.emitByte(argc)
	} else {
		c.namedVariable(token.Token{Kind: token.IDENT, Lexeme: "super"}, false)
		c.emitOpByte(bytecode.OpGetSuper, name)
	}
}

// --- statements -------------------------------------------------------

func (c *Compiler) declaration() {
	switch {
	case c.match(token.CLASS):
		c.classDeclaration()
	case c.match(token.FUN):
		c.funDeclaration()
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.statement()
	}

	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) classDeclaration() {
	c.consume(token.IDENT, "Expect class name.")
	className := c.previous
	nameConstant := c.identifierConstant(className.Lexeme)
	c.declareVariable()

	c.emitOpByte(bytecode.OpClass, nameConstant)
	c.defineVariable(nameConstant)

	c.class = &classCompiler{enclosing: c.class}

	if c.match(token.LT) {
		c.consume(token.IDENT, "Expect superclass name.")
		c.variable(false)

		if c.previous.Lexeme == className.Lexeme {
			c.error("A class can't inherit from itself.")
		}

		c.beginScope()
		c.addLocal("super")
		c.defineVariable(0)

		c.namedVariable(className, false)
		c.emitOp(bytecode.OpInherit)
		c.class.hasSuperclass = true
	}

	c.namedVariable(className, false)
	c.consume(token.LBRACE, "Expect '{' before class body.")
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RBRACE, "Expect '}' after class body.")
	c.emitOp(bytecode.OpPop)

	if c.class.hasSuperclass {
		c.endScope()
	}
	c.class = c.class.enclosing
}

func (c *Compiler) method() {
	c.consume(token.IDENT, "Expect method name.")
	name := c.previous.Lexeme
	constant := c.identifierConstant(name)

	kind := kindMethod
	if name == "init" {
		kind = kindInitializer
	}
	c.function(kind)
	c.emitOpByte(bytecode.OpMethod, constant)
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.function(kindFunction)
	c.defineVariable(global)
}

func (c *Compiler) function(kind funcKind) {
	fc := &funcCompiler{
		enclosing: c.cur,
		kind:      kind,
		function:  &bytecode.Function{Name: c.previous.Lexeme},
	}
	if kind != kindFunction {
		fc.locals = append(fc.locals, local{name: "this", depth: 0})
	} else {
		fc.locals = append(fc.locals, local{name: "", depth: 0})
	}
	c.cur = fc

	c.beginScope()
	c.consume(token.LPAREN, "Expect '(' after function name.")
	if !c.check(token.RPAREN) {
		for {
			c.cur.function.Arity++
			if c.cur.function.Arity > MaxArity {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := c.parseVariable("Expect parameter name.")
			c.defineVariable(constant)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after parameters.")
	c.consume(token.LBRACE, "Expect '{' before function body.")
	c.block()

	fn := c.endCompiler()
	upvalues := fc.upvalues

	c.emitOpByte(bytecode.OpClosure, c.makeConstant(bytecode.Obj(bytecode.KindFunction, fn)))
	for _, uv := range upvalues {
		b := byte(0)
		if uv.isLocal {
			b = 1
		}
		c.emitByte(b)
		c.emitByte(uv.index)
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")

	if c.match(token.EQ) {
		c.expression()
	} else {
		c.emitOp(bytecode.OpNil)
	}
	c.consume(token.SEMICOLON, "Expect ';' after variable declaration.")

	c.defineVariable(global)
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBRACE, "Expect '}' after block.")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after value.")
	c.emitOp(bytecode.OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.emitOp(bytecode.OpPop)
}

func (c *Compiler) ifStatement() {
	c.consume(token.LPAREN, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.statement()

	elseJump := c.emitJump(bytecode.OpJump)
	c.patchJump(thenJump)
	c.emitOp(bytecode.OpPop)

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := c.currentChunk().Count()
	c.consume(token.LPAREN, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(bytecode.OpPop)
}

func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LPAREN, "Expect '(' after 'for'.")

	switch {
	case c.match(token.SEMICOLON):
		// no initializer
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := c.currentChunk().Count()
	exitJump := -1
	if !c.match(token.SEMICOLON) {
		c.expression()
		c.consume(token.SEMICOLON, "Expect ';' after loop condition.")

		exitJump = c.emitJump(bytecode.OpJumpIfFalse)
		c.emitOp(bytecode.OpPop)
	}

	if !c.match(token.RPAREN) {
		bodyJump := c.emitJump(bytecode.OpJump)

		incrementStart := c.currentChunk().Count()
		c.expression()
		c.emitOp(bytecode.OpPop)
		c.consume(token.RPAREN, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(bytecode.OpPop)
	}

	c.endScope()
}

func (c *Compiler) returnStatement() {
	if c.cur.kind == kindScript {
		c.error("Can't return from top-level code.")
	}

	if c.match(token.SEMICOLON) {
		c.emitReturn()
		return
	}

	if c.cur.kind == kindInitializer {
		c.error("Can't return a value from an initializer.")
	}
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after return value.")
	c.emitOp(bytecode.OpReturn)
}
