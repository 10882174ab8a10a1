// Package expr implements the storylet expression language.
//
// Expressions are small boolean/arithmetic formulas such as
//
//	gold >= 5 and not has_key(door)
//
// evaluated against a Context of named scalars and host functions.
//
// PIPELINE:
//
// Tokenize splits source text into Tokens. ParseTokens builds a Node tree
// with one recursive-descent routine per precedence tier:
//
//	or  <  and  <  == != > < >= <=  <  + -  <  * /  <  not ! -  <  primary
//
// Eval walks the tree. Runtime values are exactly Bool, Number (float64) or
// Text; operators coerce operands on demand (see ToBool, ToNumber, ToText,
// MatchType). Write renders a tree back to source and Dump renders its
// structure for diagnostics.
//
// All failures are *Error values carrying an ErrorCode; use IsCode to test.
package expr
