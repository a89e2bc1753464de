// Package dex programmatically emits executable Dalvik bytecode: callers
// describe classes, methods and method bodies as abstract operations and
// receive the exact code-unit stream the runtime loader requires, without
// hand-assembling instructions.
//
// The package is a miniature compiler backend built from:
//
//   - Value: a tagged operand (register, parameter, immediate, string,
//     label or type reference). Parameters are kept separate from locals
//     because their real register numbers are unknown until the whole
//     body has been built.
//
//   - Instruction: a virtual instruction recorded during body
//     construction and converted to concrete encodings in a single
//     encode pass.
//
//   - MethodBuilder: allocates registers and labels, accumulates virtual
//     instructions in program order, and runs the one-shot encode pass,
//     back-patching forward branch references as labels are bound.
//
//   - DexBuilder / ClassBuilder: intern strings, types, prototypes and
//     method declarations (get-or-create, append-only) and compose
//     classes; final container assembly is delegated to pkg/dexfile.
//
// Registers are never reused and no liveness analysis is performed;
// callers manage register pressure. Builders are not safe for concurrent
// use: one DexBuilder, and everything created from it, belongs to a
// single goroutine for the duration of one build.
package dex
