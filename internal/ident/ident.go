// Package ident provides the identifier interner: a bimap from relation and
// variable names to small 16-bit symbol ids, mirroring the
// string_interner::StringInterner<StringBackend<SymbolU16>> used by the
// original implog prototype (original_source/implog/src/ast.rs). The
// evaluator holds one of these purely for printing -- it never drives
// evaluation semantics, which operate entirely on Symbol values.
package ident

import "github.com/pkg/errors"

// Symbol is a dense 16-bit id assigned to a name in insertion order.
type Symbol uint16

// Interner assigns each distinct name a stable Symbol.
type Interner struct {
	idOf  map[string]Symbol
	names []string
}

// New creates an empty interner.
func New() *Interner {
	return &Interner{idOf: make(map[string]Symbol)}
}

// Intern returns the Symbol for name, minting a new one if name has not been
// seen before.
func (in *Interner) Intern(name string) Symbol {
	if s, ok := in.idOf[name]; ok {
		return s
	}
	if len(in.names) >= 1<<16 {
		panic(errors.New("ident: symbol table exhausted (more than 65536 distinct names)"))
	}
	s := Symbol(len(in.names))
	in.names = append(in.names, name)
	in.idOf[name] = s
	return s
}

// Name returns the name a Symbol was interned from. Panics (a contract
// violation) if s was never minted by this interner.
func (in *Interner) Name(s Symbol) string {
	if int(s) >= len(in.names) {
		panic(errors.Errorf("ident: symbol %d out of range (have %d)", s, len(in.names)))
	}
	return in.names[s]
}

// Lookup returns the Symbol for name without interning it, reporting
// whether name has been seen before.
func (in *Interner) Lookup(name string) (Symbol, bool) {
	s, ok := in.idOf[name]
	return s, ok
}
