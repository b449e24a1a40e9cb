package corewasm

import "github.com/corewasm/corewasm/internal/instance"

// Importable is anything that can sit on the right-hand side of an
// ImportObject entry: *Function, *Memory, *Global, or *Table.
type Importable interface {
	toExtern() *instance.Extern
}

// ImportObject is the construction helper wasmer-rust calls `imports! {
// "mod" => { "field" => extern, … }, … }`: Go has no macro facility to
// mirror that literal syntax, so this is an ordinary builder instead.
type ImportObject struct {
	obj *instance.ImportObject
}

// NewImportObject returns an empty ImportObject.
func NewImportObject() *ImportObject {
	return &ImportObject{obj: instance.NewImportObject()}
}

// Register adds one import under (module, field), returning io so calls
// can be chained: `imports.Register("env", "log", logFn).Register(...)`.
func (io *ImportObject) Register(module, field string, v Importable) *ImportObject {
	io.obj.Register(module, field, v.toExtern())
	return io
}

// Imports builds an ImportObject from a nested map literal, the closest Go
// idiom gets to `imports! { "mod" => { "field" => extern, ... }, ... }`:
//
//	corewasm.Imports(map[string]map[string]corewasm.Importable{
//	    "env": {"log": logFn, "memory": sharedMem},
//	})
func Imports(modules map[string]map[string]Importable) *ImportObject {
	io := NewImportObject()
	for mod, fields := range modules {
		for field, v := range fields {
			io.Register(mod, field, v)
		}
	}
	return io
}
