package driver

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"
	"go.uber.org/zap"

	"github.com/mamba-ml/mamba/internal/marshal"
)

// Caller invokes a named foreign routine that takes every argument by
// address and returns nothing.
type Caller interface {
	Call(routine string, args ...marshal.Handle) error
}

// Library is a loaded shared library. It is not safe for concurrent use.
type Library struct {
	name   string
	path   string
	handle unsafe.Pointer
	logger *zap.Logger

	symbols map[string]unsafe.Pointer
	cifs    map[int]*types.CallInterface
}

// Compile-time check that Library implements Caller.
var _ Caller = (*Library)(nil)

// Open locates name in dir (see FindLibrary) and loads it.
func Open(name, dir string, logger *zap.Logger) (*Library, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	path, err := FindLibrary(name, dir)
	if err != nil {
		return nil, err
	}

	handle, err := ffi.LoadLibrary(path)
	if err != nil {
		return nil, &ForeignCallError{Routine: path, Err: fmt.Errorf("unable to load %s: %w", name, err)}
	}
	logger.Debug("loaded library", zap.String("name", name), zap.String("path", path))

	return &Library{
		name:    name,
		path:    path,
		handle:  handle,
		logger:  logger,
		symbols: make(map[string]unsafe.Pointer),
		cifs:    make(map[int]*types.CallInterface),
	}, nil
}

// Name returns the library base name.
func (l *Library) Name() string { return l.name }

// Path returns the path the library was loaded from.
func (l *Library) Path() string { return l.path }

// Symbol resolves a routine by name. Results are cached.
func (l *Library) Symbol(name string) (unsafe.Pointer, error) {
	if l.handle == nil {
		return nil, &ForeignCallError{Routine: name, Err: fmt.Errorf("library %s is closed", l.name)}
	}
	if sym, ok := l.symbols[name]; ok {
		return sym, nil
	}

	sym, err := ffi.GetSymbol(l.handle, name)
	if err != nil {
		return nil, &ForeignCallError{Routine: name, Err: err}
	}
	if sym == nil {
		return nil, &ForeignCallError{Routine: name, Err: fmt.Errorf("symbol not found in %s", l.path)}
	}
	l.symbols[name] = sym
	return sym, nil
}

// callInterface returns the prepared signature void f(void*, ..., void*)
// with arity pointer arguments.
func (l *Library) callInterface(arity int) (*types.CallInterface, error) {
	if cif, ok := l.cifs[arity]; ok {
		return cif, nil
	}

	argTypes := make([]*types.TypeDescriptor, arity)
	for i := range argTypes {
		argTypes[i] = types.PointerTypeDescriptor
	}
	cif := &types.CallInterface{}
	if err := ffi.PrepareCallInterface(cif, types.DefaultCall, types.VoidTypeDescriptor, argTypes); err != nil {
		return nil, err
	}
	l.cifs[arity] = cif
	return cif, nil
}

// Call invokes routine passing each handle's address. Buffers and foreign
// values behind the handles are kept alive for the duration of the call.
func (l *Library) Call(routine string, args ...marshal.Handle) error {
	fn, err := l.Symbol(routine)
	if err != nil {
		return err
	}
	cif, err := l.callInterface(len(args))
	if err != nil {
		return &ForeignCallError{Routine: routine, Err: err}
	}

	ptrs := make([]unsafe.Pointer, len(args))
	avalue := make([]unsafe.Pointer, len(args))
	for i, h := range args {
		ptrs[i] = h.Pointer()
		avalue[i] = unsafe.Pointer(&ptrs[i])
	}

	l.logger.Debug("calling routine", zap.String("routine", routine), zap.Int("args", len(args)))
	err = ffi.CallFunction(cif, fn, nil, avalue)
	for _, h := range args {
		runtime.KeepAlive(h.Referent())
	}
	if err != nil {
		return &ForeignCallError{Routine: routine, Err: err}
	}
	return nil
}

// Close unloads the library. Symbols resolved earlier must not be used
// afterwards.
func (l *Library) Close() error {
	if l.handle == nil {
		return nil
	}
	err := ffi.FreeLibrary(l.handle)
	l.handle = nil
	clear(l.symbols)
	if err != nil {
		return &ForeignCallError{Routine: l.path, Err: err}
	}
	return nil
}
