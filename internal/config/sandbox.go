package config

import (
	lua "github.com/yuin/gopher-lua"
)

// sandboxLuaVM removes the parts of the standard library that reach outside
// the VM: os and io, module loading and the debug library. string, table,
// math and the basic functions stay available.
func sandboxLuaVM(L *lua.LState) {
	L.SetGlobal("os", lua.LNil)
	L.SetGlobal("io", lua.LNil)

	L.SetGlobal("require", lua.LNil)
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)
	L.SetGlobal("load", lua.LNil)
	L.SetGlobal("loadstring", lua.LNil)

	L.SetGlobal("debug", lua.LNil)
}

// newSandboxedVM creates a new Lua VM with sandboxing applied.
func newSandboxedVM() *lua.LState {
	L := lua.NewState(lua.Options{
		CallStackSize:       maxCallStackSize,
		RegistrySize:        maxRegistrySize,
		SkipOpenLibs:        false,
		IncludeGoStackTrace: false,
	})
	sandboxLuaVM(L)
	return L
}
