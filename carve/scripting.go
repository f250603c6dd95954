package carve

// Lua scripting, for carving a whole batch of dumps with different settings
// in one go.

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"

	lua "github.com/yuin/gopher-lua"
)

// General tracking for the entire lua script
type ScriptState struct {
	FileDirectory string
	Arguments     []string
	Logs          strings.Builder
}

// Get full path to given file requested by user. The system has a way to set
// the "working directory" for the whole script, that's all
func (state *ScriptState) FilePath(path string) string {
	if state.FileDirectory == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(state.FileDirectory, path)
}

// Add a function to the given lua state that actually tracks with our own state.
// Usually lua functions don't accept extra go parameters
func (state *ScriptState) AddFunction(name string, f func(*lua.LState, *ScriptState) int, L *lua.LState) {
	L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int { return f(L, state) }))
}

func pullString(table *lua.LTable, key string, done func(string)) bool {
	ttemp := table.RawGetString(key)
	tstring, ok := ttemp.(lua.LString)
	if ok {
		done(string(tstring))
	}
	return ok
}

func pullInt(table *lua.LTable, key string, done func(int)) bool {
	ttemp := table.RawGetString(key)
	tnum, ok := ttemp.(lua.LNumber)
	if ok {
		done(int(tnum))
	}
	return ok
}

func pullBool(table *lua.LTable, key string, done func(bool)) bool {
	ttemp := table.RawGetString(key)
	tbool, ok := ttemp.(lua.LBool)
	if ok {
		done(bool(tbool))
	}
	return ok
}

// Read the optional settings table passed to carve/scan
func luaConfig(L *lua.LState, state *ScriptState, index int) Config {
	config := DefaultConfig()
	options := L.OptTable(index, nil)
	if options != nil {
		pullInt(options, "stride", func(v int) { config.Stride = int64(v) })
		pullInt(options, "block_size", func(v int) { config.BlockSize = v })
		pullString(options, "output", func(v string) { config.Output = v })
		pullBool(options, "keep_going", func(v bool) { config.KeepGoing = v })
		pullBool(options, "mkdir", func(v bool) { config.Mkdir = v })
		pullBool(options, "hex", func(v bool) { config.Hex = v })
	}
	config.Output = state.FilePath(config.Output)
	err := config.Validate()
	if err != nil {
		L.RaiseError("Bad carve settings: %s", err)
	}
	return config
}

func luaImageTable(L *lua.LState, image *CarvedImage) *lua.LTable {
	result := L.CreateTable(0, 12)
	result.RawSetString("id", lua.LNumber(image.ID))
	result.RawSetString("filename", lua.LString(image.Filename))
	result.RawSetString("offset", lua.LNumber(image.Offset))
	result.RawSetString("length", lua.LNumber(image.SourceLength))
	result.RawSetString("written", lua.LNumber(image.Written))
	result.RawSetString("complete", lua.LBool(image.Complete))
	result.RawSetString("stopped", lua.LString(image.Stopped))
	result.RawSetString("md5", lua.LString(image.MD5))
	result.RawSetString("error", lua.LString(image.Error))
	chunks := L.CreateTable(len(image.Chunks), 0)
	for _, c := range image.Chunks {
		chunks.Append(lua.LString(c))
	}
	result.RawSetString("chunks", chunks)
	if image.Header != nil {
		result.RawSetString("width", lua.LNumber(image.Header.Width))
		result.RawSetString("height", lua.LNumber(image.Header.Height))
	}
	return result
}

func luaRunScan(L *lua.LState, state *ScriptState, sink ImageSink) int {
	path := state.FilePath(L.CheckString(1))
	config := luaConfig(L, state, 2)
	if sink == nil {
		err := config.PrepareOutput()
		if err != nil {
			L.RaiseError("Couldn't create output folder %s: %s", config.Output, err)
			return 0
		}
	}
	src, closer, err := OpenSource(path, config.Hex)
	if err != nil {
		L.RaiseError("Couldn't open %s: %s", path, err)
		return 0
	}
	defer closer.Close()
	result, err := config.NewScanner(sink).Scan(src)
	if err != nil {
		L.RaiseError("Couldn't scan %s: %s", path, err)
		return 0
	}
	images := L.CreateTable(len(result.Images), 0)
	for _, image := range result.Images {
		images.Append(luaImageTable(L, image))
	}
	L.Push(images)
	return 1
}

// carve(path, [options]) -> images. Writes files
func luaCarve(L *lua.LState, state *ScriptState) int {
	return luaRunScan(L, state, nil)
}

// scan(path, [options]) -> images. Writes nothing
func luaScan(L *lua.LState, state *ScriptState) int {
	return luaRunScan(L, state, DiscardSink{})
}

func luaArguments(L *lua.LState, state *ScriptState) int {
	for _, a := range state.Arguments {
		L.Push(lua.LString(a))
	}
	return len(state.Arguments)
}

// Logs are collected so the caller gets them back, plus they go to the real log
func luaLog(L *lua.LState, state *ScriptState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	line := strings.Join(parts, "\t")
	log.Printf("[lua] %s\n", line)
	state.Logs.WriteString(line)
	state.Logs.WriteString("\n")
	return 0
}

// Simple function to decode a toml string into a lua table. Returns the table.
func luaToml(L *lua.LState) int {
	str := L.ToString(1)
	tree, err := toml.Load(str)
	if err != nil {
		L.RaiseError("Couldn't parse toml: %s", err)
		return 0
	}
	L.Push(luaDecodeValue(L, tree.ToMap()))
	return 1
}

// Only converts the kinds of values toml decodes to. Everything else is nil
func luaDecodeValue(L *lua.LState, value interface{}) lua.LValue {
	switch converted := value.(type) {
	case bool:
		return lua.LBool(converted)
	case float64:
		return lua.LNumber(converted)
	case int64:
		return lua.LNumber(converted)
	case string:
		return lua.LString(converted)
	case []interface{}:
		arr := L.CreateTable(len(converted), 0)
		for _, item := range converted {
			arr.Append(luaDecodeValue(L, item))
		}
		return arr
	case map[string]interface{}:
		tbl := L.CreateTable(0, len(converted))
		for key, item := range converted {
			tbl.RawSetH(lua.LString(key), luaDecodeValue(L, item))
		}
		return tbl
	}
	return lua.LNil
}

// Get basic info about the entries in a directory, in "filesystem" order
func luaListDir(L *lua.LState, state *ScriptState) int {
	path := state.FilePath(L.ToString(1))
	entries, err := os.ReadDir(path)
	if err != nil {
		L.RaiseError("Couldn't read directory: %s", err)
		return 0
	}
	result := L.CreateTable(len(entries), 0)
	for _, entry := range entries {
		entrytable := L.CreateTable(0, 3)
		entrytable.RawSetString("name", lua.LString(entry.Name()))
		entrytable.RawSetString("path", lua.LString(filepath.Join(path, entry.Name())))
		entrytable.RawSetString("is_directory", lua.LBool(entry.IsDir()))
		result.Append(entrytable)
	}
	L.Push(result)
	return 1
}

// Run a carving script. Relative paths inside the script are resolved against
// dir (if given). Returns everything the script logged
func RunLuaCarveScript(script string, arguments []string, dir string) (string, error) {
	state := ScriptState{
		FileDirectory: dir,
		Arguments:     arguments,
	}

	L := lua.NewState()
	defer L.Close()

	L.SetGlobal("toml", L.NewFunction(luaToml))
	state.AddFunction("arguments", luaArguments, L)
	state.AddFunction("log", luaLog, L)
	state.AddFunction("carve", luaCarve, L)
	state.AddFunction("scan", luaScan, L)
	state.AddFunction("listdir", luaListDir, L)

	err := L.DoString(script)
	if err != nil {
		return state.Logs.String(), fmt.Errorf("lua script failed: %w", err)
	}
	return state.Logs.String(), nil
}
