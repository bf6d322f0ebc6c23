package sqlfuncs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allthingsida/idasql/internal/policy"
	"github.com/allthingsida/idasql/internal/vtab"
	"github.com/allthingsida/idasql/internal/workspace"
	"github.com/allthingsida/idasql/internal/workspace/memstub"
)

func newTestFuncs() (*Funcs, *memstub.Adapter) {
	a := memstub.New()
	return New(a, policy.Default()), a
}

func TestDisasmAndMnemonic(t *testing.T) {
	f, a := newTestFuncs()
	a.SetInstruction(workspace.Instruction{EA: 0x1000, Mnemonic: "mov", Operands: []string{"eax", "1"}})

	s, err := f.disasm(0x1000)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "mov eax, 1", *s)

	m, err := f.mnemonic(0x1000)
	require.NoError(t, err)
	assert.Equal(t, "mov", *m)

	missing, err := f.mnemonic(0x9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBytesHexAndRaw(t *testing.T) {
	f, a := newTestFuncs()
	a.SetBytes(0x2000, []byte{0xCC, 0xCC, 0x90})

	s, err := f.bytesHex(0x2000, 3)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "CC CC 90", *s)

	raw, err := f.bytesRaw(0x2000, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xCC, 0xCC, 0x90}, raw)
}

func TestFuncNavigation(t *testing.T) {
	f, a := newTestFuncs()
	a.AddFunction(workspace.Function{EA: 0x400000, Name: "main", EndEA: 0x400020})

	at, err := f.funcAt(0x400010)
	require.NoError(t, err)
	require.NotNil(t, at)
	assert.Equal(t, int64(0x400000), *at)

	start, err := f.funcStart(0x400010)
	require.NoError(t, err)
	assert.Equal(t, int64(0x400000), *start)

	end, err := f.funcEnd(0x400010)
	require.NoError(t, err)
	assert.Equal(t, int64(0x400020), *end)

	assert.Equal(t, int64(1), f.funcQty())

	idx, err := f.funcAtIndex(0)
	require.NoError(t, err)
	assert.Equal(t, int64(0x400000), *idx)
}

func TestSetNameAndSetComment(t *testing.T) {
	f, _ := newTestFuncs()
	_, err := f.setName(0x401000, "g_counter")
	require.NoError(t, err)
	n, err := f.nameAt(0x401000)
	require.NoError(t, err)
	assert.Equal(t, "g_counter", *n)

	_, err = f.setCommentRep(0x401000, "entry point", 1)
	require.NoError(t, err)
	c, err := f.commentAt(0x401000)
	require.NoError(t, err)
	// commentAt reads only the non-repeatable slot (spec §4.D
	// comment_at(ea)); the repeatable one written above isn't visible
	// through this accessor.
	assert.Nil(t, c)
}

func TestXrefsToFrom(t *testing.T) {
	f, a := newTestFuncs()
	a.AddXref(workspace.Xref{FromEA: 0x1000, ToEA: 0x2000, Type: "call", IsCode: true})
	a.AddXref(workspace.Xref{FromEA: 0x1010, ToEA: 0x2000, Type: "call", IsCode: true})

	js, err := f.xrefsTo(0x2000)
	require.NoError(t, err)
	assert.Contains(t, js, "4096") // 0x1000
	assert.Contains(t, js, "4112") // 0x1010

	js, err = f.xrefsFrom(0x1000)
	require.NoError(t, err)
	assert.Contains(t, js, "8192") // 0x2000
}

func TestHexFormatting(t *testing.T) {
	f, _ := newTestFuncs()
	assert.Equal(t, "0x401000", f.hex(0x401000))
	assert.Equal(t, "0x0", f.hex(0))
}

func TestDecompileAndListLvars(t *testing.T) {
	f, a := newTestFuncs()
	a.SetDecompiled(0x400000, &workspace.Decompiled{
		Lines: []workspace.PseudoLine{{FuncEA: 0x400000, LineNum: 0, Line: "int main() {"}},
		Lvars: []workspace.LocalVar{{FuncEA: 0x400000, Idx: 0, Name: "v0", Type: "int"}},
	})

	ok, err := f.decompile(0x400000)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ok)

	js, err := f.listLvars(0x400000)
	require.NoError(t, err)
	assert.Contains(t, js, `"name":"v0"`)

	renamed, err := f.renameLvar(0x400000, "v0", "count")
	require.NoError(t, err)
	assert.Equal(t, int64(1), renamed)

	d, err := a.Decompile(context.Background(), 0x400000, false)
	require.NoError(t, err)
	assert.Equal(t, "count", d.Lvars[0].Name)
	DumpCtreeDebug(d)
}

func TestSearchBytesAndFirst(t *testing.T) {
	f, a := newTestFuncs()
	a.SetBytes(0x3000, []byte{0x90, 0xCC, 0xCC, 0xCC, 0x90})

	first, err := f.searchFirst("CC CC CC")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, int64(0x3001), *first)

	js, err := f.searchBytes("CC CC CC")
	require.NoError(t, err)
	assert.Contains(t, js, "12289") // 0x3001
}

func TestJumpSearchAndQuery(t *testing.T) {
	f, a := newTestFuncs()
	a.AddFunction(workspace.Function{EA: 0x400000, Name: "main_loop", EndEA: 0x400010})
	a.AddType(workspace.TypeDef{Ordinal: 1, Name: "main_ctx", Kind: workspace.TypeStruct})

	js, err := f.jumpSearch("main", "contains", -1, 0)
	require.NoError(t, err)
	assert.Contains(t, js, "main_loop")
	assert.Contains(t, js, "main_ctx")

	sql := f.jumpQuery("main", "contains", 10, 0)
	assert.Contains(t, sql, "jump_entities")
	assert.Contains(t, sql, "LIMIT 10")
}

func TestJumpEntitiesTVF(t *testing.T) {
	a := memstub.New()
	a.AddFunction(workspace.Function{EA: 0x400000, Name: "parse_header", EndEA: 0x400010})
	spec := jumpEntitiesTable(a)

	args := vtab.FilterArgs{
		Ctx:    context.Background(),
		Limit:  -1,
		Values: map[int]any{6: "parse", 7: "prefix"},
	}
	iter, err := spec.TVFIterate(args)
	require.NoError(t, err)
	row, ok, err := iter.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "parse_header", row[0])

	_, missing, err := iter.Next()
	require.NoError(t, err)
	assert.False(t, missing)
}
