package rules

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aisa-it/redactor/internal/redactor/dom"
	lua "github.com/yuin/gopher-lua"
	"golang.org/x/net/html"
)

type LuaOut struct {
	Msg    string    `json:"msg"`
	Time   time.Time `json:"time"`
	FnName string    `json:"fn_name,omitempty"`
}

type debugInfo struct {
	Function *string   `json:"function"`
	Node     string    `json:"node,omitempty"`
	Time     time.Time `json:"time"`
}

func deniedLib(state *lua.LState) {
	state.SetGlobal("require", lua.LNil)
	state.SetGlobal("loadfile", lua.LNil)
	state.SetGlobal("dofile", lua.LNil)
	state.SetGlobal("load", lua.LNil)
	state.SetGlobal("loadstring", lua.LNil)
	state.SetGlobal("net", lua.LNil)
	state.SetGlobal("debug", lua.LNil)
	state.SetGlobal("coroutine", lua.LNil)
	state.SetGlobal("socket", lua.LNil)
	state.SetGlobal("lfs", lua.LNil)
	state.SetGlobal("os", lua.LNil)
	state.SetGlobal("io", lua.LNil)
	state.SetGlobal("package", lua.LNil)
	state.SetGlobal("ffi", lua.LNil)
}

// registerLogger подменяет print: сообщения копятся в глобальной таблице messages.
func registerLogger(state *lua.LState) {
	messages := state.NewTable()
	state.SetGlobal("messages", messages)
	state.SetGlobal("print", state.NewFunction(func(L *lua.LState) int {
		var message string
		numArgs := L.GetTop()
		for i := 1; i <= numArgs; i++ {
			arg := L.ToString(i)
			if i > 1 {
				message += " "
			}
			message += arg
		}
		msgTable := L.NewTable()
		msgTable.RawSetString("msg", lua.LString(message))
		currentTime := time.Now()
		formattedTime := fmt.Sprintf("%d.%09d", currentTime.Unix(), currentTime.Nanosecond())
		msgTable.RawSetString("time", lua.LString(formattedTime))
		messages.Append(msgTable)
		return 0
	}))
}

// readMessages забирает накопленные print сообщения и очищает таблицу.
func readMessages(state *lua.LState, fnName string) []LuaOut {
	messagesTable, ok := state.GetGlobal("messages").(*lua.LTable)
	if !ok {
		return nil
	}
	var messages []LuaOut
	for i := 1; i <= messagesTable.Len(); i++ {
		entry, ok := messagesTable.RawGetInt(i).(*lua.LTable)
		if !ok {
			continue
		}
		messages = append(messages, LuaOut{
			Msg:    entry.RawGetString("msg").String(),
			Time:   parseMessageTime(entry.RawGetString("time").String()),
			FnName: fnName,
		})
	}
	registerLogger(state)
	return messages
}

func parseMessageTime(s string) time.Time {
	sec, nsec, ok := strings.Cut(s, ".")
	if !ok {
		return time.Time{}
	}
	seconds, err := strconv.ParseInt(sec, 10, 64)
	nanoseconds, err2 := strconv.ParseInt(nsec, 10, 64)
	if err != nil || err2 != nil {
		return time.Time{}
	}
	return time.Unix(seconds, nanoseconds)
}

// hasClass - метод node:hasClass(name) для таблицы элемента.
func hasClass(L *lua.LState) int {
	self := L.CheckTable(1)
	name := L.CheckString(2)
	attrs, ok := self.RawGetString("attrs").(*lua.LTable)
	if !ok {
		L.Push(lua.LFalse)
		return 1
	}
	for _, cls := range strings.Fields(attrs.RawGetString("class").String()) {
		if cls == name {
			L.Push(lua.LTrue)
			return 1
		}
	}
	L.Push(lua.LFalse)
	return 1
}

// getNodeLTable строит таблицу {name, attrs, text} для элемента.
func getNodeLTable(state *lua.LState, name string, n *html.Node) *lua.LTable {
	node := state.NewTable()
	node.RawSetString("name", lua.LString(name))
	attrs := state.NewTable()
	for _, a := range n.Attr {
		attrs.RawSetString(strings.ToLower(a.Key), lua.LString(a.Val))
	}
	node.RawSetString("attrs", attrs)
	node.RawSetString("text", lua.LString(dom.TextContent(n)))

	metaTable := state.NewTable()
	state.SetFuncs(metaTable, map[string]lua.LGFunction{"hasClass": hasClass})
	state.SetField(metaTable, "__index", metaTable)
	state.SetMetatable(node, metaTable)
	return node
}

func stringList(v lua.LValue) []string {
	t, ok := v.(*lua.LTable)
	if !ok {
		return nil
	}
	var res []string
	for i := 1; i <= t.Len(); i++ {
		if s, ok := t.RawGetInt(i).(lua.LString); ok {
			res = append(res, strings.ToLower(string(s)))
		}
	}
	return res
}
