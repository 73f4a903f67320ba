// Пакет позволяет описывать исключения очистки разметки Lua-скриптом. Скрипт объявляет функцию
// transform(node), которая вызывается для каждого элемента до проверки белым списком.
//
// Основные возможности:
//   - Компиляция скрипта в песочнице без доступа к os, io, require и другим опасным библиотекам.
//   - Передача элемента в скрипт таблицей {name, attrs, text} с методом node:hasClass(name).
//   - Разбор результата: whitelist, attrs, drop, rename, text, error.
//   - Ограничение времени выполнения и сбор сообщений print.
package rules

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aisa-it/redactor/internal/redactor/dom"
	policy "github.com/aisa-it/redactor/internal/redactor/redactor-policy"
	lua "github.com/yuin/gopher-lua"
)

const transformFn = "transform"

const DefaultTimeout = 10 * time.Second

// Script - скомпилированный скрипт очистки. LState не потокобезопасен, вызовы сериализуются мьютексом.
type Script struct {
	mu       sync.Mutex
	source   string
	timeout  time.Duration
	state    *lua.LState
	fn       lua.LValue
	messages []LuaOut
	errs     []IRulesError
}

func NewTransformer(source string) (*Script, error) {
	return NewTransformerWithTimeout(source, DefaultTimeout)
}

func NewTransformerWithTimeout(source string, timeout time.Duration) (*Script, error) {
	s := &Script{source: source, timeout: timeout}
	if err := s.compile(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFile читает скрипт с диска.
func LoadFile(path string) (*Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules script: %w", err)
	}
	return NewTransformer(string(b))
}

func newRulesError(info *debugInfo, errFull *errDescription, err string) *rulesError {
	info.Time = time.Now()
	return &rulesError{
		Err:     err,
		Info:    info,
		FullErr: errFull,
	}
}

func (s *Script) compile() IRulesError {
	fnName := transformFn
	info := &debugInfo{Function: &fnName}
	errFull := &errDescription{}

	state := lua.NewState()
	deniedLib(state)
	registerLogger(state)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := run(ctx, state, func() error { return state.DoString(s.source) }); err != nil {
		state.Close()
		if ctx.Err() != nil {
			errFull.ErrMsg = "Lua execution timed out"
			return newRulesError(info, errFull, errScript)
		}
		luaErr := strings.TrimSpace(err.Error())
		errFull.ErrMsg = errParseScript
		errFull.LuaError = &luaErr
		return newRulesError(info, errFull, errParseScript)
	}

	fn := state.GetGlobal(transformFn)
	if fn.Type() != lua.LTFunction {
		state.Close()
		errFull.ErrMsg = "Lua script must define function transform(node)"
		return newRulesError(info, errFull, errParseScript)
	}

	s.state = state
	s.fn = fn
	return nil
}

// run выполняет f с контекстом на состоянии. При отмене контекста виртуальная машина
// прерывается, поэтому горутина всегда дожидается завершения f.
func run(ctx context.Context, state *lua.LState, f func() error) error {
	state.SetContext(ctx)
	defer state.RemoveContext()

	errChan := make(chan error, 1)
	go func() {
		errChan <- f()
	}()

	select {
	case <-ctx.Done():
		<-errChan
		return ctx.Err()
	case err := <-errChan:
		return err
	}
}

// Call вызывает transform для элемента. nil результат означает решение белого списка без изменений.
func (s *Script) Call(in policy.TransformInput) (*policy.TransformOutput, IRulesError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fnName := transformFn
	info := &debugInfo{Function: &fnName, Node: in.Name}
	errFull := &errDescription{}

	if s.state == nil {
		errFull.ErrMsg = "script is closed"
		return nil, newRulesError(info, errFull, errScript)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	node := getNodeLTable(s.state, in.Name, in.Node)
	var ret lua.LValue = lua.LNil
	err := run(ctx, s.state, func() error {
		if err := s.state.CallByParam(lua.P{
			Fn:      s.fn,
			NRet:    1,
			Protect: true,
		}, node); err != nil {
			return err
		}
		ret = s.state.Get(-1)
		s.state.Pop(1)
		return nil
	})

	if ctx.Err() != nil {
		s.messages = append(s.messages, readMessages(s.state, fnName)...)
		errFull.ErrMsg = "Lua execution timed out"
		s.reset()
		return nil, newRulesError(info, errFull, errScript)
	}
	s.messages = append(s.messages, readMessages(s.state, fnName)...)
	if err != nil {
		luaErr := strings.TrimSpace(err.Error())
		errFull.ErrMsg = "Script error"
		errFull.LuaError = &luaErr
		return nil, newRulesError(info, errFull, errScript)
	}

	if ret == lua.LNil {
		return nil, nil
	}
	retTable, ok := ret.(*lua.LTable)
	if !ok {
		luaErr := strings.TrimSpace(ret.Type().String())
		errFull.ErrMsg = "Unexpected return type from Lua script expected table"
		errFull.LuaError = &luaErr
		return nil, newRulesError(info, errFull, errScript)
	}

	if errStr := retTable.RawGetString("error"); errStr != lua.LNil {
		e := newRulesError(info, errFull, errStr.String())
		e.SetClientError()
		return &policy.TransformOutput{Drop: true}, e
	}

	out := &policy.TransformOutput{
		Whitelist:     lua.LVAsBool(retTable.RawGetString("whitelist")),
		AttrWhitelist: stringList(retTable.RawGetString("attrs")),
		Drop:          lua.LVAsBool(retTable.RawGetString("drop")),
	}
	if text, ok := retTable.RawGetString("text").(lua.LString); ok {
		out.Node = dom.NewText(string(text))
	} else if rename, ok := retTable.RawGetString("rename").(lua.LString); ok && rename != "" {
		el := dom.NewElement(strings.ToLower(string(rename)))
		el.Attr = slices.Clone(in.Node.Attr)
		dom.MoveChildren(el, dom.Clone(in.Node, true))
		out.Node = el
	}
	return out, nil
}

// reset пересоздает состояние после прерывания по таймауту.
func (s *Script) reset() {
	s.state.Close()
	s.state = nil
	if err := s.compile(); err != nil {
		slog.Error("Recompile rules script", "err", err)
	}
}

// Transform - policy.Transformer. Ошибки скрипта логируются и копятся до вызова Errors.
func (s *Script) Transform(in policy.TransformInput) *policy.TransformOutput {
	out, err := s.Call(in)
	if err != nil {
		msg, luaErr, _ := err.ScriptError()
		slog.Warn("Rules script", "node", in.Name, "err", err, "msg", msg, "luaErr", luaErr)
		s.mu.Lock()
		s.errs = append(s.errs, err)
		s.mu.Unlock()
	}
	return out
}

func (s *Script) Transformer() policy.Transformer {
	return s.Transform
}

// Messages возвращает вывод print и очищает его.
func (s *Script) Messages() []LuaOut {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.messages
	s.messages = nil
	return res
}

// Errors возвращает накопленные ошибки вызовов и очищает их.
func (s *Script) Errors() []IRulesError {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.errs
	s.errs = nil
	return res
}

func (s *Script) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != nil {
		s.state.Close()
		s.state = nil
	}
}
