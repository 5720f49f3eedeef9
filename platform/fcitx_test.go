package platform

import (
	"errors"
	"testing"

	"github.com/dasdy/keyoverlay/layout"
	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
)

type fakeBus struct {
	reply  string
	err    error
	called []string
}

func (f *fakeBus) Call(method string, _ dbus.Flags, _ ...any) *dbus.Call {
	f.called = append(f.called, method)

	return &dbus.Call{Err: f.err, Body: []any{f.reply}}
}

func TestFcitxDetect(t *testing.T) {
	bus := &fakeBus{reply: "keyboard-ru"}
	f := &Fcitx{obj: bus}

	assert.Equal(t, layout.Russian, f.Detect())
	assert.Equal(t, []string{"org.fcitx.Fcitx.Controller1.CurrentInputMethod"}, bus.called)

	bus.err = errors.New("no such service")
	assert.Equal(t, layout.English, f.Detect())
	assert.True(t, f.failed)

	bus.err = nil
	bus.reply = "keyboard-us"
	assert.Equal(t, layout.English, f.Detect())
	assert.False(t, f.failed)
}
