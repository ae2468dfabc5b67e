// Package shortcut registers the global push-to-talk hotkey.
package shortcut

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.design/x/hotkey"
)

// ErrUnsupported is returned on platforms where global hotkeys are disabled
var ErrUnsupported = errors.New("global hotkeys are not supported on this platform")

// Combo is a parsed key combination such as ctrl+shift+s
type Combo struct {
	Mods []hotkey.Modifier
	Key  hotkey.Key
	text string
}

func (c Combo) String() string {
	return c.text
}

var modifiers = map[string]hotkey.Modifier{
	"ctrl":    hotkey.ModCtrl,
	"control": hotkey.ModCtrl,
	"shift":   hotkey.ModShift,
}

var keys = map[string]hotkey.Key{
	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD,
	"e": hotkey.KeyE, "f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH,
	"i": hotkey.KeyI, "j": hotkey.KeyJ, "k": hotkey.KeyK, "l": hotkey.KeyL,
	"m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO, "p": hotkey.KeyP,
	"q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX,
	"y": hotkey.KeyY, "z": hotkey.KeyZ,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,
	"space": hotkey.KeySpace,
}

// Parse reads a combination like "ctrl+shift+s". Only ctrl and shift are
// accepted as modifiers since they exist on every platform.
func Parse(s string) (Combo, error) {
	text := strings.ToLower(strings.TrimSpace(s))
	if text == "" {
		return Combo{}, errors.New("empty hotkey")
	}

	var combo Combo
	var haveKey bool
	seen := map[hotkey.Modifier]bool{}

	for _, part := range strings.Split(text, "+") {
		part = strings.TrimSpace(part)
		if mod, ok := modifiers[part]; ok {
			if !seen[mod] {
				combo.Mods = append(combo.Mods, mod)
				seen[mod] = true
			}
			continue
		}
		key, ok := keys[part]
		if !ok {
			return Combo{}, fmt.Errorf("hotkey %q: unknown key %q", s, part)
		}
		if haveKey {
			return Combo{}, fmt.Errorf("hotkey %q: more than one key", s)
		}
		combo.Key = key
		haveKey = true
	}

	if !haveKey {
		return Combo{}, fmt.Errorf("hotkey %q: no key", s)
	}
	if len(combo.Mods) == 0 {
		return Combo{}, fmt.Errorf("hotkey %q: needs ctrl or shift", s)
	}

	combo.text = text
	return combo, nil
}

// Listener calls a function on every press of a registered hotkey
type Listener struct {
	hk        *hotkey.Hotkey
	combo     Combo
	closeOnce sync.Once
}

// Register grabs combo system wide and calls fn from a background goroutine
// on every key press. fn must hand work to the UI thread itself.
func Register(combo Combo, fn func(), logger *zap.SugaredLogger) (*Listener, error) {
	// golang.design/x/hotkey needs the Cocoa main thread, which fyne owns
	if runtime.GOOS == "darwin" {
		return nil, ErrUnsupported
	}

	hk := hotkey.New(combo.Mods, combo.Key)
	if err := hk.Register(); err != nil {
		return nil, fmt.Errorf("failed to register hotkey %s: %w", combo, err)
	}

	l := &Listener{hk: hk, combo: combo}
	go func() {
		for range hk.Keydown() {
			logger.Debugw("hotkey pressed", "hotkey", combo.String())
			fn()
		}
	}()

	logger.Infow("hotkey registered", "hotkey", combo.String())
	return l, nil
}

// Close releases the hotkey. It is safe to call more than once.
func (l *Listener) Close() error {
	if l == nil {
		return nil
	}
	var err error
	l.closeOnce.Do(func() {
		err = l.hk.Unregister()
	})
	return err
}
