package x11

import (
	"testing"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/stretchr/testify/assert"

	"github.com/bryanchriswhite/focuswm/internal/config"
)

func TestConfigureValues(t *testing.T) {
	ev := xproto.ConfigureRequestEvent{
		X:           -10,
		Y:           20,
		Width:       640,
		Height:      480,
		BorderWidth: 2,
		Sibling:     0x1234,
		StackMode:   xproto.StackModeBelow,
	}

	t.Run("all fields in protocol order", func(t *testing.T) {
		ev := ev
		ev.ValueMask = xproto.ConfigWindowX | xproto.ConfigWindowY |
			xproto.ConfigWindowWidth | xproto.ConfigWindowHeight |
			xproto.ConfigWindowBorderWidth | xproto.ConfigWindowSibling |
			xproto.ConfigWindowStackMode
		mask, values := configureValues(ev)
		assert.Equal(t, ev.ValueMask, mask)
		assert.Equal(t, []uint32{0xfffffff6, 20, 640, 480, 2, 0x1234, xproto.StackModeBelow}, values)
	})

	t.Run("subset", func(t *testing.T) {
		ev := ev
		ev.ValueMask = xproto.ConfigWindowWidth | xproto.ConfigWindowStackMode
		_, values := configureValues(ev)
		assert.Equal(t, []uint32{640, xproto.StackModeBelow}, values)
	})

	t.Run("empty", func(t *testing.T) {
		ev := ev
		ev.ValueMask = 0
		_, values := configureValues(ev)
		assert.Empty(t, values)
	})
}

func TestRotation(t *testing.T) {
	assert.Equal(t, uint16(randr.RotationRotate180), rotation(randr.RotationRotate0, true))
	assert.Equal(t, uint16(randr.RotationRotate0), rotation(randr.RotationRotate180, false))
	assert.Equal(t, uint16(randr.RotationRotate180|randr.RotationReflectX),
		rotation(randr.RotationRotate0|randr.RotationReflectX, true))
	assert.Equal(t, uint16(randr.RotationRotate0), rotation(randr.RotationRotate90, false))
}

func TestSetxkbmapArgs(t *testing.T) {
	tests := []struct {
		name string
		kbd  config.KeyboardConfig
		want []string
	}{
		{
			name: "full",
			kbd:  config.KeyboardConfig{Rules: "evdev", Model: "pc105", Layout: "us,de", Variant: ",nodeadkeys", Options: "ctrl:nocaps"},
			want: []string{"-rules", "evdev", "-model", "pc105", "-layout", "us,de", "-variant", ",nodeadkeys", "-option", "", "-option", "ctrl:nocaps"},
		},
		{
			name: "layout only",
			kbd:  config.KeyboardConfig{Layout: "fr"},
			want: []string{"-layout", "fr"},
		},
		{
			name: "empty",
			kbd:  config.KeyboardConfig{},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, setxkbmapArgs(tt.kbd))
		})
	}
}
