package keysym

import "fmt"

type entry struct {
	name string
	sym  Keysym
}

var table = buildTable()

func buildTable() []entry {
	t := make([]entry, 0, 512)

	for c := 'a'; c <= 'z'; c++ {
		t = append(t, entry{string(c), Keysym(c)})
	}
	for c := 'A'; c <= 'Z'; c++ {
		t = append(t, entry{string(c), Keysym(c)})
	}
	for c := '0'; c <= '9'; c++ {
		t = append(t, entry{string(c), Keysym(c)})
	}

	t = append(t, ascii...)
	t = append(t, special...)

	for i := 0; i <= 9; i++ {
		t = append(t, entry{fmt.Sprintf("KP_%d", i), Keysym(0xffb0 + i)})
	}
	for i := 1; i <= 35; i++ {
		t = append(t, entry{fmt.Sprintf("F%d", i), Keysym(0xffbe + i - 1)})
	}

	t = append(t, modifiers...)
	t = append(t, media...)
	return t
}

var ascii = []entry{
	{"space", 0x0020},
	{"exclam", 0x0021},
	{"quotedbl", 0x0022},
	{"numbersign", 0x0023},
	{"dollar", 0x0024},
	{"percent", 0x0025},
	{"ampersand", 0x0026},
	{"apostrophe", 0x0027},
	{"parenleft", 0x0028},
	{"parenright", 0x0029},
	{"asterisk", 0x002a},
	{"plus", 0x002b},
	{"comma", 0x002c},
	{"minus", 0x002d},
	{"period", 0x002e},
	{"slash", 0x002f},
	{"colon", 0x003a},
	{"semicolon", 0x003b},
	{"less", 0x003c},
	{"equal", 0x003d},
	{"greater", 0x003e},
	{"question", 0x003f},
	{"at", 0x0040},
	{"bracketleft", 0x005b},
	{"backslash", 0x005c},
	{"bracketright", 0x005d},
	{"asciicircum", 0x005e},
	{"underscore", 0x005f},
	{"grave", 0x0060},
	{"braceleft", 0x007b},
	{"bar", 0x007c},
	{"braceright", 0x007d},
	{"asciitilde", 0x007e},
	{"nobreakspace", 0x00a0},
	{"section", 0x00a7},
	{"degree", 0x00b0},
	{"adiaeresis", 0x00e4},
	{"Adiaeresis", 0x00c4},
	{"odiaeresis", 0x00f6},
	{"Odiaeresis", 0x00d6},
	{"udiaeresis", 0x00fc},
	{"Udiaeresis", 0x00dc},
	{"ssharp", 0x00df},
}

var special = []entry{
	{"BackSpace", 0xff08},
	{"Tab", 0xff09},
	{"Linefeed", 0xff0a},
	{"Clear", 0xff0b},
	{"Return", 0xff0d},
	{"Pause", 0xff13},
	{"Scroll_Lock", 0xff14},
	{"Sys_Req", 0xff15},
	{"Escape", 0xff1b},
	{"Delete", 0xffff},
	{"Home", 0xff50},
	{"Left", 0xff51},
	{"Up", 0xff52},
	{"Right", 0xff53},
	{"Down", 0xff54},
	{"Prior", 0xff55},
	{"Page_Up", 0xff55},
	{"Next", 0xff56},
	{"Page_Down", 0xff56},
	{"End", 0xff57},
	{"Begin", 0xff58},
	{"Select", 0xff60},
	{"Print", 0xff61},
	{"Execute", 0xff62},
	{"Insert", 0xff63},
	{"Undo", 0xff65},
	{"Redo", 0xff66},
	{"Menu", 0xff67},
	{"Find", 0xff68},
	{"Cancel", 0xff69},
	{"Help", 0xff6a},
	{"Break", 0xff6b},
	{"Mode_switch", 0xff7e},
	{"Num_Lock", 0xff7f},
	{"KP_Space", 0xff80},
	{"KP_Tab", 0xff89},
	{"KP_Enter", 0xff8d},
	{"KP_Home", 0xff95},
	{"KP_Left", 0xff96},
	{"KP_Up", 0xff97},
	{"KP_Right", 0xff98},
	{"KP_Down", 0xff99},
	{"KP_Prior", 0xff9a},
	{"KP_Page_Up", 0xff9a},
	{"KP_Next", 0xff9b},
	{"KP_Page_Down", 0xff9b},
	{"KP_End", 0xff9c},
	{"KP_Begin", 0xff9d},
	{"KP_Insert", 0xff9e},
	{"KP_Delete", 0xff9f},
	{"KP_Multiply", 0xffaa},
	{"KP_Add", 0xffab},
	{"KP_Separator", 0xffac},
	{"KP_Subtract", 0xffad},
	{"KP_Decimal", 0xffae},
	{"KP_Divide", 0xffaf},
	{"KP_Equal", 0xffbd},
	{"ISO_Level3_Shift", 0xfe03},
	{"ISO_Left_Tab", 0xfe20},
}

var modifiers = []entry{
	{"Shift_L", 0xffe1},
	{"Shift_R", 0xffe2},
	{"Control_L", 0xffe3},
	{"Control_R", 0xffe4},
	{"Caps_Lock", 0xffe5},
	{"Shift_Lock", 0xffe6},
	{"Meta_L", 0xffe7},
	{"Meta_R", 0xffe8},
	{"Alt_L", 0xffe9},
	{"Alt_R", 0xffea},
	{"Super_L", 0xffeb},
	{"Super_R", 0xffec},
	{"Hyper_L", 0xffed},
	{"Hyper_R", 0xffee},
}

var media = []entry{
	{"XF86MonBrightnessUp", 0x1008ff02},
	{"XF86MonBrightnessDown", 0x1008ff03},
	{"XF86AudioLowerVolume", 0x1008ff11},
	{"XF86AudioMute", 0x1008ff12},
	{"XF86AudioRaiseVolume", 0x1008ff13},
	{"XF86AudioPlay", 0x1008ff14},
	{"XF86AudioStop", 0x1008ff15},
	{"XF86AudioPrev", 0x1008ff16},
	{"XF86AudioNext", 0x1008ff17},
	{"XF86HomePage", 0x1008ff18},
	{"XF86Mail", 0x1008ff19},
	{"XF86Search", 0x1008ff1b},
	{"XF86Calculator", 0x1008ff1d},
	{"XF86Explorer", 0x1008ff5d},
	{"XF86AudioMicMute", 0x1008ffb2},
}
