package platform

import "github.com/dasdy/keyoverlay/layout"

const langRussian = 0x0419

// LayoutFromLangID maps a Windows language identifier onto a layout.
func LayoutFromLangID(lid uint16) layout.Name {
	if lid == langRussian {
		return layout.Russian
	}

	return layout.English
}
