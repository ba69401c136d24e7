package domain

import "bytes"

// FontAsset is a TrueType font able to render right-to-left script.
type FontAsset struct {
	Family string
	Source string
	Data   []byte
}

var (
	trueTypeMagic = []byte{0x00, 0x01, 0x00, 0x00}
	openTypeMagic = []byte("OTTO")
	appleTrueType = []byte("true")
)

// LooksLikeTrueType checks the sfnt header of a font payload.
func LooksLikeTrueType(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	head := data[:4]
	return bytes.Equal(head, trueTypeMagic) || bytes.Equal(head, openTypeMagic) || bytes.Equal(head, appleTrueType)
}
