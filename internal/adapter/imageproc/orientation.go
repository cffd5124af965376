package imageproc

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// readOrientation возвращает EXIF Orientation (1..8); 1, если тега нет
func readOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil || x == nil {
		return 1
	}
	if o, ok := tagToInt(exif.Orientation, x); ok && o >= 1 && o <= 8 {
		return o
	}
	return 1
}

func tagToInt(tag exif.FieldName, x *exif.Exif) (int, bool) {
	t, err := x.Get(tag)
	if err != nil || t == nil {
		return 0, false
	}
	if i, err := t.Int(0); err == nil {
		return i, true
	}
	return 0, false
}

func tagToString(tag exif.FieldName, x *exif.Exif) (string, bool) {
	t, err := x.Get(tag)
	if err != nil || t == nil {
		return "", false
	}
	s, err := t.StringVal()
	if err != nil {
		return "", false
	}
	return s, true
}

// applyOrientation приводит пиксели к виду, в котором их должен видеть зритель.
// imaging поворачивает против часовой стрелки.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
