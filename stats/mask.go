package stats

import (
	"errors"
)

var ErrMaskSize = errors.New("mask does not match its window")

// Mask flags the pixels of a window that belong to one zone.
type Mask struct {
	Window Window
	Cells  []bool
}

// 由栅格化结果（非0即在区域内）生成掩膜
func NewMask(w Window, burnt []uint8) (m Mask, err error) {
	if len(burnt) != w.Size() {
		err = ErrMaskSize
		return
	}
	m.Window = w
	m.Cells = make([]bool, len(burnt))
	for i, b := range burnt {
		m.Cells[i] = b != 0
	}
	return
}

func (m Mask) Count() (n int) {
	for _, in := range m.Cells {
		if in {
			n++
		}
	}
	return
}

func (m Mask) Empty() bool {
	return m.Window.Empty()
}
