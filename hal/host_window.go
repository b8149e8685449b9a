//go:build !tinygo && cgo

package hal

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"quill/internal/buildinfo"
)

const (
	cellSize   = 34
	cellGap    = 2
	statusBarH = 18
)

// hostKeyGrid maps host keys onto matrix positions. The layout mirrors the
// compiled-in keymap so the window behaves like the physical board.
var hostKeyGrid = map[ebiten.Key][2]int{
	ebiten.KeyEscape:    {0, 0},
	ebiten.KeyDigit1:    {0, 1},
	ebiten.KeyDigit2:    {0, 2},
	ebiten.KeyDigit3:    {0, 3},
	ebiten.KeyDigit4:    {0, 4},
	ebiten.KeyDigit5:    {0, 5},
	ebiten.KeyDigit6:    {0, 6},
	ebiten.KeyDigit7:    {0, 7},
	ebiten.KeyDigit8:    {0, 8},
	ebiten.KeyDigit9:    {0, 9},
	ebiten.KeyDigit0:    {0, 10},
	ebiten.KeyMinus:     {0, 11},
	ebiten.KeyEqual:     {0, 12},
	ebiten.KeyBackspace: {0, 13},

	ebiten.KeyTab:          {1, 0},
	ebiten.KeyQ:            {1, 1},
	ebiten.KeyW:            {1, 2},
	ebiten.KeyE:            {1, 3},
	ebiten.KeyR:            {1, 4},
	ebiten.KeyT:            {1, 5},
	ebiten.KeyY:            {1, 6},
	ebiten.KeyU:            {1, 7},
	ebiten.KeyI:            {1, 8},
	ebiten.KeyO:            {1, 9},
	ebiten.KeyP:            {1, 10},
	ebiten.KeyBracketLeft:  {1, 11},
	ebiten.KeyBracketRight: {1, 12},
	ebiten.KeyBackslash:    {1, 13},

	ebiten.KeyCapsLock:  {2, 0},
	ebiten.KeyA:         {2, 1},
	ebiten.KeyS:         {2, 2},
	ebiten.KeyD:         {2, 3},
	ebiten.KeyF:         {2, 4},
	ebiten.KeyG:         {2, 5},
	ebiten.KeyH:         {2, 6},
	ebiten.KeyJ:         {2, 7},
	ebiten.KeyK:         {2, 8},
	ebiten.KeyL:         {2, 9},
	ebiten.KeySemicolon: {2, 10},
	ebiten.KeyQuote:     {2, 11},
	ebiten.KeyEnter:     {2, 12},

	ebiten.KeyShiftLeft:  {3, 0},
	ebiten.KeyZ:          {3, 1},
	ebiten.KeyX:          {3, 2},
	ebiten.KeyC:          {3, 3},
	ebiten.KeyV:          {3, 4},
	ebiten.KeyB:          {3, 5},
	ebiten.KeyN:          {3, 6},
	ebiten.KeyM:          {3, 7},
	ebiten.KeyComma:      {3, 8},
	ebiten.KeyPeriod:     {3, 9},
	ebiten.KeySlash:      {3, 10},
	ebiten.KeyShiftRight: {3, 11},
	ebiten.KeyArrowUp:    {3, 12},

	ebiten.KeyControlLeft:  {4, 0},
	ebiten.KeyMetaLeft:     {4, 1},
	ebiten.KeyAltLeft:      {4, 2},
	ebiten.KeySpace:        {4, 4},
	ebiten.KeyControlRight: {4, 8}, // fn layer
	ebiten.KeyAltRight:     {4, 9},
	ebiten.KeyF12:          {4, 10}, // transport switch
	ebiten.KeyArrowLeft:    {4, 11},
	ebiten.KeyArrowDown:    {4, 12},
	ebiten.KeyArrowRight:   {4, 13},
}

// RunWindow opens a desktop window that renders the virtual matrix and
// forwards host key presses into it. F9 drops the simulated radio link, F10
// toggles wired suspend. It blocks until the window closes.
func RunWindow(newApp func(HAL) func() error) error {
	h := New().(*hostHAL)
	step := newApp(h)

	g := &hostGame{h: h, step: step}
	g.levels = make([]uint32, h.matrix.Rows())
	ebiten.SetWindowTitle("quill (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(g.width(), g.height())
	ebiten.SetTPS(60)
	return ebiten.RunGame(g)
}

type hostGame struct {
	h      *hostHAL
	step   func() error
	levels []uint32
}

func (g *hostGame) width() int {
	return g.h.matrix.Cols()*(cellSize+cellGap) + cellGap
}

func (g *hostGame) height() int {
	return g.h.matrix.Rows()*(cellSize+cellGap) + cellGap + statusBarH
}

func (g *hostGame) Update() error {
	for key, pos := range hostKeyGrid {
		g.h.matrix.setKey(pos[0], pos[1], ebiten.IsKeyPressed(key))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		g.h.bridge.drop()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF10) {
		g.h.wired.setReady(!g.h.wired.Ready())
	}

	g.h.t.advance()
	if g.step != nil {
		return g.step()
	}
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 24, G: 24, B: 28, A: 255})

	g.h.matrix.snapshot(g.levels)
	up := color.RGBA{R: 56, G: 56, B: 64, A: 255}
	down := color.RGBA{R: 96, G: 168, B: 255, A: 255}
	for row := 0; row < g.h.matrix.Rows(); row++ {
		for col := 0; col < g.h.matrix.Cols(); col++ {
			c := up
			if g.levels[row]&(1<<col) != 0 {
				c = down
			}
			x := float32(cellGap + col*(cellSize+cellGap))
			y := float32(cellGap + row*(cellSize+cellGap))
			vector.DrawFilledRect(screen, x, y, cellSize, cellSize, c, false)
		}
	}

	link, trans, layer := g.h.status.snapshot()
	line := fmt.Sprintf("transport:%s  link:%s  layer:%d", trans, link, layer)
	ebitenutil.DebugPrintAt(screen, line, cellGap, g.height()-statusBarH+2)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width(), g.height()
}
