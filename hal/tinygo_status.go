//go:build tinygo && baremetal

package hal

import (
	"image/color"
	"strconv"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/ssd1306"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

// tinyStatus renders the status lines on a 128x32 SSD1306 over I2C.
// A board without the display still boots: newTinyStatus probes the
// bus and falls back to a no-op sink when nothing answers.
type tinyStatus struct {
	dev       *ssd1306.Device
	link      string
	transport string
	layer     string
}

func newTinyStatus(bus drivers.I2C) Status {
	if err := bus.Tx(ssd1306.Address_128_32, nil, make([]byte, 1)); err != nil {
		return nullStatus{}
	}
	dev := ssd1306.NewI2C(bus)
	dev.Configure(ssd1306.Config{Width: 128, Height: 32, Address: ssd1306.Address_128_32})
	s := &tinyStatus{dev: &dev}
	s.dev.ClearDisplay()
	return s
}

func (s *tinyStatus) ShowLink(state string) {
	s.link = state
	s.redraw()
}

func (s *tinyStatus) ShowTransport(name string) {
	s.transport = name
	s.redraw()
}

func (s *tinyStatus) ShowLayer(n int) {
	s.layer = strconv.Itoa(n)
	s.redraw()
}

func (s *tinyStatus) redraw() {
	s.dev.ClearBuffer()
	white := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	tinyfont.WriteLine(s.dev, &proggy.TinySZ8pt7b, 0, 10, s.transport+" "+s.link, white)
	tinyfont.WriteLine(s.dev, &proggy.TinySZ8pt7b, 0, 24, "layer "+s.layer, white)
	s.dev.Display()
}

// nullStatus swallows status updates when no display is fitted.
type nullStatus struct{}

func (nullStatus) ShowLink(string)      {}
func (nullStatus) ShowTransport(string) {}
func (nullStatus) ShowLayer(int)        {}
