//go:build tinygo && baremetal

package hal

import (
	"machine"
)

// RP2 pin assignment. Rows strobe, columns sense.
var (
	matrixRowPins = []machine.Pin{machine.GP6, machine.GP7, machine.GP8, machine.GP9, machine.GP10}
	matrixColPins = []machine.Pin{
		machine.GP2, machine.GP3, machine.GP11, machine.GP12, machine.GP13,
		machine.GP14, machine.GP15, machine.GP16, machine.GP17, machine.GP18,
		machine.GP19, machine.GP22, machine.GP26, machine.GP27,
	}
)

type tinyGoHAL struct {
	logger *lineLogger
	led    *pinLED
	matrix *gpioMatrix
	radio  *uartSerial
	ledser *uartSerial
	wired  *usbWired
	flash  Flash
	t      *tinyGoTime
	status Status
}

// New builds the board HAL: USB CDC logging, the GPIO key matrix, UART0 to
// the radio bridge, UART1 to the backlight controller, USB HID output and
// the on-chip flash tail for settings.
func New() HAL {
	machine.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})

	machine.UART0.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})
	machine.UART1.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP4,
		RX:       machine.GP5,
	})
	machine.I2C0.Configure(machine.I2CConfig{
		SDA: machine.GP20,
		SCL: machine.GP21,
	})

	return &tinyGoHAL{
		logger: &lineLogger{w: machine.Serial},
		led:    &pinLED{pin: machine.LED},
		matrix: newGPIOMatrix(matrixRowPins, matrixColPins),
		radio:  &uartSerial{uart: machine.UART0},
		ledser: &uartSerial{uart: machine.UART1},
		wired:  newUSBWired(),
		flash:  newFlashDevice(),
		t:      newTinyGoTime(),
		status: newTinyStatus(machine.I2C0),
	}
}

func (h *tinyGoHAL) Logger() Logger      { return h.logger }
func (h *tinyGoHAL) LED() LED            { return h.led }
func (h *tinyGoHAL) Matrix() Matrix      { return h.matrix }
func (h *tinyGoHAL) RadioSerial() Serial { return h.radio }
func (h *tinyGoHAL) LEDSerial() Serial   { return h.ledser }
func (h *tinyGoHAL) Wired() Wired        { return h.wired }
func (h *tinyGoHAL) Flash() Flash        { return h.flash }
func (h *tinyGoHAL) Time() Time          { return h.t }
func (h *tinyGoHAL) Status() Status      { return h.status }
