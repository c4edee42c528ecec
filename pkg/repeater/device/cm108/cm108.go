// Package cm108 drives the HID side of CM108/CM119-family USB soundcard
// chips: GPIO3 keys the transmitter and the carrier-detect line from the
// receiver arrives as a bit in the chip's interrupt-IN report.
package cm108

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/gousb"
	"github.com/rs/zerolog"

	"github.com/sa7bnb/repeater/pkg/repeater/device"
)

const (
	// HID class SET_REPORT request carrying the GPIO output state.
	hidSetReport     = 0x09
	hidReportTypeOut = 0x0200

	// GPIO3 (pin 13) is the PTT line on SHARI-style boards.
	keyGPIOMask = 0x04

	// Carrier-detect sits in bit 1 of the first interrupt report byte.
	carrierBit = 0x02

	reportLength = 4
	readTimeout  = 50 * time.Millisecond
)

// Candidate is one VID/PID pair to probe during Connect.
type Candidate struct {
	Vendor  uint16
	Product uint16
}

// DefaultCandidates covers the CM108 variants commonly found on repeater
// interface boards.
var DefaultCandidates = []Candidate{
	{0x0d8c, 0x0012},
	{0x0d8c, 0x0013},
	{0x0d8c, 0x000c},
	{0x0d8c, 0x013a},
}

// Controller implements device.Keyer against a claimed CM108 HID interface.
type Controller struct {
	usbCtx  *gousb.Context
	dev     *gousb.Device
	cfg     *gousb.Config
	intf    *gousb.Interface
	ep      *gousb.InEndpoint
	intfNum int

	mu          sync.Mutex
	lastCarrier bool

	logger zerolog.Logger
}

var _ device.Keyer = (*Controller)(nil)

// Connect probes the candidate list in order and claims the HID interface of
// the first device that enumerates. Returns device.ErrDeviceNotFound when
// nothing matches and device.ErrInterfaceClaimFailed when a device is present
// but cannot be claimed.
func Connect(candidates []Candidate, logger zerolog.Logger) (*Controller, error) {
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}

	usbCtx := gousb.NewContext()

	var dev *gousb.Device
	for _, cand := range candidates {
		d, err := usbCtx.OpenDeviceWithVIDPID(gousb.ID(cand.Vendor), gousb.ID(cand.Product))
		if err != nil {
			logger.Debug().
				Str("vid_pid", fmt.Sprintf("%04x:%04x", cand.Vendor, cand.Product)).
				Err(err).
				Msg("probe failed")
			continue
		}
		if d != nil {
			dev = d
			break
		}
	}
	if dev == nil {
		usbCtx.Close()
		return nil, device.ErrDeviceNotFound
	}

	c := &Controller{
		usbCtx: usbCtx,
		dev:    dev,
		logger: logger,
	}
	if err := c.claim(); err != nil {
		dev.Close()
		usbCtx.Close()
		return nil, fmt.Errorf("%w: %v", device.ErrInterfaceClaimFailed, err)
	}

	logger.Info().
		Str("vid_pid", fmt.Sprintf("%s:%s", dev.Desc.Vendor, dev.Desc.Product)).
		Int("hid_interface", c.intfNum).
		Msg("keying device connected")

	return c, nil
}

func (c *Controller) claim() error {
	// The kernel's usbhid driver owns the interface otherwise.
	if err := c.dev.SetAutoDetach(true); err != nil {
		return fmt.Errorf("auto-detach: %v", err)
	}

	intfNum, epNum, err := findHID(c.dev.Desc)
	if err != nil {
		return err
	}
	c.intfNum = intfNum

	cfg, err := c.dev.Config(1)
	if err != nil {
		return fmt.Errorf("configuration: %v", err)
	}
	intf, err := cfg.Interface(intfNum, 0)
	if err != nil {
		cfg.Close()
		return fmt.Errorf("interface %d: %v", intfNum, err)
	}
	ep, err := intf.InEndpoint(epNum)
	if err != nil {
		intf.Close()
		cfg.Close()
		return fmt.Errorf("IN endpoint %d: %v", epNum, err)
	}

	c.cfg = cfg
	c.intf = intf
	c.ep = ep
	return nil
}

// findHID locates the HID interface and its interrupt IN endpoint in the
// device's first configuration.
func findHID(desc *gousb.DeviceDesc) (intfNum, epNum int, err error) {
	for _, cfg := range desc.Configs {
		for _, intf := range cfg.Interfaces {
			for _, setting := range intf.AltSettings {
				if setting.Class != gousb.ClassHID {
					continue
				}
				for _, ep := range setting.Endpoints {
					if ep.Direction == gousb.EndpointDirectionIn {
						return intf.Number, ep.Number, nil
					}
				}
			}
		}
	}
	return 0, 0, errors.New("no HID interface with IN endpoint")
}

// SetKey writes the GPIO output report. An error means the line state is
// unknown and the caller must assume the key released.
func (c *Controller) SetKey(active bool) error {
	var value byte
	if active {
		value = keyGPIOMask
	}
	data := []byte{0x00, keyGPIOMask, value, 0x00}
	if _, err := c.dev.Control(
		gousb.ControlOut|gousb.ControlClass|gousb.ControlInterface,
		hidSetReport, hidReportTypeOut, uint16(c.intfNum), data); err != nil {
		return fmt.Errorf("set key: %w", err)
	}
	return nil
}

// ReadCarrier reads one interrupt report. A timeout keeps the previous value
// so transient bus hiccups never flap the carrier state; any other error
// reads as no carrier.
func (c *Controller) ReadCarrier() bool {
	buf := make([]byte, reportLength)
	ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
	defer cancel()

	n, err := c.ep.ReadContext(ctx, buf)
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, gousb.TransferTimedOut),
		errors.Is(err, gousb.ErrorTimeout):
		return c.lastCarrier
	case err != nil || n == 0:
		c.lastCarrier = false
		return false
	}

	c.lastCarrier = buf[0]&carrierBit != 0
	return c.lastCarrier
}

func (c *Controller) Connected() bool { return true }

// Close releases everything best effort, forcing the key line down first so
// the transmitter is never left keyed by a dying process.
func (c *Controller) Close() error {
	if err := c.SetKey(false); err != nil {
		c.logger.Warn().Err(err).Msg("could not release key line on close")
	}
	if c.intf != nil {
		c.intf.Close()
	}
	if c.cfg != nil {
		c.cfg.Close()
	}
	if c.dev != nil {
		c.dev.Close()
	}
	return c.usbCtx.Close()
}
