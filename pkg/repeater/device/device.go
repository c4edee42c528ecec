package device

import "errors"

var (
	// ErrDeviceNotFound means no candidate VID/PID enumerated on the bus.
	ErrDeviceNotFound = errors.New("keying device not found")
	// ErrInterfaceClaimFailed means the device enumerated but its HID
	// interface could not be claimed (permissions, interface busy).
	ErrInterfaceClaimFailed = errors.New("keying device interface claim failed")
)

// Keyer is the hardware keying/detection interface: one GPIO output bit
// driving the transmitter key line and one GPIO input bit carrying
// carrier-detect from the receiver.
//
// SetKey drives RF hardware. Implementations must treat any internal failure
// as key-released and must never leave the line asserted on an error path.
type Keyer interface {
	// SetKey asserts or releases the transmit key line. A returned error
	// means the line state is unknown; callers assume released.
	SetKey(active bool) error

	// ReadCarrier reports the debounced carrier-detect bit. On a transient
	// read timeout it returns the previous known value rather than flapping;
	// on any other I/O error it returns false (assume no carrier).
	ReadCarrier() bool

	// Connected reports whether real hardware is behind this keyer.
	Connected() bool

	// Close releases the claimed interface. Best effort: must not fail
	// loudly if the device already vanished.
	Close() error
}

// Nop is the degraded-mode keyer used when no hardware could be claimed.
// Carrier reads false forever and key writes succeed without effect, so the
// rest of the engine keeps running for bench testing.
type Nop struct{}

func (Nop) SetKey(active bool) error { return nil }
func (Nop) ReadCarrier() bool        { return false }
func (Nop) Connected() bool          { return false }
func (Nop) Close() error             { return nil }
