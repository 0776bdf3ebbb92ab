package num

// Device identifies the compute device holding a model's parameters.
// Arrays live in host memory; placement is a single explicit step after
// construction and CPU is currently the only target.
type Device int

const (
	CPU Device = iota
)

// NewDevice returns the default compute device.
func NewDevice() Device { return CPU }

func (d Device) String() string {
	if d == CPU {
		return "cpu"
	}
	return "unknown"
}
