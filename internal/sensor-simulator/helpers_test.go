package sensor_simulator

import "io"

// newBlockingReader returns a reader that blocks until the returned func closes it.
func newBlockingReader() (io.Reader, func()) {
	pr, pw := io.Pipe()
	return pr, func() { _ = pw.Close() }
}
