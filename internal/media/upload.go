package media

import "io"

// Upload carries one file received from a client before it is stored.
type Upload struct {
	Filename    string
	ContentType string
	Data        io.Reader
}
