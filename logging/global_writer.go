package logging

import (
	"io"
	"os"
	"sync/atomic"
)

type writerBox struct{ w io.Writer }

// consoleWriter forwards to whichever writer was last installed by
// SetGlobalOutput, so loggers created earlier follow the redirect.
type consoleWriter struct {
	current atomic.Pointer[writerBox]
}

func (c *consoleWriter) Write(p []byte) (int, error) {
	return c.current.Load().w.Write(p)
}

var console = func() *consoleWriter {
	c := &consoleWriter{}
	c.current.Store(&writerBox{w: os.Stderr})
	return c
}()

// SetGlobalOutput redirects the console sink of every logger.
func SetGlobalOutput(w io.Writer) {
	console.current.Store(&writerBox{w: w})
}

// GetGlobalOutput returns the console writer shared by all loggers.
func GetGlobalOutput() io.Writer {
	return console
}
