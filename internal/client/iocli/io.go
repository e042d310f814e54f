// Package iocli abstracts terminal input/output so CLI commands can be
// tested against a scripted console.
package iocli

// IO
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	ReadInput(prompt string) (string, error)
	Write(p []byte) (n int, err error)
}
