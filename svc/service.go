package svc

type Service interface {
	Start() error // bootstrapping error only
	Stop()
	// Done - shutdown error channel
	// Consumed by conf.Core only. Do not close the channel in a method.
	Done() <-chan error
	Name() string
}

const (
	StateREADY = iota
	StateRUNNING
	StateSTOPPED
)
