//go:build !windows

package registrar

// unsupportedRegistry is used where no registry exists.
type unsupportedRegistry struct{}

// NewRegistry returns the registry for the current platform.
func NewRegistry() Registry {
	return unsupportedRegistry{}
}

func (unsupportedRegistry) Write(Record) error          { return ErrUnsupported }
func (unsupportedRegistry) Read(string) (Record, error) { return Record{}, ErrUnsupported }
func (unsupportedRegistry) Delete(string) error         { return ErrUnsupported }
