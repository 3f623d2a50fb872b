package structs

import (
	"fmt"

	"github.com/oarlock/ferry/pkg/errors"
)

const (
	// max values
	maxNameLength  = 500
	maxEntrypoint  = 500
	maxParamLength = 10000

	// a spec with no compute shape runs a single machine of this class
	defaultInstanceType = "local"
)

// SpecBuilder assembles a JobSpec. Build validates the assembled spec and
// returns a value copy; the builder itself can be discarded after.
//
// Construction is pure; nothing talks to a backend until the spec is
// handed to a Submitter.
type SpecBuilder struct {
	spec JobSpec
}

// NewSpec starts building a spec for the given entrypoint.
func NewSpec(entrypoint string) *SpecBuilder {
	return &SpecBuilder{spec: JobSpec{
		Entrypoint: entrypoint,
		Compute:    ComputeShape{InstanceType: defaultInstanceType, InstanceCount: 1},
	}}
}

func (b *SpecBuilder) Name(name string) *SpecBuilder {
	b.spec.Name = name
	return b
}

func (b *SpecBuilder) SourceBundle(ref string) *SpecBuilder {
	b.spec.SourceBundle = ref
	return b
}

func (b *SpecBuilder) RuntimeImage(image string) *SpecBuilder {
	b.spec.RuntimeImage = image
	return b
}

func (b *SpecBuilder) Compute(instanceType string, count int64) *SpecBuilder {
	b.spec.Compute = ComputeShape{InstanceType: instanceType, InstanceCount: count}
	return b
}

func (b *SpecBuilder) Input(name, source, mountPath string) *SpecBuilder {
	b.spec.Inputs = append(b.spec.Inputs, InputChannel{Name: name, Source: source, MountPath: mountPath})
	return b
}

func (b *SpecBuilder) Output(name, mountPath, destination string) *SpecBuilder {
	b.spec.Outputs = append(b.spec.Outputs, OutputChannel{Name: name, MountPath: mountPath, Destination: destination})
	return b
}

func (b *SpecBuilder) Parameter(key, value string) *SpecBuilder {
	if b.spec.Parameters == nil {
		b.spec.Parameters = map[string]string{}
	}
	b.spec.Parameters[key] = value
	return b
}

func (b *SpecBuilder) Timeout(seconds int64) *SpecBuilder {
	b.spec.TimeoutSeconds = seconds
	return b
}

// Build validates the assembled spec & returns a copy of it.
func (b *SpecBuilder) Build() (*JobSpec, error) {
	err := Validate(&b.spec)
	if err != nil {
		return nil, err
	}
	return b.spec.Copy(), nil
}

// Validate checks JobSpec invariants. Specs that fail here are the
// caller's fault & will never be accepted by a Submitter.
func Validate(s *JobSpec) error {
	if s.Entrypoint == "" {
		return fmt.Errorf("%w entrypoint not set", errors.ErrValidation)
	}
	if len(s.Entrypoint) > maxEntrypoint {
		return fmt.Errorf("%w entrypoint is %d chars, max %d", errors.ErrMaxExceeded, len(s.Entrypoint), maxEntrypoint)
	}
	if len(s.Name) > maxNameLength {
		return fmt.Errorf("%w job name %s is %d chars, max %d", errors.ErrMaxExceeded, s.Name, len(s.Name), maxNameLength)
	}
	if s.Compute.InstanceType == "" {
		return fmt.Errorf("%w instance type not set", errors.ErrValidation)
	}
	if s.Compute.InstanceCount < 1 {
		return fmt.Errorf("%w instance count %d, must be at least 1", errors.ErrValidation, s.Compute.InstanceCount)
	}
	if s.TimeoutSeconds < 0 {
		return fmt.Errorf("%w timeout seconds %d, cannot be negative", errors.ErrValidation, s.TimeoutSeconds)
	}

	seenInputs := map[string]bool{}
	for _, in := range s.Inputs {
		if in.Name == "" || in.Source == "" || in.MountPath == "" {
			return fmt.Errorf("%w input (%s %s %s) has unset field(s)", errors.ErrValidation, in.Name, in.Source, in.MountPath)
		}
		if seenInputs[in.Name] {
			return fmt.Errorf("%w duplicate input name %s", errors.ErrValidation, in.Name)
		}
		seenInputs[in.Name] = true
	}

	seenDests := map[string]bool{}
	for _, out := range s.Outputs {
		if out.Name == "" || out.MountPath == "" || out.Destination == "" {
			return fmt.Errorf("%w output (%s %s %s) has unset field(s)", errors.ErrValidation, out.Name, out.MountPath, out.Destination)
		}
		if seenDests[out.Destination] {
			return fmt.Errorf("%w outputs share destination %s", errors.ErrValidation, out.Destination)
		}
		seenDests[out.Destination] = true
	}

	for k, v := range s.Parameters {
		if k == "" {
			return fmt.Errorf("%w parameter with empty key", errors.ErrValidation)
		}
		if len(v) > maxParamLength {
			return fmt.Errorf("%w parameter %s is %d chars, max %d", errors.ErrMaxExceeded, k, len(v), maxParamLength)
		}
	}

	return nil
}
