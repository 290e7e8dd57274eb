package devdrive

import (
	"errors"
	"fmt"
)

// Step names one OS-level provisioning operation.
type Step string

const (
	StepCreate     Step = "create virtual disk"
	StepMount      Step = "mount virtual disk"
	StepInitialize Step = "initialize disk"
	StepPartition  Step = "create partition"
	StepFormat     Step = "format volume"
)

// Steps lists the provisioning steps in execution order.
func Steps() []Step {
	return []Step{StepCreate, StepMount, StepInitialize, StepPartition, StepFormat}
}

// ErrNoMountPath is returned when the volume has no mount path after partitioning.
var ErrNoMountPath = errors.New("devdrive: volume has no mount path")

// ProvisioningError reports which step of the disk sequence failed.
type ProvisioningError struct {
	Step Step
	Err  error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provision dev drive: %s: %v", e.Step, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// FailedStep returns the step at which err aborted provisioning, if any.
func FailedStep(err error) (Step, bool) {
	var pe *ProvisioningError
	if errors.As(err, &pe) {
		return pe.Step, true
	}
	return "", false
}
