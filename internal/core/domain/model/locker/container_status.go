package locker

import (
	"fmt"
	"strings"

	"parcellocker/internal/pkg/errs"
)

// ContainerStatus is the lifecycle state of a cabinet.
type ContainerStatus int

const (
	ContainerUnknown ContainerStatus = iota
	ContainerActive
	ContainerInactive
	ContainerMaintenance
)

func getContainerStatusStrings() map[ContainerStatus]string {
	return map[ContainerStatus]string{
		ContainerUnknown:     "UNKNOWN",
		ContainerActive:      "ACTIVE",
		ContainerInactive:    "INACTIVE",
		ContainerMaintenance: "MAINTENANCE",
	}
}

func ParseContainerStatus(s string) (ContainerStatus, error) {
	for status, name := range getContainerStatusStrings() {
		if status != ContainerUnknown && strings.EqualFold(name, s) {
			return status, nil
		}
	}
	return ContainerUnknown, errs.NewValueIsInvalidErrorWithCause("container status", fmt.Errorf("%q is not a valid status", s))
}

func (s ContainerStatus) Validate() error {
	if _, ok := getContainerStatusStrings()[s]; !ok || s == ContainerUnknown {
		return errs.NewValueIsInvalidErrorWithCause("container status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s ContainerStatus) String() string {
	if str, ok := getContainerStatusStrings()[s]; ok {
		return str
	}
	return "UNKNOWN"
}
