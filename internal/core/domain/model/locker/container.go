package locker

import (
	"errors"
	"strings"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/pkg/errs"
)

var ErrContainerIsNotConstructed = errors.New("Container must be created via NewContainer constructor")

// Container is a physical cabinet addressed by the board identifier of its
// controller. It owns its lockers; the lockers themselves are stored and
// mutated independently because reservation is a per-locker conditional update.
type Container struct {
	id       kernel.UUID
	boardID  string
	location string
	status   ContainerStatus

	isConstructed bool
}

// NewContainer creates an Active container.
func NewContainer(id kernel.UUID, boardID, location string) (*Container, error) {
	return RestoreContainer(id, boardID, location, ContainerActive)
}

// RestoreContainer rebuilds a container from storage.
func RestoreContainer(id kernel.UUID, boardID, location string, status ContainerStatus) (*Container, error) {
	c := &Container{isConstructed: true, location: strings.TrimSpace(location)}

	if err := errors.Join(
		c.setID(id),
		c.setBoardID(boardID),
		c.setStatus(status),
	); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) Validate() error {
	if c == nil || !c.isConstructed {
		return ErrContainerIsNotConstructed
	}
	return nil
}

func (c *Container) ID() kernel.UUID {
	return c.id
}

func (c *Container) BoardID() string {
	return c.boardID
}

func (c *Container) Location() string {
	return c.location
}

func (c *Container) Status() ContainerStatus {
	return c.status
}

// AcceptsDeliveries is true only for Active containers.
func (c *Container) AcceptsDeliveries() bool {
	return c.status == ContainerActive
}

func (c *Container) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.id = id
	return nil
}

func (c *Container) setBoardID(boardID string) error {
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return errs.NewValueIsRequiredError("boardId")
	}
	c.boardID = boardID
	return nil
}

func (c *Container) setStatus(status ContainerStatus) error {
	if err := status.Validate(); err != nil {
		return err
	}
	c.status = status
	return nil
}
