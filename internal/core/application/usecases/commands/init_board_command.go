package commands

import (
	"errors"
	"strings"

	"parcellocker/internal/core/domain/model/locker"
	"parcellocker/internal/pkg/errs"
	"parcellocker/internal/pkg/guard"
)

var ErrInitBoardCommandIsNotConstructed = errors.New(
	"InitBoardCommand must be created via NewInitBoardCommand constructor",
)

// InitBoardCommand provisions a container and its lockers L001..Lnnn.
//
// Example:
//
//	cmd, err := NewInitBoardCommand("BOARD_001", "Central Tower, lobby", 16)
//	if err != nil {
//	    return err
//	}
//	result, err := NewInitBoardCommandHandler(lockerUoWFactory).Handle(ctx, cmd)
type InitBoardCommand struct { //nolint:recvcheck //using for validation
	boardID     string
	location    string
	lockerCount int

	guard guard.ConstructorGuard
}

func NewInitBoardCommand(boardID, location string, lockerCount int) (InitBoardCommand, error) {
	cmd := InitBoardCommand{
		location: strings.TrimSpace(location),
		guard:    guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setBoardID(boardID),
		cmd.setLockerCount(lockerCount),
	); err != nil {
		return InitBoardCommand{}, err
	}

	return cmd, nil
}

func (c InitBoardCommand) Validate() error {
	return c.guard.Validate(ErrInitBoardCommandIsNotConstructed)
}

func (c InitBoardCommand) BoardID() string {
	return c.boardID
}

func (c InitBoardCommand) Location() string {
	return c.location
}

func (c InitBoardCommand) LockerCount() int {
	return c.lockerCount
}

func (c *InitBoardCommand) setBoardID(boardID string) error {
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return errs.NewValueIsRequiredError("boardId")
	}
	c.boardID = boardID
	return nil
}

func (c *InitBoardCommand) setLockerCount(count int) error {
	if count < 1 || count > locker.MaxIndex+1 {
		return errs.NewValueIsOutOfRangeError("lockerCount", count, 1, locker.MaxIndex+1)
	}
	c.lockerCount = count
	return nil
}
