package chat

import (
	"context"
	"strings"

	"github.com/matheus3301/chatterm/internal/api"
	"github.com/matheus3301/chatterm/internal/domain"
)

// CreateGroup creates a private group with the given members and reloads
// the group list.
func (c *Controller) CreateGroup(ctx context.Context, name string, members []int64) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, c.fail("Cannot create group", ErrGroupName)
	}
	ids := make([]int64, 0, len(members))
	seen := map[int64]bool{c.self.UserID: true}
	for _, id := range members {
		if id > 0 && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0, c.fail("Cannot create group", ErrNoMembers)
	}
	id, err := c.api.CreateGroup(ctx, name, ids, api.DefaultPrivacy)
	if err != nil {
		return 0, c.fail("Failed to create group", err)
	}
	c.info("Group created successfully")
	return id, c.LoadGroups(ctx)
}

// GroupInfo returns the group's details and members.
func (c *Controller) GroupInfo(ctx context.Context, groupID int64) (*domain.GroupDetails, error) {
	d, err := c.roster.GroupInfo(ctx, groupID)
	if err != nil {
		return nil, c.fail("Failed to load group info", err)
	}
	return d, nil
}

func (c *Controller) isCreator(ctx context.Context, groupID int64) (bool, error) {
	if g, ok := c.roster.Group(groupID); ok {
		return g.CreatedBy == c.self.UserID, nil
	}
	d, err := c.roster.GroupInfo(ctx, groupID)
	if err != nil {
		return false, err
	}
	return d.CreatedBy == c.self.UserID, nil
}

// LeaveGroup removes the user from a group they did not create.
func (c *Controller) LeaveGroup(ctx context.Context, groupID int64) error {
	creator, err := c.isCreator(ctx, groupID)
	if err != nil {
		return c.fail("Failed to leave group", err)
	}
	if creator {
		return c.fail("Cannot leave group", ErrCreatorLeave)
	}
	if err := c.api.LeaveGroup(ctx, groupID); err != nil {
		return c.fail("Failed to leave group", err)
	}
	c.info("Left group successfully")
	return c.afterGroupGone(ctx, groupID)
}

// DeleteGroup deletes a group the user created.
func (c *Controller) DeleteGroup(ctx context.Context, groupID int64) error {
	creator, err := c.isCreator(ctx, groupID)
	if err != nil {
		return c.fail("Failed to delete group", err)
	}
	if !creator {
		return c.fail("Cannot delete group", ErrNotCreator)
	}
	if err := c.api.DeleteGroup(ctx, groupID); err != nil {
		return c.fail("Failed to delete group", err)
	}
	c.info("Group deleted successfully")
	return c.afterGroupGone(ctx, groupID)
}

// ExitGroup deletes the group when the user created it and leaves it otherwise.
func (c *Controller) ExitGroup(ctx context.Context, groupID int64) error {
	creator, err := c.isCreator(ctx, groupID)
	if err != nil {
		return c.fail("Failed to leave group", err)
	}
	if creator {
		return c.DeleteGroup(ctx, groupID)
	}
	return c.LeaveGroup(ctx, groupID)
}

func (c *Controller) afterGroupGone(ctx context.Context, groupID int64) error {
	c.roster.InvalidateGroup(groupID)
	if c.view.Pane().IsGroup(groupID) {
		c.typing.Stop()
		if err := c.view.Clear(groupID); err != nil {
			c.logger.Debug("pane already moved")
		}
	}
	return c.LoadGroups(ctx)
}

// RemoveMember removes memberID from a group. Only admins may do it and the
// creator can never be removed.
func (c *Controller) RemoveMember(ctx context.Context, groupID, memberID int64) error {
	d, err := c.roster.GroupInfo(ctx, groupID)
	if err != nil {
		return c.fail("Failed to remove member", err)
	}
	if d.UserRole != domain.RoleAdmin {
		return c.fail("Cannot remove member", ErrNotAdmin)
	}
	if memberID == d.CreatedBy {
		return c.fail("Cannot remove member", ErrIsCreator)
	}
	if err := c.api.RemoveMember(ctx, groupID, memberID); err != nil {
		return c.fail("Failed to remove member", err)
	}
	c.roster.InvalidateGroup(groupID)
	c.info("Member removed")
	return nil
}
