package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matheus3301/chatterm/internal/domain"
)

func groupsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "groups",
		Aliases: []string{"group"},
		Short:   "Manage groups",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the groups you belong to",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			ctx, cancel := e.context()
			defer cancel()
			groups, err := e.client.ListGroups(ctx)
			if err != nil {
				return err
			}
			e.print(groups, func() {
				if len(groups) == 0 {
					fmt.Println("No groups.")
					return
				}
				for _, g := range groups {
					fmt.Printf("%-8d %-24s %-7s %3d members  %d unread\n", g.GroupID, g.Name, g.Role, g.MemberCount, g.UnreadCount)
				}
			})
			return nil
		},
	})

	var members []int64
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a group with the given members",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctl, err := e.controller()
			if err != nil {
				return err
			}
			ctx, cancel := e.context()
			defer cancel()
			id, err := ctl.CreateGroup(ctx, args[0], members)
			if err != nil {
				return err
			}
			e.print(map[string]any{"success": true, "group_id": id}, func() {
				fmt.Printf("Group %d created\n", id)
			})
			return nil
		},
	}
	create.Flags().Int64SliceVarP(&members, "member", "m", nil, "member user id (repeatable)")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "info <group-id>",
		Short: "Show a group and its members",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID("group", args[0])
			if err != nil {
				return err
			}
			ctx, cancel := e.context()
			defer cancel()
			d, err := e.client.GroupDetails(ctx, id)
			if err != nil {
				return err
			}
			e.print(d, func() { printGroup(d) })
			return nil
		},
	})

	cmd.AddCommand(groupOp(e, "leave", "Leave a group", "Left group"))
	cmd.AddCommand(groupOp(e, "delete", "Delete a group you created", "Group deleted"))

	cmd.AddCommand(&cobra.Command{
		Use:   "kick <group-id> <user-id>",
		Short: "Remove a member (admins only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			gid, err := parseID("group", args[0])
			if err != nil {
				return err
			}
			uid, err := parseID("user", args[1])
			if err != nil {
				return err
			}
			ctl, err := e.controller()
			if err != nil {
				return err
			}
			ctx, cancel := e.context()
			defer cancel()
			if err := ctl.RemoveMember(ctx, gid, uid); err != nil {
				return err
			}
			e.print(map[string]any{"success": true}, func() { fmt.Println("Member removed") })
			return nil
		},
	})

	return cmd
}

func groupOp(e *env, name, short, done string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <group-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID("group", args[0])
			if err != nil {
				return err
			}
			ctl, err := e.controller()
			if err != nil {
				return err
			}
			ctx, cancel := e.context()
			defer cancel()
			if name == "delete" {
				err = ctl.DeleteGroup(ctx, id)
			} else {
				err = ctl.LeaveGroup(ctx, id)
			}
			if err != nil {
				return err
			}
			e.print(map[string]any{"success": true}, func() { fmt.Println(done) })
			return nil
		},
	}
}

func printGroup(d *domain.GroupDetails) {
	fmt.Printf("Group:    %s (#%d)\n", d.Name, d.GroupID)
	fmt.Printf("Creator:  %s\n", d.CreatorUsername)
	fmt.Printf("Privacy:  %s\n", d.Privacy)
	fmt.Printf("Your role: %s\n", d.UserRole)
	fmt.Printf("Members (%d):\n", len(d.Members))
	for _, m := range d.Members {
		fmt.Printf("  %-8d %-24s %-7s %s\n", m.UserID, m.Username, m.Role, m.Status)
	}
}
