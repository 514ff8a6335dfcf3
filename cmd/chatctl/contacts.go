package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matheus3301/chatterm/internal/chat"
)

func contactsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "List, search and add contacts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List contacts with their presence",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			ctx, cancel := e.context()
			defer cancel()
			contacts, err := e.client.ListContacts(ctx)
			if err != nil {
				return err
			}
			e.print(contacts, func() {
				if len(contacts) == 0 {
					fmt.Println("No contacts.")
					return
				}
				for _, c := range contacts {
					fmt.Printf("%-8d %-24s %-8s %s\n", c.UserID, c.Username, c.Status, c.Email)
				}
			})
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "search <query>",
		Short: "Search users by name or email",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if len([]rune(args[0])) < chat.MinSearchLen {
				return chat.ErrQueryTooShort
			}
			ctx, cancel := e.context()
			defer cancel()
			results, err := e.client.SearchUsers(ctx, args[0])
			if err != nil {
				return err
			}
			e.print(results, func() {
				if len(results) == 0 {
					fmt.Println("No users found.")
					return
				}
				for _, r := range results {
					mark := ""
					if r.IsContact {
						mark = "(contact)"
					}
					fmt.Printf("%-8d %-24s %-32s %s\n", r.UserID, r.Username, r.Email, mark)
				}
			})
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <user-id>",
		Short: "Add a user to the contact list",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID("user", args[0])
			if err != nil {
				return err
			}
			ctx, cancel := e.context()
			defer cancel()
			if err := e.client.AddContact(ctx, id); err != nil {
				return err
			}
			e.print(map[string]any{"success": true, "user_id": id}, func() {
				fmt.Println("Contact added successfully")
			})
			return nil
		},
	})

	return cmd
}
