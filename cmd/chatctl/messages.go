package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/matheus3301/chatterm/internal/boot"
	"github.com/matheus3301/chatterm/internal/bus"
	"github.com/matheus3301/chatterm/internal/chat"
	"github.com/matheus3301/chatterm/internal/domain"
	"github.com/matheus3301/chatterm/internal/event"
	"github.com/matheus3301/chatterm/internal/media"
)

func historyCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "history <user-id>",
		Short: "Print the direct conversation with a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID("user", args[0])
			if err != nil {
				return err
			}
			ctx, cancel := e.context()
			defer cancel()
			msgs, err := e.client.History(ctx, id)
			if err != nil {
				return err
			}
			e.print(msgs, func() { printMessages(msgs, e.profile.UserID) })
			return nil
		},
	}
}

func groupHistoryCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "group-history <group-id>",
		Short: "Print the messages of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID("group", args[0])
			if err != nil {
				return err
			}
			ctx, cancel := e.context()
			defer cancel()
			msgs, err := e.client.GroupMessages(ctx, id)
			if err != nil {
				return err
			}
			e.print(msgs, func() { printMessages(msgs, e.profile.UserID) })
			return nil
		},
	}
}

func printMessages(msgs []domain.Message, self int64) {
	if len(msgs) == 0 {
		fmt.Println("No messages.")
		return
	}
	for _, m := range msgs {
		who := m.SenderUsername
		if m.SenderID == self {
			who = "me"
		}
		line := m.Content
		if m.HasAttachment() {
			cat := media.Resolve(m.AttachmentType, m.AttachmentName)
			line = strings.TrimSpace(fmt.Sprintf("%s [%s %s, %s] %s", line, media.Icon(cat), m.AttachmentName, media.HumanSize(m.AttachmentSize), m.AttachmentPath))
		}
		if m.Edited {
			line += " (edited)"
		}
		fmt.Printf("%6d %s %-16s %s\n", m.MsgID, m.Time().Format(time.DateTime), who, line)
	}
}

var errSendTimeout = errors.New("timed out waiting for the server to confirm the message")

func sendCmd(e *env) *cobra.Command {
	var (
		group bool
		file  string
	)
	cmd := &cobra.Command{
		Use:   "send <user-or-group-id> [text]",
		Short: "Send a message over the socket and wait for the echo",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			kind := "user"
			if group {
				kind = "group"
			}
			id, err := parseID(kind, args[0])
			if err != nil {
				return err
			}
			text := ""
			if len(args) == 2 {
				text = args[1]
			}
			if strings.TrimSpace(text) == "" && file == "" {
				return errors.New("nothing to send")
			}
			ctx, cancel := e.context()
			defer cancel()
			m, err := e.send(ctx, id, group, text, file)
			if err != nil {
				return err
			}
			e.print(m, func() { fmt.Printf("Sent message %d\n", m.MsgID) })
			return nil
		},
	}
	cmd.Flags().BoolVarP(&group, "group", "g", false, "the id is a group id")
	cmd.Flags().StringVarP(&file, "file", "f", "", "attach a file")
	return cmd
}

// send opens a full session (holding the profile lock), waits until it is
// online, sends and waits for the server's echo.
func (e *env) send(ctx context.Context, id int64, group bool, text, file string) (domain.Message, error) {
	var (
		ctl *chat.Controller
		b   *bus.Bus
	)
	app := fx.New(
		fx.WithLogger(func() fxevent.Logger { return &fxevent.ZapLogger{Logger: e.logger.Named("fx")} }),
		fx.Supply(e.logger),
		boot.Module(boot.Params{ProfileName: e.name, Profile: e.profile, Binary: binary}),
		fx.Populate(&ctl, &b),
	)
	if err := app.Err(); err != nil {
		return domain.Message{}, err
	}

	events, unsub := b.Subscribe("", 256)
	defer unsub()

	if err := app.Start(ctx); err != nil {
		return domain.Message{}, err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.Stop(stopCtx)
	}()

	ready := false
	sent := false
	for {
		if ready && !sent {
			if err := e.dispatch(ctx, ctl, id, group, text, file); err != nil {
				return domain.Message{}, err
			}
			sent = true
		}
		select {
		case <-ctx.Done():
			return domain.Message{}, errSendTimeout
		case evt := <-events:
			switch p := evt.Payload.(type) {
			case event.JoinedGroup:
				ready = ready || (group && p.GroupID == id)
			case event.MessageSent:
				if sent && !group && p.Message.ReceiverID == id {
					return p.Message, nil
				}
			case event.NewGroupMessage:
				if sent && group && p.Message.GroupID == id && p.Message.SenderID == e.profile.UserID {
					return p.Message, nil
				}
			case event.MessageError:
				return domain.Message{}, errors.New(p.Error)
			case event.GroupMessageError:
				return domain.Message{}, errors.New(p.Error)
			}
			if evt.Kind == bus.KindConnected && !group {
				ready = true
			}
		}
	}
}

func (e *env) dispatch(ctx context.Context, ctl *chat.Controller, id int64, group bool, text, file string) error {
	var err error
	if group {
		err = ctl.SelectGroup(ctx, id)
	} else {
		err = ctl.SelectContact(ctx, id)
	}
	if err != nil {
		return err
	}
	if file != "" {
		if _, err := ctl.Attach(file); err != nil {
			return err
		}
	}
	_, err = ctl.Send(ctx, text)
	return err
}
