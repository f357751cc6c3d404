package main

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brainhr/hrdesk/internal/inbox"
	"github.com/brainhr/hrdesk/internal/output"
	"github.com/brainhr/hrdesk/pkg/domain"
)

func newUnreadCmd(app *cli) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "unread",
		Short: "Show the unread message count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			c, _, err := app.sessionClient()
			if err != nil {
				return err
			}
			n, err := c.UnreadCount(cmd.Context())
			if err != nil {
				return err
			}
			return output.Unread(cmd.OutOrStdout(), n, f)
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "table or json (default: table on a terminal)")
	return cmd
}

func newMessagesCmd(app *cli) *cobra.Command {
	var (
		msgContext string
		grouped    bool
		format     string
	)
	cmd := &cobra.Command{
		Use:     "messages",
		Aliases: []string{"inbox", "ls"},
		Short:   "List your inbox",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			c, role, err := app.sessionClient()
			if err != nil {
				return err
			}
			msgs, err := c.MyMessages(cmd.Context(), role, msgContext)
			if err != nil {
				return err
			}
			if grouped {
				return output.Groups(cmd.OutOrStdout(), inbox.Group(msgs), f)
			}
			return output.Messages(cmd.OutOrStdout(), msgs, f)
		},
	}
	cmd.Flags().StringVar(&msgContext, "context", "", "only messages with this context (timesheets, visa, activities, messages)")
	cmd.Flags().BoolVar(&grouped, "grouped", false, "group messages by sender")
	cmd.Flags().StringVar(&format, "format", "", "table or json (default: table on a terminal)")
	return cmd
}

func newReadCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a message read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid message id %q", args[0])
			}
			c, role, err := app.sessionClient()
			if err != nil {
				return err
			}
			msgs, err := c.MyMessages(cmd.Context(), role, "")
			if err != nil {
				return err
			}

			view := inbox.NewView(c, app.logger)
			view.SetMessages(msgs)
			msg, ok := view.Message(id)
			if !ok {
				return fmt.Errorf("message %d is not in your inbox", id)
			}
			out := cmd.OutOrStdout()
			if !msg.Unread() {
				fmt.Fprintf(out, "Message %d is already read.\n", id)
				return nil
			}
			if err := view.MarkAsRead(cmd.Context(), id, nil); err != nil {
				return err
			}
			fmt.Fprintf(out, "Marked message %d from %s as read.\n", id, msg.SenderKey())
			return nil
		},
	}
}

type sendOpts struct {
	to           int64
	receiverType string
	context      string
}

func newSendCmd(app *cli) *cobra.Command {
	var opts sendOpts
	cmd := &cobra.Command{
		Use:   "send <text>...",
		Short: "Send a message",
		Long: "Send a message. Employees write to a manager; --to may be left out when\n" +
			"there is exactly one. Managers and admins address a receiver id and type.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runSend(cmd, opts, strings.Join(args, " "))
		},
	}
	cmd.Flags().Int64Var(&opts.to, "to", 0, "receiver id")
	cmd.Flags().StringVar(&opts.receiverType, "receiver-type", "", "employee, manager or admin")
	cmd.Flags().StringVar(&opts.context, "context", domain.ContextMessages, "message context")
	return cmd
}

func (app *cli) runSend(cmd *cobra.Command, opts sendOpts, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("message is required")
	}
	c, role, err := app.sessionClient()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	nm := domain.NewMessage{
		Context:    opts.context,
		Message:    text,
		SenderType: string(role),
	}
	if me, err := c.Me(ctx, role); err == nil {
		id := me.ID
		nm.SenderID = &id
		nm.SenderName = me.DisplayName()
	} else {
		app.logger.Warn("sender lookup failed", "role", role, "err", err)
	}

	to := opts.to
	receiverType := opts.receiverType
	if role == domain.RoleEmployee {
		managers, err := c.Managers(ctx)
		if err != nil {
			return err
		}
		to, err = pickManager(managers, to)
		if err != nil {
			return err
		}
		receiverType = string(domain.RoleManager)
	}
	if to == 0 {
		return errors.New("--to is required")
	}
	if receiverType == "" {
		receiverType = string(domain.RoleEmployee)
	}
	if _, err := domain.ParseRole(receiverType); err != nil {
		return err
	}
	nm.ReceiverID = &to
	nm.ReceiverType = receiverType

	created, err := c.SendMessage(ctx, nm)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sent message #%d\n", created.MessageID)
	return nil
}

// pickManager resolves the manager an employee writes to.
func pickManager(managers []domain.Recipient, to int64) (int64, error) {
	if to != 0 {
		if !slices.ContainsFunc(managers, func(r domain.Recipient) bool { return r.ID == to }) {
			return 0, fmt.Errorf("%d is not one of your managers", to)
		}
		return to, nil
	}
	switch len(managers) {
	case 0:
		return 0, errors.New("no manager to send to")
	case 1:
		return managers[0].ID, nil
	default:
		names := make([]string, 0, len(managers))
		for _, m := range managers {
			names = append(names, fmt.Sprintf("%d (%s)", m.ID, m.EmployeeName))
		}
		return 0, fmt.Errorf("pick a manager with --to: %s", strings.Join(names, ", "))
	}
}
