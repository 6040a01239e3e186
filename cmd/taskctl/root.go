package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"taskboard/client"
	"taskboard/models"
	"taskboard/store"
)

type app struct {
	APIURL    string
	TokenFile string

	client *client.Client
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "taskctl",
		Short:        "Manage taskboard tasks from the terminal",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Sign in once, the token is kept in ~/.taskboard
  taskctl login --email me@example.com --password '...'

  # List open high priority tasks
  taskctl list --pending --priority high

  # Add and complete a task
  taskctl add "Write release notes" -p high
  taskctl toggle 3
`),
	}

	cmd.PersistentFlags().StringVar(&a.APIURL, "api-url", client.BaseURLFromEnv(), "taskboard server URL (env "+client.EnvBaseURL+")")
	cmd.PersistentFlags().StringVar(&a.TokenFile, "token-file", "", "credentials file (default ~/.taskboard/credentials.json)")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		path := a.TokenFile
		if path == "" {
			p, err := client.DefaultStoragePath()
			if err != nil {
				return err
			}
			path = p
		}
		stderr := cmd.ErrOrStderr()
		a.client = client.New(a.APIURL, client.NewFileStorage(path), client.WithNavigator(func(string) {
			fmt.Fprintln(stderr, mutedStyle.Render("Session expired. Run `taskctl login` to sign in again."))
		}))
		return nil
	}

	cmd.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newRegisterCmd(a),
		newListCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newRemoveCmd(a),
		newToggleCmd(a),
	)
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "Signed in until "+resp.ExpiresAt.Local().Format("Jan 2 15:04"))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logout := a.client.Logout
			if all {
				logout = a.client.LogoutAll
			}
			if err := logout(cmd.Context()); err != nil && !errors.Is(err, client.ErrUnauthorized) {
				return err
			}
			ok(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "end every session of this account")
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Register(cmd.Context(), email, password); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "Account created, run `taskctl login` to sign in")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var (
		done, pending bool
		priority      string
		opts          client.ListOptions
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case done && pending:
				return errors.New("--done and --pending are mutually exclusive")
			case done, pending:
				opts.Completed = &done
			}
			if priority != "" {
				p, err := models.ParsePriority(priority)
				if err != nil {
					return err
				}
				opts.Priority = p
			}

			tasks, err := a.client.ListTasks(cmd.Context(), opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("No tasks yet. Add one with `taskctl add`."))
				return nil
			}
			for _, t := range tasks {
				fmt.Fprintln(out, card(t))
			}
			fmt.Fprintln(out, summary(tasks, filtered(opts)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&done, "done", false, "only completed tasks")
	cmd.Flags().BoolVar(&pending, "pending", false, "only open tasks")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "only tasks with this priority (low, medium, high)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of tasks (server default 50)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "skip this many tasks")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	var in models.TaskInput
	var priority string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := models.ParsePriority(priority)
			if err != nil {
				return err
			}
			in.Title = args[0]
			in.Priority = p
			if err := in.Validate(); err != nil {
				return err
			}

			t, err := a.client.CreateTask(cmd.Context(), in)
			if err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), store.Notice(store.ChangeAdded, t))
			fmt.Fprintln(cmd.OutOrStdout(), card(t))
			return nil
		},
	}
	cmd.Flags().StringVarP(&in.Description, "description", "d", "", "task description")
	cmd.Flags().StringVarP(&priority, "priority", "p", string(models.PriorityMedium), "low, medium or high")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var title, description, priority string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task's title, description or priority",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			t, err := a.client.GetTask(cmd.Context(), id)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("title") {
				t.Title = title
			}
			if flags.Changed("description") {
				t.Description = description
			}
			if flags.Changed("priority") {
				if t.Priority, err = models.ParsePriority(priority); err != nil {
					return err
				}
			}
			if err := t.Validate(); err != nil {
				return err
			}

			t, err = a.client.UpdateTask(cmd.Context(), t)
			if err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), store.Notice(store.ChangeUpdated, t))
			fmt.Fprintln(cmd.OutOrStdout(), card(t))
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "new priority")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.client.DeleteTask(cmd.Context(), id); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), store.Notice(store.ChangeDeleted, models.Task{ID: id}))
			return nil
		},
	}
}

func newToggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a task between complete and incomplete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			t, err := a.client.ToggleTask(cmd.Context(), id)
			if err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), store.Notice(store.ChangeToggled, t))
			return nil
		},
	}
}

// filtered reports whether opts narrow the list, in which case the tasks
// shown are not the whole board.
func filtered(opts client.ListOptions) bool {
	return opts.Completed != nil || opts.Priority != "" || opts.Limit > 0 || opts.Offset > 0
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}
