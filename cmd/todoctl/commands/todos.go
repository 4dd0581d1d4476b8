package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/benvon/todo-api/internal/client"
	"github.com/benvon/todo-api/internal/models"
	"github.com/spf13/cobra"
)

func (o *rootOptions) withClient(cmd *cobra.Command, fn func(ctx context.Context, c *client.Client) error) error {
	c, err := o.client()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	defer cancel()
	return fn(ctx, c)
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid todo id %q", arg)
	}
	return id, nil
}

func parsePriority(raw string) (*models.Priority, error) {
	if raw == "" {
		return nil, nil
	}
	p := models.Priority(strings.ToLower(raw))
	if !p.IsValid() {
		return nil, fmt.Errorf("invalid priority %q", raw)
	}
	return &p, nil
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var listOpts client.ListOptions
	var completed, pending bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if completed && pending {
				return fmt.Errorf("--completed and --pending are mutually exclusive")
			}
			switch {
			case completed:
				listOpts.Status = "completed"
			case pending:
				listOpts.Status = "pending"
			}

			return opts.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				result, err := c.List(ctx, listOpts)
				if err != nil {
					return fmt.Errorf("list todos: %w", err)
				}

				out := cmd.OutOrStdout()
				if len(result.Todos) == 0 {
					fmt.Fprintln(out, "No todos found")
					return nil
				}
				for _, t := range result.Todos {
					printTodoLine(out, t)
				}
				fmt.Fprintln(out, faint(fmt.Sprintf("\nShowing %d of %d", result.Count, result.Total)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&completed, "completed", false, "Only completed todos")
	cmd.Flags().BoolVar(&pending, "pending", false, "Only pending todos")
	cmd.Flags().StringVar(&listOpts.Search, "search", "", "Case-insensitive title search")
	cmd.Flags().IntVar(&listOpts.Limit, "limit", 0, "Maximum number of todos to show")
	return cmd
}

func newGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				todo, err := c.Get(ctx, id)
				if err != nil {
					return fmt.Errorf("get todo: %w", err)
				}
				printTodo(cmd.OutOrStdout(), todo)
				return nil
			})
		},
	}
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var priority string
	var done bool

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePriority(priority)
			if err != nil {
				return err
			}
			title := strings.Join(args, " ")
			req := client.TodoRequest{Title: &title, Priority: p}
			if cmd.Flags().Changed("done") {
				req.Done = &done
			}

			return opts.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				todo, err := c.Create(ctx, req)
				if err != nil {
					return fmt.Errorf("create todo: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s todo %d\n", green("Created"), todo.ID)
				printTodoLine(cmd.OutOrStdout(), todo)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Priority: low, normal, high, urgent")
	cmd.Flags().BoolVar(&done, "done", false, "Create the todo already completed")
	return cmd
}

func newUpdateCmd(opts *rootOptions) *cobra.Command {
	var title, priority string
	var done bool

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a todo",
		Long:  "Update a todo. Only the flags given are changed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := parsePriority(priority)
			if err != nil {
				return err
			}

			req := client.TodoRequest{Priority: p}
			if cmd.Flags().Changed("title") {
				req.Title = &title
			}
			if cmd.Flags().Changed("done") {
				req.Done = &done
			}
			if req.Title == nil && req.Done == nil && req.Priority == nil {
				return fmt.Errorf("nothing to update: pass --title, --done or --priority")
			}

			return opts.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				todo, err := c.Patch(ctx, id, req)
				if err != nil {
					return fmt.Errorf("update todo: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s todo %d\n", green("Updated"), todo.ID)
				printTodoLine(cmd.OutOrStdout(), todo)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "New priority")
	cmd.Flags().BoolVar(&done, "done", false, "Mark done (--done=false to reopen)")
	return cmd
}

func newDoneCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a todo as done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			done := true
			return opts.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				todo, err := c.Patch(ctx, id, client.TodoRequest{Done: &done})
				if err != nil {
					return fmt.Errorf("complete todo: %w", err)
				}
				printTodoLine(cmd.OutOrStdout(), todo)
				return nil
			})
		},
	}
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				todo, err := c.Delete(ctx, id)
				if err != nil {
					return fmt.Errorf("delete todo: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s todo %d (%s)\n", red("Deleted"), todo.ID, todo.Title)
				return nil
			})
		},
	}
}

func newCompleteAllCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "complete-all",
		Short: "Mark every pending todo as done",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				count, err := c.CompleteAll(ctx)
				if err != nil {
					return fmt.Errorf("complete all: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %s todos as done\n", green(count))
				return nil
			})
		},
	}
}

func newClearCompletedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed",
		Short: "Remove completed todos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				removed, remaining, err := c.ClearCompleted(ctx)
				if err != nil {
					return fmt.Errorf("clear completed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s completed todos, %d remaining\n", red(removed), remaining)
				return nil
			})
		},
	}
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var detailed bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show todo statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if detailed {
					stats, err := c.DetailedStats(ctx)
					if err != nil {
						return fmt.Errorf("get detailed stats: %w", err)
					}
					printDetailedStats(cmd.OutOrStdout(), stats)
					return nil
				}

				stats, err := c.Stats(ctx)
				if err != nil {
					return fmt.Errorf("get stats: %w", err)
				}
				printStats(cmd.OutOrStdout(), stats)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&detailed, "detailed", "d", false, "Include priority breakdown and recent activity")
	return cmd
}

func newHealthCmd(opts *rootOptions) *cobra.Command {
	var extended bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				status, err := c.Health(ctx, extended)
				if err != nil {
					return fmt.Errorf("health check: %w", err)
				}
				printHealth(cmd.OutOrStdout(), status)
				if status.Status != "healthy" {
					return fmt.Errorf("server is %s", status.Status)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&extended, "extended", "e", false, "Include dependency checks")
	return cmd
}
