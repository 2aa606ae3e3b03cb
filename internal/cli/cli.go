package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/internal/log"
	internal_storage "github.com/RyosukeMondo/todo-for-visual-thinker-sub001/internal/storage"
	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/models"
	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/service"
	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/storage"
)

// SetupCLI attaches the board commands to the root command.
func SetupCLI(rootCmd *cobra.Command) {
	rootCmd.AddCommand(taskCmd(), relCmd(), boardCmd(), treeCmd())
}

func dbConn(cmd *cobra.Command) string {
	dbConnStr, err := cmd.Flags().GetString("db")
	if err != nil {
		log.GetLogger().Errorf("Error retrieving db flag: %v", err)
		os.Exit(1)
	}
	return dbConnStr
}

func initStore(dbConnStr string) *internal_storage.PostgresStore {
	store, err := internal_storage.InitStore(dbConnStr)
	if err != nil {
		log.GetLogger().Errorf("Failed to initialize store: %v", err)
		fmt.Fprintf(os.Stderr, "Error: failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	return store
}

func fail(err error) {
	log.GetLogger().Errorf("Command failed: %v", err)
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func taskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks on the board",
	}

	createCmd := &cobra.Command{
		Use:   "create [title]",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(dbConn(cmd))
			defer store.Close()
			svc := service.NewTaskService(store, log.GetLogger())

			in := service.CreateTaskInput{Title: args[0]}
			in.Description, _ = cmd.Flags().GetString("description")
			status, _ := cmd.Flags().GetString("status")
			in.Status = models.TaskStatus(status)
			in.Priority, _ = cmd.Flags().GetInt("priority")
			in.Category, _ = cmd.Flags().GetString("category")
			in.Color, _ = cmd.Flags().GetString("color")
			in.Icon, _ = cmd.Flags().GetString("icon")
			x, _ := cmd.Flags().GetFloat64("x")
			y, _ := cmd.Flags().GetFloat64("y")
			if cmd.Flags().Changed("x") || cmd.Flags().Changed("y") {
				in.Position = &models.Position{X: x, Y: y}
			}

			task, err := svc.Create(in)
			if err != nil {
				fail(err)
			}
			fmt.Fprintf(os.Stdout, "Created task '%s' with ID %s\n", task.Title, task.ID)
		},
	}
	createCmd.Flags().String("description", "", "Task description")
	createCmd.Flags().String("status", "", "Initial status (pending, in_progress, completed)")
	createCmd.Flags().Int("priority", 0, "Priority 1-5 (default 3)")
	createCmd.Flags().String("category", "", "Category")
	createCmd.Flags().String("color", "", "Hex color, e.g. #4f46e5")
	createCmd.Flags().String("icon", "", "Icon name")
	createCmd.Flags().Float64("x", 0, "Canvas x position")
	createCmd.Flags().Float64("y", 0, "Canvas y position")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(dbConn(cmd))
			defer store.Close()
			svc := service.NewTaskService(store, log.GetLogger())

			in := service.ListTasksInput{}
			statuses, _ := cmd.Flags().GetStringSlice("status")
			for _, s := range statuses {
				in.Statuses = append(in.Statuses, models.TaskStatus(s))
			}
			in.Category, _ = cmd.Flags().GetString("category")
			in.Search, _ = cmd.Flags().GetString("search")
			sortBy, _ := cmd.Flags().GetString("sort")
			in.SortBy = storage.SortField(sortBy)
			direction, _ := cmd.Flags().GetString("direction")
			in.SortDir = storage.SortDirection(direction)
			if cmd.Flags().Changed("limit") {
				limit, _ := cmd.Flags().GetInt("limit")
				in.Limit = &limit
			}
			if cmd.Flags().Changed("offset") {
				offset, _ := cmd.Flags().GetInt("offset")
				in.Offset = &offset
			}

			tasks, err := svc.List(in)
			if err != nil {
				fail(err)
			}
			if len(tasks) == 0 {
				fmt.Fprintln(os.Stdout, "No tasks found.")
				return
			}
			for _, t := range tasks {
				fmt.Fprintf(os.Stdout, "- %s [%s] p%d (%.0f,%.0f) %s  created %s\n",
					t.ID, t.Status, t.Priority, t.Position.X, t.Position.Y, t.Title,
					t.CreatedAt.Format(time.RFC3339))
			}
		},
	}
	listCmd.Flags().StringSlice("status", nil, "Filter by status (repeatable)")
	listCmd.Flags().String("category", "", "Filter by category")
	listCmd.Flags().String("search", "", "Free-text search in title/description")
	listCmd.Flags().String("sort", "", "Sort field (priority, createdAt, updatedAt)")
	listCmd.Flags().String("direction", "", "Sort direction (asc, desc)")
	listCmd.Flags().Int("limit", 0, "Page size (max 500)")
	listCmd.Flags().Int("offset", 0, "Page offset")

	updateCmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Update task fields",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(dbConn(cmd))
			defer store.Close()
			svc := service.NewTaskService(store, log.GetLogger())

			in := service.UpdateTaskInput{ID: args[0]}
			stringFlag := func(name string) *string {
				if !cmd.Flags().Changed(name) {
					return nil
				}
				v, _ := cmd.Flags().GetString(name)
				return &v
			}
			in.Title = stringFlag("title")
			in.Description = stringFlag("description")
			in.Category = stringFlag("category")
			in.Color = stringFlag("color")
			in.Icon = stringFlag("icon")
			if s := stringFlag("status"); s != nil {
				status := models.TaskStatus(*s)
				in.Status = &status
			}
			if cmd.Flags().Changed("priority") {
				priority, _ := cmd.Flags().GetInt("priority")
				in.Priority = &priority
			}
			if cmd.Flags().Changed("x") || cmd.Flags().Changed("y") {
				x, _ := cmd.Flags().GetFloat64("x")
				y, _ := cmd.Flags().GetFloat64("y")
				in.Position = &models.Position{X: x, Y: y}
			}

			task, err := svc.Update(in)
			if err != nil {
				fail(err)
			}
			fmt.Fprintf(os.Stdout, "Updated task %s\n", task.ID)
		},
	}
	updateCmd.Flags().String("title", "", "New title")
	updateCmd.Flags().String("description", "", "New description (empty clears)")
	updateCmd.Flags().String("status", "", "New status")
	updateCmd.Flags().Int("priority", 0, "New priority")
	updateCmd.Flags().String("category", "", "New category (empty clears)")
	updateCmd.Flags().String("color", "", "New color")
	updateCmd.Flags().String("icon", "", "New icon (empty clears)")
	updateCmd.Flags().Float64("x", 0, "New x position")
	updateCmd.Flags().Float64("y", 0, "New y position")

	completeCmd := &cobra.Command{
		Use:   "complete [id]",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(dbConn(cmd))
			defer store.Close()
			svc := service.NewTaskService(store, log.GetLogger())
			status := models.CompletedTaskStatus
			task, err := svc.Update(service.UpdateTaskInput{ID: args[0], Status: &status})
			if err != nil {
				fail(err)
			}
			fmt.Fprintf(os.Stdout, "Completed task %s\n", task.ID)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a task and its relationships",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(dbConn(cmd))
			defer store.Close()
			svc := service.NewTaskService(store, log.GetLogger())
			if err := svc.Delete(args[0]); err != nil {
				fail(err)
			}
			fmt.Fprintf(os.Stdout, "Deleted task %s\n", args[0])
		},
	}

	cmd.AddCommand(createCmd, listCmd, updateCmd, completeCmd, deleteCmd)
	return cmd
}

func relCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rel",
		Short: "Manage relationships between tasks",
	}

	createCmd := &cobra.Command{
		Use:   "create [from-id] [to-id]",
		Short: "Create a relationship",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(dbConn(cmd))
			defer store.Close()
			svc := service.NewRelationshipService(store, log.GetLogger())

			typ, _ := cmd.Flags().GetString("type")
			description, _ := cmd.Flags().GetString("description")
			rel, err := svc.Create(service.CreateRelationshipInput{
				FromID:      args[0],
				ToID:        args[1],
				Type:        models.RelationshipType(typ),
				Description: description,
			})
			if err != nil {
				fail(err)
			}
			fmt.Fprintf(os.Stdout, "Created %s relationship %s: %s -> %s\n", rel.Type, rel.ID, rel.FromID, rel.ToID)
		},
	}
	createCmd.Flags().String("type", string(models.RelatedToRelationship), "Relationship type (depends_on, blocks, related_to, parent_of)")
	createCmd.Flags().String("description", "", "Description")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List relationships",
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(dbConn(cmd))
			defer store.Close()
			svc := service.NewRelationshipService(store, log.GetLogger())

			in := service.ListRelationshipsInput{}
			in.FromID, _ = cmd.Flags().GetString("from")
			in.ToID, _ = cmd.Flags().GetString("to")
			in.Involving, _ = cmd.Flags().GetString("involving")
			types, _ := cmd.Flags().GetStringSlice("type")
			for _, t := range types {
				in.Types = append(in.Types, models.RelationshipType(t))
			}
			if cmd.Flags().Changed("limit") {
				limit, _ := cmd.Flags().GetInt("limit")
				in.Limit = &limit
			}
			if cmd.Flags().Changed("offset") {
				offset, _ := cmd.Flags().GetInt("offset")
				in.Offset = &offset
			}

			rels, err := svc.List(in)
			if err != nil {
				fail(err)
			}
			if len(rels) == 0 {
				fmt.Fprintln(os.Stdout, "No relationships found.")
				return
			}
			for _, r := range rels {
				line := fmt.Sprintf("- %s %s -> %s (%s)", r.ID, r.FromID, r.ToID, r.Type)
				if r.Description != "" {
					line += ": " + r.Description
				}
				fmt.Fprintln(os.Stdout, line)
			}
		},
	}
	listCmd.Flags().String("from", "", "Filter by source task id")
	listCmd.Flags().String("to", "", "Filter by target task id")
	listCmd.Flags().String("involving", "", "Filter by either endpoint")
	listCmd.Flags().StringSlice("type", nil, "Filter by type (repeatable)")
	listCmd.Flags().Int("limit", 0, "Page size (max 500)")
	listCmd.Flags().Int("offset", 0, "Page offset")

	retypeCmd := &cobra.Command{
		Use:   "retype [id]",
		Short: "Change a relationship's type and/or description",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(dbConn(cmd))
			defer store.Close()
			svc := service.NewRelationshipService(store, log.GetLogger())

			in := service.UpdateTypeInput{ID: args[0]}
			if cmd.Flags().Changed("type") {
				v, _ := cmd.Flags().GetString("type")
				typ := models.RelationshipType(v)
				in.Type = &typ
			}
			if cmd.Flags().Changed("description") {
				v, _ := cmd.Flags().GetString("description")
				in.Description = &v
			}
			rel, err := svc.UpdateType(in)
			if err != nil {
				fail(err)
			}
			fmt.Fprintf(os.Stdout, "Updated relationship %s (now %s)\n", rel.ID, rel.Type)
		},
	}
	retypeCmd.Flags().String("type", "", "New type")
	retypeCmd.Flags().String("description", "", "New description (empty clears)")

	deleteCmd := &cobra.Command{
		Use:   "delete [id]...",
		Short: "Delete one or more relationships",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(dbConn(cmd))
			defer store.Close()
			svc := service.NewRelationshipService(store, log.GetLogger())
			if err := svc.Delete(args...); err != nil {
				fail(err)
			}
			fmt.Fprintf(os.Stdout, "Deleted %d relationship(s)\n", len(args))
		},
	}

	cmd.AddCommand(createCmd, listCmd, retypeCmd, deleteCmd)
	return cmd
}

func boardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show the board snapshot: totals, bounds, viewport",
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(dbConn(cmd))
			defer store.Close()
			taskSvc := service.NewTaskService(store, log.GetLogger())
			relSvc := service.NewRelationshipService(store, log.GetLogger())

			limit := storage.MaxLimit
			tasks, err := taskSvc.List(service.ListTasksInput{Limit: &limit})
			if err != nil {
				fail(err)
			}
			rels, err := relSvc.List(service.ListRelationshipsInput{Limit: &limit})
			if err != nil {
				fail(err)
			}

			snapshot := service.BuildSnapshot(tasks, rels, service.SnapshotOptions{})
			fmt.Fprintf(os.Stdout, "Tasks: %d, relationships on board: %d\n",
				snapshot.Totals.Count, len(snapshot.Relationships))
			for _, s := range models.TaskStatuses {
				fmt.Fprintf(os.Stdout, "  %-12s %d\n", s, snapshot.Totals.Statuses[s])
			}
			for p := models.MinPriority; p <= models.MaxPriority; p++ {
				fmt.Fprintf(os.Stdout, "  priority %d   %d\n", p, snapshot.Totals.Priorities[p])
			}
			b := snapshot.Bounds
			fmt.Fprintf(os.Stdout, "Bounds: x [%.1f, %.1f] y [%.1f, %.1f] center (%.1f, %.1f)\n",
				b.MinX, b.MaxX, b.MinY, b.MaxY, b.Center.X, b.Center.Y)
			v := snapshot.Viewport
			fmt.Fprintf(os.Stdout, "Viewport: %gx%g, x [%.1f, %.1f] y [%.1f, %.1f]\n",
				v.Width, v.Height, v.X.Min, v.X.Max, v.Y.Min, v.Y.Max)
		},
	}
	return cmd
}

func treeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the parent/child hierarchy",
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(dbConn(cmd))
			defer store.Close()
			taskSvc := service.NewTaskService(store, log.GetLogger())
			relSvc := service.NewRelationshipService(store, log.GetLogger())

			limit := storage.MaxLimit
			tasks, err := taskSvc.List(service.ListTasksInput{Limit: &limit})
			if err != nil {
				fail(err)
			}
			rels, err := relSvc.List(service.ListRelationshipsInput{
				Types: []models.RelationshipType{models.ParentOfRelationship},
				Limit: &limit,
			})
			if err != nil {
				fail(err)
			}

			forest := service.BuildHierarchy(tasks, rels, models.ParentOfRelationship)
			if len(forest) == 0 {
				fmt.Fprintln(os.Stdout, "No tasks found.")
				return
			}
			var render func(node *service.HierarchyNode)
			render = func(node *service.HierarchyNode) {
				indent := strings.Repeat("  ", node.Depth)
				fmt.Fprintf(os.Stdout, "%s- %s [%s] %s\n", indent, node.ID, node.Task.Status, node.Task.Title)
				for _, child := range node.Children {
					render(child)
				}
			}
			for _, root := range forest {
				render(root)
			}
		},
	}
	return cmd
}
