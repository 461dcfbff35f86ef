package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tkessler/daybook/internal/config"
	"github.com/tkessler/daybook/internal/database"
	"github.com/tkessler/daybook/internal/events"
	"github.com/tkessler/daybook/internal/models"
	"github.com/tkessler/daybook/internal/report"
	"github.com/tkessler/daybook/internal/util"
)

var (
	// Persistent flags.
	configPath string
	dbPath     string

	// Command-local flags.
	addDesc     string
	addPriority string
	addType     string
	addDue      string
	addRecur    string
	addEvery    int
	addUntil    string
	addParent   int64
	addEstimate int

	listAll    bool
	listStatus string
	listQuery  string

	exportOut     string
	exportEncrypt bool

	importEncrypted bool

	reportPDF  bool
	reportDays int

	pomodoroMinutes int

	rootCmd = &cobra.Command{
		Use:   "daybook",
		Short: "A personal task manager with dependencies, recurrence, and a full activity log.",
		Long: `Daybook tracks tasks in a local SQLite file: statuses, priorities,
"blocked by" dependencies, recurring tasks, labels, and an append-only
activity history for every change.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addCmd = &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAdd,
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List open tasks, or search with --query.",
		RunE:  runList,
	}

	showCmd = &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task with its labels, blockers, and subtasks.",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}

	statusCmd = &cobra.Command{
		Use:   "status <id> <backlog|next|in_progress|blocked|done>",
		Short: "Move a task to a status.",
		Args:  cobra.ExactArgs(2),
		RunE:  runStatus,
	}

	doneCmd = &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a task between done and its previous status.",
		Args:  cobra.ExactArgs(1),
		RunE:  runDone,
	}

	rmCmd = &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task and everything attached to it.",
		Args:  cobra.ExactArgs(1),
		RunE:  runRemove,
	}

	depCmd = &cobra.Command{
		Use:   "dep",
		Short: "Manage \"blocked by\" dependencies.",
	}

	depAddCmd = &cobra.Command{
		Use:   "add <id> <blocker-id>",
		Short: "Mark a task as blocked by another.",
		Args:  cobra.ExactArgs(2),
		RunE:  runDepAdd,
	}

	depRmCmd = &cobra.Command{
		Use:   "rm <id> <blocker-id>",
		Short: "Remove a dependency edge.",
		Args:  cobra.ExactArgs(2),
		RunE:  runDepRemove,
	}

	depShowCmd = &cobra.Command{
		Use:   "show <id>",
		Short: "Show what blocks a task and what it is blocking.",
		Args:  cobra.ExactArgs(1),
		RunE:  runDepShow,
	}

	labelCmd = &cobra.Command{
		Use:   "label",
		Short: "Manage task labels.",
	}

	labelAddCmd = &cobra.Command{
		Use:   "add <id> <name>",
		Short: "Attach a label to a task.",
		Args:  cobra.ExactArgs(2),
		RunE:  runLabelAdd,
	}

	labelRmCmd = &cobra.Command{
		Use:   "rm <id> <name>",
		Short: "Detach a label from a task.",
		Args:  cobra.ExactArgs(2),
		RunE:  runLabelRemove,
	}

	commentCmd = &cobra.Command{
		Use:   "comment <id> <text>",
		Short: "Add a comment to a task's history.",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runComment,
	}

	historyCmd = &cobra.Command{
		Use:   "history <id>",
		Short: "Show a task's activity log.",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistory,
	}

	pomodoroCmd = &cobra.Command{
		Use:   "pomodoro <id>",
		Short: "Record a finished pomodoro against a task.",
		Args:  cobra.ExactArgs(1),
		RunE:  runPomodoro,
	}

	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Export the whole store as JSON, optionally encrypted.",
		RunE:  runExport,
	}

	importCmd = &cobra.Command{
		Use:   "import <file>",
		Short: "Restore a previously exported snapshot into the store.",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}

	reportCmd = &cobra.Command{
		Use:   "report",
		Short: "Generate an activity report.",
		RunE:  runReport,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file.")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the database file (overrides config).")

	addCmd.Flags().StringVar(&addDesc, "desc", "", "Task description.")
	addCmd.Flags().StringVar(&addPriority, "priority", "medium", "Priority: low, medium, high.")
	addCmd.Flags().StringVar(&addType, "type", "", "Free-form task type.")
	addCmd.Flags().StringVar(&addDue, "due", "", "Due date (YYYY-MM-DD).")
	addCmd.Flags().StringVar(&addRecur, "recur", "none", "Recurrence: none, daily, weekly, monthly.")
	addCmd.Flags().IntVar(&addEvery, "every", 1, "Recurrence interval.")
	addCmd.Flags().StringVar(&addUntil, "until", "", "Recurrence end date (YYYY-MM-DD).")
	addCmd.Flags().Int64Var(&addParent, "parent", 0, "Parent task ID for subtasks.")
	addCmd.Flags().IntVar(&addEstimate, "estimate", 0, "Estimated minutes.")

	listCmd.Flags().BoolVar(&listAll, "all", false, "Include done tasks.")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Only tasks in this status.")
	listCmd.Flags().StringVar(&listQuery, "query", "", "Search query (label:, status:, priority:, type:, free text).")

	pomodoroCmd.Flags().IntVar(&pomodoroMinutes, "minutes", int(config.PomodoroLength.Minutes()), "Minutes to add to actual effort.")

	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file (default stdout).")
	exportCmd.Flags().BoolVar(&exportEncrypt, "encrypt", false, "Encrypt with a passphrase.")

	importCmd.Flags().BoolVar(&importEncrypted, "encrypted", false, "The file was exported with --encrypt.")

	reportCmd.Flags().BoolVar(&reportPDF, "pdf", false, "Write a PDF instead of text.")
	reportCmd.Flags().IntVar(&reportDays, "days", 7, "How many days back the report covers.")

	depCmd.AddCommand(depAddCmd, depRmCmd, depShowCmd)
	labelCmd.AddCommand(labelAddCmd, labelRmCmd)
	rootCmd.AddCommand(addCmd, listCmd, showCmd, statusCmd, doneCmd, rmCmd,
		depCmd, labelCmd, commentCmd, historyCmd, pomodoroCmd, exportCmd, importCmd, reportCmd)
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// openDB loads config, opens the store, and wires the completion bus so
// crossing the done boundary prints a confirmation.
func openDB(ctx context.Context) (*database.Database, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	path := cfg.DBPath
	if dbPath != "" {
		path = dbPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := database.Open(ctx, path)
	if err != nil {
		return nil, err
	}

	bus := events.NewBus()
	bus.Subscribe(func(_ context.Context, e events.Event) {
		switch e.Type {
		case events.TypeTaskCompleted:
			fmt.Println(successStyle.Render(fmt.Sprintf("Task %d completed.", e.TaskID)))
		case events.TypeTaskReopened:
			fmt.Println(mutedStyle.Render(fmt.Sprintf("Task %d reopened.", e.TaskID)))
		}
	})
	db.SetNotifier(bus)
	return db, nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}

func parseDate(arg string) (*time.Time, error) {
	if arg == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", arg)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", arg)
	}
	return &t, nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	due, err := parseDate(addDue)
	if err != nil {
		return err
	}
	until, err := parseDate(addUntil)
	if err != nil {
		return err
	}
	seed := database.TaskSeed{
		Title:              strings.Join(args, " "),
		Description:        addDesc,
		Priority:           models.Priority(addPriority),
		TaskType:           addType,
		DueAt:              due,
		Recurrence:         models.Recurrence(addRecur),
		RecurrenceInterval: addEvery,
		RecurrenceEndDate:  until,
		EstimatedMinutes:   addEstimate,
	}
	if addParent > 0 {
		seed.ParentTaskID = &addParent
	}

	task, err := db.CreateTask(ctx, seed)
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("Created task %d: %s", task.ID, task.Title)))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	var tasks []models.Task
	switch {
	case listQuery != "":
		tasks, err = db.Search(ctx, util.ParseSearchQuery(listQuery))
	case listStatus != "":
		tasks, err = db.GetTasksByStatus(ctx, models.TaskStatus(listStatus))
	case listAll:
		tasks, err = db.GetAllTasks(ctx)
	default:
		tasks, err = db.GetOpenTasks(ctx)
	}
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println(mutedStyle.Render("No tasks."))
		return nil
	}
	for _, t := range tasks {
		fmt.Println(renderTaskLine(t))
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	task, err := db.GetTask(ctx, id)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("#%d %s", task.ID, task.Title)))
	if desc := util.Deref(task.Description); desc != "" {
		fmt.Println(desc)
	}
	fmt.Printf("Status: %s   Priority: %s   Done: %v\n", task.Status, task.Priority, task.Done)
	if task.DueAt != nil {
		fmt.Printf("Due: %s\n", task.DueAt.Format("2006-01-02"))
	}
	if task.RecurrenceType != models.RecurrenceNone {
		line := fmt.Sprintf("Repeats: %s (every %d)", task.RecurrenceType, task.RecurrenceInterval)
		if task.RecurrenceEndDate != nil {
			line += " until " + task.RecurrenceEndDate.Format("2006-01-02")
		}
		fmt.Println(line)
	}
	if task.PomodoroCompleted > 0 || task.ActualMinutes > 0 {
		fmt.Printf("Effort: %d pomodoros, %d minutes\n", task.PomodoroCompleted, task.ActualMinutes)
	}

	labels, err := db.GetTaskLabels(ctx, id)
	if err != nil {
		return err
	}
	if len(labels) > 0 {
		names := make([]string, len(labels))
		for i, l := range labels {
			names[i] = l.Name
		}
		fmt.Printf("Labels: %s\n", strings.Join(names, ", "))
	}

	blockers, err := db.BlockedBy(ctx, id)
	if err != nil {
		return err
	}
	for _, blocker := range blockers {
		marker := warnStyle.Render("blocked by")
		if blocker.Done {
			marker = mutedStyle.Render("was blocked by")
		}
		fmt.Printf("  %s #%d %s\n", marker, blocker.ID, blocker.Title)
	}

	subtasks, err := db.GetSubtasks(ctx, id)
	if err != nil {
		return err
	}
	for _, sub := range subtasks {
		fmt.Printf("  subtask %s\n", renderTaskLine(sub))
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	task, err := db.SetStatus(ctx, id, models.TaskStatus(args[1]))
	if err != nil {
		return err
	}
	fmt.Printf("Task %d is now %s.\n", task.ID, task.Status)
	return nil
}

func runDone(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	_, err = db.ToggleTask(ctx, id)
	return err
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := db.DeleteTask(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Task %d deleted.\n", id)
	return nil
}

func runDepAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	blocker, err := parseID(args[1])
	if err != nil {
		return err
	}
	if err := db.AddDependency(ctx, id, blocker); err != nil {
		return err
	}
	fmt.Printf("Task %d is now blocked by %d.\n", id, blocker)
	return nil
}

func runDepRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	blocker, err := parseID(args[1])
	if err != nil {
		return err
	}
	return db.RemoveDependency(ctx, id, blocker)
}

func runDepShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	blocked, err := db.IsBlocked(ctx, id)
	if err != nil {
		return err
	}
	if blocked {
		fmt.Println(warnStyle.Render(fmt.Sprintf("Task %d is blocked.", id)))
	} else {
		fmt.Println(successStyle.Render(fmt.Sprintf("Task %d is not blocked.", id)))
	}

	blockers, err := db.BlockedBy(ctx, id)
	if err != nil {
		return err
	}
	for _, t := range blockers {
		fmt.Printf("  blocked by %s\n", renderTaskLine(t))
	}
	blocking, err := db.Blocking(ctx, id)
	if err != nil {
		return err
	}
	for _, t := range blocking {
		fmt.Printf("  blocking %s\n", renderTaskLine(t))
	}
	return nil
}

func runLabelAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return db.AssignLabel(ctx, id, args[1])
}

func runLabelRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return db.UnassignLabel(ctx, id, args[1])
}

func runComment(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return db.AddComment(ctx, id, nil, strings.Join(args[1:], " "))
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	logs, err := db.GetTaskLogs(ctx, id)
	if err != nil {
		return err
	}
	if len(logs) > config.HistoryLimit {
		logs = logs[len(logs)-config.HistoryLimit:]
	}
	for _, l := range logs {
		fmt.Println(renderLogLine(l))
	}
	return nil
}

func runPomodoro(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := db.CompletePomodoro(ctx, id, pomodoroMinutes); err != nil {
		return err
	}
	task, err := db.GetTask(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("Task %d: %d pomodoros, %d minutes total.\n", id, task.PomodoroCompleted, task.ActualMinutes)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	var passphrase string
	if exportEncrypt {
		passphrase, err = promptPassphrase()
		if err != nil {
			return err
		}
	}

	out := os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := db.WriteExport(ctx, out, passphrase); err != nil {
		return err
	}
	if exportOut != "" {
		fmt.Fprintln(os.Stderr, successStyle.Render("Export written to "+exportOut))
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	var passphrase string
	if importEncrypted {
		fmt.Fprint(os.Stderr, "Passphrase: ")
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("read passphrase: %w", err)
		}
		passphrase = string(secret)
	}

	export, err := database.ReadExport(f, passphrase)
	if err != nil {
		return err
	}
	if err := db.ImportExport(ctx, export); err != nil {
		return err
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("Imported %d tasks, %d labels, %d dependencies, %d log entries.",
		len(export.Tasks), len(export.Labels), len(export.Dependencies), len(export.Logs))))
	return nil
}

func promptPassphrase() (string, error) {
	fmt.Fprint(os.Stderr, "Passphrase: ")
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	if err := util.ValidatePassphrase(string(first)); err != nil {
		return "", err
	}
	fmt.Fprint(os.Stderr, "Repeat: ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("passphrases do not match")
	}
	return string(first), nil
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	since := time.Now().AddDate(0, 0, -reportDays)
	if !reportPDF {
		return report.WriteText(ctx, os.Stdout, db, since)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.ReportsDir, 0o755); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}
	path := filepath.Join(cfg.ReportsDir, fmt.Sprintf("report_%s.pdf", time.Now().Format("2006-01-02")))
	if err := report.WritePDF(ctx, path, db, since); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("PDF report written to " + path))
	return nil
}
