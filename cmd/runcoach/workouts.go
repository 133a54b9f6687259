package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ajohnson23/runcoach/internal/api"
	"github.com/ajohnson23/runcoach/internal/config"
	"github.com/ajohnson23/runcoach/internal/models"
	"github.com/ajohnson23/runcoach/internal/store"
)

func newWorkoutsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "workouts",
		Short: "Training schedule commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkoutsList(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "path to config file")
	cmd.AddCommand(newWorkoutsCompleteCmd())
	return cmd
}

func runWorkoutsList(cmd *cobra.Command, configPath string) error {
	_, st, client, err := openApp(configPath)
	if err != nil {
		return err
	}
	defer st.Close()

	out := cmd.OutOrStdout()
	workouts, err := client.Workouts(cmd.Context())
	if err != nil {
		// Fall back to the cached schedule when the backend is unreachable.
		rows, cacheErr := st.Workouts()
		if cacheErr != nil || len(rows) == 0 {
			return fmt.Errorf("%s", errorMessage(err))
		}
		fmt.Fprintln(out, "Offline: showing cached schedule.")
		workouts = make([]api.Workout, len(rows))
		for i, row := range rows {
			workouts[i] = api.Workout{
				ID:           row.RemoteID,
				Title:        row.Title,
				Description:  row.Description,
				ScheduledFor: row.ScheduledFor,
				IsComplete:   row.IsComplete,
			}
		}
	} else {
		cacheWorkouts(st, workouts)
	}

	if len(workouts) == 0 {
		fmt.Fprintln(out, "No workouts scheduled.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tWORKOUT\tSTATUS")
	for _, wk := range workouts {
		status := "pending"
		if wk.IsComplete {
			status = "done"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", wk.ID, wk.ScheduledFor, wk.Title, status)
	}
	return w.Flush()
}

// cacheWorkouts mirrors the server's schedule into the local store. Failures
// are ignored; the cache is advisory.
func cacheWorkouts(st *store.Store, workouts []api.Workout) {
	rows := make([]models.Workout, len(workouts))
	for i, wk := range workouts {
		rows[i] = models.Workout{
			RemoteID:     wk.ID,
			Title:        wk.Title,
			Description:  wk.Description,
			ScheduledFor: wk.ScheduledFor,
			IsComplete:   wk.IsComplete,
		}
	}
	st.ReplaceWorkouts(rows)
}

func newWorkoutsCompleteCmd() *cobra.Command {
	var (
		configPath string
		undo       bool
	)

	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a workout as done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad workout id %q", args[0])
			}
			return runWorkoutsComplete(cmd, configPath, id, !undo)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "path to config file")
	cmd.Flags().BoolVar(&undo, "undo", false, "mark the workout as not done")
	return cmd
}

func runWorkoutsComplete(cmd *cobra.Command, configPath string, id int64, isComplete bool) error {
	_, st, client, err := openApp(configPath)
	if err != nil {
		return err
	}
	defer st.Close()

	wk, err := client.CompleteWorkout(cmd.Context(), id, isComplete)
	if err != nil {
		return fmt.Errorf("%s", errorMessage(err))
	}

	status := "done"
	if !wk.IsComplete {
		status = "pending"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Workout %d (%s) marked %s.\n", wk.ID, wk.Title, status)
	return nil
}

func newPlanCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the current training plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "path to config file")
	return cmd
}

func runPlan(cmd *cobra.Command, configPath string) error {
	_, st, client, err := openApp(configPath)
	if err != nil {
		return err
	}
	defer st.Close()

	plan, err := client.TrainingPlan(cmd.Context())
	if err != nil {
		return fmt.Errorf("%s", errorMessage(err))
	}
	out := cmd.OutOrStdout()
	if plan == nil {
		fmt.Fprintln(out, "No training plan yet. Ask your coach for one.")
		return nil
	}

	fmt.Fprintf(out, "%s\n", plan.Name)
	fmt.Fprintf(out, "Goal: %s\n", plan.Goal)
	fmt.Fprintf(out, "Window: %s to %s\n", plan.StartDate, plan.EndDate)
	fmt.Fprintf(out, "Weekly miles: %d\n", plan.WeeklyMiles)
	return nil
}
