package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/aanand-mishra/studentdb/internal/types"
)

// newStudentCmd is the root of the record management commands.
func newStudentCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "student",
		Short: "Manage student records (add, list, get, find, update, delete, stats)",
		Long: `The 'student' command group works directly on the student table:
  - Add a student
  - List all students or look one up by id or exact name
  - Update a student (the record may move to a new id)
  - Delete a student
  - Show table statistics`,
	}

	cmd.AddCommand(
		newStudentAddCmd(flags),
		newStudentListCmd(flags),
		newStudentGetCmd(flags),
		newStudentFindCmd(flags),
		newStudentUpdateCmd(flags),
		newStudentDeleteCmd(flags),
		newStudentStatsCmd(flags),
	)
	return cmd
}

// studentFields are the --name/--age/--grade flags shared by add and update.
type studentFields struct {
	name  string
	age   int
	grade string
}

func (f *studentFields) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "student name")
	cmd.Flags().IntVar(&f.age, "age", 18, "student age")
	cmd.Flags().StringVar(&f.grade, "grade", "", "student grade")
}

// check applies the same struct tags the HTTP handlers enforce.
func (f *studentFields) check() error {
	err := validator.New().Struct(types.Student{Name: f.name, Age: f.age, Grade: f.grade})
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fe := verrs[0]
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			return types.NewError("cli", types.ErrInvalidInput, "--"+field+" is required")
		default:
			return types.NewError("cli", types.ErrInvalidInput, "--"+field+" must be between 1 and 100")
		}
	}
	return err
}

func newStudentAddCmd(flags *rootFlags) *cobra.Command {
	var f studentFields
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a student",
		Example: `  studentdb student add --name "Ahmed Ali" --age 20 --grade A`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.check(); err != nil {
				return err
			}
			return withApp(cmd, flags, func(a *app) error {
				id, err := a.store.Insert(cmd.Context(), f.name, f.age, f.grade)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Student added with ID %d\n", id)
				return nil
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func newStudentListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all students",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app) error {
				students, err := a.store.FetchAll(cmd.Context())
				if err != nil {
					return err
				}
				printStudents(cmd.OutOrStdout(), students)
				return nil
			})
		},
	}
}

func newStudentGetCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one student by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, flags, func(a *app) error {
				s, err := a.store.FetchByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), s.String())
				return nil
			})
		},
	}
}

func newStudentFindCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "find <name>",
		Short: "Find students by exact, case-sensitive name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app) error {
				students, err := a.store.FetchByName(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printStudents(cmd.OutOrStdout(), students)
				return nil
			})
		},
	}
}

func newStudentUpdateCmd(flags *rootFlags) *cobra.Command {
	var f studentFields
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a student's name, age and grade",
		Long: `Replace every field of a student. Unless stable_ids is set in the
configuration the record is reinserted and gets a new id, which is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := f.check(); err != nil {
				return err
			}
			return withApp(cmd, flags, func(a *app) error {
				newID, err := a.store.Update(cmd.Context(), id, f.name, f.age, f.grade)
				if err != nil {
					return err
				}
				if newID != id {
					fmt.Fprintf(cmd.OutOrStdout(), "Student %d updated, new ID %d\n", id, newID)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Student %d updated\n", id)
				return nil
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func newStudentDeleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, flags, func(a *app) error {
				deleted, err := a.store.Delete(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !deleted {
					fmt.Fprintf(cmd.OutOrStdout(), "No student with ID %d\n", id)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Student %d deleted\n", id)
				return nil
			})
		},
	}
}

func newStudentStatsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show total, average age, unique grades and youngest age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app) error {
				st, err := a.store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Total students: %d\n", st.Total)
				fmt.Fprintf(out, "Average age:    %.1f\n", st.AverageAge)
				fmt.Fprintf(out, "Unique grades:  %d\n", st.UniqueGrades)
				fmt.Fprintf(out, "Youngest age:   %d\n", st.Youngest)
				return nil
			})
		},
	}
}

func printStudents(out io.Writer, students []types.Student) {
	if len(students) == 0 {
		fmt.Fprintln(out, "No students found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tAGE\tGRADE")
	for _, s := range students {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", s.ID, s.Name, s.Age, s.Grade)
	}
	w.Flush()
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, types.NewError("cli", types.ErrInvalidInput, fmt.Sprintf("invalid id %q: must be an integer", raw))
	}
	return id, nil
}
