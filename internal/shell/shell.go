// Package shell is the line-oriented presentation layer. It forwards user
// input to the services and renders their outputs; it owns no business
// logic beyond input parsing and page-index clamping.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/noah-isme/studentdesk/internal/models"
	"github.com/noah-isme/studentdesk/internal/service"
	appErrors "github.com/noah-isme/studentdesk/pkg/errors"
)

// errRestartRequired ends the run loop after a successful restore.
var errRestartRequired = errors.New("restart required")

// Shell drives one interactive session over stdin/stdout.
type Shell struct {
	auth     *service.AuthService
	students *service.StudentService
	transfer *service.TransferService
	backup   *service.BackupService
	reports  *service.ReportService
	audit    *service.AuditService

	in  *bufio.Scanner
	out io.Writer

	session *models.Session
	filter  string
	page    int
}

// New constructs a Shell bound to the given streams.
func New(auth *service.AuthService, students *service.StudentService, transfer *service.TransferService, backup *service.BackupService, reports *service.ReportService, audit *service.AuditService, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		auth:     auth,
		students: students,
		transfer: transfer,
		backup:   backup,
		reports:  reports,
		audit:    audit,
		in:       bufio.NewScanner(in),
		out:      out,
	}
}

// Run executes the login prompt and command loop until quit or EOF.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "Student Desk (type 'help' for commands)")
	for {
		if s.session == nil {
			if !s.loginPrompt(ctx) {
				return nil
			}
			continue
		}
		fmt.Fprintf(s.out, "%s(%s)> ", s.session.User, s.session.Role)
		if !s.in.Scan() {
			return nil
		}
		line := strings.TrimSpace(s.in.Text())
		if line == "" {
			continue
		}
		if err := s.dispatch(ctx, line); err != nil {
			if errors.Is(err, errRestartRequired) {
				fmt.Fprintln(s.out, "database restored; restart the application to reopen it")
				return nil
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			fmt.Fprintf(s.out, "error: %s\n", appErrors.FromError(err).Message)
		}
	}
}

func (s *Shell) loginPrompt(ctx context.Context) bool {
	fmt.Fprint(s.out, "login (username, or 'guest', or 'quit'): ")
	if !s.in.Scan() {
		return false
	}
	user := strings.TrimSpace(s.in.Text())
	switch user {
	case "quit", "exit":
		return false
	case "guest":
		s.session = s.auth.Guest(ctx)
		return true
	}
	fmt.Fprint(s.out, "password: ")
	if !s.in.Scan() {
		return false
	}
	session, err := s.auth.Login(ctx, user, strings.TrimSpace(s.in.Text()))
	if err != nil {
		fmt.Fprintf(s.out, "login failed: %s\n", appErrors.FromError(err).Message)
		return true
	}
	s.session = session
	return true
}

func (s *Shell) dispatch(ctx context.Context, line string) error {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "help":
		s.printHelp()
		return nil
	case "list":
		return s.showPage(ctx)
	case "search":
		s.filter = rest
		s.page = 0
		return s.showPage(ctx)
	case "page":
		return s.gotoPage(ctx, rest)
	case "next":
		s.page++
		return s.showPage(ctx)
	case "prev":
		s.page--
		return s.showPage(ctx)
	case "add":
		return s.add(ctx, rest)
	case "update":
		return s.update(ctx, rest)
	case "del":
		return s.delete(ctx, rest)
	case "undo":
		action, err := s.students.Undo(ctx, s.session)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "undo applied (%s)\n", action)
		return s.showPage(ctx)
	case "redo":
		kind, err := s.students.Redo(ctx, s.session)
		if err != nil {
			return err
		}
		// Redo acknowledges the marker but does not reapply the change.
		fmt.Fprintf(s.out, "redo acknowledged (%s); state not reapplied\n", kind)
		return nil
	case "import":
		return s.importFile(ctx, rest)
	case "export":
		return s.export(ctx, rest)
	case "report":
		return s.report(ctx, rest)
	case "audit":
		return s.showAudit(ctx)
	case "backup":
		path, err := s.backup.Backup(ctx, s.session)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "backed up to %s\n", path)
		return nil
	case "restore":
		if rest == "" {
			return appErrors.Clone(appErrors.ErrValidation, "usage: restore <file>")
		}
		if err := s.backup.Restore(ctx, s.session, rest); err != nil {
			return err
		}
		return errRestartRequired
	case "logout":
		s.auth.Logout(ctx, s.session)
		s.session = nil
		s.filter = ""
		s.page = 0
		return nil
	case "quit", "exit":
		s.auth.Logout(ctx, s.session)
		return io.EOF
	default:
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown command %q, try 'help'", cmd))
	}
}

func (s *Shell) printHelp() {
	fmt.Fprint(s.out, `commands:
  list                         show current page
  search <text>                filter by roll/name/course substring
  page <n> | next | prev       navigate pages
  add <name>;<roll>;<course>;<marks>
  update <id>;<name>;<roll>;<course>;<marks>
  del <id>                     delete a record (not available to guests)
  undo | redo                  revert the last change / acknowledge redo
  import <file>                bulk import rows (.csv or .xlsx)
  export csv|excel|pdf <file>  export the full roster
  report [pdf <file>]          show aggregates, optionally render PDF
  audit                        show the audit trail
  backup | restore <file>      snapshot or replace the database file
  logout | quit
`)
	fmt.Fprintf(s.out, "suggested courses: %s (course is free text)\n", strings.Join(models.SuggestedCourses, ", "))
}

func (s *Shell) gotoPage(ctx context.Context, arg string) error {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "usage: page <number>")
	}
	s.page = n - 1
	return s.showPage(ctx)
}

// showPage clamps the page index into range before rendering; the engine
// itself never clamps. An in-range index costs one query, an out-of-range
// one costs a second fetch after clamping against the returned totals.
func (s *Shell) showPage(ctx context.Context) error {
	if s.page < 0 {
		s.page = 0
	}
	result, err := s.students.Page(ctx, s.filter, s.page, 0)
	if err != nil {
		return err
	}
	if s.page > result.TotalPages-1 {
		s.page = result.TotalPages - 1
		result, err = s.students.Page(ctx, s.filter, s.page, 0)
		if err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(s.out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tROLL\tCOURSE\tMARKS\tCREATED")
	for _, st := range result.Rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n",
			st.ID, st.Name, st.Roll, st.Course, st.Marks, st.CreatedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
	fmt.Fprintf(s.out, "page %d/%d, %d record(s)\n", result.PageIndex+1, result.TotalPages, result.TotalRows)
	return nil
}

func (s *Shell) add(ctx context.Context, rest string) error {
	in, _, err := parseStudentArgs(rest, false)
	if err != nil {
		return err
	}
	student, err := s.students.Add(ctx, s.session, in)
	if err != nil {
		return describeValidation(err)
	}
	fmt.Fprintf(s.out, "added #%d %s\n", student.ID, student.Name)
	return nil
}

func (s *Shell) update(ctx context.Context, rest string) error {
	in, id, err := parseStudentArgs(rest, true)
	if err != nil {
		return err
	}
	student, err := s.students.Update(ctx, s.session, id, in)
	if err != nil {
		return describeValidation(err)
	}
	fmt.Fprintf(s.out, "updated #%d %s\n", student.ID, student.Name)
	return nil
}

func (s *Shell) delete(ctx context.Context, rest string) error {
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "usage: del <id>")
	}
	student, err := s.students.Delete(ctx, s.session, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "deleted #%d %s (roll %s)\n", student.ID, student.Name, student.Roll)
	return nil
}

func (s *Shell) importFile(ctx context.Context, path string) error {
	if path == "" {
		return appErrors.Clone(appErrors.ErrValidation, "usage: import <file.csv>")
	}
	summary, err := s.transfer.Import(ctx, s.session, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "imported %d of %d row(s)\n", summary.Inserted, summary.Total)
	return s.showPage(ctx)
}

func (s *Shell) export(ctx context.Context, rest string) error {
	format, file, _ := strings.Cut(rest, " ")
	file = strings.TrimSpace(file)
	if file == "" {
		return appErrors.Clone(appErrors.ErrValidation, "usage: export csv|excel|pdf <file>")
	}
	var (
		path string
		err  error
	)
	switch format {
	case "csv":
		path, err = s.transfer.ExportCSV(ctx, s.session, file)
	case "excel", "xlsx":
		path, err = s.transfer.ExportExcel(ctx, s.session, file)
	case "pdf":
		path, err = s.transfer.ExportPDF(ctx, s.session, file)
	default:
		return appErrors.Clone(appErrors.ErrValidation, "usage: export csv|excel|pdf <file>")
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "exported to %s\n", path)
	return nil
}

func (s *Shell) report(ctx context.Context, rest string) error {
	if sub, file, ok := strings.Cut(rest, " "); ok && sub == "pdf" {
		path, err := s.reports.RenderPDF(ctx, strings.TrimSpace(file))
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "report written to %s\n", path)
		return nil
	}
	snapshot, err := s.reports.Refresh(ctx, s.session)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "students per course:")
	for _, c := range snapshot.ByCourse {
		fmt.Fprintf(s.out, "  %-20s %d\n", c.Course, c.Count)
	}
	fmt.Fprintf(s.out, "marks recorded: %d\n", len(snapshot.Marks))
	return nil
}

func (s *Shell) showAudit(ctx context.Context) error {
	entries, err := s.audit.Recent(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(s.out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TS\tUSER\tROLE\tACTION\tDETAILS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.TS.Format("2006-01-02 15:04:05"), e.User, e.Role, e.Action, e.Details)
	}
	return w.Flush()
}

// parseStudentArgs splits "name;roll;course;marks", optionally preceded by
// an id, into a StudentInput.
func parseStudentArgs(rest string, withID bool) (service.StudentInput, int64, error) {
	parts := strings.Split(rest, ";")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	var id int64
	if withID {
		if len(parts) != 5 {
			return service.StudentInput{}, 0, appErrors.Clone(appErrors.ErrValidation, "usage: update <id>;<name>;<roll>;<course>;<marks>")
		}
		var err error
		id, err = strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return service.StudentInput{}, 0, appErrors.Clone(appErrors.ErrValidation, "id must be a number")
		}
		parts = parts[1:]
	} else if len(parts) != 4 {
		return service.StudentInput{}, 0, appErrors.Clone(appErrors.ErrValidation, "usage: add <name>;<roll>;<course>;<marks>")
	}
	marks, err := strconv.Atoi(parts[3])
	if err != nil {
		return service.StudentInput{}, 0, appErrors.Clone(appErrors.ErrValidation, "marks must be a number")
	}
	return service.StudentInput{
		Name:   parts[0],
		Roll:   parts[1],
		Course: parts[2],
		Marks:  marks,
	}, id, nil
}

// describeValidation surfaces per-field messages inline when present.
func describeValidation(err error) error {
	var fields service.FieldErrors
	if errors.As(err, &fields) {
		return appErrors.Clone(appErrors.ErrValidation, fields.Error())
	}
	return err
}
